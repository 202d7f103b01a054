package analyzers

import (
	"encoding/json"
	"fmt"
	"strings"

	wastebot "github.com/greenloop/wastebot"
)

// VisionVerdict is the JSON contract requested from LLM vision models.
type VisionVerdict struct {
	IsWaste    bool     `json:"is_waste"`
	Confidence float64  `json:"confidence"`
	Category   string   `json:"category"`
	Labels     []string `json:"labels"`
	Reason     string   `json:"reason"`
}

// ExtractJSON pulls a JSON object out of a model response. Models often
// wrap the payload in markdown code fences or surround it with prose, so
// we strip fences first and then cut from the first '{' to the last '}'.
func ExtractJSON(response string) (string, error) {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

// ParseVisionVerdict decodes a model response into a Verdict attributed to
// the named analyzer. Confidence accepts either a 0-1 fraction or a 0-100
// percentage.
func ParseVisionVerdict(analyzer, response string) (wastebot.Verdict, error) {
	raw, err := ExtractJSON(response)
	if err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzer, "bad_response", err.Error())
	}

	var vv VisionVerdict
	if err := json.Unmarshal([]byte(raw), &vv); err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzer, "bad_response", "unparseable verdict JSON").WithCause(err)
	}

	confidence := int(vv.Confidence)
	if vv.Confidence > 0 && vv.Confidence <= 1 {
		confidence = int(vv.Confidence * 100)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	labels := make([]wastebot.Label, 0, len(vv.Labels))
	for _, name := range vv.Labels {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		labels = append(labels, wastebot.Label{Name: name, Score: float64(confidence) / 100})
	}

	category := NormalizeCategory(vv.Category)
	if category == wastebot.CategoryUnknown && vv.IsWaste {
		category, _ = ClassifyLabels(labels)
	}

	verdict := wastebot.Verdict{
		Analyzer:   analyzer,
		Accepted:   vv.IsWaste,
		Confidence: confidence,
		Labels:     labels,
		Category:   category,
		Reason:     strings.TrimSpace(vv.Reason),
	}
	if !vv.IsWaste && verdict.Reason == "" {
		verdict.Reason = wastebot.ReasonNoWasteDetected
	}
	return verdict, nil
}
