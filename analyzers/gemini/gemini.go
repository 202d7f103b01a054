// Package gemini classifies photos with Google's Gemini generateContent
// API, using the same JSON verdict contract as the openai analyzer.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/analyzers"
)

const (
	analyzerName = "gemini"
	defaultModel = "gemini-1.5-flash"
	baseEndpoint = "https://generativelanguage.googleapis.com"
)

const promptSystem = `You are a municipal waste inspector reviewing citizen-submitted photos.
Decide whether the photo shows reportable waste in a public space: litter,
dumped garbage, overflowing bins, construction debris, hazardous materials.
Normal clean streets, indoor scenes, selfies, screenshots, and memes are NOT
reportable waste.

Respond with a single JSON object and nothing else:
{
  "is_waste": <true | false>,
  "confidence": <0.0-1.0>,
  "category": "<recyclable | organic | hazardous | general>",
  "labels": ["<what you see, e.g. plastic bottle>", "..."],
  "reason": "<one short sentence>"
}`

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type geminiRequest struct {
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
	Contents         []content        `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Config holds the Gemini analyzer configuration.
type Config struct {
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	Priority      int
	MinConfidence int
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() Config {
	return Config{
		Model:         defaultModel,
		BaseURL:       baseEndpoint,
		Timeout:       60 * time.Second,
		Priority:      40,
		MinConfidence: 75,
	}
}

// Analyzer implements the Gemini vision analyzer.
type Analyzer struct {
	config Config
	client *http.Client
}

// New creates a new Gemini analyzer.
func New(cfg Config) *Analyzer {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Analyzer{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the analyzer name.
func (a *Analyzer) Name() string { return analyzerName }

// Priority returns the chain position.
func (a *Analyzer) Priority() int { return a.config.Priority }

// MinConfidence returns the acceptance threshold.
func (a *Analyzer) MinConfidence() int { return a.config.MinConfidence }

// Analyze sends the photo inline and parses the model's JSON verdict.
func (a *Analyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	reqBody := geminiRequest{
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{Text: promptSystem},
					{InlineData: &inlineData{
						MimeType: "image/jpeg",
						Data:     base64.StdEncoding.EncodeToString(img.Bytes),
					}},
				},
			},
		},
	}

	text, err := a.generateContent(ctx, reqBody)
	if err != nil {
		return wastebot.Verdict{}, err
	}
	return analyzers.ParseVisionVerdict(analyzerName, text)
}

func (a *Analyzer) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	// v1beta first, then v1; some models only exist on one surface.
	endpoints := []string{
		fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.config.BaseURL, a.config.Model, a.config.APIKey),
		fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", a.config.BaseURL, a.config.Model, a.config.APIKey),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", wastebot.NewAnalyzerError(analyzerName, "marshal", err.Error()).WithCause(err)
	}

	var lastErr error
	for _, ep := range endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = wastebot.NewAnalyzerError(analyzerName, "request", err.Error()).WithCause(err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			lastErr = wastebot.NewAnalyzerError(analyzerName, "request_failed", err.Error()).
				WithCategory(wastebot.ErrorCategoryNetwork).
				WithCause(err)
			continue
		}

		text, err := parseResponse(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", lastErr
}

func parseResponse(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wastebot.NewAnalyzerError(analyzerName, "read_body", err.Error()).
			WithCategory(wastebot.ErrorCategoryNetwork).
			WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(bodyBytes)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", wastebot.NewAnalyzerError(analyzerName, "api_error",
			fmt.Sprintf("status %d: %s", resp.StatusCode, msg)).
			WithStatusCode(resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.Unmarshal(bodyBytes, &gr); err != nil {
		return "", wastebot.NewAnalyzerError(analyzerName, "bad_response", err.Error()).WithCause(err)
	}
	if len(gr.Candidates) == 0 {
		return "", wastebot.NewAnalyzerError(analyzerName, "bad_response", "no candidates in response")
	}
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text, nil
		}
	}
	return "", wastebot.NewAnalyzerError(analyzerName, "bad_response", "no text part in response")
}
