package analyzers

import (
	"strings"

	wastebot "github.com/greenloop/wastebot"
)

// labelCategories maps normalized vision labels to waste categories. The
// vendors disagree on vocabulary, so matching is substring-based over a
// lowercased label.
var labelCategories = map[string]wastebot.Category{
	"plastic bottle": wastebot.CategoryRecyclable,
	"plastic bag":    wastebot.CategoryGeneral,
	"plastic":        wastebot.CategoryRecyclable,
	"bottle":         wastebot.CategoryRecyclable,
	"glass":          wastebot.CategoryRecyclable,
	"aluminum":       wastebot.CategoryRecyclable,
	"tin can":        wastebot.CategoryRecyclable,
	"can":            wastebot.CategoryRecyclable,
	"cardboard":      wastebot.CategoryRecyclable,
	"paper":          wastebot.CategoryRecyclable,
	"metal":          wastebot.CategoryRecyclable,
	"scrap":          wastebot.CategoryRecyclable,

	"food waste":  wastebot.CategoryOrganic,
	"food scraps": wastebot.CategoryOrganic,
	"compost":     wastebot.CategoryOrganic,
	"organic":     wastebot.CategoryOrganic,
	"leaves":      wastebot.CategoryOrganic,
	"leaf litter": wastebot.CategoryOrganic,
	"branches":    wastebot.CategoryOrganic,

	"battery":     wastebot.CategoryHazardous,
	"batteries":   wastebot.CategoryHazardous,
	"electronics": wastebot.CategoryHazardous,
	"e-waste":     wastebot.CategoryHazardous,
	"chemical":    wastebot.CategoryHazardous,
	"paint":       wastebot.CategoryHazardous,
	"oil drum":    wastebot.CategoryHazardous,
	"tire":        wastebot.CategoryHazardous,
	"tyre":        wastebot.CategoryHazardous,
	"syringe":     wastebot.CategoryHazardous,
	"medical":     wastebot.CategoryHazardous,

	"trash":        wastebot.CategoryGeneral,
	"garbage":      wastebot.CategoryGeneral,
	"litter":       wastebot.CategoryGeneral,
	"rubbish":      wastebot.CategoryGeneral,
	"waste":        wastebot.CategoryGeneral,
	"debris":       wastebot.CategoryGeneral,
	"dump":         wastebot.CategoryGeneral,
	"landfill":     wastebot.CategoryGeneral,
	"refuse":       wastebot.CategoryGeneral,
	"pollution":    wastebot.CategoryGeneral,
	"illegal dump": wastebot.CategoryGeneral,
}

// matchOrder keeps substring matching deterministic: longer, more specific
// keys are tried before short generic ones.
var matchOrder = buildMatchOrder()

func buildMatchOrder() []string {
	keys := make([]string, 0, len(labelCategories))
	for k := range labelCategories {
		keys = append(keys, k)
	}
	// insertion sort by descending length; the map is small
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// CategoryForLabel maps a single vision label to a waste category.
// Unrecognized labels map to CategoryUnknown.
func CategoryForLabel(label string) wastebot.Category {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return wastebot.CategoryUnknown
	}
	for _, key := range matchOrder {
		if strings.Contains(normalized, key) {
			return labelCategories[key]
		}
	}
	return wastebot.CategoryUnknown
}

// IsWasteLabel reports whether a label names something reportable.
func IsWasteLabel(label string) bool {
	return CategoryForLabel(label) != wastebot.CategoryUnknown
}

// ClassifyLabels reduces a scored label set to a single category and
// confidence. The category comes from the highest-scoring waste label;
// the confidence is that label's score scaled to 0-100. A label set with
// no waste labels yields (CategoryUnknown, 0).
func ClassifyLabels(labels []wastebot.Label) (wastebot.Category, int) {
	best := wastebot.CategoryUnknown
	bestScore := 0.0
	for _, l := range labels {
		cat := CategoryForLabel(l.Name)
		if cat == wastebot.CategoryUnknown {
			continue
		}
		if l.Score > bestScore {
			best = cat
			bestScore = l.Score
		}
	}
	if best == wastebot.CategoryUnknown {
		return wastebot.CategoryUnknown, 0
	}
	confidence := int(bestScore * 100)
	if bestScore > 1 {
		// some vendors already score 0-100
		confidence = int(bestScore)
	}
	if confidence > 100 {
		confidence = 100
	}
	return best, confidence
}

// NormalizeCategory coerces free-form category strings from LLM verdicts
// into the closed category set.
func NormalizeCategory(s string) wastebot.Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recyclable", "recycling", "recyclables":
		return wastebot.CategoryRecyclable
	case "organic", "compostable", "green":
		return wastebot.CategoryOrganic
	case "hazardous", "toxic", "dangerous", "e-waste", "ewaste":
		return wastebot.CategoryHazardous
	case "general", "mixed", "household", "landfill":
		return wastebot.CategoryGeneral
	default:
		return wastebot.CategoryUnknown
	}
}
