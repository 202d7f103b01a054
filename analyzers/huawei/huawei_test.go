package huawei

import (
	"testing"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/services/image/v2/model"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/analyzers"
)

func strPtr(s string) *string { return &s }

func tagBody(tag, confidence string) model.ImageTaggingItemBody {
	return model.ImageTaggingItemBody{
		Tag:        strPtr(tag),
		Confidence: strPtr(confidence),
	}
}

func taggingResponse(tags ...model.ImageTaggingItemBody) *model.RunImageTaggingResponse {
	return &model.RunImageTaggingResponse{
		Result: &model.ImageTaggingResponseResult{Tags: &tags},
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		resp *model.RunImageTaggingResponse
		want []wastebot.Label
	}{
		{"nil response", nil, nil},
		{"nil result", &model.RunImageTaggingResponse{}, nil},
		{"nil tags", &model.RunImageTaggingResponse{Result: &model.ImageTaggingResponseResult{}}, nil},
		{"empty tags", taggingResponse(), nil},
		{
			"string confidences scaled to scores",
			taggingResponse(tagBody("Plastic bottle", "98.32"), tagBody("Street", "40")),
			[]wastebot.Label{
				{Name: "Plastic bottle", Score: 0.9832},
				{Name: "Street", Score: 0.4},
			},
		},
		{
			"nil tag name skipped",
			taggingResponse(
				model.ImageTaggingItemBody{Confidence: strPtr("90")},
				tagBody("Trash", "75"),
			),
			[]wastebot.Label{{Name: "Trash", Score: 0.75}},
		},
		{
			"empty tag name skipped",
			taggingResponse(tagBody("", "90"), tagBody("Garbage", "60")),
			[]wastebot.Label{{Name: "Garbage", Score: 0.6}},
		},
		{
			"nil confidence scores zero",
			taggingResponse(model.ImageTaggingItemBody{Tag: strPtr("Trash")}),
			[]wastebot.Label{{Name: "Trash", Score: 0}},
		},
		{
			"malformed confidence scores zero",
			taggingResponse(tagBody("Trash", "very sure")),
			[]wastebot.Label{{Name: "Trash", Score: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTags(tt.resp)
			if len(got) != len(tt.want) {
				t.Fatalf("parseTags() returned %d labels, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Name != tt.want[i].Name {
					t.Errorf("label[%d].Name = %q, want %q", i, got[i].Name, tt.want[i].Name)
				}
				if got[i].Score != tt.want[i].Score {
					t.Errorf("label[%d].Score = %v, want %v", i, got[i].Score, tt.want[i].Score)
				}
			}
		})
	}
}

func TestParseTagsFeedsClassification(t *testing.T) {
	resp := taggingResponse(tagBody("Plastic bottle", "92.5"), tagBody("Sky", "99"))

	category, confidence := analyzers.ClassifyLabels(parseTags(resp))
	if category != wastebot.CategoryRecyclable {
		t.Errorf("category = %q, want %q", category, wastebot.CategoryRecyclable)
	}
	if confidence != 92 {
		t.Errorf("confidence = %d, want 92", confidence)
	}
}

func TestNewRejectsEmptyCredentials(t *testing.T) {
	if _, err := New(DefaultConfig()); err == nil {
		t.Fatal("New() accepted empty credentials")
	}
}

func TestNewRejectsUnknownRegion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessKeyID = "ak"
	cfg.AccessKeySecret = "sk"
	cfg.Region = "mars-north-1"

	if _, err := New(cfg); err == nil {
		t.Fatal("New() accepted an unknown region")
	}
}

func TestDefaultConfigFillsTagDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TagLanguage != "en" {
		t.Errorf("TagLanguage = %q, want en", cfg.TagLanguage)
	}
	if cfg.TagLimit != 20 {
		t.Errorf("TagLimit = %d, want 20", cfg.TagLimit)
	}
	if cfg.Timeout <= 0 {
		t.Error("Timeout default must be positive so the HTTP client is bounded")
	}
}
