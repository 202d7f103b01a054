package bytesize

import (
	"context"
	"testing"

	wastebot "github.com/greenloop/wastebot"
)

func jpegPayload(size int) []byte {
	data := make([]byte, size)
	data[0], data[1], data[2] = 0xFF, 0xD8, 0xFF
	return data
}

func TestAnalyzeRecognizesFormats(t *testing.T) {
	png := make([]byte, 1024)
	copy(png, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})

	webp := make([]byte, 1024)
	copy(webp[0:4], "RIFF")
	copy(webp[8:12], "WEBP")

	tests := []struct {
		name       string
		data       []byte
		wantAccept bool
		wantReason string
	}{
		{"jpeg", jpegPayload(1024), true, "local_heuristic_only"},
		{"png", png, true, "local_heuristic_only"},
		{"webp", webp, true, "local_heuristic_only"},
		{"text payload", []byte("definitely not an image, just text"), false, "not_a_photo"},
		{"truncated", []byte{0xFF, 0xD8}, false, "not_a_photo"},
	}

	a := New(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := wastebot.ImageAsset{Bytes: tt.data, Size: len(tt.data)}
			verdict, err := a.Analyze(context.Background(), img)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if verdict.Accepted != tt.wantAccept {
				t.Errorf("accepted = %v, want %v", verdict.Accepted, tt.wantAccept)
			}
			if verdict.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", verdict.Reason, tt.wantReason)
			}
		})
	}
}

func TestAnalyzeConfidenceScaling(t *testing.T) {
	a := New(1)

	small := wastebot.ImageAsset{Bytes: jpegPayload(10 * 1024), Size: 10 * 1024}
	verdict, err := a.Analyze(context.Background(), small)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if verdict.Confidence != 25 {
		t.Errorf("small photo confidence = %d, want 25", verdict.Confidence)
	}

	large := wastebot.ImageAsset{Bytes: jpegPayload(200 * 1024), Size: 200 * 1024}
	verdict, err = a.Analyze(context.Background(), large)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if verdict.Confidence != 50 {
		t.Errorf("usable photo confidence = %d, want 50", verdict.Confidence)
	}
}

func TestNeverShortCircuits(t *testing.T) {
	a := New(1)
	if a.MinConfidence() <= 50 {
		t.Errorf("MinConfidence() = %d must exceed any emitted confidence", a.MinConfidence())
	}
}
