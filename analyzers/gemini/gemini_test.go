package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	wastebot "github.com/greenloop/wastebot"
)

func candidateReply(text string) string {
	return `{"candidates": [{"content": {"parts": [{"text": ` + jsonQuote(text) + `}]}}]}`
}

func jsonQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}

func newTestAnalyzer(t *testing.T, handler http.HandlerFunc) *Analyzer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	return New(cfg)
}

func TestAnalyzeAcceptsWaste(t *testing.T) {
	a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "key=test-key") {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(candidateReply(`{"is_waste": true, "confidence": 0.82, "category": "organic", "labels": ["food waste"]}`)))
	})

	verdict, err := a.Analyze(context.Background(), wastebot.ImageAsset{Bytes: []byte("jpegdata"), Size: 8})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !verdict.Accepted || verdict.Confidence != 82 {
		t.Errorf("verdict = %+v, want accepted with confidence 82", verdict)
	}
	if verdict.Category != wastebot.CategoryOrganic {
		t.Errorf("category = %q, want organic", verdict.Category)
	}
}

func TestAnalyzeFallsBackToSecondSurface(t *testing.T) {
	calls := 0
	a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.HasPrefix(r.URL.Path, "/v1beta/") {
			http.Error(w, "model not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(candidateReply(`{"is_waste": false, "confidence": 0.9}`)))
	})

	verdict, err := a.Analyze(context.Background(), wastebot.ImageAsset{Bytes: []byte("jpegdata"), Size: 8})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (v1beta then v1)", calls)
	}
	if verdict.Accepted {
		t.Error("expected rejection")
	}
}

func TestAnalyzeNoCandidates(t *testing.T) {
	a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	_, err := a.Analyze(context.Background(), wastebot.ImageAsset{Bytes: []byte("jpegdata"), Size: 8})
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Errorf("error = %v, want no-candidates failure", err)
	}
}

func TestAnalyzeServerErrorRetryable(t *testing.T) {
	a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := a.Analyze(context.Background(), wastebot.ImageAsset{Bytes: []byte("jpegdata"), Size: 8})
	if err == nil {
		t.Fatal("expected error")
	}
	if !wastebot.IsRetryable(err) {
		t.Errorf("503 should be retryable, got %v", err)
	}
}
