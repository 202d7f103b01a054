// Package openai classifies photos with OpenAI's chat completions vision
// API. The model is asked for a strict JSON verdict which the shared
// parser turns into a chain verdict.
package openai

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
	analyzerName    = "openai"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o-mini"
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

// Config holds the OpenAI analyzer configuration.
type Config struct {
	APIKey        string
	Model         string
	Endpoint      string
	Timeout       time.Duration
	Priority      int
	MinConfidence int
}

// DefaultConfig returns the default OpenAI configuration.
func DefaultConfig() Config {
	return Config{
		Model:         defaultModel,
		Endpoint:      defaultEndpoint,
		Timeout:       60 * time.Second,
		Priority:      30,
		MinConfidence: 75,
	}
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageURL struct {
	URL string `json:"url"`
}

type imageContent struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyzer implements the OpenAI vision analyzer.
type Analyzer struct {
	config Config
	client *http.Client
}

// New creates a new OpenAI analyzer.
func New(cfg Config) *Analyzer {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
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

// Analyze sends the photo as a base64 data URL and parses the model's
// JSON verdict.
func (a *Analyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	reqBody := chatRequest{
		Model: a.config.Model,
		Messages: []message{
			{
				Role:    "system",
				Content: []any{textContent{Type: "text", Text: promptSystem}},
			},
			{
				Role: "user",
				Content: []any{imageContent{
					Type:     "image_url",
					ImageURL: imageURL{URL: encodeImageToDataURL(img.Bytes)},
				}},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "marshal", err.Error()).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "request", err.Error()).WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "request_failed", err.Error()).
			WithCategory(wastebot.ErrorCategoryNetwork).
			WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "read_body", err.Error()).
			WithCategory(wastebot.ErrorCategoryNetwork).
			WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "api_error",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(body), 200))).
			WithStatusCode(resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "bad_response", err.Error()).WithCause(err)
	}
	if len(chatResp.Choices) == 0 {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "bad_response", "no choices in response")
	}

	return analyzers.ParseVisionVerdict(analyzerName, chatResp.Choices[0].Message.Content)
}

func encodeImageToDataURL(imageData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
