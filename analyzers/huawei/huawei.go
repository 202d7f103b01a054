// Package huawei classifies photos through Huawei Cloud image tagging.
package huawei

import (
	"context"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	coreconfig "github.com/huaweicloud/huaweicloud-sdk-go-v3/core/config"
	image "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/image/v2"
	"github.com/huaweicloud/huaweicloud-sdk-go-v3/services/image/v2/model"
	region "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/image/v2/region"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/analyzers"
)

const analyzerName = "huawei"

// Config holds the Huawei analyzer configuration.
type Config struct {
	analyzers.ServiceConfig

	ProjectID     string
	Priority      int
	MinConfidence int

	// TagLanguage selects the tag vocabulary; the label mapping expects "en".
	TagLanguage string

	// TagLimit caps the number of returned tags per image.
	TagLimit int32
}

// DefaultConfig returns the default Huawei configuration.
func DefaultConfig() Config {
	return Config{
		ServiceConfig: analyzers.ServiceConfig{
			Region:  "ap-southeast-1",
			Timeout: 30 * time.Second,
		},
		Priority:      20,
		MinConfidence: 70,
		TagLanguage:   "en",
		TagLimit:      20,
	}
}

// Analyzer implements the Huawei image-tagging analyzer.
type Analyzer struct {
	config Config
	client *image.ImageClient
}

// New creates a new Huawei analyzer.
func New(cfg Config) (*Analyzer, error) {
	if cfg.TagLanguage == "" {
		cfg.TagLanguage = "en"
	}
	if cfg.TagLimit == 0 {
		cfg.TagLimit = 20
	}

	a := &Analyzer{config: cfg}
	if err := a.initClient(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) initClient() error {
	// Build() panics on empty keys; SafeBuild surfaces them as an error.
	auth, err := basic.NewCredentialsBuilder().
		WithAk(a.config.AccessKeyID).
		WithSk(a.config.AccessKeySecret).
		WithProjectId(a.config.ProjectID).
		SafeBuild()
	if err != nil {
		return wastebot.NewAnalyzerError(analyzerName, "invalid_credentials", err.Error()).WithCause(err)
	}

	reg, err := region.SafeValueOf(a.config.Region)
	if err != nil {
		return wastebot.NewAnalyzerError(analyzerName, "invalid_region", err.Error()).WithCause(err)
	}

	// RunImageTagging takes no context, so the HTTP client timeout is the
	// only bound on a slow call. The SDK default is 120s.
	httpCfg := coreconfig.DefaultHttpConfig()
	if a.config.Timeout > 0 {
		httpCfg = httpCfg.WithTimeout(a.config.Timeout)
	}

	a.client = image.NewImageClient(
		image.ImageClientBuilder().
			WithRegion(reg).
			WithCredential(auth).
			WithHttpConfig(httpCfg).
			Build())
	return nil
}

// Name returns the analyzer name.
func (a *Analyzer) Name() string { return analyzerName }

// Priority returns the chain position.
func (a *Analyzer) Priority() int { return a.config.Priority }

// MinConfidence returns the acceptance threshold.
func (a *Analyzer) MinConfidence() int { return a.config.MinConfidence }

// Analyze submits the image inline for tagging and reduces the tags to a
// waste verdict.
func (a *Analyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return wastebot.Verdict{}, err
	}

	encoded := base64.StdEncoding.EncodeToString(img.Bytes)
	threshold := float32(0)
	req := &model.RunImageTaggingRequest{
		Body: &model.ImageTaggingReq{
			Image:     &encoded,
			Language:  &a.config.TagLanguage,
			Limit:     &a.config.TagLimit,
			Threshold: &threshold,
		},
	}

	resp, err := a.client.RunImageTagging(req)
	if err != nil {
		return wastebot.Verdict{}, wastebot.NewAnalyzerError(analyzerName, "request_failed", err.Error()).
			WithCategory(wastebot.ErrorCategoryNetwork).
			WithCause(err)
	}

	labels := parseTags(resp)
	category, confidence := analyzers.ClassifyLabels(labels)

	verdict := wastebot.Verdict{
		Analyzer:   analyzerName,
		Accepted:   category != wastebot.CategoryUnknown,
		Confidence: confidence,
		Labels:     labels,
		Category:   category,
		AnalyzedAt: time.Now(),
	}
	if !verdict.Accepted {
		verdict.Reason = wastebot.ReasonNoWasteDetected
	}
	return verdict, nil
}

func parseTags(resp *model.RunImageTaggingResponse) []wastebot.Label {
	if resp == nil || resp.Result == nil || resp.Result.Tags == nil {
		return nil
	}

	var labels []wastebot.Label
	for _, tag := range *resp.Result.Tags {
		if tag.Tag == nil || *tag.Tag == "" {
			continue
		}
		// Confidences arrive as strings like "98.32".
		score := 0.0
		if tag.Confidence != nil {
			if parsed, err := strconv.ParseFloat(*tag.Confidence, 64); err == nil {
				score = parsed / 100.0
			}
		}
		labels = append(labels, wastebot.Label{Name: *tag.Tag, Score: score})
	}
	return labels
}
