// Package tencent classifies photos through Tencent Cloud image label
// detection (TIIA DetectLabel).
package tencent

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tcerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tiia "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tiia/v20190529"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/analyzers"
)

const analyzerName = "tencent"

// Config holds the Tencent analyzer configuration.
type Config struct {
	analyzers.ServiceConfig

	// Chain position and acceptance threshold.
	Priority      int
	MinConfidence int
}

// DefaultConfig returns the default Tencent configuration.
func DefaultConfig() Config {
	return Config{
		ServiceConfig: analyzers.ServiceConfig{
			Region:   "ap-guangzhou",
			Endpoint: "tiia.tencentcloudapi.com",
			Timeout:  30 * time.Second,
		},
		Priority:      10,
		MinConfidence: 70,
	}
}

// Analyzer implements the Tencent label-detection analyzer.
type Analyzer struct {
	config     Config
	client     *tiia.Client
	credential *common.Credential
}

// New creates a new Tencent analyzer.
func New(cfg Config) (*Analyzer, error) {
	a := &Analyzer{config: cfg}
	if err := a.initClient(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) initClient() error {
	a.credential = common.NewCredential(a.config.AccessKeyID, a.config.AccessKeySecret)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = a.config.Endpoint
	if a.config.Timeout > 0 {
		cpf.HttpProfile.ReqTimeout = int(a.config.Timeout / time.Second)
	}

	client, err := tiia.NewClient(a.credential, a.config.Region, cpf)
	if err != nil {
		return wastebot.NewAnalyzerError(analyzerName, "client_init", err.Error()).WithCause(err)
	}
	a.client = client
	return nil
}

// Name returns the analyzer name.
func (a *Analyzer) Name() string { return analyzerName }

// Priority returns the chain position.
func (a *Analyzer) Priority() int { return a.config.Priority }

// MinConfidence returns the acceptance threshold.
func (a *Analyzer) MinConfidence() int { return a.config.MinConfidence }

// Analyze submits the image inline and reduces the detected labels to a
// waste verdict.
func (a *Analyzer) Analyze(ctx context.Context, img wastebot.ImageAsset) (wastebot.Verdict, error) {
	req := tiia.NewDetectLabelRequest()
	encoded := base64.StdEncoding.EncodeToString(img.Bytes)
	req.ImageBase64 = &encoded

	resp, err := a.client.DetectLabelWithContext(ctx, req)
	if err != nil {
		return wastebot.Verdict{}, mapError(err)
	}

	labels := parseLabels(resp)
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

func parseLabels(resp *tiia.DetectLabelResponse) []wastebot.Label {
	if resp == nil || resp.Response == nil {
		return nil
	}

	var labels []wastebot.Label
	for _, l := range resp.Response.Labels {
		if l == nil || l.Name == nil {
			continue
		}
		score := 0.0
		if l.Confidence != nil {
			score = float64(*l.Confidence) / 100.0
		}
		labels = append(labels, wastebot.Label{Name: *l.Name, Score: score})
	}
	return labels
}

func mapError(err error) error {
	if sdkErr, ok := err.(*tcerrors.TencentCloudSDKError); ok {
		ae := wastebot.NewAnalyzerError(analyzerName, sdkErr.Code, sdkErr.Message).WithCause(err)
		switch sdkErr.Code {
		case "RequestLimitExceeded":
			return ae.WithCategory(wastebot.ErrorCategoryRateLimit)
		case "AuthFailure", "AuthFailure.SignatureFailure", "AuthFailure.SecretIdNotFound":
			return ae.WithCategory(wastebot.ErrorCategoryAuth)
		case "InternalError":
			return ae.WithCategory(wastebot.ErrorCategoryNetwork)
		}
		return ae
	}
	return wastebot.NewAnalyzerError(analyzerName, "request_failed", err.Error()).
		WithCategory(wastebot.ErrorCategoryNetwork).
		WithCause(err)
}
