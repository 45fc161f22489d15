package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Victor-armando18/service-clearance/internal/infrastructure/retry"
	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

const NoHSCode = "NO HS CODE FOUND"

// DefaultDocuments is the answer when the completion service cannot be reached.
var DefaultDocuments = []string{
	"Commercial Invoice",
	"Packing List",
	"Bill of Lading",
	"Certificate of Origin",
	"Insurance Certificate",
	"Customs Declaration Form",
}

// Advisor answers HS code and document questions through a completion service.
// Upstream failures degrade to fixed answers; callers never see them.
type Advisor struct {
	completer interfaces.Completer
	policy    retry.Policy
	logger    *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	docs  map[string][]string
}

var _ interfaces.AdvisorFacade = (*Advisor)(nil)

func NewAdvisor(c interfaces.Completer, policy retry.Policy, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{completer: c, policy: policy, logger: logger, docs: make(map[string][]string)}
}

func (a *Advisor) SuggestHSCode(ctx context.Context, description, country string) string {
	if a.completer == nil || strings.TrimSpace(description) == "" {
		return NoHSCode
	}
	prompt := fmt.Sprintf("Give only the 8 digit HS code, no other text, for this product exported to %s: %s",
		strings.ToUpper(strings.TrimSpace(country)), strings.TrimSpace(description))

	code, err := retry.Do(ctx, a.policy, func(ctx context.Context) (string, error) {
		answer, err := a.completer.Complete(ctx, prompt)
		if err != nil {
			return "", err
		}
		digits := tariff.Digits(answer)
		if digits == "" {
			return "", retry.Permanent{Err: fmt.Errorf("no digits in answer %q", answer)}
		}
		return digits, nil
	}, NoHSCode)
	if err != nil {
		a.logger.Warn("hs code suggestion fell back", zap.Error(err))
	}
	return code
}

// RequiredDocuments caches answers per (hs digits, country). Concurrent misses for
// the same key share one upstream call. Fallback answers are not cached. A caller
// whose ctx ends first gets the fallback; the shared call keeps going for the others.
func (a *Advisor) RequiredDocuments(ctx context.Context, hsCode, country string) []string {
	key := tariff.Digits(hsCode) + "|" + strings.ToUpper(strings.TrimSpace(country))

	a.mu.RLock()
	cached, ok := a.docs[key]
	a.mu.RUnlock()
	if ok {
		return append([]string(nil), cached...)
	}
	if a.completer == nil {
		return append([]string(nil), DefaultDocuments...)
	}

	// A chamada partilhada não herda o cancelamento de quem chegou primeiro;
	// a política de retry limita a sua duração.
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan(key, func() (any, error) {
		prompt := fmt.Sprintf("List the documents customs requires to import goods with HS code %s into %s. "+
			"Answer with a JSON array of strings only.", tariff.Digits(hsCode), strings.ToUpper(strings.TrimSpace(country)))

		docs, err := retry.Do(shared, a.policy, func(ctx context.Context) ([]string, error) {
			answer, err := a.completer.Complete(ctx, prompt)
			if err != nil {
				return nil, err
			}
			return ParseDocumentList(answer)
		}, nil)
		if err != nil || len(docs) == 0 {
			a.logger.Warn("required documents fell back", zap.String("key", key), zap.Error(err))
			return DefaultDocuments, nil
		}

		a.mu.Lock()
		a.docs[key] = docs
		a.mu.Unlock()
		return docs, nil
	})

	select {
	case res := <-ch:
		return append([]string(nil), res.Val.([]string)...)
	case <-ctx.Done():
		return append([]string(nil), DefaultDocuments...)
	}
}

// ParseDocumentList reads the first JSON array of strings found in text.
func ParseDocumentList(text string) ([]string, error) {
	start := strings.Index(text, "[")
	if start < 0 {
		return nil, retry.Permanent{Err: fmt.Errorf("no JSON array in answer")}
	}
	var docs []string
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&docs); err != nil {
		return nil, retry.Permanent{Err: fmt.Errorf("decode document list: %w", err)}
	}
	out := docs[:0]
	for _, d := range docs {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// Risk levels reported by AnalyzeRisk.
const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskUnknown = "Unknown"
)

const riskPrompt = `Analyze customs compliance for:
- HS Code: %s
- Product Category: %s
- Destination Country: %s

Return ONLY a JSON object with this exact structure, no markdown:
{"hsCode": "string", "requiredDocuments": ["string"], "keyRisks": ["string"], "recommendations": ["string"],
 "summary": "string", "riskLevel": "Low or Medium or High or Unknown", "riskScore": 0-100, "confidence": 0.0-1.0}
If the HS code does not match the product category in the destination country, or you are unsure,
use riskLevel "Unknown", riskScore 0, confidence 0.0, empty arrays and summary "Invalid HS Code".`

// AnalyzeRisk asks for a compliance assessment. Any upstream failure yields an
// Unknown report whose summary carries the last error.
func (a *Advisor) AnalyzeRisk(ctx context.Context, req interfaces.RiskRequest) interfaces.RiskReport {
	req.HSCode = strings.TrimSpace(req.HSCode)
	var (
		report interfaces.RiskReport
		err    error
	)
	if a.completer == nil {
		err = fmt.Errorf("completion service not configured")
	} else {
		prompt := fmt.Sprintf(riskPrompt, req.HSCode, strings.TrimSpace(req.ProductCategory),
			strings.ToUpper(strings.TrimSpace(req.DestinationCountry)))
		report, err = retry.Do(ctx, a.policy, func(ctx context.Context) (interfaces.RiskReport, error) {
			answer, err := a.completer.Complete(ctx, prompt)
			if err != nil {
				return interfaces.RiskReport{}, err
			}
			return ParseRiskReport(answer, req.HSCode)
		}, interfaces.RiskReport{})
	}
	if err != nil {
		a.logger.Warn("risk analysis fell back", zap.String("hs_code", req.HSCode), zap.Error(err))
		report = unknownRisk(req.HSCode, err.Error())
	}

	report.ProductName = req.ProductName
	if len(req.UserDocuments) > 0 {
		report.UserDocuments = append([]string(nil), req.UserDocuments...)
		report.MissingDocuments = missingDocuments(report.RequiredDocuments, req.UserDocuments)
	}
	return report
}

// ParseRiskReport decodes a risk answer, tolerating a surrounding code fence.
// Missing fields get defaults; score and confidence are clamped.
func ParseRiskReport(text, hsCode string) (interfaces.RiskReport, error) {
	body := stripFence(text)
	if body == "" {
		return interfaces.RiskReport{}, fmt.Errorf("empty risk answer")
	}
	var raw struct {
		HSCode            *string  `json:"hsCode"`
		RiskLevel         *string  `json:"riskLevel"`
		RiskScore         float64  `json:"riskScore"`
		Confidence        float64  `json:"confidence"`
		Summary           *string  `json:"summary"`
		RequiredDocuments []string `json:"requiredDocuments"`
		KeyRisks          []string `json:"keyRisks"`
		Recommendations   []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return interfaces.RiskReport{}, retry.Permanent{Err: fmt.Errorf("decode risk answer: %w", err)}
	}

	r := interfaces.RiskReport{
		HSCode:            hsCode,
		RiskLevel:         RiskUnknown,
		Summary:           "No summary",
		RiskScore:         int(min(max(raw.RiskScore, 0), 100)),
		Confidence:        min(max(raw.Confidence, 0), 1),
		RequiredDocuments: nonNil(raw.RequiredDocuments),
		KeyRisks:          nonNil(raw.KeyRisks),
		Recommendations:   nonNil(raw.Recommendations),
	}
	if raw.HSCode != nil && *raw.HSCode != "" {
		r.HSCode = *raw.HSCode
	}
	if raw.RiskLevel != nil && *raw.RiskLevel != "" {
		r.RiskLevel = *raw.RiskLevel
	}
	if raw.Summary != nil {
		r.Summary = *raw.Summary
	}
	return r, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	nl := strings.IndexByte(text, '\n')
	last := strings.LastIndex(text, "```")
	if nl < 0 || last <= nl {
		return text
	}
	return strings.TrimSpace(text[nl+1 : last])
}

func unknownRisk(hsCode, msg string) interfaces.RiskReport {
	return interfaces.RiskReport{
		HSCode:            hsCode,
		RiskLevel:         RiskUnknown,
		Summary:           msg,
		RequiredDocuments: []string{},
		KeyRisks:          []string{"Unable to process request"},
		Recommendations:   []string{"Verify HS code and try again"},
	}
}

// missingDocuments keeps the required names the user has not provided,
// compared case-insensitively.
func missingDocuments(required, provided []string) []string {
	have := make(map[string]bool, len(provided))
	for _, p := range provided {
		have[strings.ToLower(strings.TrimSpace(p))] = true
	}
	missing := []string{}
	for _, r := range required {
		if !have[strings.ToLower(strings.TrimSpace(r))] {
			missing = append(missing, r)
		}
	}
	return missing
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
