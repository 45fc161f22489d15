package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Victor-armando18/service-clearance/internal/infrastructure/retry"
	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

const (
	NoShipmentsSummary = "No shipments available for analysis"
	InProcessBucket    = "In-Process"
	UnknownCountry     = "Unknown"
)

// closedStatuses are the statuses counted by name in the distribution; all
// others fall in the In-Process bucket.
var closedStatuses = []string{
	clearance.StatusDelivered,
	clearance.StatusReturned,
	clearance.StatusDestroyed,
	clearance.StatusAborted,
}

// Analytics aggregates stored shipments for the agency dashboard.
type Analytics struct {
	store     interfaces.ShipmentStore
	completer interfaces.Completer
	policy    retry.Policy
	logger    *zap.Logger
}

var _ interfaces.AnalyticsFacade = (*Analytics)(nil)

func NewAnalytics(store interfaces.ShipmentStore, c interfaces.Completer, policy retry.Policy, logger *zap.Logger) *Analytics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analytics{store: store, completer: c, policy: policy, logger: logger}
}

// Summary reads every record once. The AI paragraph is best effort and is left
// empty when the completion service fails.
func (a *Analytics) Summary(ctx context.Context) (interfaces.AnalyticsSummary, error) {
	records, err := a.store.List(ctx)
	if err != nil {
		return interfaces.AnalyticsSummary{}, fmt.Errorf("list shipments: %w", err)
	}

	sum := interfaces.AnalyticsSummary{
		TotalShipments:      len(records),
		ShipmentsOverMonths: []interfaces.MonthCount{},
		ShipmentsPerCountry: map[string]int{},
		StatusDistribution:  map[string]int{},
	}
	if len(records) == 0 {
		sum.AISummary = NoShipmentsSummary
		return sum, nil
	}

	for _, st := range closedStatuses {
		sum.StatusDistribution[st] = 0
	}

	var (
		cleared   int
		totalCost float64
		months    = map[time.Time]int{}
	)
	for _, rec := range records {
		if last, ok := rec.SenderLog.Last(); ok && last.Title == clearance.StageDelivered && last.Icon == clearance.IconSuccess {
			cleared++
		}
		totalCost += rec.ShippingCost

		created := rec.CreatedAt.UTC()
		months[time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)]++

		country := strings.ToUpper(strings.TrimSpace(rec.Receiver.Country))
		if country == "" {
			country = UnknownCountry
		}
		sum.ShipmentsPerCountry[country]++

		status := strings.TrimSpace(rec.Status)
		if _, ok := sum.StatusDistribution[status]; ok {
			sum.StatusDistribution[status]++
		}
	}

	closed := 0
	for _, st := range closedStatuses {
		closed += sum.StatusDistribution[st]
	}
	sum.InProcess = sum.TotalShipments - closed
	sum.StatusDistribution[InProcessBucket] = sum.InProcess

	total := float64(sum.TotalShipments)
	sum.ClearanceRate = tariff.Round(float64(cleared)/total*100, 2)
	sum.AvgShippingCost = tariff.Round(totalCost/total, 2)
	sum.AbortedRate = tariff.Round(float64(sum.StatusDistribution[clearance.StatusAborted])/total*100, 2)
	sum.ShipmentsOverMonths = monthSeries(months)

	sum.AISummary = a.narrate(ctx, sum)
	return sum, nil
}

func monthSeries(months map[time.Time]int) []interfaces.MonthCount {
	keys := make([]time.Time, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	out := make([]interfaces.MonthCount, 0, len(keys))
	for _, m := range keys {
		out = append(out, interfaces.MonthCount{Month: m.Format("Jan-2006"), Count: months[m]})
	}
	return out
}

func (a *Analytics) narrate(ctx context.Context, sum interfaces.AnalyticsSummary) string {
	if a.completer == nil {
		return ""
	}
	body, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return ""
	}
	prompt := "What measures can the shipping agency take based on this data? 50 words:\n" + string(body)

	text, err := retry.Do(ctx, a.policy, func(ctx context.Context) (string, error) {
		answer, err := a.completer.Complete(ctx, prompt)
		if err != nil {
			return "", err
		}
		if answer = strings.TrimSpace(answer); answer == "" {
			return "", retry.Permanent{Err: fmt.Errorf("empty summary")}
		}
		return answer, nil
	}, "")
	if err != nil {
		a.logger.Warn("analytics summary fell back", zap.Error(err))
	}
	return text
}
