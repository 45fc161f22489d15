package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/store"
	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
)

func seedRecord(t *testing.T, s *store.MemoryStore, id, country, status string, cost float64, at time.Time) {
	t.Helper()
	rec := domain.ShipmentRecord{
		State:     clearance.NewState(id, "Ana", clearance.DDP, at),
		Receiver:  domain.Party{Country: country},
		CreatedAt: at,
	}
	rec.ShippingCost = cost
	if status != "" {
		rec.Status = status
	}
	if status == clearance.StatusDelivered {
		rec.SenderLog = append(rec.SenderLog, clearance.Entry{Title: clearance.StageDelivered, Icon: clearance.IconSuccess})
	}
	require.NoError(t, s.Create(context.Background(), rec))
}

func TestAnalyticsSummary(t *testing.T) {
	s := store.NewMemoryStore()
	jan := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	seedRecord(t, s, "s-1", "usa", clearance.StatusDelivered, 100, jan)
	seedRecord(t, s, "s-2", "USA", clearance.StatusAborted, 50, mar)
	seedRecord(t, s, "s-3", "", clearance.StatusInTransit, 0, mar)
	seedRecord(t, s, "s-4", "UAE", "", 25.555, jan)

	c := &scriptedCompleter{answer: "  Chase aborted shipments early.  "}
	got, err := NewAnalytics(s, c, testPolicy, nil).Summary(context.Background())
	require.NoError(t, err)

	want := interfaces.AnalyticsSummary{
		TotalShipments:  4,
		InProcess:       2,
		ClearanceRate:   25,
		AvgShippingCost: 43.89,
		AbortedRate:     25,
		ShipmentsOverMonths: []interfaces.MonthCount{
			{Month: "Jan-2024", Count: 2},
			{Month: "Mar-2024", Count: 2},
		},
		ShipmentsPerCountry: map[string]int{"USA": 2, "UAE": 1, UnknownCountry: 1},
		StatusDistribution: map[string]int{
			clearance.StatusDelivered: 1,
			clearance.StatusReturned:  0,
			clearance.StatusDestroyed: 0,
			clearance.StatusAborted:   1,
			InProcessBucket:           2,
		},
		AISummary: "Chase aborted shipments early.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestAnalyticsSummary_Empty(t *testing.T) {
	c := &scriptedCompleter{answer: "unused"}
	got, err := NewAnalytics(store.NewMemoryStore(), c, testPolicy, nil).Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.TotalShipments)
	assert.Equal(t, NoShipmentsSummary, got.AISummary)
	assert.Empty(t, got.ShipmentsOverMonths)
	assert.Zero(t, c.calls.Load())
}

func TestAnalyticsSummary_CompletionDown(t *testing.T) {
	s := store.NewMemoryStore()
	seedRecord(t, s, "s-1", "USA", "", 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	down := &scriptedCompleter{err: errors.New("503")}
	got, err := NewAnalytics(s, down, testPolicy, nil).Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.AISummary)
	assert.Equal(t, 1, got.InProcess)

	got, err = NewAnalytics(s, nil, testPolicy, nil).Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.AISummary)
}

type failingList struct{ *store.MemoryStore }

func (failingList) List(context.Context) ([]domain.ShipmentRecord, error) {
	return nil, errors.New("connection reset")
}

func TestAnalyticsSummary_StoreError(t *testing.T) {
	_, err := NewAnalytics(failingList{store.NewMemoryStore()}, nil, testPolicy, nil).Summary(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection reset"))
}
