package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
)

var testNow = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func newRecord(id string) domain.ShipmentRecord {
	return domain.ShipmentRecord{
		State:     clearance.NewState(id, "Ana", clearance.DDP, testNow),
		Sender:    domain.Party{Name: "Ana", Country: "INDIA"},
		Receiver:  domain.Party{Name: "Bo", Country: "USA"},
		Product:   domain.Product{HSCode: "84713000", DeclaredValue: 1200},
		CreatedAt: testNow,
	}
}

func advance(t *testing.T, rec domain.ShipmentRecord, ev clearance.Event) []byte {
	t.Helper()
	next, err := clearance.Apply(rec.State, ev, clearance.Input{}, testNow)
	require.NoError(t, err)
	updated := rec
	updated.State = next
	patch, err := infrastructure.CreateRecordPatch(rec, updated)
	require.NoError(t, err)
	return patch
}

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := newRecord("s-1")

	require.NoError(t, s.Create(ctx, rec))
	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	err = s.Create(ctx, rec)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_PatchChecksStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := newRecord("s-1")
	require.NoError(t, s.Create(ctx, rec))

	patch := advance(t, rec, clearance.EventHSApproved)
	updated, err := s.Patch(ctx, "s-1", rec.Status, patch)
	require.NoError(t, err)
	assert.Equal(t, clearance.StatusHSApproved, updated.Status)
	assert.Equal(t, clearance.StageDocumentUpload, updated.Stage())

	// Segundo escritor com o estado antigo perde.
	_, err = s.Patch(ctx, "s-1", rec.Status, patch)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	_, err = s.Patch(ctx, "missing", "", patch)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ConcurrentPatchOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := newRecord("s-1")
	require.NoError(t, s.Create(ctx, rec))
	patch := advance(t, rec, clearance.EventHSApproved)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Patch(ctx, "s-1", rec.Status, patch); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Create(ctx, newRecord("s-1")), context.Canceled)
	_, err := s.Get(ctx, "s-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ListOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	late := newRecord("s-b")
	late.CreatedAt = testNow.Add(time.Hour)
	require.NoError(t, s.Create(ctx, late))
	require.NoError(t, s.Create(ctx, newRecord("s-c")))
	require.NoError(t, s.Create(ctx, newRecord("s-a")))

	list, err = s.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, rec := range list {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"s-a", "s-c", "s-b"}, ids)
}
