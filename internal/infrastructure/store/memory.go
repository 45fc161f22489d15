package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
)

// MemoryStore keeps records in a map. Patch holds the write lock across the
// status check and the write, which is what makes it a compare-and-swap.
type MemoryStore struct {
	shipments map[string]domain.ShipmentRecord
	mu        sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shipments: make(map[string]domain.ShipmentRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, rec domain.ShipmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[rec.ID]; ok {
		return &domain.OpError{Op: "store.create", Kind: domain.KindConflict, Path: rec.ID, Err: fmt.Errorf("shipment already exists")}
	}
	s.shipments[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ShipmentRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.shipments[id]
	if !ok {
		return domain.ShipmentRecord{}, &domain.OpError{Op: "store.get", Kind: domain.KindNotFound, Path: id}
	}
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.ShipmentRecord, 0, len(s.shipments))
	for _, rec := range s.shipments {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Patch(ctx context.Context, id, expectedStatus string, patch []byte) (domain.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ShipmentRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.shipments[id]
	if !ok {
		return domain.ShipmentRecord{}, &domain.OpError{Op: "store.patch", Kind: domain.KindNotFound, Path: id}
	}
	if rec.Status != expectedStatus {
		return rec, &domain.OpError{
			Op: "store.patch", Kind: domain.KindConflict, Path: id,
			Err: fmt.Errorf("expected status %q, found %q", expectedStatus, rec.Status),
		}
	}

	updated, err := infrastructure.ApplyRecordPatch(rec, patch)
	if err != nil {
		return rec, err
	}
	updated.ID = id
	s.shipments[id] = updated
	return updated, nil
}
