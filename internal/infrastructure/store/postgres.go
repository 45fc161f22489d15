package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
)

const schema = `
CREATE TABLE IF NOT EXISTS shipments (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    record     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps each record as JSONB next to its status column. Patch locks
// the row, checks the status and writes in one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres db: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create shipments table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, rec domain.ShipmentRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO shipments (id, status, record, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Status, body, rec.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &domain.OpError{Op: "store.create", Kind: domain.KindConflict, Path: rec.ID, Err: err}
	}
	if err != nil {
		return fmt.Errorf("failed to insert shipment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM shipments WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShipmentRecord{}, &domain.OpError{Op: "store.get", Kind: domain.KindNotFound, Path: id}
	}
	if err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to read shipment: %w", err)
	}
	var rec domain.ShipmentRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to decode shipment %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.ShipmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, record FROM shipments ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	defer rows.Close()

	var out []domain.ShipmentRecord
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		var rec domain.ShipmentRecord
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode shipment %s: %w", id, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Patch(ctx context.Context, id, expectedStatus string, patch []byte) (rec domain.ShipmentRecord, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var (
		status string
		body   []byte
	)
	err = tx.QueryRowContext(ctx, `SELECT status, record FROM shipments WHERE id = $1 FOR UPDATE`, id).Scan(&status, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShipmentRecord{}, &domain.OpError{Op: "store.patch", Kind: domain.KindNotFound, Path: id}
	}
	if err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to lock shipment: %w", err)
	}
	if status != expectedStatus {
		err = &domain.OpError{
			Op: "store.patch", Kind: domain.KindConflict, Path: id,
			Err: fmt.Errorf("expected status %q, found %q", expectedStatus, status),
		}
		return domain.ShipmentRecord{}, err
	}

	var current domain.ShipmentRecord
	if err = json.Unmarshal(body, &current); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to decode shipment %s: %w", id, err)
	}
	rec, err = infrastructure.ApplyRecordPatch(current, patch)
	if err != nil {
		return domain.ShipmentRecord{}, err
	}
	rec.ID = id

	updated, err := json.Marshal(rec)
	if err != nil {
		return domain.ShipmentRecord{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE shipments SET status = $2, record = $3, updated_at = now() WHERE id = $1`,
		id, rec.Status, updated,
	); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to update shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("failed to commit shipment %s: %w", id, err)
	}
	return rec, nil
}
