package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"blendql/internal/domain"
)

// Compile-time check.
var _ domain.BlendRepository = (*BlendRepo)(nil)

// BlendRepo implements domain.BlendRepository using SQLite. Secondaries and
// extra fields are stored as JSON documents alongside the blend row.
type BlendRepo struct {
	db *sql.DB
}

// NewBlendRepo creates a new BlendRepo.
func NewBlendRepo(db *sql.DB) *BlendRepo {
	return &BlendRepo{db: db}
}

// Create inserts a new blend definition.
func (r *BlendRepo) Create(ctx context.Context, b *domain.BlendSpec) (*domain.BlendSpec, error) {
	secondariesJSON, err := json.Marshal(b.Secondaries)
	if err != nil {
		return nil, fmt.Errorf("marshal secondaries: %w", err)
	}
	extrasJSON, err := json.Marshal(b.ExtraFields)
	if err != nil {
		return nil, fmt.Errorf("marshal extra fields: %w", err)
	}

	now := time.Now().UTC()
	id := domain.NewID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO blends (id, name, primary_dataset, secondaries, extra_fields, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, b.Name, b.Primary, string(secondariesJSON), string(extrasJSON), b.CreatedBy, now, now)
	if err != nil {
		return nil, mapDBError(err)
	}

	out := *b
	out.ID = id
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

// GetByName returns a blend definition by name.
func (r *BlendRepo) GetByName(ctx context.Context, name string) (*domain.BlendSpec, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, primary_dataset, secondaries, extra_fields, created_by, created_at, updated_at
		 FROM blends WHERE name = ?`, name)
	return scanBlend(row)
}

// List returns all blend definitions ordered by name.
func (r *BlendRepo) List(ctx context.Context) ([]domain.BlendSpec, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, primary_dataset, secondaries, extra_fields, created_by, created_at, updated_at
		 FROM blends ORDER BY name`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.BlendSpec
	for rows.Next() {
		b, err := scanBlend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Delete removes a blend definition by name.
func (r *BlendRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blends WHERE name = ?`, name)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("blend %q not found", name)
	}
	return nil
}

func scanBlend(row rowScanner) (*domain.BlendSpec, error) {
	var b domain.BlendSpec
	var secondariesJSON, extrasJSON string
	err := row.Scan(&b.ID, &b.Name, &b.Primary, &secondariesJSON, &extrasJSON, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if err := json.Unmarshal([]byte(secondariesJSON), &b.Secondaries); err != nil {
		return nil, fmt.Errorf("unmarshal secondaries: %w", err)
	}
	if err := json.Unmarshal([]byte(extrasJSON), &b.ExtraFields); err != nil {
		return nil, fmt.Errorf("unmarshal extra fields: %w", err)
	}
	return &b, nil
}
