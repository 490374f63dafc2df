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
var _ domain.DatasetRepository = (*DatasetRepo)(nil)

// DatasetRepo implements domain.DatasetRepository using SQLite. Field
// definitions are stored as a JSON document alongside the dataset row.
type DatasetRepo struct {
	db *sql.DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Create inserts a new dataset definition.
func (r *DatasetRepo) Create(ctx context.Context, d *domain.DatasetSpec) (*domain.DatasetSpec, error) {
	fieldsJSON, err := json.Marshal(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}

	now := time.Now().UTC()
	id := domain.NewID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, table_ref, adapter, fields, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.Name, d.Table, d.Adapter, string(fieldsJSON), d.CreatedBy, now, now)
	if err != nil {
		return nil, mapDBError(err)
	}

	out := *d
	out.ID = id
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

// GetByName returns a dataset definition by name.
func (r *DatasetRepo) GetByName(ctx context.Context, name string) (*domain.DatasetSpec, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, table_ref, adapter, fields, created_by, created_at, updated_at
		 FROM datasets WHERE name = ?`, name)
	return scanDataset(row)
}

// List returns all dataset definitions ordered by name.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.DatasetSpec, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, table_ref, adapter, fields, created_by, created_at, updated_at
		 FROM datasets ORDER BY name`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.DatasetSpec
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Delete removes a dataset definition by name.
func (r *DatasetRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("dataset %q not found", name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*domain.DatasetSpec, error) {
	var d domain.DatasetSpec
	var fieldsJSON string
	err := row.Scan(&d.ID, &d.Name, &d.Table, &d.Adapter, &fieldsJSON, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &d.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &d, nil
}
