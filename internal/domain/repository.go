package domain

import "context"

// DatasetRepository provides CRUD operations for stored dataset definitions.
type DatasetRepository interface {
	Create(ctx context.Context, d *DatasetSpec) (*DatasetSpec, error)
	GetByName(ctx context.Context, name string) (*DatasetSpec, error)
	List(ctx context.Context) ([]DatasetSpec, error)
	Delete(ctx context.Context, name string) error
}

// BlendRepository provides CRUD operations for stored blend definitions.
type BlendRepository interface {
	Create(ctx context.Context, b *BlendSpec) (*BlendSpec, error)
	GetByName(ctx context.Context, name string) (*BlendSpec, error)
	List(ctx context.Context) ([]BlendSpec, error)
	Delete(ctx context.Context, name string) error
}
