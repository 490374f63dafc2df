// Package catalog provides business logic for dataset and blend definition
// management.
package catalog

import (
	"context"

	"blendql/internal/blend"
	"blendql/internal/domain"
)

// Service manages the stored dataset and blend definitions. Definitions are
// validated on write by materializing them through the blending engine, so
// configuration errors surface at creation time, never at query time.
type Service struct {
	datasets domain.DatasetRepository
	blends   domain.BlendRepository
}

// NewService creates a new catalog Service.
func NewService(datasets domain.DatasetRepository, blends domain.BlendRepository) *Service {
	return &Service{datasets: datasets, blends: blends}
}

// CreateDataset validates and stores a dataset definition.
func (s *Service) CreateDataset(ctx context.Context, principal string, req domain.CreateDatasetRequest) (*domain.DatasetSpec, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	spec := &domain.DatasetSpec{
		Name:      req.Name,
		Table:     req.Table,
		Adapter:   req.Adapter,
		Fields:    req.Fields,
		CreatedBy: principal,
	}
	if _, err := blend.FromSpec(spec); err != nil {
		return nil, err
	}
	return s.datasets.Create(ctx, spec)
}

// GetDataset retrieves a dataset definition by name.
func (s *Service) GetDataset(ctx context.Context, name string) (*domain.DatasetSpec, error) {
	return s.datasets.GetByName(ctx, name)
}

// ListDatasets lists all dataset definitions.
func (s *Service) ListDatasets(ctx context.Context) ([]domain.DatasetSpec, error) {
	return s.datasets.List(ctx)
}

// DeleteDataset removes a dataset definition. Datasets referenced by a
// stored blend cannot be deleted.
func (s *Service) DeleteDataset(ctx context.Context, name string) error {
	blends, err := s.blends.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range blends {
		if b.Primary == name {
			return domain.ErrConflict("dataset %q is the primary of blend %q", name, b.Name)
		}
		for _, sec := range b.Secondaries {
			if sec.Dataset == name {
				return domain.ErrConflict("dataset %q is a secondary of blend %q", name, b.Name)
			}
		}
	}
	return s.datasets.Delete(ctx, name)
}

// CreateBlend validates and stores a blend definition. All referenced
// datasets must exist and the mapping configuration must materialize
// cleanly.
func (s *Service) CreateBlend(ctx context.Context, principal string, req domain.CreateBlendRequest) (*domain.BlendSpec, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	spec := &domain.BlendSpec{
		Name:        req.Name,
		Primary:     req.Primary,
		Secondaries: req.Secondaries,
		ExtraFields: req.ExtraFields,
		CreatedBy:   principal,
	}

	datasets, err := s.materializeParticipants(ctx, spec)
	if err != nil {
		return nil, err
	}
	if _, err := blend.BlendFromSpec(spec, datasets); err != nil {
		return nil, err
	}
	return s.blends.Create(ctx, spec)
}

// GetBlend retrieves a blend definition by name.
func (s *Service) GetBlend(ctx context.Context, name string) (*domain.BlendSpec, error) {
	return s.blends.GetByName(ctx, name)
}

// ListBlends lists all blend definitions.
func (s *Service) ListBlends(ctx context.Context) ([]domain.BlendSpec, error) {
	return s.blends.List(ctx)
}

// DeleteBlend removes a blend definition.
func (s *Service) DeleteBlend(ctx context.Context, name string) error {
	return s.blends.Delete(ctx, name)
}

// materializeParticipants loads and materializes every dataset a blend
// references, keyed by name.
func (s *Service) materializeParticipants(ctx context.Context, spec *domain.BlendSpec) (map[string]*blend.Dataset, error) {
	names := []string{spec.Primary}
	for _, sec := range spec.Secondaries {
		names = append(names, sec.Dataset)
	}

	out := make(map[string]*blend.Dataset, len(names))
	for _, name := range names {
		if _, done := out[name]; done {
			continue
		}
		ds, err := s.datasets.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		materialized, err := blend.FromSpec(ds)
		if err != nil {
			return nil, err
		}
		out[name] = materialized
	}
	return out, nil
}
