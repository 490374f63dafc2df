// Package query compiles analyst query requests against stored dataset and
// blend definitions.
package query

import (
	"context"

	"blendql/internal/blend"
	"blendql/internal/domain"
)

// Service resolves stored definitions and drives the blending compiler.
type Service struct {
	datasets domain.DatasetRepository
	blends   domain.BlendRepository
}

// NewService creates a new query Service.
func NewService(datasets domain.DatasetRepository, blends domain.BlendRepository) *Service {
	return &Service{datasets: datasets, blends: blends}
}

// Request is the compile request contract: exactly one of Dataset or Blend
// names the source; Dimensions and Fields reference keys in its namespace.
type Request struct {
	Dataset    string
	Blend      string
	Dimensions []string
	Fields     []string
}

// Plan captures the compiler output. Statements always holds exactly one
// statement today; the slice is the seam for reference and comparison
// queries. Columns are the sigil-prefixed output aliases, dimensions first,
// in declared order; downstream renderers key result rows by them.
type Plan struct {
	Source     string
	Datasets   []string
	Dimensions []string
	Fields     []string
	Columns    []string
	Statements []string
}

// GeneratedSQL returns the single compiled statement.
func (p *Plan) GeneratedSQL() string {
	if len(p.Statements) == 0 {
		return ""
	}
	return p.Statements[0]
}

// ExplainQuery compiles the request into executable SQL without running it.
func (s *Service) ExplainQuery(ctx context.Context, req Request) (*Plan, error) {
	switch {
	case req.Dataset == "" && req.Blend == "":
		return nil, domain.ErrValidation("one of dataset or blend is required")
	case req.Dataset != "" && req.Blend != "":
		return nil, domain.ErrValidation("dataset and blend are mutually exclusive")
	}

	if req.Blend != "" {
		return s.explainBlend(ctx, req)
	}
	return s.explainDataset(ctx, req)
}

func (s *Service) explainDataset(ctx context.Context, req Request) (*Plan, error) {
	spec, err := s.datasets.GetByName(ctx, req.Dataset)
	if err != nil {
		return nil, err
	}
	ds, err := blend.FromSpec(spec)
	if err != nil {
		return nil, err
	}

	q := ds.Query()
	for _, key := range req.Dimensions {
		f, err := ds.Field(key)
		if err != nil {
			return nil, err
		}
		q.Dimension(f)
	}
	for _, key := range req.Fields {
		f, err := ds.Field(key)
		if err != nil {
			return nil, err
		}
		q.Select(f)
	}

	compiled, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Source:     req.Dataset,
		Datasets:   []string{req.Dataset},
		Dimensions: req.Dimensions,
		Fields:     req.Fields,
		Columns:    compiled.Columns,
		Statements: []string{compiled.Statement},
	}, nil
}

func (s *Service) explainBlend(ctx context.Context, req Request) (*Plan, error) {
	spec, err := s.blends.GetByName(ctx, req.Blend)
	if err != nil {
		return nil, err
	}

	names := []string{spec.Primary}
	for _, sec := range spec.Secondaries {
		names = append(names, sec.Dataset)
	}
	datasets := make(map[string]*blend.Dataset, len(names))
	for _, name := range names {
		if _, done := datasets[name]; done {
			continue
		}
		dsSpec, err := s.datasets.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if datasets[name], err = blend.FromSpec(dsSpec); err != nil {
			return nil, err
		}
	}

	b, err := blend.BlendFromSpec(spec, datasets)
	if err != nil {
		return nil, err
	}

	q := b.Query()
	for _, key := range req.Dimensions {
		f, err := b.Field(key)
		if err != nil {
			return nil, err
		}
		q.Dimension(f)
	}
	for _, key := range req.Fields {
		f, err := b.Field(key)
		if err != nil {
			return nil, err
		}
		q.Select(f)
	}

	compiled, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Source:     req.Blend,
		Datasets:   names,
		Dimensions: req.Dimensions,
		Fields:     req.Fields,
		Columns:    compiled.Columns,
		Statements: []string{compiled.Statement},
	}, nil
}
