package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"blendql/internal/blend"
	"blendql/internal/domain"
)

// Workspace is the YAML document the CLI compiles: dataset definitions, an
// optional blend over them, and the query to run against the result.
type Workspace struct {
	Datasets []WorkspaceDataset `yaml:"datasets"`
	Blend    *WorkspaceBlend    `yaml:"blend,omitempty"`
	Query    WorkspaceQuery     `yaml:"query"`
}

// WorkspaceDataset mirrors a stored dataset definition.
type WorkspaceDataset struct {
	Name    string           `yaml:"name"`
	Table   string           `yaml:"table"`
	Adapter string           `yaml:"adapter,omitempty"`
	Fields  []WorkspaceField `yaml:"fields"`
}

// WorkspaceField mirrors a stored field definition.
type WorkspaceField struct {
	Key        string `yaml:"key"`
	Label      string `yaml:"label,omitempty"`
	Definition string `yaml:"definition"`
	DataType   string `yaml:"data_type"`
	Role       string `yaml:"role"`
	Grain      string `yaml:"grain,omitempty"`
}

// WorkspaceBlend mirrors a stored blend definition. When absent, the query
// runs against the single dataset named by Query.Dataset.
type WorkspaceBlend struct {
	Primary     string                `yaml:"primary"`
	Secondaries []WorkspaceSecondary  `yaml:"secondaries"`
	ExtraFields []WorkspaceExtraField `yaml:"extra_fields,omitempty"`
}

// WorkspaceSecondary names one secondary dataset and its join mapping.
type WorkspaceSecondary struct {
	Dataset      string                 `yaml:"dataset"`
	OnDimensions bool                   `yaml:"on_dimensions,omitempty"`
	Mapping      []WorkspaceMappingPair `yaml:"mapping,omitempty"`
}

// WorkspaceMappingPair is one explicit join pair.
type WorkspaceMappingPair struct {
	PrimaryField   string `yaml:"primary_field"`
	SecondaryField string `yaml:"secondary_field"`
}

// WorkspaceExtraField is a computed blended field.
type WorkspaceExtraField struct {
	Key      string              `yaml:"key"`
	Label    string              `yaml:"label,omitempty"`
	DataType string              `yaml:"data_type"`
	Op       string              `yaml:"op"`
	Operands []WorkspaceFieldRef `yaml:"operands"`
}

// WorkspaceFieldRef references a field inside a named dataset.
type WorkspaceFieldRef struct {
	Dataset string `yaml:"dataset"`
	Field   string `yaml:"field"`
}

// WorkspaceQuery selects what to compile.
type WorkspaceQuery struct {
	Dataset    string   `yaml:"dataset,omitempty"`
	Dimensions []string `yaml:"dimensions,omitempty"`
	Fields     []string `yaml:"fields"`
}

// LoadWorkspace reads and decodes a workspace file. Unknown YAML keys are
// rejected so typos surface as errors instead of silently dropped settings.
func LoadWorkspace(path string) (*Workspace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var ws Workspace
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&ws); err != nil {
		return nil, fmt.Errorf("decode workspace %s: %w", path, err)
	}
	return &ws, nil
}

// Validate checks the workspace with the same rules the server applies on
// registration, without touching any compiler state.
func (ws *Workspace) Validate() error {
	if len(ws.Datasets) == 0 {
		return domain.ErrValidation("workspace defines no datasets")
	}
	seen := make(map[string]bool, len(ws.Datasets))
	for _, d := range ws.Datasets {
		if seen[d.Name] {
			return domain.ErrValidation("duplicate dataset %q", d.Name)
		}
		seen[d.Name] = true
		req := d.createRequest()
		if err := req.Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", d.Name, err)
		}
	}
	if ws.Blend != nil {
		req := ws.Blend.createRequest()
		if err := req.Validate(); err != nil {
			return fmt.Errorf("blend: %w", err)
		}
		if ws.Query.Dataset != "" {
			return domain.ErrValidation("query.dataset and a blend are mutually exclusive")
		}
	} else {
		if ws.Query.Dataset == "" && len(ws.Datasets) > 1 {
			return domain.ErrValidation("query.dataset is required when the workspace defines several datasets and no blend")
		}
	}
	if len(ws.Query.Fields) == 0 {
		return domain.ErrValidation("query.fields must name at least one output field")
	}
	return nil
}

func (d WorkspaceDataset) createRequest() *domain.CreateDatasetRequest {
	fields := make([]domain.FieldSpec, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = domain.FieldSpec{
			Key:        f.Key,
			Label:      f.Label,
			Definition: f.Definition,
			DataType:   f.DataType,
			Role:       f.Role,
			Grain:      f.Grain,
		}
	}
	return &domain.CreateDatasetRequest{
		Name:    d.Name,
		Table:   d.Table,
		Adapter: d.Adapter,
		Fields:  fields,
	}
}

func (b *WorkspaceBlend) createRequest() *domain.CreateBlendRequest {
	secondaries := make([]domain.BlendSourceSpec, len(b.Secondaries))
	for i, s := range b.Secondaries {
		mapping := make([]domain.MappingPairSpec, len(s.Mapping))
		for j, m := range s.Mapping {
			mapping[j] = domain.MappingPairSpec{
				PrimaryField:   m.PrimaryField,
				SecondaryField: m.SecondaryField,
			}
		}
		secondaries[i] = domain.BlendSourceSpec{
			Dataset:      s.Dataset,
			OnDimensions: s.OnDimensions,
			Mapping:      mapping,
		}
	}
	extras := make([]domain.ExtraFieldSpec, len(b.ExtraFields))
	for i, ef := range b.ExtraFields {
		operands := make([]domain.FieldRefSpec, len(ef.Operands))
		for j, op := range ef.Operands {
			operands[j] = domain.FieldRefSpec{Dataset: op.Dataset, Field: op.Field}
		}
		extras[i] = domain.ExtraFieldSpec{
			Key:      ef.Key,
			Label:    ef.Label,
			DataType: ef.DataType,
			Op:       ef.Op,
			Operands: operands,
		}
	}
	return &domain.CreateBlendRequest{
		Name:        "workspace",
		Primary:     b.Primary,
		Secondaries: secondaries,
		ExtraFields: extras,
	}
}

func (d WorkspaceDataset) datasetSpec() *domain.DatasetSpec {
	req := d.createRequest()
	return &domain.DatasetSpec{
		Name:    req.Name,
		Table:   req.Table,
		Adapter: req.Adapter,
		Fields:  req.Fields,
	}
}

func (b *WorkspaceBlend) blendSpec() *domain.BlendSpec {
	req := b.createRequest()
	return &domain.BlendSpec{
		Name:        req.Name,
		Primary:     req.Primary,
		Secondaries: req.Secondaries,
		ExtraFields: req.ExtraFields,
	}
}

// CompileResult holds the compiled statement and its output column aliases.
type CompileResult struct {
	SQL     string   `yaml:"sql"`
	Columns []string `yaml:"columns"`
}

// Compile materializes the workspace definitions and compiles its query.
func (ws *Workspace) Compile() (*CompileResult, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}

	datasets := make(map[string]*blend.Dataset, len(ws.Datasets))
	for _, d := range ws.Datasets {
		ds, err := blend.FromSpec(d.datasetSpec())
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", d.Name, err)
		}
		datasets[d.Name] = ds
	}

	if ws.Blend != nil {
		b, err := blend.BlendFromSpec(ws.Blend.blendSpec(), datasets)
		if err != nil {
			return nil, err
		}
		return compileOver(ws.Query, b.Field, b.Query())
	}

	name := ws.Query.Dataset
	if name == "" {
		name = ws.Datasets[0].Name
	}
	ds, ok := datasets[name]
	if !ok {
		return nil, domain.ErrNotFound("dataset %q not found in workspace", name)
	}
	return compileOver(ws.Query, ds.Field, ds.Query())
}

func compileOver(wq WorkspaceQuery, lookup func(string) (*blend.Field, error), q *blend.Query) (*CompileResult, error) {
	for _, key := range wq.Dimensions {
		f, err := lookup(key)
		if err != nil {
			return nil, err
		}
		q.Dimension(f)
	}
	for _, key := range wq.Fields {
		f, err := lookup(key)
		if err != nil {
			return nil, err
		}
		q.Select(f)
	}
	compiled, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return &CompileResult{SQL: compiled.Statement, Columns: compiled.Columns}, nil
}
