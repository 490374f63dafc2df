package domain

import (
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength = 255

	DataTypeDate    = "date"
	DataTypeNumber  = "number"
	DataTypeText    = "text"
	DataTypeBoolean = "boolean"

	FieldRoleDimension = "dimension"
	FieldRoleMetric    = "metric"
)

// FieldSpec is the stored definition of a single field inside a dataset:
// a named, typed SQL expression bound to the dataset's table. Grain is only
// valid on date dimensions and truncates the definition to that interval
// using the dataset's dialect adapter.
type FieldSpec struct {
	Key        string
	Label      string
	Definition string
	DataType   string
	Role       string
	Grain      string
}

// DatasetSpec is the stored definition of a dataset: a table-backed catalog
// of dimension and metric fields compiled against one dialect adapter.
type DatasetSpec struct {
	ID        string
	Name      string
	Table     string
	Adapter   string
	Fields    []FieldSpec
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateDatasetRequest holds parameters for registering a dataset.
type CreateDatasetRequest struct {
	Name    string
	Table   string
	Adapter string
	Fields  []FieldSpec
}

func validDataType(dt string) bool {
	switch dt {
	case DataTypeDate, DataTypeNumber, DataTypeText, DataTypeBoolean:
		return true
	}
	return false
}

func validFieldRole(role string) bool {
	return role == FieldRoleDimension || role == FieldRoleMetric
}

// Validate checks that the request is well-formed.
func (r *CreateDatasetRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return ErrValidation("name must be at most %d characters", MaxNameLength)
	}
	if r.Table == "" {
		return ErrValidation("table is required")
	}
	if len(r.Fields) == 0 {
		return ErrValidation("at least one field is required")
	}
	seen := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if f.Key == "" {
			return ErrValidation("field key is required")
		}
		if seen[f.Key] {
			return ErrValidation("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true
		if f.Definition == "" {
			return ErrValidation("field %q: definition is required", f.Key)
		}
		if !validDataType(f.DataType) {
			return ErrValidation("field %q: invalid data type %q", f.Key, f.DataType)
		}
		if !validFieldRole(f.Role) {
			return ErrValidation("field %q: invalid role %q", f.Key, f.Role)
		}
		if f.Grain != "" && (f.DataType != DataTypeDate || f.Role != FieldRoleDimension) {
			return ErrValidation("field %q: grain is only valid on date dimensions", f.Key)
		}
	}
	return nil
}
