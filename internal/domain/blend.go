package domain

import "time"

const (
	ExtraFieldOpAdd = "+"
	ExtraFieldOpSub = "-"
	ExtraFieldOpMul = "*"
	ExtraFieldOpDiv = "/"
)

// MappingPairSpec maps one primary-dataset field onto one secondary-dataset
// field for the join predicate between their compiled subqueries.
type MappingPairSpec struct {
	PrimaryField   string
	SecondaryField string
}

// BlendSourceSpec names one secondary dataset and how it joins the primary:
// either an explicit list of field pairs, or inference over the grouping
// dimensions shared with the primary.
type BlendSourceSpec struct {
	Dataset      string
	OnDimensions bool
	Mapping      []MappingPairSpec
}

// FieldRefSpec references a field inside a named participating dataset.
type FieldRefSpec struct {
	Dataset string
	Field   string
}

// ExtraFieldSpec declares a computed blended field: the referenced fields,
// each possibly from a different dataset, folded left-to-right with Op.
type ExtraFieldSpec struct {
	Key      string
	Label    string
	DataType string
	Op       string
	Operands []FieldRefSpec
}

// BlendSpec is the stored definition of a blend: one primary dataset plus
// ordered secondaries with their join mappings and computed extra fields.
type BlendSpec struct {
	ID          string
	Name        string
	Primary     string
	Secondaries []BlendSourceSpec
	ExtraFields []ExtraFieldSpec
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateBlendRequest holds parameters for registering a blend.
type CreateBlendRequest struct {
	Name        string
	Primary     string
	Secondaries []BlendSourceSpec
	ExtraFields []ExtraFieldSpec
}

func validExtraFieldOp(op string) bool {
	switch op {
	case ExtraFieldOpAdd, ExtraFieldOpSub, ExtraFieldOpMul, ExtraFieldOpDiv:
		return true
	}
	return false
}

// Validate checks that the request is well-formed. Field-level reachability
// is checked later against the resolved datasets, not here.
func (r *CreateBlendRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if r.Primary == "" {
		return ErrValidation("primary dataset is required")
	}
	if len(r.Secondaries) == 0 {
		return ErrValidation("at least one secondary dataset is required")
	}
	for _, s := range r.Secondaries {
		if s.Dataset == "" {
			return ErrValidation("secondary dataset name is required")
		}
		if s.OnDimensions && len(s.Mapping) > 0 {
			return ErrValidation("secondary %q: on_dimensions and an explicit mapping are mutually exclusive", s.Dataset)
		}
		for _, p := range s.Mapping {
			if p.PrimaryField == "" || p.SecondaryField == "" {
				return ErrValidation("secondary %q: mapping pairs need both a primary and a secondary field", s.Dataset)
			}
		}
	}
	for _, ef := range r.ExtraFields {
		if ef.Key == "" {
			return ErrValidation("extra field key is required")
		}
		if !validDataType(ef.DataType) {
			return ErrValidation("extra field %q: invalid data type %q", ef.Key, ef.DataType)
		}
		if !validExtraFieldOp(ef.Op) {
			return ErrValidation("extra field %q: invalid operator %q", ef.Key, ef.Op)
		}
		if len(ef.Operands) < 2 {
			return ErrValidation("extra field %q: at least two operands are required", ef.Key)
		}
		for _, op := range ef.Operands {
			if op.Dataset == "" || op.Field == "" {
				return ErrValidation("extra field %q: operands need both a dataset and a field", ef.Key)
			}
		}
	}
	return nil
}
