package blend

import (
	"regexp"

	"blendql/internal/database"
	"blendql/internal/domain"
	"blendql/internal/sqlbuilder"
)

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// definitionTerm turns a stored field definition into an expression term.
// Bare identifiers become quoted column references; anything else is passed
// through verbatim as dialect SQL.
func definitionTerm(def string) sqlbuilder.Term {
	if bareIdentifier.MatchString(def) {
		return sqlbuilder.Column{Name: def}
	}
	return sqlbuilder.Raw{Text: def}
}

// FromSpec materializes a stored dataset definition into an immutable
// Dataset bound to its dialect adapter.
func FromSpec(spec *domain.DatasetSpec) (*Dataset, error) {
	adapter, err := database.ForName(spec.Adapter)
	if err != nil {
		return nil, err
	}

	fields := make([]*Field, 0, len(spec.Fields))
	for _, fs := range spec.Fields {
		def := definitionTerm(fs.Definition)
		if fs.Grain != "" {
			if def, err = adapter.TruncDate(def, fs.Grain); err != nil {
				return nil, domain.ErrValidation("field %q: %s", fs.Key, err.Error())
			}
		}
		if fs.Role == domain.FieldRoleMetric {
			fields = append(fields, Metric(fs.Key, fs.Label, def, DataType(fs.DataType)))
		} else {
			fields = append(fields, Dimension(fs.Key, fs.Label, def, DataType(fs.DataType)))
		}
	}
	return NewDataset(spec.Table, adapter, fields...)
}

// BlendFromSpec materializes a stored blend definition against its already
// materialized participating datasets, keyed by dataset name.
func BlendFromSpec(spec *domain.BlendSpec, datasets map[string]*Dataset) (*Blend, error) {
	primary, ok := datasets[spec.Primary]
	if !ok {
		return nil, domain.ErrNotFound("dataset %q not found", spec.Primary)
	}

	var (
		b   *Blend
		err error
	)
	for i, sec := range spec.Secondaries {
		ds, ok := datasets[sec.Dataset]
		if !ok {
			return nil, domain.ErrNotFound("dataset %q not found", sec.Dataset)
		}

		var blender *Blender
		if i == 0 {
			blender = primary.Blend(ds)
		} else {
			blender = b.Blend(ds)
		}

		if sec.OnDimensions {
			b = blender.OnDimensions()
			continue
		}
		pairs := make([]MappedPair, 0, len(sec.Mapping))
		for _, m := range sec.Mapping {
			pf, err := primary.Field(m.PrimaryField)
			if err != nil {
				return nil, domain.ErrInvalidMapping("mapping for %q: %s", sec.Dataset, err.Error())
			}
			sf, err := ds.Field(m.SecondaryField)
			if err != nil {
				return nil, domain.ErrInvalidMapping("mapping for %q: %s", sec.Dataset, err.Error())
			}
			pairs = append(pairs, MappedPair{Primary: pf, Secondary: sf})
		}
		if b, err = blender.On(pairs...); err != nil {
			return nil, err
		}
	}
	if b == nil {
		return nil, domain.ErrValidation("blend %q has no secondary datasets", spec.Name)
	}

	if len(spec.ExtraFields) > 0 {
		extras := make([]*Field, 0, len(spec.ExtraFields))
		for _, ef := range spec.ExtraFields {
			expr, err := extraFieldExpr(ef, datasets)
			if err != nil {
				return nil, err
			}
			extras = append(extras, Computed(ef.Key, ef.Label, expr, DataType(ef.DataType)))
		}
		if b, err = b.ExtraFields(extras...); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// extraFieldExpr folds an extra field's operands left-to-right with its
// operator.
func extraFieldExpr(ef domain.ExtraFieldSpec, datasets map[string]*Dataset) (Expr, error) {
	combine := map[string]func(Expr, Expr) Expr{
		domain.ExtraFieldOpAdd: Add,
		domain.ExtraFieldOpSub: Sub,
		domain.ExtraFieldOpMul: Mul,
		domain.ExtraFieldOpDiv: Div,
	}[ef.Op]
	if combine == nil {
		return nil, domain.ErrValidation("extra field %q: invalid operator %q", ef.Key, ef.Op)
	}

	var expr Expr
	for _, ref := range ef.Operands {
		ds, ok := datasets[ref.Dataset]
		if !ok {
			return nil, domain.ErrInvalidMapping("extra field %q references unknown dataset %q", ef.Key, ref.Dataset)
		}
		f, err := ds.Field(ref.Field)
		if err != nil {
			return nil, domain.ErrInvalidMapping("extra field %q: %s", ef.Key, err.Error())
		}
		if expr == nil {
			expr = f
		} else {
			expr = combine(expr, f)
		}
	}
	return expr, nil
}
