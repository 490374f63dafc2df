package blend

import "blendql/internal/domain"

// MappedPair joins one primary-dataset field to one secondary-dataset field.
type MappedPair struct {
	Primary   *Field
	Secondary *Field
}

// secondary is one blended-in dataset with its join configuration. When
// inferred is true the mapping is computed per query from the grouping
// dimensions shared with the primary; otherwise pairs is authoritative (and
// may be empty, which degrades the dataset to an unconstrained cross term).
type secondary struct {
	ds       *Dataset
	inferred bool
	pairs    []MappedPair
}

// Blend is an immutable composition of one primary dataset and N secondary
// datasets. The primary holds position 0; secondaries hold 1..N in
// declaration order, and every join predicate is phrased against the
// primary's subquery, never against a sibling secondary.
type Blend struct {
	primary     *Dataset
	secondaries []secondary
	extras      []*Field
	namespace   map[string]*Field
	order       []string
}

// Blender is a pending blend awaiting its join mapping.
type Blender struct {
	base *Blend
	next *Dataset
}

// Blend begins blending another dataset onto this one. The returned Blender
// must be completed with On or OnDimensions.
func (d *Dataset) Blend(other *Dataset) *Blender {
	return &Blender{base: &Blend{primary: d}, next: other}
}

// Blend begins blending a further dataset onto the blend. The existing
// unified namespace acts as the new primary; positions are re-assigned
// fresh, so join predicates still target the original primary's subquery.
func (b *Blend) Blend(other *Dataset) *Blender {
	return &Blender{base: b, next: other}
}

// On completes the blend with an explicit field mapping. Every pair must
// reference a field genuinely owned by the primary and the new secondary
// respectively. An empty mapping is allowed: the secondary joins as a bare
// cross term.
func (b *Blender) On(pairs ...MappedPair) (*Blend, error) {
	for _, p := range pairs {
		if p.Primary == nil || p.Secondary == nil {
			return nil, domain.ErrInvalidMapping("mapping pairs must name both a primary and a secondary field")
		}
		if p.Primary.owner != b.base.primary {
			return nil, domain.ErrInvalidMapping("field %q does not belong to the primary dataset %q",
				p.Primary.key, b.base.primary.table)
		}
		if p.Secondary.owner != b.next {
			return nil, domain.ErrInvalidMapping("field %q does not belong to the secondary dataset %q",
				p.Secondary.key, b.next.table)
		}
	}
	return b.base.with(secondary{ds: b.next, pairs: pairs}), nil
}

// OnDimensions completes the blend with an inferred mapping: at query time,
// the join keys are the grouping dimensions present in both the primary and
// this secondary. An empty intersection degrades the secondary to an
// unconstrained cross term.
func (b *Blender) OnDimensions() *Blend {
	return b.base.with(secondary{ds: b.next, inferred: true})
}

// with returns a new Blend extended by one secondary, leaving the receiver
// untouched. Shared sub-objects are reused, never mutated.
func (b *Blend) with(sec secondary) *Blend {
	nb := &Blend{
		primary:     b.primary,
		secondaries: append(append([]secondary(nil), b.secondaries...), sec),
		extras:      b.extras,
	}
	nb.buildNamespace()
	return nb
}

// ExtraFields returns a new Blend with additional computed fields. Each
// field's expression may only reference fields reachable from the primary or
// a registered secondary.
func (b *Blend) ExtraFields(fields ...*Field) (*Blend, error) {
	for _, f := range fields {
		if !f.IsComputed() {
			return nil, domain.ErrInvalidMapping("extra field %q must be a computed field", f.key)
		}
		for _, leaf := range leaves(f.expr) {
			if !b.participates(leaf.owner) {
				return nil, domain.ErrInvalidMapping("extra field %q references field %q outside the blend", f.key, leaf.key)
			}
		}
		if _, taken := b.namespace[f.key]; taken {
			return nil, domain.ErrConflict("extra field key %q is already registered in the blend", f.key)
		}
	}
	nb := &Blend{
		primary:     b.primary,
		secondaries: b.secondaries,
		extras:      append(append([]*Field(nil), b.extras...), fields...),
	}
	nb.buildNamespace()
	return nb, nil
}

// Field resolves a key against the unified namespace.
func (b *Blend) Field(key string) (*Field, error) {
	f, ok := b.namespace[key]
	if !ok {
		return nil, domain.ErrUnknownField("no field %q in the blend namespace", key)
	}
	return f, nil
}

// MustField resolves a key against the unified namespace and panics if it is
// absent. Intended for statically-known keys in query construction.
func (b *Blend) MustField(key string) *Field {
	f, err := b.Field(key)
	if err != nil {
		panic(err)
	}
	return f
}

// FieldKeys returns the namespace keys in registration order.
func (b *Blend) FieldKeys() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Datasets returns the participating datasets in position order, the primary
// first.
func (b *Blend) Datasets() []*Dataset {
	out := make([]*Dataset, 0, 1+len(b.secondaries))
	out = append(out, b.primary)
	for _, s := range b.secondaries {
		out = append(out, s.ds)
	}
	return out
}

func (b *Blend) participates(d *Dataset) bool {
	if d == b.primary {
		return true
	}
	for _, s := range b.secondaries {
		if s.ds == d {
			return true
		}
	}
	return false
}

// position returns the subquery position of the dataset owning f, or -1.
func (b *Blend) position(d *Dataset) int {
	if d == b.primary {
		return 0
	}
	for i, s := range b.secondaries {
		if s.ds == d {
			return i + 1
		}
	}
	return -1
}

// buildNamespace registers fields key-first in position order: the primary
// wins every collision, and a colliding secondary field is simply not
// reachable through the blend (it stays reachable through its own dataset).
// Computed extra fields register last under their own keys.
func (b *Blend) buildNamespace() {
	b.namespace = make(map[string]*Field)
	b.order = nil
	register := func(f *Field) {
		if _, taken := b.namespace[f.key]; taken {
			return
		}
		b.namespace[f.key] = f
		b.order = append(b.order, f.key)
	}
	for _, f := range b.primary.fields {
		register(f)
	}
	for _, s := range b.secondaries {
		for _, f := range s.ds.fields {
			register(f)
		}
	}
	for _, f := range b.extras {
		register(f)
	}
}
