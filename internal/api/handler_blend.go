package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blendql/internal/domain"
)

// MappingPair is the wire shape of one explicit join pair.
type MappingPair struct {
	PrimaryField   string `json:"primary_field"`
	SecondaryField string `json:"secondary_field"`
}

// BlendSource is the wire shape of one secondary dataset in a blend.
type BlendSource struct {
	Dataset      string        `json:"dataset"`
	OnDimensions bool          `json:"on_dimensions,omitempty"`
	Mapping      []MappingPair `json:"mapping,omitempty"`
}

// FieldRef references a field in a named dataset.
type FieldRef struct {
	Dataset string `json:"dataset"`
	Field   string `json:"field"`
}

// ExtraField is the wire shape of a computed blended field.
type ExtraField struct {
	Key      string     `json:"key"`
	Label    string     `json:"label,omitempty"`
	DataType string     `json:"data_type"`
	Op       string     `json:"op"`
	Operands []FieldRef `json:"operands"`
}

// Blend is the wire shape of a stored blend definition.
type Blend struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Primary     string        `json:"primary"`
	Secondaries []BlendSource `json:"secondaries"`
	ExtraFields []ExtraField  `json:"extra_fields,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// ListBlends lists all blend definitions.
func (h *Handler) ListBlends(w http.ResponseWriter, r *http.Request) {
	specs, err := h.catalog.ListBlends(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]Blend, len(specs))
	for i, s := range specs {
		out[i] = blendToAPI(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateBlend registers a blend definition.
func (h *Handler) CreateBlend(w http.ResponseWriter, r *http.Request) {
	var body Blend
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	created, err := h.catalog.CreateBlend(r.Context(), principalFromRequest(r), domain.CreateBlendRequest{
		Name:        body.Name,
		Primary:     body.Primary,
		Secondaries: blendSourcesFromAPI(body.Secondaries),
		ExtraFields: extraFieldsFromAPI(body.ExtraFields),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, blendToAPI(*created))
}

// GetBlend returns one blend definition.
func (h *Handler) GetBlend(w http.ResponseWriter, r *http.Request) {
	spec, err := h.catalog.GetBlend(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blendToAPI(*spec))
}

// DeleteBlend removes a blend definition.
func (h *Handler) DeleteBlend(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteBlend(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func blendSourcesFromAPI(in []BlendSource) []domain.BlendSourceSpec {
	out := make([]domain.BlendSourceSpec, len(in))
	for i, s := range in {
		mapping := make([]domain.MappingPairSpec, len(s.Mapping))
		for j, m := range s.Mapping {
			mapping[j] = domain.MappingPairSpec(m)
		}
		out[i] = domain.BlendSourceSpec{
			Dataset:      s.Dataset,
			OnDimensions: s.OnDimensions,
			Mapping:      mapping,
		}
	}
	return out
}

func extraFieldsFromAPI(in []ExtraField) []domain.ExtraFieldSpec {
	out := make([]domain.ExtraFieldSpec, len(in))
	for i, e := range in {
		operands := make([]domain.FieldRefSpec, len(e.Operands))
		for j, o := range e.Operands {
			operands[j] = domain.FieldRefSpec(o)
		}
		out[i] = domain.ExtraFieldSpec{
			Key:      e.Key,
			Label:    e.Label,
			DataType: e.DataType,
			Op:       e.Op,
			Operands: operands,
		}
	}
	return out
}

func blendToAPI(s domain.BlendSpec) Blend {
	secondaries := make([]BlendSource, len(s.Secondaries))
	for i, sec := range s.Secondaries {
		mapping := make([]MappingPair, len(sec.Mapping))
		for j, m := range sec.Mapping {
			mapping[j] = MappingPair(m)
		}
		secondaries[i] = BlendSource{
			Dataset:      sec.Dataset,
			OnDimensions: sec.OnDimensions,
			Mapping:      mapping,
		}
	}
	extras := make([]ExtraField, len(s.ExtraFields))
	for i, e := range s.ExtraFields {
		operands := make([]FieldRef, len(e.Operands))
		for j, o := range e.Operands {
			operands[j] = FieldRef(o)
		}
		extras[i] = ExtraField{
			Key:      e.Key,
			Label:    e.Label,
			DataType: e.DataType,
			Op:       e.Op,
			Operands: operands,
		}
	}
	return Blend{
		ID:          s.ID,
		Name:        s.Name,
		Primary:     s.Primary,
		Secondaries: secondaries,
		ExtraFields: extras,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   &s.CreatedAt,
		UpdatedAt:   &s.UpdatedAt,
	}
}
