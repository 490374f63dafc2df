package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blendql/internal/domain"
)

// FieldSpec is the wire shape of one dataset field.
type FieldSpec struct {
	Key        string `json:"key"`
	Label      string `json:"label,omitempty"`
	Definition string `json:"definition"`
	DataType   string `json:"data_type"`
	Role       string `json:"role"`
	Grain      string `json:"grain,omitempty"`
}

// Dataset is the wire shape of a stored dataset definition.
type Dataset struct {
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name"`
	Table     string      `json:"table"`
	Adapter   string      `json:"adapter,omitempty"`
	Fields    []FieldSpec `json:"fields"`
	CreatedBy string      `json:"created_by,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

// ListDatasets lists all dataset definitions.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	specs, err := h.catalog.ListDatasets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]Dataset, len(specs))
	for i, s := range specs {
		out[i] = datasetToAPI(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateDataset registers a dataset definition.
func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var body Dataset
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	fields := make([]domain.FieldSpec, len(body.Fields))
	for i, f := range body.Fields {
		fields[i] = domain.FieldSpec(f)
	}
	created, err := h.catalog.CreateDataset(r.Context(), principalFromRequest(r), domain.CreateDatasetRequest{
		Name:    body.Name,
		Table:   body.Table,
		Adapter: body.Adapter,
		Fields:  fields,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, datasetToAPI(*created))
}

// GetDataset returns one dataset definition.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	spec, err := h.catalog.GetDataset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetToAPI(*spec))
}

// DeleteDataset removes a dataset definition.
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteDataset(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func datasetToAPI(s domain.DatasetSpec) Dataset {
	fields := make([]FieldSpec, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = FieldSpec(f)
	}
	return Dataset{
		ID:        s.ID,
		Name:      s.Name,
		Table:     s.Table,
		Adapter:   s.Adapter,
		Fields:    fields,
		CreatedBy: s.CreatedBy,
		CreatedAt: &s.CreatedAt,
		UpdatedAt: &s.UpdatedAt,
	}
}

// principalFromRequest reads the caller identity header. Authentication is
// out of scope; the header is trusted as-is.
func principalFromRequest(r *http.Request) string {
	if p := r.Header.Get("X-Principal"); p != "" {
		return p
	}
	return "anonymous"
}
