package api

import (
	"net/http"

	"blendql/internal/service/query"
)

// CompileRequest is the wire shape of a query compile request.
type CompileRequest struct {
	Dataset    string   `json:"dataset,omitempty"`
	Blend      string   `json:"blend,omitempty"`
	Dimensions []string `json:"dimensions,omitempty"`
	Fields     []string `json:"fields"`
}

// CompilePlan is the wire shape of the compiler output.
type CompilePlan struct {
	Source     string   `json:"source"`
	Datasets   []string `json:"datasets"`
	Dimensions []string `json:"dimensions"`
	Fields     []string `json:"fields"`
	Columns    []string `json:"columns"`
	Statements []string `json:"statements"`
	SQL        string   `json:"sql"`
}

// CompileQuery compiles a query against a stored dataset or blend and
// returns the generated SQL without executing it.
func (h *Handler) CompileQuery(w http.ResponseWriter, r *http.Request) {
	var body CompileRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	plan, err := h.query.ExplainQuery(r.Context(), query.Request{
		Dataset:    body.Dataset,
		Blend:      body.Blend,
		Dimensions: body.Dimensions,
		Fields:     body.Fields,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("compiled query", "source", plan.Source, "columns", len(plan.Columns))
	writeJSON(w, http.StatusOK, CompilePlan{
		Source:     plan.Source,
		Datasets:   plan.Datasets,
		Dimensions: plan.Dimensions,
		Fields:     plan.Fields,
		Columns:    plan.Columns,
		Statements: plan.Statements,
		SQL:        plan.GeneratedSQL(),
	})
}
