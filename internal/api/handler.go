// Package api provides the HTTP surface for the catalog and query compiler.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blendql/internal/domain"
	"blendql/internal/service/catalog"
	"blendql/internal/service/query"
)

// Handler serves the catalog CRUD and query compile endpoints.
type Handler struct {
	catalog *catalog.Service
	query   *query.Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(catalogSvc *catalog.Service, querySvc *query.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{catalog: catalogSvc, query: querySvc, logger: logger}
}

// MountRoutes registers all v1 routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Post("/", h.CreateDataset)
			r.Get("/{name}", h.GetDataset)
			r.Delete("/{name}", h.DeleteDataset)
		})
		r.Route("/blends", func(r chi.Router) {
			r.Get("/", h.ListBlends)
			r.Post("/", h.CreateBlend)
			r.Get("/{name}", h.GetBlend)
			r.Delete("/{name}", h.DeleteBlend)
		})
		r.Post("/query/compile", h.CompileQuery)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain errors to HTTP status codes and renders the
// standard error body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Code: status, Message: err.Error()})
}

func httpStatusFromDomainError(err error) int {
	switch {
	case errors.As(err, new(*domain.NotFoundError)):
		return http.StatusNotFound
	case errors.As(err, new(*domain.ValidationError)),
		errors.As(err, new(*domain.UnknownFieldError)),
		errors.As(err, new(*domain.ForeignFieldError)),
		errors.As(err, new(*domain.InvalidMappingError)),
		errors.As(err, new(*domain.MetricRequiredError)):
		return http.StatusBadRequest
	case errors.As(err, new(*domain.ConflictError)):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %s", err.Error())
	}
	return nil
}
