package catalog

import (
	"context"
	"net/http"

	"frotastock/internal/api/response"
	"frotastock/internal/domain"
	"frotastock/internal/pkg/logger"
)

// CatalogService define o contrato das consultas de categorias e unidades.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (domain.Category, error)
	ListUnits(ctx context.Context) ([]domain.UnitMeasure, error)
	GetUnitByID(ctx context.Context, id int64) (domain.UnitMeasure, error)
}

// Handler agrupa os métodos de Handler das tabelas de referência.
type Handler struct {
	Service CatalogService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CatalogService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// ListCategoriesHandler lida com GET /v1/categories.
func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	response.Handle(w, r, h.Logger, categories, err, http.StatusOK)
}

// GetCategoryByIDHandler lida com GET /v1/categories/{id}.
func (h *Handler) GetCategoryByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	category, err := h.Service.GetCategoryByID(r.Context(), id)
	response.Handle(w, r, h.Logger, category, err, http.StatusOK)
}

// ListUnitsHandler lida com GET /v1/units.
func (h *Handler) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	units, err := h.Service.ListUnits(r.Context())
	response.Handle(w, r, h.Logger, units, err, http.StatusOK)
}

// GetUnitByIDHandler lida com GET /v1/units/{id}.
func (h *Handler) GetUnitByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	unit, err := h.Service.GetUnitByID(r.Context(), id)
	response.Handle(w, r, h.Logger, unit, err, http.StatusOK)
}
