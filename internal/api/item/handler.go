package item

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"frotastock/internal/api/response"
	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// ItemService define o contrato que o Handler espera da camada de Serviço.
type ItemService interface {
	CreateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	GetItemByID(ctx context.Context, id int64) (domain.Item, error)
	ListItems(ctx context.Context, f domain.ItemListFilter) (domain.ItemListResult, error)
	UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// Handler agrupa todos os métodos de Handler de itens.
type Handler struct {
	Service ItemService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ItemService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateItemHandler lida com a requisição POST /v1/items.
// @Summary Cria um item de catálogo
// @Tags items
// @Accept json
// @Produce json
// @Param item body domain.Item true "Item (código, nome, categoria, unidade)"
// @Success 201 {object} domain.Item
// @Failure 400 {object} domain.ErrorResponse "Validação"
// @Failure 409 {object} domain.ErrorResponse "Código de item duplicado"
// @Router /items [post]
func (h *Handler) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	var item domain.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateItem(r.Context(), item)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// GetItemByIDHandler lida com a requisição GET /v1/items/{id}.
func (h *Handler) GetItemByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	item, err := h.Service.GetItemByID(r.Context(), id)
	response.Handle(w, r, h.Logger, item, err, http.StatusOK)
}

// ListItemsHandler lida com a requisição GET /v1/items.
func (h *Handler) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := domain.ItemListFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Status:    domain.ItemStatus(strings.ToUpper(q.Get("status"))),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if raw := q.Get("page"); raw != "" {
		f.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("limit"); raw != "" {
		f.Limit, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("categoryId"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("O parâmetro 'categoryId' deve ser um inteiro."), http.StatusOK)
			return
		}
		f.CategoryID = categoryID
	}

	result, err := h.Service.ListItems(r.Context(), f)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}

// UpdateItemHandler lida com a requisição PUT /v1/items/{id}.
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var item domain.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	item.ID = id

	updated, err := h.Service.UpdateItem(r.Context(), item)
	response.Handle(w, r, h.Logger, updated, err, http.StatusOK)
}

// DeleteItemHandler lida com a requisição DELETE /v1/items/{id}.
func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
		return
	}

	err = h.Service.DeleteItem(r.Context(), id)
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
