package supplier

import (
	"context"
	"encoding/json"
	"net/http"

	"frotastock/internal/api/response"
	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// SupplierService define o contrato que o Handler espera da camada de Serviço.
type SupplierService interface {
	CreateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id int64) (domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	UpdateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
	RegisterItemPrice(ctx context.Context, price domain.SupplierItem) (domain.SupplierItem, error)
	ListItemPrices(ctx context.Context, supplierID int64) ([]domain.SupplierItem, error)
}

// Handler agrupa os métodos de Handler de fornecedores.
type Handler struct {
	Service SupplierService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SupplierService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateSupplierHandler lida com POST /v1/suppliers.
func (h *Handler) CreateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateSupplier(r.Context(), supplier)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// GetSupplierByIDHandler lida com GET /v1/suppliers/{id}.
func (h *Handler) GetSupplierByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	supplier, err := h.Service.GetSupplierByID(r.Context(), id)
	response.Handle(w, r, h.Logger, supplier, err, http.StatusOK)
}

// ListSuppliersHandler lida com GET /v1/suppliers.
func (h *Handler) ListSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.Service.ListSuppliers(r.Context())
	response.Handle(w, r, h.Logger, suppliers, err, http.StatusOK)
}

// UpdateSupplierHandler lida com PUT /v1/suppliers/{id}.
func (h *Handler) UpdateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	supplier.ID = id

	updated, err := h.Service.UpdateSupplier(r.Context(), supplier)
	response.Handle(w, r, h.Logger, updated, err, http.StatusOK)
}

// DeleteSupplierHandler lida com DELETE /v1/suppliers/{id}.
func (h *Handler) DeleteSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
		return
	}

	err = h.Service.DeleteSupplier(r.Context(), id)
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// RegisterItemPriceHandler lida com POST /v1/suppliers/{id}/prices.
func (h *Handler) RegisterItemPriceHandler(w http.ResponseWriter, r *http.Request) {
	supplierID, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusCreated)
		return
	}

	var price domain.SupplierItem
	if err := json.NewDecoder(r.Body).Decode(&price); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}
	price.SupplierID = supplierID

	created, err := h.Service.RegisterItemPrice(r.Context(), price)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// ListItemPricesHandler lida com GET /v1/suppliers/{id}/prices.
func (h *Handler) ListItemPricesHandler(w http.ResponseWriter, r *http.Request) {
	supplierID, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	prices, err := h.Service.ListItemPrices(r.Context(), supplierID)
	response.Handle(w, r, h.Logger, prices, err, http.StatusOK)
}
