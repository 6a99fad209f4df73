package bus

import (
	"context"
	"encoding/json"
	"net/http"

	"frotastock/internal/api/response"
	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// BusService define o contrato que o Handler espera da camada de Serviço.
type BusService interface {
	CreateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error)
	GetBusByID(ctx context.Context, id int64) (domain.Bus, error)
	GetAllBuses(ctx context.Context) ([]domain.Bus, error)
	UpdateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error)
	DeleteBus(ctx context.Context, id int64) error
}

// Handler agrupa os métodos de Handler da frota.
type Handler struct {
	Service BusService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc BusService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateBusHandler lida com POST /v1/buses.
func (h *Handler) CreateBusHandler(w http.ResponseWriter, r *http.Request) {
	var bus domain.Bus
	if err := json.NewDecoder(r.Body).Decode(&bus); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateBus(r.Context(), bus)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// GetBusByIDHandler lida com GET /v1/buses/{id}.
func (h *Handler) GetBusByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	bus, err := h.Service.GetBusByID(r.Context(), id)
	response.Handle(w, r, h.Logger, bus, err, http.StatusOK)
}

// ListBusesHandler lida com GET /v1/buses.
func (h *Handler) ListBusesHandler(w http.ResponseWriter, r *http.Request) {
	buses, err := h.Service.GetAllBuses(r.Context())
	response.Handle(w, r, h.Logger, buses, err, http.StatusOK)
}

// UpdateBusHandler lida com PUT /v1/buses/{id}.
func (h *Handler) UpdateBusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var bus domain.Bus
	if err := json.NewDecoder(r.Body).Decode(&bus); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	bus.ID = id

	updated, err := h.Service.UpdateBus(r.Context(), bus)
	response.Handle(w, r, h.Logger, updated, err, http.StatusOK)
}

// DeleteBusHandler lida com DELETE /v1/buses/{id}.
func (h *Handler) DeleteBusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
		return
	}

	err = h.Service.DeleteBus(r.Context(), id)
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
