package disposal

import (
	"context"
	"encoding/json"
	"net/http"

	"frotastock/internal/api/response"
	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/pkg/middleware"
)

// DisposalService define o contrato que o Handler espera da camada de Serviço.
type DisposalService interface {
	CreateDisposal(ctx context.Context, d domain.Disposal) (domain.Disposal, error)
	ListDisposals(ctx context.Context) ([]domain.Disposal, error)
}

// Handler agrupa os métodos de Handler de baixas.
type Handler struct {
	Service DisposalService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc DisposalService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateDisposalHandler lida com POST /v1/disposals.
// @Summary Registra a baixa de um lote de estoque ou de um ônibus
// @Description Uma baixa referencia um par estoque+lote OU um ônibus, nunca ambos. O registro é documental: não altera quantidades de lote.
// @Tags disposals
// @Accept json
// @Produce json
// @Param disposal body domain.Disposal true "Registro de baixa"
// @Success 201 {object} domain.Disposal
// @Failure 400 {object} domain.ErrorResponse "Alvo ou método inválido"
// @Router /disposals [post]
func (h *Handler) CreateDisposalHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var d domain.Disposal
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		d.DisposedBy = claims.UserID
	}

	created, err := h.Service.CreateDisposal(ctx, d)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// ListDisposalsHandler lida com GET /v1/disposals.
func (h *Handler) ListDisposalsHandler(w http.ResponseWriter, r *http.Request) {
	disposals, err := h.Service.ListDisposals(r.Context())
	response.Handle(w, r, h.Logger, disposals, err, http.StatusOK)
}
