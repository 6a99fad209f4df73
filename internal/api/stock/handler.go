package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"frotastock/internal/api/response"
	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/pkg/middleware"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	ListStocks(ctx context.Context, f domain.StockListFilter) (domain.StockListResult, error)
	GetStockByID(ctx context.Context, id int64) (domain.StockDetail, error)
	CreateStock(ctx context.Context, input domain.CreateStockInput, actor string) (domain.StockDetail, error)
	UpdateStock(ctx context.Context, id int64, patch domain.UpdateStockInput, actor string) (domain.StockDetail, error)
	DeleteBatch(ctx context.Context, stockID, batchID int64, actor string) error
	DeleteStock(ctx context.Context, id int64, actor string) error
	DeductBatchQuantity(ctx context.Context, stockID int64, quantity decimal.Decimal, actor string) (domain.DeductionResult, error)
	GetConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error)
	GetNonConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error)
}

// DeductRequest é o payload da dedução de estoque.
type DeductRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// actorFrom extrai o identificador do usuário autenticado para auditoria.
func actorFrom(ctx context.Context) string {
	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return "system"
}

// ListStocksHandler lida com a requisição GET /v1/stocks.
// @Summary Lista estoques com status computado
// @Description Lista estoques com busca, filtros (categoria, datas, quantidade, status) e paginação. O status retornado é sempre o computado pelas regras de negócio.
// @Tags stocks
// @Produce json
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 20)"
// @Param search query string false "Busca em código, nome do item e fornecedor"
// @Param category query string false "Nome da categoria"
// @Param status query string false "Status computados, separados por vírgula"
// @Success 200 {object} domain.StockListResult
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /stocks [get]
func (h *Handler) ListStocksHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	result, err := h.Service.ListStocks(r.Context(), filter)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}

// GetStockByIDHandler lida com a requisição GET /v1/stocks/{id}.
func (h *Handler) GetStockByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	detail, err := h.Service.GetStockByID(r.Context(), id)
	response.Handle(w, r, h.Logger, detail, err, http.StatusOK)
}

// CreateStockHandler lida com a requisição POST /v1/stocks.
// @Summary Cria um estoque para um item do catálogo
// @Tags stocks
// @Accept json
// @Produce json
// @Param stock body domain.CreateStockInput true "Estoque com lotes iniciais opcionais"
// @Success 201 {object} domain.StockDetail
// @Failure 400 {object} domain.ErrorResponse "Validação (item inexistente, reorderLevel ausente em consumível)"
// @Router /stocks [post]
func (h *Handler) CreateStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input domain.CreateStockInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	detail, err := h.Service.CreateStock(ctx, input, actorFrom(ctx))
	response.Handle(w, r, h.Logger, detail, err, http.StatusCreated)
}

// UpdateStockHandler lida com a requisição PATCH /v1/stocks/{id}.
func (h *Handler) UpdateStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var patch domain.UpdateStockInput
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	detail, err := h.Service.UpdateStock(ctx, id, patch, actorFrom(ctx))
	response.Handle(w, r, h.Logger, detail, err, http.StatusOK)
}

// DeleteStockHandler lida com a requisição DELETE /v1/stocks/{id}.
func (h *Handler) DeleteStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
		return
	}

	err = h.Service.DeleteStock(ctx, id, actorFrom(ctx))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// DeleteBatchHandler lida com a requisição DELETE /v1/stocks/{id}/batches/{batchId}.
func (h *Handler) DeleteBatchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stockID, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
		return
	}
	batchID, err := response.PathInt64(r, "batchId")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
		return
	}

	err = h.Service.DeleteBatch(ctx, stockID, batchID, actorFrom(ctx))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// DeductStockHandler lida com a requisição POST /v1/stocks/{id}/deduct.
// @Summary Deduz uma quantidade de um estoque
// @Description Consome lotes em ordem de validade mais próxima primeiro (desempate FIFO pela data de recebimento). A dedução é tudo-ou-nada: estoque insuficiente não altera nenhum lote.
// @Tags stocks
// @Accept json
// @Produce json
// @Param id path int true "ID do estoque"
// @Param deduction body DeductRequest true "Quantidade a deduzir"
// @Success 200 {object} domain.DeductionResult
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida ou estoque insuficiente"
// @Failure 409 {object} domain.ErrorResponse "Conflito de concorrência após esgotar as tentativas"
// @Router /stocks/{id}/deduct [post]
func (h *Handler) DeductStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := response.PathInt64(r, "id")
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var req DeductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Handle(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	result, err := h.Service.DeductBatchQuantity(ctx, id, req.Quantity, actorFrom(ctx))
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}

// GetConsumableBatchesHandler lida com GET /v1/batches/consumables.
// Consumida pela tela de requisição de funcionários e por outros serviços
// autenticados por chave de API.
func (h *Handler) GetConsumableBatchesHandler(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Service.GetConsumableBatches(r.Context())
	response.Handle(w, r, h.Logger, batches, err, http.StatusOK)
}

// GetNonConsumableBatchesHandler lida com GET /v1/batches/non-consumables.
func (h *Handler) GetNonConsumableBatchesHandler(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Service.GetNonConsumableBatches(r.Context())
	response.Handle(w, r, h.Logger, batches, err, http.StatusOK)
}

// parseListFilter monta o StockListFilter a partir da query string.
func parseListFilter(r *http.Request) (domain.StockListFilter, error) {
	q := r.URL.Query()

	f := domain.StockListFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Category:  strings.TrimSpace(q.Get("category")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return domain.StockListFilter{}, apperror.NewValidationError("O parâmetro 'page' deve ser um inteiro.")
		}
		f.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return domain.StockListFilter{}, apperror.NewValidationError("O parâmetro 'limit' deve ser um inteiro.")
		}
		f.Limit = limit
	}

	for _, raw := range q["status"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f.Status = append(f.Status, domain.StockStatus(strings.ToUpper(part)))
		}
	}

	var err error
	if f.FromDate, err = parseDateParam(q.Get("fromDate"), "fromDate"); err != nil {
		return domain.StockListFilter{}, err
	}
	if f.ToDate, err = parseDateParam(q.Get("toDate"), "toDate"); err != nil {
		return domain.StockListFilter{}, err
	}
	if f.ToDate != nil {
		// O fim do intervalo é inclusivo: registros criados ao longo do próprio
		// dia de toDate entram no resultado.
		end := f.ToDate.Add(24*time.Hour - time.Nanosecond)
		f.ToDate = &end
	}
	if f.MinQty, err = parseDecimalParam(q.Get("minQty"), "minQty"); err != nil {
		return domain.StockListFilter{}, err
	}
	if f.MaxQty, err = parseDecimalParam(q.Get("maxQty"), "maxQty"); err != nil {
		return domain.StockListFilter{}, err
	}

	return f, nil
}

func parseDateParam(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.NewValidationError("O parâmetro '" + name + "' deve estar no formato YYYY-MM-DD.")
	}
	return &t, nil
}

func parseDecimalParam(raw, name string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.NewValidationError("O parâmetro '" + name + "' deve ser numérico.")
	}
	return &d, nil
}
