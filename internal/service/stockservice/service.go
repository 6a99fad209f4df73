package stockservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// deductMaxAttempts limita as tentativas de dedução sob conflito de versão
// (OCC). Esgotadas as tentativas, o ConflictError sobe para o chamador.
const deductMaxAttempts = 3

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	FindAllWithBatches(ctx context.Context, f domain.StockListFilter) ([]domain.StockWithItem, error)
	FindByID(ctx context.Context, id int64) (domain.StockWithItem, error)
	CreateStock(ctx context.Context, stock domain.Stock, batches []domain.BatchInput, actor string) (int64, error)
	UpdateStock(ctx context.Context, id int64, patch domain.UpdateStockInput, actor string) error
	SoftDeleteBatch(ctx context.Context, stockID, batchID int64, actor string) error
	SoftDeleteStock(ctx context.Context, id int64, actor string) error
	Deduct(ctx context.Context, stockID int64, quantityToDeduct decimal.Decimal, actor string) (domain.DeductionResult, error)
	GetConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error)
	GetNonConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error)
}

// ItemRepository é o recorte do catálogo de que o serviço precisa para validar
// o item associado a um estoque.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Item, error)
}

// Service é a estrutura que implementa as regras de negócio de estoques e lotes.
type Service struct {
	repo   StockRepository
	items  ItemRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, items ItemRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, items: items, logger: logger}
}

// stockRow carrega a projeção crua junto do status computado, para que a
// filtragem e a ordenação da listagem operem sobre os valores reais antes da
// conversão para a visão formatada.
type stockRow struct {
	src    domain.StockWithItem
	status domain.StockStatus
}

// ListStocks lista estoques com status computado. Busca, categoria, datas e
// quantidade são resolvidos no banco; o filtro por status, a ordenação e a
// paginação acontecem aqui, porque o status só existe após o cômputo.
func (s *Service) ListStocks(ctx context.Context, f domain.StockListFilter) (domain.StockListResult, error) {
	s.logger.Debug("Iniciando listagem de estoques no serviço.", map[string]interface{}{
		"search": f.Search, "category": f.Category, "page": f.Page,
	})

	for _, st := range f.Status {
		if !st.IsValid() {
			return domain.StockListResult{}, apperror.NewValidationError(fmt.Sprintf("Status de estoque inválido: %s.", st))
		}
	}

	candidates, err := s.repo.FindAllWithBatches(ctx, f)
	if err != nil {
		return domain.StockListResult{}, err
	}

	now := time.Now().UTC()
	rows := make([]stockRow, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, stockRow{src: c, status: s.computeStatus(c, now)})
	}

	if len(f.Status) > 0 {
		wanted := make(map[domain.StockStatus]bool, len(f.Status))
		for _, st := range f.Status {
			wanted[st] = true
		}
		filtered := rows[:0]
		for _, r := range rows {
			if wanted[r.status] {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	sortRows(rows, f.SortBy, f.SortOrder)

	total := len(rows)
	pagination := domain.NewPagination(f.Page, f.Limit, total)
	start := (pagination.Page - 1) * pagination.Limit
	if start > total {
		start = total
	}
	end := start + pagination.Limit
	if end > total {
		end = total
	}

	views := make([]domain.StockView, 0, end-start)
	for _, r := range rows[start:end] {
		views = append(views, toStockView(r.src, r.status))
	}

	s.logger.Info("Listagem de estoques concluída.", map[string]interface{}{
		"total": total, "page": pagination.Page,
	})
	return domain.StockListResult{Data: views, Pagination: pagination}, nil
}

// sortRows ordena as linhas da listagem pelo campo pedido. O padrão é
// createdAt desc (mais recente primeiro), preservado pela ordem do banco.
func sortRows(rows []stockRow, sortBy, sortOrder string) {
	asc := strings.EqualFold(sortOrder, "asc")

	var less func(a, b stockRow) bool
	switch sortBy {
	case "itemName":
		less = func(a, b stockRow) bool {
			return strings.ToLower(a.src.ItemName) < strings.ToLower(b.src.ItemName)
		}
	case "currentStock":
		less = func(a, b stockRow) bool {
			return a.src.Stock.CurrentStock.LessThan(b.src.Stock.CurrentStock)
		}
	case "reorderLevel":
		less = func(a, b stockRow) bool {
			return a.src.Stock.ReorderLevel.LessThan(b.src.Stock.ReorderLevel)
		}
	case "createdAt":
		less = func(a, b stockRow) bool {
			return a.src.Stock.CreatedAt.Before(b.src.Stock.CreatedAt)
		}
	default:
		if asc {
			// Inverte a ordem createdAt desc vinda do banco.
			sort.SliceStable(rows, func(i, j int) bool {
				return rows[i].src.Stock.CreatedAt.Before(rows[j].src.Stock.CreatedAt)
			})
		}
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
}

// GetStockByID retorna o detalhe de um estoque: visão formatada com status
// computado e os lotes ativos em ordem de consumo (validade mais próxima primeiro).
func (s *Service) GetStockByID(ctx context.Context, id int64) (domain.StockDetail, error) {
	sw, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.StockDetail{}, err
	}

	now := time.Now().UTC()
	status := s.computeStatus(sw, now)

	batches := make([]domain.Batch, len(sw.Batches))
	copy(batches, sw.Batches)
	domain.SortBatchesForDeduction(batches)

	batchViews := make([]domain.BatchView, 0, len(batches))
	for _, b := range batches {
		batchViews = append(batchViews, domain.BatchView{
			ID:             b.ID,
			BatchNumber:    b.BatchNumber,
			Quantity:       b.Quantity,
			ExpirationDate: domain.FormatLongDatePtr(b.ExpirationDate),
			ReceivedDate:   domain.FormatLongDate(b.ReceivedDate),
			CreatedAt:      domain.FormatLongDate(b.CreatedAt),
			Remarks:        b.Remarks,
		})
	}

	return domain.StockDetail{
		Stock:   toStockView(sw, status),
		Batches: batchViews,
	}, nil
}

// CreateStock cria um estoque para um item do catálogo, com lotes iniciais
// opcionais. Consumíveis exigem nível de reposição; lotes sem número recebem
// um identificador gerado.
func (s *Service) CreateStock(ctx context.Context, input domain.CreateStockInput, actor string) (domain.StockDetail, error) {
	s.logger.Debug("Iniciando criação de estoque no serviço.", map[string]interface{}{
		"item_id": input.ItemID, "batches": len(input.Batches),
	})

	if input.ItemID <= 0 {
		return domain.StockDetail{}, apperror.NewValidationError("O ID do item é obrigatório.")
	}

	item, err := s.items.FindByID(ctx, input.ItemID)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return domain.StockDetail{}, apperror.NewValidationError(fmt.Sprintf("Item com ID %d não existe.", input.ItemID))
		}
		return domain.StockDetail{}, err
	}

	isConsumable := item.Category != nil && item.Category.IsConsumable()
	if isConsumable && input.ReorderLevel == nil {
		return domain.StockDetail{}, apperror.NewValidationError("Nível de reposição é obrigatório para itens consumíveis.")
	}

	reorderLevel := decimal.Zero
	if input.ReorderLevel != nil {
		if input.ReorderLevel.IsNegative() {
			return domain.StockDetail{}, apperror.NewValidationError("O nível de reposição não pode ser negativo.")
		}
		reorderLevel = *input.ReorderLevel
	}

	batches, err := normalizeBatchInputs(input.Batches, false)
	if err != nil {
		return domain.StockDetail{}, err
	}

	stock := domain.Stock{
		ItemCode:     item.ItemCode,
		ReorderLevel: reorderLevel,
	}

	id, err := s.repo.CreateStock(ctx, stock, batches, actor)
	if err != nil {
		return domain.StockDetail{}, err
	}

	s.logger.Info("Estoque criado com sucesso.", map[string]interface{}{
		"stock_id": id, "item_code": item.ItemCode,
	})
	return s.GetStockByID(ctx, id)
}

// UpdateStock aplica um patch parcial a um estoque e/ou seus lotes.
func (s *Service) UpdateStock(ctx context.Context, id int64, patch domain.UpdateStockInput, actor string) (domain.StockDetail, error) {
	if patch.ReorderLevel != nil && patch.ReorderLevel.IsNegative() {
		return domain.StockDetail{}, apperror.NewValidationError("O nível de reposição não pode ser negativo.")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return domain.StockDetail{}, apperror.NewValidationError(fmt.Sprintf("Status de estoque inválido: %s.", *patch.Status))
	}

	batches, err := normalizeBatchInputs(patch.Batches, true)
	if err != nil {
		return domain.StockDetail{}, err
	}
	patch.Batches = batches

	if err := s.repo.UpdateStock(ctx, id, patch, actor); err != nil {
		return domain.StockDetail{}, err
	}

	s.logger.Info("Estoque atualizado com sucesso.", map[string]interface{}{"stock_id": id})
	return s.GetStockByID(ctx, id)
}

// DeleteBatch marca um lote como deletado e re-agrega o estoque.
func (s *Service) DeleteBatch(ctx context.Context, stockID, batchID int64, actor string) error {
	if err := s.repo.SoftDeleteBatch(ctx, stockID, batchID, actor); err != nil {
		return err
	}
	s.logger.Info("Lote deletado com sucesso.", map[string]interface{}{
		"stock_id": stockID, "batch_id": batchID,
	})
	return nil
}

// DeleteStock marca um estoque como deletado.
func (s *Service) DeleteStock(ctx context.Context, id int64, actor string) error {
	if err := s.repo.SoftDeleteStock(ctx, id, actor); err != nil {
		return err
	}
	s.logger.Info("Estoque deletado com sucesso.", map[string]interface{}{"stock_id": id})
	return nil
}

// DeductBatchQuantity retira uma quantidade de um estoque, consumindo lotes em
// ordem de validade mais próxima primeiro. Conflitos de concorrência (OCC) são
// repetidos de forma transparente até deductMaxAttempts vezes.
func (s *Service) DeductBatchQuantity(ctx context.Context, stockID int64, quantity decimal.Decimal, actor string) (domain.DeductionResult, error) {
	s.logger.Debug("Iniciando dedução de estoque no serviço.", map[string]interface{}{
		"stock_id": stockID, "quantity": quantity.String(),
	})

	if !quantity.IsPositive() {
		return domain.DeductionResult{}, apperror.NewValidationError("A quantidade a deduzir deve ser maior que zero.")
	}

	var lastErr error
	for attempt := 1; attempt <= deductMaxAttempts; attempt++ {
		result, err := s.repo.Deduct(ctx, stockID, quantity, actor)
		if err == nil {
			s.logger.Info("Dedução de estoque concluída.", map[string]interface{}{
				"stock_id":       stockID,
				"total_deducted": result.TotalDeducted.String(),
				"new_stock":      result.NewCurrentStock.String(),
				"attempt":        attempt,
			})
			return result, nil
		}

		var conflictErr *apperror.ConflictError
		if !errors.As(err, &conflictErr) {
			return domain.DeductionResult{}, err
		}

		lastErr = err
		s.logger.Warn("Conflito de concorrência na dedução, tentando novamente.", map[string]interface{}{
			"stock_id": stockID, "attempt": attempt,
		})
	}

	s.logger.Error("Dedução de estoque esgotou as tentativas por conflito de concorrência.", lastErr)
	return domain.DeductionResult{}, lastErr
}

// GetConsumableBatches lista lotes de itens consumíveis disponíveis para retirada.
func (s *Service) GetConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	return s.repo.GetConsumableBatches(ctx)
}

// GetNonConsumableBatches lista lotes de equipamentos/ferramentas disponíveis.
func (s *Service) GetNonConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	return s.repo.GetNonConsumableBatches(ctx)
}

// computeStatus aplica as regras de status sobre a projeção crua.
func (s *Service) computeStatus(sw domain.StockWithItem, now time.Time) domain.StockStatus {
	return domain.ComputeStatus(
		sw.Stock.CurrentStock,
		sw.Stock.ReorderLevel,
		domain.IsConsumableCategory(sw.CategoryName),
		sw.Stock.Status,
		sw.Batches,
		now,
	)
}

// toStockView converte a projeção crua na visão formatada da API.
func toStockView(sw domain.StockWithItem, status domain.StockStatus) domain.StockView {
	return domain.StockView{
		ID:           sw.Stock.ID,
		ItemID:       sw.ItemID,
		StockCode:    sw.Stock.StockCode(),
		ItemName:     sw.ItemName,
		Unit:         sw.UnitAbbrev,
		Category:     sw.CategoryName,
		CurrentStock: sw.Stock.CurrentStock,
		ReorderLevel: sw.Stock.ReorderLevel,
		Status:       status,
		CreatedAt:    domain.FormatLongDate(sw.Stock.CreatedAt),
		UpdatedAt:    domain.FormatLongDate(sw.Stock.UpdatedAt),
	}
}

// normalizeBatchInputs valida os lotes de entrada e preenche número de lote
// gerado quando ausente. allowIDs distingue atualização (IDs permitidos) de
// criação (IDs proibidos).
func normalizeBatchInputs(batches []domain.BatchInput, allowIDs bool) ([]domain.BatchInput, error) {
	out := make([]domain.BatchInput, len(batches))
	for i, b := range batches {
		if b.ID != nil && !allowIDs {
			return nil, apperror.NewValidationError("Lotes de um estoque novo não podem referenciar IDs existentes.")
		}
		if b.Quantity.IsNegative() {
			return nil, apperror.NewValidationError(fmt.Sprintf("Quantidade do lote %q não pode ser negativa.", b.BatchNumber))
		}
		if strings.TrimSpace(b.BatchNumber) == "" {
			b.BatchNumber = generateBatchNumber()
		}
		out[i] = b
	}
	return out, nil
}

// generateBatchNumber cria um número de lote legível a partir de um fragmento
// de UUID (e.g., "LOT-9F3A2C1B").
func generateBatchNumber() string {
	return "LOT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
