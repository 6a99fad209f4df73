package stockservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) FindAllWithBatches(ctx context.Context, f domain.StockListFilter) ([]domain.StockWithItem, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.StockWithItem), args.Error(1)
}

func (m *MockStockRepository) FindByID(ctx context.Context, id int64) (domain.StockWithItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.StockWithItem), args.Error(1)
}

func (m *MockStockRepository) CreateStock(ctx context.Context, stock domain.Stock, batches []domain.BatchInput, actor string) (int64, error) {
	args := m.Called(ctx, stock, batches, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) UpdateStock(ctx context.Context, id int64, patch domain.UpdateStockInput, actor string) error {
	args := m.Called(ctx, id, patch, actor)
	return args.Error(0)
}

func (m *MockStockRepository) SoftDeleteBatch(ctx context.Context, stockID, batchID int64, actor string) error {
	args := m.Called(ctx, stockID, batchID, actor)
	return args.Error(0)
}

func (m *MockStockRepository) SoftDeleteStock(ctx context.Context, id int64, actor string) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockStockRepository) Deduct(ctx context.Context, stockID int64, quantityToDeduct decimal.Decimal, actor string) (domain.DeductionResult, error) {
	args := m.Called(ctx, stockID, quantityToDeduct, actor)
	return args.Get(0).(domain.DeductionResult), args.Error(1)
}

func (m *MockStockRepository) GetConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BatchSummary), args.Error(1)
}

func (m *MockStockRepository) GetNonConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BatchSummary), args.Error(1)
}

// MockItemRepository é uma implementação mock do recorte do catálogo usado pelo serviço
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, id int64) (domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Item), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func newTestService() (*stockservice.Service, *MockStockRepository, *MockItemRepository) {
	mockRepo := new(MockStockRepository)
	mockItems := new(MockItemRepository)
	svc := stockservice.NewService(mockRepo, mockItems, newTestLogger())
	return svc, mockRepo, mockItems
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func consumableItem(id int64, code string) domain.Item {
	return domain.Item{
		ID:       id,
		ItemCode: code,
		ItemName: "Filtro de óleo",
		Category: &domain.Category{ID: 1, CategoryName: "Consumable"},
	}
}

func stockWithItem(id int64, name, category string, current, reorder decimal.Decimal, createdAt time.Time) domain.StockWithItem {
	return domain.StockWithItem{
		Stock: domain.Stock{
			ID:           id,
			ItemCode:     "ITM-" + name,
			CurrentStock: current,
			ReorderLevel: reorder,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		},
		ItemID:       id,
		ItemName:     name,
		CategoryName: category,
		UnitAbbrev:   "PC",
	}
}

// --- DeductBatchQuantity ---

func TestDeductBatchQuantity_Success(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	expected := domain.DeductionResult{
		StockID:         42,
		TotalDeducted:   qty("8"),
		NewCurrentStock: qty("12"),
		NewStatus:       domain.StatusAvailable,
		Success:         true,
	}
	mockRepo.On("Deduct", mock.Anything, int64(42), qty("8"), "maria").Return(expected, nil).Once()

	result, err := svc.DeductBatchQuantity(context.Background(), 42, qty("8"), "maria")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.TotalDeducted.Equal(qty("8")))
	assert.True(t, result.NewCurrentStock.Equal(qty("12")))
	mockRepo.AssertExpectations(t)
}

func TestDeductBatchQuantity_Fail_NonPositiveQuantity(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	_, err := svc.DeductBatchQuantity(context.Background(), 42, decimal.Zero, "maria")
	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.DeductBatchQuantity(context.Background(), 42, qty("-3"), "maria")
	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeductBatchQuantity_Fail_InsufficientStock_NoRetry(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	insufficient := apperror.NewInsufficientStockError("Available: 7, Requested: 10", qty("7"), qty("10"))
	mockRepo.On("Deduct", mock.Anything, int64(42), qty("10"), "maria").
		Return(domain.DeductionResult{}, insufficient).Once()

	_, err := svc.DeductBatchQuantity(context.Background(), 42, qty("10"), "maria")

	assert.Error(t, err)
	var insErr *apperror.InsufficientStockError
	assert.ErrorAs(t, err, &insErr)
	assert.True(t, insErr.Available.Equal(qty("7")))
	assert.True(t, insErr.Requested.Equal(qty("10")))
	// Erro de negócio não é transitório: uma única chamada ao repositório.
	mockRepo.AssertNumberOfCalls(t, "Deduct", 1)
}

func TestDeductBatchQuantity_RetriesOnConflict_ThenSucceeds(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	conflict := apperror.NewConflictError("A versão do estoque mudou durante a dedução.")
	expected := domain.DeductionResult{
		StockID:         42,
		TotalDeducted:   qty("5"),
		NewCurrentStock: qty("0"),
		NewStatus:       domain.StatusOutOfStock,
		Success:         true,
	}
	mockRepo.On("Deduct", mock.Anything, int64(42), qty("5"), "maria").
		Return(domain.DeductionResult{}, conflict).Once()
	mockRepo.On("Deduct", mock.Anything, int64(42), qty("5"), "maria").
		Return(expected, nil).Once()

	result, err := svc.DeductBatchQuantity(context.Background(), 42, qty("5"), "maria")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusOutOfStock, result.NewStatus)
	mockRepo.AssertNumberOfCalls(t, "Deduct", 2)
}

func TestDeductBatchQuantity_Fail_RetriesExhausted(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	conflict := apperror.NewConflictError("A versão do estoque mudou durante a dedução.")
	mockRepo.On("Deduct", mock.Anything, int64(42), qty("5"), "maria").
		Return(domain.DeductionResult{}, conflict).Times(3)

	_, err := svc.DeductBatchQuantity(context.Background(), 42, qty("5"), "maria")

	assert.Error(t, err)
	var conflictErr *apperror.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	mockRepo.AssertNumberOfCalls(t, "Deduct", 3)
}

func TestDeductBatchQuantity_Fail_NonConflictError_NoRetry(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	dbErr := apperror.NewInternalError("Falha ao deduzir estoque.", errors.New("connection reset"))
	mockRepo.On("Deduct", mock.Anything, int64(42), qty("5"), "maria").
		Return(domain.DeductionResult{}, dbErr).Once()

	_, err := svc.DeductBatchQuantity(context.Background(), 42, qty("5"), "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	mockRepo.AssertNumberOfCalls(t, "Deduct", 1)
}

// --- CreateStock ---

func TestCreateStock_Success(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	item := consumableItem(7, "FLT-001")
	reorder := qty("10")
	input := domain.CreateStockInput{
		ItemID:       7,
		ReorderLevel: &reorder,
		Batches: []domain.BatchInput{
			{BatchNumber: "LOT-A1", Quantity: qty("25")},
		},
	}

	mockItems.On("FindByID", mock.Anything, int64(7)).Return(item, nil).Once()
	mockRepo.On("CreateStock", mock.Anything, mock.MatchedBy(func(s domain.Stock) bool {
		return s.ItemCode == "FLT-001" && s.ReorderLevel.Equal(qty("10"))
	}), mock.Anything, "maria").Return(int64(42), nil).Once()

	created := stockWithItem(42, "Filtro de óleo", "Consumable", qty("25"), qty("10"), time.Now().UTC())
	created.Batches = []domain.Batch{{ID: 1, StockID: 42, BatchNumber: "LOT-A1", Quantity: qty("25"), ReceivedDate: time.Now().UTC(), CreatedAt: time.Now().UTC()}}
	mockRepo.On("FindByID", mock.Anything, int64(42)).Return(created, nil).Once()

	detail, err := svc.CreateStock(context.Background(), input, "maria")

	assert.NoError(t, err)
	assert.Equal(t, int64(42), detail.Stock.ID)
	assert.Equal(t, domain.StatusAvailable, detail.Stock.Status)
	assert.Len(t, detail.Batches, 1)
	mockRepo.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestCreateStock_Fail_MissingItemID(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	_, err := svc.CreateStock(context.Background(), domain.CreateStockInput{}, "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockItems.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "CreateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateStock_Fail_ItemNotFound(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	mockItems.On("FindByID", mock.Anything, int64(99)).
		Return(domain.Item{}, apperror.NewNotFoundError("Item com ID 99 não encontrado.")).Once()

	_, err := svc.CreateStock(context.Background(), domain.CreateStockInput{ItemID: 99}, "maria")

	// Referência inexistente no payload é erro de validação, não 404.
	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateStock_Fail_ConsumableWithoutReorderLevel(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	mockItems.On("FindByID", mock.Anything, int64(7)).Return(consumableItem(7, "FLT-001"), nil).Once()

	_, err := svc.CreateStock(context.Background(), domain.CreateStockInput{ItemID: 7}, "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Nível de reposição")
	mockRepo.AssertNotCalled(t, "CreateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateStock_Fail_NegativeReorderLevel(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	mockItems.On("FindByID", mock.Anything, int64(7)).Return(consumableItem(7, "FLT-001"), nil).Once()

	reorder := qty("-1")
	_, err := svc.CreateStock(context.Background(), domain.CreateStockInput{ItemID: 7, ReorderLevel: &reorder}, "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateStock_Fail_BatchWithIDOnCreate(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	mockItems.On("FindByID", mock.Anything, int64(7)).Return(consumableItem(7, "FLT-001"), nil).Once()

	reorder := qty("10")
	existingID := int64(5)
	input := domain.CreateStockInput{
		ItemID:       7,
		ReorderLevel: &reorder,
		Batches:      []domain.BatchInput{{ID: &existingID, Quantity: qty("3")}},
	}

	_, err := svc.CreateStock(context.Background(), input, "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateStock_GeneratesBatchNumberWhenBlank(t *testing.T) {
	svc, mockRepo, mockItems := newTestService()

	mockItems.On("FindByID", mock.Anything, int64(7)).Return(consumableItem(7, "FLT-001"), nil).Once()

	var captured []domain.BatchInput
	mockRepo.On("CreateStock", mock.Anything, mock.Anything, mock.MatchedBy(func(batches []domain.BatchInput) bool {
		captured = batches
		return true
	}), "maria").Return(int64(42), nil).Once()
	mockRepo.On("FindByID", mock.Anything, int64(42)).
		Return(stockWithItem(42, "Filtro de óleo", "Consumable", qty("3"), qty("10"), time.Now().UTC()), nil).Once()

	reorder := qty("10")
	input := domain.CreateStockInput{
		ItemID:       7,
		ReorderLevel: &reorder,
		Batches:      []domain.BatchInput{{Quantity: qty("3")}},
	}

	_, err := svc.CreateStock(context.Background(), input, "maria")

	assert.NoError(t, err)
	assert.Len(t, captured, 1)
	assert.Regexp(t, `^LOT-[0-9A-F]{8}$`, captured[0].BatchNumber)
}

// --- UpdateStock ---

func TestUpdateStock_Fail_InvalidStatus(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	bad := domain.StockStatus("BANANA")
	_, err := svc.UpdateStock(context.Background(), 42, domain.UpdateStockInput{Status: &bad}, "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStock_Fail_NegativeBatchQuantity(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	patch := domain.UpdateStockInput{
		Batches: []domain.BatchInput{{BatchNumber: "LOT-A1", Quantity: qty("-2")}},
	}
	_, err := svc.UpdateStock(context.Background(), 42, patch, "maria")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- ListStocks ---

func TestListStocks_Fail_InvalidStatusFilter(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	_, err := svc.ListStocks(context.Background(), domain.StockListFilter{
		Status: []domain.StockStatus{"WRONG"},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindAllWithBatches", mock.Anything, mock.Anything)
}

func TestListStocks_FiltersByComputedStatus(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	now := time.Now().UTC()
	// Consumível abaixo do nível de reposição: LOW_STOCK computado.
	low := stockWithItem(1, "Filtro de óleo", "Consumable", qty("4"), qty("10"), now)
	// Consumível saudável: AVAILABLE.
	ok := stockWithItem(2, "Fluido de freio", "Consumable", qty("50"), qty("10"), now)
	// Consumível zerado: OUT_OF_STOCK.
	empty := stockWithItem(3, "Graxa", "Consumable", qty("0"), qty("5"), now)

	mockRepo.On("FindAllWithBatches", mock.Anything, mock.Anything).
		Return([]domain.StockWithItem{low, ok, empty}, nil).Once()

	result, err := svc.ListStocks(context.Background(), domain.StockListFilter{
		Status: []domain.StockStatus{domain.StatusLowStock},
	})

	assert.NoError(t, err)
	assert.Len(t, result.Data, 1)
	assert.Equal(t, int64(1), result.Data[0].ID)
	assert.Equal(t, domain.StatusLowStock, result.Data[0].Status)
	assert.Equal(t, 1, result.Pagination.Total)
}

func TestListStocks_ExpiredBatchOverridesQuantity(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	now := time.Now().UTC()
	expired := now.Add(-24 * time.Hour)
	sw := stockWithItem(1, "Colírio", "Consumable", qty("30"), qty("5"), now)
	sw.Batches = []domain.Batch{
		{ID: 1, StockID: 1, BatchNumber: "LOT-A1", Quantity: qty("30"), ReceivedDate: now, ExpirationDate: &expired},
	}

	mockRepo.On("FindAllWithBatches", mock.Anything, mock.Anything).
		Return([]domain.StockWithItem{sw}, nil).Once()

	result, err := svc.ListStocks(context.Background(), domain.StockListFilter{})

	assert.NoError(t, err)
	assert.Len(t, result.Data, 1)
	assert.Equal(t, domain.StatusExpired, result.Data[0].Status)
}

func TestListStocks_SortsByItemNameAsc(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	now := time.Now().UTC()
	b := stockWithItem(1, "Parafuso", "Consumable", qty("10"), qty("1"), now)
	a := stockWithItem(2, "Abraçadeira", "Consumable", qty("10"), qty("1"), now)

	mockRepo.On("FindAllWithBatches", mock.Anything, mock.Anything).
		Return([]domain.StockWithItem{b, a}, nil).Once()

	result, err := svc.ListStocks(context.Background(), domain.StockListFilter{
		SortBy: "itemName", SortOrder: "asc",
	})

	assert.NoError(t, err)
	assert.Len(t, result.Data, 2)
	assert.Equal(t, "Abraçadeira", result.Data[0].ItemName)
	assert.Equal(t, "Parafuso", result.Data[1].ItemName)
}

func TestListStocks_Paginates(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	now := time.Now().UTC()
	all := make([]domain.StockWithItem, 0, 5)
	names := []string{"A", "B", "C", "D", "E"}
	for i, n := range names {
		all = append(all, stockWithItem(int64(i+1), n, "Consumable", qty("10"), qty("1"), now.Add(time.Duration(i)*time.Minute)))
	}

	mockRepo.On("FindAllWithBatches", mock.Anything, mock.Anything).
		Return(all, nil).Once()

	result, err := svc.ListStocks(context.Background(), domain.StockListFilter{
		Page: 2, Limit: 2, SortBy: "itemName", SortOrder: "asc",
	})

	assert.NoError(t, err)
	assert.Len(t, result.Data, 2)
	assert.Equal(t, "C", result.Data[0].ItemName)
	assert.Equal(t, "D", result.Data[1].ItemName)
	assert.Equal(t, 5, result.Pagination.Total)
	assert.Equal(t, 3, result.Pagination.TotalPages)
}

// --- GetStockByID ---

func TestGetStockByID_SortsBatchesByNearestExpiration(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	now := time.Now().UTC()
	far := now.Add(90 * 24 * time.Hour)
	near := now.Add(10 * 24 * time.Hour)
	sw := stockWithItem(42, "Filtro de óleo", "Consumable", qty("20"), qty("5"), now)
	sw.Batches = []domain.Batch{
		{ID: 1, StockID: 42, BatchNumber: "LOT-FAR", Quantity: qty("10"), ReceivedDate: now, ExpirationDate: &far, CreatedAt: now},
		{ID: 2, StockID: 42, BatchNumber: "LOT-NEAR", Quantity: qty("10"), ReceivedDate: now, ExpirationDate: &near, CreatedAt: now},
		{ID: 3, StockID: 42, BatchNumber: "LOT-NOEXP", Quantity: qty("5"), ReceivedDate: now, CreatedAt: now},
	}

	mockRepo.On("FindByID", mock.Anything, int64(42)).Return(sw, nil).Once()

	detail, err := svc.GetStockByID(context.Background(), 42)

	assert.NoError(t, err)
	assert.Len(t, detail.Batches, 3)
	assert.Equal(t, "LOT-NEAR", detail.Batches[0].BatchNumber)
	assert.Equal(t, "LOT-FAR", detail.Batches[1].BatchNumber)
	// Lote sem validade vai para o fim da fila de consumo.
	assert.Equal(t, "LOT-NOEXP", detail.Batches[2].BatchNumber)
	assert.Nil(t, detail.Batches[2].ExpirationDate)
}

func TestGetStockByID_Fail_NotFound(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	mockRepo.On("FindByID", mock.Anything, int64(99)).
		Return(domain.StockWithItem{}, apperror.NewNotFoundError("Estoque com ID 99 não encontrado.")).Once()

	_, err := svc.GetStockByID(context.Background(), 99)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
