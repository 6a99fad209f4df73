package itemservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/service/itemservice"
)

// MockItemRepository é uma implementação mock da interface ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id int64) (domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context, f domain.ItemListFilter) ([]domain.Item, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Item), args.Int(1), args.Error(2)
}

func (m *MockItemRepository) Update(ctx context.Context, item domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogRepository é o recorte mockado das tabelas de referência
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCatalogRepository) FindUnitByID(ctx context.Context, id int64) (domain.UnitMeasure, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.UnitMeasure), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func newTestService() (*itemservice.Service, *MockItemRepository, *MockCatalogRepository) {
	mockRepo := new(MockItemRepository)
	mockCatalog := new(MockCatalogRepository)
	svc := itemservice.NewService(mockRepo, mockCatalog, newTestLogger())
	return svc, mockRepo, mockCatalog
}

func validItem() domain.Item {
	return domain.Item{
		ItemCode:   "FLT-001",
		ItemName:   "Filtro de óleo",
		CategoryID: 1,
		UnitID:     2,
	}
}

func expectValidReferences(mockCatalog *MockCatalogRepository) {
	mockCatalog.On("FindCategoryByID", mock.Anything, int64(1)).
		Return(domain.Category{ID: 1, CategoryName: "Consumable"}, nil)
	mockCatalog.On("FindUnitByID", mock.Anything, int64(2)).
		Return(domain.UnitMeasure{ID: 2, UnitCode: "PC", Abbreviation: "pc"}, nil)
}

// --- Testes para CreateItem ---

func TestCreateItem_Success(t *testing.T) {
	svc, mockRepo, mockCatalog := newTestService()

	item := validItem()
	expectValidReferences(mockCatalog)

	created := item
	created.ID = 7
	created.Status = domain.ItemActive
	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(i domain.Item) bool {
		// Status padrão é aplicado antes da persistência.
		return i.Status == domain.ItemActive
	})).Return(created, nil).Once()

	result, err := svc.CreateItem(context.Background(), item)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), result.ID)
	assert.Equal(t, domain.ItemActive, result.Status)
	mockRepo.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestCreateItem_Fail_MissingItemCode(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	item := validItem()
	item.ItemCode = "  "
	_, err := svc.CreateItem(context.Background(), item)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateItem_Fail_MissingItemName(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	item := validItem()
	item.ItemName = ""
	_, err := svc.CreateItem(context.Background(), item)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateItem_Fail_UnknownCategory(t *testing.T) {
	svc, mockRepo, mockCatalog := newTestService()

	item := validItem()
	mockCatalog.On("FindCategoryByID", mock.Anything, int64(1)).
		Return(domain.Category{}, apperror.NewNotFoundError("Categoria com ID 1 não encontrada."))

	_, err := svc.CreateItem(context.Background(), item)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Categoria com ID 1 não existe")
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateItem_Fail_DuplicateItemCode(t *testing.T) {
	svc, mockRepo, mockCatalog := newTestService()

	item := validItem()
	expectValidReferences(mockCatalog)
	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.Item{}, apperror.NewConflictError("Item com código 'FLT-001' já existe.")).Once()

	_, err := svc.CreateItem(context.Background(), item)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

// --- Testes para ListItems ---

func TestListItems_Success(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	filter := domain.ItemListFilter{Page: 1, Limit: 10, Search: "filtro"}
	items := []domain.Item{{ID: 1, ItemCode: "FLT-001", ItemName: "Filtro de óleo"}}
	mockRepo.On("FindAll", mock.Anything, filter).Return(items, 1, nil).Once()

	result, err := svc.ListItems(context.Background(), filter)

	assert.NoError(t, err)
	assert.Len(t, result.Data, 1)
	assert.Equal(t, 1, result.Pagination.Total)
	mockRepo.AssertExpectations(t)
}

func TestListItems_Fail_InvalidStatus(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	_, err := svc.ListItems(context.Background(), domain.ItemListFilter{Status: "BROKEN"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

// --- Testes para UpdateItem ---

func TestUpdateItem_ItemCodeIsImmutable(t *testing.T) {
	svc, mockRepo, mockCatalog := newTestService()

	current := validItem()
	current.ID = 7
	current.Status = domain.ItemActive

	patch := current
	patch.ItemCode = "HACK-999" // tentativa de troca do código

	expectValidReferences(mockCatalog)
	mockRepo.On("FindByID", mock.Anything, int64(7)).Return(current, nil).Twice()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(i domain.Item) bool {
		return i.ItemCode == "FLT-001"
	})).Return(nil).Once()

	result, err := svc.UpdateItem(context.Background(), patch)

	assert.NoError(t, err)
	assert.Equal(t, "FLT-001", result.ItemCode)
	mockRepo.AssertExpectations(t)
}

func TestUpdateItem_Fail_NotFound(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	item := validItem()
	item.ID = 99
	mockRepo.On("FindByID", mock.Anything, int64(99)).
		Return(domain.Item{}, apperror.NewNotFoundError("Item com ID 99 não encontrado.")).Once()

	_, err := svc.UpdateItem(context.Background(), item)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// --- Testes para DeleteItem ---

func TestDeleteItem_Fail_InvalidID(t *testing.T) {
	svc, mockRepo, _ := newTestService()

	err := svc.DeleteItem(context.Background(), -1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
