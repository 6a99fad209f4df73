package itemservice

import (
	"context"
	"fmt"
	"strings"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// ItemRepository define o contrato que o Serviço de Itens espera da camada de Persistência.
type ItemRepository interface {
	Save(ctx context.Context, item domain.Item) (domain.Item, error)
	FindByID(ctx context.Context, id int64) (domain.Item, error)
	FindAll(ctx context.Context, f domain.ItemListFilter) ([]domain.Item, int, error)
	Update(ctx context.Context, item domain.Item) error
	SoftDelete(ctx context.Context, id int64) error
}

// CatalogRepository é o recorte das tabelas de referência usado para validar
// categoria e unidade de um item.
type CatalogRepository interface {
	FindCategoryByID(ctx context.Context, id int64) (domain.Category, error)
	FindUnitByID(ctx context.Context, id int64) (domain.UnitMeasure, error)
}

// Service implementa as regras de negócio do catálogo de itens.
type Service struct {
	repo    ItemRepository
	catalog CatalogRepository
	logger  logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Itens.
func NewService(repo ItemRepository, catalog CatalogRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

// CreateItem cria um novo item de catálogo, validando categoria e unidade.
func (s *Service) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	s.logger.Debug("Iniciando criação de item no serviço.", map[string]interface{}{"item_code": item.ItemCode})

	if err := s.validateItem(item); err != nil {
		return domain.Item{}, err
	}
	if err := s.validateReferences(ctx, item); err != nil {
		return domain.Item{}, err
	}

	if item.Status == "" {
		item.Status = domain.ItemActive
	}

	created, err := s.repo.Save(ctx, item)
	if err != nil {
		s.logger.Error("Falha ao criar item no repositório.", err)
		return domain.Item{}, err
	}

	s.logger.Info("Item criado com sucesso.", map[string]interface{}{"id": created.ID, "item_code": created.ItemCode})
	return created, nil
}

// GetItemByID busca um item pelo ID.
func (s *Service) GetItemByID(ctx context.Context, id int64) (domain.Item, error) {
	if id <= 0 {
		return domain.Item{}, apperror.NewValidationError("O ID do item deve ser um inteiro positivo.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListItems lista itens com busca, filtros e paginação.
func (s *Service) ListItems(ctx context.Context, f domain.ItemListFilter) (domain.ItemListResult, error) {
	if f.Status != "" && f.Status != domain.ItemActive && f.Status != domain.ItemInactive {
		return domain.ItemListResult{}, apperror.NewValidationError(fmt.Sprintf("Status de item inválido: %s.", f.Status))
	}

	items, total, err := s.repo.FindAll(ctx, f)
	if err != nil {
		s.logger.Error("Falha ao listar itens no repositório.", err)
		return domain.ItemListResult{}, err
	}

	return domain.ItemListResult{
		Data:       items,
		Pagination: domain.NewPagination(f.Page, f.Limit, total),
	}, nil
}

// UpdateItem atualiza um item existente. O item_code é imutável: o valor
// persistido prevalece sobre qualquer código enviado.
func (s *Service) UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	s.logger.Debug("Iniciando atualização de item no serviço.", map[string]interface{}{"id": item.ID})

	if item.ID <= 0 {
		return domain.Item{}, apperror.NewValidationError("O ID do item deve ser um inteiro positivo.")
	}

	current, err := s.repo.FindByID(ctx, item.ID)
	if err != nil {
		return domain.Item{}, err
	}
	item.ItemCode = current.ItemCode

	if err := s.validateItem(item); err != nil {
		return domain.Item{}, err
	}
	if err := s.validateReferences(ctx, item); err != nil {
		return domain.Item{}, err
	}
	if item.Status == "" {
		item.Status = current.Status
	}

	if err := s.repo.Update(ctx, item); err != nil {
		s.logger.Error("Falha ao atualizar item no repositório.", err)
		return domain.Item{}, err
	}

	s.logger.Info("Item atualizado com sucesso.", map[string]interface{}{"id": item.ID})
	return s.repo.FindByID(ctx, item.ID)
}

// DeleteItem marca um item como deletado.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID do item deve ser um inteiro positivo.")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Item deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// validateItem valida os campos próprios do item.
func (s *Service) validateItem(item domain.Item) error {
	if strings.TrimSpace(item.ItemCode) == "" {
		return apperror.NewValidationError("O código do item não pode ser vazio.")
	}
	if strings.TrimSpace(item.ItemName) == "" {
		return apperror.NewValidationError("O nome do item não pode ser vazio.")
	}
	if item.Status != "" && item.Status != domain.ItemActive && item.Status != domain.ItemInactive {
		return apperror.NewValidationError(fmt.Sprintf("Status de item inválido: %s.", item.Status))
	}
	return nil
}

// validateReferences garante que categoria e unidade existem no catálogo.
func (s *Service) validateReferences(ctx context.Context, item domain.Item) error {
	if item.CategoryID <= 0 {
		return apperror.NewValidationError("A categoria do item é obrigatória.")
	}
	if item.UnitID <= 0 {
		return apperror.NewValidationError("A unidade de medida do item é obrigatória.")
	}
	if _, err := s.catalog.FindCategoryByID(ctx, item.CategoryID); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("Categoria com ID %d não existe.", item.CategoryID))
	}
	if _, err := s.catalog.FindUnitByID(ctx, item.UnitID); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("Unidade de medida com ID %d não existe.", item.UnitID))
	}
	return nil
}
