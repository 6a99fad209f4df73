package catalogservice

import (
	"context"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// CatalogRepository define o contrato das tabelas de referência do catálogo.
type CatalogRepository interface {
	FindAllCategories(ctx context.Context) ([]domain.Category, error)
	FindCategoryByID(ctx context.Context, id int64) (domain.Category, error)
	FindAllUnits(ctx context.Context) ([]domain.UnitMeasure, error)
	FindUnitByID(ctx context.Context, id int64) (domain.UnitMeasure, error)
}

// Service expõe as consultas de categorias e unidades de medida.
type Service struct {
	repo   CatalogRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo CatalogRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListCategories lista as categorias ativas.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.FindAllCategories(ctx)
}

// GetCategoryByID busca uma categoria pelo ID.
func (s *Service) GetCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	if id <= 0 {
		return domain.Category{}, apperror.NewValidationError("O ID da categoria deve ser um inteiro positivo.")
	}
	return s.repo.FindCategoryByID(ctx, id)
}

// ListUnits lista as unidades de medida ativas.
func (s *Service) ListUnits(ctx context.Context) ([]domain.UnitMeasure, error) {
	return s.repo.FindAllUnits(ctx)
}

// GetUnitByID busca uma unidade de medida pelo ID.
func (s *Service) GetUnitByID(ctx context.Context, id int64) (domain.UnitMeasure, error) {
	if id <= 0 {
		return domain.UnitMeasure{}, apperror.NewValidationError("O ID da unidade de medida deve ser um inteiro positivo.")
	}
	return s.repo.FindUnitByID(ctx, id)
}
