package catalogrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"frotastock/internal/domain"
	"frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// CatalogRepository serve as tabelas de referência do catálogo:
// categorias e unidades de medida.
type CatalogRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCatalogRepository cria e retorna uma nova instância do Repositório de Catálogo.
func NewCatalogRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindAllCategories lista as categorias ativas, ordenadas por nome.
func (r *CatalogRepository) FindAllCategories(ctx context.Context) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, category_name, created_at, updated_at
        FROM categories
        WHERE is_deleted = FALSE
        ORDER BY category_name ASC`)
	if err != nil {
		r.logger.Error("Falha ao listar categorias no DB.", err)
		return nil, errors.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.CategoryName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear categoria", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar categorias", err)
	}

	return categories, nil
}

// FindCategoryByID busca uma categoria pelo ID.
func (r *CatalogRepository) FindCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var c domain.Category
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT id, category_name, created_at, updated_at
        FROM categories
        WHERE id = $1 AND is_deleted = FALSE`, id).
		Scan(&c.ID, &c.CategoryName, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Category{}, errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao buscar categoria", err)
	}

	return c, nil
}

// FindAllUnits lista as unidades de medida ativas, ordenadas por nome.
func (r *CatalogRepository) FindAllUnits(ctx context.Context) ([]domain.UnitMeasure, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, unit_code, unit_name, abbreviation, COALESCE(description, ''), created_at, updated_at
        FROM unit_measures
        WHERE is_deleted = FALSE
        ORDER BY unit_name ASC`)
	if err != nil {
		r.logger.Error("Falha ao listar unidades no DB.", err)
		return nil, errors.NewDBError("Falha ao listar unidades de medida", err)
	}
	defer rows.Close()

	var units []domain.UnitMeasure
	for rows.Next() {
		var u domain.UnitMeasure
		if err := rows.Scan(&u.ID, &u.UnitCode, &u.UnitName, &u.Abbreviation, &u.Description, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear unidade de medida", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar unidades de medida", err)
	}

	return units, nil
}

// FindUnitByID busca uma unidade de medida pelo ID.
func (r *CatalogRepository) FindUnitByID(ctx context.Context, id int64) (domain.UnitMeasure, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var u domain.UnitMeasure
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT id, unit_code, unit_name, abbreviation, COALESCE(description, ''), created_at, updated_at
        FROM unit_measures
        WHERE id = $1 AND is_deleted = FALSE`, id).
		Scan(&u.ID, &u.UnitCode, &u.UnitName, &u.Abbreviation, &u.Description, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.UnitMeasure{}, errors.NewNotFoundError(fmt.Sprintf("Unidade de medida com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		return domain.UnitMeasure{}, errors.NewDBError("Falha ao buscar unidade de medida", err)
	}

	return u, nil
}
