package itemrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"frotastock/internal/domain"
	"frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// ItemRepository é a camada de persistência do catálogo de itens.
type ItemRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewItemRepository cria e retorna uma nova instância do Repositório de Itens.
func NewItemRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ItemRepository {
	return &ItemRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const itemSelectColumns = `
        i.id, i.item_code, i.item_name, i.category_id, i.unit_id, i.status, COALESCE(i.description, ''),
        i.created_at, i.updated_at,
        c.id, c.category_name, u.id, u.unit_code, u.unit_name, u.abbreviation`

const itemFromClause = `
        FROM items i
        JOIN categories c ON c.id = i.category_id
        JOIN unit_measures u ON u.id = i.unit_id`

func scanItem(scanner interface{ Scan(...interface{}) error }) (domain.Item, error) {
	var (
		item domain.Item
		cat  domain.Category
		unit domain.UnitMeasure
	)
	err := scanner.Scan(
		&item.ID, &item.ItemCode, &item.ItemName, &item.CategoryID, &item.UnitID, &item.Status, &item.Description,
		&item.CreatedAt, &item.UpdatedAt,
		&cat.ID, &cat.CategoryName, &unit.ID, &unit.UnitCode, &unit.UnitName, &unit.Abbreviation,
	)
	if err != nil {
		return domain.Item{}, err
	}
	item.Category = &cat
	item.Unit = &unit
	return item, nil
}

// Save insere um novo item no catálogo.
func (r *ItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const itemSQL = `
        INSERT INTO items (item_code, item_name, category_id, unit_id, status, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now(), now())
        RETURNING id, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, itemSQL,
		item.ItemCode, item.ItemName, item.CategoryID, item.UnitID, item.Status, item.Description,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir item no DB.", err)
		// Violação de unicidade do item_code vira conflito de negócio.
		if strings.Contains(err.Error(), "items_item_code_key") {
			return domain.Item{}, errors.NewConflictError(fmt.Sprintf("Já existe um item com o código %s.", item.ItemCode))
		}
		return domain.Item{}, errors.NewDBError("Falha ao criar item", err)
	}

	return item, nil
}

// FindByID busca um item pelo ID, com categoria e unidade.
func (r *ItemRepository) FindByID(ctx context.Context, id int64) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := "SELECT" + itemSelectColumns + itemFromClause +
		" WHERE i.id = $1 AND i.is_deleted = FALSE"

	item, err := scanItem(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Item{}, errors.NewNotFoundError(fmt.Sprintf("Item com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item no DB.", err)
		return domain.Item{}, errors.NewDBError("Falha ao buscar item", err)
	}

	return item, nil
}

// FindAll lista itens com busca, filtros e paginação resolvidos no banco.
// Diferente da listagem de estoques, aqui não há status computado: os filtros
// podem ser todos empurrados para o SQL.
func (r *ItemRepository) FindAll(ctx context.Context, f domain.ItemListFilter) ([]domain.Item, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		conditions []string
		args       []interface{}
	)
	addArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, "i.is_deleted = FALSE")
	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = %s", addArg(f.Status)))
	}
	if f.CategoryID > 0 {
		conditions = append(conditions, fmt.Sprintf("i.category_id = %s", addArg(f.CategoryID)))
	}
	if f.Search != "" {
		p := addArg("%" + f.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(i.item_code ILIKE %[1]s OR i.item_name ILIKE %[1]s)", p))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	// Total antes da paginação.
	var total int
	countQuery := "SELECT COUNT(*)" + itemFromClause + where
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewDBError("Falha ao contar itens", err)
	}

	orderBy := map[string]string{
		"itemCode":  "i.item_code",
		"itemName":  "i.item_name",
		"createdAt": "i.created_at",
	}[f.SortBy]
	if orderBy == "" {
		orderBy = "i.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	query := "SELECT" + itemSelectColumns + itemFromClause + where +
		fmt.Sprintf(" ORDER BY %s %s LIMIT %s OFFSET %s",
			orderBy, direction, addArg(limit), addArg((page-1)*limit))

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar itens no DB.", err)
		return nil, 0, errors.NewDBError("Falha ao listar itens", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, errors.NewDBError("Falha ao mapear item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewDBError("Falha ao iterar itens", err)
	}

	return items, total, nil
}

// Update atualiza os campos mutáveis de um item (o item_code é imutável a
// partir do momento em que um estoque o referencia).
func (r *ItemRepository) Update(ctx context.Context, item domain.Item) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE items
        SET item_name = $1, category_id = $2, unit_id = $3, status = $4, description = $5, updated_at = now()
        WHERE id = $6 AND is_deleted = FALSE`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		item.ItemName, item.CategoryID, item.UnitID, item.Status, item.Description, item.ID)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar item", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Item com ID %d não existe na base de dados.", item.ID))
	}
	return nil
}

// SoftDelete marca um item como deletado.
func (r *ItemRepository) SoftDelete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE items SET is_deleted = TRUE, updated_at = now()
        WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return errors.NewDBError("Falha ao deletar item", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Item com ID %d não existe na base de dados.", id))
	}
	return nil
}
