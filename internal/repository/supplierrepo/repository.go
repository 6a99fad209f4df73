package supplierrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"frotastock/internal/domain"
	"frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// SupplierRepository é a camada de persistência de fornecedores e da tabela
// de preços fornecedor x item.
type SupplierRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSupplierRepository cria e retorna uma nova instância do Repositório de Fornecedores.
func NewSupplierRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SupplierRepository {
	return &SupplierRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo fornecedor.
func (r *SupplierRepository) Save(ctx context.Context, s domain.Supplier) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const supplierSQL = `
        INSERT INTO suppliers (supplier_name, contact_person, phone, email, address, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, now(), now())
        RETURNING id, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, supplierSQL,
		s.SupplierName, s.ContactPerson, s.Phone, s.Email, s.Address,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir fornecedor no DB.", err)
		return domain.Supplier{}, errors.NewDBError("Falha ao criar fornecedor", err)
	}

	return s, nil
}

// FindByID busca um fornecedor pelo ID.
func (r *SupplierRepository) FindByID(ctx context.Context, id int64) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var s domain.Supplier
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT id, supplier_name, COALESCE(contact_person, ''), COALESCE(phone, ''),
               COALESCE(email, ''), COALESCE(address, ''), created_at, updated_at
        FROM suppliers
        WHERE id = $1 AND is_deleted = FALSE`, id).
		Scan(&s.ID, &s.SupplierName, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Supplier{}, errors.NewNotFoundError(fmt.Sprintf("Fornecedor com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Supplier{}, errors.NewDBError("Falha ao buscar fornecedor", err)
	}

	return s, nil
}

// FindAll lista os fornecedores ativos, ordenados por nome.
func (r *SupplierRepository) FindAll(ctx context.Context) ([]domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, supplier_name, COALESCE(contact_person, ''), COALESCE(phone, ''),
               COALESCE(email, ''), COALESCE(address, ''), created_at, updated_at
        FROM suppliers
        WHERE is_deleted = FALSE
        ORDER BY supplier_name ASC`)
	if err != nil {
		r.logger.Error("Falha ao listar fornecedores no DB.", err)
		return nil, errors.NewDBError("Falha ao listar fornecedores", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.SupplierName, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear fornecedor", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar fornecedores", err)
	}

	return suppliers, nil
}

// Update atualiza os dados cadastrais de um fornecedor.
func (r *SupplierRepository) Update(ctx context.Context, s domain.Supplier) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE suppliers
        SET supplier_name = $1, contact_person = $2, phone = $3, email = $4, address = $5, updated_at = now()
        WHERE id = $6 AND is_deleted = FALSE`,
		s.SupplierName, s.ContactPerson, s.Phone, s.Email, s.Address, s.ID)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar fornecedor", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Fornecedor com ID %d não existe na base de dados.", s.ID))
	}
	return nil
}

// SoftDelete marca um fornecedor como deletado. Os vínculos de preço
// permanecem para fins de histórico.
func (r *SupplierRepository) SoftDelete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE suppliers SET is_deleted = TRUE, updated_at = now()
        WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return errors.NewDBError("Falha ao deletar fornecedor", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Fornecedor com ID %d não existe na base de dados.", id))
	}
	return nil
}

// SaveItemPrice registra (ou re-registra) o preço de um item junto a um
// fornecedor. Cada registro carrega a data de vigência; o histórico é
// preservado inserindo sempre uma nova linha.
func (r *SupplierRepository) SaveItemPrice(ctx context.Context, si domain.SupplierItem) (domain.SupplierItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const priceSQL = `
        INSERT INTO supplier_items (supplier_id, item_id, unit_price, effective_from, created_at, updated_at)
        VALUES ($1, $2, $3, $4, now(), now())
        RETURNING id, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, priceSQL,
		si.SupplierID, si.ItemID, si.UnitPrice, si.EffectiveFrom,
	).Scan(&si.ID, &si.CreatedAt, &si.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao registrar preço de fornecedor no DB.", err)
		return domain.SupplierItem{}, errors.NewDBError("Falha ao registrar preço", err)
	}

	return si, nil
}

// FindItemPrices lista os preços registrados de um fornecedor, do mais
// recente para o mais antigo, com o item de catálogo embutido.
func (r *SupplierRepository) FindItemPrices(ctx context.Context, supplierID int64) ([]domain.SupplierItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT si.id, si.supplier_id, si.item_id, si.unit_price, si.effective_from,
               si.created_at, si.updated_at,
               i.id, i.item_code, i.item_name
        FROM supplier_items si
        JOIN items i ON i.id = si.item_id
        WHERE si.supplier_id = $1 AND si.is_deleted = FALSE
        ORDER BY si.effective_from DESC, si.id DESC`, supplierID)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar preços do fornecedor", err)
	}
	defer rows.Close()

	var prices []domain.SupplierItem
	for rows.Next() {
		var (
			si   domain.SupplierItem
			item domain.Item
		)
		err := rows.Scan(
			&si.ID, &si.SupplierID, &si.ItemID, &si.UnitPrice, &si.EffectiveFrom,
			&si.CreatedAt, &si.UpdatedAt,
			&item.ID, &item.ItemCode, &item.ItemName,
		)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear preço do fornecedor", err)
		}
		si.Item = &item
		prices = append(prices, si)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar preços do fornecedor", err)
	}

	return prices, nil
}
