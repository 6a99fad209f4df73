package disposalrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"frotastock/internal/domain"
	"frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// DisposalRepository persiste os registros de baixa de ativos.
// A tabela é somente-inserção: baixas não são editadas nem excluídas.
type DisposalRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewDisposalRepository cria e retorna uma nova instância do Repositório de Baixas.
func NewDisposalRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *DisposalRepository {
	return &DisposalRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um registro de baixa.
func (r *DisposalRepository) Save(ctx context.Context, d domain.Disposal) (domain.Disposal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const disposalSQL = `
        INSERT INTO disposals (stock_id, batch_id, bus_id, quantity, method, reason, disposed_by, disposed_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
        RETURNING id, created_at`

	var quantity decimal.NullDecimal
	if d.Quantity != nil {
		quantity = decimal.NullDecimal{Decimal: *d.Quantity, Valid: true}
	}

	err := r.DB.QueryRowContext(ctxTimeout, disposalSQL,
		d.StockID, d.BatchID, d.BusID, quantity, d.Method, d.Reason, d.DisposedBy, d.DisposedAt,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir baixa no DB.", err)
		return domain.Disposal{}, errors.NewDBError("Falha ao registrar baixa", err)
	}

	r.logger.Info("Baixa registrada com sucesso.", map[string]interface{}{"id": d.ID, "method": string(d.Method)})
	return d, nil
}

// FindAll lista as baixas registradas, da mais recente para a mais antiga.
func (r *DisposalRepository) FindAll(ctx context.Context) ([]domain.Disposal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, stock_id, batch_id, bus_id, quantity, method, reason, disposed_by, disposed_at, created_at
        FROM disposals
        ORDER BY disposed_at DESC, id DESC`)
	if err != nil {
		r.logger.Error("Falha ao listar baixas no DB.", err)
		return nil, errors.NewDBError("Falha ao listar baixas", err)
	}
	defer rows.Close()

	var disposals []domain.Disposal
	for rows.Next() {
		var (
			d        domain.Disposal
			quantity decimal.NullDecimal
		)
		err := rows.Scan(
			&d.ID, &d.StockID, &d.BatchID, &d.BusID, &quantity,
			&d.Method, &d.Reason, &d.DisposedBy, &d.DisposedAt, &d.CreatedAt,
		)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear baixa", err)
		}
		if quantity.Valid {
			q := quantity.Decimal
			d.Quantity = &q
		}
		disposals = append(disposals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar baixas", err)
	}

	return disposals, nil
}
