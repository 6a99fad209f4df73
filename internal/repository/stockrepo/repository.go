package stockrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"frotastock/internal/domain"
	"frotastock/internal/errors"
	"frotastock/internal/pkg/cache"
	"frotastock/internal/pkg/logger"
)

// StockRepository é a camada de persistência do agregado Stock e de seu livro
// de lotes (batches). Toda mutação de lote re-agrega o estoque pai DENTRO da
// mesma transação: current_stock nunca fica visível desatualizado fora dela.
type StockRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Chave de cache do detalhe de estoque.
const stockCacheKey = "stock:%d"

// colunas do SELECT de estoque com item/categoria/unidade.
const stockSelectColumns = `
        s.id, s.item_code, s.current_stock, s.reorder_level, s.status, s.version,
        COALESCE(s.created_by, ''), COALESCE(s.updated_by, ''), s.created_at, s.updated_at,
        i.id, i.item_name, c.category_name, COALESCE(u.unit_name, ''), COALESCE(u.abbreviation, '')`

const stockFromClause = `
        FROM stocks s
        JOIN items i ON i.item_code = s.item_code AND i.is_deleted = FALSE
        JOIN categories c ON c.id = i.category_id
        LEFT JOIN unit_measures u ON u.id = i.unit_id`

// scanStockRow mapeia uma linha do SELECT padrão para domain.StockWithItem.
func scanStockRow(scanner interface{ Scan(...interface{}) error }) (domain.StockWithItem, error) {
	var sw domain.StockWithItem
	err := scanner.Scan(
		&sw.Stock.ID, &sw.Stock.ItemCode, &sw.Stock.CurrentStock, &sw.Stock.ReorderLevel,
		&sw.Stock.Status, &sw.Stock.Version, &sw.Stock.CreatedBy, &sw.Stock.UpdatedBy,
		&sw.Stock.CreatedAt, &sw.Stock.UpdatedAt,
		&sw.ItemID, &sw.ItemName, &sw.CategoryName, &sw.UnitName, &sw.UnitAbbrev,
	)
	return sw, err
}

// FindAllWithBatches retorna os estoques candidatos à listagem, com os filtros
// que PODEM ser resolvidos no banco (busca textual, categoria, datas, faixa de
// quantidade). O filtro por STATUS fica deliberadamente de fora: o status
// correto é o computado, e é aplicado em memória pelo serviço (ver stockservice).
func (r *StockRepository) FindAllWithBatches(ctx context.Context, f domain.StockListFilter) ([]domain.StockWithItem, error) {
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

	conditions = append(conditions, "s.is_deleted = FALSE")

	if f.Search != "" {
		p := addArg("%" + f.Search + "%")
		conditions = append(conditions, fmt.Sprintf(`(
            i.item_name ILIKE %[1]s OR i.item_code ILIKE %[1]s OR c.category_name ILIKE %[1]s
            OR EXISTS (
                SELECT 1 FROM supplier_items si
                JOIN suppliers sup ON sup.id = si.supplier_id AND sup.is_deleted = FALSE
                WHERE si.item_id = i.id AND si.is_deleted = FALSE AND sup.supplier_name ILIKE %[1]s
            ))`, p))
	}
	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category_name ILIKE %s", addArg("%"+f.Category+"%")))
	}
	if f.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.created_at >= %s", addArg(*f.FromDate)))
	}
	if f.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.created_at <= %s", addArg(*f.ToDate)))
	}
	if f.MinQty != nil {
		conditions = append(conditions, fmt.Sprintf("s.current_stock >= %s", addArg(*f.MinQty)))
	}
	if f.MaxQty != nil {
		conditions = append(conditions, fmt.Sprintf("s.current_stock <= %s", addArg(*f.MaxQty)))
	}

	query := "SELECT" + stockSelectColumns + stockFromClause +
		" WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY s.created_at DESC"

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar estoques no DB.", err)
		return nil, errors.NewDBError("Falha ao listar estoques", err)
	}
	defer rows.Close()

	var stocks []domain.StockWithItem
	var ids []int64
	for rows.Next() {
		sw, err := scanStockRow(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear estoque", err)
		}
		stocks = append(stocks, sw)
		ids = append(ids, sw.Stock.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar estoques", err)
	}

	if len(stocks) == 0 {
		return stocks, nil
	}

	// Carrega os lotes ativos de todos os estoques em uma única consulta.
	batchesByStock, err := r.loadBatches(ctxTimeout, ids)
	if err != nil {
		return nil, err
	}
	for i := range stocks {
		stocks[i].Batches = batchesByStock[stocks[i].Stock.ID]
	}

	return stocks, nil
}

// loadBatches busca os lotes não deletados dos estoques informados.
func (r *StockRepository) loadBatches(ctx context.Context, stockIDs []int64) (map[int64][]domain.Batch, error) {
	query := `
        SELECT id, stock_id, COALESCE(batch_number, ''), quantity, received_date, expiration_date,
               COALESCE(remarks, ''), COALESCE(created_by, ''), COALESCE(updated_by, ''), created_at, updated_at
        FROM batches
        WHERE is_deleted = FALSE AND stock_id = ANY($1)
        ORDER BY received_date DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(stockIDs))
	if err != nil {
		r.logger.Error("Falha ao carregar lotes no DB.", err)
		return nil, errors.NewDBError("Falha ao carregar lotes", err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.Batch, len(stockIDs))
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(
			&b.ID, &b.StockID, &b.BatchNumber, &b.Quantity, &b.ReceivedDate, &b.ExpirationDate,
			&b.Remarks, &b.CreatedBy, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, errors.NewDBError("Falha ao mapear lote", err)
		}
		result[b.StockID] = append(result[b.StockID], b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar lotes", err)
	}
	return result, nil
}

// FindByID busca um estoque com item e lotes ativos, usando cache-aside:
// tenta o Redis primeiro, cai para o DB e repovoa o cache com TTL.
func (r *StockRepository) FindByID(ctx context.Context, id int64) (domain.StockWithItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(stockCacheKey, id)

	// 1. Tentar obter do Cache (Redis)
	if cachedData, err := r.Cache.Get(ctxTimeout, key); err == nil {
		var sw domain.StockWithItem
		if json.Unmarshal([]byte(cachedData), &sw) == nil {
			return sw, nil
		}
		// Payload corrompido: segue para o DB e sobrescreve.
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler do cache Redis; seguindo para o DB.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados
	query := "SELECT" + stockSelectColumns + stockFromClause +
		" WHERE s.id = $1 AND s.is_deleted = FALSE"

	sw, err := scanStockRow(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.StockWithItem{}, errors.NewNotFoundError(fmt.Sprintf("Estoque com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar estoque no DB.", err)
		return domain.StockWithItem{}, errors.NewDBError("Falha ao buscar estoque", err)
	}

	batchesByStock, err := r.loadBatches(ctxTimeout, []int64{id})
	if err != nil {
		return domain.StockWithItem{}, err
	}
	sw.Batches = batchesByStock[id]

	// 3. Repovoar o cache para futuras requisições.
	if payload, marshalErr := json.Marshal(sw); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, payload, r.CacheTTL)
	}

	return sw, nil
}

// invalidate remove o detalhe do estoque do cache após qualquer mutação.
func (r *StockRepository) invalidate(ctx context.Context, stockID int64) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(stockCacheKey, stockID)); err != nil {
		r.logger.Warn("Falha ao invalidar cache de estoque.", map[string]interface{}{"stock_id": stockID, "error": err.Error()})
	}
}

// CreateStock insere um novo estoque e seus lotes iniciais em uma transação,
// re-agregando o total ao final. Retorna o ID do estoque criado.
func (r *StockRepository) CreateStock(ctx context.Context, stock domain.Stock, batches []domain.BatchInput, actor string) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return 0, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const stockSQL = `
        INSERT INTO stocks (item_code, current_stock, reorder_level, status, version, created_by, created_at, updated_at)
        VALUES ($1, 0, $2, $3, 1, $4, now(), now())
        RETURNING id`

	var stockID int64
	err = tx.QueryRowContext(ctxTimeout, stockSQL,
		stock.ItemCode, stock.ReorderLevel, domain.StatusAvailable, actor,
	).Scan(&stockID)
	if err != nil {
		r.logger.Error("Falha ao inserir estoque no DB.", err)
		return 0, errors.NewDBError("Falha ao criar estoque", err)
	}

	for _, b := range batches {
		if err = r.insertBatchTx(ctxTimeout, tx, stockID, b, actor); err != nil {
			return 0, err
		}
	}

	if _, _, err = r.reaggregateTx(ctxTimeout, tx, stockID, actor); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.NewDBError("Falha ao commitar transação de criação de estoque", err)
	}

	r.logger.Info("Estoque criado com sucesso.", map[string]interface{}{"stock_id": stockID, "item_code": stock.ItemCode})
	return stockID, nil
}

// insertBatchTx insere um lote dentro da transação corrente.
func (r *StockRepository) insertBatchTx(ctx context.Context, tx *sql.Tx, stockID int64, b domain.BatchInput, actor string) error {
	received := time.Now().UTC()
	if b.ReceivedDate != nil {
		received = *b.ReceivedDate
	}

	const batchSQL = `
        INSERT INTO batches (stock_id, batch_number, quantity, received_date, expiration_date, remarks, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`

	if _, err := tx.ExecContext(ctx, batchSQL,
		stockID, b.BatchNumber, b.Quantity, received, b.ExpirationDate, nullableString(b.Remarks), actor,
	); err != nil {
		r.logger.Error("Falha ao inserir lote no DB.", err)
		return errors.NewDBError("Falha ao criar lote", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// UpdateStock aplica um patch parcial ao estoque e/ou aos seus lotes
// (atualização dos existentes por ID, criação dos novos), re-agregando ao final.
func (r *StockRepository) UpdateStock(ctx context.Context, id int64, patch domain.UpdateStockInput, actor string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// Bloqueia a linha do estoque durante toda a atualização.
	var exists int64
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT id FROM stocks WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		err = errors.NewNotFoundError(fmt.Sprintf("Estoque com ID %d não existe na base de dados.", id))
		return err
	}
	if err != nil {
		return errors.NewDBError("Falha ao bloquear estoque para atualização", err)
	}

	if patch.ReorderLevel != nil {
		if _, err = tx.ExecContext(ctxTimeout,
			`UPDATE stocks SET reorder_level = $1 WHERE id = $2`, *patch.ReorderLevel, id); err != nil {
			return errors.NewDBError("Falha ao atualizar nível de reposição", err)
		}
	}
	if patch.Status != nil {
		if _, err = tx.ExecContext(ctxTimeout,
			`UPDATE stocks SET status = $1 WHERE id = $2`, *patch.Status, id); err != nil {
			return errors.NewDBError("Falha ao atualizar status do estoque", err)
		}
	}

	for _, b := range patch.Batches {
		if b.ID != nil {
			err = r.updateBatchTx(ctxTimeout, tx, id, *b.ID, b, actor)
		} else {
			err = r.insertBatchTx(ctxTimeout, tx, id, b, actor)
		}
		if err != nil {
			return err
		}
	}

	if _, _, err = r.reaggregateTx(ctxTimeout, tx, id, actor); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação de atualização de estoque", err)
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Estoque atualizado com sucesso.", map[string]interface{}{"stock_id": id})
	return nil
}

// updateBatchTx atualiza um lote existente, validando que ele pertence ao estoque.
func (r *StockRepository) updateBatchTx(ctx context.Context, tx *sql.Tx, stockID, batchID int64, b domain.BatchInput, actor string) error {
	const batchSQL = `
        UPDATE batches
        SET batch_number = $1, quantity = $2, expiration_date = $3,
            received_date = COALESCE($4, received_date),
            remarks = $5, updated_by = $6, updated_at = now()
        WHERE id = $7 AND stock_id = $8 AND is_deleted = FALSE`

	result, err := tx.ExecContext(ctx, batchSQL,
		b.BatchNumber, b.Quantity, b.ExpirationDate, b.ReceivedDate, nullableString(b.Remarks), actor, batchID, stockID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar lote no DB.", err)
		return errors.NewDBError("Falha ao atualizar lote", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Lote %d não encontrado no estoque %d.", batchID, stockID))
	}
	return nil
}

// SoftDeleteBatch marca um lote como deletado (sem alterar a quantidade
// registrada) e re-agrega o estoque pai na mesma transação.
func (r *StockRepository) SoftDeleteBatch(ctx context.Context, stockID, batchID int64, actor string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const deleteSQL = `
        UPDATE batches
        SET is_deleted = TRUE, deleted_by = $1, deleted_at = now()
        WHERE id = $2 AND stock_id = $3 AND is_deleted = FALSE`

	result, err := tx.ExecContext(ctxTimeout, deleteSQL, actor, batchID, stockID)
	if err != nil {
		return errors.NewDBError("Falha ao deletar lote", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		err = errors.NewNotFoundError(fmt.Sprintf("Lote %d não encontrado no estoque %d.", batchID, stockID))
		return err
	}

	if _, _, err = r.reaggregateTx(ctxTimeout, tx, stockID, actor); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação de remoção de lote", err)
	}

	r.invalidate(ctxTimeout, stockID)
	r.logger.Info("Lote removido (soft-delete) e estoque re-agregado.", map[string]interface{}{"stock_id": stockID, "batch_id": batchID})
	return nil
}

// SoftDeleteStock marca o estoque como deletado.
func (r *StockRepository) SoftDeleteStock(ctx context.Context, id int64, actor string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE stocks
        SET is_deleted = TRUE, deleted_by = $1, deleted_at = now()
        WHERE id = $2 AND is_deleted = FALSE`, actor, id)
	if err != nil {
		return errors.NewDBError("Falha ao deletar estoque", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Estoque com ID %d não existe na base de dados.", id))
	}

	r.invalidate(ctxTimeout, id)
	return nil
}

// stockLockRow é o snapshot do estoque lido sob FOR UPDATE durante a dedução.
type stockLockRow struct {
	currentStock decimal.Decimal
	reorderLevel decimal.Decimal
	status       domain.StockStatus
	version      int
	categoryName string
}

// Deduct executa a dedução de quantityToDeduct sobre os lotes do estoque, em
// ordem de validade mais próxima primeiro (FEFO) com desempate FIFO.
//
// Toda a operação acontece em UMA transação: a linha do estoque é bloqueada com
// SELECT ... FOR UPDATE (serializa deduções concorrentes sobre o mesmo estoque)
// e a escrita final ainda checa a coluna version (OCC) como segunda barreira.
// Qualquer falha desfaz tudo — nenhum lote fica parcialmente decrementado.
func (r *StockRepository) Deduct(ctx context.Context, stockID int64, quantityToDeduct decimal.Decimal, actor string) (domain.DeductionResult, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.DeductionResult{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// 1. Bloquear a linha do estoque; deduções concorrentes esperam aqui.
	var lock stockLockRow
	err = tx.QueryRowContext(ctxTimeout, `
        SELECT s.current_stock, s.reorder_level, s.status, s.version, c.category_name
        FROM stocks s
        JOIN items i ON i.item_code = s.item_code
        JOIN categories c ON c.id = i.category_id
        WHERE s.id = $1 AND s.is_deleted = FALSE
        FOR UPDATE OF s`, stockID,
	).Scan(&lock.currentStock, &lock.reorderLevel, &lock.status, &lock.version, &lock.categoryName)
	if err == sql.ErrNoRows {
		err = errors.NewNotFoundError(fmt.Sprintf("Estoque com ID %d não existe na base de dados.", stockID))
		return domain.DeductionResult{}, err
	}
	if err != nil {
		return domain.DeductionResult{}, errors.NewDBError("Falha ao bloquear estoque para dedução", err)
	}

	// 2. Carregar TODOS os lotes ativos sob lock (os de quantidade zero também:
	// eles não participam da dedução, mas contam para a regra de EXPIRED).
	batches, err := r.loadBatchesForUpdate(ctxTimeout, tx, stockID)
	if err != nil {
		return domain.DeductionResult{}, err
	}

	hasActive := false
	for _, b := range batches {
		if b.Quantity.IsPositive() {
			hasActive = true
			break
		}
	}
	if !hasActive {
		err = errors.NewInsufficientStockError(
			fmt.Sprintf("Nenhum lote ativo disponível para o estoque STK-%05d.", stockID),
			decimal.Zero, quantityToDeduct)
		return domain.DeductionResult{}, err
	}

	// 3. Planejar a dedução em memória (pré-condição de suficiência inclusa).
	plan, err := domain.PlanDeduction(batches, quantityToDeduct)
	if err != nil {
		return domain.DeductionResult{}, err
	}

	// 4. Aplicar os decrementos planejados, lote a lote.
	for _, entry := range plan.Entries {
		if _, err = tx.ExecContext(ctxTimeout, `
            UPDATE batches SET quantity = $1, updated_by = $2, updated_at = now()
            WHERE id = $3`, entry.RemainingQuantity, actor, entry.BatchID); err != nil {
			r.logger.Error("Falha ao decrementar lote durante dedução.", err)
			return domain.DeductionResult{}, errors.NewDBError("Falha ao decrementar lote", err)
		}
	}

	// 5. Recalcular agregado e status com os lotes já decrementados.
	updated := applyPlan(batches, plan)
	newTotal := domain.SumActiveBatches(updated)
	newStatus := domain.ComputeStatus(newTotal, lock.reorderLevel,
		domain.IsConsumableCategory(lock.categoryName), lock.status, updated, time.Now())

	// 6. Escrever o agregado com checagem de versão (OCC como segunda barreira
	// além do FOR UPDATE).
	result, err := tx.ExecContext(ctxTimeout, `
        UPDATE stocks
        SET current_stock = $1, status = $2, version = $3, updated_by = $4, updated_at = now()
        WHERE id = $5 AND version = $6`,
		newTotal, newStatus, lock.version+1, actor, stockID, lock.version)
	if err != nil {
		return domain.DeductionResult{}, errors.NewDBError("Falha ao atualizar agregado do estoque", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.DeductionResult{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		err = errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
		return domain.DeductionResult{}, err
	}

	// 7. Commitar: ou tudo, ou nada.
	if err = tx.Commit(); err != nil {
		return domain.DeductionResult{}, errors.NewDBError("Falha ao commitar transação de dedução", err)
	}

	r.invalidate(ctxTimeout, stockID)
	r.logger.Info("Dedução concluída com sucesso.", map[string]interface{}{
		"stock_id":      stockID,
		"deducted":      quantityToDeduct.String(),
		"batches_used":  len(plan.Entries),
		"new_total":     newTotal.String(),
		"new_status":    string(newStatus),
	})

	return domain.DeductionResult{
		StockID:         stockID,
		DeductedBatches: plan.Entries,
		TotalDeducted:   quantityToDeduct,
		NewCurrentStock: newTotal,
		NewStatus:       newStatus,
		Success:         true,
		Message:         fmt.Sprintf("Deduzido %s de %d lote(s).", quantityToDeduct, len(plan.Entries)),
	}, nil
}

// loadBatchesForUpdate carrega os lotes não deletados do estoque com lock de linha.
func (r *StockRepository) loadBatchesForUpdate(ctx context.Context, tx *sql.Tx, stockID int64) ([]domain.Batch, error) {
	rows, err := tx.QueryContext(ctx, `
        SELECT id, stock_id, COALESCE(batch_number, ''), quantity, received_date, expiration_date
        FROM batches
        WHERE stock_id = $1 AND is_deleted = FALSE
        FOR UPDATE`, stockID)
	if err != nil {
		return nil, errors.NewDBError("Falha ao bloquear lotes para dedução", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.StockID, &b.BatchNumber, &b.Quantity, &b.ReceivedDate, &b.ExpirationDate); err != nil {
			return nil, errors.NewDBError("Falha ao mapear lote", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar lotes", err)
	}
	return batches, nil
}

// applyPlan devolve uma cópia dos lotes com as quantidades pós-dedução,
// para o cômputo de status refletir o estado que será commitado.
func applyPlan(batches []domain.Batch, plan domain.DeductionPlan) []domain.Batch {
	remaining := make(map[int64]decimal.Decimal, len(plan.Entries))
	for _, e := range plan.Entries {
		remaining[e.BatchID] = e.RemainingQuantity
	}
	updated := make([]domain.Batch, len(batches))
	copy(updated, batches)
	for i := range updated {
		if q, ok := remaining[updated[i].ID]; ok {
			updated[i].Quantity = q
		}
	}
	return updated
}

// reaggregateTx recomputa current_stock como a soma dos lotes ativos e deriva o
// status pelas regras, persistindo ambos. É o ÚNICO escritor de current_stock
// fora da dedução, e roda sempre dentro da transação da mutação que o disparou.
func (r *StockRepository) reaggregateTx(ctx context.Context, tx *sql.Tx, stockID int64, actor string) (decimal.Decimal, domain.StockStatus, error) {
	var (
		reorderLevel decimal.Decimal
		storedStatus domain.StockStatus
		version      int
		categoryName string
	)
	err := tx.QueryRowContext(ctx, `
        SELECT s.reorder_level, s.status, s.version, c.category_name
        FROM stocks s
        JOIN items i ON i.item_code = s.item_code
        JOIN categories c ON c.id = i.category_id
        WHERE s.id = $1 AND s.is_deleted = FALSE
        FOR UPDATE OF s`, stockID,
	).Scan(&reorderLevel, &storedStatus, &version, &categoryName)
	if err == sql.ErrNoRows {
		return decimal.Zero, "", errors.NewNotFoundError(fmt.Sprintf("Estoque com ID %d não existe na base de dados.", stockID))
	}
	if err != nil {
		return decimal.Zero, "", errors.NewDBError("Falha ao carregar estoque para re-agregação", err)
	}

	batches, err := r.loadBatchesForUpdate(ctx, tx, stockID)
	if err != nil {
		return decimal.Zero, "", err
	}

	total := domain.SumActiveBatches(batches)
	status := domain.ComputeStatus(total, reorderLevel,
		domain.IsConsumableCategory(categoryName), storedStatus, batches, time.Now())

	result, err := tx.ExecContext(ctx, `
        UPDATE stocks
        SET current_stock = $1, status = $2, version = $3, updated_by = $4, updated_at = now()
        WHERE id = $5 AND version = $6`,
		total, status, version+1, actor, stockID, version)
	if err != nil {
		return decimal.Zero, "", errors.NewDBError("Falha ao re-agregar estoque", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return decimal.Zero, "", errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return decimal.Zero, "", errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	return total, status, nil
}

// GetConsumableBatches lista os lotes ativos de estoques consumíveis com status
// AVAILABLE ou LOW_STOCK, para as telas de requisição de material.
func (r *StockRepository) GetConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	return r.getBatchSummaries(ctx, `
        WHERE b.is_deleted = FALSE AND s.is_deleted = FALSE
          AND s.status IN ('AVAILABLE', 'LOW_STOCK')
          AND c.category_name = $1`, domain.CategoryConsumable)
}

// GetNonConsumableBatches lista os lotes ativos de estoques não-consumíveis
// (equipamentos/ativos) com status AVAILABLE.
func (r *StockRepository) GetNonConsumableBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	return r.getBatchSummaries(ctx, `
        WHERE b.is_deleted = FALSE AND s.is_deleted = FALSE
          AND s.status = 'AVAILABLE'
          AND c.category_name <> $1`, domain.CategoryConsumable)
}

func (r *StockRepository) getBatchSummaries(ctx context.Context, whereClause string, args ...interface{}) ([]domain.BatchSummary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT COALESCE(b.batch_number, ''), b.quantity, b.stock_id,
               s.id, i.item_code, i.item_name, COALESCE(u.unit_name, ''), COALESCE(u.abbreviation, '')
        FROM batches b
        JOIN stocks s ON s.id = b.stock_id
        JOIN items i ON i.item_code = s.item_code
        JOIN categories c ON c.id = i.category_id
        LEFT JOIN unit_measures u ON u.id = i.unit_id` +
		whereClause +
		` ORDER BY b.batch_number ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar lotes por categoria no DB.", err)
		return nil, errors.NewDBError("Falha ao listar lotes", err)
	}
	defer rows.Close()

	var summaries []domain.BatchSummary
	for rows.Next() {
		var s domain.BatchSummary
		if err := rows.Scan(
			&s.BatchNumber, &s.Quantity, &s.StockID,
			&s.Stock.ID, &s.Stock.ItemCode, &s.Stock.ItemName, &s.Stock.UnitName, &s.Stock.Abbreviation,
		); err != nil {
			return nil, errors.NewDBError("Falha ao mapear lote", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar lotes", err)
	}
	return summaries, nil
}
