//go:build integration

package stockrepo_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/cache"
	"frotastock/internal/pkg/database"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/repository/stockrepo"
)

// noopCache satisfaz cache.Client sem um Redis de verdade: todo Get é um miss.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (string, error) { return "", cache.ErrCacheMiss }
func (noopCache) GetInt(ctx context.Context, key string) (int, error) { return 0, cache.ErrCacheMiss }
func (noopCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (noopCache) Incr(ctx context.Context, key string) error   { return nil }
func (noopCache) Delete(ctx context.Context, key string) error { return nil }

// Requer um PostgreSQL com as migrações aplicadas, apontado por
// TEST_DATABASE_URL. Roda com: go test -tags integration ./internal/repository/stockrepo/
func setupStock(t *testing.T, initialQty decimal.Decimal) (*stockrepo.StockRepository, int64, func()) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL não definida; pulando teste de integração.")
	}

	db, err := database.NewPostgresDB(dsn)
	require.NoError(t, err)

	log := logger.NewLogger("debug")
	repo := stockrepo.NewStockRepository(db, noopCache{}, 5*time.Second, time.Minute, log)

	ctx := context.Background()

	var categoryID, unitID int64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE category_name = 'Consumable'`).Scan(&categoryID))
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT id FROM unit_measures WHERE unit_code = 'PC'`).Scan(&unitID))

	itemCode := "TST-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])

	var itemID int64
	require.NoError(t, db.QueryRowContext(ctx, `
        INSERT INTO items (item_code, item_name, category_id, unit_id, status)
        VALUES ($1, 'Item de teste de concorrência', $2, $3, 'ACTIVE')
        RETURNING id`, itemCode, categoryID, unitID).Scan(&itemID))

	var stockID int64
	require.NoError(t, db.QueryRowContext(ctx, `
        INSERT INTO stocks (item_code, current_stock, reorder_level, status, created_by)
        VALUES ($1, $2, 10, 'AVAILABLE', 'test')
        RETURNING id`, itemCode, initialQty).Scan(&stockID))

	_, err = db.ExecContext(ctx, `
        INSERT INTO batches (stock_id, batch_number, quantity, received_date, created_by)
        VALUES ($1, 'LOT-TEST', $2, now(), 'test')`, stockID, initialQty)
	require.NoError(t, err)

	cleanup := func() {
		db.ExecContext(ctx, `DELETE FROM batches WHERE stock_id = $1`, stockID)
		db.ExecContext(ctx, `DELETE FROM stocks WHERE id = $1`, stockID)
		db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
		db.Close()
	}
	return repo, stockID, cleanup
}

// Duas deduções de 60 sobre um estoque de 100: o FOR UPDATE serializa as
// transações e a segunda encontra apenas 40 disponíveis. Exatamente uma vence.
func TestDeduct_ConcurrentDeductions_ExactlyOneSucceeds(t *testing.T) {
	repo, stockID, cleanup := setupStock(t, decimal.NewFromInt(100))
	defer cleanup()

	qty := decimal.NewFromInt(60)
	results := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := repo.Deduct(context.Background(), stockID, qty, "test")
			results[slot] = err
		}(i)
	}
	wg.Wait()

	successes, insufficiencies := 0, 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var insErr *apperror.InsufficientStockError
		if assert.ErrorAs(t, err, &insErr) {
			insufficiencies++
			assert.True(t, insErr.Available.Equal(decimal.NewFromInt(40)))
			assert.True(t, insErr.Requested.Equal(qty))
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, insufficiencies)

	// O vencedor deixou o agregado consistente com os lotes.
	sw, err := repo.FindByID(context.Background(), stockID)
	require.NoError(t, err)
	assert.True(t, sw.Stock.CurrentStock.Equal(decimal.NewFromInt(40)))
	assert.True(t, domain.SumActiveBatches(sw.Batches).Equal(decimal.NewFromInt(40)))
}

func TestDeduct_FullDepletion_SetsOutOfStock(t *testing.T) {
	repo, stockID, cleanup := setupStock(t, decimal.NewFromInt(20))
	defer cleanup()

	result, err := repo.Deduct(context.Background(), stockID, decimal.NewFromInt(20), "test")

	require.NoError(t, err)
	assert.True(t, result.NewCurrentStock.IsZero())
	assert.Equal(t, domain.StatusOutOfStock, result.NewStatus)
}
