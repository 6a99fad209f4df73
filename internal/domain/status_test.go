package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"frotastock/internal/domain"
)

var statusNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func datePtr(t time.Time) *time.Time { return &t }

// --- Regra de quantidade para consumíveis ---

func TestComputeStatus_Consumable_OutOfStock(t *testing.T) {
	status := domain.ComputeStatus(dec("0"), dec("10"), true, domain.StatusAvailable, nil, statusNow)
	assert.Equal(t, domain.StatusOutOfStock, status)
}

func TestComputeStatus_Consumable_LowStock(t *testing.T) {
	status := domain.ComputeStatus(dec("5"), dec("10"), true, "", nil, statusNow)
	assert.Equal(t, domain.StatusLowStock, status)
}

func TestComputeStatus_Consumable_Available(t *testing.T) {
	status := domain.ComputeStatus(dec("15"), dec("10"), true, "", nil, statusNow)
	assert.Equal(t, domain.StatusAvailable, status)
}

func TestComputeStatus_Consumable_ExactlyAtReorderLevel(t *testing.T) {
	// Quantidade igual ao nível de reposição não é LOW_STOCK (a regra é "menor que").
	status := domain.ComputeStatus(dec("10"), dec("10"), true, "", nil, statusNow)
	assert.Equal(t, domain.StatusAvailable, status)
}

func TestComputeStatus_Consumable_IgnoresStoredStatus(t *testing.T) {
	// Para consumíveis, o status armazenado nunca prevalece sobre a contagem.
	status := domain.ComputeStatus(dec("15"), dec("10"), true, domain.StatusUnderMaintenance, nil, statusNow)
	assert.Equal(t, domain.StatusAvailable, status)
}

// --- Regra de EXPIRED ---

func TestComputeStatus_Expired_OverridesEverything(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("50"), ExpirationDate: datePtr(statusNow.Add(-24 * time.Hour))},
	}
	status := domain.ComputeStatus(dec("50"), dec("10"), true, domain.StatusAvailable, batches, statusNow)
	assert.Equal(t, domain.StatusExpired, status)
}

func TestComputeStatus_Expired_ConsidersZeroQuantityBatches(t *testing.T) {
	// Um lote vencido com quantidade zero ainda expira o estoque.
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("0"), ExpirationDate: datePtr(statusNow.Add(-time.Hour))},
		{ID: 2, Quantity: dec("30"), ExpirationDate: nil},
	}
	status := domain.ComputeStatus(dec("30"), dec("10"), true, "", batches, statusNow)
	assert.Equal(t, domain.StatusExpired, status)
}

func TestComputeStatus_Expired_IgnoresDeletedBatches(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("5"), ExpirationDate: datePtr(statusNow.Add(-time.Hour)), IsDeleted: true},
	}
	status := domain.ComputeStatus(dec("20"), dec("10"), true, "", batches, statusNow)
	assert.Equal(t, domain.StatusAvailable, status)
}

func TestComputeStatus_FutureExpiration_NotExpired(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("20"), ExpirationDate: datePtr(statusNow.Add(48 * time.Hour))},
	}
	status := domain.ComputeStatus(dec("20"), dec("10"), true, "", batches, statusNow)
	assert.Equal(t, domain.StatusAvailable, status)
}

// --- Status armazenado para não-consumíveis ---

func TestComputeStatus_NonConsumable_StoredStatusWins(t *testing.T) {
	status := domain.ComputeStatus(dec("3"), dec("1"), false, domain.StatusUnderMaintenance, nil, statusNow)
	assert.Equal(t, domain.StatusUnderMaintenance, status)
}

func TestComputeStatus_NonConsumable_InactiveFallsThroughToQuantity(t *testing.T) {
	status := domain.ComputeStatus(dec("3"), dec("1"), false, domain.StatusInactive, nil, statusNow)
	assert.Equal(t, domain.StatusAvailable, status)

	status = domain.ComputeStatus(dec("0"), dec("1"), false, domain.StatusInactive, nil, statusNow)
	assert.Equal(t, domain.StatusOutOfStock, status)
}

func TestComputeStatus_NonConsumable_EmptyStoredStatus_QuantityFallback(t *testing.T) {
	status := domain.ComputeStatus(dec("0"), dec("0"), false, "", nil, statusNow)
	assert.Equal(t, domain.StatusOutOfStock, status)
}

// --- SumActiveBatches ---

func TestSumActiveBatches_SkipsDeleted(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("10.5")},
		{ID: 2, Quantity: dec("4.5"), IsDeleted: true},
		{ID: 3, Quantity: dec("2")},
	}
	assert.True(t, dec("12.5").Equal(domain.SumActiveBatches(batches)))
}

func TestIsConsumableCategory_CaseInsensitive(t *testing.T) {
	assert.True(t, domain.IsConsumableCategory("Consumable"))
	assert.True(t, domain.IsConsumableCategory("CONSUMABLE"))
	assert.True(t, domain.IsConsumableCategory("consumable"))
	assert.False(t, domain.IsConsumableCategory("Equipment"))
}
