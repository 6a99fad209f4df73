package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// --- Ordenação de consumo ---

func TestSortBatchesForDeduction_NearestExpirationFirst_NullsLast(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, ExpirationDate: nil},
		{ID: 2, ExpirationDate: datePtr(day(2025, 3, 1))},
		{ID: 3, ExpirationDate: datePtr(day(2025, 1, 15))},
	}

	domain.SortBatchesForDeduction(batches)

	assert.Equal(t, int64(3), batches[0].ID)
	assert.Equal(t, int64(2), batches[1].ID)
	assert.Equal(t, int64(1), batches[2].ID) // sem validade, consumido por último
}

func TestSortBatchesForDeduction_FIFOTieBreak(t *testing.T) {
	exp := day(2025, 3, 1)
	batches := []domain.Batch{
		{ID: 1, ExpirationDate: &exp, ReceivedDate: day(2025, 2, 10)},
		{ID: 2, ExpirationDate: &exp, ReceivedDate: day(2025, 1, 5)},
	}

	domain.SortBatchesForDeduction(batches)

	// Mesma validade: o recebido primeiro sai primeiro.
	assert.Equal(t, int64(2), batches[0].ID)
	assert.Equal(t, int64(1), batches[1].ID)
}

func TestSortBatchesForDeduction_IDTieBreak(t *testing.T) {
	received := day(2025, 1, 5)
	batches := []domain.Batch{
		{ID: 7, ReceivedDate: received},
		{ID: 3, ReceivedDate: received},
	}

	domain.SortBatchesForDeduction(batches)

	assert.Equal(t, int64(3), batches[0].ID)
}

// --- Planejamento da dedução ---

func TestPlanDeduction_SpansMultipleBatches(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, BatchNumber: "LOT-A", Quantity: dec("5"), ExpirationDate: datePtr(day(2024, 1, 1))},
		{ID: 2, BatchNumber: "LOT-B", Quantity: dec("5"), ExpirationDate: datePtr(day(2024, 2, 1))},
		{ID: 3, BatchNumber: "LOT-C", Quantity: dec("10"), ExpirationDate: nil},
	}

	plan, err := domain.PlanDeduction(batches, dec("8"))

	assert.NoError(t, err)
	assert.Len(t, plan.Entries, 2)

	// Lote de validade mais próxima esvaziado por inteiro.
	assert.Equal(t, int64(1), plan.Entries[0].BatchID)
	assert.True(t, dec("5").Equal(plan.Entries[0].DeductedQuantity))
	assert.True(t, plan.Entries[0].RemainingQuantity.IsZero())

	// Os 3 restantes saem do segundo lote; o lote sem validade fica intocado.
	assert.Equal(t, int64(2), plan.Entries[1].BatchID)
	assert.True(t, dec("3").Equal(plan.Entries[1].DeductedQuantity))
	assert.True(t, dec("2").Equal(plan.Entries[1].RemainingQuantity))

	assert.True(t, dec("20").Equal(plan.TotalAvailable))
}

func TestPlanDeduction_ExactDepletion(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("12")},
		{ID: 2, Quantity: dec("8")},
	}

	plan, err := domain.PlanDeduction(batches, dec("20"))

	assert.NoError(t, err)
	assert.Len(t, plan.Entries, 2)
	assert.True(t, plan.Entries[0].RemainingQuantity.IsZero())
	assert.True(t, plan.Entries[1].RemainingQuantity.IsZero())
}

func TestPlanDeduction_Fail_InsufficientStock(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("3")},
		{ID: 2, Quantity: dec("4")},
	}

	_, err := domain.PlanDeduction(batches, dec("10"))

	assert.Error(t, err)
	var insufficientErr *apperror.InsufficientStockError
	assert.ErrorAs(t, err, &insufficientErr)
	assert.True(t, dec("7").Equal(insufficientErr.Available))
	assert.True(t, dec("10").Equal(insufficientErr.Requested))
	assert.Contains(t, err.Error(), "Available: 7, Requested: 10")
}

func TestPlanDeduction_Fail_NoActiveBatches(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("5"), IsDeleted: true},
		{ID: 2, Quantity: dec("0")},
	}

	_, err := domain.PlanDeduction(batches, dec("1"))

	assert.Error(t, err)
	var insufficientErr *apperror.InsufficientStockError
	assert.ErrorAs(t, err, &insufficientErr)
	assert.True(t, insufficientErr.Available.IsZero())
}

func TestPlanDeduction_Fail_NonPositiveQuantity(t *testing.T) {
	batches := []domain.Batch{{ID: 1, Quantity: dec("5")}}

	_, err := domain.PlanDeduction(batches, dec("0"))
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = domain.PlanDeduction(batches, dec("-2"))
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestPlanDeduction_SkipsDeletedAndEmptyBatches(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("5"), ExpirationDate: datePtr(day(2024, 1, 1)), IsDeleted: true},
		{ID: 2, Quantity: dec("0"), ExpirationDate: datePtr(day(2024, 1, 2))},
		{ID: 3, Quantity: dec("6"), ExpirationDate: datePtr(day(2024, 1, 3))},
	}

	plan, err := domain.PlanDeduction(batches, dec("4"))

	assert.NoError(t, err)
	assert.Len(t, plan.Entries, 1)
	assert.Equal(t, int64(3), plan.Entries[0].BatchID)
	assert.True(t, dec("2").Equal(plan.Entries[0].RemainingQuantity))
}

func TestPlanDeduction_DecimalQuantities(t *testing.T) {
	batches := []domain.Batch{
		{ID: 1, Quantity: dec("1.5")},
		{ID: 2, Quantity: dec("2.25")},
	}

	plan, err := domain.PlanDeduction(batches, dec("2.75"))

	assert.NoError(t, err)
	assert.Len(t, plan.Entries, 2)
	assert.True(t, dec("1.25").Equal(plan.Entries[1].DeductedQuantity))
	assert.True(t, dec("1").Equal(plan.Entries[1].RemainingQuantity))
}
