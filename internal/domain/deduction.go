package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	apperror "frotastock/internal/errors"
)

// DeductionPlan é o resultado puro do planejamento de uma dedução: de quais
// lotes retirar e quanto, antes de qualquer escrita no banco.
type DeductionPlan struct {
	Entries        []BatchDeduction
	TotalAvailable decimal.Decimal
}

// SortBatchesForDeduction ordena os lotes na ordem de consumo:
// validade mais próxima primeiro (NULLs por último — lotes que não expiram só
// são consumidos depois de todos os que expiram), com desempate FIFO pela data
// de recebimento e, por fim, pelo ID para determinismo total.
func SortBatchesForDeduction(batches []Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]

		switch {
		case a.ExpirationDate != nil && b.ExpirationDate == nil:
			return true
		case a.ExpirationDate == nil && b.ExpirationDate != nil:
			return false
		case a.ExpirationDate != nil && b.ExpirationDate != nil:
			if !a.ExpirationDate.Equal(*b.ExpirationDate) {
				return a.ExpirationDate.Before(*b.ExpirationDate)
			}
		}

		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.ID < b.ID
	})
}

// PlanDeduction seleciona lotes para satisfazer uma retirada de quantityToDeduct,
// em ordem de validade mais próxima primeiro. Função pura: não toca o banco.
//
// A verificação de suficiência é uma PRÉ-CONDIÇÃO, não um atendimento parcial:
// se a soma dos lotes ativos for menor que o pedido, nada é planejado e um
// InsufficientStockError é retornado com os valores disponível/solicitado.
func PlanDeduction(batches []Batch, quantityToDeduct decimal.Decimal) (DeductionPlan, error) {
	if !quantityToDeduct.IsPositive() {
		return DeductionPlan{}, apperror.NewValidationError("A quantidade a deduzir deve ser maior que zero.")
	}

	// Apenas lotes ativos com quantidade positiva participam da dedução.
	active := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsDeleted || !b.Quantity.IsPositive() {
			continue
		}
		active = append(active, b)
	}

	if len(active) == 0 {
		return DeductionPlan{}, apperror.NewInsufficientStockError(
			"Nenhum lote ativo disponível para dedução.", decimal.Zero, quantityToDeduct)
	}

	available := decimal.Zero
	for _, b := range active {
		available = available.Add(b.Quantity)
	}
	if available.LessThan(quantityToDeduct) {
		return DeductionPlan{}, apperror.NewInsufficientStockError(
			fmt.Sprintf("Estoque insuficiente. Available: %s, Requested: %s", available, quantityToDeduct),
			available, quantityToDeduct)
	}

	SortBatchesForDeduction(active)

	plan := DeductionPlan{TotalAvailable: available}
	remaining := quantityToDeduct

	for _, b := range active {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(b.Quantity, remaining)
		plan.Entries = append(plan.Entries, BatchDeduction{
			BatchID:           b.ID,
			BatchNumber:       b.BatchNumber,
			DeductedQuantity:  take,
			RemainingQuantity: b.Quantity.Sub(take),
		})
		remaining = remaining.Sub(take)
	}

	return plan, nil
}
