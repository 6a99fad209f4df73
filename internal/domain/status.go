package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryConsumable é o nome da categoria cujo status é estritamente derivado
// da quantidade. A comparação de categoria é feita de forma case-insensitive.
const CategoryConsumable = "Consumable"

// statusRuleInput agrupa as entradas da avaliação de status.
type statusRuleInput struct {
	totalQty     decimal.Decimal
	reorderLevel decimal.Decimal
	isConsumable bool
	storedStatus StockStatus
	batches      []Batch
	now          time.Time
}

// statusRule é uma regra da tabela de decisão. Retorna (status, true) quando se
// aplica; a primeira regra que se aplica vence.
type statusRule struct {
	name  string
	apply func(in statusRuleInput) (StockStatus, bool)
}

// statusRules é a tabela de decisão avaliada de cima para baixo. A precedência
// (EXPIRED > quantidade-consumível > status armazenado > fallback) fica visível
// como dados, não como condicionais aninhadas.
var statusRules = []statusRule{
	{
		// Qualquer lote ativo com validade <= hoje expira o estoque inteiro,
		// independente de quantidade ou categoria.
		name: "expired",
		apply: func(in statusRuleInput) (StockStatus, bool) {
			for _, b := range in.batches {
				if b.IsDeleted || b.ExpirationDate == nil {
					continue
				}
				if !b.ExpirationDate.After(in.now) {
					return StatusExpired, true
				}
			}
			return "", false
		},
	},
	{
		// Consumíveis são rastreados estritamente por contagem: o status
		// armazenado é ignorado e o status é sempre recomputado da quantidade.
		name: "consumable-quantity",
		apply: func(in statusRuleInput) (StockStatus, bool) {
			if !in.isConsumable {
				return "", false
			}
			switch {
			case in.totalQty.IsZero():
				return StatusOutOfStock, true
			case in.totalQty.LessThan(in.reorderLevel):
				return StatusLowStock, true
			default:
				return StatusAvailable, true
			}
		},
	},
	{
		// Não-consumíveis (equipamentos, ferramentas, máquinas) têm estados
		// operacionais definidos pelo operador; o status armazenado é
		// autoritativo, exceto quando for INACTIVE.
		name: "stored-status",
		apply: func(in statusRuleInput) (StockStatus, bool) {
			if in.storedStatus != "" && in.storedStatus != StatusInactive {
				return in.storedStatus, true
			}
			return "", false
		},
	},
	{
		// Fallback: sem status armazenado (ou INACTIVE), inferir da quantidade.
		name: "quantity-fallback",
		apply: func(in statusRuleInput) (StockStatus, bool) {
			if in.totalQty.IsPositive() {
				return StatusAvailable, true
			}
			return StatusOutOfStock, true
		},
	},
}

// ComputeStatus calcula o status efetivo de um estoque a partir de seus lotes,
// nível de reposição e categoria. Função pura (sem I/O): é reutilizada
// identicamente pelo detalhe, pela listagem e pela re-agregação transacional,
// garantindo que as três visões nunca divirjam.
func ComputeStatus(totalQty, reorderLevel decimal.Decimal, isConsumable bool, storedStatus StockStatus, batches []Batch, now time.Time) StockStatus {
	in := statusRuleInput{
		totalQty:     totalQty,
		reorderLevel: reorderLevel,
		isConsumable: isConsumable,
		storedStatus: storedStatus,
		batches:      batches,
		now:          now,
	}
	for _, rule := range statusRules {
		if status, ok := rule.apply(in); ok {
			return status
		}
	}
	// Inalcançável: a última regra sempre se aplica.
	return StatusOutOfStock
}

// SumActiveBatches soma as quantidades dos lotes não deletados.
// É a definição canônica do invariante current_stock == soma dos lotes ativos.
func SumActiveBatches(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.IsDeleted {
			continue
		}
		total = total.Add(b.Quantity)
	}
	return total
}
