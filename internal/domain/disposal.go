package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisposalMethod descreve como o recurso saiu de serviço.
type DisposalMethod string

const (
	DisposalSold     DisposalMethod = "SOLD"
	DisposalScrapped DisposalMethod = "SCRAPPED"
	DisposalDonated  DisposalMethod = "DONATED"
)

// Disposal é o registro terminal de baixa: referencia um par Stock+Batch OU um
// ônibus (nunca ambos). Relação somente-leitura com o inventário: criar um
// disposal não altera quantidades de lote — a retirada é feita pela dedução.
type Disposal struct {
	ID         int64            `json:"id"`
	StockID    *int64           `json:"stock_id,omitempty"`
	BatchID    *int64           `json:"batch_id,omitempty"`
	BusID      *int64           `json:"bus_id,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	Method     DisposalMethod   `json:"method"`
	Reason     string           `json:"reason"`
	DisposedBy string           `json:"disposed_by"`
	DisposedAt time.Time        `json:"disposed_at"`
	CreatedAt  time.Time        `json:"created_at"`
}
