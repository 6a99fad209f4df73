package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus é um tipo string para representar o estado de um estoque.
type StockStatus string

// Constantes para os estados possíveis de um estoque.
// AVAILABLE, LOW_STOCK, OUT_OF_STOCK e EXPIRED são derivados automaticamente;
// os demais são estados operacionais definidos manualmente (equipamentos, máquinas).
const (
	StatusAvailable        StockStatus = "AVAILABLE"
	StatusLowStock         StockStatus = "LOW_STOCK"
	StatusOutOfStock       StockStatus = "OUT_OF_STOCK"
	StatusInUse            StockStatus = "IN_USE"
	StatusUnderMaintenance StockStatus = "UNDER_MAINTENANCE"
	StatusExpired          StockStatus = "EXPIRED"
	StatusDisposed         StockStatus = "DISPOSED"
	StatusNotAvailable     StockStatus = "NOT_AVAILABLE"
	StatusInactive         StockStatus = "INACTIVE"
)

// IsValid verifica se o valor corresponde a um estado conhecido.
func (s StockStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusLowStock, StatusOutOfStock, StatusInUse,
		StatusUnderMaintenance, StatusExpired, StatusDisposed,
		StatusNotAvailable, StatusInactive:
		return true
	}
	return false
}

// Stock representa o registro agregado de inventário de exatamente um Item (1:1 via item_code).
// O campo CurrentStock é um cache desnormalizado: o ÚNICO escritor é a re-agregação
// transacional do repositório — nunca deve ser definido diretamente por chamadores.
type Stock struct {
	ID           int64           `json:"id"`
	ItemCode     string          `json:"item_code"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	Status       StockStatus     `json:"status"`
	Version      int             `json:"-"` // Controle de Concorrência Otimista (OCC)
	IsDeleted    bool            `json:"-"`
	CreatedBy    string          `json:"created_by"`
	UpdatedBy    string          `json:"updated_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockCode formata o código de exibição do estoque (e.g., "STK-00042").
func (s Stock) StockCode() string {
	return fmt.Sprintf("STK-%05d", s.ID)
}

// Batch representa um lote de um Stock, com quantidade própria e validade opcional.
// Lotes nunca são removidos fisicamente: apenas soft-delete.
type Batch struct {
	ID             int64           `json:"id"`
	StockID        int64           `json:"stock_id"`
	BatchNumber    string          `json:"batch_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReceivedDate   time.Time       `json:"received_date"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"` // nil = não expira
	Remarks        string          `json:"remarks,omitempty"`
	IsDeleted      bool            `json:"-"`
	CreatedBy      string          `json:"created_by,omitempty"`
	UpdatedBy      string          `json:"updated_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StockWithItem é a projeção "crua" usada pelo serviço para montar as visões de
// listagem e detalhe: o estoque com os dados do item associado e seus lotes ativos.
type StockWithItem struct {
	Stock        Stock
	ItemID       int64
	ItemName     string
	CategoryName string
	UnitName     string
	UnitAbbrev   string
	Batches      []Batch
}

// StockView é a linha de listagem/detalhe retornada à camada HTTP.
// O Status aqui é SEMPRE o status computado pelas regras, nunca a coluna crua.
type StockView struct {
	ID           int64           `json:"id"`
	ItemID       int64           `json:"itemId"`
	StockCode    string          `json:"stockCode"`
	ItemName     string          `json:"itemName"`
	Unit         string          `json:"unit"`
	Category     string          `json:"category"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	ReorderLevel decimal.Decimal `json:"reorderLevel"`
	Status       StockStatus     `json:"status"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

// BatchView é a visão de um lote no detalhe de estoque.
type BatchView struct {
	ID             int64           `json:"id"`
	BatchNumber    string          `json:"batchNumber"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *string         `json:"expirationDate"`
	ReceivedDate   string          `json:"receivedDate"`
	CreatedAt      string          `json:"createdAt"`
	Remarks        string          `json:"remarks,omitempty"`
}

// StockDetail é a resposta completa do detalhe de um estoque.
type StockDetail struct {
	Stock   StockView   `json:"stock"`
	Batches []BatchView `json:"batches"`
}

// BatchSummary é a visão de lote usada nas listagens de consumíveis/não-consumíveis,
// consumida por requisições de funcionários e por outros serviços.
type BatchSummary struct {
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockID     int64           `json:"stock_id"`
	Stock       BatchSummaryRef `json:"stock"`
}

// BatchSummaryRef identifica o estoque/item de um BatchSummary.
type BatchSummaryRef struct {
	ID           int64  `json:"id"`
	ItemCode     string `json:"item_code"`
	ItemName     string `json:"item_name"`
	UnitName     string `json:"unit_name"`
	Abbreviation string `json:"abbreviation"`
}

// --- Entradas de mutação ---

// BatchInput é o payload de criação/atualização de um lote dentro de um estoque.
// ID presente = atualização do lote existente; ausente = criação.
type BatchInput struct {
	ID             *int64          `json:"id,omitempty"`
	BatchNumber    string          `json:"batchNumber"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *time.Time      `json:"expirationDate,omitempty"`
	ReceivedDate   *time.Time      `json:"receivedDate,omitempty"`
	Remarks        string          `json:"remarks,omitempty"`
}

// CreateStockInput é o payload de criação de um estoque com lotes iniciais opcionais.
type CreateStockInput struct {
	ItemID       int64            `json:"itemId"`
	ReorderLevel *decimal.Decimal `json:"reorderLevel,omitempty"`
	Batches      []BatchInput     `json:"batches,omitempty"`
}

// UpdateStockInput é o patch parcial de um estoque e/ou de seus lotes.
type UpdateStockInput struct {
	ReorderLevel *decimal.Decimal `json:"reorderLevel,omitempty"`
	Status       *StockStatus     `json:"status,omitempty"`
	Batches      []BatchInput     `json:"batches,omitempty"`
}

// --- Resultado da dedução ---

// BatchDeduction registra o quanto foi retirado de um lote específico.
type BatchDeduction struct {
	BatchID           int64           `json:"batchId"`
	BatchNumber       string          `json:"batchNumber"`
	DeductedQuantity  decimal.Decimal `json:"deductedQuantity"`
	RemainingQuantity decimal.Decimal `json:"remainingQuantity"`
}

// DeductionResult é o resultado de uma dedução de estoque sobre um ou mais lotes.
type DeductionResult struct {
	StockID         int64            `json:"stockId"`
	DeductedBatches []BatchDeduction `json:"deductedBatches"`
	TotalDeducted   decimal.Decimal  `json:"totalDeducted"`
	NewCurrentStock decimal.Decimal  `json:"newCurrentStock"`
	NewStatus       StockStatus      `json:"newStatus"`
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
}

// --- Filtros de listagem ---

// StockListFilter define os parâmetros de busca, filtro, ordenação e paginação
// da listagem de estoques. O filtro de Status opera sobre o status COMPUTADO.
type StockListFilter struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	FromDate  *time.Time
	ToDate    *time.Time
	MinQty    *decimal.Decimal
	MaxQty    *decimal.Decimal
	Status    []StockStatus
	SortBy    string // itemName | currentStock | reorderLevel | createdAt
	SortOrder string // asc | desc
}

// StockListResult é a página de listagem retornada pelo serviço.
type StockListResult struct {
	Data       []StockView `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// FormatLongDate formata uma data para exibição longa (e.g., "January 2, 2006"),
// o formato usado pelas telas de inventário.
func FormatLongDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// FormatLongDatePtr é a variante para datas opcionais (validade de lote).
func FormatLongDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatLongDate(*t)
	return &s
}
