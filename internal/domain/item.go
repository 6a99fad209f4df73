package domain

import (
	"strings"
	"time"
)

// ItemStatus é o estado do item de catálogo (ativo/inativo).
type ItemStatus string

const (
	ItemActive   ItemStatus = "ACTIVE"
	ItemInactive ItemStatus = "INACTIVE"
)

// Item representa uma entrada do catálogo (código, nome, categoria, unidade).
// A identidade do item é imutável a partir do momento em que um Stock o referencia.
type Item struct {
	ID          int64      `json:"id"`
	ItemCode    string     `json:"item_code"`
	ItemName    string     `json:"item_name"`
	CategoryID  int64      `json:"category_id"`
	UnitID      int64      `json:"unit_id"`
	Status      ItemStatus `json:"status"`
	Description string     `json:"description,omitempty"`
	IsDeleted   bool       `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relações (preenchidas nas consultas com join)
	Category *Category    `json:"category,omitempty"`
	Unit     *UnitMeasure `json:"unit,omitempty"`
}

// Category agrupa itens. O nome "Consumable" muda a política de cômputo de
// status do estoque (ver status.go); as demais categorias são equivalentes.
type Category struct {
	ID           int64     `json:"id"`
	CategoryName string    `json:"category_name"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsConsumable indica se a categoria segue a política de status por quantidade.
func (c Category) IsConsumable() bool {
	return IsConsumableCategory(c.CategoryName)
}

// IsConsumableCategory compara o nome de categoria com "Consumable" sem
// diferenciar maiúsculas/minúsculas.
func IsConsumableCategory(name string) bool {
	return strings.EqualFold(name, CategoryConsumable)
}

// UnitMeasure representa uma unidade de medida (litro, peça, caixa...).
type UnitMeasure struct {
	ID           int64     `json:"id"`
	UnitCode     string    `json:"unit_code"`
	UnitName     string    `json:"unit_name"`
	Abbreviation string    `json:"abbreviation"`
	Description  string    `json:"description,omitempty"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ItemListFilter define busca, filtro e paginação da listagem de itens.
// Diferente da listagem de estoques, aqui a filtragem é feita no banco.
type ItemListFilter struct {
	Page       int
	Limit      int
	Status     ItemStatus
	CategoryID int64
	Search     string // busca em item_code e item_name
	SortBy     string // itemCode | itemName | createdAt
	SortOrder  string // asc | desc
}

// ItemListResult é a página de listagem de itens.
type ItemListResult struct {
	Data       []Item     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
