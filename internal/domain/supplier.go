package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier representa um fornecedor da transportadora.
type Supplier struct {
	ID            int64     `json:"id"`
	SupplierName  string    `json:"supplier_name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	IsDeleted     bool      `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SupplierItem vincula um fornecedor a um item do catálogo com o preço praticado.
type SupplierItem struct {
	ID            int64           `json:"id"`
	SupplierID    int64           `json:"supplier_id"`
	ItemID        int64           `json:"item_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	EffectiveFrom time.Time       `json:"effective_from"`
	IsDeleted     bool            `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Supplier *Supplier `json:"supplier,omitempty"`
	Item     *Item     `json:"item,omitempty"`
}
