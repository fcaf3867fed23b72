package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Drug is a catalog item: the source of truth for price, stock and expiry.
type Drug struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	GenericName   *string         `db:"generic_name" json:"generic_name,omitempty"`
	Manufacturer  string          `db:"manufacturer" json:"manufacturer"`
	Category      string          `db:"category" json:"category"`
	Unit          string          `db:"unit" json:"unit"`
	Price         decimal.Decimal `db:"price" json:"price"`
	StockQuantity int64           `db:"stock_quantity" json:"stock_quantity"`
	MinimumStock  int64           `db:"minimum_stock" json:"minimum_stock"`
	ExpiryDate    Date            `db:"expiry_date" json:"expiry_date"`
	BatchNumber   *string         `db:"batch_number" json:"batch_number,omitempty"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// StockStatus mirrors the badge shown next to each drug in the catalog.
func (d Drug) StockStatus() string {
	switch {
	case d.StockQuantity == 0:
		return "out_of_stock"
	case d.StockQuantity <= d.MinimumStock:
		return "low"
	default:
		return "available"
	}
}
