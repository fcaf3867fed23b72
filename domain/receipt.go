package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the view model printed after a successful checkout.
type Receipt struct {
	ID                string          `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	CustomerName      string          `json:"customer_name"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	TransactionDate   time.Time       `json:"transaction_date"`
	CashierName       string          `json:"cashier_name"`
	Items             []ReceiptItem   `json:"items"`
}

type ReceiptItem struct {
	DrugID    string          `json:"drug_id" db:"drug_id"`
	DrugName  string          `json:"drug_name" db:"drug_name"`
	Unit      string          `json:"unit" db:"unit"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// ItemCount is the number of units sold on the receipt.
func (r Receipt) ItemCount() int64 {
	var n int64
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}
