package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentDebit    PaymentMethod = "debit"
	PaymentCredit   PaymentMethod = "credit"
	PaymentTransfer PaymentMethod = "transfer"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentDebit, PaymentCredit, PaymentTransfer:
		return true
	}
	return false
}

// Sale is the immutable header of a committed transaction.
type Sale struct {
	ID                string          `db:"id" json:"id"`
	TransactionNumber string          `db:"transaction_number" json:"transaction_number"`
	CustomerName      *string         `db:"customer_name" json:"customer_name,omitempty"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentMethod     PaymentMethod   `db:"payment_method" json:"payment_method"`
	CashierID         string          `db:"cashier_id" json:"cashier_id"`
	TransactionDate   time.Time       `db:"transaction_date" json:"transaction_date"`
}

// SaleItem is one immutable line of a sale. UnitPrice is frozen at sale time.
type SaleItem struct {
	ID        string          `db:"id" json:"id"`
	SaleID    string          `db:"sale_id" json:"sale_id"`
	DrugID    string          `db:"drug_id" json:"drug_id"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
}
