package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// SaleRow is a sale header joined with its cashier and the number of units sold.
type SaleRow struct {
	domain.Sale
	CashierName string `db:"cashier_name" json:"cashier_name"`
	ItemCount   int64  `db:"item_count" json:"item_count"`
}

// DrugSales is the quantity and revenue of one drug over a period.
type DrugSales struct {
	DrugID   string          `db:"drug_id" json:"drug_id"`
	DrugName string          `db:"drug_name" json:"drug_name"`
	Quantity int64           `db:"quantity" json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// SalesBetween lists sales with from <= transaction_date < to, newest first.
func (s *Store) SalesBetween(ctx context.Context, from, to time.Time) ([]SaleRow, error) {
	rows := []SaleRow{}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT s.id, s.transaction_number, s.customer_name, s.total_amount,
		s.payment_method, s.cashier_id, s.transaction_date,
		COALESCE(u.full_name, '') AS cashier_name,
		COALESCE((SELECT SUM(i.quantity) FROM sale_items i WHERE i.sale_id = s.id), 0) AS item_count
		FROM sales s LEFT JOIN users u ON u.id = s.cashier_id
		WHERE s.transaction_date >= ? AND s.transaction_date < ?
		ORDER BY s.transaction_date DESC, s.transaction_number DESC`), from.UTC(), to.UTC())
	return rows, err
}

// DrugSalesBetween sums sale lines per drug over the period. Revenue is summed
// in Go so that it stays exact on every driver.
func (s *Store) DrugSalesBetween(ctx context.Context, from, to time.Time) ([]DrugSales, error) {
	var lines []struct {
		DrugID   string          `db:"drug_id"`
		DrugName string          `db:"drug_name"`
		Quantity int64           `db:"quantity"`
		Subtotal decimal.Decimal `db:"subtotal"`
	}
	err := s.db.SelectContext(ctx, &lines, s.db.Rebind(`SELECT i.drug_id, COALESCE(d.name, '') AS drug_name, i.quantity, i.subtotal
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id
		LEFT JOIN drugs d ON d.id = i.drug_id
		WHERE s.transaction_date >= ? AND s.transaction_date < ?`), from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	byDrug := map[string]*DrugSales{}
	out := []DrugSales{}
	var order []string
	for _, l := range lines {
		agg, ok := byDrug[l.DrugID]
		if !ok {
			agg = &DrugSales{DrugID: l.DrugID, DrugName: l.DrugName}
			byDrug[l.DrugID] = agg
			order = append(order, l.DrugID)
		}
		agg.Quantity += l.Quantity
		agg.Revenue = agg.Revenue.Add(l.Subtotal)
	}
	for _, id := range order {
		out = append(out, *byDrug[id])
	}
	return out, nil
}

// Receipt rebuilds the receipt of a committed sale.
func (s *Store) Receipt(ctx context.Context, saleID string) (domain.Receipt, error) {
	var head SaleRow
	err := s.db.GetContext(ctx, &head, s.db.Rebind(`SELECT s.id, s.transaction_number, s.customer_name, s.total_amount,
		s.payment_method, s.cashier_id, s.transaction_date, COALESCE(u.full_name, '') AS cashier_name, 0 AS item_count
		FROM sales s LEFT JOIN users u ON u.id = s.cashier_id WHERE s.id = ?`), saleID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Receipt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Receipt{}, err
	}

	items := []domain.ReceiptItem{}
	err = s.db.SelectContext(ctx, &items, s.db.Rebind(`SELECT i.drug_id, COALESCE(d.name, '') AS drug_name, COALESCE(d.unit, '') AS unit,
		i.quantity, i.unit_price, i.subtotal
		FROM sale_items i LEFT JOIN drugs d ON d.id = i.drug_id
		WHERE i.sale_id = ? ORDER BY i.line_no`), saleID)
	if err != nil {
		return domain.Receipt{}, err
	}

	r := domain.Receipt{
		ID:                head.ID,
		TransactionNumber: head.TransactionNumber,
		TotalAmount:       head.TotalAmount,
		PaymentMethod:     head.PaymentMethod,
		TransactionDate:   head.TransactionDate,
		CashierName:       head.CashierName,
		Items:             items,
	}
	if head.CustomerName != nil {
		r.CustomerName = *head.CustomerName
	}
	return r, nil
}
