// Package store persists the drug catalog, users and sales through sqlx. Queries
// are written with ? placeholders and rebound for the connected driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
)

// ErrDrugInUse is returned when deleting a drug that appears on a sale.
var ErrDrugInUse = errors.New("drug has sales history")

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB { return s.db }

// Begin opens the unit of work used by the checkout committer.
func (s *Store) Begin(ctx context.Context) (checkout.UnitOfWork, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx *sqlx.Tx
}

func (u *unitOfWork) LiveStock(ctx context.Context, drugID string) (int64, error) {
	var stock int64
	err := u.tx.QueryRowxContext(ctx, u.tx.Rebind(`SELECT stock_quantity FROM drugs WHERE id = ?`), drugID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return stock, err
}

// NextTransactionNumber increments the per-day counter and formats
// TRX-YYYYMMDD-NNNN. The counter row is locked until the transaction ends.
func (u *unitOfWork) NextTransactionNumber(ctx context.Context, at time.Time) (string, error) {
	day := at.Format("20060102")
	var seq int64
	err := u.tx.QueryRowxContext(ctx, u.tx.Rebind(`INSERT INTO transaction_counters (day, last_value) VALUES (?, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = transaction_counters.last_value + 1
		RETURNING last_value`), day).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TRX-%s-%04d", day, seq), nil
}

func (u *unitOfWork) InsertSale(ctx context.Context, sale domain.Sale) error {
	_, err := u.tx.ExecContext(ctx, u.tx.Rebind(`INSERT INTO sales (id, transaction_number, customer_name, total_amount, payment_method, cashier_id, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		sale.ID, sale.TransactionNumber, sale.CustomerName, sale.TotalAmount, sale.PaymentMethod, sale.CashierID, sale.TransactionDate.UTC())
	return err
}

func (u *unitOfWork) InsertSaleItems(ctx context.Context, items []domain.SaleItem) error {
	stmt, err := u.tx.PreparexContext(ctx, u.tx.Rebind(`INSERT INTO sale_items (id, sale_id, line_no, drug_id, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, it.ID, it.SaleID, i+1, it.DrugID, it.Quantity, it.UnitPrice, it.Subtotal); err != nil {
			return err
		}
	}
	return nil
}

// DecrementStock only subtracts when enough stock remains. A statement that
// matches no row leaves the transaction usable, so the current stock can be
// read back for the error.
func (u *unitOfWork) DecrementStock(ctx context.Context, drugID string, quantity int64) (int64, error) {
	var remaining int64
	err := u.tx.QueryRowxContext(ctx, u.tx.Rebind(`UPDATE drugs SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE id = ? AND stock_quantity >= ?
		RETURNING stock_quantity`), quantity, time.Now().UTC(), drugID, quantity).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	available, err := u.LiveStock(ctx, drugID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return available, domain.ErrInsufficientStock
}

func (u *unitOfWork) Commit() error { return u.tx.Commit() }

func (u *unitOfWork) Rollback() error {
	err := u.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
