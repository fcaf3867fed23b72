package checkout

import (
	"errors"
	"fmt"

	"pharmapos/m/domain"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrUnauthenticated      = errors.New("no cashier identity")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, debit, credit or transfer")
)

// StockUnavailableError reports a line whose quantity exceeds the live stock.
type StockUnavailableError struct {
	Item      domain.Drug
	Requested int64
	Available int64
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item.Name, e.Requested, e.Available)
}

// PersistenceError wraps any store failure during number generation, inserts or commit.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("unable to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// UserCorrectable reports whether err can be fixed by editing the cart or form.
func UserCorrectable(err error) bool {
	var stock *StockUnavailableError
	return errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrInvalidPaymentMethod) || errors.As(err, &stock)
}
