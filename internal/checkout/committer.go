// Package checkout turns a cart into a persisted, immutable sale.
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/cart"
	"pharmapos/m/internal/metrics"
)

// Store opens a unit of work in which a sale is committed atomically.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is a single store transaction. Nothing it writes is visible
// until Commit; Rollback after Commit is a no-op.
type UnitOfWork interface {
	// LiveStock returns the current stock of a drug or domain.ErrNotFound.
	LiveStock(ctx context.Context, drugID string) (int64, error)
	// NextTransactionNumber draws from the store-owned sequence.
	NextTransactionNumber(ctx context.Context, at time.Time) (string, error)
	InsertSale(ctx context.Context, sale domain.Sale) error
	InsertSaleItems(ctx context.Context, items []domain.SaleItem) error
	// DecrementStock subtracts quantity only if enough stock remains. On
	// domain.ErrInsufficientStock the returned count is the stock available.
	DecrementStock(ctx context.Context, drugID string, quantity int64) (int64, error)
	Commit() error
	Rollback() error
}

// Identity is the authenticated cashier performing the sale.
type Identity struct {
	UserID   string
	FullName string
}

func (i Identity) Valid() bool { return strings.TrimSpace(i.UserID) != "" }

type Request struct {
	Cart          *cart.Cart
	Cashier       Identity
	CustomerName  string
	PaymentMethod domain.PaymentMethod
}

type Committer struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewCommitter(store Store, log *zap.Logger) *Committer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Committer{
		store: store,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// WithClock overrides the time source used for the transaction timestamp.
func (c *Committer) WithClock(now func() time.Time) *Committer {
	c.now = now
	return c
}

// Commit validates the cart against live stock and records the sale header,
// its lines and the stock decrements in one unit of work. The cart is never
// modified; clearing it on success is the caller's job.
func (c *Committer) Commit(ctx context.Context, req Request) (receipt domain.Receipt, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveCheckout(outcome(err), time.Since(start))
	}()

	if req.Cart == nil || req.Cart.Len() == 0 {
		return domain.Receipt{}, ErrEmptyCart
	}
	if !req.Cashier.Valid() {
		return domain.Receipt{}, ErrUnauthenticated
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}
	if !method.Valid() {
		return domain.Receipt{}, ErrInvalidPaymentMethod
	}

	lines := req.Cart.Lines()
	uow, err := c.store.Begin(ctx)
	if err != nil {
		return domain.Receipt{}, persistence("start sale", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	for _, line := range lines {
		stock, err := uow.LiveStock(ctx, line.Drug.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Receipt{}, &StockUnavailableError{Item: line.Drug, Requested: line.Quantity}
		}
		if err != nil {
			return domain.Receipt{}, persistence("read stock", err)
		}
		if line.Quantity > stock {
			return domain.Receipt{}, &StockUnavailableError{Item: line.Drug, Requested: line.Quantity, Available: stock}
		}
	}

	at := c.now()
	number, err := uow.NextTransactionNumber(ctx, at)
	if err != nil {
		return domain.Receipt{}, persistence("generate transaction number", err)
	}

	sale := domain.Sale{
		ID:                c.newID(),
		TransactionNumber: number,
		TotalAmount:       req.Cart.Total(),
		PaymentMethod:     method,
		CashierID:         req.Cashier.UserID,
		TransactionDate:   at,
	}
	customer := strings.TrimSpace(req.CustomerName)
	if customer != "" {
		sale.CustomerName = &customer
	}
	if err := uow.InsertSale(ctx, sale); err != nil {
		return domain.Receipt{}, persistence("record sale", err)
	}

	// Subtotals are taken from the cart as is. A line re-added after a price
	// change was repriced in full while UnitPrice stays at the first snapshot.
	items := make([]domain.SaleItem, len(lines))
	for i, line := range lines {
		items[i] = domain.SaleItem{
			ID:        c.newID(),
			SaleID:    sale.ID,
			DrugID:    line.Drug.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Drug.Price,
			Subtotal:  line.Subtotal,
		}
	}
	if err := uow.InsertSaleItems(ctx, items); err != nil {
		return domain.Receipt{}, persistence("record sale items", err)
	}

	for _, line := range lines {
		available, err := uow.DecrementStock(ctx, line.Drug.ID, line.Quantity)
		if errors.Is(err, domain.ErrInsufficientStock) {
			return domain.Receipt{}, &StockUnavailableError{Item: line.Drug, Requested: line.Quantity, Available: available}
		}
		if err != nil {
			return domain.Receipt{}, persistence("update stock", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return domain.Receipt{}, persistence("finalize sale", err)
	}
	committed = true

	c.log.Info("sale committed",
		zap.String("sale_id", sale.ID),
		zap.String("transaction_number", sale.TransactionNumber),
		zap.String("cashier_id", sale.CashierID),
		zap.String("total", sale.TotalAmount.String()),
		zap.Int("lines", len(items)))

	return buildReceipt(sale, req.Cashier, lines), nil
}

func buildReceipt(sale domain.Sale, cashier Identity, lines []cart.Line) domain.Receipt {
	r := domain.Receipt{
		ID:                sale.ID,
		TransactionNumber: sale.TransactionNumber,
		TotalAmount:       sale.TotalAmount,
		PaymentMethod:     sale.PaymentMethod,
		TransactionDate:   sale.TransactionDate,
		CashierName:       cashier.FullName,
		Items:             make([]domain.ReceiptItem, len(lines)),
	}
	if sale.CustomerName != nil {
		r.CustomerName = *sale.CustomerName
	}
	for i, line := range lines {
		r.Items[i] = domain.ReceiptItem{
			DrugID:    line.Drug.ID,
			DrugName:  line.Drug.Name,
			Unit:      line.Drug.Unit,
			Quantity:  line.Quantity,
			UnitPrice: line.Drug.Price,
			Subtotal:  line.Subtotal,
		}
	}
	return r
}

func outcome(err error) string {
	var (
		stock   *StockUnavailableError
		persist *PersistenceError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.As(err, &stock):
		return "stock_unavailable"
	case errors.As(err, &persist):
		return "persistence_error"
	}
	return "error"
}
