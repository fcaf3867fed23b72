package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
	"pharmapos/m/internal/cart"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/store"
)

var ctx = context.Background()

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return store.New(db)
}

func addDrug(t *testing.T, s *store.Store, name string, price int64, stock int64, expiry domain.Date) domain.Drug {
	t.Helper()
	d, err := s.CreateDrug(ctx, domain.Drug{
		Name:          name,
		Unit:          "strip",
		Category:      "Analgesic",
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
		MinimumStock:  10,
		ExpiryDate:    expiry,
	})
	require.NoError(t, err)
	return d
}

func addCashier(t *testing.T, s *store.Store) domain.User {
	t.Helper()
	u, err := s.CreateUser(ctx, domain.User{Email: "Siti@Example.com", FullName: "Siti", Password: "x", Role: domain.RoleCashier})
	require.NoError(t, err)
	return u
}

func TestDrugRoundTrip(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	generic := "Paracetamol"
	created, err := s.CreateDrug(ctx, domain.Drug{
		Name:          "Panadol",
		GenericName:   &generic,
		Unit:          "strip",
		Price:         decimal.RequireFromString("12500.50"),
		StockQuantity: 40,
		MinimumStock:  10,
		ExpiryDate:    domain.NewDate(2026, 2, 28),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.GetDrug(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Panadol", got.Name)
	require.NotNil(t, got.GenericName)
	assert.Equal(t, "Paracetamol", *got.GenericName)
	assert.Nil(t, got.BatchNumber)
	assert.True(t, decimal.RequireFromString("12500.5").Equal(got.Price))
	assert.Equal(t, "2026-02-28", got.ExpiryDate.String())
	assert.EqualValues(t, 40, got.StockQuantity)

	got.StockQuantity = 7
	updated, err := s.UpdateDrug(ctx, got)
	require.NoError(t, err)
	assert.EqualValues(t, 7, updated.StockQuantity)

	_, err = s.GetDrug(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.UpdateDrug(ctx, domain.Drug{ID: "missing", Name: "x", Unit: "box"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDrugsFilters(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	far := domain.NewDate(2030, 1, 1)
	addDrug(t, s, "Amoxicillin", 5000, 0, far)
	addDrug(t, s, "Paracetamol", 10000, 50, far)
	addDrug(t, s, "Ibuprofen", 8000, 4, domain.NewDate(2025, 1, 10))

	all, err := s.ListDrugs(ctx, store.DrugFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Amoxicillin", all[0].Name)

	inStock, err := s.ListDrugs(ctx, store.DrugFilter{InStockOnly: true})
	require.NoError(t, err)
	assert.Len(t, inStock, 2)

	low, err := s.ListDrugs(ctx, store.DrugFilter{LowStockOnly: true})
	require.NoError(t, err)
	assert.Len(t, low, 2)

	search, err := s.ListDrugs(ctx, store.DrugFilter{Search: "PARA"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Paracetamol", search[0].Name)

	before := domain.NewDate(2025, 2, 1)
	expiring, err := s.ListDrugs(ctx, store.DrugFilter{ExpiringBefore: &before})
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Ibuprofen", expiring[0].Name)

	candidates, err := s.AlertCandidates(ctx, domain.NewDate(2025, 1, 31))
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	total, lowCount, err := s.CountDrugs(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, lowCount)

	n, err := s.CountExpiring(ctx, domain.NewDate(2025, 1, 1), domain.NewDate(2025, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUsers(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	u := addCashier(t, s)
	assert.Equal(t, "siti@example.com", u.Email)

	_, err := s.CreateUser(ctx, domain.User{Email: "siti@example.com", FullName: "Other", Password: "x", Role: domain.RoleCashier})
	assert.ErrorIs(t, err, store.ErrEmailTaken)

	got, err := s.UserByEmail(ctx, " SITI@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	byID, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Siti", byID.FullName)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactionNumberSequence(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	day := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	next := func(at time.Time) string {
		uow, err := s.Begin(ctx)
		require.NoError(t, err)
		n, err := uow.NextTransactionNumber(ctx, at)
		require.NoError(t, err)
		require.NoError(t, uow.Commit())
		return n
	}

	assert.Equal(t, "TRX-20250314-0001", next(day))
	assert.Equal(t, "TRX-20250314-0002", next(day.Add(time.Hour)))
	assert.Equal(t, "TRX-20250315-0001", next(day.AddDate(0, 0, 1)))

	// a rolled back draw is not consumed
	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = uow.NextTransactionNumber(ctx, day)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())
	assert.Equal(t, "TRX-20250314-0003", next(day))
}

func TestDecrementStockIsConditional(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	d := addDrug(t, s, "Paracetamol", 10000, 3, domain.NewDate(2030, 1, 1))

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	left, err := uow.DecrementStock(ctx, d.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)

	available, err := uow.DecrementStock(ctx, d.ID, 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.EqualValues(t, 1, available)

	_, err = uow.DecrementStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uow.LiveStock(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommitThroughStore(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	cashier := addCashier(t, s)
	a := addDrug(t, s, "Paracetamol", 10000, 5, domain.NewDate(2030, 1, 1))
	b := addDrug(t, s, "Amoxicillin", 5000, 1, domain.NewDate(2030, 1, 1))

	c := cart.New()
	c.Add(a, 2)
	c.Add(b, 1)
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	committer := checkout.NewCommitter(s, nil).WithClock(func() time.Time { return at })

	receipt, err := committer.Commit(ctx, checkout.Request{
		Cart:          c,
		Cashier:       checkout.Identity{UserID: cashier.ID, FullName: cashier.FullName},
		CustomerName:  "Budi",
		PaymentMethod: domain.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "TRX-20250314-0001", receipt.TransactionNumber)

	gotA, err := s.GetDrug(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, gotA.StockQuantity)
	gotB, err := s.GetDrug(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, gotB.StockQuantity)

	stored, err := s.Receipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.TransactionNumber, stored.TransactionNumber)
	assert.Equal(t, "Budi", stored.CustomerName)
	assert.Equal(t, "Siti", stored.CashierName)
	assert.True(t, decimal.NewFromInt(25000).Equal(stored.TotalAmount))
	assert.True(t, at.Equal(stored.TransactionDate))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Paracetamol", stored.Items[0].DrugName)
	assert.Equal(t, "Amoxicillin", stored.Items[1].DrugName)
	assert.True(t, decimal.NewFromInt(20000).Equal(stored.Items[0].Subtotal))

	// the second checkout of b finds no stock and writes nothing
	again := cart.New()
	again.Add(a, 1)
	again.Add(b, 1)
	_, err = committer.Commit(ctx, checkout.Request{Cart: again, Cashier: checkout.Identity{UserID: cashier.ID}})
	var stockErr *checkout.StockUnavailableError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, b.ID, stockErr.Item.ID)

	gotA, err = s.GetDrug(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, gotA.StockQuantity)

	sales, err := s.SalesBetween(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.EqualValues(t, 3, sales[0].ItemCount)
	assert.Equal(t, "Siti", sales[0].CashierName)

	byDrug, err := s.DrugSalesBetween(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, byDrug, 2)

	err = s.DeleteDrug(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrDrugInUse)
	assert.ErrorIs(t, s.DeleteDrug(ctx, "missing"), domain.ErrNotFound)

	unsold := addDrug(t, s, "Vitamin C", 2000, 10, domain.NewDate(2030, 1, 1))
	require.NoError(t, s.DeleteDrug(ctx, unsold.ID))

	_, err = s.Receipt(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
