// Package report aggregates committed sales for the reports and dashboard views.
package report

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/store"
)

const (
	TopDrugsLimit = 10
	// LowStockThreshold is the dashboard's restock badge, separate from each
	// drug's own minimum.
	LowStockThreshold = 20
	CriticalLimit     = 5
)

// Source is the subset of the store the reports read from.
type Source interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]store.SaleRow, error)
	DrugSalesBetween(ctx context.Context, from, to time.Time) ([]store.DrugSales, error)
	CountDrugs(ctx context.Context, lowThreshold int64) (total, low int, err error)
	CountExpiring(ctx context.Context, today, horizon domain.Date) (int, error)
}

// Period is an inclusive range of calendar days in Location.
type Period struct {
	From     domain.Date
	To       domain.Date
	Location *time.Location
}

func (p Period) bounds() (time.Time, time.Time) {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(p.From.Year(), p.From.Month(), p.From.Day(), 0, 0, 0, 0, loc)
	to := time.Date(p.To.Year(), p.To.Month(), p.To.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return from, to
}

func (p Period) day(t time.Time) domain.Date {
	if p.Location != nil {
		t = t.In(p.Location)
	}
	return domain.DateOf(t)
}

type DailyRow struct {
	Date              domain.Date     `json:"date"`
	TotalTransactions int             `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalItemsSold    int64           `json:"total_items_sold"`
}

type Summary struct {
	TotalTransactions  int             `json:"total_transactions"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalItemsSold     int64           `json:"total_items_sold"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}

type Reports struct {
	src Source
}

func New(src Source) *Reports {
	return &Reports{src: src}
}

func (r *Reports) Transactions(ctx context.Context, p Period) ([]store.SaleRow, error) {
	from, to := p.bounds()
	return r.src.SalesBetween(ctx, from, to)
}

// Daily groups the period's sales by calendar day, newest day first.
func (r *Reports) Daily(ctx context.Context, p Period) ([]DailyRow, error) {
	sales, err := r.Transactions(ctx, p)
	if err != nil {
		return nil, err
	}
	return groupDaily(sales, p), nil
}

func groupDaily(sales []store.SaleRow, p Period) []DailyRow {
	byDay := map[string]*DailyRow{}
	for _, s := range sales {
		day := p.day(s.TransactionDate)
		row, ok := byDay[day.String()]
		if !ok {
			row = &DailyRow{Date: day}
			byDay[day.String()] = row
		}
		row.TotalTransactions++
		row.TotalRevenue = row.TotalRevenue.Add(s.TotalAmount)
		row.TotalItemsSold += s.ItemCount
	}
	rows := make([]DailyRow, 0, len(byDay))
	for _, row := range byDay {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows
}

// TopDrugs ranks drugs by quantity sold, then revenue.
func (r *Reports) TopDrugs(ctx context.Context, p Period) ([]store.DrugSales, error) {
	from, to := p.bounds()
	drugs, err := r.src.DrugSalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(drugs, func(i, j int) bool {
		if drugs[i].Quantity != drugs[j].Quantity {
			return drugs[i].Quantity > drugs[j].Quantity
		}
		return drugs[i].Revenue.GreaterThan(drugs[j].Revenue)
	})
	if len(drugs) > TopDrugsLimit {
		drugs = drugs[:TopDrugsLimit]
	}
	return drugs, nil
}

func (r *Reports) Summary(ctx context.Context, p Period) (Summary, error) {
	sales, err := r.Transactions(ctx, p)
	if err != nil {
		return Summary{}, err
	}
	return summarize(groupDaily(sales, p)), nil
}

func summarize(rows []DailyRow) Summary {
	var s Summary
	for _, row := range rows {
		s.TotalTransactions += row.TotalTransactions
		s.TotalRevenue = s.TotalRevenue.Add(row.TotalRevenue)
		s.TotalItemsSold += row.TotalItemsSold
	}
	if s.TotalTransactions > 0 {
		s.AverageTransaction = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TotalTransactions))).Round(2)
	}
	return s
}

var csvHeader = []string{"Date", "Total Transactions", "Total Revenue", "Total Items Sold"}

// WriteDailyCSV writes one line per day after a fixed header.
func WriteDailyCSV(w io.Writer, rows []DailyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Date.String(),
			strconv.Itoa(row.TotalTransactions),
			row.TotalRevenue.String(),
			strconv.FormatInt(row.TotalItemsSold, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
