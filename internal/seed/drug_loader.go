package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
)

var requiredColumns = []string{"name", "unit", "price", "stock_quantity", "expiry_date"}

// LoadDrugsFile ingests a drug catalog CSV. A missing file is logged and ignored.
func LoadDrugsFile(ctx context.Context, db *sqlx.DB, path string, log *zap.Logger) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		log.Warn("unable to load drug catalog", zap.String("path", path), zap.Error(err))
		return 0, nil
	}
	defer file.Close()
	return LoadDrugs(ctx, db, file, log)
}

// LoadDrugs inserts every valid row of the CSV in one transaction. The header
// names the columns; rows whose name and batch number already exist are skipped,
// malformed rows are logged and skipped.
func LoadDrugs(ctx context.Context, db *sqlx.DB, r io.Reader, log *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("unable to read drug header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("drug catalog is missing column %q", name)
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to start drug transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.PreparexContext(ctx, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM drugs WHERE name = ? AND COALESCE(batch_number, '') = ?)`))
	if err != nil {
		return 0, fmt.Errorf("unable to prepare drug lookup: %w", err)
	}
	defer exists.Close()
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO drugs (id, name, generic_name, manufacturer, category, unit, price,
		stock_quantity, minimum_stock, expiry_date, batch_number, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("unable to prepare drug insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("unable to read drug row", zap.Int("line", line), zap.Error(err))
			continue
		}
		d, err := parseRow(record, cols)
		if err != nil {
			log.Warn("skipping drug row", zap.Int("line", line), zap.Error(err))
			continue
		}
		batch := ""
		if d.BatchNumber != nil {
			batch = *d.BatchNumber
		}
		var dup bool
		if err := exists.GetContext(ctx, &dup, d.Name, batch); err != nil {
			return 0, fmt.Errorf("unable to look up drug %s: %w", d.Name, err)
		}
		if dup {
			continue
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Name, d.GenericName, d.Manufacturer, d.Category, d.Unit, d.Price,
			d.StockQuantity, d.MinimumStock, d.ExpiryDate, d.BatchNumber, d.Description, d.CreatedAt, d.UpdatedAt); err != nil {
			return 0, fmt.Errorf("unable to insert drug %s: %w", d.Name, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("unable to commit drug seed: %w", err)
	}
	log.Info("seeded drug catalog", zap.Int("rows", rows))
	return rows, nil
}

func parseRow(record []string, cols map[string]int) (domain.Drug, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(name string) *string {
		if v := field(name); v != "" {
			return &v
		}
		return nil
	}

	now := time.Now().UTC()
	d := domain.Drug{
		ID:           uuid.NewString(),
		Name:         field("name"),
		GenericName:  optional("generic_name"),
		Manufacturer: field("manufacturer"),
		Category:     field("category"),
		Unit:         field("unit"),
		BatchNumber:  optional("batch_number"),
		Description:  optional("description"),
		MinimumStock: 10,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if d.Name == "" || d.Unit == "" {
		return domain.Drug{}, errors.New("name and unit are required")
	}

	price, err := decimal.NewFromString(field("price"))
	if err != nil || price.IsNegative() {
		return domain.Drug{}, fmt.Errorf("invalid price %q", field("price"))
	}
	d.Price = price

	if d.StockQuantity, err = strconv.ParseInt(field("stock_quantity"), 10, 64); err != nil || d.StockQuantity < 0 {
		return domain.Drug{}, fmt.Errorf("invalid stock quantity %q", field("stock_quantity"))
	}
	if v := field("minimum_stock"); v != "" {
		if d.MinimumStock, err = strconv.ParseInt(v, 10, 64); err != nil || d.MinimumStock < 0 {
			return domain.Drug{}, fmt.Errorf("invalid minimum stock %q", v)
		}
	}
	if d.ExpiryDate, err = domain.ParseDate(field("expiry_date")); err != nil {
		return domain.Drug{}, err
	}
	return d, nil
}
