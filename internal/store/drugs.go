package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmapos/m/domain"
)

const drugColumns = `id, name, generic_name, manufacturer, category, unit, price, stock_quantity,
	minimum_stock, expiry_date, batch_number, description, created_at, updated_at`

// DrugFilter narrows ListDrugs. Zero values mean no restriction.
type DrugFilter struct {
	Search         string
	Category       string
	InStockOnly    bool
	LowStockOnly   bool
	ExpiringBefore *domain.Date
	Limit          int
}

func (s *Store) GetDrug(ctx context.Context, id string) (domain.Drug, error) {
	var d domain.Drug
	err := s.db.GetContext(ctx, &d, s.db.Rebind(`SELECT `+drugColumns+` FROM drugs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Drug{}, domain.ErrNotFound
	}
	return d, err
}

func (s *Store) ListDrugs(ctx context.Context, f DrugFilter) ([]domain.Drug, error) {
	query := `SELECT ` + drugColumns + ` FROM drugs WHERE 1=1`
	var args []any
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query += ` AND (LOWER(name) LIKE ? OR LOWER(COALESCE(generic_name, '')) LIKE ? OR LOWER(category) LIKE ?)`
		args = append(args, like, like, like)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.InStockOnly {
		query += ` AND stock_quantity > 0`
	}
	if f.LowStockOnly {
		query += ` AND stock_quantity <= minimum_stock`
	}
	if f.ExpiringBefore != nil {
		query += ` AND expiry_date <= ?`
		args = append(args, *f.ExpiringBefore)
	}
	query += ` ORDER BY name`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	drugs := []domain.Drug{}
	if err := s.db.SelectContext(ctx, &drugs, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return drugs, nil
}

// AlertCandidates returns drugs at or below their minimum stock or expiring on
// or before horizon. Drugs already expired are included.
func (s *Store) AlertCandidates(ctx context.Context, horizon domain.Date) ([]domain.Drug, error) {
	drugs := []domain.Drug{}
	err := s.db.SelectContext(ctx, &drugs, s.db.Rebind(`SELECT `+drugColumns+` FROM drugs
		WHERE stock_quantity <= minimum_stock OR expiry_date <= ?
		ORDER BY name`), horizon)
	return drugs, err
}

// CreateDrug assigns an id and timestamps and returns the stored drug.
func (s *Store) CreateDrug(ctx context.Context, d domain.Drug) (domain.Drug, error) {
	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO drugs (`+drugColumns+`)
		VALUES (:id, :name, :generic_name, :manufacturer, :category, :unit, :price, :stock_quantity,
		:minimum_stock, :expiry_date, :batch_number, :description, :created_at, :updated_at)`, d)
	if err != nil {
		return domain.Drug{}, err
	}
	return d, nil
}

func (s *Store) UpdateDrug(ctx context.Context, d domain.Drug) (domain.Drug, error) {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `UPDATE drugs SET name = :name, generic_name = :generic_name,
		manufacturer = :manufacturer, category = :category, unit = :unit, price = :price,
		stock_quantity = :stock_quantity, minimum_stock = :minimum_stock, expiry_date = :expiry_date,
		batch_number = :batch_number, description = :description, updated_at = :updated_at
		WHERE id = :id`, d)
	if err != nil {
		return domain.Drug{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Drug{}, domain.ErrNotFound
	}
	return s.GetDrug(ctx, d.ID)
}

// DeleteDrug refuses to remove a drug referenced by a sale line.
func (s *Store) DeleteDrug(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM drugs WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM sale_items WHERE drug_id = ?)`), id, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.GetDrug(ctx, id); err != nil {
		return err
	}
	return ErrDrugInUse
}

// CountDrugs returns the catalog size and the number of drugs below threshold.
func (s *Store) CountDrugs(ctx context.Context, lowThreshold int64) (total, low int, err error) {
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN stock_quantity < ? THEN 1 ELSE 0 END), 0) FROM drugs`), lowThreshold).Scan(&total, &low)
	return total, low, err
}

// CountExpiring counts drugs with today <= expiry <= horizon.
func (s *Store) CountExpiring(ctx context.Context, today, horizon domain.Date) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM drugs WHERE expiry_date >= ? AND expiry_date <= ?`), today, horizon)
	return n, err
}
