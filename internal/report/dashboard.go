package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/alerts"
)

type Dashboard struct {
	TotalDrugs        int             `json:"total_drugs"`
	LowStockDrugs     int             `json:"low_stock_drugs"`
	ExpiringSoon      int             `json:"expiring_soon"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
	TodayTransactions int             `json:"today_transactions"`
	CriticalAlerts    []domain.Alert  `json:"critical_alerts"`
}

// Dashboard collects the landing page counters for today in loc. Critical
// alerts are the first high severity entries of the sorted alert list.
func (r *Reports) Dashboard(ctx context.Context, now time.Time, loc *time.Location, current []domain.Alert) (Dashboard, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := domain.DateOf(now.In(loc))

	var d Dashboard
	var err error
	if d.TotalDrugs, d.LowStockDrugs, err = r.src.CountDrugs(ctx, LowStockThreshold); err != nil {
		return Dashboard{}, err
	}
	if d.ExpiringSoon, err = r.src.CountExpiring(ctx, today, today.AddDays(alerts.ExpiryHorizonDays)); err != nil {
		return Dashboard{}, err
	}

	summary, err := r.Summary(ctx, Period{From: today, To: today, Location: loc})
	if err != nil {
		return Dashboard{}, err
	}
	d.TodayRevenue = summary.TotalRevenue
	d.TodayTransactions = summary.TotalTransactions

	d.CriticalAlerts = []domain.Alert{}
	for _, a := range current {
		if a.Severity != domain.SeverityHigh {
			continue
		}
		d.CriticalAlerts = append(d.CriticalAlerts, a)
		if len(d.CriticalAlerts) == CriticalLimit {
			break
		}
	}
	return d, nil
}
