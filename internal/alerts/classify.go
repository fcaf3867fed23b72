// Package alerts derives stock and expiry warnings from a catalog snapshot.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"pharmapos/m/domain"
)

const (
	// ExpiryHorizonDays is how far ahead a drug counts as expiring.
	ExpiryHorizonDays = 30
	// CriticalStock is the largest non-zero stock still rated medium.
	CriticalStock = 5
)

// Classify returns every alert raised by items as of now, sorted by severity
// (high first). Same items and same now always yield the same alerts.
func Classify(items []domain.Drug, now time.Time) []domain.Alert {
	today := domain.DateOf(now)
	horizon := today.AddDays(ExpiryHorizonDays)

	var out []domain.Alert
	for _, d := range items {
		if a, ok := lowStock(d, now); ok {
			out = append(out, a)
		}
	}
	for _, d := range items {
		if d.ExpiryDate.IsZero() {
			continue
		}
		if !d.ExpiryDate.Before(today) && !d.ExpiryDate.After(horizon) {
			out = append(out, expiring(d, today, now))
		}
	}
	for _, d := range items {
		if !d.ExpiryDate.IsZero() && d.ExpiryDate.Before(today) {
			out = append(out, expired(d, now))
		}
	}

	Sort(out)
	return out
}

// Sort orders alerts by severity descending, then most recently generated
// first; remaining ties keep their order.
func Sort(alerts []domain.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity != alerts[j].Severity {
			return alerts[i].Severity > alerts[j].Severity
		}
		return alerts[i].GeneratedAt.After(alerts[j].GeneratedAt)
	})
}

func lowStock(d domain.Drug, now time.Time) (domain.Alert, bool) {
	if d.StockQuantity > d.MinimumStock {
		return domain.Alert{}, false
	}
	severity := domain.SeverityLow
	switch {
	case d.StockQuantity == 0:
		severity = domain.SeverityHigh
	case d.StockQuantity <= CriticalStock:
		severity = domain.SeverityMedium
	}
	title := "Low stock"
	if d.StockQuantity == 0 {
		title = "Out of stock"
	}
	return domain.Alert{
		ID:          "low_stock_" + d.ID,
		Kind:        domain.AlertLowStock,
		Title:       title,
		Message:     fmt.Sprintf("%s - %d %s left (minimum: %d)", d.Name, d.StockQuantity, d.Unit, d.MinimumStock),
		DrugID:      d.ID,
		DrugName:    d.Name,
		Severity:    severity,
		GeneratedAt: now,
	}, true
}

func expiring(d domain.Drug, today domain.Date, now time.Time) domain.Alert {
	days := today.DaysUntil(d.ExpiryDate)
	severity := domain.SeverityLow
	switch {
	case days <= 7:
		severity = domain.SeverityHigh
	case days <= 14:
		severity = domain.SeverityMedium
	}
	return domain.Alert{
		ID:          "expiring_" + d.ID,
		Kind:        domain.AlertExpiring,
		Title:       "Expiring soon",
		Message:     fmt.Sprintf("%s expires in %d days (%s)", d.Name, days, d.ExpiryDate),
		DrugID:      d.ID,
		DrugName:    d.Name,
		Severity:    severity,
		GeneratedAt: now,
	}
}

func expired(d domain.Drug, now time.Time) domain.Alert {
	return domain.Alert{
		ID:          "expired_" + d.ID,
		Kind:        domain.AlertExpired,
		Title:       "Expired",
		Message:     fmt.Sprintf("%s expired on %s", d.Name, d.ExpiryDate),
		DrugID:      d.ID,
		DrugName:    d.Name,
		Severity:    domain.SeverityHigh,
		GeneratedAt: now,
	}
}

// Summary counts alerts for the badge and the metrics gauge.
type Summary struct {
	Total      int                                          `json:"total"`
	ByKind     map[domain.AlertKind]int                     `json:"by_type"`
	BySeverity map[domain.Severity]int                      `json:"by_severity"`
	Matrix     map[domain.AlertKind]map[domain.Severity]int `json:"-"`
}

func Summarize(alerts []domain.Alert) Summary {
	s := Summary{
		Total:      len(alerts),
		ByKind:     map[domain.AlertKind]int{},
		BySeverity: map[domain.Severity]int{},
		Matrix:     map[domain.AlertKind]map[domain.Severity]int{},
	}
	for _, kind := range []domain.AlertKind{domain.AlertLowStock, domain.AlertExpiring, domain.AlertExpired} {
		s.ByKind[kind] = 0
		s.Matrix[kind] = map[domain.Severity]int{domain.SeverityHigh: 0, domain.SeverityMedium: 0, domain.SeverityLow: 0}
	}
	for _, a := range alerts {
		s.ByKind[a.Kind]++
		s.BySeverity[a.Severity]++
		s.Matrix[a.Kind][a.Severity]++
	}
	return s
}
