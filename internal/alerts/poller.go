package alerts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/metrics"
)

// Catalog returns the drugs that may raise an alert: stock at or below the
// minimum, or expiring on or before horizon.
type Catalog interface {
	AlertCandidates(ctx context.Context, horizon domain.Date) ([]domain.Drug, error)
}

// Poller keeps the latest classification of the catalog, refreshed on a
// fixed interval and on demand.
type Poller struct {
	catalog  Catalog
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	// refreshing serializes Refresh so snapshots are replaced in the order
	// they were read.
	refreshing sync.Mutex

	mu          sync.RWMutex
	alerts      []domain.Alert
	refreshedAt time.Time
}

func NewPoller(catalog Catalog, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{catalog: catalog, interval: interval, log: log, now: time.Now}
}

// Refresh re-reads the catalog and replaces the cached alerts. On failure the
// previous snapshot is kept. Concurrent calls run one at a time.
func (p *Poller) Refresh(ctx context.Context) ([]domain.Alert, error) {
	p.refreshing.Lock()
	defer p.refreshing.Unlock()

	now := p.now()
	horizon := domain.DateOf(now).AddDays(ExpiryHorizonDays)
	items, err := p.catalog.AlertCandidates(ctx, horizon)
	if err != nil {
		metrics.AlertRefreshErrors.Inc()
		return nil, err
	}
	alerts := Classify(items, now)

	p.mu.Lock()
	p.alerts = alerts
	p.refreshedAt = now
	p.mu.Unlock()

	publish(Summarize(alerts))
	return copyAlerts(alerts), nil
}

// Alerts returns the cached snapshot.
func (p *Poller) Alerts() ([]domain.Alert, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyAlerts(p.alerts), p.refreshedAt
}

func (p *Poller) Summary() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Summarize(p.alerts)
}

// Run refreshes immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.refreshLogged(ctx)
	if p.interval <= 0 {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshLogged(ctx)
		}
	}
}

func (p *Poller) refreshLogged(ctx context.Context) {
	alerts, err := p.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Error("alert refresh failed", zap.Error(err))
		}
		return
	}
	p.log.Debug("alerts refreshed", zap.Int("count", len(alerts)))
}

func publish(s Summary) {
	counts := make(map[string]map[string]int, len(s.Matrix))
	for kind, bySeverity := range s.Matrix {
		row := make(map[string]int, len(bySeverity))
		for severity, n := range bySeverity {
			row[severity.String()] = n
		}
		counts[string(kind)] = row
	}
	metrics.SetAlerts(counts)
}

func copyAlerts(in []domain.Alert) []domain.Alert {
	out := make([]domain.Alert, len(in))
	copy(out, in)
	return out
}
