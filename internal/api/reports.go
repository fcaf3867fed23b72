package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/alerts"
	"pharmapos/m/internal/report"
)

type alertsResponse struct {
	Alerts      []domain.Alert `json:"alerts"`
	Summary     alerts.Summary `json:"summary"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

// listAlerts backs the alert view. Opening it reclassifies the catalog; if
// that read fails the last snapshot is served instead.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if _, err := h.poller.Refresh(r.Context()); err != nil {
		h.log.Warn("alert refresh failed, serving cached alerts", zap.Error(err))
	}
	list, at := h.poller.Alerts()
	respondJSON(w, http.StatusOK, alertsResponse{Alerts: list, Summary: alerts.Summarize(list), RefreshedAt: at})
}

// countAlerts feeds the header badge from the polled snapshot.
func (h *Handler) countAlerts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.poller.Summary())
}

func (h *Handler) refreshAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.poller.Refresh(r.Context())
	if err != nil {
		h.log.Error("alert refresh failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to refresh alerts")
		return
	}
	_, at := h.poller.Alerts()
	respondJSON(w, http.StatusOK, alertsResponse{Alerts: list, Summary: alerts.Summarize(list), RefreshedAt: at})
}

// period reads from and to (YYYY-MM-DD). Both default to today; a missing from
// defaults to to.
func (h *Handler) period(r *http.Request) (report.Period, error) {
	today := domain.DateOf(h.now().In(h.loc))
	p := report.Period{From: today, To: today, Location: h.loc}
	q := r.URL.Query()
	if v := q.Get("to"); v != "" {
		to, err := domain.ParseDate(v)
		if err != nil {
			return report.Period{}, fmt.Errorf("to: %w", err)
		}
		p.To, p.From = to, to
	}
	if v := q.Get("from"); v != "" {
		from, err := domain.ParseDate(v)
		if err != nil {
			return report.Period{}, fmt.Errorf("from: %w", err)
		}
		p.From = from
	}
	if p.From.After(p.To) {
		return report.Period{}, fmt.Errorf("from must not be after to")
	}
	return p, nil
}

// withPeriod parses the period and maps report failures to 500.
func (h *Handler) withPeriod(w http.ResponseWriter, r *http.Request, fn func(p report.Period) (interface{}, error)) {
	p, err := h.period(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := fn(p)
	if err != nil {
		h.log.Error("report failed", zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	h.withPeriod(w, r, func(p report.Period) (interface{}, error) {
		return h.reports.Daily(r.Context(), p)
	})
}

func (h *Handler) transactionsReport(w http.ResponseWriter, r *http.Request) {
	h.withPeriod(w, r, func(p report.Period) (interface{}, error) {
		return h.reports.Transactions(r.Context(), p)
	})
}

func (h *Handler) topDrugsReport(w http.ResponseWriter, r *http.Request) {
	h.withPeriod(w, r, func(p report.Period) (interface{}, error) {
		return h.reports.TopDrugs(r.Context(), p)
	})
}

func (h *Handler) summaryReport(w http.ResponseWriter, r *http.Request) {
	h.withPeriod(w, r, func(p report.Period) (interface{}, error) {
		return h.reports.Summary(r.Context(), p)
	})
}

func (h *Handler) dailyReportCSV(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.reports.Daily(r.Context(), p)
	if err != nil {
		h.log.Error("report failed", zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sales-report-%s-%s.csv"`, p.From, p.To))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteDailyCSV(w, rows); err != nil {
		h.log.Warn("csv export interrupted", zap.Error(err))
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	current, _ := h.poller.Alerts()
	d, err := h.reports.Dashboard(r.Context(), h.now(), h.loc, current)
	if err != nil {
		h.log.Error("dashboard failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to build dashboard")
		return
	}
	respondJSON(w, http.StatusOK, d)
}
