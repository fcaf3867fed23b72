package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/store"
)

type drugRequest struct {
	Name          string          `json:"name" validate:"required"`
	GenericName   *string         `json:"generic_name"`
	Manufacturer  string          `json:"manufacturer"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity" validate:"gte=0"`
	MinimumStock  *int64          `json:"minimum_stock" validate:"omitempty,gte=0"`
	ExpiryDate    domain.Date     `json:"expiry_date"`
	BatchNumber   *string         `json:"batch_number"`
	Description   *string         `json:"description"`
}

func (req drugRequest) toDrug() (domain.Drug, error) {
	if req.Price.IsNegative() {
		return domain.Drug{}, errors.New("price must not be negative")
	}
	if req.ExpiryDate.IsZero() {
		return domain.Drug{}, errors.New("expiry_date is required")
	}
	d := domain.Drug{
		Name:          strings.TrimSpace(req.Name),
		GenericName:   nullIfEmpty(req.GenericName),
		Manufacturer:  strings.TrimSpace(req.Manufacturer),
		Category:      strings.TrimSpace(req.Category),
		Unit:          strings.TrimSpace(req.Unit),
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		MinimumStock:  10,
		ExpiryDate:    req.ExpiryDate,
		BatchNumber:   nullIfEmpty(req.BatchNumber),
		Description:   nullIfEmpty(req.Description),
	}
	if req.MinimumStock != nil {
		d.MinimumStock = *req.MinimumStock
	}
	return d, nil
}

func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.DrugFilter{
		Search:       q.Get("search"),
		Category:     strings.TrimSpace(q.Get("category")),
		InStockOnly:  q.Get("in_stock") == "true",
		LowStockOnly: q.Get("low_stock") == "true",
	}
	if days := q.Get("expiring_days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "expiring_days must be a non-negative integer")
			return
		}
		horizon := domain.DateOf(h.now().In(h.loc)).AddDays(n)
		filter.ExpiringBefore = &horizon
	}
	h.respondDrugs(w, r, filter)
}

// availableDrugs is the checkout search: only drugs with stock left.
func (h *Handler) availableDrugs(w http.ResponseWriter, r *http.Request) {
	h.respondDrugs(w, r, store.DrugFilter{
		Search:      r.URL.Query().Get("search"),
		InStockOnly: true,
		Limit:       50,
	})
}

func (h *Handler) respondDrugs(w http.ResponseWriter, r *http.Request, filter store.DrugFilter) {
	drugs, err := h.store.ListDrugs(r.Context(), filter)
	if err != nil {
		h.log.Error("list drugs failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to list drugs")
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}

func (h *Handler) getDrug(w http.ResponseWriter, r *http.Request) {
	drug, err := h.store.GetDrug(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusNotFound, "drug not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load drug")
		return
	}
	respondJSON(w, http.StatusOK, drug)
}

func (h *Handler) createDrug(w http.ResponseWriter, r *http.Request) {
	var req drugRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	drug, err := req.toDrug()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.store.CreateDrug(r.Context(), drug)
	if err != nil {
		h.log.Error("create drug failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to create drug")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateDrug(w http.ResponseWriter, r *http.Request) {
	var req drugRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	drug, err := req.toDrug()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	drug.ID = chi.URLParam(r, "id")
	updated, err := h.store.UpdateDrug(r.Context(), drug)
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusNotFound, "drug not found")
		return
	}
	if err != nil {
		h.log.Error("update drug failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to update drug")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteDrug(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteDrug(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "drug not found")
	case errors.Is(err, store.ErrDrugInUse):
		respondError(w, http.StatusConflict, "drug has already been sold and cannot be deleted")
	case err != nil:
		h.log.Error("delete drug failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to delete drug")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func nullIfEmpty(val *string) *string {
	if val == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
