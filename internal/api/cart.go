package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/cart"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/logger"
	"pharmapos/m/internal/report"
)

type cartLineView struct {
	DrugID    string          `json:"drug_id"`
	DrugName  string          `json:"drug_name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Stock     int64           `json:"stock_quantity"`
}

type cartView struct {
	Items         []cartLineView       `json:"items"`
	Total         decimal.Decimal      `json:"total"`
	ItemCount     int64                `json:"item_count"`
	CustomerName  string               `json:"customer_name"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// viewOf must be called with the session locked.
func viewOf(sess *cart.Session) cartView {
	lines := sess.Cart.Lines()
	v := cartView{
		Items:         make([]cartLineView, len(lines)),
		Total:         sess.Cart.Total(),
		ItemCount:     sess.Cart.ItemCount(),
		CustomerName:  sess.CustomerName,
		PaymentMethod: sess.PaymentMethod,
	}
	for i, l := range lines {
		v.Items[i] = cartLineView{
			DrugID:    l.Drug.ID,
			DrugName:  l.Drug.Name,
			Unit:      l.Drug.Unit,
			UnitPrice: l.Drug.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
			Stock:     l.Drug.StockQuantity,
		}
	}
	return v
}

// withSession runs fn with the caller's session locked.
func (h *Handler) withSession(r *http.Request, fn func(sess *cart.Session)) {
	sess := h.sessions.Get(identityFromContext(r.Context()).UserID)
	sess.Lock()
	defer sess.Unlock()
	fn(sess)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.withSession(r, func(sess *cart.Session) {
		respondJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.withSession(r, func(sess *cart.Session) {
		sess.Reset()
		respondJSON(w, http.StatusOK, viewOf(sess))
	})
}

type cartDetailsRequest struct {
	CustomerName  *string `json:"customer_name"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,oneof=cash debit credit transfer"`
}

func (h *Handler) updateCartDetails(w http.ResponseWriter, r *http.Request) {
	var req cartDetailsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withSession(r, func(sess *cart.Session) {
		if req.CustomerName != nil {
			sess.CustomerName = strings.TrimSpace(*req.CustomerName)
		}
		if req.PaymentMethod != nil {
			sess.PaymentMethod = domain.PaymentMethod(*req.PaymentMethod)
		}
		respondJSON(w, http.StatusOK, viewOf(sess))
	})
}

type addItemRequest struct {
	DrugID   string `json:"drug_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"min=1"`
}

// addCartItem snapshots the drug from the catalog and refuses quantities the
// snapshot's stock cannot cover. Checkout re-checks against live stock.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	drug, err := h.store.GetDrug(r.Context(), req.DrugID)
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusNotFound, "drug not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load drug")
		return
	}

	h.withSession(r, func(sess *cart.Session) {
		inCart := int64(0)
		if line, ok := sess.Cart.Line(drug.ID); ok {
			inCart = line.Quantity
		}
		if inCart+req.Quantity > drug.StockQuantity {
			respondStock(w, drug, inCart+req.Quantity, drug.StockQuantity)
			return
		}
		sess.Cart.Add(drug, req.Quantity)
		respondJSON(w, http.StatusOK, viewOf(sess))
	})
}

type updateItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// updateCartItem sets a line's quantity; zero or less removes the line.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	drugID := chi.URLParam(r, "drugID")
	h.withSession(r, func(sess *cart.Session) {
		line, ok := sess.Cart.Line(drugID)
		if !ok {
			respondError(w, http.StatusNotFound, "item is not in the cart")
			return
		}
		if req.Quantity > line.Drug.StockQuantity {
			respondStock(w, line.Drug, req.Quantity, line.Drug.StockQuantity)
			return
		}
		sess.Cart.UpdateQuantity(drugID, req.Quantity)
		respondJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	drugID := chi.URLParam(r, "drugID")
	h.withSession(r, func(sess *cart.Session) {
		sess.Cart.Remove(drugID)
		respondJSON(w, http.StatusOK, viewOf(sess))
	})
}

type checkoutRequest struct {
	CustomerName  *string `json:"customer_name"`
	PaymentMethod *string `json:"payment_method"`
}

// checkout commits the caller's cart. Fields in the body override the saved
// cart details; the session is reset only when the sale is recorded.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity := identityFromContext(r.Context())
	h.withSession(r, func(sess *cart.Session) {
		creq := checkout.Request{
			Cart:          sess.Cart,
			Cashier:       identity,
			CustomerName:  sess.CustomerName,
			PaymentMethod: sess.PaymentMethod,
		}
		if req.CustomerName != nil {
			creq.CustomerName = *req.CustomerName
		}
		if req.PaymentMethod != nil {
			creq.PaymentMethod = domain.PaymentMethod(*req.PaymentMethod)
		}

		receipt, err := h.committer.Commit(r.Context(), creq)
		if err != nil {
			h.respondCheckoutError(w, r, err)
			return
		}
		sess.Reset()
		respondJSON(w, http.StatusCreated, receipt)
	})
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stock   *checkout.StockUnavailableError
		persist *checkout.PersistenceError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrInvalidPaymentMethod):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &stock):
		respondStock(w, stock.Item, stock.Requested, stock.Available)
	case errors.As(err, &persist):
		logger.FromContext(r.Context()).Error("checkout failed", zap.String("op", persist.Op), zap.Error(persist.Err))
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.FromContext(r.Context()).Error("checkout failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to complete checkout")
	}
}

type stockErrorResponse struct {
	Error     string `json:"error"`
	DrugID    string `json:"drug_id"`
	DrugName  string `json:"drug_name"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

func respondStock(w http.ResponseWriter, drug domain.Drug, requested, available int64) {
	err := &checkout.StockUnavailableError{Item: drug, Requested: requested, Available: available}
	respondJSON(w, http.StatusConflict, stockErrorResponse{
		Error:     err.Error(),
		DrugID:    drug.ID,
		DrugName:  drug.Name,
		Requested: requested,
		Available: available,
	})
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.store.Receipt(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusNotFound, "sale not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load receipt")
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = report.WriteReceipt(w, receipt)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}
