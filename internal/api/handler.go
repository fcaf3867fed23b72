package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pharmapos/m/internal/alerts"
	"pharmapos/m/internal/cart"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/logger"
	"pharmapos/m/internal/metrics"
	"pharmapos/m/internal/report"
	"pharmapos/m/internal/store"
)

type Options struct {
	Secret   string
	TokenTTL time.Duration
	// Location is the pharmacy's local time zone, used for report days.
	Location *time.Location
	Logger   *zap.Logger
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	poller    *alerts.Poller
	reports   *report.Reports
	committer *checkout.Committer
	sessions  *cart.Sessions
	validate  *validator.Validate
	log       *zap.Logger
	secret    string
	tokenTTL  time.Duration
	loc       *time.Location
	now       func() time.Time
}

// New constructs a Handler.
func New(st *store.Store, poller *alerts.Poller, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Handler{
		store:     st,
		poller:    poller,
		reports:   report.New(st),
		committer: checkout.NewCommitter(st, opts.Logger),
		sessions:  cart.NewSessions(),
		validate:  newValidator(),
		log:       opts.Logger,
		secret:    opts.Secret,
		tokenTTL:  opts.TokenTTL,
		loc:       opts.Location,
		now:       time.Now,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: true,
	}))
	r.Use(logger.Middleware(h.log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Get("/me", h.me)
			protected.Post("/logout", h.logout)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/drugs", func(r chi.Router) {
			r.Get("/", h.listDrugs)
			r.Get("/available", h.availableDrugs)
			r.Get("/{id}", h.getDrug)
			r.Group(func(admin chi.Router) {
				admin.Use(h.requireRole("admin"))
				admin.Post("/", h.createDrug)
				admin.Put("/{id}", h.updateDrug)
				admin.Delete("/{id}", h.deleteDrug)
			})
		})

		pr.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Put("/details", h.updateCartDetails)
			r.Post("/items", h.addCartItem)
			r.Put("/items/{drugID}", h.updateCartItem)
			r.Delete("/items/{drugID}", h.removeCartItem)
			r.Post("/checkout", h.checkout)
		})

		pr.Get("/sales/{id}/receipt", h.receipt)

		pr.With(h.requireRole("admin")).Post("/users", h.createUser)

		pr.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.listAlerts)
			r.Get("/count", h.countAlerts)
			r.Post("/refresh", h.refreshAlerts)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Use(h.requireRole("admin"))
			r.Get("/daily", h.dailyReport)
			r.Get("/daily.csv", h.dailyReportCSV)
			r.Get("/transactions", h.transactionsReport)
			r.Get("/top-drugs", h.topDrugsReport)
			r.Get("/summary", h.summaryReport)
		})

		pr.Get("/dashboard", h.dashboard)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DB().PingContext(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON rejects unknown fields and runs the struct's validate tags.
func (h *Handler) decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return errors.New("invalid request body")
	}
	if err := h.validate.Struct(dest); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
