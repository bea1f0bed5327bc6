package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockmaster/internal/ledger"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db     *sqlx.DB
	ledger *ledger.Service
	secret string
	log    *zap.Logger
}

// New constructs a Handler.
func New(db *sqlx.DB, ledgerSvc *ledger.Service, secret string, log *zap.Logger) *Handler {
	return &Handler{db: db, ledger: ledgerSvc, secret: secret, log: log}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
			r.Group(func(protected chi.Router) {
				protected.Use(h.authMiddleware)
				protected.Get("/me", h.me)
				protected.Put("/me", h.updateProfile)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Route("/stock", func(r chi.Router) {
				r.Get("/items", h.listItems)
				r.Post("/items", h.createItem)
				r.Post("/transactions", h.createTransaction)
				r.Get("/transactions", h.listTransactions)
				r.Get("/transactions/{id}", h.getTransaction)
			})

			pr.Route("/warehouses", func(r chi.Router) {
				r.Get("/", h.listWarehouses)
				r.Post("/", h.createWarehouse)
				r.Get("/locations", h.listLocations)
				r.Post("/locations", h.createLocation)
				r.Get("/{id}/inventory", h.warehouseInventory)
			})

			pr.Get("/stats", h.dashboardStats)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondLedgerError maps the ledger error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a persistence failure: logged, and
// reported without internal detail.
func (h *Handler) respondLedgerError(w http.ResponseWriter, err error) {
	var ve ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, ledger.ErrInsufficientStock), errors.Is(err, ledger.ErrInvalidTransfer):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateSKU):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("ledger operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
	}
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
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
