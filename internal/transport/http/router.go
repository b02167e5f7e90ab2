package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints. Mutating routes sit behind bearer
// authentication; enumeration views and operational probes stay open.
func NewRouter(h *Handler, signingKey []byte, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(signingKey, logger))
		r.Post("/items", h.handleMint)
		r.Post("/items/{id}/listing", h.handleList)
		r.Delete("/items/{id}/listing", h.handleUnlist)
		r.Post("/items/{id}/buy", h.handleBuy)
		r.Post("/items/{id}/transfer", h.handleTransfer)
		r.Post("/withdrawals", h.handleWithdraw)
	})

	r.Get("/items", h.handleItems)
	r.Get("/items/{id}", h.handleItemDetail)
	r.Get("/listings", h.handleListings)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
