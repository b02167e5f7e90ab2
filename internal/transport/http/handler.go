// Package httptransport is the thin HTTP layer. Handlers decode requests,
// delegate to the market service and translate domain errors into the JSON
// error envelope; business logic stays in internal/market.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"curio/internal/market/models"
	"curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
)

// MarketService defines the operations the transport exposes.
type MarketService interface {
	Mint(ctx context.Context, caller domain.AccountID, descriptor string) (domain.ItemID, error)
	List(ctx context.Context, caller domain.AccountID, id domain.ItemID, price *uint256.Int) error
	Unlist(ctx context.Context, caller domain.AccountID, id domain.ItemID) error
	Buy(ctx context.Context, caller domain.AccountID, id domain.ItemID, payment *uint256.Int) error
	Withdraw(ctx context.Context, caller domain.AccountID) (*uint256.Int, error)
	TransferToWinner(ctx context.Context, caller domain.AccountID, id domain.ItemID, winner domain.AccountID) error
	ListedItems(ctx context.Context) ([]domain.ItemID, error)
	ItemsOwnedBy(ctx context.Context, account domain.AccountID) ([]domain.ItemID, error)
	ItemDetail(ctx context.Context, id domain.ItemID) (models.ItemDetail, error)
	ListingDetails(ctx context.Context) ([]models.ActiveListing, error)
}

// Handler handles the marketplace endpoints.
type Handler struct {
	market MarketService
	logger *slog.Logger
}

func NewHandler(market MarketService, logger *slog.Logger) *Handler {
	return &Handler{market: market, logger: logger}
}

type mintRequest struct {
	Descriptor string `json:"descriptor"`
}

type mintResponse struct {
	ID uint64 `json:"id"`
}

type listRequest struct {
	Price string `json:"price"`
}

type buyRequest struct {
	Payment string `json:"payment"`
}

type transferRequest struct {
	Winner string `json:"winner"`
}

type withdrawResponse struct {
	Amount string `json:"amount"`
}

type idsResponse struct {
	IDs []uint64 `json:"ids"`
}

type itemDetailResponse struct {
	ID         uint64 `json:"id"`
	Owner      string `json:"owner"`
	Seller     string `json:"seller,omitempty"`
	Price      string `json:"price"`
	Listed     bool   `json:"listed"`
	Descriptor string `json:"descriptor"`
}

type listingResponse struct {
	ItemID uint64 `json:"item_id"`
	Seller string `json:"seller"`
	Price  string `json:"price"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, err := h.market.Mint(r.Context(), GetAccountID(r.Context()), req.Descriptor)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "mint failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mintResponse{ID: uint64(id)})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		writeError(w, models.ErrInvalidPrice)
		return
	}
	if err := h.market.List(r.Context(), GetAccountID(r.Context()), id, price); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnlist(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	if err := h.market.Unlist(r.Context(), GetAccountID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "payment must be a decimal amount"))
		return
	}
	if err := h.market.Buy(r.Context(), GetAccountID(r.Context()), id, payment); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := h.market.Withdraw(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{Amount: amount.Dec()})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	winner, err := domain.ParseAccountID(req.Winner)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.market.TransferToWinner(r.Context(), GetAccountID(r.Context()), id, winner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleItems serves both enumeration views: ?owner=<uuid> for holdings,
// ?listed=true for the active listing set.
func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		owner, err := domain.ParseAccountID(ownerParam)
		if err != nil {
			writeError(w, err)
			return
		}
		ids, err := h.market.ItemsOwnedBy(r.Context(), owner)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toIDsResponse(ids))
		return
	}
	if r.URL.Query().Get("listed") == "true" {
		ids, err := h.market.ListedItems(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toIDsResponse(ids))
		return
	}
	writeError(w, dErrors.New(dErrors.CodeBadRequest, "specify owner=<uuid> or listed=true"))
}

func (h *Handler) handleItemDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	detail, err := h.market.ItemDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := itemDetailResponse{
		ID:         uint64(detail.ID),
		Owner:      detail.Owner.String(),
		Price:      detail.Price.Dec(),
		Listed:     detail.Listed,
		Descriptor: detail.Descriptor,
	}
	if detail.Listed {
		resp.Seller = detail.Seller.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.market.ListingDetails(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(rows))
	for _, l := range rows {
		out = append(out, listingResponse{
			ItemID: uint64(l.ItemID),
			Seller: l.Seller.String(),
			Price:  l.Price.Dec(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func itemIDParam(w http.ResponseWriter, r *http.Request) (domain.ItemID, bool) {
	id, err := domain.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return 0, false
	}
	return id, true
}

func parseAmount(s string) (*uint256.Int, error) {
	return uint256.FromDecimal(s)
}

func toIDsResponse(ids []domain.ItemID) idsResponse {
	out := idsResponse{IDs: make([]uint64, 0, len(ids))}
	for _, id := range ids {
		out.IDs = append(out.IDs, uint64(id))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	wire := models.WireCode(err)
	if wire == "" {
		wire = string(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": wire})
}
