package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/httpx"
)

// AccountLister loads a company's chart.
type AccountLister interface {
	Accounts(ctx context.Context, companyID int64) ([]Account, error)
}

// Handler wires voucher and chart endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	accounts AccountLister
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, accounts AccountLister) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, accounts: accounts}
}

// MountRoutes registers routes below /companies/{companyID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.handleListAccounts)
	r.Post("/vouchers/{kind}/{voucherID}/approve", h.handleApprove)
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.PathInt64(r, "companyID")
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	accounts, err := h.accounts.Accounts(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err), slog.Int64("company_id", companyID))
		httpx.RespondError(w, err)
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.PathInt64(r, "companyID")
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	voucherID, err := httpx.PathInt64(r, "voucherID")
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	kind, err := ParseVoucherKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	status, err := h.service.Approve(r.Context(), ApproveInput{
		CompanyID: companyID,
		Kind:      kind,
		VoucherID: voucherID,
		ActorID:   httpx.ActorID(r),
	})
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"id": voucherID, "kind": kind, "status": status})
	case errors.Is(err, ErrVoucherNotFound):
		httpx.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Conflict(w, err.Error())
	default:
		h.logger.Error("approve voucher", slog.Any("error", err), slog.Int64("voucher_id", voucherID))
		httpx.RespondError(w, err)
	}
}
