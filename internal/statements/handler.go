package statements

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/httpx"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Handler exposes statement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes below /companies/{companyID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/profit-loss", h.handleProfitLoss)
	r.Get("/reports/balance-sheet", h.handleBalanceSheet)
	r.Get("/reports/journal", h.handleJournal)
	r.Get("/reports/vat/summary", h.handleVatSummary)
	r.Get("/reports/vat/totals", h.handleVatTotals)
}

// YearParams reads companyID from the path and a mandatory year from the query.
func YearParams(r *http.Request) (int64, int, error) {
	companyID, err := httpx.PathInt64(r, "companyID")
	if err != nil {
		return 0, 0, err
	}
	year, ok, err := httpx.QueryInt(r, "year")
	if err != nil {
		return 0, 0, errors.Join(ErrInvalidPeriod, err)
	}
	if !ok {
		return 0, 0, errors.Join(ErrInvalidPeriod, errors.New("year is required"))
	}
	if err := ValidateYear(year); err != nil {
		return 0, 0, err
	}
	return companyID, year, nil
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	pl, err := h.service.ProfitLoss(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl.Rows)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	opts := h.service.DefaultBalanceSheetOptions()
	if r.URL.Query().Has("strict") {
		strict, err := httpx.QueryBool(r, "strict")
		if err != nil {
			h.fail(w, err)
			return
		}
		opts.StrictBalancing = strict
	}
	bs, err := h.service.BalanceSheet(r.Context(), companyID, year, opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	journal, err := h.service.JournalTotals(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, journal)
}

func (h *Handler) handleVatSummary(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.PathInt64(r, "companyID")
	if err != nil {
		h.fail(w, err)
		return
	}
	rng, err := ParseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		h.fail(w, err)
		return
	}
	summary, err := h.service.VatSummary(r.Context(), companyID, rng)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleVatTotals(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.service.VatTotals(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidPeriod) || errors.Is(err, shared.ErrInvalidInput) {
		httpx.BadRequest(w, err.Error())
		return
	}
	h.logger.Error("statement request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
