package tax

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/cache"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/httpx"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
)

// Handler exposes tax endpoints.
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

// MountRoutes registers tax routes below /companies/{companyID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tax/computation", h.handleCompute)
	r.Get("/tax/settings", h.handleGetSettings)
	r.Put("/tax/settings", h.handlePutSettings)
	r.Get("/tax/carryforward", h.handleCarryforward)
	r.Get("/tax/final-withholding", h.handleFinalWithholding)
	r.Get("/tax/filings", h.handleGetFiling)
	r.With(httprate.LimitByIP(5, time.Minute)).Post("/tax/filings", h.handleFile)
}

func otherCreditsParam(r *http.Request) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("otherCredits"))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return nil, errors.Join(shared.ErrInvalidInput, errors.New("otherCredits must be a non-negative amount"))
	}
	return &v, nil
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	other, err := otherCreditsParam(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	comp, err := h.service.Compute(r.Context(), companyID, year, other)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	settings, err := h.service.Settings(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var in SettingsInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	in.CompanyID, in.TaxYear = companyID, year
	settings, err := h.service.SaveSettings(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) handleCarryforward(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	view, err := h.service.Carryforward(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleFinalWithholding(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.service.FinalWithholding(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	if rows == nil {
		rows = []FinalWithholding{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleGetFiling(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	filing, err := h.service.Filing(r.Context(), companyID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, filing)
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	companyID, year, err := statements.YearParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	other, err := otherCreditsParam(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	filing, err := h.service.FileReturn(r.Context(), FileInput{
		CompanyID:    companyID,
		Year:         year,
		ActorID:      httpx.ActorID(r),
		OtherCredits: other,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, filing)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, statements.ErrInvalidPeriod), errors.Is(err, ErrInvalidSettings), errors.Is(err, shared.ErrInvalidInput):
		httpx.BadRequest(w, err.Error())
	case errors.Is(err, ErrFilingNotFound):
		httpx.NotFound(w, err.Error())
	case errors.Is(err, ErrAlreadyFiled), errors.Is(err, ErrLedgerEntryExists), errors.Is(err, cache.ErrLockHeld):
		httpx.Conflict(w, err.Error())
	default:
		h.logger.Error("tax request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
