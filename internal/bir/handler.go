package bir

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/httpx"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Handler exposes BIR extracts.
type Handler struct {
	logger    *slog.Logger
	extractor *Extractor
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, extractor *Extractor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, extractor: extractor}
}

// MountRoutes registers BIR routes below /companies/{companyID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bir/forms", h.handleCatalog)
	r.Get("/bir/{formCode}", h.handleExtract)
}

func (h *Handler) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, Catalog())
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.PathInt64(r, "companyID")
	if err != nil {
		h.fail(w, err)
		return
	}
	req := Request{FormCode: chi.URLParam(r, "formCode"), CompanyID: companyID}
	for name, dst := range map[string]*int{"year": &req.Year, "quarter": &req.Quarter, "month": &req.Month} {
		v, _, err := httpx.QueryInt(r, name)
		if err != nil {
			h.fail(w, errors.Join(ErrInvalidPeriod, err))
			return
		}
		*dst = v
	}
	report, err := h.extractor.Extract(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownFormCode), errors.Is(err, ErrInvalidPeriod), errors.Is(err, shared.ErrInvalidInput):
		httpx.BadRequest(w, err.Error())
	default:
		h.logger.Error("bir extract failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
