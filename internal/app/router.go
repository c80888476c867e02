package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/bir"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/observability"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/httpx"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/jobs"
)

// CompanyHandlers are mounted below /companies/{companyID}.
type CompanyHandlers struct {
	Ledger     *ledger.Handler
	Statements *statements.Handler
	Tax        *tax.Handler
	Bir        *bir.Handler
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Handlers   CompanyHandlers
	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/companies/{companyID}", func(r chi.Router) {
		h := params.Handlers
		if h.Ledger != nil {
			h.Ledger.MountRoutes(r)
		}
		if h.Statements != nil {
			h.Statements.MountRoutes(r)
		}
		if h.Tax != nil {
			h.Tax.MountRoutes(r)
		}
		if h.Bir != nil {
			h.Bir.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.NotFound(w, "no route for "+r.URL.Path)
	})
	return r
}
