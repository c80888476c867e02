package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/bir"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/observability"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/cache"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
)

// Services is the assembled engine shared by the HTTP server, the worker and the CLI.
type Services struct {
	LedgerRepo *ledger.Repository
	Ledger     *ledger.Service
	Statements *statements.Service
	TaxRepo    *tax.PgRepository
	Tax        *tax.Service
	Extractor  *bir.Extractor
}

// NewServices wires repositories and services. redisClient may be nil, in
// which case filings are serialised by the database transaction alone.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *Services {
	audit := shared.NewAuditLogger(pool)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, audit, logger)

	statementService := statements.NewService(ledgerRepo, statements.Options{
		Roles:           cfg.AccountRoles(),
		StrictBalancing: cfg.BalanceSheetStrict,
	}, statements.NewMetrics(metrics.Registerer()), logger)

	taxRepo := tax.NewRepository(pool)
	var locker tax.Locker
	if redisClient != nil {
		locker = cache.NewLocker(redisClient, cfg.TaxFilingLockTTL)
	}
	taxService := tax.NewService(taxRepo, statementService, locker, audit, cfg.TaxRates(), logger)

	return &Services{
		LedgerRepo: ledgerRepo,
		Ledger:     ledgerService,
		Statements: statementService,
		TaxRepo:    taxRepo,
		Tax:        taxService,
		Extractor:  bir.NewExtractor(ledgerRepo, statementService, taxService, logger),
	}
}

// Handlers builds the HTTP handlers over the services.
func (s *Services) Handlers(logger *slog.Logger) CompanyHandlers {
	return CompanyHandlers{
		Ledger:     ledger.NewHandler(logger, s.Ledger, s.LedgerRepo),
		Statements: statements.NewHandler(logger, s.Statements),
		Tax:        tax.NewHandler(logger, s.Tax),
		Bir:        bir.NewHandler(logger, s.Extractor),
	}
}
