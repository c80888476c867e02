package statements

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

// Source supplies chart and voucher collections filtered by company and dates.
type Source interface {
	Accounts(ctx context.Context, companyID int64) ([]ledger.Account, error)
	AccountRoles(ctx context.Context, companyID int64) (ledger.AccountRoles, error)
	Vouchers(ctx context.Context, companyID int64, kind ledger.VoucherKind, rng ledger.DateRange) ([]ledger.Voucher, error)
}

// Options configures the statement service.
type Options struct {
	Roles           ledger.AccountRoles
	StrictBalancing bool
}

// Service builds statements on read. It keeps no state between calls beyond
// coalescing identical in-flight builds.
type Service struct {
	source  Source
	opts    Options
	metrics *Metrics
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService constructs the statement service. Empty roles fall back to the defaults.
func NewService(source Source, opts Options, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts.Roles = ledger.DefaultAccountRoles().Merge(opts.Roles)
	return &Service{source: source, opts: opts, metrics: metrics, logger: logger}
}

// DefaultBalanceSheetOptions returns the configured balance sheet behaviour.
func (s *Service) DefaultBalanceSheetOptions() BalanceSheetOptions {
	return BalanceSheetOptions{StrictBalancing: s.opts.StrictBalancing}
}

// LoadBook fetches chart, roles and both voucher streams for rng concurrently.
func (s *Service) LoadBook(ctx context.Context, companyID int64, year int, rng ledger.DateRange) (Book, error) {
	var (
		accounts      []ledger.Account
		override      ledger.AccountRoles
		receipts      []ledger.Voucher
		disbursements []ledger.Voucher
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.source.Accounts(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		override, err = s.source.AccountRoles(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		receipts, err = s.source.Vouchers(gctx, companyID, ledger.VoucherKindReceipt, rng)
		return err
	})
	g.Go(func() error {
		var err error
		disbursements, err = s.source.Vouchers(gctx, companyID, ledger.VoucherKindDisbursement, rng)
		return err
	})
	if err := g.Wait(); err != nil {
		return Book{}, fmt.Errorf("statements: load ledger: %w", err)
	}
	book := NewBook(companyID, year, accounts, s.opts.Roles.Merge(override), receipts, disbursements)
	book.Range = rng
	return book, nil
}

func (s *Service) loadYear(ctx context.Context, companyID int64, year int) (Book, error) {
	if err := ValidateYear(year); err != nil {
		return Book{}, err
	}
	return s.LoadBook(ctx, companyID, year, ledger.YearRange(year))
}

func (s *Service) build(ctx context.Context, report string, companyID int64, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	start := time.Now()
	// The shared build outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := s.group.DoChan(fmt.Sprintf("%s:%d:%s", report, companyID, key), func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		s.metrics.observe(report, time.Since(start).Seconds())
		return res.Val, res.Err
	}
}

// ProfitLoss builds the income statement for year.
func (s *Service) ProfitLoss(ctx context.Context, companyID int64, year int) (ProfitLoss, error) {
	v, err := s.build(ctx, "profit_loss", companyID, fmt.Sprint(year), func(ctx context.Context) (any, error) {
		book, err := s.loadYear(ctx, companyID, year)
		if err != nil {
			return nil, err
		}
		pl := BuildProfitLoss(book)
		s.reportGaps(companyID, year, pl.Gaps)
		return pl, nil
	})
	if err != nil {
		return ProfitLoss{}, err
	}
	return v.(ProfitLoss), nil
}

// Summary returns the annual income totals for tax computation.
func (s *Service) Summary(ctx context.Context, companyID int64, year int) (Summary, error) {
	pl, err := s.ProfitLoss(ctx, companyID, year)
	if err != nil {
		return Summary{}, err
	}
	return pl.Summary, nil
}

// SummaryFor returns income totals for an arbitrary window inside one year.
func (s *Service) SummaryFor(ctx context.Context, companyID int64, rng ledger.DateRange) (Summary, error) {
	if rng.From.Year() != rng.To.Year() {
		return Summary{}, fmt.Errorf("%w: window spans years", ErrInvalidPeriod)
	}
	book, err := s.LoadBook(ctx, companyID, rng.From.Year(), rng)
	if err != nil {
		return Summary{}, err
	}
	return BuildProfitLoss(book).Summary, nil
}

// BalanceSheet builds cumulative balances for year.
func (s *Service) BalanceSheet(ctx context.Context, companyID int64, year int, opts BalanceSheetOptions) (BalanceSheet, error) {
	v, err := s.build(ctx, "balance_sheet", companyID, fmt.Sprintf("%d:%t", year, opts.StrictBalancing), func(ctx context.Context) (any, error) {
		book, err := s.loadYear(ctx, companyID, year)
		if err != nil {
			return nil, err
		}
		bs := BuildBalanceSheet(book, opts)
		s.metrics.recordBalanceSheet(companyID, year, bs)
		if !bs.Divergence.IsZero() || !bs.EquationGap.IsZero() {
			s.logger.Warn("balance sheet does not reconcile",
				slog.Int64("company_id", companyID),
				slog.Int("year", year),
				slog.String("divergence", bs.Divergence.StringFixed(2)),
				slog.String("equation_gap", bs.EquationGap.StringFixed(2)),
				slog.Bool("strict", opts.StrictBalancing))
		}
		return bs, nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	return v.(BalanceSheet), nil
}

// JournalTotals builds the per-account debit and credit view for year.
func (s *Service) JournalTotals(ctx context.Context, companyID int64, year int) (JournalTotals, error) {
	book, err := s.loadYear(ctx, companyID, year)
	if err != nil {
		return JournalTotals{}, err
	}
	return BuildJournalTotals(book), nil
}

// VatSummary totals the VAT books over an inclusive date window.
func (s *Service) VatSummary(ctx context.Context, companyID int64, rng ledger.DateRange) (VatSummary, error) {
	if rng.To.Before(rng.From) {
		return VatSummary{}, fmt.Errorf("%w: end before start", ErrInvalidPeriod)
	}
	book, err := s.LoadBook(ctx, companyID, rng.From.Year(), rng)
	if err != nil {
		return VatSummary{}, err
	}
	return BuildVatSummary(book.Receipts, book.Disbursements, rng), nil
}

// VatTotals builds the monthly VAT table for year.
func (s *Service) VatTotals(ctx context.Context, companyID int64, year int) ([]VatMonthRow, error) {
	book, err := s.loadYear(ctx, companyID, year)
	if err != nil {
		return nil, err
	}
	return BuildVatTotals(book), nil
}

func (s *Service) reportGaps(companyID int64, year int, gaps []Gap) {
	if len(gaps) == 0 {
		return
	}
	s.metrics.recordGaps(gaps)
	for _, g := range gaps {
		s.logger.Warn("classification gap: amount dropped",
			slog.Int64("company_id", companyID),
			slog.Int("year", year),
			slog.String("kind", string(g.Kind)),
			slog.Int64("voucher_id", g.VoucherID),
			slog.String("amount", g.Amount.StringFixed(2)))
	}
}
