package tax

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
)

// Repository abstracts tax persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSettings(ctx context.Context, companyID int64, year int) (Settings, bool, error)
	UpsertSettings(ctx context.Context, s Settings) error
	ListEntries(ctx context.Context, companyID int64, kind Kind) ([]Entry, error)
	FinalWithholding(ctx context.Context, companyID int64, year int) ([]FinalWithholding, error)
	GetFiling(ctx context.Context, companyID int64, year int) (Filing, error)
}

// SummarySource supplies annual income totals.
type SummarySource interface {
	Summary(ctx context.Context, companyID int64, year int) (statements.Summary, error)
}

// Locker serialises filings per company and year.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// AuditPort records filings.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service computes and files corporate income tax.
type Service struct {
	repo      Repository
	summaries SummarySource
	locker    Locker
	audit     AuditPort
	defaults  Rates
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the tax service.
func NewService(repo Repository, summaries SummarySource, locker Locker, audit AuditPort, defaults Rates, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.TaxRate.IsZero() && defaults.McitRate.IsZero() {
		defaults = DefaultRates()
	}
	return &Service{repo: repo, summaries: summaries, locker: locker, audit: audit, defaults: defaults, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Settings returns stored settings or defaults for the year.
func (s *Service) Settings(ctx context.Context, companyID int64, year int) (Settings, error) {
	if err := statements.ValidateYear(year); err != nil {
		return Settings{}, err
	}
	stored, ok, err := s.repo.GetSettings(ctx, companyID, year)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return DefaultSettings(companyID, year, s.defaults), nil
	}
	return stored, nil
}

// SaveSettings validates and upserts settings.
func (s *Service) SaveSettings(ctx context.Context, in SettingsInput) (Settings, error) {
	settings, err := in.Parse()
	if err != nil {
		return Settings{}, err
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return Settings{}, err
	}
	settings.Stored = true
	return settings, nil
}

// Carryforward lists both ledgers with their state for year.
type Carryforward struct {
	Year                 int         `json:"year"`
	Nolco                []EntryView `json:"nolco"`
	McitCredits          []EntryView `json:"mcitCredits"`
	AvailableNolco       string      `json:"availableNolco"`
	AvailableMcitCredits string      `json:"availableMcitCredits"`
}

// Carryforward loads the NOLCO and MCIT ledgers annotated for year.
func (s *Service) Carryforward(ctx context.Context, companyID int64, year int) (Carryforward, error) {
	if err := statements.ValidateYear(year); err != nil {
		return Carryforward{}, err
	}
	nolco, mcit, err := s.ledgers(ctx, companyID)
	if err != nil {
		return Carryforward{}, err
	}
	return Carryforward{
		Year:                 year,
		Nolco:                Views(nolco, year),
		McitCredits:          Views(mcit, year),
		AvailableNolco:       shared.Fixed(Available(nolco, year)),
		AvailableMcitCredits: shared.Fixed(Available(mcit, year)),
	}, nil
}

func (s *Service) ledgers(ctx context.Context, companyID int64) ([]Entry, []Entry, error) {
	nolco, err := s.repo.ListEntries(ctx, companyID, KindNolco)
	if err != nil {
		return nil, nil, err
	}
	mcit, err := s.repo.ListEntries(ctx, companyID, KindMcit)
	if err != nil {
		return nil, nil, err
	}
	return nolco, mcit, nil
}

// Computation bundles a calculation with the inputs it used.
type Computation struct {
	Year        int                `json:"year"`
	Settings    Settings           `json:"settings"`
	Summary     statements.Summary `json:"summary"`
	Calculation Calculation        `json:"calculation"`
}

// Compute reads the year's summary, settings and available credits and runs
// ComputeTax. otherCredits overrides the stored manual credits when non-nil.
// Nothing is written.
func (s *Service) Compute(ctx context.Context, companyID int64, year int, otherCredits *decimal.Decimal) (Computation, error) {
	settings, err := s.Settings(ctx, companyID, year)
	if err != nil {
		return Computation{}, err
	}
	summary, err := s.summaries.Summary(ctx, companyID, year)
	if err != nil {
		return Computation{}, err
	}
	nolco, mcit, err := s.ledgers(ctx, companyID)
	if err != nil {
		return Computation{}, err
	}
	other := settings.CreditsAvailable
	if otherCredits != nil {
		other = *otherCredits
	}
	calc := ComputeTax(summary, settings.Rates(), Credits{
		AvailableNolco:       Available(nolco, year),
		AvailableMcitCredits: Available(mcit, year),
		OtherCredits:         other,
	})
	return Computation{Year: year, Settings: settings, Summary: summary, Calculation: calc}, nil
}

// FileInput identifies the return to file.
type FileInput struct {
	CompanyID    int64
	Year         int
	ActorID      int64
	OtherCredits *decimal.Decimal
}

// FileReturn applies carryforward credits to the year's return and records the
// filing. NOLCO is consumed up to income before NOLCO and MCIT credits up to
// the tax due, earliest expiry first. A net operating loss opens a NOLCO entry
// and an MCIT excess opens an MCIT credit. Everything happens in one
// transaction under a per-company, per-year lock; a year can be filed once.
func (s *Service) FileReturn(ctx context.Context, in FileInput) (Filing, error) {
	settings, err := s.Settings(ctx, in.CompanyID, in.Year)
	if err != nil {
		return Filing{}, err
	}
	summary, err := s.summaries.Summary(ctx, in.CompanyID, in.Year)
	if err != nil {
		return Filing{}, err
	}
	other := settings.CreditsAvailable
	if in.OtherCredits != nil {
		other = *in.OtherCredits
	}

	var filing Filing
	run := func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			filed, err := tx.FilingExists(ctx, in.CompanyID, in.Year)
			if err != nil {
				return err
			}
			if filed {
				return ErrAlreadyFiled
			}
			nolco, err := tx.LockEntries(ctx, in.CompanyID, KindNolco)
			if err != nil {
				return err
			}
			mcit, err := tx.LockEntries(ctx, in.CompanyID, KindMcit)
			if err != nil {
				return err
			}
			f, err := s.apply(in, summary, settings.Rates(), other, nolco, mcit)
			if err != nil {
				return err
			}
			for _, list := range [][]Entry{nolco, mcit} {
				for _, e := range list {
					if appliedTo(f.Applications, e) {
						if err := tx.UpdateEntryUsage(ctx, e); err != nil {
							return err
						}
					}
				}
			}
			for _, created := range []*Entry{f.NewNolco, f.NewMcitCredit} {
				if created == nil {
					continue
				}
				id, err := tx.InsertEntry(ctx, *created)
				if err != nil {
					return err
				}
				created.ID = id
			}
			if err := tx.InsertFiling(ctx, f); err != nil {
				return err
			}
			filing = f
			return nil
		})
	}
	if s.locker != nil {
		err = s.locker.WithLock(ctx, shared.TaxFilingLockKey(in.CompanyID, in.Year), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return Filing{}, err
	}

	s.logger.Info("tax return filed",
		slog.Int64("company_id", in.CompanyID),
		slog.Int("year", in.Year),
		slog.String("final_tax_due", shared.Fixed(filing.Calculation.FinalTaxDue)),
		slog.String("nolco_applied", shared.Fixed(filing.NolcoApplied)),
		slog.String("mcit_credit_applied", shared.Fixed(filing.McitCreditApplied)))
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:   in.ActorID,
			CompanyID: in.CompanyID,
			Action:    "tax.file",
			Entity:    "tax_filing",
			EntityID:  filing.ID.String(),
			Meta:      map[string]any{"year": strconv.Itoa(in.Year), "final_tax_due": shared.Fixed(filing.Calculation.FinalTaxDue)},
			At:        filing.FiledAt,
		}); err != nil {
			s.logger.Warn("audit tax filing", slog.Any("error", err))
		}
	}
	return filing, nil
}

// apply is the pure core of FileReturn. nolco and mcit are consumed in place.
func (s *Service) apply(in FileInput, summary statements.Summary, rates Rates, other decimal.Decimal, nolco, mcit []Entry) (Filing, error) {
	calc := ComputeTax(summary, rates, Credits{
		AvailableNolco:       Claimable(nolco, in.Year),
		AvailableMcitCredits: Claimable(mcit, in.Year),
		OtherCredits:         other,
	})

	operating := summary.TotalRevenue.Sub(summary.TotalCost).Sub(summary.TotalExpenses)
	nolcoApps, nolcoApplied, err := ApplyFIFO(nolco, in.Year, operating)
	if err != nil {
		return Filing{}, fmt.Errorf("apply nolco: %w", err)
	}
	mcitApps, mcitApplied, err := ApplyFIFO(mcit, in.Year, calc.TaxDue)
	if err != nil {
		return Filing{}, fmt.Errorf("apply mcit credits: %w", err)
	}

	f := Filing{
		ID:                uuid.New(),
		CompanyID:         in.CompanyID,
		TaxYear:           in.Year,
		Calculation:       calc,
		NolcoApplied:      nolcoApplied,
		McitCreditApplied: mcitApplied,
		Applications:      append(nolcoApps, mcitApps...),
		FiledBy:           in.ActorID,
		FiledAt:           s.now().UTC(),
	}
	if operating.IsNegative() {
		e := NewNolcoEntry(in.CompanyID, in.Year, operating.Neg().Round(2))
		f.NewNolco = &e
	}
	if calc.IsMcitApplied {
		e := NewMcitCredit(in.CompanyID, in.Year, calc.Mcit.Sub(calc.RegularTax))
		f.NewMcitCredit = &e
	}
	return f, nil
}

func appliedTo(apps []Application, e Entry) bool {
	for _, a := range apps {
		if a.Kind == e.Kind && a.EntryID == e.ID {
			return true
		}
	}
	return false
}

// Filing returns the recorded filing for year.
func (s *Service) Filing(ctx context.Context, companyID int64, year int) (Filing, error) {
	return s.repo.GetFiling(ctx, companyID, year)
}

// FinalWithholding lists final withholding income for year.
func (s *Service) FinalWithholding(ctx context.Context, companyID int64, year int) ([]FinalWithholding, error) {
	return s.repo.FinalWithholding(ctx, companyID, year)
}
