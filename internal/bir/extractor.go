package bir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
)

// LedgerSource supplies company identity and vouchers.
type LedgerSource interface {
	Company(ctx context.Context, companyID int64) (ledger.Company, error)
	Vouchers(ctx context.Context, companyID int64, kind ledger.VoucherKind, rng ledger.DateRange) ([]ledger.Voucher, error)
}

// StatementSource supplies income totals for a window.
type StatementSource interface {
	SummaryFor(ctx context.Context, companyID int64, rng ledger.DateRange) (statements.Summary, error)
}

// TaxSource supplies the tax computation and final withholding income.
type TaxSource interface {
	Compute(ctx context.Context, companyID int64, year int, otherCredits *decimal.Decimal) (tax.Computation, error)
	FinalWithholding(ctx context.Context, companyID int64, year int) ([]tax.FinalWithholding, error)
}

// Request selects a form, company and period. Zero quarter or month means absent.
type Request struct {
	FormCode  string
	CompanyID int64
	Year      int
	Quarter   int
	Month     int
}

// Report is the packaged extract of one form.
type Report struct {
	Form        Form
	Period      statements.Period
	Company     ledger.Company
	GeneratedAt time.Time
	Data        Data
}

// MarshalJSON renders {formCode, period, company, generatedAt, data}.
func (r Report) MarshalJSON() ([]byte, error) {
	period := map[string]any{
		"year":      r.Period.Year,
		"label":     r.Period.Label(),
		"startDate": r.Period.Start.Format(time.DateOnly),
		"endDate":   r.Period.End.Format(time.DateOnly),
	}
	if r.Period.Quarter > 0 {
		period["quarter"] = r.Period.Quarter
	}
	if r.Period.Month > 0 {
		period["month"] = r.Period.Month
	}
	return json.Marshal(map[string]any{
		"formCode":    r.Form.Code,
		"formTitle":   r.Form.Title,
		"period":      period,
		"company":     r.Company,
		"generatedAt": r.GeneratedAt.Format(time.RFC3339),
		"data":        r.Data,
	})
}

// Extractor dispatches form codes to read-only projections.
type Extractor struct {
	ledger     LedgerSource
	statements StatementSource
	tax        TaxSource
	logger     *slog.Logger
	now        func() time.Time
}

// NewExtractor constructs an Extractor.
func NewExtractor(ledgerSrc LedgerSource, statementSrc StatementSource, taxSrc TaxSource, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ledger: ledgerSrc, statements: statementSrc, tax: taxSrc, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (e *Extractor) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Extract builds the data for one form. The form code and period are
// validated before anything is read. A company without a stored profile or
// without vouchers yields an extract with empty aggregates.
func (e *Extractor) Extract(ctx context.Context, req Request) (Report, error) {
	form, err := Lookup(req.FormCode)
	if err != nil {
		return Report{}, err
	}
	period, rng, err := form.Window(req.Year, req.Quarter, req.Month)
	if err != nil {
		return Report{}, err
	}

	var (
		company       ledger.Company
		receipts      []ledger.Voucher
		disbursements []ledger.Voucher
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := e.ledger.Company(gctx, req.CompanyID)
		if errors.Is(err, ledger.ErrCompanyNotFound) {
			company = ledger.Company{ID: req.CompanyID}
			return nil
		}
		company = c
		return err
	})
	g.Go(func() error {
		var err error
		receipts, err = e.ledger.Vouchers(gctx, req.CompanyID, ledger.VoucherKindReceipt, rng)
		return err
	})
	g.Go(func() error {
		var err error
		disbursements, err = e.ledger.Vouchers(gctx, req.CompanyID, ledger.VoucherKindDisbursement, rng)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("bir: load ledger: %w", err)
	}

	data, err := e.project(ctx, form, req, rng, receipts, disbursements)
	if err != nil {
		return Report{}, err
	}
	e.logger.Debug("bir extract built",
		slog.String("form", form.Code),
		slog.Int64("company_id", req.CompanyID),
		slog.String("period", period.Label()),
		slog.Int("receipts", len(receipts)),
		slog.Int("disbursements", len(disbursements)))
	return Report{
		Form:        form,
		Period:      period,
		Company:     company,
		GeneratedAt: e.now().UTC(),
		Data:        data,
	}, nil
}

func (e *Extractor) project(ctx context.Context, form Form, req Request, rng ledger.DateRange, receipts, disbursements []ledger.Voucher) (Data, error) {
	switch form.Shape {
	case ShapeWithholding:
		return BuildWithholding(disbursements, rng, form.Compensation), nil
	case ShapeWithholdingAnnual:
		final, err := e.tax.FinalWithholding(ctx, req.CompanyID, req.Year)
		if err != nil {
			return nil, err
		}
		return BuildWithholding(disbursements, rng, false).WithFinal(final), nil
	case ShapeAlphalist:
		return AlphalistData{Employees: Alphalist(disbursements, rng)}, nil
	case ShapeVat:
		out := VatReturn{Summary: statements.BuildVatSummary(receipts, disbursements, rng)}
		if form.Listings {
			out.Listings = &Listings{Sales: SalesListing(receipts, rng), Purchases: PurchaseListing(disbursements, rng)}
		}
		return out, nil
	case ShapeListings:
		return Listings{Sales: SalesListing(receipts, rng), Purchases: PurchaseListing(disbursements, rng)}, nil
	case ShapeIncome:
		summary, err := e.statements.SummaryFor(ctx, req.CompanyID, rng)
		if err != nil {
			return nil, err
		}
		out := NewIncomeSummary(rng, form.YearToDate, summary)
		if form.WithTax {
			comp, err := e.tax.Compute(ctx, req.CompanyID, req.Year, nil)
			if err != nil {
				return nil, err
			}
			out.Tax = &comp.Calculation
		}
		return out, nil
	default:
		return BuildGeneric(receipts, disbursements, rng), nil
	}
}
