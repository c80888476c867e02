package bir

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
	_ "github.com/Shin-zuo/LL-AccountingSystem-sub000/testing"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(month time.Month, dd int) time.Time {
	return time.Date(2024, month, dd, 0, 0, 0, 0, time.UTC)
}

func party(tin, name string) ledger.Counterparty {
	return ledger.Counterparty{TIN: tin, Name: name, Address: name + " St., Makati"}
}

func fixtureReceipts() []ledger.Voucher {
	return []ledger.Voucher{
		{ID: 1, Kind: ledger.VoucherKindReceipt, Number: "OR-001", Date: day(time.March, 5), Counterparty: party("111-222-333", "Acme Trading"),
			TotalAmount: d("11200"), VatAmount: d("1200"), NetAmount: d("10000"), IsVatable: true},
		{ID: 2, Kind: ledger.VoucherKindReceipt, Number: "OR-002", Date: day(time.March, 20), Counterparty: party("444-555-666", "Export Co"),
			TotalAmount: d("5000"), NetAmount: d("5000"), IsZeroRated: true},
		{ID: 3, Kind: ledger.VoucherKindReceipt, Number: "OR-003", Date: day(time.May, 2), Counterparty: party("", "Walk-in"),
			TotalAmount: d("3000")},
	}
}

func fixtureDisbursements() []ledger.Voucher {
	return []ledger.Voucher{
		{ID: 11, Kind: ledger.VoucherKindDisbursement, Number: "CV-001", Date: day(time.March, 10), Counterparty: party("999-000-111", "Supplier Inc"),
			TotalAmount: d("2240"), VatAmount: d("240"), NetAmount: d("2000"), HasInputVat: true, WithholdingTax: d("40")},
		{ID: 12, Kind: ledger.VoucherKindDisbursement, Number: "CV-002", Date: day(time.March, 31), Counterparty: party("123-123-123", "Juan Dela Cruz"),
			TotalAmount: d("18000"), WithholdingTax: d("2000"), IsCompensation: true},
		{ID: 13, Kind: ledger.VoucherKindDisbursement, Number: "CV-003", Date: day(time.April, 30), Counterparty: party("123-123-123", "Juan Dela Cruz"),
			TotalAmount: d("18000"), WithholdingTax: d("2000"), IsCompensation: true},
		{ID: 14, Kind: ledger.VoucherKindDisbursement, Number: "CV-004", Date: day(time.February, 15), Counterparty: party("456-456-456", "Ana Reyes"),
			TotalAmount: d("15000"), IsCompensation: true},
		{ID: 15, Kind: ledger.VoucherKindDisbursement, Number: "CV-005", Date: day(time.June, 1), Counterparty: party("777-777-777", "Landlord"),
			TotalAmount: d("5000"), WithholdingTax: d("250")},
	}
}

type stubLedger struct {
	company ledger.Company
	found   bool
	calls   atomic.Int32
}

func (s *stubLedger) Company(ctx context.Context, companyID int64) (ledger.Company, error) {
	s.calls.Add(1)
	if !s.found {
		return ledger.Company{}, ledger.ErrCompanyNotFound
	}
	return s.company, nil
}

func (s *stubLedger) Vouchers(ctx context.Context, companyID int64, kind ledger.VoucherKind, rng ledger.DateRange) ([]ledger.Voucher, error) {
	s.calls.Add(1)
	all := fixtureReceipts()
	if kind == ledger.VoucherKindDisbursement {
		all = fixtureDisbursements()
	}
	out := make([]ledger.Voucher, 0, len(all))
	for _, v := range all {
		if rng.Contains(v.Date) {
			out = append(out, v)
		}
	}
	return out, nil
}

type stubStatements struct {
	lastRange ledger.DateRange
}

func (s *stubStatements) SummaryFor(ctx context.Context, companyID int64, rng ledger.DateRange) (statements.Summary, error) {
	s.lastRange = rng
	return statements.Summary{
		TotalRevenue:  d("18000"),
		TotalCost:     d("2000"),
		TotalExpenses: d("6000"),
		NetIncome:     d("10000"),
	}, nil
}

type stubTax struct {
	final []tax.FinalWithholding
}

func (s *stubTax) Compute(ctx context.Context, companyID int64, year int, otherCredits *decimal.Decimal) (tax.Computation, error) {
	return tax.Computation{Year: year, Calculation: tax.Calculation{FinalTaxDue: d("1234.50")}}, nil
}

func (s *stubTax) FinalWithholding(ctx context.Context, companyID int64, year int) ([]tax.FinalWithholding, error) {
	return s.final, nil
}

func newFixtureExtractor() (*Extractor, *stubLedger, *stubStatements) {
	led := &stubLedger{company: ledger.Company{ID: 1, Name: "Sari-Sari Corp", TIN: "000-111-222-000", RDOCode: "050"}, found: true}
	st := &stubStatements{}
	tx := &stubTax{final: []tax.FinalWithholding{
		{CompanyID: 1, TaxYear: 2024, Quarter: 1, IncomeType: "interest", GrossAmount: d("500"), TaxWithheld: d("100")},
		{CompanyID: 1, TaxYear: 2024, Quarter: 3, IncomeType: "dividends", GrossAmount: d("500"), TaxWithheld: d("50")},
	}}
	ex := NewExtractor(led, st, tx, nil)
	ex.WithNow(func() time.Time { return time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC) })
	return ex, led, st
}
