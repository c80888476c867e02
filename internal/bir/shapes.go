package bir

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
)

// Data is implemented by every form projection.
type Data interface {
	Totals() map[string]decimal.Decimal
}

// WithholdingMonth is one month of withholding within the window.
type WithholdingMonth struct {
	Month       int
	TaxBase     decimal.Decimal
	TaxWithheld decimal.Decimal
}

// MarshalJSON renders amounts with two fractional digits.
func (m WithholdingMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"month":       m.Month,
		"taxBase":     shared.Fixed(m.TaxBase),
		"taxWithheld": shared.Fixed(m.TaxWithheld),
	})
}

// WithholdingSummary totals expanded or compensation withholding by month.
// Final withholding rows are attached for the annual information return.
type WithholdingSummary struct {
	Compensation     bool
	Months           []WithholdingMonth
	TaxBase          decimal.Decimal
	TaxWithheld      decimal.Decimal
	Payees           int
	FinalWithholding []tax.FinalWithholding
	FinalTaxWithheld decimal.Decimal
}

// Totals implements Data.
func (s WithholdingSummary) Totals() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{"taxBase": s.TaxBase, "taxWithheld": s.TaxWithheld}
	if s.FinalWithholding != nil {
		out["finalTaxWithheld"] = s.FinalTaxWithheld
	}
	return out
}

// MarshalJSON renders amounts with two fractional digits.
func (s WithholdingSummary) MarshalJSON() ([]byte, error) {
	kind := "expanded"
	if s.Compensation {
		kind = "compensation"
	}
	out := map[string]any{
		"type":        kind,
		"months":      s.Months,
		"taxBase":     shared.Fixed(s.TaxBase),
		"taxWithheld": shared.Fixed(s.TaxWithheld),
		"payees":      s.Payees,
	}
	if s.FinalWithholding != nil {
		out["finalWithholding"] = s.FinalWithholding
		out["finalTaxWithheld"] = shared.Fixed(s.FinalTaxWithheld)
	}
	return json.Marshal(out)
}

// BuildWithholding sums disbursements in rng month by month. Compensation
// selects payroll vouchers; otherwise only non-payroll vouchers with tax
// withheld count. Payees are distinct counterparties.
func BuildWithholding(disbursements []ledger.Voucher, rng ledger.DateRange, compensation bool) WithholdingSummary {
	s := WithholdingSummary{Compensation: compensation, TaxBase: decimal.Zero, TaxWithheld: decimal.Zero}
	slot := make(map[time.Month]int)
	for m := time.Date(rng.From.Year(), rng.From.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(rng.To); m = m.AddDate(0, 1, 0) {
		slot[m.Month()] = len(s.Months)
		s.Months = append(s.Months, WithholdingMonth{Month: int(m.Month()), TaxBase: decimal.Zero, TaxWithheld: decimal.Zero})
	}
	payees := make(map[string]struct{})
	for _, v := range disbursements {
		if !rng.Contains(v.Date) || v.IsCompensation != compensation {
			continue
		}
		if !compensation && !v.WithholdingTax.IsPositive() {
			continue
		}
		i, ok := slot[v.Date.Month()]
		if !ok {
			continue
		}
		base := taxBase(v)
		s.Months[i].TaxBase = s.Months[i].TaxBase.Add(base)
		s.Months[i].TaxWithheld = s.Months[i].TaxWithheld.Add(v.WithholdingTax)
		s.TaxBase = s.TaxBase.Add(base)
		s.TaxWithheld = s.TaxWithheld.Add(v.WithholdingTax)
		key := v.Counterparty.TIN
		if key == "" {
			key = "name:" + v.Counterparty.Name
		}
		payees[key] = struct{}{}
	}
	s.Payees = len(payees)
	return s
}

// WithFinal attaches final withholding income and its total.
func (s WithholdingSummary) WithFinal(rows []tax.FinalWithholding) WithholdingSummary {
	s.FinalWithholding = make([]tax.FinalWithholding, 0, len(rows))
	s.FinalTaxWithheld = decimal.Zero
	for _, r := range rows {
		s.FinalWithholding = append(s.FinalWithholding, r)
		s.FinalTaxWithheld = s.FinalTaxWithheld.Add(r.TaxWithheld)
	}
	return s
}

// AlphalistData wraps the employee alphalist.
type AlphalistData struct {
	Employees []AlphalistRow `json:"employees"`
}

// Totals implements Data.
func (a AlphalistData) Totals() map[string]decimal.Decimal {
	gross, withheld := decimal.Zero, decimal.Zero
	for _, r := range a.Employees {
		gross = gross.Add(r.GrossCompensation)
		withheld = withheld.Add(r.TaxWithheld)
	}
	return map[string]decimal.Decimal{"grossCompensation": gross, "taxWithheld": withheld}
}

// VatReturn is the VAT summary of a window, optionally with its listings.
type VatReturn struct {
	Summary  statements.VatSummary `json:"summary"`
	Listings *Listings             `json:"listings,omitempty"`
}

// Totals implements Data.
func (v VatReturn) Totals() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"outputVat":  v.Summary.OutputVat,
		"inputVat":   v.Summary.InputVat,
		"vatPayable": v.Summary.VatPayable,
	}
}

// IncomeSummary reports income totals for the data window and, for annual
// returns, the tax computation.
type IncomeSummary struct {
	From        time.Time
	To          time.Time
	YearToDate  bool
	Summary     statements.Summary
	GrossIncome decimal.Decimal
	Tax         *tax.Calculation
}

// NewIncomeSummary derives gross income from the statement summary.
func NewIncomeSummary(rng ledger.DateRange, ytd bool, summary statements.Summary) IncomeSummary {
	return IncomeSummary{
		From:        rng.From,
		To:          rng.To,
		YearToDate:  ytd,
		Summary:     summary,
		GrossIncome: summary.TotalRevenue.Sub(summary.TotalCost),
	}
}

// Totals implements Data.
func (s IncomeSummary) Totals() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{"grossIncome": s.GrossIncome, "netIncome": s.Summary.NetIncome}
	if s.Tax != nil {
		out["finalTaxDue"] = s.Tax.FinalTaxDue
	}
	return out
}

// MarshalJSON renders dates as YYYY-MM-DD and amounts with two fractional digits.
func (s IncomeSummary) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"from":        s.From.Format(time.DateOnly),
		"to":          s.To.Format(time.DateOnly),
		"yearToDate":  s.YearToDate,
		"summary":     s.Summary,
		"grossIncome": shared.Fixed(s.GrossIncome),
	}
	if s.Tax != nil {
		out["tax"] = s.Tax
	}
	return json.Marshal(out)
}

// GenericSummary is the fallback projection: cash in and out for the window.
type GenericSummary struct {
	Receipts           int
	Disbursements      int
	GrossReceipts      decimal.Decimal
	NetReceipts        decimal.Decimal
	TotalDisbursements decimal.Decimal
	OutputVat          decimal.Decimal
	InputVat           decimal.Decimal
	WithholdingTax     decimal.Decimal
}

// BuildGeneric totals both voucher streams within rng.
func BuildGeneric(receipts, disbursements []ledger.Voucher, rng ledger.DateRange) GenericSummary {
	s := GenericSummary{
		GrossReceipts:      decimal.Zero,
		NetReceipts:        decimal.Zero,
		TotalDisbursements: decimal.Zero,
		OutputVat:          decimal.Zero,
		InputVat:           decimal.Zero,
		WithholdingTax:     decimal.Zero,
	}
	for _, v := range receipts {
		if !rng.Contains(v.Date) {
			continue
		}
		s.Receipts++
		s.GrossReceipts = s.GrossReceipts.Add(v.TotalAmount)
		s.NetReceipts = s.NetReceipts.Add(v.ReportableAmount())
		if v.IsVatable {
			s.OutputVat = s.OutputVat.Add(v.VatAmount)
		}
	}
	for _, v := range disbursements {
		if !rng.Contains(v.Date) {
			continue
		}
		s.Disbursements++
		s.TotalDisbursements = s.TotalDisbursements.Add(v.TotalAmount)
		s.WithholdingTax = s.WithholdingTax.Add(v.WithholdingTax)
		if v.HasInputVat {
			s.InputVat = s.InputVat.Add(v.VatAmount)
		}
	}
	return s
}

// Totals implements Data.
func (s GenericSummary) Totals() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"grossReceipts":      s.GrossReceipts,
		"totalDisbursements": s.TotalDisbursements,
	}
}

// MarshalJSON renders amounts with two fractional digits.
func (s GenericSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"receipts":           s.Receipts,
		"disbursements":      s.Disbursements,
		"grossReceipts":      shared.Fixed(s.GrossReceipts),
		"netReceipts":        shared.Fixed(s.NetReceipts),
		"totalDisbursements": shared.Fixed(s.TotalDisbursements),
		"outputVat":          shared.Fixed(s.OutputVat),
		"inputVat":           shared.Fixed(s.InputVat),
		"withholdingTax":     shared.Fixed(s.WithholdingTax),
	})
}
