package bir

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
)

var (
	// ErrUnknownFormCode rejects form codes outside the catalog.
	ErrUnknownFormCode = errors.New("bir: unknown form code")
	// ErrInvalidPeriod is the statements period error, re-exported for callers of this package.
	ErrInvalidPeriod = statements.ErrInvalidPeriod
)

// Shape names the projection a form draws its data from.
type Shape string

const (
	ShapeWithholding       Shape = "withholding_summary"
	ShapeWithholdingAnnual Shape = "withholding_annual"
	ShapeAlphalist         Shape = "employee_alphalist"
	ShapeVat               Shape = "vat_summary"
	ShapeListings          Shape = "sales_purchase_listings"
	ShapeIncome            Shape = "income_summary"
	ShapeGeneric           Shape = "generic_summary"
)

// Frequency is the filing cadence a form is normally prepared for.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Annual    Frequency = "annual"
)

// Form describes one catalog entry.
type Form struct {
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	Shape     Shape     `json:"shape"`
	Frequency Frequency `json:"frequency"`
	// Compensation selects payroll withholding instead of expanded withholding.
	Compensation bool `json:"-"`
	// Listings attaches the sales and purchase listings to a VAT summary.
	Listings bool `json:"-"`
	// YearToDate widens the window to start on 1 January.
	YearToDate bool `json:"-"`
	// WithTax attaches the income tax computation.
	WithTax bool `json:"-"`
}

var catalog = map[string]Form{
	"0619E":  {Code: "0619E", Title: "Monthly Remittance of Creditable Income Taxes Withheld (Expanded)", Shape: ShapeWithholding, Frequency: Monthly},
	"1601C":  {Code: "1601C", Title: "Monthly Remittance Return of Income Taxes Withheld on Compensation", Shape: ShapeWithholding, Frequency: Monthly, Compensation: true},
	"1601EQ": {Code: "1601EQ", Title: "Quarterly Remittance Return of Creditable Income Taxes Withheld (Expanded)", Shape: ShapeWithholding, Frequency: Quarterly},
	"1604C":  {Code: "1604C", Title: "Annual Information Return of Income Taxes Withheld on Compensation", Shape: ShapeAlphalist, Frequency: Annual},
	"1604E":  {Code: "1604E", Title: "Annual Information Return of Creditable and Final Income Taxes Withheld", Shape: ShapeWithholdingAnnual, Frequency: Annual},
	"2550M":  {Code: "2550M", Title: "Monthly Value-Added Tax Declaration", Shape: ShapeVat, Frequency: Monthly},
	"2550Q":  {Code: "2550Q", Title: "Quarterly Value-Added Tax Return", Shape: ShapeVat, Frequency: Quarterly, Listings: true},
	"SLSP":   {Code: "SLSP", Title: "Summary List of Sales and Purchases", Shape: ShapeListings, Frequency: Quarterly},
	"1702Q":  {Code: "1702Q", Title: "Quarterly Income Tax Return for Corporations", Shape: ShapeIncome, Frequency: Quarterly, YearToDate: true},
	"1702RT": {Code: "1702RT", Title: "Annual Income Tax Return for Corporations (Regular Rate)", Shape: ShapeIncome, Frequency: Annual, WithTax: true},
	"2551Q":  {Code: "2551Q", Title: "Quarterly Percentage Tax Return", Shape: ShapeGeneric, Frequency: Quarterly},
	"0605":   {Code: "0605", Title: "Payment Form", Shape: ShapeGeneric, Frequency: Annual},
}

// Lookup finds a form by code, ignoring case and surrounding blanks.
func Lookup(code string) (Form, error) {
	form, ok := catalog[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Form{}, fmt.Errorf("%w: %q", ErrUnknownFormCode, code)
	}
	return form, nil
}

// Catalog lists every supported form ordered by code.
func Catalog() []Form {
	forms := make([]Form, 0, len(catalog))
	for _, f := range catalog {
		forms = append(forms, f)
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].Code < forms[j].Code })
	return forms
}

// Window resolves the requested period and the date range the form's data
// covers. The two differ only for year-to-date forms, whose data starts on
// 1 January of the period's year. Forms carrying the annual tax computation
// only accept the full year.
func (f Form) Window(year, quarter, month int) (statements.Period, ledger.DateRange, error) {
	if f.WithTax && (quarter != 0 || month != 0) {
		return statements.Period{}, ledger.DateRange{}, fmt.Errorf("%w: form %s covers the full year only", ErrInvalidPeriod, f.Code)
	}
	period, err := statements.ResolvePeriod(year, quarter, month)
	if err != nil {
		return statements.Period{}, ledger.DateRange{}, err
	}
	rng := period.Range()
	if f.YearToDate {
		rng.From = ledger.YearRange(year).From
	}
	return period, rng, nil
}
