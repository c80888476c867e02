package tax

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
)

// Rates holds the regular corporate income tax and MCIT rates as fractions.
type Rates struct {
	TaxRate  decimal.Decimal
	McitRate decimal.Decimal
}

// DefaultRates are the CREATE Act rates: 25% regular, 2% MCIT.
func DefaultRates() Rates {
	return Rates{TaxRate: decimal.RequireFromString("0.25"), McitRate: decimal.RequireFromString("0.02")}
}

// Credits are the carryforward and manual credits available to a tax year.
type Credits struct {
	AvailableNolco       decimal.Decimal
	AvailableMcitCredits decimal.Decimal
	OtherCredits         decimal.Decimal
}

// Calculation is the result of ComputeTax. Amounts are rounded to centavos.
type Calculation struct {
	TotalRevenue         decimal.Decimal
	TotalCost            decimal.Decimal
	TotalExpenses        decimal.Decimal
	GrossIncome          decimal.Decimal
	AvailableNolco       decimal.Decimal
	TaxableIncome        decimal.Decimal
	TaxRate              decimal.Decimal
	McitRate             decimal.Decimal
	RegularTax           decimal.Decimal
	Mcit                 decimal.Decimal
	TaxDue               decimal.Decimal
	IsMcitApplied        bool
	AvailableMcitCredits decimal.Decimal
	OtherCredits         decimal.Decimal
	TotalCredits         decimal.Decimal
	FinalTaxDue          decimal.Decimal
}

// ComputeTax applies the regular-tax-versus-MCIT rule. MCIT applies only when
// strictly greater than regular tax; ties go to regular tax. Comparisons use
// unrounded values.
func ComputeTax(summary statements.Summary, rates Rates, credits Credits) Calculation {
	gross := summary.TotalRevenue.Sub(summary.TotalCost)
	taxable := shared.MaxZero(gross.Sub(summary.TotalExpenses).Sub(credits.AvailableNolco))
	regular := shared.MaxZero(taxable.Mul(rates.TaxRate))
	mcit := gross.Mul(rates.McitRate)

	due := regular
	applied := mcit.GreaterThan(regular)
	if applied {
		due = mcit
	}
	totalCredits := credits.AvailableMcitCredits.Add(credits.OtherCredits)
	final := shared.MaxZero(due.Sub(totalCredits))

	return Calculation{
		TotalRevenue:         round(summary.TotalRevenue),
		TotalCost:            round(summary.TotalCost),
		TotalExpenses:        round(summary.TotalExpenses),
		GrossIncome:          round(gross),
		AvailableNolco:       round(credits.AvailableNolco),
		TaxableIncome:        round(taxable),
		TaxRate:              rates.TaxRate,
		McitRate:             rates.McitRate,
		RegularTax:           round(regular),
		Mcit:                 round(mcit),
		TaxDue:               round(due),
		IsMcitApplied:        applied,
		AvailableMcitCredits: round(credits.AvailableMcitCredits),
		OtherCredits:         round(credits.OtherCredits),
		TotalCredits:         round(totalCredits),
		FinalTaxDue:          round(final),
	}
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MarshalJSON renders amounts as fixed two-digit strings and rates as given.
func (c Calculation) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"totalRevenue":         shared.Fixed(c.TotalRevenue),
		"totalCost":            shared.Fixed(c.TotalCost),
		"totalExpenses":        shared.Fixed(c.TotalExpenses),
		"grossIncome":          shared.Fixed(c.GrossIncome),
		"availableNolco":       shared.Fixed(c.AvailableNolco),
		"taxableIncome":        shared.Fixed(c.TaxableIncome),
		"taxRate":              c.TaxRate.String(),
		"mcitRate":             c.McitRate.String(),
		"regularTax":           shared.Fixed(c.RegularTax),
		"mcit":                 shared.Fixed(c.Mcit),
		"taxDue":               shared.Fixed(c.TaxDue),
		"isMcitApplied":        c.IsMcitApplied,
		"availableMcitCredits": shared.Fixed(c.AvailableMcitCredits),
		"otherCredits":         shared.Fixed(c.OtherCredits),
		"totalCredits":         shared.Fixed(c.TotalCredits),
		"finalTaxDue":          shared.Fixed(c.FinalTaxDue),
	})
}
