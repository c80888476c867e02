package tax

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Settings is the per-company, per-year tax configuration.
type Settings struct {
	CompanyID        int64
	TaxYear          int
	TaxRate          decimal.Decimal
	McitRate         decimal.Decimal
	CreditsAvailable decimal.Decimal
	Stored           bool
}

// Rates extracts the rate pair.
func (s Settings) Rates() Rates {
	return Rates{TaxRate: s.TaxRate, McitRate: s.McitRate}
}

// MarshalJSON renders rates verbatim and credits with two fractional digits.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"companyId":        s.CompanyID,
		"taxYear":          s.TaxYear,
		"taxRate":          s.TaxRate.String(),
		"mcitRate":         s.McitRate.String(),
		"creditsAvailable": shared.Fixed(s.CreditsAvailable),
		"stored":           s.Stored,
	})
}

// DefaultSettings returns unsaved settings using the configured rates.
func DefaultSettings(companyID int64, year int, rates Rates) Settings {
	return Settings{
		CompanyID:        companyID,
		TaxYear:          year,
		TaxRate:          rates.TaxRate,
		McitRate:         rates.McitRate,
		CreditsAvailable: decimal.Zero,
	}
}

// SettingsInput is the upsert payload.
type SettingsInput struct {
	CompanyID        int64  `json:"-" validate:"gt=0"`
	TaxYear          int    `json:"taxYear" validate:"gte=1900,lte=9999"`
	TaxRate          string `json:"taxRate" validate:"required,numeric"`
	McitRate         string `json:"mcitRate" validate:"required,numeric"`
	CreditsAvailable string `json:"creditsAvailable" validate:"omitempty,numeric"`
}

var validate = validator.New()

var one = decimal.NewFromInt(1)

// Parse validates the input and converts it to Settings.
func (in SettingsInput) Parse() (Settings, error) {
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return Settings{}, fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(fields, ", "))
		}
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	rate, err := decimal.NewFromString(in.TaxRate)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: taxRate", ErrInvalidSettings)
	}
	mcit, err := decimal.NewFromString(in.McitRate)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: mcitRate", ErrInvalidSettings)
	}
	credits := decimal.Zero
	if in.CreditsAvailable != "" {
		if credits, err = decimal.NewFromString(in.CreditsAvailable); err != nil {
			return Settings{}, fmt.Errorf("%w: creditsAvailable", ErrInvalidSettings)
		}
	}
	for name, r := range map[string]decimal.Decimal{"taxRate": rate, "mcitRate": mcit} {
		if r.IsNegative() || r.GreaterThan(one) {
			return Settings{}, fmt.Errorf("%w: %s must be a fraction between 0 and 1", ErrInvalidSettings, name)
		}
	}
	if credits.IsNegative() {
		return Settings{}, fmt.Errorf("%w: creditsAvailable must not be negative", ErrInvalidSettings)
	}
	return Settings{
		CompanyID:        in.CompanyID,
		TaxYear:          in.TaxYear,
		TaxRate:          rate,
		McitRate:         mcit,
		CreditsAvailable: credits,
	}, nil
}

// FinalWithholding is passive income already taxed at source. It is excluded
// from regular taxable income and only surfaces in BIR extracts.
type FinalWithholding struct {
	CompanyID   int64
	TaxYear     int
	Quarter     int
	IncomeType  string
	GrossAmount decimal.Decimal
	TaxWithheld decimal.Decimal
}

// MarshalJSON renders amounts with two fractional digits and omits an absent quarter.
func (f FinalWithholding) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"taxYear":     f.TaxYear,
		"incomeType":  f.IncomeType,
		"grossAmount": shared.Fixed(f.GrossAmount),
		"taxWithheld": shared.Fixed(f.TaxWithheld),
	}
	if f.Quarter > 0 {
		out["quarter"] = f.Quarter
	}
	return json.Marshal(out)
}
