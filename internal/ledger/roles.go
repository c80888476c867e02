package ledger

import (
	"errors"
	"strings"
)

// AccountRoles names the accounts the engine posts to by convention.
type AccountRoles struct {
	CashCode             string `json:"cashCode" yaml:"cash"`
	RetainedEarningsCode string `json:"retainedEarningsCode" yaml:"retained_earnings"`
	FallbackRevenueCode  string `json:"fallbackRevenueCode" yaml:"fallback_revenue"`
	FallbackExpenseCode  string `json:"fallbackExpenseCode" yaml:"fallback_expense"`
}

// DefaultAccountRoles mirrors the conventional Philippine SME chart.
func DefaultAccountRoles() AccountRoles {
	return AccountRoles{
		CashCode:             "1010",
		RetainedEarningsCode: "3200",
		FallbackRevenueCode:  "4000",
		FallbackExpenseCode:  "6900",
	}
}

// Merge overlays the non-empty codes of override onto r.
func (r AccountRoles) Merge(override AccountRoles) AccountRoles {
	if v := strings.TrimSpace(override.CashCode); v != "" {
		r.CashCode = v
	}
	if v := strings.TrimSpace(override.RetainedEarningsCode); v != "" {
		r.RetainedEarningsCode = v
	}
	if v := strings.TrimSpace(override.FallbackRevenueCode); v != "" {
		r.FallbackRevenueCode = v
	}
	if v := strings.TrimSpace(override.FallbackExpenseCode); v != "" {
		r.FallbackExpenseCode = v
	}
	return r
}

// Validate requires every role to be named.
func (r AccountRoles) Validate() error {
	if r.CashCode == "" || r.RetainedEarningsCode == "" || r.FallbackRevenueCode == "" || r.FallbackExpenseCode == "" {
		return errors.New("ledger: account roles incomplete")
	}
	return nil
}
