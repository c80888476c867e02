package statements

import (
	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

// Posting is an amount attributed to one account.
type Posting struct {
	Account ledger.Account
	Amount  decimal.Decimal
}

// Gap records a voucher amount dropped because no account of the wanted type exists.
type Gap struct {
	Kind      ledger.VoucherKind `json:"kind"`
	VoucherID int64              `json:"voucherId"`
	Number    string             `json:"number"`
	Date      string             `json:"date"`
	Amount    decimal.Decimal    `json:"amount"`
}

// Resolver classifies accounts against a chart and applies the fallback policy
// for vouchers carrying no line of the wanted type.
type Resolver struct {
	chart           *ledger.Chart
	roles           ledger.AccountRoles
	revenueFallback *ledger.Account
	expenseFallback *ledger.Account
}

var (
	receiptTypes      = []ledger.AccountType{ledger.AccountTypeRevenue}
	disbursementTypes = []ledger.AccountType{ledger.AccountTypeExpense, ledger.AccountTypeCost}
)

// NewResolver resolves both fallback accounts once for the chart.
func NewResolver(chart *ledger.Chart, roles ledger.AccountRoles) *Resolver {
	r := &Resolver{chart: chart, roles: roles}
	r.revenueFallback = resolveFallback(chart, roles.FallbackRevenueCode, receiptTypes)
	r.expenseFallback = resolveFallback(chart, roles.FallbackExpenseCode, disbursementTypes)
	return r
}

func resolveFallback(chart *ledger.Chart, code string, types []ledger.AccountType) *ledger.Account {
	if acc, ok := chart.ByCode(code); ok && hasType(acc.Type, types) {
		return &acc
	}
	if acc, ok := chart.FirstOfType(types...); ok {
		return &acc
	}
	return nil
}

func hasType(t ledger.AccountType, types []ledger.AccountType) bool {
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// Chart exposes the underlying chart.
func (r *Resolver) Chart() *ledger.Chart {
	return r.chart
}

// Roles exposes the effective account roles.
func (r *Resolver) Roles() ledger.AccountRoles {
	return r.roles
}

// TypeOf returns the account type for id.
func (r *Resolver) TypeOf(accountID int64) (ledger.AccountType, bool) {
	acc, ok := r.chart.Account(accountID)
	if !ok {
		return "", false
	}
	return acc.Type, true
}

// Fallback returns the synthetic account for the voucher kind, if any.
func (r *Resolver) Fallback(kind ledger.VoucherKind) (ledger.Account, bool) {
	acc := r.expenseFallback
	if kind == ledger.VoucherKindReceipt {
		acc = r.revenueFallback
	}
	if acc == nil {
		return ledger.Account{}, false
	}
	return *acc, true
}

// ProfitLoss returns the income-statement postings of v: revenue lines for
// receipts, cost and expense lines for disbursements. A voucher with no such
// line posts its reportable amount to the fallback account. The returned gap
// is non-nil when even the fallback is unavailable.
func (r *Resolver) ProfitLoss(v ledger.Voucher) ([]Posting, *Gap) {
	wanted := disbursementTypes
	if v.Kind == ledger.VoucherKindReceipt {
		wanted = receiptTypes
	}
	var postings []Posting
	for _, line := range v.Lines {
		acc, ok := r.chart.Account(line.AccountID)
		if !ok || !hasType(acc.Type, wanted) {
			continue
		}
		postings = append(postings, Posting{Account: acc, Amount: line.Amount})
	}
	if len(postings) > 0 {
		return postings, nil
	}
	amount := v.ReportableAmount()
	if fallback, ok := r.Fallback(v.Kind); ok {
		return []Posting{{Account: fallback, Amount: amount}}, nil
	}
	return nil, &Gap{
		Kind:      v.Kind,
		VoucherID: v.ID,
		Number:    v.Number,
		Date:      v.Date.Format("2006-01-02"),
		Amount:    amount,
	}
}
