package statements

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// BalanceSheetOptions tunes the cash posting rule.
type BalanceSheetOptions struct {
	// StrictBalancing posts the sum of line amounts to cash instead of the
	// voucher total, so the sheet balances even when lines and totals diverge.
	StrictBalancing bool
}

// BalanceSheet holds cumulative month-end balances for asset, liability and equity accounts.
type BalanceSheet struct {
	Rows   []Row `json:"rows"`
	Strict bool  `json:"strict"`
	// Divergence is the sum over vouchers of |total - sum(lines)|.
	Divergence decimal.Decimal `json:"divergence"`
	// EquationGap is December assets minus liabilities minus equity.
	EquationGap decimal.Decimal `json:"equationGap"`
}

// MarshalJSON renders the decimal fields with two fractional digits.
func (b BalanceSheet) MarshalJSON() ([]byte, error) {
	rows := b.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(struct {
		Rows        []Row  `json:"rows"`
		Strict      bool   `json:"strict"`
		Divergence  string `json:"divergence"`
		EquationGap string `json:"equationGap"`
	}{rows, b.Strict, shared.Fixed(b.Divergence), shared.Fixed(b.EquationGap)})
}

type dated struct {
	voucher ledger.Voucher
	month   int
}

// BuildBalanceSheet walks the year's vouchers chronologically, posting cash and
// balance-sheet lines, folds monthly net income into retained earnings and
// converts the monthly deltas into running balances. Quarter and annual columns
// are month-end snapshots.
func BuildBalanceSheet(book Book, opts BalanceSheetOptions) BalanceSheet {
	resolver := NewResolver(book.Chart, book.Roles)
	monthly := newMonthlyBook(book.Chart)
	roles := resolver.Roles()

	cash, ok := book.Chart.ByCode(roles.CashCode)
	if !ok {
		cash = ledger.Account{Code: roles.CashCode, Name: "Cash", Type: ledger.AccountTypeAsset}
	}

	if retained, ok := book.Chart.ByCode(roles.RetainedEarningsCode); ok {
		pl := BuildProfitLoss(book)
		for m, ni := range pl.MonthlyNetIncome {
			monthly.add(retained, m, ni)
		}
	}

	var vouchers []dated
	book.each(func(v ledger.Voucher, month int) {
		vouchers = append(vouchers, dated{voucher: v, month: month})
	})
	sort.SliceStable(vouchers, func(i, j int) bool {
		return vouchers[i].voucher.Date.Before(vouchers[j].voucher.Date)
	})

	divergence := decimal.Zero
	for _, d := range vouchers {
		v := d.voucher
		linesTotal := v.LinesTotal()
		divergence = divergence.Add(v.TotalAmount.Sub(linesTotal).Abs())
		cashAmount := v.TotalAmount
		if opts.StrictBalancing {
			cashAmount = linesTotal
		}

		if v.Kind == ledger.VoucherKindReceipt {
			monthly.add(cash, d.month, cashAmount)
		} else {
			monthly.add(cash, d.month, cashAmount.Neg())
		}
		for _, line := range v.Lines {
			acc, ok := book.Chart.Account(line.AccountID)
			if !ok {
				continue
			}
			switch {
			case acc.Type == ledger.AccountTypeLiability || acc.Type == ledger.AccountTypeEquity:
				if v.Kind == ledger.VoucherKindReceipt {
					monthly.add(acc, d.month, line.Amount)
				} else {
					monthly.add(acc, d.month, line.Amount.Neg())
				}
			case acc.Type == ledger.AccountTypeAsset && v.Kind == ledger.VoucherKindDisbursement:
				monthly.add(acc, d.month, line.Amount)
			}
		}
	}

	out := BalanceSheet{Rows: []Row{}, Strict: opts.StrictBalancing, Divergence: divergence, EquationGap: decimal.Zero}
	for _, code := range monthly.codes() {
		balances := RunningTotals(*monthly.deltas[code])
		row := Row{AccountCode: code, Amounts: Snapshot(balances)}
		if row.IsZero() {
			continue
		}
		acc := monthly.meta[code]
		row.AccountName, row.AccountType = acc.Name, acc.Type
		out.Rows = append(out.Rows, row)

		switch acc.Type {
		case ledger.AccountTypeAsset:
			out.EquationGap = out.EquationGap.Add(row.Annual)
		case ledger.AccountTypeLiability, ledger.AccountTypeEquity:
			out.EquationGap = out.EquationGap.Sub(row.Annual)
		}
	}
	return out
}
