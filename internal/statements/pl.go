package statements

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Summary carries the annual income-statement totals consumed by tax computation.
type Summary struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
}

// ProfitLoss is the income statement for one year.
type ProfitLoss struct {
	Rows             []Row               `json:"rows"`
	Summary          Summary             `json:"summary"`
	MonthlyNetIncome [12]decimal.Decimal `json:"-"`
	Gaps             []Gap               `json:"gaps,omitempty"`
}

// BuildProfitLoss aggregates revenue, cost and expense postings per account and
// month. Only accounts with activity appear, ordered by code.
func BuildProfitLoss(book Book) ProfitLoss {
	resolver := NewResolver(book.Chart, book.Roles)
	monthly := newMonthlyBook(book.Chart)
	out := ProfitLoss{Rows: []Row{}}

	book.each(func(v ledger.Voucher, month int) {
		postings, gap := resolver.ProfitLoss(v)
		if gap != nil {
			out.Gaps = append(out.Gaps, *gap)
			return
		}
		for _, p := range postings {
			monthly.add(p.Account, month, p.Amount)
		}
	})

	summary := Summary{
		TotalRevenue:  decimal.Zero,
		TotalCost:     decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, code := range monthly.codes() {
		acc := monthly.meta[code]
		months := *monthly.deltas[code]
		row := Row{AccountCode: code, AccountName: acc.Name, AccountType: acc.Type, Amounts: Additive(months)}
		out.Rows = append(out.Rows, row)

		sign := decimal.NewFromInt(-1)
		switch acc.Type {
		case ledger.AccountTypeRevenue:
			summary.TotalRevenue = summary.TotalRevenue.Add(row.Annual)
			sign = decimal.NewFromInt(1)
		case ledger.AccountTypeCost:
			summary.TotalCost = summary.TotalCost.Add(row.Annual)
		default:
			summary.TotalExpenses = summary.TotalExpenses.Add(row.Annual)
		}
		for m := range months {
			out.MonthlyNetIncome[m] = out.MonthlyNetIncome[m].Add(months[m].Mul(sign))
		}
	}
	summary.NetIncome = summary.TotalRevenue.Sub(summary.TotalCost).Sub(summary.TotalExpenses)
	out.Summary = summary
	return out
}

// MarshalJSON renders totals with two fractional digits.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"totalRevenue":  shared.Fixed(s.TotalRevenue),
		"totalCost":     shared.Fixed(s.TotalCost),
		"totalExpenses": shared.Fixed(s.TotalExpenses),
		"netIncome":     shared.Fixed(s.NetIncome),
	})
}
