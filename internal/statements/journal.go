package statements

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

// JournalRow carries the debit and credit flow of one account.
type JournalRow struct {
	AccountCode string             `json:"accountCode"`
	AccountName string             `json:"accountName"`
	AccountType ledger.AccountType `json:"accountType"`
	Debit       Amounts            `json:"debit"`
	Credit      Amounts            `json:"credit"`
}

// JournalTotals is the cash journal view of a year.
type JournalTotals struct {
	Rows        []JournalRow `json:"rows"`
	TotalDebit  Amounts      `json:"totalDebit"`
	TotalCredit Amounts      `json:"totalCredit"`
}

// MarshalJSON keeps an empty journal serialised as [] rather than null.
func (j JournalTotals) MarshalJSON() ([]byte, error) {
	type alias JournalTotals
	if j.Rows == nil {
		j.Rows = []JournalRow{}
	}
	return json.Marshal(alias(j))
}

// BuildJournalTotals expands each voucher into its implied double entry: a
// receipt debits cash for its total and credits each line, a disbursement
// credits cash and debits each line. Lines on accounts missing from the chart
// are skipped.
func BuildJournalTotals(book Book) JournalTotals {
	cash, ok := book.Chart.ByCode(book.Roles.CashCode)
	if !ok {
		cash = ledger.Account{Code: book.Roles.CashCode, Name: "Cash", Type: ledger.AccountTypeAsset}
	}
	debits := newMonthlyBook(book.Chart)
	credits := newMonthlyBook(book.Chart)

	book.each(func(v ledger.Voucher, month int) {
		cashSide, lineSide := debits, credits
		if v.Kind == ledger.VoucherKindDisbursement {
			cashSide, lineSide = credits, debits
		}
		cashSide.add(cash, month, v.TotalAmount)
		for _, line := range v.Lines {
			if acc, ok := book.Chart.Account(line.AccountID); ok {
				lineSide.add(acc, month, line.Amount)
			}
		}
	})

	accounts := make(map[string]ledger.Account)
	for code, acc := range debits.meta {
		accounts[code] = acc
	}
	for code, acc := range credits.meta {
		accounts[code] = acc
	}
	codes := make([]string, 0, len(accounts))
	for code := range accounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var totalDebit, totalCredit [12]decimal.Decimal
	out := JournalTotals{Rows: make([]JournalRow, 0, len(codes))}
	for _, code := range codes {
		acc := accounts[code]
		var d, c [12]decimal.Decimal
		if months, ok := debits.deltas[code]; ok {
			d = *months
		}
		if months, ok := credits.deltas[code]; ok {
			c = *months
		}
		for m := range d {
			totalDebit[m] = totalDebit[m].Add(d[m])
			totalCredit[m] = totalCredit[m].Add(c[m])
		}
		out.Rows = append(out.Rows, JournalRow{
			AccountCode: code,
			AccountName: acc.Name,
			AccountType: acc.Type,
			Debit:       Additive(d),
			Credit:      Additive(c),
		})
	}
	out.TotalDebit = Additive(totalDebit)
	out.TotalCredit = Additive(totalCredit)
	return out
}
