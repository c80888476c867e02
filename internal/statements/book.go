package statements

import (
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

// Book is everything an aggregation needs for one company and window. It is
// built fresh per request and never shared across companies.
type Book struct {
	CompanyID     int64
	Year          int
	Range         ledger.DateRange
	Chart         *ledger.Chart
	Roles         ledger.AccountRoles
	Receipts      []ledger.Voucher
	Disbursements []ledger.Voucher
}

// NewBook assembles a Book for a calendar year.
func NewBook(companyID int64, year int, accounts []ledger.Account, roles ledger.AccountRoles, receipts, disbursements []ledger.Voucher) Book {
	return Book{
		CompanyID:     companyID,
		Year:          year,
		Range:         ledger.YearRange(year),
		Chart:         ledger.NewChart(accounts),
		Roles:         roles,
		Receipts:      receipts,
		Disbursements: disbursements,
	}
}

// each visits every voucher of the book's year with its zero-based month.
func (b Book) each(fn func(v ledger.Voucher, month int)) {
	for _, list := range [][]ledger.Voucher{b.Receipts, b.Disbursements} {
		for _, v := range list {
			if month, ok := MonthIndex(v.Date, b.Year); ok {
				fn(v, month)
			}
		}
	}
}
