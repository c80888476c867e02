package statements

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	_ "github.com/Shin-zuo/LL-AccountingSystem-sub000/testing"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, dd int) time.Time {
	return time.Date(year, month, dd, 0, 0, 0, 0, time.UTC)
}

func fixtureAccounts() []ledger.Account {
	return []ledger.Account{
		{ID: 1, Code: "1010", Name: "Cash on Hand", Type: ledger.AccountTypeAsset, IsActive: true},
		{ID: 2, Code: "1200", Name: "Equipment", Type: ledger.AccountTypeAsset, IsActive: true},
		{ID: 3, Code: "2100", Name: "Loans Payable", Type: ledger.AccountTypeLiability, IsActive: true},
		{ID: 4, Code: "3100", Name: "Owner's Capital", Type: ledger.AccountTypeEquity, IsActive: true},
		{ID: 5, Code: "3200", Name: "Retained Earnings", Type: ledger.AccountTypeEquity, IsActive: true},
		{ID: 6, Code: "4000", Name: "Sales Revenue", Type: ledger.AccountTypeRevenue, IsActive: true},
		{ID: 7, Code: "4100", Name: "Service Income", Type: ledger.AccountTypeRevenue, IsActive: true},
		{ID: 8, Code: "5000", Name: "Cost of Sales", Type: ledger.AccountTypeCost, IsActive: true},
		{ID: 9, Code: "6100", Name: "Rent Expense", Type: ledger.AccountTypeExpense, IsActive: true},
		{ID: 10, Code: "6900", Name: "Miscellaneous Expense", Type: ledger.AccountTypeExpense, IsActive: true},
	}
}

func receipt(id int64, date time.Time, total string, lines ...ledger.Line) ledger.Voucher {
	return ledger.Voucher{
		ID:          id,
		Kind:        ledger.VoucherKindReceipt,
		Number:      "CR-" + strconv.FormatInt(id, 10),
		Date:        date,
		TotalAmount: d(total),
		Status:      ledger.VoucherStatusApproved,
		Lines:       lines,
	}
}

func disbursement(id int64, date time.Time, total string, lines ...ledger.Line) ledger.Voucher {
	v := receipt(id, date, total, lines...)
	v.Kind = ledger.VoucherKindDisbursement
	v.Number = "CD-" + strconv.FormatInt(id, 10)
	return v
}

func line(accountID int64, amount string) ledger.Line {
	return ledger.Line{AccountID: accountID, Amount: d(amount)}
}

func fixtureBook() Book {
	receipts := []ledger.Voucher{
		receipt(1, day(2024, time.January, 15), "1000", line(7, "1000")),
		receipt(2, day(2024, time.February, 20), "2000", line(6, "2000")),
		receipt(3, day(2024, time.April, 5), "3000", line(6, "2000"), line(3, "1000")),
		receipt(4, day(2023, time.December, 31), "777", line(6, "777")),
	}
	disbursements := []ledger.Voucher{
		disbursement(11, day(2024, time.January, 31), "400", line(9, "400")),
		disbursement(12, day(2024, time.March, 3), "600", line(8, "600")),
		disbursement(13, day(2024, time.December, 31), "300", line(9, "300")),
		disbursement(14, day(2025, time.January, 1), "999", line(9, "999")),
	}
	return NewBook(1, 2024, fixtureAccounts(), ledger.DefaultAccountRoles(), receipts, disbursements)
}

func rowByCode(rows []Row, code string) (Row, bool) {
	for _, r := range rows {
		if r.AccountCode == code {
			return r, true
		}
	}
	return Row{}, false
}
