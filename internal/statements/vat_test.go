package statements

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

func vatBook() Book {
	sale := receipt(1, day(2024, time.March, 12), "11200", line(6, "10000"), line(3, "1200"))
	sale.VatAmount, sale.NetAmount, sale.IsVatable = d("1200"), d("10000"), true

	purchase := disbursement(2, day(2024, time.March, 20), "2240", line(9, "2000"), line(3, "240"))
	purchase.VatAmount, purchase.NetAmount, purchase.HasInputVat = d("240"), d("2000"), true

	return NewBook(1, 2024, fixtureAccounts(), ledger.DefaultAccountRoles(), []ledger.Voucher{sale}, []ledger.Voucher{purchase})
}

func TestVatTotalsScenario(t *testing.T) {
	rows := BuildVatTotals(vatBook())
	require.Len(t, rows, 12)

	march := rows[2]
	assert.Equal(t, 3, march.Month)
	assert.True(t, march.OutputVat.Equal(d("1200")))
	assert.True(t, march.InputVat.Equal(d("240")))
	assert.True(t, march.NetVat.Equal(d("960")))
	require.True(t, march.IsQuarterEnd)
	assert.True(t, march.QuarterlyOutput.Equal(d("1200")))
	assert.True(t, march.QuarterlyInput.Equal(d("240")))
	assert.True(t, march.QuarterlyNet.Equal(d("960")))

	for i, row := range rows {
		if i == 2 {
			continue
		}
		assert.True(t, row.OutputVat.IsZero(), "month %d", row.Month)
		assert.True(t, row.InputVat.IsZero(), "month %d", row.Month)
		assert.True(t, row.NetVat.IsZero(), "month %d", row.Month)
		if row.IsQuarterEnd {
			assert.True(t, row.QuarterlyNet.IsZero(), "month %d", row.Month)
		} else {
			assert.Nil(t, row.QuarterlyNet, "month %d", row.Month)
		}
	}
}

func TestVatMonthRowJSON(t *testing.T) {
	rows := BuildVatTotals(vatBook())

	raw, err := json.Marshal(rows[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":3,"monthKey":"mar","outputVat":"1200.00","inputVat":"240.00","netVat":"960.00",
		"isQuarterEnd":true,"quarterlyOutput":"1200.00","quarterlyInput":"240.00","quarterlyNet":"960.00"}`, string(raw))

	raw, err = json.Marshal(rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":1,"monthKey":"jan","outputVat":"0.00","inputVat":"0.00","netVat":"0.00","isQuarterEnd":false}`, string(raw))
}

func TestVatSummaryPartitionsSales(t *testing.T) {
	book := vatBook()
	zero := receipt(3, day(2024, time.March, 14), "5000", line(6, "5000"))
	zero.IsZeroRated = true
	exempt := receipt(4, day(2024, time.March, 15), "700", line(6, "700"))
	outside := receipt(5, day(2024, time.April, 1), "1120", line(6, "1000"))
	outside.IsVatable, outside.VatAmount = true, d("120")
	book.Receipts = append(book.Receipts, zero, exempt, outside)

	q1, err := ResolvePeriod(2024, 1, 0)
	require.NoError(t, err)
	s := BuildVatSummary(book.Receipts, book.Disbursements, q1.Range())

	assert.True(t, s.VatableSales.Equal(d("10000")))
	assert.True(t, s.ZeroRatedSales.Equal(d("5000")))
	assert.True(t, s.ExemptSales.Equal(d("700")))
	assert.True(t, s.OutputVat.Equal(d("1200")))
	assert.True(t, s.InputVat.Equal(d("240")))
	assert.True(t, s.VatPayable.Equal(d("960")))
}

func TestVatTotalsIgnoreUnflaggedVat(t *testing.T) {
	book := vatBook()
	book.Receipts[0].IsVatable = false
	book.Disbursements[0].HasInputVat = false
	for _, row := range BuildVatTotals(book) {
		assert.True(t, row.OutputVat.IsZero())
		assert.True(t, row.InputVat.IsZero())
	}
}
