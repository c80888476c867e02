package statements

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Amounts holds the twelve monthly figures and their quarter/annual columns.
type Amounts struct {
	Months   [12]decimal.Decimal
	Quarters [4]decimal.Decimal
	Annual   decimal.Decimal
}

// Additive derives flow columns: each quarter sums its three months, annual sums all twelve.
func Additive(months [12]decimal.Decimal) Amounts {
	a := Amounts{Months: months, Annual: decimal.Zero}
	for q := 0; q < 4; q++ {
		sum := decimal.Zero
		for m := q * 3; m < q*3+3; m++ {
			sum = sum.Add(months[m])
		}
		a.Quarters[q] = sum
		a.Annual = a.Annual.Add(sum)
	}
	return a
}

// Snapshot derives point-in-time columns from cumulative balances: each quarter
// takes its closing month, annual takes December.
func Snapshot(cumulative [12]decimal.Decimal) Amounts {
	a := Amounts{Months: cumulative}
	for q := 0; q < 4; q++ {
		a.Quarters[q] = cumulative[q*3+2]
	}
	a.Annual = cumulative[11]
	return a
}

// RunningTotals turns monthly deltas into end-of-month balances seeded at zero.
func RunningTotals(deltas [12]decimal.Decimal) [12]decimal.Decimal {
	var out [12]decimal.Decimal
	running := decimal.Zero
	for m := range deltas {
		running = running.Add(deltas[m])
		out[m] = running
	}
	return out
}

// IsZero reports whether every month is zero.
func (a Amounts) IsZero() bool {
	for _, v := range a.Months {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// MarshalJSON flattens to jan..dec, q1..q4, annual with two fractional digits.
func (a Amounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeAmounts(&buf, a)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeAmounts(buf *bytes.Buffer, a Amounts) {
	for i, key := range monthKeys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeField(buf, key, a.Months[i])
	}
	for i, key := range [4]string{"q1", "q2", "q3", "q4"} {
		buf.WriteByte(',')
		writeField(buf, key, a.Quarters[i])
	}
	buf.WriteByte(',')
	writeField(buf, "annual", a.Annual)
}

func writeField(buf *bytes.Buffer, key string, v decimal.Decimal) {
	buf.WriteByte('"')
	buf.WriteString(key)
	buf.WriteString(`":"`)
	buf.WriteString(shared.Fixed(v))
	buf.WriteByte('"')
}

// Row is one account line of a monthly statement.
type Row struct {
	AccountCode string
	AccountName string
	AccountType ledger.AccountType
	Amounts
}

// MarshalJSON emits accountCode, accountName, accountType followed by the amount columns.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, kv := range [][2]string{
		{"accountCode", r.AccountCode},
		{"accountName", r.AccountName},
		{"accountType", string(r.AccountType)},
	} {
		key, _ := json.Marshal(kv[0])
		val, _ := json.Marshal(kv[1])
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		buf.WriteByte(',')
	}
	writeAmounts(&buf, r.Amounts)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type monthlyBook struct {
	chart  *ledger.Chart
	deltas map[string]*[12]decimal.Decimal
	meta   map[string]ledger.Account
}

func newMonthlyBook(chart *ledger.Chart) *monthlyBook {
	return &monthlyBook{
		chart:  chart,
		deltas: make(map[string]*[12]decimal.Decimal),
		meta:   make(map[string]ledger.Account),
	}
}

func (b *monthlyBook) add(acc ledger.Account, month int, amount decimal.Decimal) {
	months, ok := b.deltas[acc.Code]
	if !ok {
		months = new([12]decimal.Decimal)
		b.deltas[acc.Code] = months
		b.meta[acc.Code] = acc
	}
	months[month] = months[month].Add(amount)
}

func (b *monthlyBook) codes() []string {
	codes := make([]string, 0, len(b.deltas))
	for code := range b.deltas {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
