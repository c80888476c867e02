package statements

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// VatSummary totals the sales and purchase books over a window.
type VatSummary struct {
	VatableSales   decimal.Decimal
	ZeroRatedSales decimal.Decimal
	ExemptSales    decimal.Decimal
	OutputVat      decimal.Decimal
	InputVat       decimal.Decimal
	VatPayable     decimal.Decimal
}

// MarshalJSON renders every amount with two fractional digits.
func (s VatSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"vatableSales":   shared.Fixed(s.VatableSales),
		"zeroRatedSales": shared.Fixed(s.ZeroRatedSales),
		"exemptSales":    shared.Fixed(s.ExemptSales),
		"outputVat":      shared.Fixed(s.OutputVat),
		"inputVat":       shared.Fixed(s.InputVat),
		"vatPayable":     shared.Fixed(s.VatPayable),
	})
}

// BuildVatSummary partitions receipts dated within rng by VAT class and sums
// input VAT from flagged disbursements. Vatable sales are reported net of VAT.
func BuildVatSummary(receipts, disbursements []ledger.Voucher, rng ledger.DateRange) VatSummary {
	s := VatSummary{
		VatableSales:   decimal.Zero,
		ZeroRatedSales: decimal.Zero,
		ExemptSales:    decimal.Zero,
		OutputVat:      decimal.Zero,
		InputVat:       decimal.Zero,
	}
	for _, v := range receipts {
		if !rng.Contains(v.Date) {
			continue
		}
		switch v.VatClass() {
		case ledger.VatClassVatable:
			s.VatableSales = s.VatableSales.Add(v.ReportableAmount())
			s.OutputVat = s.OutputVat.Add(v.VatAmount)
		case ledger.VatClassZeroRated:
			s.ZeroRatedSales = s.ZeroRatedSales.Add(v.ReportableAmount())
		default:
			s.ExemptSales = s.ExemptSales.Add(v.ReportableAmount())
		}
	}
	for _, v := range disbursements {
		if rng.Contains(v.Date) && v.HasInputVat {
			s.InputVat = s.InputVat.Add(v.VatAmount)
		}
	}
	s.VatPayable = s.OutputVat.Sub(s.InputVat)
	return s
}

// VatMonthRow is one month of the VAT totals table. The quarterly fields are
// set on quarter-ending months only.
type VatMonthRow struct {
	Month           int
	OutputVat       decimal.Decimal
	InputVat        decimal.Decimal
	NetVat          decimal.Decimal
	IsQuarterEnd    bool
	QuarterlyOutput *decimal.Decimal
	QuarterlyInput  *decimal.Decimal
	QuarterlyNet    *decimal.Decimal
}

// MarshalJSON renders amounts with two fractional digits and omits absent quarterly fields.
func (r VatMonthRow) MarshalJSON() ([]byte, error) {
	type wire struct {
		Month           int     `json:"month"`
		MonthKey        string  `json:"monthKey"`
		OutputVat       string  `json:"outputVat"`
		InputVat        string  `json:"inputVat"`
		NetVat          string  `json:"netVat"`
		IsQuarterEnd    bool    `json:"isQuarterEnd"`
		QuarterlyOutput *string `json:"quarterlyOutput,omitempty"`
		QuarterlyInput  *string `json:"quarterlyInput,omitempty"`
		QuarterlyNet    *string `json:"quarterlyNet,omitempty"`
	}
	w := wire{
		Month:        r.Month,
		MonthKey:     monthKeys[r.Month-1],
		OutputVat:    shared.Fixed(r.OutputVat),
		InputVat:     shared.Fixed(r.InputVat),
		NetVat:       shared.Fixed(r.NetVat),
		IsQuarterEnd: r.IsQuarterEnd,
	}
	if r.IsQuarterEnd {
		w.QuarterlyOutput = fixedPtr(r.QuarterlyOutput)
		w.QuarterlyInput = fixedPtr(r.QuarterlyInput)
		w.QuarterlyNet = fixedPtr(r.QuarterlyNet)
	}
	return json.Marshal(w)
}

func fixedPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := shared.Fixed(*d)
	return &s
}

// BuildVatTotals buckets output and input VAT by month of the book's year and
// sums each quarter from its three months.
func BuildVatTotals(book Book) []VatMonthRow {
	var output, input [12]decimal.Decimal
	for _, v := range book.Receipts {
		if month, ok := MonthIndex(v.Date, book.Year); ok && v.VatClass() == ledger.VatClassVatable {
			output[month] = output[month].Add(v.VatAmount)
		}
	}
	for _, v := range book.Disbursements {
		if month, ok := MonthIndex(v.Date, book.Year); ok && v.HasInputVat {
			input[month] = input[month].Add(v.VatAmount)
		}
	}
	outAmounts, inAmounts := Additive(output), Additive(input)

	rows := make([]VatMonthRow, 12)
	for m := 0; m < 12; m++ {
		row := VatMonthRow{
			Month:        m + 1,
			OutputVat:    output[m],
			InputVat:     input[m],
			IsQuarterEnd: IsQuarterEnd(m + 1),
		}
		row.NetVat = row.OutputVat.Sub(row.InputVat)
		if row.IsQuarterEnd {
			q := QuarterOf(m+1) - 1
			qOut, qIn := outAmounts.Quarters[q], inAmounts.Quarters[q]
			qNet := qOut.Sub(qIn)
			row.QuarterlyOutput, row.QuarterlyInput, row.QuarterlyNet = &qOut, &qIn, &qNet
		}
		rows[m] = row
	}
	return rows
}
