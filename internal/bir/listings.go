package bir

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// ListingRow is one voucher of the sales or purchase listing. Amounts are not
// aggregated; exporters sum them.
type ListingRow struct {
	VoucherID int64
	Number    string
	Date      time.Time
	TIN       string
	Name      string
	Address   string
	Exempt    decimal.Decimal
	ZeroRated decimal.Decimal
	Taxable   decimal.Decimal
	Vat       decimal.Decimal
	Gross     decimal.Decimal
}

// MarshalJSON renders dates as YYYY-MM-DD and amounts with two fractional digits.
func (r ListingRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"voucherId": r.VoucherID,
		"number":    r.Number,
		"date":      r.Date.Format(time.DateOnly),
		"tin":       r.TIN,
		"name":      r.Name,
		"address":   r.Address,
		"exempt":    shared.Fixed(r.Exempt),
		"zeroRated": shared.Fixed(r.ZeroRated),
		"taxable":   shared.Fixed(r.Taxable),
		"vat":       shared.Fixed(r.Vat),
		"gross":     shared.Fixed(r.Gross),
	})
}

func listingRow(v ledger.Voucher) ListingRow {
	return ListingRow{
		VoucherID: v.ID,
		Number:    v.Number,
		Date:      v.Date,
		TIN:       v.Counterparty.TIN,
		Name:      v.Counterparty.Name,
		Address:   v.Counterparty.Address,
		Exempt:    decimal.Zero,
		ZeroRated: decimal.Zero,
		Taxable:   decimal.Zero,
		Vat:       decimal.Zero,
		Gross:     v.TotalAmount,
	}
}

// SalesListing emits one row per receipt in rng, split by VAT class.
func SalesListing(receipts []ledger.Voucher, rng ledger.DateRange) []ListingRow {
	rows := make([]ListingRow, 0, len(receipts))
	for _, v := range receipts {
		if !rng.Contains(v.Date) {
			continue
		}
		row := listingRow(v)
		switch v.VatClass() {
		case ledger.VatClassVatable:
			row.Taxable = v.ReportableAmount()
			row.Vat = v.VatAmount
		case ledger.VatClassZeroRated:
			row.ZeroRated = v.ReportableAmount()
		default:
			row.Exempt = v.ReportableAmount()
		}
		rows = append(rows, row)
	}
	sortListing(rows)
	return rows
}

// PurchaseListing emits one row per disbursement in rng. Purchases carrying
// input VAT are taxable; all others are reported as exempt. Payroll is not a
// purchase and is left out.
func PurchaseListing(disbursements []ledger.Voucher, rng ledger.DateRange) []ListingRow {
	rows := make([]ListingRow, 0, len(disbursements))
	for _, v := range disbursements {
		if !rng.Contains(v.Date) || v.IsCompensation {
			continue
		}
		row := listingRow(v)
		if v.HasInputVat {
			row.Taxable = v.ReportableAmount()
			row.Vat = v.VatAmount
		} else {
			row.Exempt = v.ReportableAmount()
		}
		rows = append(rows, row)
	}
	sortListing(rows)
	return rows
}

func sortListing(rows []ListingRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Number < rows[j].Number
	})
}

// Listings pairs the two listings of a window.
type Listings struct {
	Sales     []ListingRow `json:"sales"`
	Purchases []ListingRow `json:"purchases"`
}

// Totals sums the gross and VAT columns of both listings.
func (l Listings) Totals() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{
		"salesGross":     decimal.Zero,
		"salesVat":       decimal.Zero,
		"purchasesGross": decimal.Zero,
		"purchasesVat":   decimal.Zero,
	}
	for _, r := range l.Sales {
		out["salesGross"] = out["salesGross"].Add(r.Gross)
		out["salesVat"] = out["salesVat"].Add(r.Vat)
	}
	for _, r := range l.Purchases {
		out["purchasesGross"] = out["purchasesGross"].Add(r.Gross)
		out["purchasesVat"] = out["purchasesVat"].Add(r.Vat)
	}
	return out
}

// AlphalistRow totals one employee's compensation for the year.
type AlphalistRow struct {
	TIN               string
	Name              string
	Address           string
	GrossCompensation decimal.Decimal
	TaxWithheld       decimal.Decimal
	Payments          int
}

// MarshalJSON renders amounts with two fractional digits.
func (r AlphalistRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"tin":               r.TIN,
		"name":              r.Name,
		"address":           r.Address,
		"grossCompensation": shared.Fixed(r.GrossCompensation),
		"taxWithheld":       shared.Fixed(r.TaxWithheld),
		"payments":          r.Payments,
	})
}

// taxBase is the amount before withholding: the cash paid plus the tax held back.
func taxBase(v ledger.Voucher) decimal.Decimal {
	return v.TotalAmount.Add(v.WithholdingTax)
}

// Alphalist groups payroll disbursements in rng by payee TIN, or by name when
// the TIN is blank. Rows are ordered by name.
func Alphalist(disbursements []ledger.Voucher, rng ledger.DateRange) []AlphalistRow {
	index := make(map[string]int)
	rows := make([]AlphalistRow, 0)
	for _, v := range disbursements {
		if !v.IsCompensation || !rng.Contains(v.Date) {
			continue
		}
		key := strings.TrimSpace(v.Counterparty.TIN)
		if key == "" {
			key = "name:" + strings.ToLower(strings.TrimSpace(v.Counterparty.Name))
		}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, AlphalistRow{
				TIN:               v.Counterparty.TIN,
				Name:              v.Counterparty.Name,
				Address:           v.Counterparty.Address,
				GrossCompensation: decimal.Zero,
				TaxWithheld:       decimal.Zero,
			})
		}
		rows[i].GrossCompensation = rows[i].GrossCompensation.Add(taxBase(v))
		rows[i].TaxWithheld = rows[i].TaxWithheld.Add(v.WithholdingTax)
		rows[i].Payments++
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].TIN < rows[j].TIN
	})
	return rows
}
