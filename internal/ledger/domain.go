package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeCost      AccountType = "cost"
	AccountTypeExpense   AccountType = "expense"
)

// ParseAccountType accepts any casing of the six account types.
func ParseAccountType(raw string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeCost, AccountTypeExpense:
		return t, nil
	}
	return "", fmt.Errorf("ledger: unknown account type %q", raw)
}

// IsProfitLoss reports whether postings to the type flow through the income statement.
func (t AccountType) IsProfitLoss() bool {
	return t == AccountTypeRevenue || t == AccountTypeCost || t == AccountTypeExpense
}

// ReportCategory tells which statement an account is presented on.
type ReportCategory string

const (
	ReportCategoryBalanceSheet ReportCategory = "balance_sheet"
	ReportCategoryProfitLoss   ReportCategory = "profit_loss"
)

// CategoryFor derives the statement an account type belongs to.
func CategoryFor(t AccountType) ReportCategory {
	if t.IsProfitLoss() {
		return ReportCategoryProfitLoss
	}
	return ReportCategoryBalanceSheet
}

// Account models a chart of accounts entry. Code is the join key for report rows.
type Account struct {
	ID             int64          `json:"id"`
	CompanyID      int64          `json:"companyId"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Type           AccountType    `json:"type"`
	ReportCategory ReportCategory `json:"reportCategory"`
	IsActive       bool           `json:"active"`
}

// Company identifies the taxpayer owning a ledger.
type Company struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TIN     string `json:"tin"`
	Address string `json:"address"`
	RDOCode string `json:"rdoCode"`
}

// VoucherKind distinguishes the two cash voucher streams.
type VoucherKind string

const (
	VoucherKindReceipt      VoucherKind = "receipt"
	VoucherKindDisbursement VoucherKind = "disbursement"
)

// ParseVoucherKind accepts the singular kind or its plural route form.
func ParseVoucherKind(raw string) (VoucherKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "receipt", "receipts":
		return VoucherKindReceipt, nil
	case "disbursement", "disbursements":
		return VoucherKindDisbursement, nil
	}
	return "", fmt.Errorf("ledger: unknown voucher kind %q", raw)
}

// VoucherStatus enumerates voucher lifecycle values.
type VoucherStatus string

const (
	VoucherStatusDraft    VoucherStatus = "draft"
	VoucherStatusPending  VoucherStatus = "pending"
	VoucherStatusApproved VoucherStatus = "approved"
)

// Approve applies the only transition the ledger knows: draft or pending to approved.
func (s VoucherStatus) Approve() (VoucherStatus, error) {
	switch s {
	case VoucherStatusDraft, VoucherStatusPending:
		return VoucherStatusApproved, nil
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, VoucherStatusApproved)
}

// VatClass partitions receipts for the sales book.
type VatClass string

const (
	VatClassVatable   VatClass = "vatable"
	VatClassZeroRated VatClass = "zero_rated"
	VatClassExempt    VatClass = "exempt"
)

// Counterparty carries payor or payee details required by statutory listings.
type Counterparty struct {
	Name    string `json:"name"`
	TIN     string `json:"tin"`
	Address string `json:"address"`
}

// Line allocates part of a voucher to an account.
type Line struct {
	AccountID   int64           `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Voucher is a cash receipt or a cash disbursement.
//
// Receipts debit cash and credit their lines' accounts; disbursements credit
// cash and debit their lines' accounts. IsVatable and IsZeroRated apply to
// receipts, HasInputVat, WithholdingTax and IsCompensation to disbursements.
type Voucher struct {
	ID             int64           `json:"id"`
	CompanyID      int64           `json:"companyId"`
	Kind           VoucherKind     `json:"kind"`
	Number         string          `json:"number"`
	Date           time.Time       `json:"date"`
	Counterparty   Counterparty    `json:"counterparty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	VatAmount      decimal.Decimal `json:"vatAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
	IsVatable      bool            `json:"isVatable"`
	IsZeroRated    bool            `json:"isZeroRated"`
	HasInputVat    bool            `json:"hasInputVat"`
	WithholdingTax decimal.Decimal `json:"withholdingTax"`
	IsCompensation bool            `json:"isCompensation"`
	Status         VoucherStatus   `json:"status"`
	Lines          []Line          `json:"lines"`
}

// ReportableAmount is the net amount, or the total when no net amount was captured.
func (v Voucher) ReportableAmount() decimal.Decimal {
	if v.NetAmount.IsZero() {
		return v.TotalAmount
	}
	return v.NetAmount
}

// LinesTotal sums the line amounts. It may differ from TotalAmount.
func (v Voucher) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range v.Lines {
		total = total.Add(line.Amount)
	}
	return total
}

// VatClass resolves the receipt-level VAT partition; flags are checked in priority order.
func (v Voucher) VatClass() VatClass {
	switch {
	case v.IsVatable:
		return VatClassVatable
	case v.IsZeroRated:
		return VatClassZeroRated
	default:
		return VatClassExempt
	}
}

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// YearRange covers 1 January through 31 December of year.
func YearRange(year int) DateRange {
	return DateRange{
		From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Contains reports whether the calendar day of t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(r.From) && !day.After(r.To)
}

var (
	// ErrVoucherNotFound indicates missing voucher.
	ErrVoucherNotFound = errors.New("ledger: voucher not found")
	// ErrCompanyNotFound indicates missing company.
	ErrCompanyNotFound = errors.New("ledger: company not found")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("ledger: invalid status transition")
)
