package tax

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Kind distinguishes the two expiring-credit ledgers.
type Kind string

const (
	KindNolco Kind = "nolco"
	KindMcit  Kind = "mcit"
)

// EntryState is the lifecycle of a carryforward entry relative to a tax year.
type EntryState string

const (
	EntryStateActive    EntryState = "active"
	EntryStateExhausted EntryState = "exhausted"
	EntryStateExpired   EntryState = "expired"
)

// Entry is one NOLCO loss or MCIT excess credit. OriginalAmount is fixed at
// creation; only UsedAmount moves, and only upward.
type Entry struct {
	ID             int64
	CompanyID      int64
	Kind           Kind
	OriginYear     int
	OriginalAmount decimal.Decimal
	UsedAmount     decimal.Decimal
	ExpiryYear     int
}

// NolcoExpiryYear gives losses three years of carryover, five for 2020 and 2021 losses.
func NolcoExpiryYear(lossYear int) int {
	if lossYear == 2020 || lossYear == 2021 {
		return lossYear + 5
	}
	return lossYear + 3
}

// McitExpiryYear gives excess MCIT three years of carryover.
func McitExpiryYear(taxYear int) int {
	return taxYear + 3
}

// NewNolcoEntry opens a NOLCO entry for a net operating loss.
func NewNolcoEntry(companyID int64, lossYear int, loss decimal.Decimal) Entry {
	return Entry{
		CompanyID:      companyID,
		Kind:           KindNolco,
		OriginYear:     lossYear,
		OriginalAmount: loss,
		UsedAmount:     decimal.Zero,
		ExpiryYear:     NolcoExpiryYear(lossYear),
	}
}

// NewMcitCredit opens an MCIT credit for the excess of MCIT over regular tax.
func NewMcitCredit(companyID int64, taxYear int, excess decimal.Decimal) Entry {
	return Entry{
		CompanyID:      companyID,
		Kind:           KindMcit,
		OriginYear:     taxYear,
		OriginalAmount: excess,
		UsedAmount:     decimal.Zero,
		ExpiryYear:     McitExpiryYear(taxYear),
	}
}

// Remaining is the unused balance.
func (e Entry) Remaining() decimal.Decimal {
	return e.OriginalAmount.Sub(e.UsedAmount)
}

// StateAt evaluates the entry for a target tax year.
func (e Entry) StateAt(year int) EntryState {
	switch {
	case !e.Remaining().IsPositive():
		return EntryStateExhausted
	case e.ExpiryYear < year:
		return EntryStateExpired
	default:
		return EntryStateActive
	}
}

// UsableIn reports whether a filing for year may consume the entry. Besides
// being active, the entry must originate in an earlier year.
func (e Entry) UsableIn(year int) bool {
	return e.OriginYear < year && e.StateAt(year) == EntryStateActive
}

// Consume records amount as used by year.
func (e *Entry) Consume(year int, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: non-positive amount %s", ErrOverConsumption, amount)
	}
	switch e.StateAt(year) {
	case EntryStateExpired:
		return ErrEntryExpired
	case EntryStateExhausted:
		return ErrEntryExhausted
	}
	if e.OriginYear >= year {
		return fmt.Errorf("%w: entry from %d cannot be used by %d", ErrEntryExpired, e.OriginYear, year)
	}
	if amount.GreaterThan(e.Remaining()) {
		return fmt.Errorf("%w: %s exceeds remaining %s", ErrOverConsumption, amount, e.Remaining())
	}
	e.UsedAmount = e.UsedAmount.Add(amount)
	return nil
}

// Available sums the remaining balance of entries active in year: a positive
// remainder and an expiry year not before year.
func Available(entries []Entry, year int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.StateAt(year) == EntryStateActive {
			total = total.Add(e.Remaining())
		}
	}
	return total
}

// Claimable sums the remaining balance a filing for year may consume.
func Claimable(entries []Entry, year int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.UsableIn(year) {
			total = total.Add(e.Remaining())
		}
	}
	return total
}

// Application records how much of one entry a filing consumed.
type Application struct {
	Kind    Kind            `json:"kind"`
	EntryID int64           `json:"entryId"`
	Amount  decimal.Decimal `json:"amount"`
}

// ApplyFIFO consumes usable entries, earliest expiry first, until limit is
// reached. entries is updated in place.
func ApplyFIFO(entries []Entry, year int, limit decimal.Decimal) ([]Application, decimal.Decimal, error) {
	order := make([]int, 0, len(entries))
	for i := range entries {
		if entries[i].UsableIn(year) {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := entries[order[a]], entries[order[b]]
		if ea.ExpiryYear != eb.ExpiryYear {
			return ea.ExpiryYear < eb.ExpiryYear
		}
		return ea.OriginYear < eb.OriginYear
	})

	var apps []Application
	applied := decimal.Zero
	left := shared.MaxZero(limit)
	for _, i := range order {
		if !left.IsPositive() {
			break
		}
		take := shared.Min(entries[i].Remaining(), left)
		if err := entries[i].Consume(year, take); err != nil {
			return nil, decimal.Zero, err
		}
		apps = append(apps, Application{Kind: entries[i].Kind, EntryID: entries[i].ID, Amount: take})
		applied = applied.Add(take)
		left = left.Sub(take)
	}
	return apps, applied, nil
}

// EntryView is an entry annotated with its state for a target year.
type EntryView struct {
	Entry
	State EntryState
}

// Views annotates entries for year.
func Views(entries []Entry, year int) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryView{Entry: e, State: e.StateAt(year)})
	}
	return out
}

// MarshalJSON renders amounts with two fractional digits.
func (v EntryView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":              v.ID,
		"kind":            v.Kind,
		"originYear":      v.OriginYear,
		"originalAmount":  shared.Fixed(v.OriginalAmount),
		"usedAmount":      shared.Fixed(v.UsedAmount),
		"remainingAmount": shared.Fixed(v.Remaining()),
		"expiryYear":      v.ExpiryYear,
		"state":           v.State,
	})
}
