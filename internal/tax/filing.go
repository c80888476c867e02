package tax

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Filing is the persisted outcome of applying credits to a year's return.
type Filing struct {
	ID                uuid.UUID
	CompanyID         int64
	TaxYear           int
	Calculation       Calculation
	NolcoApplied      decimal.Decimal
	McitCreditApplied decimal.Decimal
	Applications      []Application
	NewNolco          *Entry
	NewMcitCredit     *Entry
	FiledBy           int64
	FiledAt           time.Time
}

// MarshalJSON renders amounts with two fractional digits.
func (f Filing) MarshalJSON() ([]byte, error) {
	apps := make([]map[string]any, 0, len(f.Applications))
	for _, a := range f.Applications {
		apps = append(apps, map[string]any{"kind": a.Kind, "entryId": a.EntryID, "amount": shared.Fixed(a.Amount)})
	}
	out := map[string]any{
		"id":                f.ID,
		"companyId":         f.CompanyID,
		"taxYear":           f.TaxYear,
		"calculation":       f.Calculation,
		"nolcoApplied":      shared.Fixed(f.NolcoApplied),
		"mcitCreditApplied": shared.Fixed(f.McitCreditApplied),
		"applications":      apps,
		"filedAt":           f.FiledAt,
	}
	if f.NewNolco != nil {
		out["newNolco"] = EntryView{Entry: *f.NewNolco, State: f.NewNolco.StateAt(f.TaxYear + 1)}
	}
	if f.NewMcitCredit != nil {
		out["newMcitCredit"] = EntryView{Entry: *f.NewMcitCredit, State: f.NewMcitCredit.StateAt(f.TaxYear + 1)}
	}
	return json.Marshal(out)
}
