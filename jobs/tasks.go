package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/bir"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCarryforwardExpiry scans NOLCO and MCIT ledgers for balances lapsing at year end.
	TaskCarryforwardExpiry = "tax:carryforward_expiry"
	// TaskBirPrebuild builds one BIR extract ahead of a filing deadline.
	TaskBirPrebuild = "bir:prebuild"
)

// CarryforwardExpiryPayload selects the expiry year to scan. Zero means the current year.
type CarryforwardExpiryPayload struct {
	Year int `json:"year"`
}

// NewCarryforwardExpiryTask constructs an Asynq task for the expiry scan.
func NewCarryforwardExpiryTask(year int) (*asynq.Task, error) {
	data, err := json.Marshal(CarryforwardExpiryPayload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCarryforwardExpiry, data, asynq.Queue(QueueDefault)), nil
}

// BirPrebuildPayload identifies the extract to build.
type BirPrebuildPayload struct {
	FormCode  string `json:"form_code"`
	CompanyID int64  `json:"company_id"`
	Year      int    `json:"year"`
	Quarter   int    `json:"quarter,omitempty"`
	Month     int    `json:"month,omitempty"`
}

func (p BirPrebuildPayload) request() bir.Request {
	return bir.Request{FormCode: p.FormCode, CompanyID: p.CompanyID, Year: p.Year, Quarter: p.Quarter, Month: p.Month}
}

// NewBirPrebuildTask constructs an Asynq task after checking the form code and period.
// Each task carries a fresh id so log lines of one build can be correlated.
func NewBirPrebuildTask(payload BirPrebuildPayload) (*asynq.Task, error) {
	form, err := bir.Lookup(payload.FormCode)
	if err != nil {
		return nil, err
	}
	if payload.CompanyID <= 0 {
		return nil, fmt.Errorf("jobs: company id must be positive")
	}
	if _, _, err := form.Window(payload.Year, payload.Quarter, payload.Month); err != nil {
		return nil, err
	}
	payload.FormCode = form.Code
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBirPrebuild, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.TaskID(uuid.NewString())), nil
}
