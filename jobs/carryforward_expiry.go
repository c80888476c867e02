package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/jobs"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
)

// ExpiringSource lists carryforward entries with an unused balance whose last
// usable year is year.
type ExpiringSource interface {
	ExpiringEntries(ctx context.Context, kind tax.Kind, year int) ([]tax.Entry, error)
}

// CarryforwardExpiryJob warns about NOLCO and MCIT credit balances that lapse
// at the end of the scanned year.
type CarryforwardExpiryJob struct {
	Source  ExpiringSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewCarryforwardExpiryJob constructs the job handler.
func NewCarryforwardExpiryJob(source ExpiringSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *CarryforwardExpiryJob {
	return &CarryforwardExpiryJob{
		Source:  source,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// ExpiryReport summarises one scan.
type ExpiryReport struct {
	Year      int
	Entries   map[tax.Kind]int
	Remaining map[tax.Kind]decimal.Decimal
}

// Handle executes the expiry scan.
func (j *CarryforwardExpiryJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("carryforward expiry: source not configured")
	}
	var payload CarryforwardExpiryPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Scan(ctx, payload.Year)
	return err
}

// Scan runs the expiry scan for year, or the current year when year is zero.
func (j *CarryforwardExpiryJob) Scan(ctx context.Context, year int) (report ExpiryReport, err error) {
	if year == 0 {
		year = j.now().Year()
	}
	tracker := j.metrics().Track(TaskCarryforwardExpiry)
	defer func() {
		err = tracker.End(err)
	}()

	report = ExpiryReport{Year: year, Entries: make(map[tax.Kind]int), Remaining: make(map[tax.Kind]decimal.Decimal)}
	for _, kind := range []tax.Kind{tax.KindNolco, tax.KindMcit} {
		entries, err := j.Source.ExpiringEntries(ctx, kind, year)
		if err != nil {
			j.log().Error("list expiring entries", slog.String("kind", string(kind)), slog.Any("error", err))
			return report, err
		}
		total := decimal.Zero
		for _, e := range entries {
			remaining := e.Remaining()
			total = total.Add(remaining)
			j.log().Warn("carryforward balance expires at year end",
				slog.String("kind", string(kind)),
				slog.Int64("company_id", e.CompanyID),
				slog.Int("origin_year", e.OriginYear),
				slog.Int("expiry_year", e.ExpiryYear),
				slog.String("remaining", shared.Fixed(remaining)))
		}
		report.Entries[kind] = len(entries)
		report.Remaining[kind] = total
		j.metrics().SetExpiring(string(kind), len(entries), total.InexactFloat64())
	}
	j.log().Info("carryforward expiry scan finished",
		slog.Int("year", year),
		slog.Int("nolco_entries", report.Entries[tax.KindNolco]),
		slog.Int("mcit_entries", report.Entries[tax.KindMcit]))
	return report, nil
}

func (j *CarryforwardExpiryJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CarryforwardExpiryJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCarryforwardExpiry))
	}
	return slog.Default().With(slog.String("job", TaskCarryforwardExpiry))
}

func (j *CarryforwardExpiryJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *CarryforwardExpiryJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
