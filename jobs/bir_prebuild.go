package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hibiken/asynq"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/bir"
	jobmetrics "github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/jobs"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// Extractor builds BIR extracts.
type Extractor interface {
	Extract(ctx context.Context, req bir.Request) (bir.Report, error)
}

// BirPrebuildJob builds one extract and logs its totals.
type BirPrebuildJob struct {
	Extractor Extractor
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewBirPrebuildJob constructs the job handler.
func NewBirPrebuildJob(extractor Extractor, logger *slog.Logger, metrics *jobmetrics.Metrics) *BirPrebuildJob {
	return &BirPrebuildJob{Extractor: extractor, Logger: logger, Metrics: metrics}
}

// Handle executes the prebuild. Requests the extractor rejects are not retried.
func (j *BirPrebuildJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.Extractor == nil {
		return errors.New("bir prebuild: extractor not configured")
	}
	var payload BirPrebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskBirPrebuild)
	defer func() {
		err = tracker.End(err)
	}()

	report, err := j.Extractor.Extract(ctx, payload.request())
	if err != nil {
		if errors.Is(err, bir.ErrUnknownFormCode) || errors.Is(err, bir.ErrInvalidPeriod) {
			j.log().Warn("rejected prebuild request", slog.String("form", payload.FormCode), slog.Any("error", err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		j.log().Error("build extract", slog.String("form", payload.FormCode), slog.Any("error", err))
		return err
	}

	taskID, _ := asynq.GetTaskID(ctx)
	attrs := []any{
		slog.String("task_id", taskID),
		slog.String("form", report.Form.Code),
		slog.Int64("company_id", payload.CompanyID),
		slog.String("period", report.Period.Label()),
	}
	totals := report.Data.Totals()
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, shared.Fixed(totals[k])))
	}
	j.log().Info("bir extract prebuilt", attrs...)
	return nil
}

func (j *BirPrebuildJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *BirPrebuildJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskBirPrebuild))
	}
	return slog.Default().With(slog.String("job", TaskBirPrebuild))
}
