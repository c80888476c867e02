package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/app"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector jobs.QueueInspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client := jobs.NewClient(opts)
	inspector := asynq.NewInspector(opts)
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{inspector, client}}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	for _, closer := range c.closers {
		if closeErr := closer.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerArgs carries the parameters of a manually triggered job.
type TriggerArgs struct {
	Year      int
	CompanyID int64
	FormCode  string
	Quarter   int
	Month     int
}

// Trigger enqueues a supported job by task type.
func (c *JobsCLI) Trigger(ctx context.Context, name string, args TriggerArgs) (*asynq.TaskInfo, error) {
	switch name {
	case jobs.TaskCarryforwardExpiry, jobs.TaskBirPrebuild:
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	if name == jobs.TaskCarryforwardExpiry {
		return c.client.EnqueueCarryforwardExpiry(ctx, args.Year)
	}
	return c.client.EnqueueBirPrebuild(ctx, jobs.BirPrebuildPayload{
		FormCode:  args.FormCode,
		CompanyID: args.CompanyID,
		Year:      args.Year,
		Quarter:   args.Quarter,
		Month:     args.Month,
	})
}

// InspectQueue reports the metrics of the default queue.
func (c *JobsCLI) InspectQueue() (jobs.QueueStats, error) {
	if c == nil || c.inspector == nil {
		return jobs.QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	return jobs.Stats(c.inspector)
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger background jobs and inspect the queue",
	}
	cmd.AddCommand(newJobsTriggerCommand(), newJobsStatsCommand())
	return cmd
}

func newJobsTriggerCommand() *cobra.Command {
	var args TriggerArgs
	cmd := &cobra.Command{
		Use:       "trigger <task>",
		Short:     "Enqueue a carryforward expiry scan or a BIR pre-build",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{jobs.TaskCarryforwardExpiry, jobs.TaskBirPrebuild},
		RunE: func(cmd *cobra.Command, positional []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			cli := NewJobsCLI(cfg.RedisAddr)
			defer cli.Close()
			info, err := cli.Trigger(cmd.Context(), positional[0], args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().IntVar(&args.Year, "year", 0, "tax year, 0 for the current year")
	cmd.Flags().Int64Var(&args.CompanyID, "company", 0, "company id for bir:prebuild")
	cmd.Flags().StringVar(&args.FormCode, "form", "", "BIR form code for bir:prebuild")
	cmd.Flags().IntVar(&args.Quarter, "quarter", 0, "quarter 1-4")
	cmd.Flags().IntVar(&args.Month, "month", 0, "month 1-12")
	return cmd
}

func newJobsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print default queue statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			cli := NewJobsCLI(cfg.RedisAddr)
			defer cli.Close()
			return printStats(cmd.OutOrStdout(), cli)
		},
	}
}

func printStats(w io.Writer, cli *JobsCLI) error {
	stats, err := cli.InspectQueue()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
