package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

// ChartFile is the YAML layout accepted by seed-chart.
type ChartFile struct {
	Accounts []ChartEntry `yaml:"accounts"`
}

// ChartEntry is one account in a chart file. Active defaults to true.
type ChartEntry struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Active *bool  `yaml:"active"`
}

// ParseChart decodes and validates a chart file for companyID.
func ParseChart(r io.Reader, companyID int64) ([]ledger.Account, error) {
	var file ChartFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("chart: file is empty")
		}
		return nil, fmt.Errorf("chart: %w", err)
	}
	if len(file.Accounts) == 0 {
		return nil, errors.New("chart: no accounts listed")
	}
	seen := make(map[string]struct{}, len(file.Accounts))
	accounts := make([]ledger.Account, 0, len(file.Accounts))
	for i, entry := range file.Accounts {
		code := strings.TrimSpace(entry.Code)
		name := strings.TrimSpace(entry.Name)
		if code == "" || name == "" {
			return nil, fmt.Errorf("chart: entry %d needs a code and a name", i+1)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("chart: duplicate code %s", code)
		}
		seen[code] = struct{}{}
		typ, err := ledger.ParseAccountType(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("chart: account %s: %w", code, err)
		}
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		accounts = append(accounts, ledger.Account{
			CompanyID:      companyID,
			Code:           code,
			Name:           name,
			Type:           typ,
			ReportCategory: ledger.CategoryFor(typ),
			IsActive:       active,
		})
	}
	return accounts, nil
}

func newSeedChartCommand() *cobra.Command {
	var (
		path      string
		companyID int64
	)
	cmd := &cobra.Command{
		Use:   "seed-chart",
		Short: "Insert or refresh a company's chart of accounts from YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if companyID <= 0 {
				return errors.New("--company must be positive")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			accounts, err := ParseChart(f, companyID)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			n, err := ledger.NewRepository(e.pool).UpsertAccounts(cmd.Context(), companyID, accounts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d accounts for company %d\n", n, companyID)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "chart YAML file")
	cmd.Flags().Int64Var(&companyID, "company", 0, "company id")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
