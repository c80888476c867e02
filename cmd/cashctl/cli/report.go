package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/app"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/tax"
)

var reportKinds = []string{"pl", "bs", "vat", "tax"}

func newReportCommand() *cobra.Command {
	var (
		companyID int64
		year      int
		strict    bool
	)
	cmd := &cobra.Command{
		Use:       "report [pl|bs|vat|tax]",
		Short:     "Print a statement or the tax computation for one year",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: reportKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			if companyID <= 0 {
				return errors.New("--company must be positive")
			}
			if err := statements.ValidateYear(year); err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			services := app.NewServices(e.cfg, e.pool, nil, nil, e.logger)
			out := newReportPrinter(cmd.OutOrStdout())
			ctx := cmd.Context()
			switch args[0] {
			case "pl":
				pl, err := services.Statements.ProfitLoss(ctx, companyID, year)
				if err != nil {
					return err
				}
				return out.ProfitLoss(pl)
			case "bs":
				opts := services.Statements.DefaultBalanceSheetOptions()
				if cmd.Flags().Changed("strict") {
					opts.StrictBalancing = strict
				}
				bs, err := services.Statements.BalanceSheet(ctx, companyID, year, opts)
				if err != nil {
					return err
				}
				return out.BalanceSheet(bs)
			case "vat":
				rows, err := services.Statements.VatTotals(ctx, companyID, year)
				if err != nil {
					return err
				}
				return out.VatTotals(rows)
			default:
				comp, err := services.Tax.Compute(ctx, companyID, year, nil)
				if err != nil {
					return err
				}
				return out.Tax(comp)
			}
		},
	}
	cmd.Flags().Int64Var(&companyID, "company", 0, "company id")
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year")
	cmd.Flags().BoolVar(&strict, "strict", false, "post line sums to cash on the balance sheet")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

// reportPrinter renders reports as aligned text with grouped PHP amounts.
type reportPrinter struct {
	w io.Writer
	p *message.Printer
}

func newReportPrinter(w io.Writer) *reportPrinter {
	return &reportPrinter{w: w, p: message.NewPrinter(language.English)}
}

// Amount formats d with thousands separators and two decimals, e.g. 1,234,567.50.
func (r *reportPrinter) Amount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	frac := fixed[strings.IndexByte(fixed, '.')+1:]
	whole := r.p.Sprintf("%d", d.Abs().Truncate(0).IntPart())
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + whole + "." + frac
}

func (r *reportPrinter) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func (r *reportPrinter) rows(tw *tabwriter.Writer, rows []statements.Row) {
	fmt.Fprintln(tw, "Code\tAccount\tQ1\tQ2\tQ3\tQ4\tAnnual\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", row.AccountCode, row.AccountName,
			r.Amount(row.Quarters[0]), r.Amount(row.Quarters[1]), r.Amount(row.Quarters[2]), r.Amount(row.Quarters[3]),
			r.Amount(row.Annual))
	}
}

// ProfitLoss prints quarterly columns per account followed by the summary.
func (r *reportPrinter) ProfitLoss(pl statements.ProfitLoss) error {
	tw := r.table()
	r.rows(tw, pl.Rows)
	fmt.Fprintln(tw, "\t\t\t\t\t\t\t")
	for _, line := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Total revenue", pl.Summary.TotalRevenue},
		{"Total cost", pl.Summary.TotalCost},
		{"Total expenses", pl.Summary.TotalExpenses},
		{"Net income", pl.Summary.NetIncome},
	} {
		fmt.Fprintf(tw, "\t%s\t\t\t\t\t%s\t\n", line.label, r.Amount(line.value))
	}
	if len(pl.Gaps) > 0 {
		fmt.Fprintf(tw, "\tUnclassified postings\t\t\t\t\t%d\t\n", len(pl.Gaps))
	}
	return tw.Flush()
}

// BalanceSheet prints quarter-end balances and the balancing diagnostics.
func (r *reportPrinter) BalanceSheet(bs statements.BalanceSheet) error {
	tw := r.table()
	r.rows(tw, bs.Rows)
	fmt.Fprintln(tw, "\t\t\t\t\t\t\t")
	fmt.Fprintf(tw, "\tDivergence\t\t\t\t\t%s\t\n", r.Amount(bs.Divergence))
	fmt.Fprintf(tw, "\tEquation gap\t\t\t\t\t%s\t\n", r.Amount(bs.EquationGap))
	return tw.Flush()
}

// VatTotals prints one line per month with quarter subtotals after each quarter end.
func (r *reportPrinter) VatTotals(rows []statements.VatMonthRow) error {
	tw := r.table()
	fmt.Fprintln(tw, "Month\tOutput VAT\tInput VAT\tNet VAT\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%02d\t%s\t%s\t%s\t\n", row.Month, r.Amount(row.OutputVat), r.Amount(row.InputVat), r.Amount(row.NetVat))
		if row.IsQuarterEnd && row.QuarterlyNet != nil {
			fmt.Fprintf(tw, "Q%d\t%s\t%s\t%s\t\n", (row.Month+2)/3,
				r.Amount(deref(row.QuarterlyOutput)), r.Amount(deref(row.QuarterlyInput)), r.Amount(*row.QuarterlyNet))
		}
	}
	return tw.Flush()
}

// Tax prints the computation from gross income to final tax due.
func (r *reportPrinter) Tax(comp tax.Computation) error {
	c := comp.Calculation
	tw := r.table()
	fmt.Fprintf(tw, "Tax year\t%d\t\n", comp.Year)
	for _, line := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Gross income", c.GrossIncome},
		{"NOLCO available", c.AvailableNolco},
		{"Taxable income", c.TaxableIncome},
		{"Regular tax", c.RegularTax},
		{"MCIT", c.Mcit},
		{"Tax due", c.TaxDue},
		{"Credits", c.TotalCredits},
		{"Final tax due", c.FinalTaxDue},
	} {
		fmt.Fprintf(tw, "%s\t%s\t\n", line.label, r.Amount(line.value))
	}
	basis := "regular"
	if c.IsMcitApplied {
		basis = "mcit"
	}
	fmt.Fprintf(tw, "Basis\t%s\t\n", basis)
	return tw.Flush()
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
