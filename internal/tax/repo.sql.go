package tax

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/db"
)

var ledgerTables = map[Kind]string{
	KindNolco: "nolco_entries",
	KindMcit:  "mcit_credits",
}

func tableFor(kind Kind) (string, error) {
	table, ok := ledgerTables[kind]
	if !ok {
		return "", fmt.Errorf("tax: unknown ledger %q", kind)
	}
	return table, nil
}

// TxRepository exposes the operations used while filing a return.
type TxRepository interface {
	FilingExists(ctx context.Context, companyID int64, year int) (bool, error)
	LockEntries(ctx context.Context, companyID int64, kind Kind) ([]Entry, error)
	UpdateEntryUsage(ctx context.Context, e Entry) error
	InsertEntry(ctx context.Context, e Entry) (int64, error)
	InsertFiling(ctx context.Context, f Filing) error
}

// PgRepository persists tax settings, carryforward ledgers and filings.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PgRepository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("tax repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetSettings loads stored settings. The boolean is false when none exist.
func (r *PgRepository) GetSettings(ctx context.Context, companyID int64, year int) (Settings, bool, error) {
	var (
		s                     Settings
		rate, mcit, available pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, `SELECT company_id, tax_year, tax_rate, mcit_rate, credits_available
FROM tax_settings WHERE company_id = $1 AND tax_year = $2`, companyID, year).
		Scan(&s.CompanyID, &s.TaxYear, &rate, &mcit, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	s.TaxRate, s.McitRate, s.CreditsAvailable = db.Decimal(rate), db.Decimal(mcit), db.Decimal(available)
	s.Stored = true
	return s, true, nil
}

// UpsertSettings writes one row per company and year.
func (r *PgRepository) UpsertSettings(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO tax_settings (company_id, tax_year, tax_rate, mcit_rate, credits_available)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (company_id, tax_year) DO UPDATE SET tax_rate = EXCLUDED.tax_rate, mcit_rate = EXCLUDED.mcit_rate,
    credits_available = EXCLUDED.credits_available, updated_at = NOW()`,
		s.CompanyID, s.TaxYear, db.Numeric(s.TaxRate), db.Numeric(s.McitRate), db.Numeric(s.CreditsAvailable))
	return err
}

// ListEntries returns a company's ledger ordered by origin year.
func (r *PgRepository) ListEntries(ctx context.Context, companyID int64, kind Kind) ([]Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id, company_id, origin_year, original_amount, used_amount, expiry_year
FROM %s WHERE company_id = $1 ORDER BY origin_year`, table), companyID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows, kind)
}

// ExpiringEntries lists entries across companies whose carryover ends in year with balance left.
func (r *PgRepository) ExpiringEntries(ctx context.Context, kind Kind, year int) ([]Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id, company_id, origin_year, original_amount, used_amount, expiry_year
FROM %s WHERE expiry_year = $1 AND used_amount < original_amount ORDER BY company_id, origin_year`, table), year)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows, kind)
}

// FinalWithholding lists final withholding income for year.
func (r *PgRepository) FinalWithholding(ctx context.Context, companyID int64, year int) ([]FinalWithholding, error) {
	rows, err := r.pool.Query(ctx, `SELECT company_id, tax_year, COALESCE(quarter, 0), income_type, gross_amount, tax_withheld
FROM final_withholding_income WHERE company_id = $1 AND tax_year = $2 ORDER BY COALESCE(quarter, 0), id`, companyID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FinalWithholding
	for rows.Next() {
		var (
			f            FinalWithholding
			gross, taxed pgtype.Numeric
		)
		if err := rows.Scan(&f.CompanyID, &f.TaxYear, &f.Quarter, &f.IncomeType, &gross, &taxed); err != nil {
			return nil, err
		}
		f.GrossAmount, f.TaxWithheld = db.Decimal(gross), db.Decimal(taxed)
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetFiling loads the filing for year.
func (r *PgRepository) GetFiling(ctx context.Context, companyID int64, year int) (Filing, error) {
	var (
		f                                       Filing
		gross, taxable, regular, mcit, due      pgtype.Numeric
		nolcoApplied, mcitApplied, other, final pgtype.Numeric
		filedBy                                 pgtype.Int8
	)
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, tax_year, gross_income, taxable_income, regular_tax, mcit, tax_due,
    nolco_applied, mcit_credit_applied, other_credits, final_tax_due, is_mcit_applied, filed_by, filed_at
FROM tax_filings WHERE company_id = $1 AND tax_year = $2`, companyID, year).
		Scan(&f.ID, &f.CompanyID, &f.TaxYear, &gross, &taxable, &regular, &mcit, &due,
			&nolcoApplied, &mcitApplied, &other, &final, &f.Calculation.IsMcitApplied, &filedBy, &f.FiledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Filing{}, ErrFilingNotFound
	}
	if err != nil {
		return Filing{}, err
	}
	c := &f.Calculation
	c.GrossIncome, c.TaxableIncome, c.RegularTax = db.Decimal(gross), db.Decimal(taxable), db.Decimal(regular)
	c.Mcit, c.TaxDue, c.OtherCredits, c.FinalTaxDue = db.Decimal(mcit), db.Decimal(due), db.Decimal(other), db.Decimal(final)
	f.NolcoApplied, f.McitCreditApplied = db.Decimal(nolcoApplied), db.Decimal(mcitApplied)
	f.FiledBy = filedBy.Int64
	return f, nil
}

func (r *txRepository) FilingExists(ctx context.Context, companyID int64, year int) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tax_filings WHERE company_id = $1 AND tax_year = $2)`, companyID, year).Scan(&exists)
	return exists, err
}

func (r *txRepository) LockEntries(ctx context.Context, companyID int64, kind Kind) ([]Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.tx.Query(ctx, fmt.Sprintf(`SELECT id, company_id, origin_year, original_amount, used_amount, expiry_year
FROM %s WHERE company_id = $1 ORDER BY origin_year FOR UPDATE`, table), companyID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows, kind)
}

func (r *txRepository) UpdateEntryUsage(ctx context.Context, e Entry) error {
	table, err := tableFor(e.Kind)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET used_amount = $2 WHERE id = $1`, table), e.ID, db.Numeric(e.UsedAmount))
	return err
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) (int64, error) {
	table, err := tableFor(e.Kind)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.tx.QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (company_id, origin_year, original_amount, used_amount, expiry_year)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, table),
		e.CompanyID, e.OriginYear, db.Numeric(e.OriginalAmount), db.Numeric(e.UsedAmount), e.ExpiryYear).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrLedgerEntryExists
	}
	return id, err
}

func (r *txRepository) InsertFiling(ctx context.Context, f Filing) error {
	c := f.Calculation
	_, err := r.tx.Exec(ctx, `INSERT INTO tax_filings (id, company_id, tax_year, gross_income, taxable_income, regular_tax, mcit,
    tax_due, nolco_applied, mcit_credit_applied, other_credits, final_tax_due, is_mcit_applied, filed_by, filed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		f.ID, f.CompanyID, f.TaxYear, db.Numeric(c.GrossIncome), db.Numeric(c.TaxableIncome), db.Numeric(c.RegularTax),
		db.Numeric(c.Mcit), db.Numeric(c.TaxDue), db.Numeric(f.NolcoApplied), db.Numeric(f.McitCreditApplied),
		db.Numeric(c.OtherCredits), db.Numeric(c.FinalTaxDue), c.IsMcitApplied, nullInt(f.FiledBy), f.FiledAt)
	if isUniqueViolation(err) {
		return ErrAlreadyFiled
	}
	if err != nil {
		return err
	}
	for _, app := range f.Applications {
		if _, err := r.tx.Exec(ctx, `INSERT INTO carryforward_applications (filing_id, kind, entry_id, amount) VALUES ($1,$2,$3,$4)`,
			f.ID, string(app.Kind), app.EntryID, db.Numeric(app.Amount)); err != nil {
			return err
		}
	}
	return nil
}

func scanEntries(rows pgx.Rows, kind Kind) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e              Entry
			original, used pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.OriginYear, &original, &used, &e.ExpiryYear); err != nil {
			return nil, err
		}
		e.Kind = kind
		e.OriginalAmount, e.UsedAmount = db.Decimal(original), db.Decimal(used)
		out = append(out, e)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
