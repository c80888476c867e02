package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/db"
)

type voucherTables struct {
	header      string
	lines       string
	kindColumns string
}

var tablesByKind = map[VoucherKind]voucherTables{
	VoucherKindReceipt: {
		header:      "cash_receipts",
		lines:       "cash_receipt_lines",
		kindColumns: "is_vatable, is_zero_rated, FALSE, 0::numeric, FALSE",
	},
	VoucherKindDisbursement: {
		header:      "cash_disbursements",
		lines:       "cash_disbursement_lines",
		kindColumns: "FALSE, FALSE, has_input_vat, withholding_tax, is_compensation",
	},
}

func tablesFor(kind VoucherKind) (voucherTables, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return voucherTables{}, fmt.Errorf("ledger: unknown voucher kind %q", kind)
	}
	return t, nil
}

// Repository reads the cash ledger from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional voucher operations.
type TxRepository interface {
	GetVoucherStatusForUpdate(ctx context.Context, companyID int64, kind VoucherKind, voucherID int64) (VoucherStatus, error)
	UpdateVoucherStatus(ctx context.Context, kind VoucherKind, voucherID int64, status VoucherStatus) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Company loads company identity.
func (r *Repository) Company(ctx context.Context, companyID int64) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT id, name, tin, address, rdo_code FROM companies WHERE id = $1`, companyID).
		Scan(&c.ID, &c.Name, &c.TIN, &c.Address, &c.RDOCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return c, err
}

// Accounts returns the company's chart ordered by code.
func (r *Repository) Accounts(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, type, report_category, is_active
FROM accounts WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.ReportCategory, &a.IsActive); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AccountRoles loads the per-company role override. Missing rows yield empty roles.
func (r *Repository) AccountRoles(ctx context.Context, companyID int64) (AccountRoles, error) {
	var roles AccountRoles
	err := r.pool.QueryRow(ctx, `SELECT cash_code, retained_earnings_code, fallback_revenue_code, fallback_expense_code
FROM company_account_roles WHERE company_id = $1`, companyID).
		Scan(&roles.CashCode, &roles.RetainedEarningsCode, &roles.FallbackRevenueCode, &roles.FallbackExpenseCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return AccountRoles{}, nil
	}
	return roles, err
}

// UpsertAccounts inserts or refreshes chart entries keyed by code.
func (r *Repository) UpsertAccounts(ctx context.Context, companyID int64, accounts []Account) (int, error) {
	batch := &pgx.Batch{}
	for _, a := range accounts {
		category := a.ReportCategory
		if category == "" {
			category = CategoryFor(a.Type)
		}
		batch.Queue(`INSERT INTO accounts (company_id, code, name, type, report_category, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (company_id, code) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type,
    report_category = EXCLUDED.report_category, is_active = EXCLUDED.is_active`,
			companyID, a.Code, a.Name, string(a.Type), string(category), a.IsActive)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range accounts {
		if _, err := results.Exec(); err != nil {
			return 0, err
		}
	}
	return len(accounts), nil
}

// Vouchers loads every voucher of kind dated within rng, lines attached, ordered by date then id.
func (r *Repository) Vouchers(ctx context.Context, companyID int64, kind VoucherKind, rng DateRange) ([]Voucher, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, company_id, number, date, counterparty_name, counterparty_tin, counterparty_addr,
    total_amount, vat_amount, net_amount, %s, status
FROM %s WHERE company_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date, id`, t.kindColumns, t.header)
	rows, err := r.pool.Query(ctx, query, companyID, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []Voucher
	index := make(map[int64]int)
	var ids []int64
	for rows.Next() {
		var (
			v                    Voucher
			total, vat, net, wht pgtype.Numeric
		)
		v.Kind = kind
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.Number, &v.Date, &v.Counterparty.Name, &v.Counterparty.TIN,
			&v.Counterparty.Address, &total, &vat, &net, &v.IsVatable, &v.IsZeroRated, &v.HasInputVat, &wht,
			&v.IsCompensation, &v.Status); err != nil {
			return nil, err
		}
		v.TotalAmount = db.Decimal(total)
		v.VatAmount = db.Decimal(vat)
		v.NetAmount = db.Decimal(net)
		v.WithholdingTax = db.Decimal(wht)
		index[v.ID] = len(vouchers)
		ids = append(ids, v.ID)
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return vouchers, nil
	}

	lineRows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT voucher_id, account_id, amount, description
FROM %s WHERE voucher_id = ANY($1) ORDER BY voucher_id, line_no, id`, t.lines), ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var (
			voucherID int64
			line      Line
			amount    pgtype.Numeric
		)
		if err := lineRows.Scan(&voucherID, &line.AccountID, &amount, &line.Description); err != nil {
			return nil, err
		}
		line.Amount = db.Decimal(amount)
		if i, ok := index[voucherID]; ok {
			vouchers[i].Lines = append(vouchers[i].Lines, line)
		}
	}
	return vouchers, lineRows.Err()
}

func (r *txRepository) GetVoucherStatusForUpdate(ctx context.Context, companyID int64, kind VoucherKind, voucherID int64) (VoucherStatus, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return "", err
	}
	var status VoucherStatus
	err = r.tx.QueryRow(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = $1 AND company_id = $2 FOR UPDATE`, t.header),
		voucherID, companyID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrVoucherNotFound
	}
	return status, err
}

func (r *txRepository) UpdateVoucherStatus(ctx context.Context, kind VoucherKind, voucherID int64, status VoucherStatus) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = NOW() WHERE id = $1`, t.header), voucherID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}
