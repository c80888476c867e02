package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/cache"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/statements"
)

type memRepo struct {
	settings map[int]Settings
	entries  map[Kind][]Entry
	filings  map[int]Filing
	nextID   int64
	failOn   string
}

func newMemRepo() *memRepo {
	return &memRepo{
		settings: make(map[int]Settings),
		entries:  map[Kind][]Entry{KindNolco: nil, KindMcit: nil},
		filings:  make(map[int]Filing),
		nextID:   100,
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := map[Kind][]Entry{
		KindNolco: append([]Entry(nil), m.entries[KindNolco]...),
		KindMcit:  append([]Entry(nil), m.entries[KindMcit]...),
	}
	if err := fn(ctx, &memTx{repo: m}); err != nil {
		m.entries = snapshot
		return err
	}
	return nil
}

func (m *memRepo) GetSettings(ctx context.Context, companyID int64, year int) (Settings, bool, error) {
	s, ok := m.settings[year]
	return s, ok, nil
}

func (m *memRepo) UpsertSettings(ctx context.Context, s Settings) error {
	s.Stored = true
	m.settings[s.TaxYear] = s
	return nil
}

func (m *memRepo) ListEntries(ctx context.Context, companyID int64, kind Kind) ([]Entry, error) {
	return append([]Entry(nil), m.entries[kind]...), nil
}

func (m *memRepo) FinalWithholding(ctx context.Context, companyID int64, year int) ([]FinalWithholding, error) {
	return nil, nil
}

func (m *memRepo) GetFiling(ctx context.Context, companyID int64, year int) (Filing, error) {
	f, ok := m.filings[year]
	if !ok {
		return Filing{}, ErrFilingNotFound
	}
	return f, nil
}

func (m *memRepo) add(e Entry) {
	m.nextID++
	e.ID = m.nextID
	m.entries[e.Kind] = append(m.entries[e.Kind], e)
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) FilingExists(ctx context.Context, companyID int64, year int) (bool, error) {
	_, ok := t.repo.filings[year]
	return ok, nil
}

func (t *memTx) LockEntries(ctx context.Context, companyID int64, kind Kind) ([]Entry, error) {
	return append([]Entry(nil), t.repo.entries[kind]...), nil
}

func (t *memTx) UpdateEntryUsage(ctx context.Context, e Entry) error {
	list := t.repo.entries[e.Kind]
	for i := range list {
		if list[i].ID == e.ID {
			list[i].UsedAmount = e.UsedAmount
			return nil
		}
	}
	return errors.New("entry not found")
}

func (t *memTx) InsertEntry(ctx context.Context, e Entry) (int64, error) {
	for _, existing := range t.repo.entries[e.Kind] {
		if existing.OriginYear == e.OriginYear {
			return 0, ErrLedgerEntryExists
		}
	}
	t.repo.add(e)
	return t.repo.nextID, nil
}

func (t *memTx) InsertFiling(ctx context.Context, f Filing) error {
	if t.repo.failOn == "filing" {
		return errors.New("insert failed")
	}
	t.repo.filings[f.TaxYear] = f
	return nil
}

type stubSummaries map[int]statements.Summary

func (s stubSummaries) Summary(ctx context.Context, companyID int64, year int) (statements.Summary, error) {
	return s[year], nil
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (a *stubAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(t *testing.T, repo *memRepo, summaries stubSummaries) (*Service, *miniredis.Miniredis, *stubAudit) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	audit := &stubAudit{}
	svc := NewService(repo, summaries, cache.NewLocker(client, time.Minute), audit, Rates{}, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC) })
	return svc, mr, audit
}

func TestComputeUsesSettingsAndLedgers(t *testing.T) {
	repo := newMemRepo()
	repo.add(NewNolcoEntry(1, 2019, d("99999")))
	repo.add(NewNolcoEntry(1, 2022, d("20000")))
	repo.add(NewMcitCredit(1, 2023, d("500")))
	svc, _, _ := newTestService(t, repo, stubSummaries{2024: summary("100000", "0", "40000")})

	comp, err := svc.Compute(context.Background(), 1, 2024, nil)
	require.NoError(t, err)
	assert.False(t, comp.Settings.Stored)
	assert.True(t, comp.Calculation.AvailableNolco.Equal(d("20000")), "2019 loss expired in 2022")
	assert.True(t, comp.Calculation.TaxableIncome.Equal(d("40000")))
	assert.True(t, comp.Calculation.RegularTax.Equal(d("10000")))
	assert.True(t, comp.Calculation.FinalTaxDue.Equal(d("9500")))

	other := d("1000")
	comp, err = svc.Compute(context.Background(), 1, 2024, &other)
	require.NoError(t, err)
	assert.True(t, comp.Calculation.FinalTaxDue.Equal(d("8500")))

	assert.True(t, repo.entries[KindNolco][1].UsedAmount.IsZero(), "compute never consumes")
}

func TestComputeCountsSameYearEntries(t *testing.T) {
	repo := newMemRepo()
	repo.add(NewNolcoEntry(1, 2024, d("10000")))
	svc, _, _ := newTestService(t, repo, stubSummaries{2024: summary("100000", "0", "40000")})

	comp, err := svc.Compute(context.Background(), 1, 2024, nil)
	require.NoError(t, err)
	assert.True(t, comp.Calculation.AvailableNolco.Equal(d("10000")))
	assert.True(t, comp.Calculation.TaxableIncome.Equal(d("50000")))
	assert.True(t, comp.Calculation.RegularTax.Equal(d("12500")))
	assert.True(t, comp.Calculation.FinalTaxDue.Equal(d("12500")))
}

func TestFileReturnConsumesCredits(t *testing.T) {
	repo := newMemRepo()
	repo.add(NewNolcoEntry(1, 2022, d("70000")))
	repo.add(NewMcitCredit(1, 2023, d("20000")))
	svc, _, audit := newTestService(t, repo, stubSummaries{2024: summary("100000", "0", "40000")})

	filing, err := svc.FileReturn(context.Background(), FileInput{CompanyID: 1, Year: 2024, ActorID: 3})
	require.NoError(t, err)

	assert.True(t, filing.NolcoApplied.Equal(d("60000")), "nolco is capped at income before nolco")
	assert.True(t, filing.Calculation.TaxableIncome.IsZero())
	assert.True(t, filing.Calculation.Mcit.Equal(d("2000")))
	assert.True(t, filing.Calculation.IsMcitApplied)
	assert.True(t, filing.McitCreditApplied.Equal(d("2000")), "mcit credits are capped at tax due")
	assert.True(t, filing.Calculation.FinalTaxDue.IsZero())
	require.NotNil(t, filing.NewMcitCredit)
	assert.True(t, filing.NewMcitCredit.OriginalAmount.Equal(d("2000")))
	assert.Equal(t, 2027, filing.NewMcitCredit.ExpiryYear)
	assert.Nil(t, filing.NewNolco)

	assert.True(t, repo.entries[KindNolco][0].Remaining().Equal(d("10000")))
	assert.True(t, repo.entries[KindMcit][0].Remaining().Equal(d("18000")))
	require.Len(t, repo.entries[KindMcit], 2)
	assert.Equal(t, filing.NewMcitCredit.ID, repo.entries[KindMcit][1].ID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "tax.file", audit.logs[0].Action)
	assert.Equal(t, filing.ID.String(), audit.logs[0].EntityID)

	_, err = svc.FileReturn(context.Background(), FileInput{CompanyID: 1, Year: 2024})
	require.ErrorIs(t, err, ErrAlreadyFiled)
	assert.True(t, repo.entries[KindNolco][0].Remaining().Equal(d("10000")), "a rejected filing leaves the ledger untouched")
}

func TestFileReturnSkipsSameYearEntries(t *testing.T) {
	repo := newMemRepo()
	repo.add(NewNolcoEntry(1, 2024, d("10000")))
	svc, _, _ := newTestService(t, repo, stubSummaries{2024: summary("100000", "0", "40000")})

	filing, err := svc.FileReturn(context.Background(), FileInput{CompanyID: 1, Year: 2024})
	require.NoError(t, err)
	assert.True(t, filing.NolcoApplied.IsZero())
	assert.True(t, filing.Calculation.TaxableIncome.Equal(d("60000")))
	assert.True(t, repo.entries[KindNolco][0].UsedAmount.IsZero())
}

func TestFileReturnOpensNolcoOnLoss(t *testing.T) {
	repo := newMemRepo()
	svc, _, _ := newTestService(t, repo, stubSummaries{2021: summary("50000", "10000", "65000")})

	filing, err := svc.FileReturn(context.Background(), FileInput{CompanyID: 1, Year: 2021})
	require.NoError(t, err)
	require.NotNil(t, filing.NewNolco)
	assert.True(t, filing.NewNolco.OriginalAmount.Equal(d("25000")))
	assert.Equal(t, 2026, filing.NewNolco.ExpiryYear)
	require.NotNil(t, filing.NewMcitCredit, "mcit on positive gross exceeds zero regular tax")
	assert.True(t, filing.NewMcitCredit.OriginalAmount.Equal(d("800")))
	require.Len(t, repo.entries[KindNolco], 1)
}

func TestFileReturnRollsBackOnFailure(t *testing.T) {
	repo := newMemRepo()
	repo.add(NewNolcoEntry(1, 2022, d("5000")))
	repo.failOn = "filing"
	svc, _, _ := newTestService(t, repo, stubSummaries{2024: summary("100000", "0", "40000")})

	_, err := svc.FileReturn(context.Background(), FileInput{CompanyID: 1, Year: 2024})
	require.Error(t, err)
	assert.True(t, repo.entries[KindNolco][0].UsedAmount.IsZero())
	assert.Empty(t, repo.filings)
}

func TestFileReturnRejectedWhileLocked(t *testing.T) {
	repo := newMemRepo()
	svc, mr, _ := newTestService(t, repo, stubSummaries{2024: summary("100000", "0", "40000")})
	require.NoError(t, mr.Set(shared.TaxFilingLockKey(1, 2024), "someone-else"))

	_, err := svc.FileReturn(context.Background(), FileInput{CompanyID: 1, Year: 2024})
	require.ErrorIs(t, err, cache.ErrLockHeld)
	assert.Empty(t, repo.filings)
}

func TestSettingsDefaultsAndSave(t *testing.T) {
	repo := newMemRepo()
	svc, _, _ := newTestService(t, repo, nil)

	s, err := svc.Settings(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.True(t, s.TaxRate.Equal(d("0.25")))
	assert.True(t, s.McitRate.Equal(d("0.02")))

	saved, err := svc.SaveSettings(context.Background(), SettingsInput{CompanyID: 1, TaxYear: 2024, TaxRate: "0.20", McitRate: "0.01", CreditsAvailable: "1500"})
	require.NoError(t, err)
	assert.True(t, saved.Stored)

	s, err = svc.Settings(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.True(t, s.TaxRate.Equal(d("0.2")))
	assert.True(t, s.CreditsAvailable.Equal(d("1500")))

	_, err = svc.Settings(context.Background(), 1, 42)
	require.ErrorIs(t, err, statements.ErrInvalidPeriod)
}

func TestSettingsInputValidation(t *testing.T) {
	cases := map[string]SettingsInput{
		"missing company": {TaxYear: 2024, TaxRate: "0.25", McitRate: "0.02"},
		"missing rate":    {CompanyID: 1, TaxYear: 2024, McitRate: "0.02"},
		"not numeric":     {CompanyID: 1, TaxYear: 2024, TaxRate: "abc", McitRate: "0.02"},
		"percent":         {CompanyID: 1, TaxYear: 2024, TaxRate: "25", McitRate: "0.02"},
		"negative":        {CompanyID: 1, TaxYear: 2024, TaxRate: "0.25", McitRate: "-0.02"},
		"credits":         {CompanyID: 1, TaxYear: 2024, TaxRate: "0.25", McitRate: "0.02", CreditsAvailable: "-1"},
		"year":            {CompanyID: 1, TaxYear: 24, TaxRate: "0.25", McitRate: "0.02"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := in.Parse()
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}
