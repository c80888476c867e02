package statements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

type stubSource struct {
	accounts      []ledger.Account
	roles         ledger.AccountRoles
	receipts      []ledger.Voucher
	disbursements []ledger.Voucher
	err           error
	calls         atomic.Int32
}

func (s *stubSource) Accounts(ctx context.Context, companyID int64) ([]ledger.Account, error) {
	s.calls.Add(1)
	return s.accounts, s.err
}

func (s *stubSource) AccountRoles(ctx context.Context, companyID int64) (ledger.AccountRoles, error) {
	return s.roles, nil
}

func (s *stubSource) Vouchers(ctx context.Context, companyID int64, kind ledger.VoucherKind, rng ledger.DateRange) ([]ledger.Voucher, error) {
	var list []ledger.Voucher
	src := s.receipts
	if kind == ledger.VoucherKindDisbursement {
		src = s.disbursements
	}
	for _, v := range src {
		if rng.Contains(v.Date) {
			list = append(list, v)
		}
	}
	return list, nil
}

type blockingSource struct {
	*stubSource
	once      sync.Once
	started   chan struct{}
	release   chan struct{}
	cancelled atomic.Bool
}

func (s *blockingSource) Accounts(ctx context.Context, companyID int64) ([]ledger.Account, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return s.stubSource.Accounts(ctx, companyID)
	case <-ctx.Done():
		s.cancelled.Store(true)
		return nil, ctx.Err()
	}
}

func newFixtureSource() *stubSource {
	book := fixtureBook()
	return &stubSource{accounts: fixtureAccounts(), receipts: book.Receipts, disbursements: book.Disbursements}
}

func newTestService(t *testing.T, src Source) (*Service, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewService(src, Options{}, metrics, nil), metrics
}

func TestServiceProfitLossAndSummary(t *testing.T) {
	svc, _ := newTestService(t, newFixtureSource())
	pl, err := svc.ProfitLoss(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Len(t, pl.Rows, 4)

	summary, err := svc.Summary(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.True(t, summary.NetIncome.Equal(d("3700")))

	_, err = svc.ProfitLoss(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestServiceSharedBuildSurvivesCancelledCaller(t *testing.T) {
	src := &blockingSource{stubSource: newFixtureSource(), started: make(chan struct{}), release: make(chan struct{})}
	svc, _ := newTestService(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.ProfitLoss(ctx, 1, 2024)
		first <- err
	}()
	<-src.started

	type result struct {
		pl  ProfitLoss
		err error
	}
	second := make(chan result, 1)
	go func() {
		pl, err := svc.ProfitLoss(context.Background(), 1, 2024)
		second <- result{pl, err}
	}()

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)
	close(src.release)

	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.pl.Rows, 4)
	assert.False(t, src.cancelled.Load(), "the shared build must not see the first caller's cancellation")
}

func TestServiceSummaryForWindow(t *testing.T) {
	svc, _ := newTestService(t, newFixtureSource())
	q1, err := ResolvePeriod(2024, 1, 0)
	require.NoError(t, err)

	summary, err := svc.SummaryFor(context.Background(), 1, q1.Range())
	require.NoError(t, err)
	assert.True(t, summary.TotalRevenue.Equal(d("3000")))
	assert.True(t, summary.TotalCost.Equal(d("600")))
	assert.True(t, summary.TotalExpenses.Equal(d("400")))
}

func TestServiceAppliesCompanyRoleOverride(t *testing.T) {
	src := newFixtureSource()
	src.roles = ledger.AccountRoles{RetainedEarningsCode: "3100"}
	svc, _ := newTestService(t, src)

	bs, err := svc.BalanceSheet(context.Background(), 1, 2024, BalanceSheetOptions{})
	require.NoError(t, err)
	_, ok := rowByCode(bs.Rows, "3100")
	assert.True(t, ok)
	_, ok = rowByCode(bs.Rows, "3200")
	assert.False(t, ok)
}

func TestServiceRecordsGapsAndDivergence(t *testing.T) {
	src := &stubSource{
		accounts: []ledger.Account{{ID: 1, Code: "1010", Type: ledger.AccountTypeAsset, IsActive: true}},
		receipts: []ledger.Voucher{
			receipt(1, day(2024, 5, 1), "500", line(1, "400")),
		},
	}
	svc, metrics := newTestService(t, src)

	_, err := svc.ProfitLoss(context.Background(), 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.gaps.WithLabelValues("receipt")))
	assert.Equal(t, 500.0, testutil.ToFloat64(metrics.gapAmount.WithLabelValues("receipt")))

	_, err = svc.BalanceSheet(context.Background(), 7, 2024, BalanceSheetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, testutil.ToFloat64(metrics.divergence.WithLabelValues("7", "2024")))
	assert.Equal(t, 500.0, testutil.ToFloat64(metrics.equationGap.WithLabelValues("7", "2024")))
}

func TestServiceWrapsSourceErrors(t *testing.T) {
	boom := errors.New("db down")
	svc, _ := newTestService(t, &stubSource{err: boom})
	_, err := svc.VatTotals(context.Background(), 1, 2024)
	require.ErrorIs(t, err, boom)
}

func newTestRouter(t *testing.T, src Source) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, src)
	r := chi.NewRouter()
	r.Route("/companies/{companyID}", NewHandler(nil, svc).MountRoutes)
	return r
}

func TestHandlerProfitLoss(t *testing.T) {
	router := newTestRouter(t, newFixtureSource())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/1/reports/profit-loss?year=2024", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "4000", rows[0]["accountCode"])
	assert.Equal(t, "4000.00", rows[0]["annual"])
}

func TestHandlerRejectsInvalidParams(t *testing.T) {
	router := newTestRouter(t, newFixtureSource())
	for _, target := range []string{
		"/companies/1/reports/profit-loss",
		"/companies/1/reports/balance-sheet?year=abc",
		"/companies/1/reports/vat/totals?year=99999",
		"/companies/x/reports/journal?year=2024",
		"/companies/1/reports/vat/summary?start=2024-03-01&end=2024-01-01",
		"/companies/1/reports/balance-sheet?year=2024&strict=maybe",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlerBalanceSheetStrictParam(t *testing.T) {
	router := newTestRouter(t, newFixtureSource())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/1/reports/balance-sheet?year=2024&strict=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Strict     bool   `json:"strict"`
		Divergence string `json:"divergence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Strict)
	assert.Equal(t, "0.00", body.Divergence)
}

func TestHandlerVatSummary(t *testing.T) {
	book := vatBook()
	router := newTestRouter(t, &stubSource{accounts: fixtureAccounts(), receipts: book.Receipts, disbursements: book.Disbursements})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/1/reports/vat/summary?start=2024-01-01&end=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"vatableSales":"10000.00","zeroRatedSales":"0.00","exemptSales":"0.00",
		"outputVat":"1200.00","inputVat":"240.00","vatPayable":"960.00"}`, rec.Body.String())
}
