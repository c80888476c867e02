package statements

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes data-quality collectors for statement builds.
type Metrics struct {
	gaps        *prometheus.CounterVec
	gapAmount   *prometheus.CounterVec
	divergence  *prometheus.GaugeVec
	equationGap *prometheus.GaugeVec
	builds      *prometheus.HistogramVec
}

// NewMetrics registers the collectors against registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	gaps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashbook_classification_gaps_total",
		Help: "Voucher amounts dropped because no account of the wanted type exists.",
	}, []string{"kind"})
	gapAmount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashbook_classification_gap_amount_php_total",
		Help: "Sum of voucher amounts dropped by classification gaps.",
	}, []string{"kind"})
	divergence := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cashbook_balance_sheet_divergence_php",
		Help: "Sum of absolute differences between voucher totals and their lines for the last balance sheet built.",
	}, []string{"company", "year"})
	equationGap := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cashbook_balance_sheet_equation_gap_php",
		Help: "Year-end assets minus liabilities minus equity for the last balance sheet built.",
	}, []string{"company", "year"})
	builds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cashbook_statement_build_duration_seconds",
		Help:    "Duration of statement builds including ledger fetch.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	registerer.MustRegister(gaps, gapAmount, divergence, equationGap, builds)
	return &Metrics{gaps: gaps, gapAmount: gapAmount, divergence: divergence, equationGap: equationGap, builds: builds}
}

func (m *Metrics) recordGaps(list []Gap) {
	if m == nil {
		return
	}
	for _, g := range list {
		m.gaps.WithLabelValues(string(g.Kind)).Inc()
		amount, _ := g.Amount.Abs().Float64()
		m.gapAmount.WithLabelValues(string(g.Kind)).Add(amount)
	}
}

func (m *Metrics) recordBalanceSheet(companyID int64, year int, bs BalanceSheet) {
	if m == nil {
		return
	}
	company, y := strconv.FormatInt(companyID, 10), strconv.Itoa(year)
	divergence, _ := bs.Divergence.Float64()
	gap, _ := bs.EquationGap.Float64()
	m.divergence.WithLabelValues(company, y).Set(divergence)
	m.equationGap.WithLabelValues(company, y).Set(gap)
}

func (m *Metrics) observe(report string, seconds float64) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(report).Observe(seconds)
}
