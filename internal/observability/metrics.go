package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpDurationHistogram    *prometheus.HistogramVec
	predictionPlacedCounter  prometheus.Counter
	predictionSettledCounter *prometheus.CounterVec
	referralCommissionVec    *prometheus.CounterVec
	fixedDepositMaturedCount prometheus.Counter
	ledgerImbalanceGauge     prometheus.Gauge
	idempotencyCounter       *prometheus.CounterVec
	workerRunCounter         *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		predictionPlacedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictions_placed_total",
			Help: "Stakes accepted on prediction questions",
		})

		predictionSettledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_settled_total",
			Help: "Predictions settled by outcome",
		}, []string{"outcome"})

		referralCommissionVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_commissions_total",
			Help: "Referral commissions credited by chain level",
		}, []string{"level"})

		fixedDepositMaturedCount = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixed_deposits_matured_total",
			Help: "Fixed deposits paid out at maturity",
		})

		ledgerImbalanceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_drifted_accounts",
			Help: "Accounts whose balance disagrees with their ledger at last check",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			predictionPlacedCounter,
			predictionSettledCounter,
			referralCommissionVec,
			fixedDepositMaturedCount,
			ledgerImbalanceGauge,
			idempotencyCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementPredictionPlaced() {
	if predictionPlacedCounter == nil {
		return
	}
	predictionPlacedCounter.Inc()
}

func AddPredictionsSettled(winners, losers int) {
	if predictionSettledCounter == nil {
		return
	}
	predictionSettledCounter.WithLabelValues("won").Add(float64(winners))
	predictionSettledCounter.WithLabelValues("lost").Add(float64(losers))
}

func IncrementReferralCommission(level int) {
	if referralCommissionVec == nil {
		return
	}
	referralCommissionVec.WithLabelValues(strconv.Itoa(level)).Inc()
}

func AddFixedDepositsMatured(count int) {
	if fixedDepositMaturedCount == nil {
		return
	}
	fixedDepositMaturedCount.Add(float64(count))
}

func SetLedgerImbalance(accounts int) {
	if ledgerImbalanceGauge == nil {
		return
	}
	ledgerImbalanceGauge.Set(float64(accounts))
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
