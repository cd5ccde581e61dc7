// Package metrics 以 Prometheus 匯出帳本操作指標。
package metrics

import (
	"errors"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

const namespace = "ledger"

var _ usecase.Recorder = (*Recorder)(nil)

// Recorder 實作 usecase.Recorder
type Recorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	custodied  prometheus.Gauge
}

// NewRecorder 建立 Recorder 並註冊到 reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by type and result.",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
		custodied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "custodied_usd",
			Help:      "Running USD total of deposits counted against the bank cap.",
		}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.latency, r.custodied} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveOperation(op string, err error, elapsed time.Duration) {
	r.operations.WithLabelValues(op, result(err)).Inc()
	r.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (r *Recorder) SetCustodiedUSD(usd *uint256.Int) {
	f, _ := convert.ToDecimal(usd, domain.USDDecimals).Float64()
	r.custodied.Set(f)
}

// result 把錯誤歸類成低基數的 label
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrOperationsPaused):
		return "paused"
	case errors.Is(err, domain.ErrStalePrice), errors.Is(err, domain.ErrInvalidPrice):
		return "price"
	case errors.Is(err, domain.ErrBankCapExceeded),
		errors.Is(err, domain.ErrWithdrawLimitExceeded),
		errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrSlippageExceeded):
		return "limit"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient"
	case errors.Is(err, domain.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrRefIDConflict):
		return "conflict"
	default:
		return "error"
	}
}
