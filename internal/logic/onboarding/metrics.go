package onboarding

import (
	"time"

	"github.com/zeromicro/go-zero/core/metric"
)

const namespace = "flowforge_onboarding"

var (
	metricChainTotal = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "total",
		Help:      "onboarding chain attempts by result.",
		Labels:    []string{"chain", "result"},
	})

	metricChainDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "duration_ms",
		Help:      "onboarding chain attempt duration(ms).",
		Labels:    []string{"chain"},
		Buckets:   []float64{500, 1000, 2500, 5000, 10000, 20000, 40000, 80000},
	})
)

func observeChain(chainId string, ok bool, elapsed time.Duration) {
	result := "fail"
	if ok {
		result = "ok"
	}
	metricChainTotal.Inc(chainId, result)
	metricChainDuration.Observe(elapsed.Milliseconds(), chainId)
}
