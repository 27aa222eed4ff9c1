package transfer

import (
	"time"

	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names follow friggdb/pool.go's convention: a namespace shared
// across this module's gauges and counters, promauto-registered at
// package init rather than threaded through constructors.
const (
	queueLengthReportInterval = 5 * time.Second
	metricsNamespace          = "vk_async_transfer"
)

var (
	metricQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "request_queue_depth",
		Help:      "Current number of requests waiting in the transfer queue.",
	})

	metricQueueCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "request_queue_capacity",
		Help:      "Current allocated capacity of the transfer queue's ring buffer.",
	})

	metricHandlePoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "handle_pool_size",
		Help:      "Current number of allocated handle slots, including freed ones.",
	})

	metricHandlePoolFree = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "handle_pool_free",
		Help:      "Current number of free (unallocated) handle slots.",
	})

	metricSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "submissions_total",
		Help:      "Total transfer requests submitted, by type.",
	}, []string{"type"})

	metricCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "completions_total",
		Help:      "Total transfers observed complete via a status query.",
	})

	metricErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "errors_total",
		Help:      "Total transfer errors, by kind (internal, gpu).",
	}, []string{"kind"})
)

// reportQueueLength periodically mirrors the request queue's length and
// capacity, and the handle pool's size and free count, into their gauges
// until stop is closed — the same polling pattern friggdb/pool.go uses
// for its query queue.
func reportQueueLength(q *requestQueue, pool *handlepool.Pool, stop <-chan struct{}) {
	ticker := time.NewTicker(queueLengthReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			length, capacity := q.Stats()
			metricQueueDepth.Set(float64(length))
			metricQueueCapacity.Set(float64(capacity))
			metricHandlePoolSize.Set(float64(pool.Len()))
			metricHandlePoolFree.Set(float64(pool.FreeCount()))
		case <-stop:
			return
		}
	}
}
