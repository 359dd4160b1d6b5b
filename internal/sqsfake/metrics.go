package sqsfake

import "github.com/prometheus/client_golang/prometheus"

var (
	metricMessages = prometheus.NewDesc(
		"carqueue_sqsfake_messages",
		"Messages currently held by a queue, by delivery state.",
		[]string{"queue", "state"}, nil,
	)
	metricMessagesTotal = prometheus.NewDesc(
		"carqueue_sqsfake_messages_total",
		"Messages a queue has handled, by operation.",
		[]string{"queue", "op"}, nil,
	)
)

var _ prometheus.Collector = (*Collector)(nil)

// Collector reports queue statistics of a server as prometheus metrics.
type Collector struct {
	Server *Server
}

// Describe implements [prometheus.Collector].
func (c Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- metricMessages
	ch <- metricMessagesTotal
}

// Collect implements [prometheus.Collector].
func (c Collector) Collect(ch chan<- prometheus.Metric) {
	for queue := range c.Server.Queues().EachQueue() {
		stats := queue.Stats()
		for state, value := range map[string]int64{
			"ready":    stats.NumMessagesReady,
			"delayed":  stats.NumMessagesDelayed,
			"inflight": stats.NumMessagesInflight,
		} {
			ch <- prometheus.MustNewConstMetric(metricMessages, prometheus.GaugeValue, float64(value), queue.Name, state)
		}
		for op, value := range map[string]uint64{
			"sent":     stats.TotalMessagesSent,
			"received": stats.TotalMessagesReceived,
			"deleted":  stats.TotalMessagesDeleted,
			"purged":   stats.TotalMessagesPurged,
			"expired":  stats.TotalMessagesExpired,
		} {
			ch <- prometheus.MustNewConstMetric(metricMessagesTotal, prometheus.CounterValue, float64(value), queue.Name, op)
		}
	}
}
