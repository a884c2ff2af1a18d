// Package jobxmetrics exports jobx lifecycle counters and queue depth gauges
// to prometheus.
package jobxmetrics

import (
	"context"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for every queue it observes.
type Metrics struct {
	Events     *prometheus.CounterVec
	QueueDepth *prometheus.GaugeVec
	Healthy    *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobx_events_total",
				Help: "Job lifecycle events by queue, job name and kind",
			},
			[]string{"queue", "name", "kind"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jobx_queue_depth",
				Help: "Jobs per queue and state",
			},
			[]string{"queue", "state"},
		),
		Healthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jobx_queue_healthy",
				Help: "Queue backend reachability (1 = healthy, 0 = unhealthy)",
			},
			[]string{"queue"},
		),
	}
	reg.MustRegister(m.Events, m.QueueDepth, m.Healthy)
	return m
}

// Listener counts events; register it with jobx.Client.OnEvent.
func (m *Metrics) Listener() jobx.ListenerFunc {
	return func(ev jobx.Event) {
		m.Events.WithLabelValues(ev.Queue, ev.Name, string(ev.Kind)).Inc()
	}
}

// Observe records depth and health of q once.
func (m *Metrics) Observe(ctx context.Context, q jobx.Queue) {
	name := q.Name()
	if err := q.Ping(ctx); err != nil {
		m.Healthy.WithLabelValues(name).Set(0)
		logx.WithError(err).WithField("queue", name).Warn("jobxmetrics: queue unhealthy")
		return
	}
	m.Healthy.WithLabelValues(name).Set(1)

	c, err := q.Counts(ctx)
	if err != nil {
		logx.WithError(err).WithField("queue", name).Warn("jobxmetrics: failed to read queue counts")
		return
	}
	m.QueueDepth.WithLabelValues(name, "waiting").Set(float64(c.Waiting))
	m.QueueDepth.WithLabelValues(name, "delayed").Set(float64(c.Delayed))
	m.QueueDepth.WithLabelValues(name, "active").Set(float64(c.Active))
	m.QueueDepth.WithLabelValues(name, "failed").Set(float64(c.Failed))
}

// Collect observes every queue each interval until ctx is done.
func (m *Metrics) Collect(ctx context.Context, interval time.Duration, queues ...jobx.Queue) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, q := range queues {
			m.Observe(ctx, q)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
