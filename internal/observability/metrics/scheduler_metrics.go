package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics captures background job health signals.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	runLoopLag  prometheus.Observer
}

var (
	schedulerOnce sync.Once
	schedulerInst *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler metrics, registering them on
// first use.
func Scheduler() *SchedulerMetrics {
	schedulerOnce.Do(func() {
		m := &SchedulerMetrics{
			jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "affiliates_scheduler_job_runs_total",
				Help: "Scheduler job executions by job name.",
			}, []string{"job"}),
			jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "affiliates_scheduler_job_errors_total",
				Help: "Scheduler job failures by job name.",
			}, []string{"job"}),
			jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "affiliates_scheduler_job_duration_seconds",
				Help:    "Scheduler job duration by job name.",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			}, []string{"job"}),
		}
		lag := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "affiliates_scheduler_run_loop_lag_seconds",
			Help:    "Delay between scheduled and actual run loop ticks.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
		})

		prometheus.MustRegister(m.jobRuns, m.jobErrors, m.jobDuration, lag)
		m.runLoopLag = lag
		schedulerInst = m
	})
	return schedulerInst
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) ObserveRunLoopLag(d time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	m.runLoopLag.Observe(d.Seconds())
}
