package xpoolmetrics

import "github.com/prometheus/client_golang/prometheus"

// Collector 实现 prometheus.Collector，在每次采集时读取 pool 快照。
type Collector struct {
	sources []StatsSource

	live      *prometheus.Desc
	queued    *prometheus.Desc
	inFlight  *prometheus.Desc
	submitted *prometheus.Desc
	completed *prometheus.Desc
	panicked  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建 Collector。namespace 可为空。
// sources 不可为 nil 且 Name() 互不相同，否则返回 ErrNilSource / ErrDuplicateSource。
func NewCollector(namespace string, sources ...StatsSource) (*Collector, error) {
	srcs, err := copySources(sources)
	if err != nil {
		return nil, err
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "xpool", name), help, []string{"pool"}, nil)
	}
	return &Collector{
		sources:   srcs,
		live:      desc("workers_live", "Workers that have not exited."),
		queued:    desc("tasks_queued", "Tasks waiting in the queue."),
		inFlight:  desc("tasks_in_flight", "Tasks currently executing."),
		submitted: desc("tasks_submitted_total", "Tasks accepted by Submit."),
		completed: desc("tasks_completed_total", "Tasks that finished executing."),
		panicked:  desc("tasks_panicked_total", "Tasks that panicked."),
	}, nil
}

// Describe 实现 prometheus.Collector。
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.queued
	ch <- c.inFlight
	ch <- c.submitted
	ch <- c.completed
	ch <- c.panicked
}

// Collect 实现 prometheus.Collector。
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources {
		s := src.Stats()
		name := src.Name()
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.Live), name)
		ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued), name)
		ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(s.InFlight), name)
		ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(s.Submitted), name)
		ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.Completed), name)
		ch <- prometheus.MustNewConstMetric(c.panicked, prometheus.CounterValue, float64(s.Panicked), name)
	}
}
