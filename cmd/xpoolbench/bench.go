package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xpoolkit/pkg/config/xconf"
	"github.com/omeyang/xpoolkit/pkg/lifecycle/xrun"
	"github.com/omeyang/xpoolkit/pkg/observability/xlog"
	"github.com/omeyang/xpoolkit/pkg/observability/xmetrics"
	"github.com/omeyang/xpoolkit/pkg/util/xpool"
	"github.com/omeyang/xpoolkit/pkg/util/xpool/xpoolmetrics"
)

const (
	instrumentationName    = "github.com/omeyang/xpoolkit/cmd/xpoolbench"
	metricsNamespace       = "xpoolbench"
	metricsShutdownTimeout = 5 * time.Second
)

// errVerifyFailed 完成数与提交数不一致。
var errVerifyFailed = errors.New("xpoolbench: verification failed")

func benchAction(ctx context.Context, cmd *cli.Command) error {
	conf, cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return &usageError{err: err}
	}
	applyFlags(cmd, &cfg)
	if err := cfg.validate(); err != nil {
		return &usageError{err: err}
	}

	logger, cleanup, err := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format).
		SetRotation(cfg.Log.File).
		SetAttrs(slog.String("service", "xpoolbench")).
		Build()
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { _ = cleanup() }()

	rep, err := runBench(ctx, cfg, conf, logger)
	if err != nil {
		return err
	}
	return rep.print(cmd.Root().Writer)
}

type report struct {
	pool       string
	workers    int
	producers  int
	expected   uint64
	stats      xpool.Stats
	operations int64
	elapsed    time.Duration
}

func (r report) print(w io.Writer) error {
	throughput := 0.0
	if r.elapsed > 0 {
		throughput = float64(r.stats.Completed) / r.elapsed.Seconds()
	}
	_, err := fmt.Fprintf(w,
		"pool        %s\nworkers     %d\nproducers   %d\nexpected    %d\nsubmitted   %d\ncompleted   %d\npanicked    %d\noperations  %d\nelapsed     %s\nthroughput  %.0f tasks/s\n",
		r.pool, r.workers, r.producers, r.expected,
		r.stats.Submitted, r.stats.Completed, r.stats.Panicked,
		r.operations, r.elapsed.Round(time.Microsecond), throughput,
	)
	return err
}

// runBench 创建 pool 并在 xrun.Group 中运行压测负载与辅助服务。
// 负载结束或收到信号后，pool 经 Shutdown 排空再返回。
func runBench(ctx context.Context, cfg benchConfig, conf xconf.Config, logger *xlog.Logger) (report, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	observer, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName(instrumentationName),
		xmetrics.WithMeterProvider(provider),
	)
	if err != nil {
		return report{}, err
	}

	pool, err := xpool.NewFromConfig(cfg.Pool,
		xpool.WithLogger(logger.Logger),
		xpool.WithObserver(observer),
	)
	if err != nil {
		return report{}, &usageError{err: err}
	}
	// 兜底：提前返回时确保 worker 退出
	defer func() { _ = pool.Close() }()

	reg, err := xpoolmetrics.RegisterOTel(provider.Meter(instrumentationName), pool)
	if err != nil {
		return report{}, err
	}
	defer func() { _ = reg.Unregister() }()

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		handler, err := newMetricsHandler(pool)
		if err != nil {
			return report{}, err
		}
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, _ := xrun.NewGroup(ctx, xrun.WithLogger(logger.Logger), xrun.WithName("xpoolbench"))
	g.GoWithName("signals", g.WatchSignals)
	if srv != nil {
		g.GoWithName("metrics", xrun.HTTPServer(srv, metricsShutdownTimeout))
	}
	if conf.Path() != "" {
		g.GoWithName("config-watch", func(ctx context.Context) error {
			return xconf.Watch(ctx, conf, reloadLogLevel(logger))
		})
	}
	if cfg.Bench.StatsInterval > 0 {
		g.GoWithName("stats", xrun.Ticker(cfg.Bench.StatsInterval, false, func(context.Context) error {
			logStats(logger, pool.Stats())
			return nil
		}))
	}
	g.GoWithName("shutdown", xrun.OnShutdown(cfg.Bench.ShutdownTimeout, pool.Shutdown))

	logger.Info("xpoolbench: starting",
		slog.String("pool", pool.Name()),
		slog.Int("workers", pool.Workers()),
		slog.Int("producers", cfg.Bench.Producers),
		slog.Int("tasks", cfg.Bench.Tasks),
	)
	start := time.Now()
	g.GoWithName("workload", func(ctx context.Context) error {
		// 负载完成后取消其余服务，触发 OnShutdown
		defer g.Cancel(nil)
		if err := produce(ctx, pool, cfg.Bench); err != nil {
			return err
		}
		return pool.WaitContext(ctx)
	})
	runErr := g.Wait()

	rep := report{
		pool:      pool.Name(),
		workers:   pool.Workers(),
		producers: cfg.Bench.Producers,
		expected:  uint64(cfg.Bench.Producers) * uint64(cfg.Bench.Tasks),
		stats:     pool.Stats(),
		elapsed:   time.Since(start),
	}
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err == nil {
		rep.operations = sumInt64(rm, "xpoolkit.operation.total")
	}
	if runErr != nil {
		return rep, runErr
	}

	logStats(logger, rep.stats)
	if rep.stats.Submitted != rep.expected || rep.stats.Completed != rep.expected {
		return rep, fmt.Errorf("%w: submitted %d, completed %d, want %d",
			errVerifyFailed, rep.stats.Submitted, rep.stats.Completed, rep.expected)
	}
	return rep, nil
}

// produce 启动 w.Producers 个生产者，各自按序提交 w.Tasks 个任务。
func produce(ctx context.Context, pool *xpool.Pool, w workloadConfig) error {
	eg, ctx := errgroup.WithContext(ctx)
	for p := range w.Producers {
		eg.Go(func() error {
			for i := range w.Tasks {
				if err := ctx.Err(); err != nil {
					return err
				}
				seq := p*w.Tasks + i
				task := &benchTask{
					seq:      seq,
					duration: w.TaskDuration,
					panics:   w.PanicEvery > 0 && (seq+1)%w.PanicEvery == 0,
				}
				if err := pool.Submit(task); err != nil {
					return fmt.Errorf("xpoolbench: producer %d: %w", p, err)
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

type benchTask struct {
	seq      int
	duration time.Duration
	panics   bool
}

func (t *benchTask) Execute() {
	if t.duration > 0 {
		time.Sleep(t.duration)
	}
	if t.panics {
		panic(fmt.Sprintf("xpoolbench: injected panic in task %d", t.seq))
	}
}

func newMetricsHandler(pool *xpool.Pool) (http.Handler, error) {
	collector, err := xpoolmetrics.NewCollector(metricsNamespace, pool)
	if err != nil {
		return nil, fmt.Errorf("xpoolbench: create collector: %w", err)
	}
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return nil, fmt.Errorf("xpoolbench: register collector: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux, nil
}

// reloadLogLevel 在配置文件变更后同步 log.level。
func reloadLogLevel(logger *xlog.Logger) xconf.WatchCallback {
	return func(c xconf.Config, err error) {
		if err != nil {
			logger.Warn("xpoolbench: config reload failed", slog.Any("error", err))
			return
		}
		var lc logConfig
		if err := c.Unmarshal("log", &lc); err != nil {
			logger.Warn("xpoolbench: config reload failed", slog.Any("error", err))
			return
		}
		level, err := xlog.ParseLevel(lc.Level)
		if err != nil {
			logger.Warn("xpoolbench: ignoring invalid log level", slog.String("level", lc.Level))
			return
		}
		if level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.Info("xpoolbench: log level changed", slog.String("level", level.String()))
		}
	}
}

func logStats(logger *xlog.Logger, s xpool.Stats) {
	logger.Info("xpoolbench: pool stats",
		slog.Int("live", s.Live),
		slog.Int("queued", s.Queued),
		slog.Int("in_flight", s.InFlight),
		slog.Uint64("submitted", s.Submitted),
		slog.Uint64("completed", s.Completed),
		slog.Uint64("panicked", s.Panicked),
	)
}

func sumInt64(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
