package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xpoolkit/pkg/config/xconf"
	"github.com/omeyang/xpoolkit/pkg/util/xpool"
)

type benchConfig struct {
	Pool    xpool.Config   `koanf:"pool"`
	Bench   workloadConfig `koanf:"bench"`
	Log     logConfig      `koanf:"log"`
	Metrics metricsConfig  `koanf:"metrics"`
}

type workloadConfig struct {
	Tasks           int           `koanf:"tasks"`
	Producers       int           `koanf:"producers"`
	TaskDuration    time.Duration `koanf:"task_duration"`
	PanicEvery      int           `koanf:"panic_every"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	StatsInterval   time.Duration `koanf:"stats_interval"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

type metricsConfig struct {
	Addr string `koanf:"addr"`
}

func configDefaults() map[string]any {
	return map[string]any{
		"pool.workers":           4,
		"bench.tasks":            1000,
		"bench.producers":        4,
		"bench.task_duration":    time.Duration(0),
		"bench.panic_every":      0,
		"bench.shutdown_timeout": 30 * time.Second,
		"bench.stats_interval":   time.Second,
		"log.level":              "info",
		"log.format":             "text",
	}
}

// loadConfig 加载配置文件（path 为空时只使用默认值）。
func loadConfig(path string) (xconf.Config, benchConfig, error) {
	var (
		conf xconf.Config
		err  error
	)
	defaults := xconf.WithDefaults(configDefaults())
	if path == "" {
		conf, err = xconf.NewFromBytes(nil, xconf.FormatYAML, defaults)
	} else {
		conf, err = xconf.New(path, defaults)
	}
	if err != nil {
		return nil, benchConfig{}, err
	}

	var cfg benchConfig
	if err := conf.Unmarshal("", &cfg); err != nil {
		return nil, benchConfig{}, err
	}
	return conf, cfg, nil
}

// applyFlags 用显式设置的命令行选项覆盖配置。
func applyFlags(cmd *cli.Command, cfg *benchConfig) {
	if cmd.IsSet("workers") {
		cfg.Pool.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("tasks") {
		cfg.Bench.Tasks = cmd.Int("tasks")
	}
	if cmd.IsSet("producers") {
		cfg.Bench.Producers = cmd.Int("producers")
	}
	if cmd.IsSet("task-duration") {
		cfg.Bench.TaskDuration = cmd.Duration("task-duration")
	}
	if cmd.IsSet("panic-every") {
		cfg.Bench.PanicEvery = cmd.Int("panic-every")
	}
	if cmd.IsSet("shutdown-timeout") {
		cfg.Bench.ShutdownTimeout = cmd.Duration("shutdown-timeout")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.Metrics.Addr = cmd.String("metrics-addr")
	}
}

func (c benchConfig) validate() error {
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	w := c.Bench
	switch {
	case w.Tasks < 0:
		return fmt.Errorf("tasks must not be negative, got %d", w.Tasks)
	case w.Producers < 1:
		return fmt.Errorf("producers must be positive, got %d", w.Producers)
	case w.TaskDuration < 0:
		return fmt.Errorf("task duration must not be negative, got %s", w.TaskDuration)
	case w.PanicEvery < 0:
		return fmt.Errorf("panic-every must not be negative, got %d", w.PanicEvery)
	case w.ShutdownTimeout < 0:
		return fmt.Errorf("shutdown timeout must not be negative, got %s", w.ShutdownTimeout)
	case w.StatsInterval < 0:
		return fmt.Errorf("stats interval must not be negative, got %s", w.StatsInterval)
	case c.Pool.Workers == 0 && w.Tasks > 0:
		// 0 worker 的 pool 永远不会执行任务，等待完成将一直阻塞。
		return fmt.Errorf("workers must be positive when tasks > 0")
	}
	return nil
}

func benchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径（YAML/JSON）"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "worker 数量（默认 4）"},
		&cli.IntFlag{Name: "tasks", Aliases: []string{"n"}, Usage: "每个生产者提交的任务数（默认 1000）"},
		&cli.IntFlag{Name: "producers", Aliases: []string{"p"}, Usage: "生产者数量（默认 4）"},
		&cli.DurationFlag{Name: "task-duration", Usage: "单个任务的模拟耗时"},
		&cli.IntFlag{Name: "panic-every", Usage: "每 N 个任务注入一次 panic，0 表示不注入"},
		&cli.DurationFlag{Name: "shutdown-timeout", Usage: "关闭时等待排空的超时（默认 30s）"},
		&cli.StringFlag{Name: "log-level", Usage: "日志级别 (debug/info/warn/error)"},
		&cli.StringFlag{Name: "log-format", Usage: "日志格式 (text/json)"},
		&cli.StringFlag{Name: "log-file", Usage: "日志文件路径，启用轮转"},
		&cli.StringFlag{Name: "metrics-addr", Usage: "Prometheus /metrics 监听地址，如 :9090"},
	}
}
