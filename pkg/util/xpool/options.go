package xpool

import (
	"log/slog"

	"github.com/omeyang/xpoolkit/pkg/observability/xmetrics"
)

// Option 定义 Pool 可选配置函数类型。
type Option func(*options)

// PanicHandler 在任务 panic 被恢复后调用。
// value 为 recover() 的返回值，stack 为 panic 发生时的堆栈。
type PanicHandler func(value any, stack []byte)

type options struct {
	logger       *slog.Logger
	name         string
	observer     xmetrics.Observer
	panicHandler PanicHandler
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		observer: xmetrics.NoopObserver{},
	}
}

// WithLogger 设置自定义日志记录器。
// 默认使用 slog.Default()。传入 nil 将被忽略，保持使用默认值。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 pool 名称，用于在多实例场景下区分日志与指标来源。
// 默认为 "xpool-" 加随机后缀。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver 设置任务执行观测器，每个任务的执行记录为一次观测跨度。
// 默认为 xmetrics.NoopObserver。传入 nil 将被忽略。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithPanicHandler 设置任务 panic 后的回调。
// 回调在 worker goroutine 中同步执行，应保持轻量；回调自身的 panic 不会被恢复。
func WithPanicHandler(fn PanicHandler) Option {
	return func(o *options) {
		o.panicHandler = fn
	}
}
