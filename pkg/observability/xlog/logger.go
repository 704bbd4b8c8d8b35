package xlog

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Logger 内嵌 *slog.Logger，并提供运行时级别调整。
type Logger struct {
	*slog.Logger
	levelVar *slog.LevelVar
	errors   *atomic.Uint64
}

// With 返回带额外属性的派生 Logger，与父级共享级别。
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), levelVar: l.levelVar, errors: l.errors}
}

// WithGroup 返回带分组的派生 Logger，与父级共享级别。
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{Logger: l.Logger.WithGroup(name), levelVar: l.levelVar, errors: l.errors}
}

// SetLevel 动态设置日志级别，对所有派生 logger 生效。
func (l *Logger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

// GetLevel 获取当前日志级别
func (l *Logger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

// ErrorCount 返回内部错误的累计次数：handler 写入失败与 OnError 回调 panic 各计一次。
func (l *Logger) ErrorCount() uint64 {
	return l.errors.Load()
}

// errorHandler 统计 handler 写入错误并转交 onError，错误不向调用方返回。
type errorHandler struct {
	slog.Handler
	onError   func(error)
	count     *atomic.Uint64
	reporting *atomic.Bool
}

func (h *errorHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.Handler.Handle(ctx, r); err != nil {
		h.report(err)
	}
	return nil
}

func (h *errorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.Handler = h.Handler.WithAttrs(attrs)
	return &c
}

func (h *errorHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.Handler = h.Handler.WithGroup(name)
	return &c
}

// report 计数后调用 onError；回调内再次出错不会递归。
func (h *errorHandler) report(err error) {
	h.count.Add(1)
	if h.onError == nil || !h.reporting.CompareAndSwap(false, true) {
		return
	}
	defer h.reporting.Store(false)
	defer func() {
		if r := recover(); r != nil {
			h.count.Add(1)
		}
	}()
	h.onError(err)
}
