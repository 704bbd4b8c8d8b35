package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Group 并发运行多个任务，任一任务出错即取消全部。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group 并返回其 context。nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     o,
	}, egCtx
}

// Go 在新 goroutine 中运行 fn，fn 返回非 nil 错误时取消整个 Group。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，并记录任务的启动与退出日志。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		logger := g.opts.logger.With(
			slog.String("group", g.opts.name),
			slog.String("service", name),
		)
		logger.Debug("xrun: service starting")

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("xrun: service exited with error", slog.Any("error", err))
		} else {
			logger.Debug("xrun: service stopped")
		}
		return err
	})
}

// Wait 等待所有任务退出并返回第一个错误。
//
// Group 被取消（Cancel、信号、父 context）导致的 context.Canceled 不视为错误；
// 若取消时带有原因，则返回该原因。任务自身产生的 context.Canceled 原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug("xrun: all services stopped", slog.String("group", g.opts.name))

	groupCancelled := g.causeCtx.Err() != nil
	if errors.Is(err, context.Canceled) && !groupCancelled {
		return err
	}
	if err == nil || errors.Is(err, context.Canceled) {
		if groupCancelled {
			if cause := context.Cause(g.causeCtx); !errors.Is(cause, context.Canceled) {
				return cause
			}
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
	}
	return err
}

// Cancel 取消所有任务，cause 会由 Wait 返回。
// cause 不应包装 context.Canceled，否则会被 Wait 过滤。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}
