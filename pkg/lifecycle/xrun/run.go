package xrun

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// DefaultSignals 返回默认监听的信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
// 每次调用返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// Run 运行 services 并监听默认信号，收到信号时返回 *SignalError。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，支持 Group 选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignalHandler {
		g.GoWithName("signals", g.WatchSignals)
	}
	for _, svc := range services {
		g.Go(svc)
	}
	return g.Wait()
}

// WatchSignals 等待第一个信号（默认 DefaultSignals），以 *SignalError 为原因取消 Group；
// ctx 先结束时返回 ctx.Err()。需要自行持有 Group 时可直接注册：
//
//	g.Go(g.WatchSignals)
func (g *Group) WatchSignals(ctx context.Context) error {
	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-injectedSignals(ctx):
	case sig = <-sigCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info("xrun: received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
	return nil
}

type signalKey struct{}

// injectedSignals 返回 ctx 中注入的信号通道，未注入时返回 nil（永不就绪）。
// 测试通过它模拟信号，避免向进程发送真实信号。
func injectedSignals(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(signalKey{}).(<-chan os.Signal)
	return c
}

func withInjectedSignals(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, signalKey{}, c)
}
