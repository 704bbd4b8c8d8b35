package xrun

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServerInterface 是 HTTPServer 需要的最小接口，*http.Server 满足该接口。
type HTTPServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServer 将 server 包装为任务：ctx 结束时调用 Shutdown，
// shutdownTimeout 不大于 0 表示等待所有在途请求完成。
// 外部直接关闭 server 时任务返回 nil。
func HTTPServer(server HTTPServerInterface, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}
		shutdownErr := make(chan error, 1)
		listenDone := make(chan struct{})

		go func() {
			select {
			case <-ctx.Done():
				sctx, cancel := timeoutContext(shutdownTimeout)
				defer cancel()
				shutdownErr <- server.Shutdown(sctx)
			case <-listenDone:
			}
		}()

		err := server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			close(listenDone)
			return err
		}
		select {
		case err := <-shutdownErr:
			return err
		case <-ctx.Done():
			return <-shutdownErr
		default:
			// 外部调用了 Shutdown/Close
			close(listenDone)
			return nil
		}
	}
}

// OnShutdown 返回一个任务：阻塞到 ctx 结束后调用 fn 执行清理。
// fn 的 ctx 在 timeout 后结束，timeout 不大于 0 表示不限时。
//
//	g.Go(xrun.OnShutdown(10*time.Second, pool.Shutdown))
func OnShutdown(timeout time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		<-ctx.Done()
		sctx, cancel := timeoutContext(timeout)
		defer cancel()
		return fn(sctx)
	}
}

// Ticker 返回周期执行 fn 的任务，fn 出错或 ctx 结束时返回。
// immediate 为 true 时启动后先执行一次。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func timeoutContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
