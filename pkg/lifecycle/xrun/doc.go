// Package xrun 基于 errgroup 管理进程内多个长期运行任务的启动与协调关闭。
//
// 任一任务返回错误、父 context 结束或收到终止信号时，Group 的 context 被取消，
// 其余任务应监听 ctx.Done() 后退出：
//
//	err := xrun.RunWithOptions(ctx, []xrun.Option{xrun.WithLogger(logger)},
//	    xrun.HTTPServer(metricsServer, 5*time.Second),
//	    xrun.OnShutdown(10*time.Second, pool.Shutdown),
//	    runWorkload,
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 信号退出
//	}
//
// Group.Wait 会过滤由 Group 自身取消引起的 context.Canceled，
// 但保留 Cancel(cause) 设置的退出原因（例如 *SignalError）。
package xrun
