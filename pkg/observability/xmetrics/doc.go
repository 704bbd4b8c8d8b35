// Package xmetrics 提供最小化的观测接口（tracing + metrics）。
//
// 业务代码只依赖 Observer/Span/Attr 接口，具体实现可替换；
// 默认实现基于 OpenTelemetry。xpool 通过它为每个任务的执行记录一次跨度。
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xpool",
//		Operation: "execute",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
//   - xpoolkit.operation.total（Int64Counter）
//   - xpoolkit.operation.duration（Float64Histogram，单位秒）
//
// 统一属性：component / operation / status。
package xmetrics
