// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog，支持动态级别与文件轮转
//   - xmetrics: 统一观测接口（追踪 + 指标），提供 OpenTelemetry 实现
//   - xrotate: 日志文件轮转
package observability
