// Package xpoolmetrics 将 xpool.Pool 的状态快照导出为指标。
//
// 支持两种导出方式，二者都在采集时调用 Stats()，不在任务热路径上增加开销：
//   - RegisterOTel：注册 OpenTelemetry 异步（observable）仪表
//   - NewCollector：实现 prometheus.Collector
//
// 导出的指标（OTel 名称 / Prometheus 名称）：
//   - xpool.workers.live / <ns>_xpool_workers_live
//   - xpool.tasks.queued / <ns>_xpool_tasks_queued
//   - xpool.tasks.in_flight / <ns>_xpool_tasks_in_flight
//   - xpool.tasks.submitted / <ns>_xpool_tasks_submitted_total
//   - xpool.tasks.completed / <ns>_xpool_tasks_completed_total
//   - xpool.tasks.panicked / <ns>_xpool_tasks_panicked_total
//
// 所有指标带 pool 标签，取值为 Pool.Name()。
package xpoolmetrics
