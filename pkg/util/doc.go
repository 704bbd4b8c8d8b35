// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xpool: 固定大小 worker pool，无界 FIFO 队列、屏障等待、排空式关闭
//   - xpool/xpoolmetrics: 将 pool 状态导出为 OpenTelemetry 与 Prometheus 指标
package util
