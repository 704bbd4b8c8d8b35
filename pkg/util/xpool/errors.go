package xpool

import "errors"

var (
	// ErrInvalidWorkers 表示 worker 数量无效（负数或超过上限）。
	ErrInvalidWorkers = errors.New("xpool: invalid worker count")

	// ErrNilTask 表示提交了 nil 任务。
	ErrNilTask = errors.New("xpool: task cannot be nil")

	// ErrPoolClosed 表示 pool 已关闭且所有 worker 已退出，任务不会再被执行。
	ErrPoolClosed = errors.New("xpool: pool is closed")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xpool: nil context")
)
