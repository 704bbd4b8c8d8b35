package xpool

// Stats 是 Pool 某一时刻的状态快照。
type Stats struct {
	// Workers 创建时配置的 worker 数量。
	Workers int
	// Live 尚未退出的 worker 数量。
	Live int
	// Queued 队列中等待执行的任务数。
	Queued int
	// InFlight 正在执行的任务数。
	InFlight int
	// Submitted 累计成功提交的任务数。
	Submitted uint64
	// Completed 累计执行结束的任务数（含 panic 的任务）。
	Completed uint64
	// Panicked 累计 panic 的任务数。
	Panicked uint64
	// Stopping 是否已请求关闭。
	Stopping bool
}

// Idle 报告队列为空且没有任务在执行。
func (s Stats) Idle() bool {
	return s.Queued == 0 && s.InFlight == 0
}
