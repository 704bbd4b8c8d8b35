package xpool

// Task 是提交给 Pool 的最小工作单元。
//
// Execute 无参数、无返回值，仅产生副作用。
// 提交后任务归队列所有，出队后由唯一一个 worker 执行恰好一次。
type Task interface {
	Execute()
}

// TaskFunc 将普通函数适配为 Task。
type TaskFunc func()

// Execute 实现 Task 接口。
func (f TaskFunc) Execute() { f() }
