// Package xpool 提供固定大小的 worker pool。
//
// Pool 在创建时启动固定数量的 worker goroutine，生命周期内不增不减；
// 任务（[Task]）从任意 goroutine 提交到一个无界 FIFO 队列，由空闲 worker 取出执行。
// 支持以下特性：
//   - 固定 worker 数量（[0, 65536]），0 为合法配置
//   - 无界队列，Submit 从不因容量阻塞
//   - 屏障操作 Wait/WaitContext：等待队列为空且没有任务在执行
//   - 排空式关闭：请求关闭后 worker 先执行完队列中的任务再退出
//   - 超时关闭（Shutdown(ctx)）与 Done() channel
//   - panic 恢复（含堆栈日志、计数、可选回调），worker 不会因任务 panic 退出
//   - 可注入日志记录器（WithLogger）、名称（WithName）、观测器（WithObserver）
//
// # 生命周期
//
//	pool, err := xpool.New(4)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	for _, item := range items {
//	    pool.SubmitFunc(func() { process(item) })
//	}
//	pool.Wait()
//
// # 同步模型
//
// 队列、关闭标记、执行中计数由同一把互斥锁保护，锁只在入队、出队和计数更新时持有，
// 任务执行期间不持锁。两个条件变量共享这把锁：
//   - 工作条件：队列非空或已请求关闭，供 worker 等待
//   - 排空条件：队列为空且执行中计数为 0，供 Wait 调用方等待
//
// 分开两个条件变量，避免 worker 唤醒与 Wait 唤醒互相干扰。
//
// # 注意事项
//
//   - 0 worker 的 pool 接受提交但永不执行；对其调用 Wait 会永久阻塞（可用 WaitContext）。
//     关闭时残留任务被丢弃并记录 Warn 日志
//   - Wait 与并发提交存在固有竞争：可能在瞬时空闲时返回，需要干净汇合点时应先停止提交
//   - Close/Shutdown/Wait 不可在任务内部调用，否则会死锁
//   - 所有 worker 退出后 Submit 返回 ErrPoolClosed
//   - 任务 panic 被恢复后计入 Stats.Panicked，不向提交方传播；
//     WithPanicHandler 回调自身的 panic 不会被恢复
//   - 不支持任务取消、超时、优先级、动态扩缩容
package xpool
