package xpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/google/uuid"

	"github.com/omeyang/xpoolkit/pkg/observability/xmetrics"
)

// maxWorkers worker 数量上限。
const maxWorkers = 1 << 16

const (
	componentName = "xpool"
	operationName = "execute"
)

var _ io.Closer = (*Pool)(nil)

// Pool 是固定大小的 worker pool。
//
// worker 在 New 中一次性创建，生命周期内数量不变；任务进入无界 FIFO 队列，
// 由空闲 worker 按提交顺序取出执行。
//
// 队列、stopping、inFlight 以及统计计数均由 mu 保护，
// 任务执行期间不持有 mu。
type Pool struct {
	opts    options
	name    string
	workers int

	mu sync.Mutex
	// workCond: 队列非空或已请求关闭。
	workCond *sync.Cond
	// drainCond: 队列为空且没有任务在执行。
	drainCond *sync.Cond
	queue     *linkedlistqueue.Queue
	stopping  bool
	inFlight  int
	live      int
	submitted uint64
	completed uint64
	panicked  uint64

	done      chan struct{}
	closeOnce sync.Once
}

// New 创建 Pool 并立即启动 workers 个 worker。
//
// workers 允许为 0：此时 pool 接受提交但永远不会执行任务，
// 调用方不应依赖其进展（对 0 worker 的 pool 调用 Wait 将永久阻塞）。
// workers 为负数或超过 65536 时返回 ErrInvalidWorkers。
func New(workers int, opts ...Option) (*Pool, error) {
	if err := validateWorkers(workers); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}

	name := o.name
	if name == "" {
		name = "xpool-" + uuid.NewString()[:8]
	}

	p := &Pool{
		opts:    o,
		name:    name,
		workers: workers,
		queue:   linkedlistqueue.New(),
		live:    workers,
		done:    make(chan struct{}),
	}
	p.workCond = sync.NewCond(&p.mu)
	p.drainCond = sync.NewCond(&p.mu)

	if workers == 0 {
		close(p.done)
	}
	for i := range workers {
		go p.worker(i)
	}
	return p, nil
}

func validateWorkers(n int) error {
	if n < 0 || n > maxWorkers {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidWorkers, n, maxWorkers)
	}
	return nil
}

// Submit 将任务追加到队列尾部并唤醒一个空闲 worker。
//
// Submit 从不阻塞在队列容量上（队列无界），可被多个 goroutine 并发调用；
// 同一 goroutine 的提交顺序即执行顺序（单 worker 时）或出队顺序。
//
// 请求关闭后、仍有 worker 存活时提交的任务照常执行；
// 所有 worker 退出后提交返回 ErrPoolClosed。
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	if fn, ok := task.(TaskFunc); ok && fn == nil {
		return ErrNilTask
	}

	p.mu.Lock()
	if p.stopping && p.live == 0 {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.queue.Enqueue(task)
	p.submitted++
	p.mu.Unlock()

	p.workCond.Signal()
	return nil
}

// SubmitFunc 是 Submit(TaskFunc(fn)) 的便捷写法。
func (p *Pool) SubmitFunc(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}
	return p.Submit(TaskFunc(fn))
}

// worker 循环：Idle → Running → Idle ... → Terminated。
// 关闭请求只在队列为空时生效，保证队列被完全排空。
func (p *Pool) worker(id int) {
	p.opts.logger.Debug("xpool: worker started",
		slog.String("pool", p.name),
		slog.Int("worker", id),
	)

	p.mu.Lock()
	for {
		for p.queue.Empty() && !p.stopping {
			p.workCond.Wait()
		}
		v, ok := p.queue.Dequeue()
		if !ok {
			break
		}
		p.inFlight++
		p.mu.Unlock()

		panicked := p.execute(id, v.(Task))

		p.mu.Lock()
		p.inFlight--
		p.completed++
		if panicked {
			p.panicked++
		}
		if p.idleLocked() {
			p.drainCond.Broadcast()
		}
	}
	p.live--
	last := p.live == 0
	p.mu.Unlock()

	p.opts.logger.Debug("xpool: worker exited",
		slog.String("pool", p.name),
		slog.Int("worker", id),
	)
	if last {
		close(p.done)
	}
}

// execute 执行单个任务并恢复其 panic。
// panic 不会终止 worker，也不会破坏 inFlight 计数。
func (p *Pool) execute(id int, task Task) (panicked bool) {
	_, span := xmetrics.Start(context.Background(), p.opts.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: operationName,
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			xmetrics.String("pool", p.name),
			xmetrics.Int("worker", id),
		},
	})

	defer func() {
		r := recover()
		if r == nil {
			span.End(xmetrics.Result{})
			return
		}
		panicked = true
		stack := debug.Stack()
		p.opts.logger.Error("xpool: task panic recovered",
			slog.String("pool", p.name),
			slog.Int("worker", id),
			slog.String("task_type", fmt.Sprintf("%T", task)),
			slog.Any("panic", r),
			slog.String("stack", string(stack)),
		)
		span.End(xmetrics.Result{Err: fmt.Errorf("xpool: task panic: %v", r)})
		if p.opts.panicHandler != nil {
			p.opts.panicHandler(r, stack)
		}
	}()

	task.Execute()
	return false
}

func (p *Pool) idleLocked() bool {
	return p.queue.Empty() && p.inFlight == 0
}

// RequestShutdown 请求关闭并唤醒所有 worker，不等待其退出。
//
// worker 在排空队列后才会退出；已排队和执行中的任务不会被取消。
// 重复调用无副作用。
func (p *Pool) RequestShutdown() {
	p.mu.Lock()
	first := !p.stopping
	p.stopping = true
	queued := p.queue.Size()
	inFlight := p.inFlight
	p.mu.Unlock()

	p.workCond.Broadcast()

	if first {
		p.opts.logger.Info("xpool: shutdown requested",
			slog.String("pool", p.name),
			slog.Int("queued", queued),
			slog.Int("in_flight", inFlight),
		)
	}
}

// Wait 阻塞直到队列为空且没有任务在执行。
//
// Wait 只反映调用时刻之前的提交：若其他 goroutine 仍在并发提交，
// Wait 可能在某一瞬间观察到空闲后立即返回。需要干净的汇合点时，
// 调用方应保证 Wait 期间没有并发提交者。
// 0 worker 且队列非空时 Wait 会一直阻塞到 pool 关闭。
func (p *Pool) Wait() {
	p.mu.Lock()
	for !p.idleLocked() {
		p.drainCond.Wait()
	}
	p.mu.Unlock()
}

// WaitContext 与 Wait 相同，但 ctx 结束时提前返回 ctx.Err()。
func (p *Pool) WaitContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.drainCond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.idleLocked() {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.drainCond.Wait()
	}
	return nil
}

// Shutdown 请求关闭并等待所有 worker 排空队列后退出。
//
// ctx 结束时立即返回 ctx.Err()，残留 worker 仍在后台继续排空队列，
// 可通过 Done() 等待其最终退出。
// 不可在任务内部调用，否则会死锁。
func (p *Pool) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	p.RequestShutdown()

	select {
	case <-p.done:
	default:
		select {
		case <-p.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.closeOnce.Do(p.finalize)
	return nil
}

// Close 等价于 Shutdown(context.Background())，可重复调用。
func (p *Pool) Close() error {
	return p.Shutdown(context.Background())
}

// finalize 在所有 worker 退出后执行一次。
// 只有 0 worker 的 pool 会在此时留有未执行的任务。
func (p *Pool) finalize() {
	p.mu.Lock()
	dropped := p.queue.Size()
	p.queue.Clear()
	completed := p.completed
	p.mu.Unlock()

	if dropped > 0 {
		p.drainCond.Broadcast()
		p.opts.logger.Warn("xpool: tasks dropped, no worker to run them",
			slog.String("pool", p.name),
			slog.Int("dropped", dropped),
		)
	}
	p.opts.logger.Info("xpool: pool closed",
		slog.String("pool", p.name),
		slog.Uint64("completed", completed),
	)
}

// Done 返回一个在所有 worker 退出后关闭的 channel。
// 0 worker 的 pool 返回已关闭的 channel。
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Stats 返回当前状态快照。
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers:   p.workers,
		Live:      p.live,
		Queued:    p.queue.Size(),
		InFlight:  p.inFlight,
		Submitted: p.submitted,
		Completed: p.completed,
		Panicked:  p.panicked,
		Stopping:  p.stopping,
	}
}

// Name 返回 pool 名称。
func (p *Pool) Name() string {
	return p.name
}

// Workers 返回创建时配置的 worker 数量。
func (p *Pool) Workers() int {
	return p.workers
}
