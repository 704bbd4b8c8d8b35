package xpool

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xpoolkit/pkg/observability/xmetrics"
)

func newTestPool(t *testing.T, workers int, opts ...Option) *Pool {
	t.Helper()
	pool, err := New(workers, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, pool.Close()) })
	return pool
}

func TestNew_InvalidWorkers(t *testing.T) {
	tests := []struct {
		name    string
		workers int
	}{
		{"negative", -1},
		{"min_int", -1 << 31},
		{"above_max", maxWorkers + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := New(tt.workers)
			assert.ErrorIs(t, err, ErrInvalidWorkers)
			assert.Nil(t, pool)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	pool := newTestPool(t, 3, nil)

	assert.Equal(t, 3, pool.Workers())
	assert.True(t, strings.HasPrefix(pool.Name(), "xpool-"))

	stats := pool.Stats()
	assert.Equal(t, 3, stats.Workers)
	assert.Equal(t, 3, stats.Live)
	assert.True(t, stats.Idle())
	assert.False(t, stats.Stopping)
}

func TestNew_WithName(t *testing.T) {
	pool := newTestPool(t, 1, WithName("ingest"))
	assert.Equal(t, "ingest", pool.Name())
}

func TestSubmit_NilTask(t *testing.T) {
	pool := newTestPool(t, 1)

	assert.ErrorIs(t, pool.Submit(nil), ErrNilTask)
	assert.ErrorIs(t, pool.Submit(TaskFunc(nil)), ErrNilTask)
	assert.ErrorIs(t, pool.SubmitFunc(nil), ErrNilTask)
	assert.Equal(t, uint64(0), pool.Stats().Submitted)
}

// 每个任务恰好执行一次。
func TestSubmit_ExactlyOnce(t *testing.T) {
	const n = 1000
	pool := newTestPool(t, 4)

	var runs [n]atomic.Int32
	for i := range n {
		require.NoError(t, pool.SubmitFunc(func() { runs[i].Add(1) }))
	}
	pool.Wait()

	for i := range n {
		assert.Equal(t, int32(1), runs[i].Load(), "task %d", i)
	}
	stats := pool.Stats()
	assert.Equal(t, uint64(n), stats.Submitted)
	assert.Equal(t, uint64(n), stats.Completed)
}

func TestSubmit_CounterAcrossWorkerCounts(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			pool := newTestPool(t, workers)

			var counter atomic.Int64
			for range 100 {
				require.NoError(t, pool.SubmitFunc(func() { counter.Add(1) }))
			}
			pool.Wait()

			assert.Equal(t, int64(100), counter.Load())
		})
	}
}

// 单 worker 下任务按提交顺序执行。
func TestSubmit_FIFOSingleWorker(t *testing.T) {
	const n = 200
	pool := newTestPool(t, 1)

	var mu sync.Mutex
	var order []int
	for i := 1; i <= n; i++ {
		require.NoError(t, pool.SubmitFunc(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, n)
	for i, v := range order {
		assert.Equal(t, i+1, v)
	}
}

func TestSubmit_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 250
	pool := newTestPool(t, 4)

	var seen sync.Map
	var dup atomic.Int32
	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range perProducer {
				id := p*perProducer + k
				assert.NoError(t, pool.SubmitFunc(func() {
					if _, loaded := seen.LoadOrStore(id, struct{}{}); loaded {
						dup.Add(1)
					}
				}))
			}
		}()
	}
	wg.Wait()
	pool.Wait()

	count := 0
	seen.Range(func(_, _ any) bool {
		count++
		return true
	})
	assert.Equal(t, producers*perProducer, count)
	assert.Zero(t, dup.Load())
	assert.Equal(t, uint64(producers*perProducer), pool.Stats().Completed)
}

// 请求关闭后 worker 先排空队列再退出。
func TestShutdown_DrainsQueue(t *testing.T) {
	const k = 50
	pool, err := New(2)
	require.NoError(t, err)

	var completed atomic.Int32
	for range k {
		require.NoError(t, pool.SubmitFunc(func() {
			time.Sleep(time.Millisecond)
			completed.Add(1)
		}))
	}
	pool.RequestShutdown()
	require.NoError(t, pool.Close())

	assert.Equal(t, int32(k), completed.Load())
	stats := pool.Stats()
	assert.Zero(t, stats.Live)
	assert.True(t, stats.Stopping)
	assert.True(t, stats.Idle())
}

func TestSubmit_DuringShutdownStillRuns(t *testing.T) {
	pool, err := New(1)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	var ran atomic.Int32
	require.NoError(t, pool.SubmitFunc(func() {
		close(started)
		<-release
		ran.Add(1)
	}))
	<-started

	pool.RequestShutdown()
	require.NoError(t, pool.SubmitFunc(func() { ran.Add(1) }))

	close(release)
	require.NoError(t, pool.Close())
	assert.Equal(t, int32(2), ran.Load())
}

func TestSubmit_AfterClose(t *testing.T) {
	pool, err := New(2)
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	assert.ErrorIs(t, pool.SubmitFunc(func() {}), ErrPoolClosed)
}

// 0 worker：接受提交但从不执行，关闭不会死锁。
func TestZeroWorkers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pool, err := New(0, WithLogger(logger))
	require.NoError(t, err)

	var ran atomic.Int32
	for range 5 {
		require.NoError(t, pool.SubmitFunc(func() { ran.Add(1) }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.WaitContext(ctx), context.DeadlineExceeded)
	assert.Zero(t, ran.Load())
	assert.Equal(t, 5, pool.Stats().Queued)

	select {
	case <-pool.Done():
	default:
		t.Fatal("Done should be closed for a zero-worker pool")
	}

	closed := make(chan error, 1)
	go func() { closed <- pool.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close deadlocked on zero-worker pool")
	}

	assert.Zero(t, ran.Load())
	assert.Zero(t, pool.Stats().Queued)
	assert.Contains(t, buf.String(), "tasks dropped")
	assert.ErrorIs(t, pool.SubmitFunc(func() {}), ErrPoolClosed)
	pool.Wait()
}

func TestWait_IdleReturnsImmediately(t *testing.T) {
	pool := newTestPool(t, 2)

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on idle pool")
	}
}

func TestWait_MultipleWaiters(t *testing.T) {
	pool := newTestPool(t, 2)

	release := make(chan struct{})
	for range 4 {
		require.NoError(t, pool.SubmitFunc(func() { <-release }))
	}

	var wg sync.WaitGroup
	var returned atomic.Int32
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Wait()
			returned.Add(1)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, returned.Load())

	close(release)
	wg.Wait()
	assert.Equal(t, int32(3), returned.Load())
	assert.True(t, pool.Stats().Idle())
}

func TestWaitContext(t *testing.T) {
	t.Run("nil_context", func(t *testing.T) {
		pool := newTestPool(t, 1)
		//nolint:staticcheck // 测试 nil ctx
		assert.ErrorIs(t, pool.WaitContext(nil), ErrNilContext)
	})

	t.Run("canceled_while_busy", func(t *testing.T) {
		pool := newTestPool(t, 1)
		release := make(chan struct{})
		require.NoError(t, pool.SubmitFunc(func() { <-release }))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		assert.ErrorIs(t, pool.WaitContext(ctx), context.Canceled)
		close(release)
	})

	t.Run("completes", func(t *testing.T) {
		pool := newTestPool(t, 2)
		var n atomic.Int32
		for range 10 {
			require.NoError(t, pool.SubmitFunc(func() { n.Add(1) }))
		}
		require.NoError(t, pool.WaitContext(context.Background()))
		assert.Equal(t, int32(10), n.Load())
	})
}

func TestShutdown_Timeout(t *testing.T) {
	pool, err := New(1)
	require.NoError(t, err)

	release := make(chan struct{})
	require.NoError(t, pool.SubmitFunc(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	<-pool.Done()
	assert.NoError(t, pool.Close())
}

func TestShutdown_NilContext(t *testing.T) {
	pool := newTestPool(t, 1)
	//nolint:staticcheck // 测试 nil ctx
	assert.ErrorIs(t, pool.Shutdown(nil), ErrNilContext)
}

func TestClose_Idempotent(t *testing.T) {
	pool, err := New(2)
	require.NoError(t, err)

	assert.NoError(t, pool.Close())
	assert.NoError(t, pool.Close())
	pool.RequestShutdown()
	assert.NoError(t, pool.Close())
}

// 关闭后不应残留任何 worker goroutine。
func TestClose_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool, err := New(16)
	require.NoError(t, err)
	for range 64 {
		require.NoError(t, pool.SubmitFunc(func() {}))
	}
	require.NoError(t, pool.Close())
	assert.Zero(t, pool.Stats().Live)
}

func TestPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var panics []any
	var mu sync.Mutex
	pool := newTestPool(t, 1,
		WithLogger(logger),
		WithPanicHandler(func(value any, stack []byte) {
			mu.Lock()
			panics = append(panics, value)
			mu.Unlock()
			assert.NotEmpty(t, stack)
		}),
	)

	var processed atomic.Int32
	for i := range 3 {
		require.NoError(t, pool.SubmitFunc(func() {
			if i == 1 {
				panic("test panic")
			}
			processed.Add(1)
		}))
	}
	pool.Wait()

	assert.Equal(t, int32(2), processed.Load())
	stats := pool.Stats()
	assert.Equal(t, uint64(3), stats.Completed)
	assert.Equal(t, uint64(1), stats.Panicked)
	assert.Zero(t, stats.InFlight)
	assert.Equal(t, 1, stats.Live)

	mu.Lock()
	assert.Equal(t, []any{"test panic"}, panics)
	mu.Unlock()
	assert.Contains(t, buf.String(), "task panic recovered")
}

func TestSubmit_MockTask(t *testing.T) {
	ctrl := gomock.NewController(t)

	done := make(chan struct{})
	task := NewMockTask(ctrl)
	task.EXPECT().Execute().Do(func() { close(done) }).Times(1)

	pool := newTestPool(t, 2)
	require.NoError(t, pool.Submit(task))
	pool.Wait()

	select {
	case <-done:
	default:
		t.Fatal("mock task not executed")
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	started int
	results []xmetrics.Result
}

func (o *recordingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
	return ctx, recordingSpan{o: o}
}

type recordingSpan struct{ o *recordingObserver }

func (s recordingSpan) End(result xmetrics.Result) {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	s.o.results = append(s.o.results, result)
}

func TestWithObserver(t *testing.T) {
	obs := &recordingObserver{}
	pool := newTestPool(t, 2, WithObserver(obs), WithLogger(slog.New(slog.DiscardHandler)))

	require.NoError(t, pool.SubmitFunc(func() {}))
	require.NoError(t, pool.SubmitFunc(func() { panic("boom") }))
	require.NoError(t, pool.SubmitFunc(func() {}))
	pool.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 3, obs.started)
	require.Len(t, obs.results, 3)
	var failed int
	for _, r := range obs.results {
		if r.Err != nil {
			failed++
			assert.Contains(t, r.Err.Error(), "boom")
		}
	}
	assert.Equal(t, 1, failed)
}

func TestNewFromConfig(t *testing.T) {
	pool, err := NewFromConfig(Config{Workers: 2, Name: "from-config"}, WithName("ignored"))
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, "from-config", pool.Name())
	assert.Equal(t, 2, pool.Workers())

	assert.NoError(t, Config{Workers: 0}.Validate())
	assert.ErrorIs(t, Config{Workers: -3}.Validate(), ErrInvalidWorkers)

	_, err = NewFromConfig(Config{Workers: -1})
	assert.ErrorIs(t, err, ErrInvalidWorkers)
}
