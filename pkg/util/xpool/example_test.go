package xpool_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omeyang/xpoolkit/pkg/util/xpool"
)

func Example() {
	var count atomic.Int32

	pool, err := xpool.New(2)
	if err != nil {
		panic(err)
	}

	for range 5 {
		if err := pool.SubmitFunc(func() { count.Add(1) }); err != nil {
			fmt.Println("Submit error:", err)
		}
	}

	// Wait 等待队列排空且没有任务在执行
	pool.Wait()
	fmt.Println("Processed:", count.Load())

	if err := pool.Close(); err != nil {
		panic(err)
	}

	// Output:
	// Processed: 5
}

func ExamplePool_Shutdown() {
	var sum atomic.Int64

	pool, err := xpool.New(4)
	if err != nil {
		panic(err)
	}

	for i := 1; i <= 10; i++ {
		if err := pool.SubmitFunc(func() { sum.Add(int64(i)) }); err != nil {
			fmt.Println("Submit error:", err)
		}
	}

	// 带超时的优雅关闭：队列中的任务仍会全部执行
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Shutdown(ctx); err != nil {
		fmt.Println("Shutdown error:", err)
	}

	fmt.Println("Sum:", sum.Load())
	// Output:
	// Sum: 55
}

func ExamplePool_Stats() {
	pool, err := xpool.New(1, xpool.WithName("stats-demo"))
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	for range 3 {
		_ = pool.SubmitFunc(func() {})
	}
	pool.Wait()

	stats := pool.Stats()
	fmt.Println(pool.Name(), stats.Submitted, stats.Completed, stats.Idle())
	// Output:
	// stats-demo 3 3 true
}

func Example_zeroWorkers() {
	pool, err := xpool.New(0)
	if err != nil {
		panic(err)
	}

	_ = pool.SubmitFunc(func() { fmt.Println("never runs") })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	fmt.Println(pool.WaitContext(ctx))

	if err := pool.Close(); err != nil {
		panic(err)
	}
	fmt.Println("closed")
	// Output:
	// context deadline exceeded
	// closed
}
