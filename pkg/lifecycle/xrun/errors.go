package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 因收到系统信号而退出，使用 errors.Is 判断。
	ErrSignal = errors.New("xrun: received signal")

	// ErrNilFunc 传入了 nil 任务函数。
	ErrNilFunc = errors.New("xrun: nil function")

	// ErrNilServer HTTPServer 传入了 nil server。
	ErrNilServer = errors.New("xrun: nil server")

	// ErrInvalidInterval Ticker 的间隔必须为正数。
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
)

// SignalError 记录触发退出的信号，可通过 errors.As 取出。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "xrun: received signal <nil>"
	}
	return fmt.Sprintf("xrun: received signal %s", e.Signal)
}

// Unwrap 使 errors.Is(err, ErrSignal) 成立。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
