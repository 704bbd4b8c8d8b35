package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 重载回调，err 非 nil 表示重载失败或监视出错，此时配置保持旧值。
type WatchCallback func(cfg Config, err error)

// WatchOption 监视选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。非正值被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 监视 cfg 的配置文件，变更时调用 Reload 并回调，阻塞直到 ctx 结束。
//
// ctx 结束时返回 nil；只有启动失败才返回错误。
// 回调在调用 Watch 的 goroutine 中执行，应保持轻量。
//
//	g.Go(func(ctx context.Context) error {
//	    return xconf.Watch(ctx, cfg, func(c xconf.Config, err error) { ... })
//	})
func Watch(ctx context.Context, cfg Config, callback WatchCallback, opts ...WatchOption) error {
	if ctx == nil {
		return ErrNilContext
	}
	if cfg == nil || cfg.Path() == "" {
		return ErrNotFileBacked
	}

	o := &watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("xconf: create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// 监视目录而非文件：编辑器保存时可能先删除再创建。
	dir := filepath.Dir(cfg.Path())
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("xconf: watch directory %s: %w", dir, err)
	}

	notify := func(err error) {
		if callback != nil {
			callback(cfg, err)
		}
	}

	filename := filepath.Base(cfg.Path())
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isConfigChange(event, filename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			notify(cfg.Reload())

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			notify(errors.Join(ErrWatch, err))
		}
	}
}

// isConfigChange 判断事件是否可能意味着目标文件内容变化。
// Rename 对应 vim/emacs 写临时文件后替换的保存方式。
func isConfigChange(event fsnotify.Event, filename string) bool {
	if filepath.Base(event.Name) != filename {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
