package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xpoolkit/pkg/observability/xrotate"
)

// 输出格式。
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ReplaceAttrFunc 属性替换函数，返回空 Key 的 Attr 表示移除该属性。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	attrs       []slog.Attr
	replaceAttr ReplaceAttrFunc
	rotator     xrotate.Rotator
	onError     func(error)
	err         error
}

// New 创建配置构建器，默认输出到 stderr、text 格式、Info 级别。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   FormatText,
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置日志输出目标，nil 被忽略。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
	}
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.fail(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空字符串视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = FormatText
	case FormatText, FormatJSON:
		b.format = normalized
	default:
		return b.fail(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetAttrs 追加固定属性，Build 时一次性注入 handler。
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetReplaceAttr 设置属性替换函数，用于字段重命名、脱敏或过滤。
//
//	xlog.New().SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
//	    if a.Key == "token" {
//	        return slog.String(a.Key, "***")
//	    }
//	    return a
//	})
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetRotation 将输出切换为带轮转的日志文件。
// filename 为空时保持原输出不变。
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	if strings.TrimSpace(filename) == "" {
		return b
	}
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		return b.fail(err)
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// SetOnError 设置内部错误回调，在 handler 写入失败时同步调用。
// 每次写入失败计入 ErrorCount；回调应保持轻量，回调内的 panic 会被捕获并另计一次。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger 实例
//
// 返回值：
//   - *Logger: 日志实例，支持动态级别控制
//   - func() error: 清理函数，用于关闭轮转文件，可重复调用
//   - error: 配置错误
func (b *Builder) Build() (*Logger, func() error, error) {
	if b.err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close()
		}
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	switch b.format {
	case FormatJSON:
		handler = slog.NewJSONHandler(b.output, opts)
	default:
		handler = slog.NewTextHandler(b.output, opts)
	}

	errs := new(atomic.Uint64)
	handler = &errorHandler{
		Handler:   handler,
		onError:   b.onError,
		count:     errs,
		reporting: new(atomic.Bool),
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	logger := &Logger{
		Logger:   slog.New(handler),
		levelVar: b.levelVar,
		errors:   errs,
	}
	return logger, b.createCleanup(), nil
}

func (b *Builder) createCleanup() func() error {
	var once sync.Once
	rotator := b.rotator

	return func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
