package xconf

import "maps"

type options struct {
	delim    string
	tag      string
	defaults map[string]any
}

// Option 配置加载选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		delim: ".",
		tag:   "koanf",
	}
}

// WithDelim 设置键分隔符，默认 "."；空字符串被忽略。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置 Unmarshal 使用的结构体标签，默认 "koanf"；空字符串被忽略。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// WithDefaults 设置默认值，键使用分隔符表示层级（如 "pool.workers"）。
// 多次调用会合并，后者覆盖前者。
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		if len(defaults) == 0 {
			return
		}
		if o.defaults == nil {
			o.defaults = make(map[string]any, len(defaults))
		}
		maps.Copy(o.defaults, defaults)
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
