package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var _ Config = (*koanfConfig)(nil)

type koanfConfig struct {
	k      atomic.Pointer[koanf.Koanf]
	path   string
	format Format
	opts   *options
	// reloadMu 串行化 Reload，避免并发重载导致配置回退。
	reloadMu sync.Mutex
}

// New 从文件创建配置，格式由扩展名决定（.yaml/.yml/.json）。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	c := &koanfConfig{
		path:   path,
		format: format,
		opts:   applyOptions(opts),
	}
	k, err := c.loadFile()
	if err != nil {
		return nil, err
	}
	c.k.Store(k)
	return c, nil
}

// NewFromBytes 从字节数据创建配置，空数据得到只含默认值的配置。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if _, err := parserFor(format); err != nil {
		return nil, err
	}

	c := &koanfConfig{
		format: format,
		opts:   applyOptions(opts),
	}
	k, err := c.load(data)
	if err != nil {
		return nil, err
	}
	c.k.Store(k)
	return c, nil
}

func (c *koanfConfig) Client() *koanf.Koanf {
	return c.k.Load()
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	if err := c.k.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{
		Tag: c.opts.tag,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotFileBacked
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	k, err := c.loadFile()
	if err != nil {
		return err
	}
	c.k.Store(k)
	return nil
}

func (c *koanfConfig) Path() string {
	return c.path
}

func (c *koanfConfig) Format() Format {
	return c.format
}

func (c *koanfConfig) loadFile() (*koanf.Koanf, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return c.load(data)
}

// load 先写入默认值，再合并 data 中的配置。
func (c *koanfConfig) load(data []byte) (*koanf.Koanf, error) {
	k := koanf.New(c.opts.delim)
	for key, val := range c.opts.defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("%w: default %q: %w", ErrParseFailed, key, err)
		}
	}
	if len(data) == 0 {
		return k, nil
	}

	parser, err := parserFor(c.format)
	if err != nil {
		return nil, err
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func parserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatYAML:
		return yaml.Parser(), nil
	case FormatJSON:
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
