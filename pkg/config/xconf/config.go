package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置实例。
// 基础读取直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回当前配置快照。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空时反序列化整个配置。
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件，失败时保留旧配置。
	// 从字节创建的配置返回 ErrNotFileBacked。
	Reload() error

	// Path 返回配置文件路径，从字节创建的配置返回空字符串。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

// MustUnmarshal 与 Config.Unmarshal 相同，失败时 panic。
// 用于启动阶段的必要配置。
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}
