package xpool

// Config 是 Pool 的可序列化配置，可通过 xconf 从 YAML/JSON 加载。
//
//	pool:
//	  workers: 8
//	  name: ingest
type Config struct {
	// Workers worker 数量，允许为 0（见 New）。
	Workers int `koanf:"workers" json:"workers"`

	// Name pool 名称，为空时自动生成。
	Name string `koanf:"name" json:"name"`
}

// Validate 校验配置。
func (c Config) Validate() error {
	return validateWorkers(c.Workers)
}

// NewFromConfig 根据 Config 创建 Pool。
// cfg.Name 非空时优先于 opts 中的 WithName。
func NewFromConfig(cfg Config, opts ...Option) (*Pool, error) {
	if cfg.Name != "" {
		opts = append(opts, WithName(cfg.Name))
	}
	return New(cfg.Workers, opts...)
}
