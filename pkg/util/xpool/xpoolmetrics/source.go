package xpoolmetrics

import (
	"errors"
	"fmt"

	"github.com/omeyang/xpoolkit/pkg/util/xpool"
)

var (
	// ErrNilSource 表示传入了 nil StatsSource。
	ErrNilSource = errors.New("xpoolmetrics: nil stats source")
	// ErrDuplicateSource 表示多个 StatsSource 的 Name() 相同，导出的序列会冲突。
	ErrDuplicateSource = errors.New("xpoolmetrics: duplicate stats source name")
)

// StatsSource 是可导出指标的 pool，*xpool.Pool 实现了该接口。
// Name() 作为 pool 标签，同一次注册内必须唯一。
type StatsSource interface {
	Name() string
	Stats() xpool.Stats
}

var _ StatsSource = (*xpool.Pool)(nil)

// copySources 校验并复制 sources：拒绝 nil 和重名。
func copySources(sources []StatsSource) ([]StatsSource, error) {
	seen := make(map[string]struct{}, len(sources))
	out := make([]StatsSource, 0, len(sources))
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilSource, i)
		}
		name := src.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSource, name)
		}
		seen[name] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}
