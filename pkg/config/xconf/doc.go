// Package xconf 基于 koanf 加载 YAML/JSON 配置，并支持文件变更后自动重载。
//
// # 加载
//
//	cfg, err := xconf.New("/etc/xpoolbench/config.yaml",
//	    xconf.WithDefaults(map[string]any{"pool.workers": 4}),
//	)
//	if err != nil {
//	    return err
//	}
//	var pool xpool.Config
//	if err := cfg.Unmarshal("pool", &pool); err != nil {
//	    return err
//	}
//
// 格式由扩展名决定（.yaml/.yml/.json）。NewFromBytes 需显式指定格式，
// 空数据得到空配置。WithDefaults 提供的默认值先于文件加载，文件中的同名键覆盖默认值，
// Reload 时同样重新应用。
//
// # 并发
//
// Reload 解析成功后原子替换底层 koanf 实例，失败时保留旧配置。
// Client() 返回当前快照，Reload 之后旧快照仍可读但已过期，使用时应每次重新获取。
//
// # 监视
//
// Watch 监视配置文件所在目录（兼容编辑器的 rename 原子写入），
// 事件经防抖后调用 Reload 并回调通知，阻塞直到 ctx 结束。
// 回调在 Watch 所在 goroutine 中同步执行，Watch 返回后不会再有回调。
package xconf
