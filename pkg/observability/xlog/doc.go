// Package xlog 基于 log/slog 构建结构化日志记录器。
//
// 通过 Builder 链式配置级别、格式（text/json）、输出目标与文件轮转，
// Build 返回可动态调整级别的 *Logger 以及释放资源的 cleanup 函数：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("info").
//	    SetFormat("json").
//	    SetRotation("/var/log/app.log").
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// Logger 内嵌 *slog.Logger，可直接传给任何接受 *slog.Logger 的组件。
// 派生 logger（With/WithGroup）共享同一个 LevelVar，SetLevel 对所有派生实例同步生效。
//
// Builder 的配置错误不会立即返回，而是在 Build 时返回第一个出现的错误。
package xlog
