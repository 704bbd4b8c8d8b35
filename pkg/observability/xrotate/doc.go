// Package xrotate 提供日志文件轮转。
//
// Rotator 是 io.WriteCloser 的超集，可直接作为 xlog 的输出目标。
// 当前实现基于 lumberjack（按大小轮转，备份数量/天数清理，可选 gzip 压缩）。
//
//	r, err := xrotate.NewLumberjack("/var/log/app/bench.log",
//	    xrotate.WithMaxSize(100),
//	    xrotate.WithMaxBackups(3),
//	)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
package xrotate
