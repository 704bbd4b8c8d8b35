// xpoolbench 是 xpool 的压测工具：M 个生产者并发各提交 K 个任务，
// 等待 pool 排空后关闭，并校验完成数等于 M×K。
//
// 用法:
//
//	xpoolbench [选项]
//	xpoolbench version
//
// 选项:
//
//	-c, --config            配置文件路径（YAML/JSON），文件变更时热更新 log.level
//	-w, --workers           worker 数量
//	-n, --tasks             每个生产者提交的任务数
//	-p, --producers         生产者数量
//	    --task-duration     单个任务的模拟耗时
//	    --panic-every       每 N 个任务注入一次 panic（0 表示不注入）
//	    --shutdown-timeout  关闭时等待排空的超时
//	    --log-level         日志级别 (debug/info/warn/error)
//	    --log-format        日志格式 (text/json)
//	    --log-file          日志文件，启用轮转
//	    --metrics-addr      Prometheus /metrics 监听地址
//
// 命令行选项优先于配置文件，配置文件优先于内置默认值。
//
// 退出码:
//
//	0: 压测完成且校验通过
//	1: 运行失败、校验失败或被信号中断
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// usageError 参数或配置错误，对应退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", Version, GitCommit, BuildTime, runtime.Version())
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xpoolbench",
		Usage:     "xpool 固定大小 worker pool 压测工具",
		Version:   versionString(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     benchFlags(),
		Action:    benchAction,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "显示版本信息",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(cmd.Root().Writer, "xpoolbench %s\n", versionString())
					return err
				},
			},
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{err: err}
		},
		// 退出码统一由 run 映射，禁止框架直接 os.Exit。
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}
