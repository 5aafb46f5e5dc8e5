// logpipe 将标准输入的每一行落入受管理的日志文件。
//
// 用法:
//
//	<producer> | logpipe [选项]
//
// 选项:
//
//	-c, --config       YAML/JSON 配置文件路径（可选）
//	-d, --dir          日志目录 (默认: ./logs)
//	-f, --file         日志文件名 (默认: app.log)
//	    --max-size     轮转大小阈值（字节，0 表示不轮转）
//	    --max-files    归档保留数量（0 表示不清理）
//	    --date-folders 按日期划分子目录
//	    --date-layout  日期子目录的时间布局 (默认: 2006-01-02)
//	    --truncate     启动时清空既有日志内容
//	    --batch        单批行数上限 (默认: 100)
//
// 命令行选项覆盖配置文件中的同名字段。
//
// 退出码:
//
//	0: 正常退出（stdin EOF 或收到 SIGINT/SIGTERM，队列已排空落盘）
//	1: 运行期错误
//	2: 参数/配置错误
//
// 示例:
//
//	tail -f /var/log/app.out | logpipe -d /var/log/managed -f app.log --max-size 10485760 --max-files 7
//	journalctl -f -o cat | logpipe -c /etc/logpipe.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/logkit/pkg/config/xlogconf"
	"github.com/omeyang/logkit/pkg/sink/xfilelog"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// usageError 表示参数/配置错误，映射到退出码 2。
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "logpipe",
		Usage:   "将标准输入逐行落入带轮转与保留清理的日志文件",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML/JSON 配置文件路径",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "日志目录",
				Value:   "./logs",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "日志文件名",
				Value:   "app.log",
			},
			&cli.IntFlag{
				Name:  "max-size",
				Usage: "轮转大小阈值（字节，0 表示不轮转）",
			},
			&cli.IntFlag{
				Name:  "max-files",
				Usage: "归档保留数量（0 表示不清理）",
			},
			&cli.BoolFlag{
				Name:  "date-folders",
				Usage: "按日期划分子目录",
			},
			&cli.StringFlag{
				Name:  "date-layout",
				Usage: "日期子目录的时间布局",
				Value: xlogconf.DefaultDateFolderLayout,
			},
			&cli.BoolFlag{
				Name:  "truncate",
				Usage: "启动时清空既有日志内容",
			},
			&cli.IntFlag{
				Name:  "batch",
				Usage: "单批行数上限",
				Value: xfilelog.DefaultBatchSize,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return &usageError{err}
			}
			return runPipe(ctx, cfg, cmd.Int("batch"))
		},
	}
}

func run() int {
	app := createApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", uerr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// buildConfig 合成最终配置：配置文件为基础，命令行显式指定的选项覆盖。
func buildConfig(cmd *cli.Command) (xlogconf.WriterConfig, error) {
	cfg := xlogconf.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := xlogconf.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if cmd.IsSet("dir") || cfg.Directory == "" {
		cfg.Directory = cmd.String("dir")
	}
	if cmd.IsSet("file") || cfg.FileName == "" {
		cfg.FileName = cmd.String("file")
	}
	if cmd.IsSet("max-size") {
		cfg.MaxFileSizeBytes = int64(cmd.Int("max-size"))
	}
	if cmd.IsSet("max-files") {
		cfg.MaxFileCount = cmd.Int("max-files")
	}
	if cmd.IsSet("date-folders") {
		cfg.UseDateFolders = cmd.Bool("date-folders")
	}
	if cmd.IsSet("date-layout") {
		cfg.DateFolderLayout = cmd.String("date-layout")
	}
	if cmd.IsSet("truncate") {
		cfg.AppendToExisting = !cmd.Bool("truncate")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
