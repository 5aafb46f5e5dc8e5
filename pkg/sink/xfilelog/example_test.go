package xfilelog_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/omeyang/logkit/pkg/config/xlogconf"
	"github.com/omeyang/logkit/pkg/sink/xfilelog"
	"github.com/omeyang/logkit/pkg/sink/xshared"
)

func Example() {
	dir, err := os.MkdirTemp("", "logkit-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	// 进程级共享仓库：指向同一文件的写入器必须共用一个
	reg, err := xshared.New()
	if err != nil {
		panic(err)
	}
	defer reg.Close()

	cfg := xlogconf.Default()
	cfg.Directory = dir
	cfg.FileName = "app.log"

	w, err := xfilelog.New(cfg, reg)
	if err != nil {
		panic(err)
	}

	_ = w.Enqueue("service started")
	_ = w.Enqueue("service stopped")

	// Close 返回前保证两行都已落盘
	_ = w.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "app.log"))
	fmt.Print(string(data))
	// Output:
	// service started
	// service stopped
}
