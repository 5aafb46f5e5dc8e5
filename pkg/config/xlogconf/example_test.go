package xlogconf_test

import (
	"fmt"

	"github.com/omeyang/logkit/pkg/config/xlogconf"
)

func ExampleLoadBytes() {
	data := []byte(`
directory: ./logs
file_name: app.log
max_file_size_bytes: 1048576
max_file_count: 4
`)
	cfg, err := xlogconf.LoadBytes(data, xlogconf.FormatYAML)
	if err != nil {
		panic(err)
	}

	fmt.Println(cfg.FileName)
	fmt.Println(cfg.MaxFileSizeBytes)
	fmt.Println(cfg.AppendToExisting) // 未配置的字段保留默认值
	// Output:
	// app.log
	// 1048576
	// true
}
