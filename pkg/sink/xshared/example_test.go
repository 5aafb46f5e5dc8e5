package xshared_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/omeyang/logkit/pkg/sink/xshared"
)

func ExampleRegistry_GetOrCreate() {
	dir, _ := os.MkdirTemp("", "xshared-example")
	defer os.RemoveAll(dir)

	reg, err := xshared.New()
	if err != nil {
		panic(err)
	}
	defer reg.Close()

	path := filepath.Join(dir, "app.log")

	// 两次解析同一路径得到同一个共享句柄
	h1, _ := reg.GetOrCreate(path)
	h2, _ := reg.GetOrCreate(path)
	fmt.Println("shared:", h1 == h2)

	if _, err := h1.WriteBatch(context.Background(), []string{"hello", "world"}); err != nil {
		panic(err)
	}

	data, _ := os.ReadFile(path)
	fmt.Print(string(data))
	// Output:
	// shared: true
	// hello
	// world
}
