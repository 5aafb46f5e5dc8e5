package xshared

import "errors"

var (
	// ErrClosed 表示 Registry 已关闭。
	// Close 后调用 GetOrCreate/Archive 返回此错误。
	ErrClosed = errors.New("xshared: registry is closed")

	// ErrHandleClosed 表示句柄已关闭。
	// 句柄被 Remove/CloseAll/轮转回收后，残留引用上的写入返回此错误。
	ErrHandleClosed = errors.New("xshared: handle is closed")

	// ErrEmptyPath 表示路径参数为空。
	ErrEmptyPath = errors.New("xshared: path is required")

	// ErrInvalidShardCount 表示分片数无效（必须是 2 的幂）。
	ErrInvalidShardCount = errors.New("xshared: invalid shard count")

	// ErrInvalidPerm 表示文件或目录权限无效。
	ErrInvalidPerm = errors.New("xshared: invalid permission")

	// ErrNotFound 表示指定路径没有活跃句柄。
	ErrNotFound = errors.New("xshared: no handle for path")
)
