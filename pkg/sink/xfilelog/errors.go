package xfilelog

import "errors"

var (
	// ErrWriterClosed 表示写入器已进入关闭流程。
	// Close 开始后调用 Enqueue/Rotate 返回此错误；
	// 调用方应视为非致命（本地丢弃或改走其他通道）。
	ErrWriterClosed = errors.New("xfilelog: writer is closed")

	// ErrNilRegistry 表示构造时未提供句柄仓库。
	ErrNilRegistry = errors.New("xfilelog: registry is required")

	// ErrInvalidOption 表示选项值无效。
	ErrInvalidOption = errors.New("xfilelog: invalid option")
)
