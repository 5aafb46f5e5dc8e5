package xpath

import "errors"

var (
	// ErrEmptyName 表示必需的文件名参数为空。
	ErrEmptyName = errors.New("xpath: file name is required")

	// ErrEmptyDir 表示必需的目录参数为空。
	ErrEmptyDir = errors.New("xpath: directory is required")

	// ErrInvalidName 表示文件名格式无效（包含路径分隔符、为 "." 或 ".." 等）。
	ErrInvalidName = errors.New("xpath: invalid file name")

	// ErrNullByte 表示输入中包含空字节（\x00）。
	ErrNullByte = errors.New("xpath: path contains null byte")

	// ErrInvalidPerm 表示目录权限无效（缺少所有者执行位，目录无法遍历）。
	ErrInvalidPerm = errors.New("xpath: invalid directory permission")

	// ErrNoUniqueName 表示在同一秒内无法生成唯一的归档文件名。
	ErrNoUniqueName = errors.New("xpath: cannot generate unique archive name")
)
