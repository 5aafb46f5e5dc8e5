package xpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDirPerm 默认目录权限
//
// 0750 权限说明：
//   - 所有者：读写执行 (7)
//   - 组：读执行 (5)
//   - 其他：无权限 (0)
//
// 符合 gosec G301 安全建议
const DefaultDirPerm = 0750

// containsNullByte 检测输入是否包含空字节。
// Linux 内核在 VFS 层会在空字节处截断路径，导致 Go 代码与操作系统看到的路径不一致。
func containsNullByte(s string) bool {
	return strings.ContainsRune(s, 0)
}

// SanitizeFileName 校验日志文件名模式。
//
// 文件名必须是单一路径段：不允许 "/" 或 "\"（即使在 Linux 上反斜杠
// 是合法文件名字符，跨平台场景下也几乎总是拼接错误），不允许 "."、".."
// 和空字节。
//
// 返回原样的文件名，或格式错误。
//
// 设计决策: 与目录参数分开校验而非提供整路径净化，因为日志目录来自
// 可信配置且允许是相对路径（如 "./logs"），而文件名模式会参与归档名
// 拼接，必须保证是纯文件名。
func SanitizeFileName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name is required: %w", ErrEmptyName)
	}
	if containsNullByte(name) {
		return "", fmt.Errorf("file name contains null byte: %w", ErrNullByte)
	}
	if strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("file name %q contains path separator: %w", name, ErrInvalidName)
	}
	if name == "." || name == ".." {
		return "", fmt.Errorf("file name %q is not a file: %w", name, ErrInvalidName)
	}
	return name, nil
}

// ResolveLive 计算当前活跃日志文件的完整路径。
//
// 结果为 dir[/日期子目录]/name。dateLayout 是 Go 时间布局
// （如 "2006-01-02"），useDateFolder 为 true 时按 now 计算日期子目录。
//
// 日期子目录随 now 变化：写入方应在每个批次前重新解析，
// 跨越午夜后新批次自动落入新的子目录。
func ResolveLive(dir string, useDateFolder bool, dateLayout string, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory is required: %w", ErrEmptyDir)
	}
	if containsNullByte(dir) {
		return "", fmt.Errorf("directory contains null byte: %w", ErrNullByte)
	}
	cleanName, err := SanitizeFileName(name)
	if err != nil {
		return "", err
	}
	if useDateFolder {
		return filepath.Join(dir, now.Format(dateLayout), cleanName), nil
	}
	return filepath.Join(dir, cleanName), nil
}

// EnsureParentDir 确保文件的父目录存在。
//
// 使用默认权限 0750 创建目录。目录已存在时不报错，也不修改其权限。
func EnsureParentDir(filename string) error {
	return EnsureParentDirWithPerm(filename, DefaultDirPerm)
}

// EnsureParentDirWithPerm 确保文件的父目录存在，使用指定权限。
//
// 参数：
//   - filename: 文件路径（不是目录路径），不能为空，不能包含空字节
//   - perm: 目录权限，必须包含所有者执行位（0100），否则目录无法遍历
func EnsureParentDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyName)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 目录必须包含所有者执行位（0100），否则无法进入和遍历
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}
