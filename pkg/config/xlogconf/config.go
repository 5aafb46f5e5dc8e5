package xlogconf

import (
	"fmt"

	"github.com/omeyang/logkit/pkg/util/xpath"
)

// DefaultDateFolderLayout 日期子目录的默认时间布局。
const DefaultDateFolderLayout = "2006-01-02"

// WriterConfig 描述一个文件日志写入器的静态配置。
//
// 配置在写入器实例的生命周期内不可变。零值不可直接使用，
// 应从 [Default] 出发或通过 [Load]/[LoadBytes] 获得。
type WriterConfig struct {
	// Directory 日志目录，允许相对路径（相对进程工作目录）。
	Directory string `koanf:"directory"`

	// FileName 活跃日志文件名模式（单一路径段，如 "app.log"）。
	FileName string `koanf:"file_name"`

	// UseDateFolders 是否按日期划分子目录。
	// 启用后活跃文件位于 Directory/<日期>/FileName，
	// 跨越午夜后新写入自动落入新的子目录。
	UseDateFolders bool `koanf:"use_date_folders"`

	// DateFolderLayout 日期子目录的 Go 时间布局。
	// 默认 "2006-01-02"。
	DateFolderLayout string `koanf:"date_folder_layout"`

	// MaxFileSizeBytes 活跃文件触发轮转的大小阈值（字节）。
	// 0 表示不轮转。
	MaxFileSizeBytes int64 `koanf:"max_file_size_bytes"`

	// MaxFileCount 保留的归档文件数量上限。
	// 超出时删除最旧的归档。0 表示不清理。
	MaxFileCount int `koanf:"max_file_count"`

	// AppendToExisting 首次打开时是否保留既有内容。
	// false 表示写入器首次解析到活跃文件时将其清空。默认 true。
	AppendToExisting bool `koanf:"append_to_existing"`
}

// Default 返回带默认值的配置。
// Directory 和 FileName 必须由调用方填写。
func Default() WriterConfig {
	return WriterConfig{
		DateFolderLayout: DefaultDateFolderLayout,
		AppendToExisting: true,
	}
}

// Validate 校验配置的完整性。
//
// 检查：目录非空、文件名为合法的单一路径段、大小与数量非负、
// 启用日期子目录时布局非空。
func (c WriterConfig) Validate() error {
	if c.Directory == "" {
		return fmt.Errorf("%w: directory is required", ErrInvalidConfig)
	}
	if _, err := xpath.SanitizeFileName(c.FileName); err != nil {
		return fmt.Errorf("%w: file_name: %w", ErrInvalidConfig, err)
	}
	if c.MaxFileSizeBytes < 0 {
		return fmt.Errorf("%w: max_file_size_bytes must be >= 0, got %d",
			ErrInvalidConfig, c.MaxFileSizeBytes)
	}
	if c.MaxFileCount < 0 {
		return fmt.Errorf("%w: max_file_count must be >= 0, got %d",
			ErrInvalidConfig, c.MaxFileCount)
	}
	if c.UseDateFolders && c.DateFolderLayout == "" {
		return fmt.Errorf("%w: date_folder_layout is required when use_date_folders is set",
			ErrInvalidConfig)
	}
	return nil
}
