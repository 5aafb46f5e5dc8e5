package xshared

import (
	"fmt"
	"os"

	"github.com/omeyang/logkit/pkg/util/xpath"
)

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16 // 65536

	// defaultFilePerm 日志文件默认权限：所有者读写，组只读。
	defaultFilePerm = os.FileMode(0640)
)

// Option 定义 Registry 可选配置。
type Option func(*options)

type options struct {
	shardCount int
	filePerm   os.FileMode
	dirPerm    os.FileMode
}

func defaultOptions() *options {
	return &options{
		shardCount: defaultShardCount,
		filePerm:   defaultFilePerm,
		dirPerm:    xpath.DefaultDirPerm,
	}
}

// WithShardCount 设置路径映射的分片数量。
// 更多分片减少不相关路径间的元数据锁争用，但增加内存占用。
// n 必须为正整数且为 2 的幂，上限 65536，否则 New 返回错误。默认 32。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// WithFilePerm 设置新建日志文件的权限。
// 仅允许权限位（0000~0777）。默认 0640。
func WithFilePerm(perm os.FileMode) Option {
	return func(o *options) {
		o.filePerm = perm
	}
}

// WithDirPerm 设置新建日志目录的权限。
// 必须包含所有者执行位。默认 0750。
func WithDirPerm(perm os.FileMode) Option {
	return func(o *options) {
		o.dirPerm = perm
	}
}

func (o *options) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	if o.filePerm&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: file perm %04o contains non-permission bits",
			ErrInvalidPerm, o.filePerm)
	}
	if o.dirPerm&0100 == 0 {
		return fmt.Errorf("%w: dir perm %04o missing owner execute bit",
			ErrInvalidPerm, o.dirPerm)
	}
	return nil
}
