package xshared

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/logkit/pkg/util/xpath"
)

// Registry 是进程级的路径 → [Handle] 仓库。
//
// 句柄按需懒创建：首次 GetOrCreate 打开文件（追加模式，自动创建父目录），
// 后续调用复用同一句柄。分片 map 保证不相关路径的元数据操作互不争用。
//
// Registry 应作为显式依赖注入给各写入实例（进程内通常只构造一个），
// 而非由使用方各自构造——各自构造会破坏"一个路径一个句柄"的不变量。
//
// 所有方法并发安全。
type Registry struct {
	shards []regShard
	mask   uint64
	opts   *options
	closed atomic.Bool
}

type regShard struct {
	mu      sync.Mutex
	entries map[string]*Handle
}

// New 创建 Registry。
// 配置无效时返回错误（如分片数不是 2 的幂）。
func New(opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	shards := make([]regShard, o.shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*Handle)
	}
	// shardCount 已验证为 2 的幂，int → uint64 为安全宽化
	return &Registry{
		shards: shards,
		mask:   uint64(o.shardCount - 1),
		opts:   o,
	}, nil
}

// canonical 将路径规范化为进程内唯一的 map key（绝对路径 + Clean）。
//
// 相对路径相对当前工作目录解析：运行期间变更工作目录的进程可能
// 让同一物理文件出现两个 key，这超出本包的保证范围。
func canonical(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("xshared: canonicalize %s: %w", path, err)
	}
	return abs, nil
}

func (r *Registry) shard(key string) *regShard {
	h := xxhash.Sum64String(key)
	return &r.shards[h&r.mask]
}

// GetOrCreate 返回路径对应的共享句柄，不存在时打开并插入。
//
// 并发调用同一新路径时只有一个 open 胜出，败者得到胜者的句柄。
// 文件以追加模式打开（O_APPEND|O_CREATE|O_WRONLY），父目录按需创建。
//
// 设计决策: open 在分片锁内执行。本地文件系统上 open 足够快，
// 换来"每个路径恰好 open 一次"的简单保证；代价是同分片的其他路径
// 在 open 期间短暂排队，可通过 WithShardCount 稀释。
func (r *Registry) GetOrCreate(path string) (*Handle, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	key, err := canonical(path)
	if err != nil {
		return nil, err
	}

	s := r.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.closed.Load() {
		return nil, ErrClosed
	}
	if h, ok := s.entries[key]; ok {
		return h, nil
	}

	h, err := r.open(key)
	if err != nil {
		return nil, err
	}
	s.entries[key] = h
	return h, nil
}

// open 打开（必要时创建）一个追加模式的日志文件。调用方持有分片锁。
func (r *Registry) open(key string) (*Handle, error) {
	if err := xpath.EnsureParentDirWithPerm(key, r.opts.dirPerm); err != nil {
		return nil, fmt.Errorf("xshared: ensure dir for %s: %w", key, err)
	}
	//#nosec G302 -- 日志文件权限由调用方配置决定
	f, err := os.OpenFile(key, os.O_APPEND|os.O_CREATE|os.O_WRONLY, r.opts.filePerm)
	if err != nil {
		return nil, fmt.Errorf("xshared: open %s: %w", key, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return newHandle(key, f, size), nil
}

// Archive 将活跃文件重命名为归档文件并回收其句柄。
//
// 重命名与句柄摘除在同一分片临界区内完成，保证并发的 GetOrCreate
// 不会拿到指向已归档文件的新句柄。旧句柄随后在写锁下关闭：在途
// 批次完整写入（落入归档文件）后才释放描述符，不会产生撕裂的行。
// 在途写入占锁超过 ctx 期限时，关闭转入后台收尾（描述符不泄漏），
// Archive 仍返回成功——此时重命名与摘除均已生效。
//
// 路径上没有活跃句柄且文件不存在时返回 [ErrNotFound]（包装
// fs.ErrNotExist）；重命名失败时句柄保持注册，返回错误。
func (r *Registry) Archive(ctx context.Context, path, archivePath string) error {
	if r.closed.Load() {
		return ErrClosed
	}
	key, err := canonical(path)
	if err != nil {
		return err
	}

	s := r.shard(key)
	s.mu.Lock()
	h := s.entries[key]
	if err := os.Rename(key, archivePath); err != nil {
		s.mu.Unlock()
		if errors.Is(err, fs.ErrNotExist) && h == nil {
			return fmt.Errorf("%w: %s (%w)", ErrNotFound, key, fs.ErrNotExist)
		}
		return fmt.Errorf("xshared: rename %s: %w", key, err)
	}
	delete(s.entries, key)
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	return closeEvicted(ctx, h)
}

// closeEvicted 关闭一个已从仓库摘除的句柄。
//
// 等锁超时/取消时转入后台收尾：句柄已无持有者，放弃关闭会让
// 描述符泄漏到进程退出；后台 goroutine 在占锁的在途写入完成后
// 释放描述符。摘除与重命名此时均已生效，调用方视为成功。
func closeEvicted(ctx context.Context, h *Handle) error {
	err := h.close(ctx)
	switch {
	case err == nil, errors.Is(err, ErrHandleClosed):
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		go func() { _ = h.close(context.Background()) }()
		return nil
	default:
		return err
	}
}

// Remove 关闭并摘除路径对应的句柄（不触碰磁盘文件）。
//
// 路径上没有活跃句柄时返回 [ErrNotFound]。
func (r *Registry) Remove(ctx context.Context, path string) error {
	key, err := canonical(path)
	if err != nil {
		return err
	}

	s := r.shard(key)
	s.mu.Lock()
	h, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return closeEvicted(ctx, h)
}

// Len 返回当前活跃句柄数量的瞬时快照。
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// CloseAll 关闭并摘除所有句柄。
//
// 用于宿主进程收尾，或在测试中强制将已写内容对读取方可见。
// 幂等：没有句柄时是空操作。Registry 本身保持可用，后续
// GetOrCreate 会重新打开文件。
//
// 返回关闭过程中遇到的错误合集（errors.Join），句柄无论如何都会被摘除。
func (r *Registry) CloseAll(ctx context.Context) error {
	var handles []*Handle
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for key, h := range s.entries {
			handles = append(handles, h)
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}

	var errs []error
	for _, h := range handles {
		if err := closeEvicted(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 永久关闭 Registry：拒绝新的 GetOrCreate/Archive 并关闭所有句柄。
//
// 设计决策: 使用 CAS 标记关闭状态，重复调用返回 [ErrClosed]，
// 与本代码库其他资源型组件的关闭契约一致。
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return r.CloseAll(context.Background())
}
