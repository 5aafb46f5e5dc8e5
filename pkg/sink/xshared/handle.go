package xshared

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
)

// Handle 表示一个进程内共享的日志文件句柄。
//
// 一个 Handle 对应一个打开的可追加文件流和一把排他写锁。
// 多个写入实例解析到同一路径时持有同一个 Handle 的非拥有引用；
// 文件的生命周期归 Registry 管理。
//
// 所有方法并发安全。
type Handle struct {
	path string
	file *os.File

	// mu 是 size=1 的 channel，用作排他写锁：
	//   - 发送成功 = 获取锁
	//   - 发送阻塞 = 锁被占用
	//   - 接收 = 释放锁
	mu chan struct{}

	size   atomic.Int64
	closed atomic.Bool
}

func newHandle(path string, file *os.File, size int64) *Handle {
	h := &Handle{
		path: path,
		file: file,
		mu:   make(chan struct{}, 1),
	}
	h.size.Store(size)
	return h
}

// Path 返回句柄对应的规范化路径。
// 关闭后仍可调用。
func (h *Handle) Path() string {
	return h.path
}

// Size 返回当前文件大小（字节）的瞬时快照。
//
// 大小在每次写入后按写入字节数累加，写入失败后通过 Stat 重新校准。
// 用于轮转阈值判断，无需每个批次执行 Stat 系统调用。
func (h *Handle) Size() int64 {
	return h.size.Load()
}

// lock 获取排他写锁，支持 ctx 超时/取消。
func (h *Handle) lock(ctx context.Context) error {
	if ctx == nil {
		panic("xshared: nil Context")
	}
	// 快速检查：ctx 已取消时避免进入锁竞争
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case h.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) unlock() {
	<-h.mu
}

// WriteBatch 在一个临界区内按序写入一批日志行。
//
// 每行以换行符结尾，整个批次拼接为单次 write 系统调用，写入后 fsync。
// 返回写入的字节数。
//
// 并发调用按锁的到达顺序排队；只保证互斥，不保证严格 FIFO 公平。
// 等锁超时返回 ctx 错误且不写入任何数据；句柄已被回收时返回
// [ErrHandleClosed]，调用方应重新向 Registry 解析句柄。
func (h *Handle) WriteBatch(ctx context.Context, lines []string) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	if err := h.lock(ctx); err != nil {
		return 0, err
	}
	defer h.unlock()

	if h.closed.Load() {
		return 0, ErrHandleClosed
	}

	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}
	buf := make([]byte, 0, total)
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	n, err := h.file.Write(buf)
	h.size.Add(int64(n))
	if err != nil {
		// 部分写入后大小不可信，通过 Stat 重新校准（尽力而为）
		h.restatLocked()
		return n, fmt.Errorf("xshared: write %s: %w", h.path, err)
	}
	if err := h.file.Sync(); err != nil {
		return n, fmt.Errorf("xshared: sync %s: %w", h.path, err)
	}
	return n, nil
}

// Truncate 将文件截断为空。
//
// 用于 append=false 的写入实例在首次解析句柄时清空既有内容。
// 已关闭的句柄返回 [ErrHandleClosed]。
func (h *Handle) Truncate(ctx context.Context) error {
	if err := h.lock(ctx); err != nil {
		return err
	}
	defer h.unlock()

	if h.closed.Load() {
		return ErrHandleClosed
	}
	if err := h.file.Truncate(0); err != nil {
		return fmt.Errorf("xshared: truncate %s: %w", h.path, err)
	}
	h.size.Store(0)
	return nil
}

// restatLocked 通过 Stat 重新校准 size。调用方必须持有写锁。
func (h *Handle) restatLocked() {
	if info, err := h.file.Stat(); err == nil {
		h.size.Store(info.Size())
	}
}

// close 等待在途批次完成后关闭底层文件描述符。
//
// 获取写锁保证不与 WriteBatch 重叠（在途写入完整落盘后才关闭）。
// 幂等：重复关闭返回 [ErrHandleClosed]。
func (h *Handle) close(ctx context.Context) error {
	if err := h.lock(ctx); err != nil {
		return err
	}
	defer h.unlock()

	if !h.closed.CompareAndSwap(false, true) {
		return ErrHandleClosed
	}
	// Sync 失败不阻止 Close：描述符必须释放
	syncErr := h.file.Sync()
	if err := h.file.Close(); err != nil {
		return fmt.Errorf("xshared: close %s: %w", h.path, err)
	}
	if syncErr != nil {
		return fmt.Errorf("xshared: sync %s: %w", h.path, syncErr)
	}
	return nil
}
