package xfilelog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/logkit/pkg/config/xlogconf"
	"github.com/omeyang/logkit/pkg/sink/xshared"
	"github.com/omeyang/logkit/pkg/util/xpath"
)

// 写入器状态机：Active → Closing → Closed。
// Enqueue 只在 Active 状态被接受；Closing 从 Close 开始，
// 到最终排空完成转入 Closed（终态）。
const (
	stateActive int32 = iota
	stateClosing
	stateClosed
)

// 编译期接口检查。
var _ io.Closer = (*Writer)(nil)

// Writer 是带批处理后台循环的文件日志写入器。
//
// 通过 [New] 构造；多个 Writer（配置相同或不同）可指向同一文件，
// 只要它们共享同一个 [xshared.Registry]。
//
// 所有方法并发安全。
type Writer struct {
	cfg  xlogconf.WriterConfig
	reg  *xshared.Registry
	opts *options
	met  *meters

	q         *queue
	state     atomic.Int32
	stop      chan struct{}
	wake      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	// truncatePending 表示首次解析句柄时需要清空既有内容
	// （AppendToExisting=false）。Close 超时后排空路径可能与尚在
	// 运行的批处理循环并存，因此用 CAS 认领，保证只清空一次。
	truncatePending atomic.Bool

	enqueued  atomic.Uint64
	written   atomic.Uint64
	dropped   atomic.Uint64
	batches   atomic.Uint64
	rotations atomic.Uint64
}

// Stats 是写入器计数器的瞬时快照。
type Stats struct {
	// Enqueued 被 Enqueue 接受的总行数。
	Enqueued uint64
	// Written 已落盘的总行数。
	Written uint64
	// Dropped 因写入失败被丢弃的总行数。
	Dropped uint64
	// Batches 已落盘的批次数。
	Batches uint64
	// Rotations 本实例执行的轮转次数。
	Rotations uint64
	// QueueDepth 当前队列深度。队列无上限，宿主可据此告警。
	QueueDepth int64
}

// New 创建写入器并启动后台批处理循环。
//
// reg 应为进程级共享的句柄仓库（依赖注入，而非各自构造），
// 否则多实例写同一文件的互斥保证失效。cfg 在写入器生命周期内不可变。
func New(cfg xlogconf.WriterConfig, reg *xshared.Registry, opts ...Option) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	met, err := newMeters(o.meterProvider)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		cfg:      cfg,
		reg:      reg,
		opts:     o,
		met:      met,
		q:        newQueue(),
		stop:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
		loopDone: make(chan struct{}),
	}
	w.truncatePending.Store(!cfg.AppendToExisting)
	go w.loop()
	return w, nil
}

// Enqueue 将一行已格式化的日志放入队列。
//
// 非阻塞、永不因容量失败；唯一的错误是写入器已开始关闭时返回
// [ErrWriterClosed]（调用方应视为非致命）。行内容按原样落盘，
// 写出时追加换行符，不做任何解析。
func (w *Writer) Enqueue(line string) error {
	if w.state.Load() != stateActive {
		return ErrWriterClosed
	}
	w.q.push(line)
	// 复查：push 与 Close 的最终排空存在竞争窗口。复查仍为 Active
	// 说明 push 先于 Close 发生，该行必被排空覆盖；否则不再有落盘
	// 保证，向调用方报告未接受。
	if w.state.Load() != stateActive {
		return ErrWriterClosed
	}
	w.enqueued.Add(1)
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Rotate 手动触发一次轮转（无视大小阈值）并执行归档清理。
// 活跃文件尚不存在时是空操作。
func (w *Writer) Rotate() error {
	if w.state.Load() != stateActive {
		return ErrWriterClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.lockTimeout)
	defer cancel()

	live, err := xpath.ResolveLive(w.cfg.Directory, w.cfg.UseDateFolders,
		w.cfg.DateFolderLayout, w.cfg.FileName, time.Now())
	if err != nil {
		return err
	}
	return w.rotateLive(ctx, live)
}

// Stats 返回计数器的瞬时快照。
func (w *Writer) Stats() Stats {
	return Stats{
		Enqueued:   w.enqueued.Load(),
		Written:    w.written.Load(),
		Dropped:    w.dropped.Load(),
		Batches:    w.batches.Load(),
		Rotations:  w.rotations.Load(),
		QueueDepth: w.q.Len(),
	}
}

// Close 优雅关闭写入器。
//
// 流程：拒绝新的 Enqueue → 通知后台循环停止并限时等待 →
// 同步排空队列中所有剩余行（逐批写盘，带与正常路径相同的轮转
// 检查）→ 转入终态。凡在 Close 前被接受的行，Close 返回时已落盘
// （写入失败被丢弃并上报的行除外，见包文档的错误策略）。
//
// 幂等：重复调用等待首次关闭完成后直接返回 nil。
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.state.Store(stateClosing)
		close(w.stop)
		select {
		case <-w.loopDone:
		case <-time.After(w.opts.closeTimeout):
			w.report(fmt.Errorf("xfilelog: consumer loop did not stop within %s, draining anyway",
				w.opts.closeTimeout))
		}
		w.drainAll()
		w.state.Store(stateClosed)
	})
	return nil
}

// =============================================================================
// 后台消费循环
// =============================================================================

func (w *Writer) loop() {
	defer close(w.loopDone)

	timer := time.NewTimer(w.opts.idleSleep)
	defer timer.Stop()

	batch := make([]string, 0, w.opts.batchSize)
	for {
		batch = w.drainBatch(batch[:0])
		if len(batch) > 0 {
			w.flush(batch)
			// 批次之间检查停止信号；剩余行由 Close 的同步排空接管
			select {
			case <-w.stop:
				return
			default:
			}
			continue
		}

		// 队列空：小睡，可被新行唤醒或停止信号打断
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.opts.idleSleep)
		select {
		case <-w.stop:
			return
		case <-w.wake:
		case <-timer.C:
		}
	}
}

// drainBatch 从队列取出至多 batchSize 行。不阻塞：
// 在途未链接完成的行留给下一轮（循环路径）或排空路径处理。
func (w *Writer) drainBatch(batch []string) []string {
	for len(batch) < w.opts.batchSize {
		line, ok := w.q.pop()
		if !ok {
			break
		}
		batch = append(batch, line)
	}
	return batch
}

// drainAll 同步排空队列中的全部剩余行，包括在途尚未完成链接的行。
// 在 Close 中调用。通常此时后台循环已退出；等待循环退出超时后
// 也会进入，此时与仍在消费的循环并存——队列 pop 的 CAS 竞争保证
// 每行仍只被取走一次，不丢不重。
func (w *Writer) drainAll() {
	batch := make([]string, 0, w.opts.batchSize)
	for {
		line, ok := w.q.pop()
		if !ok {
			if !w.q.empty() {
				// 生产方已交换 tail 但尚未完成链接，让出调度后重试
				runtime.Gosched()
				continue
			}
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
				continue // flush 期间可能有竞争窗口内的在途 push
			}
			return
		}
		batch = append(batch, line)
		if len(batch) >= w.opts.batchSize {
			w.flush(batch)
			batch = batch[:0]
		}
	}
}

// =============================================================================
// 写盘路径
// =============================================================================

// flush 将一个批次写盘：解析路径 → 解析句柄 → 轮转检查 → 写入。
// 任何失败都被本地吸收（上报 + 丢弃批次），绝不向上传播。
func (w *Writer) flush(batch []string) {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.lockTimeout)
	defer cancel()

	live, err := xpath.ResolveLive(w.cfg.Directory, w.cfg.UseDateFolders,
		w.cfg.DateFolderLayout, w.cfg.FileName, time.Now())
	if err != nil {
		w.drop(ctx, batch, err)
		return
	}

	// 句柄可能在本批次进行中被并发实例的轮转回收（ErrHandleClosed），
	// 重新解析一次即可拿到新句柄；连续两次失败按写入失败丢弃。
	for attempt := 0; attempt < 2; attempt++ {
		h, err := w.reg.GetOrCreate(live)
		if err != nil {
			w.drop(ctx, batch, err)
			return
		}

		// CAS 认领清空任务，并存的消费路径只有一个会执行
		if w.truncatePending.CompareAndSwap(true, false) {
			if err := h.Truncate(ctx); err != nil {
				if errors.Is(err, xshared.ErrHandleClosed) {
					w.truncatePending.Store(true)
					continue
				}
				// 只尝试一次：既有内容保留好过反复清空他人已写入的行
				w.report(fmt.Errorf("xfilelog: truncate %s: %w", live, err))
			}
		}

		if w.cfg.MaxFileSizeBytes > 0 && h.Size() >= w.cfg.MaxFileSizeBytes {
			if err := w.rotateLive(ctx, live); err != nil {
				w.report(err)
			}
			h, err = w.reg.GetOrCreate(live)
			if err != nil {
				w.drop(ctx, batch, err)
				return
			}
		}

		err = w.writeBatch(ctx, h, batch)
		if err == nil {
			w.written.Add(uint64(len(batch)))
			w.batches.Add(1)
			w.met.addWritten(ctx, int64(len(batch)))
			return
		}
		if errors.Is(err, xshared.ErrHandleClosed) {
			continue
		}
		w.drop(ctx, batch, err)
		return
	}
	w.drop(ctx, batch, fmt.Errorf("xfilelog: handle for %s kept closing under us: %w",
		live, xshared.ErrHandleClosed))
}

// writeBatch 执行一次批次写入，按配置附带有界退避重试。
func (w *Writer) writeBatch(ctx context.Context, h *xshared.Handle, batch []string) error {
	if w.opts.retryAttempts <= 1 {
		_, err := h.WriteBatch(ctx, batch)
		return err
	}
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(w.opts.retryAttempts)),
		retry.Delay(w.opts.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		// 句柄被轮转回收不是瞬态故障，交由 flush 重新解析
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, xshared.ErrHandleClosed)
		}),
	).Do(func() error {
		_, err := h.WriteBatch(ctx, batch)
		return err
	})
}

// rotateLive 归档活跃文件并执行保留清理。
//
// 并发实例可能已抢先完成同一次轮转（ErrNotFound），视为成功。
func (w *Writer) rotateLive(ctx context.Context, live string) error {
	archive, err := xpath.UniqueArchivePath(live, time.Now())
	if err != nil {
		return fmt.Errorf("xfilelog: archive name for %s: %w", live, err)
	}
	if err := w.reg.Archive(ctx, live, archive); err != nil {
		if errors.Is(err, xshared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("xfilelog: rotate %s: %w", live, err)
	}
	w.rotations.Add(1)
	w.met.addRotation(ctx)
	w.applyRetention(live)
	return nil
}

// applyRetention 删除超出保留数量的最旧归档。尽力而为：
// 删除失败只上报不中止，也不影响写入路径。
func (w *Writer) applyRetention(live string) {
	if w.cfg.MaxFileCount <= 0 {
		return
	}
	archives, err := xpath.ListArchives(live)
	if err != nil {
		w.report(fmt.Errorf("xfilelog: list archives for %s: %w", live, err))
		return
	}
	if len(archives) <= w.cfg.MaxFileCount {
		return
	}
	for _, old := range archives[w.cfg.MaxFileCount:] {
		if err := os.Remove(old.Path); err != nil {
			w.report(fmt.Errorf("xfilelog: prune %s: %w", old.Path, err))
		}
	}
}

// drop 丢弃一个批次并记账上报。
func (w *Writer) drop(ctx context.Context, batch []string, err error) {
	w.dropped.Add(uint64(len(batch)))
	w.met.addDropped(ctx, int64(len(batch)))
	w.report(err)
}

// report 通过回调上报内部错误。回调 panic 被 recover 隔离，
// 防止错误通知反向中断写入循环。
func (w *Writer) report(err error) {
	if err == nil || w.opts.onError == nil {
		return
	}
	defer func() { _ = recover() }()
	w.opts.onError(err)
}
