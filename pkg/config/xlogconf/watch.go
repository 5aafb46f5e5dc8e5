package xlogconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 配置文件变更回调。
// 当配置文件发生变更时调用，err 表示重新加载是否成功。
type WatchCallback func(cfg WriterConfig, err error)

// WatchOption 监视器配置选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{
		debounce: 100 * time.Millisecond, // 默认防抖时间
	}
}

// WithDebounce 设置防抖时间。
// 在指定时间内的多次变更只触发一次重载。默认 100ms。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher 配置文件监视器。
// 监控配置文件变更，重新加载后通过回调通知宿主。
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	running bool
	timer   *time.Timer // debounce 定时器，Stop() 时需要取消
	done    chan struct{}
}

// Watch 创建配置文件监视器。
//
// 监视配置文件所在目录（而非文件本身）：编辑器保存文件时可能
// 先删除再创建，直接监视文件会丢失事件。
//
// 返回的 Watcher 需要调用 Start() 开始监视（阻塞，通常放入
// goroutine），Stop() 停止监视。
func Watch(path string, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if callback == nil {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidConfig)
	}
	if _, err := detectFormat(path); err != nil {
		return nil, err
	}

	options := defaultWatchOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xlogconf: failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("xlogconf: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Start 启动监视。
// 此方法会阻塞直到 Stop 被调用，通常应在 goroutine 中调用。
// 重复调用是空操作。
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			// fsnotify 内部错误不终止监视；下一次事件仍可能成功
			if !ok {
				return
			}
		case <-w.ctx.Done():
			return
		}
	}
}

// handleEvent 过滤并防抖处理一个文件系统事件。
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// 只关心目标配置文件的写入/创建/重命名
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		cfg, err := Load(w.path)
		w.callback(cfg, err)
	})
}

// Stop 停止监视并释放资源。幂等。
func (w *Watcher) Stop() {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	running := w.running
	w.mu.Unlock()

	_ = w.watcher.Close()
	if running {
		<-w.done
	}
}
