package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/logkit/pkg/config/xlogconf"
	"github.com/omeyang/logkit/pkg/sink/xfilelog"
	"github.com/omeyang/logkit/pkg/sink/xshared"
)

// maxLineBytes 单行最大字节数，超长行导致读取终止（退出码 1）。
const maxLineBytes = 1 << 20

// runPipe 搭建写入管线并泵送 stdin 直到 EOF 或收到终止信号。
// 返回前保证所有已接受的行落盘。
func runPipe(ctx context.Context, cfg xlogconf.WriterConfig, batch int) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	reg, err := xshared.New()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reg.Close(); cerr != nil {
			logger.Warn("关闭句柄仓库失败", "err", cerr)
		}
	}()

	w, err := xfilelog.New(cfg, reg,
		xfilelog.WithBatchSize(batch),
		xfilelog.WithOnError(func(err error) {
			logger.Warn("写入器内部错误", "err", err)
		}),
	)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("logpipe 启动",
		"dir", cfg.Directory,
		"file", cfg.FileName,
		"max_size", cfg.MaxFileSizeBytes,
		"max_files", cfg.MaxFileCount,
	)

	var accepted atomic.Uint64
	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		// 信号到达时关闭 stdin，解除 Scan 的阻塞读
		<-gctx.Done()
		return os.Stdin.Close()
	})
	g.Go(func() error {
		// EOF 时主动收尾，释放上面的信号监听 goroutine
		defer stop()
		n, perr := pump(os.Stdin, w)
		accepted.Store(n)
		return perr
	})
	err = g.Wait()

	// Close 同步排空队列，返回前所有已接受的行已落盘
	_ = w.Close()

	st := w.Stats()
	logger.Info("logpipe 退出",
		"accepted", accepted.Load(),
		"written", st.Written,
		"dropped", st.Dropped,
		"rotations", st.Rotations,
	)

	// 信号路径上 stdin 被主动关闭产生的读错误不算失败
	if err != nil && !errors.Is(err, fs.ErrClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pump 逐行读取 r 并送入写入器，返回接受的行数。
func pump(r io.Reader, w *xfilelog.Writer) (uint64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var n uint64
	for sc.Scan() {
		if err := w.Enqueue(sc.Text()); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
