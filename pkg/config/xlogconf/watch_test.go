package xlogconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory: ./logs\nfile_name: app.log\n"), 0600))

	type result struct {
		cfg WriterConfig
		err error
	}
	results := make(chan result, 8)

	w, err := Watch(path, func(cfg WriterConfig, err error) {
		results <- result{cfg, err}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	go w.Start()
	defer w.Stop()

	// 给 fsnotify 一点建立监视的时间
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("directory: ./logs\nfile_name: changed.log\n"), 0600))

	select {
	case got := <-results:
		require.NoError(t, got.err)
		assert.Equal(t, "changed.log", got.cfg.FileName)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestWatchReportsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory: ./logs\nfile_name: app.log\n"), 0600))

	errs := make(chan error, 8)
	w, err := Watch(path, func(_ WriterConfig, err error) {
		errs <- err
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	go w.Start()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("directory: ./logs\nfile_name: ''\n"), 0600))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrInvalidConfig)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error callback")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory: ./logs\nfile_name: app.log\n"), 0600))

	calls := make(chan struct{}, 8)
	w, err := Watch(path, func(WriterConfig, error) {
		calls <- struct{}{}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	go w.Start()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0600))

	select {
	case <-calls:
		t.Fatal("callback fired for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchValidation(t *testing.T) {
	t.Run("空路径", func(t *testing.T) {
		_, err := Watch("", func(WriterConfig, error) {})
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("nil 回调", func(t *testing.T) {
		_, err := Watch("/tmp/writer.yaml", nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("不支持的格式", func(t *testing.T) {
		_, err := Watch("/tmp/writer.toml", func(WriterConfig, error) {})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("目录不存在", func(t *testing.T) {
		_, err := Watch(filepath.Join(t.TempDir(), "missing", "writer.yaml"), func(WriterConfig, error) {})
		assert.Error(t, err)
	})
}

func TestWatchStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory: ./logs\nfile_name: app.log\n"), 0600))

	w, err := Watch(path, func(WriterConfig, error) {})
	require.NoError(t, err)
	go w.Start()

	w.Stop()
	w.Stop()
}
