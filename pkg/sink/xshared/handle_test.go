package xshared

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// WriteBatch 基本行为
// =============================================================================

func TestWriteBatch(t *testing.T) {
	ctx := testCtx(t)
	r := newForTest(t)
	path := filepath.Join(t.TempDir(), "app.log")

	h, err := r.GetOrCreate(path)
	require.NoError(t, err)

	n, err := h.WriteBatch(ctx, []string{"line one", "line two"})
	require.NoError(t, err)
	assert.Equal(t, len("line one\nline two\n"), n)
	assert.Equal(t, int64(n), h.Size())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestWriteBatchEmpty(t *testing.T) {
	ctx := testCtx(t)
	r := newForTest(t)
	h, err := r.GetOrCreate(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)

	n, err := h.WriteBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, h.Size())
}

func TestWriteBatchAppendsAcrossCalls(t *testing.T) {
	ctx := testCtx(t)
	r := newForTest(t)
	path := filepath.Join(t.TempDir(), "app.log")
	h, err := r.GetOrCreate(path)
	require.NoError(t, err)

	_, err = h.WriteBatch(ctx, []string{"first"})
	require.NoError(t, err)
	_, err = h.WriteBatch(ctx, []string{"second"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

// TestWriteBatchSizeResumesExisting 验证追加模式下初始大小来自既有文件。
func TestWriteBatchSizeResumesExisting(t *testing.T) {
	r := newForTest(t)
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0600))

	h, err := r.GetOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), h.Size())
}

func TestWriteBatchNilContextPanics(t *testing.T) {
	r := newForTest(t)
	h, err := r.GetOrCreate(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = h.WriteBatch(nil, []string{"x"}) //nolint:staticcheck // 故意传 nil 验证契约
	})
}

// =============================================================================
// 互斥与等锁超时
// =============================================================================

// TestWriteBatchMutualExclusion 验证并发批次不会交错（P1 的句柄层）。
func TestWriteBatchMutualExclusion(t *testing.T) {
	ctx := testCtx(t)
	r := newForTest(t)
	path := filepath.Join(t.TempDir(), "app.log")
	h, err := r.GetOrCreate(path)
	require.NoError(t, err)

	const (
		goroutines = 8
		batches    = 20
		lineLen    = 64
	)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			marker := strings.Repeat(fmt.Sprintf("%d", g), lineLen)
			for b := 0; b < batches; b++ {
				if _, err := h.WriteBatch(ctx, []string{marker, marker}); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, goroutines*batches*2)
	for _, line := range lines {
		require.Len(t, line, lineLen)
		// 每行只能由同一个 goroutine 的标记字符组成
		require.Equal(t, strings.Repeat(line[:1], lineLen), line)
	}
}

// TestWriteBatchLockTimeout 验证等锁受 ctx deadline 约束。
func TestWriteBatchLockTimeout(t *testing.T) {
	r := newForTest(t)
	h, err := r.GetOrCreate(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)

	// 直接占用写锁模拟长临界区
	require.NoError(t, h.lock(context.Background()))
	defer h.unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = h.WriteBatch(ctx, []string{"blocked"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, h.Size())
}

// =============================================================================
// Truncate
// =============================================================================

func TestTruncate(t *testing.T) {
	ctx := testCtx(t)
	r := newForTest(t)
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0600))

	h, err := r.GetOrCreate(path)
	require.NoError(t, err)
	require.Positive(t, h.Size())

	require.NoError(t, h.Truncate(ctx))
	assert.Zero(t, h.Size())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	// 截断后可以继续写入
	_, err = h.WriteBatch(ctx, []string{"fresh"})
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(data))
}

func TestTruncateClosedHandle(t *testing.T) {
	ctx := testCtx(t)
	r := newForTest(t)
	path := filepath.Join(t.TempDir(), "app.log")

	h, err := r.GetOrCreate(path)
	require.NoError(t, err)
	require.NoError(t, r.Remove(ctx, path))

	assert.ErrorIs(t, h.Truncate(ctx), ErrHandleClosed)
}
