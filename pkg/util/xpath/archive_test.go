package xpath

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch 创建一个内容为 content 的文件并设置修改时间。
func touch(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// =============================================================================
// ArchivePath 测试
// =============================================================================

func TestArchivePath(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 5, 9, 0, time.UTC)

	tests := []struct {
		name string
		live string
		want string
	}{
		{
			name: "带扩展名",
			live: "/var/log/app.log",
			want: "/var/log/app_20260825_140509.log",
		},
		{
			name: "无扩展名",
			live: "/var/log/app",
			want: "/var/log/app_20260825_140509",
		},
		{
			name: "多个点的文件名",
			live: "/var/log/app.2024.log",
			want: "/var/log/app.2024_20260825_140509.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArchivePath(tt.live, ts))
		})
	}
}

func TestUniqueArchivePath(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 5, 9, 0, time.UTC)

	t.Run("无冲突时返回基础名", func(t *testing.T) {
		tmpDir := t.TempDir()
		live := filepath.Join(tmpDir, "app.log")

		got, err := UniqueArchivePath(live, ts)
		require.NoError(t, err)
		assert.Equal(t, ArchivePath(live, ts), got)
	})

	t.Run("同秒冲突时追加序号", func(t *testing.T) {
		tmpDir := t.TempDir()
		live := filepath.Join(tmpDir, "app.log")
		touch(t, ArchivePath(live, ts), "x", ts)

		got, err := UniqueArchivePath(live, ts)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, "app_20260825_140509_1.log"), got)

		// 第二次冲突继续递增
		touch(t, got, "x", ts)
		got2, err := UniqueArchivePath(live, ts)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, "app_20260825_140509_2.log"), got2)
	})
}

// =============================================================================
// ListArchives 测试
// =============================================================================

func TestListArchives(t *testing.T) {
	t.Run("按修改时间从新到旧排序", func(t *testing.T) {
		tmpDir := t.TempDir()
		live := filepath.Join(tmpDir, "app.log")
		base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

		touch(t, live, "live", base.Add(3*time.Hour))
		touch(t, filepath.Join(tmpDir, "app_20260825_080000.log"), "old", base)
		touch(t, filepath.Join(tmpDir, "app_20260825_090000.log"), "mid", base.Add(time.Hour))
		touch(t, filepath.Join(tmpDir, "app_20260825_100000.log"), "new", base.Add(2*time.Hour))

		archives, err := ListArchives(live)
		require.NoError(t, err)
		require.Len(t, archives, 3)
		assert.Contains(t, archives[0].Path, "100000")
		assert.Contains(t, archives[1].Path, "090000")
		assert.Contains(t, archives[2].Path, "080000")
	})

	t.Run("排除活跃文件和不相关文件", func(t *testing.T) {
		tmpDir := t.TempDir()
		live := filepath.Join(tmpDir, "app.log")
		now := time.Now()

		touch(t, live, "live", now)
		touch(t, filepath.Join(tmpDir, "app_20260825_080000.log"), "a", now)
		touch(t, filepath.Join(tmpDir, "other_20260825_080000.log"), "b", now)
		touch(t, filepath.Join(tmpDir, "app_20260825_080000.txt"), "c", now)
		require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "app_dir.log"), 0750))

		archives, err := ListArchives(live)
		require.NoError(t, err)
		require.Len(t, archives, 1)
		assert.Contains(t, archives[0].Path, "app_20260825_080000.log")
	})

	t.Run("目录不存在返回空列表", func(t *testing.T) {
		archives, err := ListArchives(filepath.Join(t.TempDir(), "missing", "app.log"))
		require.NoError(t, err)
		assert.Empty(t, archives)
	})

	t.Run("记录文件大小", func(t *testing.T) {
		tmpDir := t.TempDir()
		live := filepath.Join(tmpDir, "app.log")
		touch(t, filepath.Join(tmpDir, "app_20260825_080000.log"), "12345", time.Now())

		archives, err := ListArchives(live)
		require.NoError(t, err)
		require.Len(t, archives, 1)
		assert.Equal(t, int64(5), archives[0].Size)
	})
}
