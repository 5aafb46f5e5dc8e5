package xpath

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArchiveTimeLayout 归档文件名中的时间戳布局（yyyyMMdd_HHmmss）。
const ArchiveTimeLayout = "20060102_150405"

// maxUniqueAttempts 同一秒内归档名冲突时追加序号的尝试上限。
const maxUniqueAttempts = 1000

// Archive 描述一个已轮转的归档文件。
type Archive struct {
	// Path 归档文件的完整路径。
	Path string

	// ModTime 文件的修改时间，用于保留策略的新旧排序。
	ModTime time.Time

	// Size 文件大小（字节）。
	Size int64
}

// splitExt 将文件名拆为主干和扩展名。
// "log.txt" -> ("log", ".txt")；"log" -> ("log", "")。
func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// ArchivePath 生成 livePath 在 ts 时刻的归档路径。
//
// 归档文件与活跃文件同目录，命名为 <name>_<yyyyMMdd_HHmmss><ext>：
//
//	ArchivePath("/var/log/app.log", ts) // -> "/var/log/app_20260825_120000.log"
//
// 不检查目标是否已存在；需要唯一性时使用 [UniqueArchivePath]。
func ArchivePath(livePath string, ts time.Time) string {
	dir := filepath.Dir(livePath)
	stem, ext := splitExt(filepath.Base(livePath))
	return filepath.Join(dir, stem+"_"+ts.Format(ArchiveTimeLayout)+ext)
}

// UniqueArchivePath 生成不与现有文件冲突的归档路径。
//
// 同一秒内发生多次轮转时，时间戳会重复；此时在时间戳后追加
// "_<n>" 序号（n 从 1 开始）直至找到空闲名字。
//
// 存在 TOCTOU 窗口：返回的路径在 Stat 与实际 rename 之间可能被
// 其他进程占用。本包只保证进程内调用方（持有文件写锁时）的唯一性。
func UniqueArchivePath(livePath string, ts time.Time) (string, error) {
	base := ArchivePath(livePath, ts)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base, nil
	}

	stem, ext := splitExt(base)
	for n := 1; n < maxUniqueAttempts; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%d candidates for %s all exist: %w", maxUniqueAttempts, base, ErrNoUniqueName)
}

// ListArchives 枚举 livePath 的所有归档文件，按修改时间从新到旧排序。
//
// 匹配规则：与活跃文件同目录、前缀为 "<name>_"、扩展名相同的普通文件。
// 活跃文件本身不包含在结果中。目录不存在时返回空列表而非错误
// （目录可能在首次写入前尚未创建）。
func ListArchives(livePath string) ([]Archive, error) {
	dir := filepath.Dir(livePath)
	liveName := filepath.Base(livePath)
	stem, ext := splitExt(liveName)
	prefix := stem + "_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var archives []Archive
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == liveName {
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// 文件在 ReadDir 与 Info 之间被删除，跳过
			continue
		}
		archives = append(archives, Archive{
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].ModTime.After(archives[j].ModTime)
	})
	return archives, nil
}
