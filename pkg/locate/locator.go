package locate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"droidhash/pkg/digest"
	"droidhash/pkg/ui"
)

// Skip 记录一个没有参与比较的条目及原因
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Match 是一次查找的结果；Found 为 false 表示遍历完毕仍未命中
type Match struct {
	Target   digest.Target `json:"target"`
	Found    bool          `json:"found"`
	Path     string        `json:"path,omitempty"`
	Scanned  int           `json:"scanned"`
	Bytes    int64         `json:"bytes"`
	Symlinks int           `json:"symlinks"`
	Skipped  []Skip        `json:"skipped,omitempty"`
}

// Locator 在镜像目录中按摘要查找文件
type Locator struct {
	Root     string
	Excludes []string
	Logger   *slog.Logger
	Progress ui.Progress
}

// Find 深度优先遍历 Root，同一目录内按文件名字典序访问，命中第一个即停止。
// 符号链接一律视为叶子并跳过，不会跟随，因此指向祖先目录的链接不会造成死循环。
func (l *Locator) Find(ctx context.Context, target digest.Target) (Match, error) {
	match := Match{Target: target}
	if !target.Algorithm.Valid() {
		return match, fmt.Errorf("%w: %s", digest.ErrUnsupported, target.Algorithm)
	}
	info, err := os.Stat(l.Root)
	if err != nil {
		return match, fmt.Errorf("镜像目录不可用: %w", err)
	}
	if !info.IsDir() {
		return match, fmt.Errorf("镜像路径不是目录: %s", l.Root)
	}
	root := l.Root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	logger := l.logger()
	progress := l.Progress
	if progress == nil {
		progress = ui.NoopProgress{}
	}
	progress.Start(-1, string(target.Algorithm))
	defer progress.Finish()

	err = filepath.WalkDir(root, func(fullPath string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, fullPath)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if err != nil {
			if rel == "." {
				return err
			}
			logger.Debug("无法读取，跳过", "path", rel, "err", err)
			match.Skipped = append(match.Skipped, Skip{Path: rel, Reason: err.Error()})
			return nil
		}
		if rel == "." {
			return nil
		}
		if shouldExclude(rel, l.Excludes) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			match.Symlinks++
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		res := digest.File(fullPath, target.Algorithm)
		match.Scanned++
		progress.Step(rel, res.Size)
		if res.Skipped() {
			logger.Debug("无法计算摘要，跳过", "path", rel, "err", res.Err)
			match.Skipped = append(match.Skipped, Skip{Path: rel, Reason: res.Err.Error()})
			return nil
		}
		match.Bytes += res.Size
		if res.Matches(target.Digest) {
			match.Found = true
			match.Path = rel
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return match, err
		}
		return match, fmt.Errorf("遍历镜像目录失败: %w", err)
	}
	return match, nil
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Logger
}
