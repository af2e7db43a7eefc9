package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"droidhash/pkg/bridge"
	"droidhash/pkg/locate"
	"droidhash/pkg/logging"
	"droidhash/pkg/meta"
	"droidhash/pkg/transfer"
	"droidhash/pkg/ui"
)

// Run 执行一次完整任务：可选 connect、逐个 pull、按顺序查找每个摘要并保存运行记录
func Run(ctx context.Context, cfg *HuntConfig) (*meta.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if err := os.MkdirAll(cfg.MirrorRoot, 0o755); err != nil {
		return nil, fmt.Errorf("创建镜像目录失败: %w", err)
	}
	store := meta.NewStore(cfg.MirrorRoot)

	var progress ui.Progress
	consoleWriter := stderr
	if cfg.NoProgress {
		progress = ui.NoopProgress{}
	} else {
		bar := ui.NewBarProgress(stderr)
		progress = bar
		consoleWriter = bar.WrapWriter(stderr)
	}
	logWriter, logPath, err := prepareLogWriter(cfg, store)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}, consoleWriter, logWriter)
	if err != nil {
		logWriter.Close()
		return nil, err
	}
	defer logger.Close()
	logger.Info("日志写入路径", "path", logPath)

	adb := bridge.New(cfg.Bridge, strconv.Itoa(cfg.Port))
	if cfg.Runner != nil {
		adb.Runner = cfg.Runner
	}
	report := &meta.Report{
		Name:       cfg.RunName,
		CreatedAt:  time.Now().UTC(),
		MirrorRoot: cfg.MirrorRoot,
	}

	if cfg.Device != "" {
		report.Device = adb.Target(cfg.Device)
		logger.Info("通过 adb 连接设备", "target", report.Device)
		out, err := adb.Connect(ctx, cfg.Device)
		if err != nil {
			logger.Error("连接设备失败", "target", report.Device, "err", err)
			fmt.Fprintln(stdout, "[x] Failed to connect to the device.")
			fmt.Fprint(stdout, out)
			return report, err
		}
		logger.Info("连接成功", "target", report.Device)
	}

	if cfg.SkipPull {
		logger.Info("跳过拉取，直接查找已有镜像", "mirror", cfg.MirrorRoot)
	} else {
		executor := transfer.Executor{Bridge: adb, Logger: logger.Logger, Progress: progress}
		result, err := executor.Execute(ctx, transfer.BuildPlan(cfg.RemoteDirs, cfg.MirrorRoot))
		report.Pulls = pullRecords(result)
		if err != nil {
			return report, err
		}
		logger.Info("拉取结束", "ok", result.Succeeded(), "failed", result.Failed)
	}

	locator := locate.Locator{
		Root:     cfg.MirrorRoot,
		Excludes: append([]string{meta.Dir}, cfg.Excludes...),
		Logger:   logger.Logger,
		Progress: progress,
	}
	for _, target := range cfg.Targets {
		if problem := target.Problem(); problem != "" {
			logger.Warn("摘要格式可疑，可能无法命中", "target", target.String(), "problem", problem)
		}
		fmt.Fprintf(stdout, "[+] Searching for hash: %s (%s)\n", target.Digest, target.Algorithm)
		match, err := locator.Find(ctx, target)
		report.Searches = append(report.Searches, match)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			logger.Error("查找失败", "target", target.String(), "err", err)
			fmt.Fprintf(stdout, "[x] Search failed: %v\n", err)
			continue
		}
		logger.Info("查找结束", "algorithm", target.Algorithm, "scanned", match.Scanned,
			"bytes", humanize.Bytes(uint64(match.Bytes)), "skipped", len(match.Skipped), "symlinks", match.Symlinks)
		if match.Found {
			fmt.Fprintf(stdout, "[!] Match found: %s\n", match.Path)
		} else {
			fmt.Fprintln(stdout, "[x] No match found.")
		}
	}

	if err := store.Save(*report); err != nil {
		logger.Warn("保存运行记录失败", "err", err)
	} else {
		logger.Debug("运行记录已保存", "path", store.Path("runs", report.Name+".json"))
	}
	return report, nil
}

func pullRecords(result transfer.Result) []meta.PullRecord {
	records := make([]meta.PullRecord, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		rec := meta.PullRecord{Remote: o.Remote, Local: o.Local, OK: o.Err == nil}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		records = append(records, rec)
	}
	return records
}

func prepareLogWriter(cfg *HuntConfig, store *meta.Store) (io.WriteCloser, string, error) {
	path := cfg.LogFile
	if path == "" {
		path = store.Path("logs", fmt.Sprintf("hunt-%s.log", cfg.RunName))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("打开日志文件失败: %w", err)
	}
	return file, path, nil
}
