package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options 控制日志级别与输出格式（text / json）
type Options struct {
	Level  string
	Format string
}

// Logger 包装 slog.Logger，方便统一关闭日志文件
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// New 创建 Logger，同时写入所有给定 writer
func New(opts Options, writers ...io.Writer) (*Logger, error) {
	if len(writers) == 0 {
		return nil, fmt.Errorf("必须提供至少一个日志输出")
	}
	var closerList []io.Closer
	output := writers[0]
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}
	for _, w := range writers {
		if c, ok := w.(io.Closer); ok {
			closerList = append(closerList, c)
		}
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, handlerOpts)
	default:
		handler = slog.NewTextHandler(output, handlerOpts)
	}
	return &Logger{
		Logger:  slog.New(handler),
		closers: closerList,
	}, nil
}

// Discard 返回不输出任何内容的 Logger
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Close 关闭所有可关闭的 writer
func (l *Logger) Close() error {
	var lastErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			lastErr = err
		}
	}
	l.closers = nil
	return lastErr
}

// ParseLevel 未识别的级别按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
