package ui

import (
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// Progress 定义统一的进度更新接口；total < 0 表示总量未知
type Progress interface {
	Start(total int, description string)
	Step(name string, bytes int64)
	Finish()
}

const (
	progressWidth = 30
	maxDescLen    = 50
)

// BarProgress 基于 progressbar 实现单行进度，并与日志输出互斥
type BarProgress struct {
	mu     sync.Mutex
	writer io.Writer
	bar    *progressbar.ProgressBar
	label  string
	bytes  int64
}

// NewBarProgress 创建进度条实例
func NewBarProgress(writer io.Writer) *BarProgress {
	return &BarProgress{writer: writer}
}

func (p *BarProgress) Start(total int, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = description
	p.bytes = 0
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetWidth(progressWidth),
		progressbar.OptionSetDescription(description),
		progressbar.OptionThrottle(100 * time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(p.writer, "\n")
		}),
	}
	if total < 0 {
		opts = append(opts, progressbar.OptionSpinnerType(14))
	}
	p.bar = progressbar.NewOptions(total, opts...)
}

func (p *BarProgress) Step(name string, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bytes += bytes
	p.bar.Describe(p.describe(shortenPath(name, maxDescLen)))
	_ = p.bar.Add(1)
}

func (p *BarProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bar.Describe(p.describe(""))
	_ = p.bar.Finish()
	p.bar = nil
}

func (p *BarProgress) describe(current string) string {
	desc := p.label
	if p.bytes > 0 {
		desc += " [" + humanize.Bytes(uint64(p.bytes)) + "]"
	}
	if current != "" {
		desc += " " + current
	}
	return desc
}

// WrapWriter 返回一个 writer，保证日志输出前清除进度条，结束后重新绘制
func (p *BarProgress) WrapWriter(w io.Writer) io.Writer {
	if p == nil {
		return w
	}
	return &progressAwareWriter{
		progress: p,
		writer:   w,
	}
}

// NoopProgress 在 --no-progress 下使用
type NoopProgress struct{}

func (NoopProgress) Start(total int, description string) {}
func (NoopProgress) Step(name string, bytes int64)        {}
func (NoopProgress) Finish()                              {}

type progressAwareWriter struct {
	progress *BarProgress
	writer   io.Writer
}

func (pw *progressAwareWriter) Write(b []byte) (int, error) {
	pw.progress.mu.Lock()
	defer pw.progress.mu.Unlock()
	bar := pw.progress.bar
	if bar != nil {
		_ = bar.Clear()
	}
	n, err := pw.writer.Write(b)
	if bar != nil {
		_ = bar.RenderBlank()
	}
	return n, err
}

func shortenPath(path string, maxLen int) string {
	clean := strings.NewReplacer("\n", " ", "\r", " ").Replace(path)
	if utf8.RuneCountInString(clean) <= maxLen {
		return clean
	}
	runes := []rune(clean)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	keep := maxLen - 3
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
