package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"droidhash/pkg/ui"
)

// Puller 对应 adb pull 的能力
type Puller interface {
	Pull(ctx context.Context, remote, local string) (string, error)
}

// Executor 负责顺序执行拉取计划
type Executor struct {
	Bridge   Puller
	Logger   *slog.Logger
	Progress ui.Progress
}

// Outcome 是单个计划条目的执行结果
type Outcome struct {
	Item
	Output string
	Err    error
}

// Result 按计划顺序记录每次拉取
type Result struct {
	Outcomes []Outcome
	Failed   int
}

// Succeeded 返回成功拉取的条目数
func (r Result) Succeeded() int {
	return len(r.Outcomes) - r.Failed
}

// Execute 逐个执行拉取；单个目录失败只记录不终止，也不重试
func (e *Executor) Execute(ctx context.Context, plan Plan) (Result, error) {
	var result Result
	if err := os.MkdirAll(plan.Root, 0o755); err != nil {
		return result, fmt.Errorf("创建镜像目录失败: %w", err)
	}
	progress := e.Progress
	if progress == nil {
		progress = ui.NoopProgress{}
	}
	progress.Start(len(plan.Items), "pull")
	defer progress.Finish()
	for _, item := range plan.Items {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		e.Logger.Info("开始拉取", "remote", item.Remote, "local", item.Local)
		out, err := e.Bridge.Pull(ctx, item.Remote, item.Local)
		progress.Step(item.Remote, 0)
		result.Outcomes = append(result.Outcomes, Outcome{Item: item, Output: out, Err: err})
		if err != nil {
			e.Logger.Warn("拉取失败，跳过", "remote", item.Remote, "err", err, "output", lastLine(out))
			result.Failed++
			continue
		}
		e.Logger.Debug("拉取完成", "remote", item.Remote, "output", lastLine(out))
	}
	return result, nil
}

// adb pull 的进度输出很长，日志只保留最后一行
func lastLine(out string) string {
	out = strings.TrimRight(out, "\r\n")
	if i := strings.LastIndexAny(out, "\r\n"); i >= 0 {
		return out[i+1:]
	}
	return out
}
