package bridge

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

const (
	// DefaultPath 默认使用 PATH 中的 adb
	DefaultPath = "adb"
	// DefaultPort adb over TCP 的默认端口
	DefaultPort = "5555"
)

// ConnectError 表示 adb connect 的输出中没有出现 "connected"
type ConnectError struct {
	Address string
	Output  string
	Err     error
}

func (e *ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connect %s: %v: %s", e.Address, e.Err, strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("connect %s failed: %s", e.Address, strings.TrimSpace(e.Output))
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Runner 执行外部命令，stdout 与 combined 两种捕获方式分别服务 connect 与 pull
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner 基于 os/exec 的 Runner
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	return stdout.Bytes(), err
}

func (ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Bridge 封装对 adb 可执行文件的调用
type Bridge struct {
	Path   string
	Port   string
	Runner Runner
}

// New 创建 Bridge，空参数回落到默认值
func New(path, port string) *Bridge {
	if path == "" {
		path = DefaultPath
	}
	if port == "" {
		port = DefaultPort
	}
	return &Bridge{Path: path, Port: port, Runner: ExecRunner{}}
}

// Connect 执行 `adb connect <address>:<port>`，只有 stdout 含 "connected"（忽略大小写）才视为成功
func (b *Bridge) Connect(ctx context.Context, address string) (string, error) {
	target := b.Target(address)
	out, err := b.runner().Output(ctx, b.Path, "connect", target)
	output := string(out)
	if err != nil {
		return output, &ConnectError{Address: target, Output: output, Err: err}
	}
	if !strings.Contains(strings.ToLower(output), "connected") {
		return output, &ConnectError{Address: target, Output: output}
	}
	return output, nil
}

// Pull 执行 `adb pull <remote> <local>`，返回合并后的输出
func (b *Bridge) Pull(ctx context.Context, remote, local string) (string, error) {
	out, err := b.runner().CombinedOutput(ctx, b.Path, "pull", remote, local)
	if err != nil {
		return string(out), fmt.Errorf("pull %s: %w", remote, err)
	}
	return string(out), nil
}

// Target 返回 connect 使用的 host:port；地址自带端口时原样使用
func (b *Bridge) Target(address string) string {
	address = strings.TrimSpace(address)
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	port := b.Port
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(strings.Trim(address, "[]"), port)
}

func (b *Bridge) runner() Runner {
	if b.Runner == nil {
		return ExecRunner{}
	}
	return b.Runner
}
