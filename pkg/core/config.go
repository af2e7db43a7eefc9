package core

import (
	"errors"
	"fmt"
	"io"
	"time"

	"droidhash/pkg/bridge"
	"droidhash/pkg/digest"
)

// HuntConfig 表示一次拉取加查找任务的配置
type HuntConfig struct {
	Bridge     string
	Port       int
	Device     string
	RemoteDirs []string
	MirrorRoot string
	Targets    []digest.Target
	Excludes   []string
	SkipPull   bool
	RunName    string
	LogFile    string
	LogLevel   string
	LogFormat  string
	NoProgress bool

	// Stdout 接收每个摘要的结论行，默认 os.Stdout；Stderr 接收日志与进度
	Stdout io.Writer
	Stderr io.Writer
	// Runner 为空时直接执行 Bridge 指向的可执行文件
	Runner bridge.Runner
}

// Validate 在任何文件系统或外部进程操作之前完成校验
func (c *HuntConfig) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("至少需要一个待查摘要")
	}
	for _, target := range c.Targets {
		if !target.Algorithm.Valid() {
			return fmt.Errorf("%w: %s", digest.ErrUnsupported, target.Algorithm)
		}
	}
	if c.MirrorRoot == "" {
		return errors.New("镜像目录不能为空")
	}
	if c.Port == 0 {
		c.Port = 5555
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("端口超出范围: %d", c.Port)
	}
	if c.Bridge == "" {
		c.Bridge = bridge.DefaultPath
	}
	if c.RunName == "" {
		c.RunName = time.Now().UTC().Format("20060102T150405Z")
	}
	return nil
}
