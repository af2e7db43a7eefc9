package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"droidhash/pkg/config"
	"droidhash/pkg/core"
	"droidhash/pkg/digest"
)

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	cmd.SetArgs(expandListFlag(os.Args[1:], "--remote-dir"))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "droidhash 错误: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath     string
		device         string
		port           int
		bridgePath     string
		mirrorRoot     string
		remoteDirs     []string
		targets        []string
		excludes       []string
		skipPull       bool
		noProgress     bool
		logFile        string
		logLevel       string
		logFormat      string
		listAlgorithms bool
	)

	cmd := &cobra.Command{
		Use:   "droidhash [flags] <algorithm> <digest>",
		Short: "从 Android 设备拉取目录并按文件摘要查找可疑文件",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 2 || len(args) == 1 {
				return fmt.Errorf("需要 <algorithm> <digest> 两个参数，实际 %d 个", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAlgorithms {
				printSupported(stdout)
				return nil
			}
			cliTargets, err := parseTargets(args, targets)
			if err != nil {
				if errors.Is(err, digest.ErrUnsupported) {
					fmt.Fprintf(stderr, "[x] %v\n", err)
					fmt.Fprintf(stderr, "[!] Supported types: %s\n", joinAlgorithms())
				}
				return err
			}
			cfg, err := config.LoadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			hunt := &core.HuntConfig{
				Bridge:     pick(cmd, "bridge", bridgePath, cfg.Bridge),
				Port:       cfg.Port,
				Device:     pick(cmd, "ip", device, cfg.Device),
				RemoteDirs: cfg.RemoteDirs,
				MirrorRoot: pick(cmd, "mirror", mirrorRoot, cfg.MirrorRoot),
				Excludes:   append(cfg.Exclude, excludes...),
				SkipPull:   skipPull,
				LogFile:    pick(cmd, "log-file", logFile, cfg.LogFile),
				LogLevel:   pick(cmd, "log-level", logLevel, cfg.LogLevel),
				LogFormat:  pick(cmd, "log-format", logFormat, cfg.LogFormat),
				NoProgress: noProgress,
				Stdout:     stdout,
				Stderr:     stderr,
			}
			if cmd.Flags().Changed("port") {
				hunt.Port = port
			}
			if cmd.Flags().Changed("remote-dir") {
				hunt.RemoteDirs = remoteDirs
			}
			fromFile, err := cfg.DigestTargets()
			if err != nil {
				return fmt.Errorf("配置文件 %s: %w", configPath, err)
			}
			hunt.Targets = append(cliTargets, fromFile...)
			if len(hunt.Targets) == 0 {
				return errors.New("需要 <algorithm> <digest>，或通过 --target / 配置文件提供摘要")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, err = core.Run(ctx, hunt)
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "配置文件 (YAML 或 .toml)")
	cmd.Flags().StringVar(&device, "ip", "", "通过 adb connect 连接的设备地址")
	cmd.Flags().IntVar(&port, "port", 5555, "adb connect 使用的端口")
	cmd.Flags().StringVar(&bridgePath, "bridge", "adb", "adb 可执行文件路径")
	cmd.Flags().StringVarP(&mirrorRoot, "mirror", "m", "./android_dump", "本地镜像目录")
	cmd.Flags().StringSliceVar(&remoteDirs, "remote-dir", nil, "要拉取的远端目录，可跟多个路径")
	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "额外的待查摘要 <algorithm>:<digest>，可多次指定")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "查找时排除的 glob 模式，可多次指定")
	cmd.Flags().BoolVar(&skipPull, "skip-pull", false, "不拉取，直接在已有镜像中查找")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "禁用进度条显示")
	cmd.Flags().StringVar(&logFile, "log-file", "", "指定日志文件，不填则写入镜像目录 .droidhash/logs/")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "日志级别：debug / info / warn / error")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "日志格式：text / json")
	cmd.Flags().BoolVar(&listAlgorithms, "list-algorithms", false, "列出支持的摘要算法")
	return cmd
}

// parseTargets 解析位置参数与 --target，顺序即查找顺序；配置文件中的摘要排在其后
func parseTargets(args, extra []string) ([]digest.Target, error) {
	var targets []digest.Target
	if len(args) == 2 {
		target, err := digest.NewTarget(args[0], args[1])
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	for _, raw := range extra {
		target, err := digest.ParseTarget(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// expandListFlag 允许 `--remote-dir /a /b` 这种以空格分隔的多值写法，
// 直到遇到下一个以 "-" 开头的参数为止
func expandListFlag(args []string, flag string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if arg != flag {
			out = append(out, arg)
			continue
		}
		j := i + 1
		for ; j < len(args) && !strings.HasPrefix(args[j], "-"); j++ {
			out = append(out, flag+"="+args[j])
		}
		if j == i+1 {
			out = append(out, arg)
		}
		i = j - 1
	}
	return out
}

// pick 命令行显式指定的值优先于配置文件
func pick(cmd *cobra.Command, name, flagValue, fileValue string) string {
	if cmd.Flags().Changed(name) || fileValue == "" {
		return flagValue
	}
	return fileValue
}

func joinAlgorithms() string {
	names := make([]string, 0, len(digest.Supported()))
	for _, alg := range digest.Supported() {
		names = append(names, alg.String())
	}
	return strings.Join(names, ", ")
}

func printSupported(w io.Writer) {
	for _, alg := range digest.Supported() {
		fmt.Fprintf(w, "%-12s %d bits\n", alg, alg.Size()*8)
	}
}
