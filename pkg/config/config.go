package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"droidhash/pkg/digest"
)

// DefaultPath 是未指定 --config 时尝试读取的文件
const DefaultPath = "droidhash.yaml"

// TargetEntry 是配置文件中的一条待查摘要
type TargetEntry struct {
	Algorithm string `yaml:"algorithm" toml:"algorithm"`
	Digest    string `yaml:"digest" toml:"digest"`
}

type Config struct {
	Bridge     string        `yaml:"bridge" toml:"bridge"`
	Port       int           `yaml:"port" toml:"port"`
	Device     string        `yaml:"device" toml:"device"`
	MirrorRoot string        `yaml:"mirror_root" toml:"mirror_root"`
	RemoteDirs []string      `yaml:"remote_dirs" toml:"remote_dirs"`
	Exclude    []string      `yaml:"exclude" toml:"exclude"`
	Targets    []TargetEntry `yaml:"targets" toml:"targets"`
	LogLevel   string        `yaml:"log_level" toml:"log_level"`
	LogFormat  string        `yaml:"log_format" toml:"log_format"`
	LogFile    string        `yaml:"log_file" toml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Bridge:     "adb",
		Port:       5555,
		MirrorRoot: "./android_dump",
		RemoteDirs: []string{
			"/system",
			"/vendor",
			"/data",
			"/etc",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig 读取 YAML 或 TOML（按扩展名区分）配置，未出现的字段保留默认值。
// required 为 false 时文件不存在返回默认配置。
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if cfg.RemoteDirs == nil {
		cfg.RemoteDirs = []string{}
	}
	return cfg, nil
}

// DigestTargets 校验并转换配置中的 targets
func (c *Config) DigestTargets() ([]digest.Target, error) {
	targets := make([]digest.Target, 0, len(c.Targets))
	for i, entry := range c.Targets {
		target, err := digest.NewTarget(entry.Algorithm, entry.Digest)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}
