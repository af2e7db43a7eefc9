package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"droidhash/pkg/locate"
)

const (
	// Dir 是镜像目录下保存运行记录与日志的目录名
	Dir           = ".droidhash"
	runsDir       = "runs"
	latestPointer = "latest"
)

// PullRecord 记录一个远端目录的拉取结果
type PullRecord struct {
	Remote string `json:"remote"`
	Local  string `json:"local"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Report 描述一次运行
type Report struct {
	Name       string         `json:"name"`
	CreatedAt  time.Time      `json:"created_at"`
	Device     string         `json:"device,omitempty"`
	MirrorRoot string         `json:"mirror_root"`
	Pulls      []PullRecord   `json:"pulls,omitempty"`
	Searches   []locate.Match `json:"searches"`
}

// Store 负责在镜像目录中存取运行记录
type Store struct {
	root string
}

// NewStore 创建 Store，root 为镜像目录
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path 返回元数据目录下的完整路径
func (s *Store) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root, Dir}, elem...)...)
}

// LoadLatest 读取 latest 指向的记录，不存在时返回 nil
func (s *Store) LoadLatest() (*Report, error) {
	data, err := os.ReadFile(s.Path(latestPointer))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return nil, fmt.Errorf("latest 为空")
	}
	return s.Load(name)
}

// Load 按名称读取记录
func (s *Store) Load(name string) (*Report, error) {
	data, err := os.ReadFile(s.Path(runsDir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("解析运行记录 %s 失败: %w", name, err)
	}
	return &report, nil
}

// Save 写入记录并更新 latest
func (s *Store) Save(report Report) error {
	if report.Name == "" {
		return fmt.Errorf("运行记录缺少名称")
	}
	report.CreatedAt = report.CreatedAt.UTC()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(s.Path(runsDir, report.Name+".json"), data); err != nil {
		return err
	}
	return writeFile(s.Path(latestPointer), []byte(report.Name+"\n"))
}

// writeFile 先写临时文件再改名，避免留下半截 JSON
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
