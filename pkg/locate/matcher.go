package locate

import (
	"path"
	"strings"
)

// shouldExclude 根据 glob 模式决定是否跳过，模式同时匹配相对路径与文件名
func shouldExclude(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if matched, _ := path.Match(p, rel); matched {
			return true
		}
		if matched, _ := path.Match(p, path.Base(rel)); matched {
			return true
		}
	}
	return false
}
