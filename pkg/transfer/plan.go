package transfer

import (
	"path/filepath"
	"strings"
)

// Item 表示一次远端目录到本地镜像目录的拉取
type Item struct {
	Remote string
	Local  string
}

// Plan 按配置顺序排列的拉取计划，不去重
type Plan struct {
	Root  string
	Items []Item
}

// AddItem 加入计划
func (p *Plan) AddItem(item Item) {
	p.Items = append(p.Items, item)
}

// BuildPlan 为每个远端目录生成镜像下的本地目标路径
func BuildPlan(remoteDirs []string, mirrorRoot string) Plan {
	plan := Plan{Root: mirrorRoot}
	for _, remote := range remoteDirs {
		remote = strings.TrimSpace(remote)
		if remote == "" {
			continue
		}
		plan.AddItem(Item{
			Remote: remote,
			Local:  filepath.Join(mirrorRoot, LocalName(remote)),
		})
	}
	return plan
}

// LocalName 去掉首尾的 "/"，其余 "/" 替换为 "_"；根目录映射为 "root"
func LocalName(remote string) string {
	name := strings.Trim(remote, "/")
	if name == "" {
		return "root"
	}
	return strings.ReplaceAll(name, "/", "_")
}
