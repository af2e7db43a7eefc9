package digest

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Target 表示一次要查找的摘要
type Target struct {
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm" toml:"algorithm"`
	Digest    string    `json:"digest" yaml:"digest" toml:"digest"`
}

// NewTarget 校验算法名并规整摘要字符串
func NewTarget(algorithm, digest string) (Target, error) {
	alg, err := Parse(algorithm)
	if err != nil {
		return Target{}, err
	}
	return Target{Algorithm: alg, Digest: strings.TrimSpace(digest)}, nil
}

// ParseTarget 解析 "alg:digest" 形式的参数
func ParseTarget(raw string) (Target, error) {
	alg, sum, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || alg == "" || sum == "" {
		return Target{}, fmt.Errorf("invalid target %q, want <algorithm>:<digest>", raw)
	}
	return NewTarget(alg, sum)
}

// Problem 检查摘要是否可能被匹配到，返回空字符串表示没有问题
func (t Target) Problem() string {
	if !t.Algorithm.Valid() {
		return fmt.Sprintf("unsupported algorithm %s", t.Algorithm)
	}
	if _, err := hex.DecodeString(t.Digest); err != nil {
		return "digest is not valid hex"
	}
	if want := t.Algorithm.Size() * 2; len(t.Digest) != want {
		return fmt.Sprintf("%s digest should have %d hex chars, got %d", t.Algorithm, want, len(t.Digest))
	}
	return ""
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Algorithm, t.Digest)
}
