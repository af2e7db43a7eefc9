package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

const bufferSize = 32 * 1024

// Result 描述单个文件的摘要计算结果；Err 非空表示文件被跳过
type Result struct {
	Path   string
	Digest string
	Size   int64
	Err    error
}

// Skipped 表示文件不可读，未能得到摘要
func (r Result) Skipped() bool {
	return r.Err != nil
}

// Matches 大小写不敏感地比较摘要
func (r Result) Matches(want string) bool {
	if r.Skipped() || r.Digest == "" {
		return false
	}
	return strings.EqualFold(r.Digest, strings.TrimSpace(want))
}

// File 以固定大小分块流式读取文件并计算摘要，任何 I/O 错误都只体现在 Result.Err
func File(path string, alg Algorithm) Result {
	res := Result{Path: path}
	file, err := os.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("open: %w", err)
		return res
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		res.Err = fmt.Errorf("stat: %w", err)
		return res
	}
	h, err := alg.New(info.Size())
	if err != nil {
		res.Err = err
		return res
	}
	buf := make([]byte, bufferSize)
	n, err := io.CopyBuffer(h, onlyReader{file}, buf)
	if err != nil {
		res.Err = fmt.Errorf("read: %w", err)
		return res
	}
	res.Size = n
	res.Digest = hex.EncodeToString(h.Sum(nil))
	return res
}

// onlyReader 屏蔽 *os.File 的 WriterTo，保证按 buf 分块读取
type onlyReader struct {
	io.Reader
}
