package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// Algorithm 表示受支持的摘要算法名
type Algorithm string

const (
	MD5       Algorithm = "md5"
	SHA1      Algorithm = "sha1"
	SHA224    Algorithm = "sha224"
	SHA256    Algorithm = "sha256"
	SHA384    Algorithm = "sha384"
	SHA512    Algorithm = "sha512"
	SHA512224 Algorithm = "sha512_224"
	SHA512256 Algorithm = "sha512_256"
	SHA3224   Algorithm = "sha3_224"
	SHA3256   Algorithm = "sha3_256"
	SHA3384   Algorithm = "sha3_384"
	SHA3512   Algorithm = "sha3_512"
	BLAKE2b   Algorithm = "blake2b"
	BLAKE2s   Algorithm = "blake2s"
	XXH64     Algorithm = "xxh64"
	GitSHA    Algorithm = "gitsha"
)

// ErrUnsupported 表示算法不在支持列表中
var ErrUnsupported = errors.New("unsupported hash algorithm")

// factory 根据文件大小构造流式 hash；只有 gitsha 需要预先知道大小
type factory func(size int64) hash.Hash

var registry = map[Algorithm]factory{
	MD5:       func(int64) hash.Hash { return md5.New() },
	SHA1:      func(int64) hash.Hash { return sha1.New() },
	SHA224:    func(int64) hash.Hash { return sha256.New224() },
	SHA256:    func(int64) hash.Hash { return sha256.New() },
	SHA384:    func(int64) hash.Hash { return sha512.New384() },
	SHA512:    func(int64) hash.Hash { return sha512.New() },
	SHA512224: func(int64) hash.Hash { return sha512.New512_224() },
	SHA512256: func(int64) hash.Hash { return sha512.New512_256() },
	SHA3224:   func(int64) hash.Hash { return sha3.New224() },
	SHA3256:   func(int64) hash.Hash { return sha3.New256() },
	SHA3384:   func(int64) hash.Hash { return sha3.New384() },
	SHA3512:   func(int64) hash.Hash { return sha3.New512() },
	BLAKE2b:   newBLAKE2b,
	BLAKE2s:   newBLAKE2s,
	XXH64:     func(int64) hash.Hash { return xxhash.New() },
	GitSHA:    newGitBlobHash,
}

var aliases = map[string]Algorithm{
	"git":         GitSHA,
	"xxhash":      XXH64,
	"xxhash64":    XXH64,
	"blake2b_512": BLAKE2b,
	"blake2s_256": BLAKE2s,
}

// Parse 将用户输入的算法名解析为 Algorithm，大小写不敏感，"-" 与 "_" 等价
func Parse(name string) (Algorithm, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if _, ok := registry[Algorithm(norm)]; ok {
		return Algorithm(norm), nil
	}
	if alg, ok := aliases[norm]; ok {
		return alg, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// Supported 返回按名称排序的支持算法列表
func Supported() []Algorithm {
	algs := make([]Algorithm, 0, len(registry))
	for alg := range registry {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// Valid 判断算法是否在支持列表中
func (a Algorithm) Valid() bool {
	_, ok := registry[a]
	return ok
}

// Size 返回摘要的字节长度，未知算法返回 0
func (a Algorithm) Size() int {
	f, ok := registry[a]
	if !ok {
		return 0
	}
	return f(0).Size()
}

// New 为长度为 size 的输入创建流式 hash
func (a Algorithm) New(size int64) (hash.Hash, error) {
	f, ok := registry[a]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, string(a))
	}
	return f(size), nil
}

func (a Algorithm) String() string {
	return string(a)
}

// 无 key 时 blake2 构造不会失败
func newBLAKE2b(int64) hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

func newBLAKE2s(int64) hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

// newGitBlobHash 与 git hash-object 的结果一致：sha1("blob <size>\x00" + content)
func newGitBlobHash(size int64) hash.Hash {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", size)
	return &gitBlobHash{Hash: h, size: size}
}

type gitBlobHash struct {
	hash.Hash
	size int64
}

func (g *gitBlobHash) Reset() {
	g.Hash.Reset()
	fmt.Fprintf(g.Hash, "blob %d\x00", g.size)
}
