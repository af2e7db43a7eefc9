package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFileKnownVectors(t *testing.T) {
	dir := t.TempDir()
	empty := writeFile(t, dir, "empty", nil)
	abc := writeFile(t, dir, "abc", []byte("abc"))
	hello := writeFile(t, dir, "hello", []byte("hello\n"))

	cases := []struct {
		path string
		alg  Algorithm
		want string
	}{
		{empty, SHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{abc, MD5, "900150983cd24fb0d6963f7d28e17f72"},
		{abc, SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{abc, SHA3256, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
		{abc, BLAKE2s, "508c5e8c327c14e2e1a72ba34eeb452f37458b209ed63a294d999b4c86675982"},
		{abc, BLAKE2b, "ba80a53f981c4d0d6a2797b69f12f6e94c212f14685ac4b74b12bb6fdbffa2d17d87c5392aab792dc252d5de4533cc9518d38aa8dbf1925ab92386edd4009923"},
		{empty, XXH64, "ef46db3751d8e999"},
		{empty, GitSHA, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
		{hello, GitSHA, "ce013625030ba8dba906f756967f9e9ca394464a"},
	}
	for _, c := range cases {
		res := File(c.path, c.alg)
		if res.Skipped() {
			t.Fatalf("%s %s skipped: %v", c.alg, filepath.Base(c.path), res.Err)
		}
		if res.Digest != c.want {
			t.Fatalf("%s %s: got %s want %s", c.alg, filepath.Base(c.path), res.Digest, c.want)
		}
	}
}

func TestFileMatchesReferenceAcrossChunks(t *testing.T) {
	data := make([]byte, 3*bufferSize+17)
	for i := range data {
		data[i] = byte(i * 31)
	}
	p := writeFile(t, t.TempDir(), "large.bin", data)

	md5Sum := md5.Sum(data)
	sha1Sum := sha1.Sum(data)
	sha224Sum := sha256.Sum224(data)
	sha256Sum := sha256.Sum256(data)
	sha384Sum := sha512.Sum384(data)
	sha512Sum := sha512.Sum512(data)
	xh := xxhash.New()
	xh.Write(data)

	oracle := map[Algorithm]string{
		MD5:    hex.EncodeToString(md5Sum[:]),
		SHA1:   hex.EncodeToString(sha1Sum[:]),
		SHA224: hex.EncodeToString(sha224Sum[:]),
		SHA256: hex.EncodeToString(sha256Sum[:]),
		SHA384: hex.EncodeToString(sha384Sum[:]),
		SHA512: hex.EncodeToString(sha512Sum[:]),
		XXH64:  hex.EncodeToString(xh.Sum(nil)),
	}
	for alg, want := range oracle {
		res := File(p, alg)
		if res.Digest != want {
			t.Fatalf("%s mismatch: got %s want %s", alg, res.Digest, want)
		}
		if res.Size != int64(len(data)) {
			t.Fatalf("%s size %d, want %d", alg, res.Size, len(data))
		}
	}
}

func TestFileSkipsUnreadable(t *testing.T) {
	res := File(filepath.Join(t.TempDir(), "missing"), SHA256)
	if !res.Skipped() {
		t.Fatalf("missing file should be skipped")
	}
	if !errors.Is(res.Err, os.ErrNotExist) {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Matches("") {
		t.Fatalf("skipped result must never match")
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Algorithm{
		"sha256":    SHA256,
		"SHA256":    SHA256,
		" sha3-512": SHA3512,
		"Git":       GitSHA,
		"xxhash":    XXH64,
	} {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", in, got, want)
		}
	}
	if _, err := Parse("md7"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("md7 should be unsupported, got %v", err)
	}
}

func TestSupportedSorted(t *testing.T) {
	algs := Supported()
	if len(algs) != len(registry) {
		t.Fatalf("expected %d algorithms, got %d", len(registry), len(algs))
	}
	for i := 1; i < len(algs); i++ {
		if algs[i-1] >= algs[i] {
			t.Fatalf("not sorted at %d: %v", i, algs)
		}
	}
}

func TestResultMatchesIgnoresCase(t *testing.T) {
	res := Result{Digest: "abcdef"}
	if !res.Matches("ABCDEF") {
		t.Fatalf("comparison should ignore case")
	}
	if res.Matches("abcdee") {
		t.Fatalf("different digest should not match")
	}
}

func TestTargetProblem(t *testing.T) {
	target, err := ParseTarget("sha256:" + strings.Repeat("a", 64))
	if err != nil {
		t.Fatalf("parse target: %v", err)
	}
	if p := target.Problem(); p != "" {
		t.Fatalf("unexpected problem: %s", p)
	}
	short := Target{Algorithm: SHA256, Digest: "abcd"}
	if short.Problem() == "" {
		t.Fatalf("short digest should be reported")
	}
	notHex := Target{Algorithm: MD5, Digest: strings.Repeat("z", 32)}
	if notHex.Problem() == "" {
		t.Fatalf("non-hex digest should be reported")
	}
	if _, err := ParseTarget("sha256"); err == nil {
		t.Fatalf("target without digest should fail")
	}
	if _, err := ParseTarget("md7:00"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("unsupported algorithm should surface ErrUnsupported, got %v", err)
	}
}
