package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type fakeRunner struct {
	stdout string
	err    error
	calls  [][]string
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return []byte(f.stdout), f.err
}

func (f *fakeRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.Output(ctx, name, args...)
}

func TestConnectSuccess(t *testing.T) {
	runner := &fakeRunner{stdout: "Connected to 10.0.0.5:5555\n"}
	b := &Bridge{Path: "adb", Port: DefaultPort, Runner: runner}
	if _, err := b.Connect(context.Background(), "10.0.0.5"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	want := []string{"adb", "connect", "10.0.0.5:5555"}
	if strings.Join(runner.calls[0], " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected call %v", runner.calls[0])
	}
}

func TestConnectFailureKeepsOutput(t *testing.T) {
	runner := &fakeRunner{stdout: "failed to connect to '10.0.0.5:5555': Connection refused\n"}
	b := &Bridge{Path: "adb", Runner: runner}
	_, err := b.Connect(context.Background(), "10.0.0.5")
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
	if !strings.Contains(connErr.Output, "Connection refused") {
		t.Fatalf("raw output lost: %q", connErr.Output)
	}
}

func TestTarget(t *testing.T) {
	b := New("", "")
	cases := map[string]string{
		"192.168.1.20":      "192.168.1.20:5555",
		"192.168.1.20:5037": "192.168.1.20:5037",
		"fe80::1":           "[fe80::1]:5555",
		" emulator.local ":  "emulator.local:5555",
	}
	for in, want := range cases {
		if got := b.Target(in); got != want {
			t.Fatalf("target %q: got %s want %s", in, got, want)
		}
	}
}

func TestPullPassesArguments(t *testing.T) {
	runner := &fakeRunner{stdout: "/system/: 10 files pulled"}
	b := &Bridge{Path: "/opt/adb", Runner: runner}
	out, err := b.Pull(context.Background(), "/system", "dump/system")
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if !strings.Contains(out, "pulled") {
		t.Fatalf("unexpected output %q", out)
	}
	want := "/opt/adb pull /system dump/system"
	if got := strings.Join(runner.calls[0], " "); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

// fakeADB 写出一个模拟 adb 行为的 shell 脚本
func fakeADB(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script bridge not available on windows")
	}
	script := `#!/bin/sh
case "$1" in
connect)
  case "$2" in
    bad*) echo "failed to connect to $2"; exit 1 ;;
    *) echo "connected to $2" ;;
  esac
  ;;
pull)
  if [ "$2" = "/forbidden" ]; then
    echo "adb: error: failed to stat remote object '$2': Permission denied" >&2
    exit 1
  fi
  mkdir -p "$3" && echo "$2" > "$3/marker.txt" && echo "$2: 1 file pulled"
  ;;
esac
`
	p := filepath.Join(t.TempDir(), "adb")
	if err := os.WriteFile(p, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake adb: %v", err)
	}
	return p
}

func TestExecRunnerWithScript(t *testing.T) {
	b := New(fakeADB(t), "")
	ctx := context.Background()
	if _, err := b.Connect(ctx, "10.1.1.1"); err != nil {
		t.Fatalf("connect via script: %v", err)
	}
	if _, err := b.Connect(ctx, "bad.host"); err == nil {
		t.Fatalf("connect to bad host should fail")
	}
	local := filepath.Join(t.TempDir(), "system")
	if _, err := b.Pull(ctx, "/system", local); err != nil {
		t.Fatalf("pull via script: %v", err)
	}
	if _, err := os.Stat(filepath.Join(local, "marker.txt")); err != nil {
		t.Fatalf("pulled content missing: %v", err)
	}
	out, err := b.Pull(ctx, "/forbidden", filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatalf("forbidden pull should fail")
	}
	if !strings.Contains(out, "Permission denied") {
		t.Fatalf("stderr should be captured, got %q", out)
	}
}
