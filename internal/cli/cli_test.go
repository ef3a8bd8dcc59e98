package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/matzehuels/gridwalk/pkg/session"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// testEnv points the CLI at a private board directory and render cache.
type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{dir: dir, configPath: filepath.Join(dir, "config.toml")}
	cfg := fmt.Sprintf("[server]\nboard_dir = %q\n\n[render]\ncache_dir = %q\n",
		filepath.Join(dir, "boards"), filepath.Join(dir, "cache"))
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("gridwalk %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestSolveCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "solve", "--rows", "...,...,...", "--algo", "bfs")
	if !strings.Contains(out, "BFS found a path in 4 moves") {
		t.Errorf("output missing result line:\n%s", out)
	}
	if !strings.Contains(out, "3x3") {
		t.Errorf("output missing stats:\n%s", out)
	}
	if got := strings.Count(out, "*"); got != 5 {
		t.Errorf("path cells = %d, want 5:\n%s", got, out)
	}
}

func TestSolveCommandNoPath(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "solve", "--rows", ".#,#.")
	if !strings.Contains(out, "DFS found no path") {
		t.Errorf("output missing failure line:\n%s", out)
	}
}

func TestSolveCommandTrace(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "solve", "--size", "2", "--trace", "--delay", "1ms")
	for _, want := range []string{"#0 visit (0,0)", "path"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestSolveCommandJSON(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "solve", "--size", "3", "-f", "json")
	if !strings.Contains(out, `"found": true`) || !strings.Contains(out, `"algorithm": "DFS"`) {
		t.Errorf("unexpected JSON:\n%s", out)
	}
}

func TestSolveCommandLayoutFile(t *testing.T) {
	env := newTestEnv(t)
	layout := filepath.Join(env.dir, "maze.toml")
	os.WriteFile(layout, []byte("size = 3\nwalls = [{ row = 1, col = 0 }, { row = 1, col = 1 }]\n"), 0o644)

	out := env.mustRun(t, "solve", layout, "--algo", "BFS")
	if !strings.Contains(out, "found a path in 4 moves") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSolveCommandErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown algorithm", []string{"solve", "--algo", "astar"}},
		{"unknown format", []string{"solve", "-f", "yaml"}},
		{"ragged rows", []string{"solve", "--rows", "..,."}},
		{"too large", []string{"solve", "--rows", strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 26)+",", 26), ",")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSolveCommandStepBudget(t *testing.T) {
	env := newTestEnv(t)
	rows := ".........., .........., .........., .........., .........., .........., .........., .........., .........#, ........#."
	rows = strings.ReplaceAll(rows, " ", "")

	_, err := env.run(t, "solve", "--rows", rows, "--algo", "dfs")
	if !errors.Is(err, solve.ErrStepLimit) {
		t.Fatalf("dfs on a sealed goal: err = %v, want ErrStepLimit", err)
	}
	if !strings.Contains(err.Error(), "try BFS") {
		t.Errorf("error should suggest BFS: %v", err)
	}

	out := env.mustRun(t, "solve", "--rows", rows, "--algo", "bfs")
	if !strings.Contains(out, "BFS found no path") {
		t.Errorf("bfs output:\n%s", out)
	}
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "render", "--size", "2", "-f", "text")
	if strings.TrimSpace(out) != "..\n.." {
		t.Errorf("text render = %q", out)
	}

	out = env.mustRun(t, "render", "--size", "2", "-f", "dot", "--algo", "dfs")
	if !strings.Contains(out, "graph G {") || !strings.Contains(out, " -- ") {
		t.Errorf("dot render missing graph or path edges:\n%s", out)
	}
}

func TestRenderCommandToFile(t *testing.T) {
	env := newTestEnv(t)
	base := filepath.Join(env.dir, "grid")

	out := env.mustRun(t, "render", "--size", "3", "-f", "text,dot", "-o", base)
	for _, ext := range []string{".txt", ".dot"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s: %v", base+ext, err)
		}
	}
	if !strings.Contains(out, "fresh") {
		t.Errorf("first render should be fresh:\n%s", out)
	}

	out = env.mustRun(t, "render", "--size", "3", "-f", "dot", "-o", base+".dot")
	if !strings.Contains(out, "cached") {
		t.Errorf("second render should be cached:\n%s", out)
	}

	if _, err := env.run(t, "render", "--size", "3", "-f", "png"); err == nil {
		t.Error("png to stdout should fail")
	}
}

func TestBoardLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "board", "new", "--size", "3")
	id := uuidPattern.FindString(out)
	if id == "" {
		t.Fatalf("no board ID in output:\n%s", out)
	}

	out = env.mustRun(t, "board", "wall", id[:8], "1,0", "1,1")
	if !strings.Contains(out, "(1,1) is now wall") {
		t.Errorf("wall output:\n%s", out)
	}
	if !strings.Contains(out, "##.") {
		t.Errorf("board not redrawn:\n%s", out)
	}

	out = env.mustRun(t, "board", "set", id, "--algo", "bfs", "--delay", "0s")
	if !strings.Contains(out, "BFS") {
		t.Errorf("set output:\n%s", out)
	}

	out = env.mustRun(t, "board", "show", id, "-f", "toml")
	if !strings.Contains(out, "size = 3") || !strings.Contains(out, "walls") {
		t.Errorf("toml output:\n%s", out)
	}

	out = env.mustRun(t, "board", "solve", id)
	if !strings.Contains(out, "BFS found a path in 4 moves") {
		t.Errorf("solve output:\n%s", out)
	}

	out = env.mustRun(t, "board", "list")
	if !strings.Contains(out, id) {
		t.Errorf("list missing board:\n%s", out)
	}

	env.mustRun(t, "board", "rm", id)
	out = env.mustRun(t, "board", "list")
	if !strings.Contains(out, "No boards") {
		t.Errorf("list after rm:\n%s", out)
	}

	_, err := env.run(t, "board", "show", id)
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("show after rm: err = %v, want ErrNotFound", err)
	}
}

func TestBoardNewFromRows(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "board", "new", "--rows", ".#.,...,.#.")
	if !strings.Contains(out, "2 walls") {
		t.Errorf("new output:\n%s", out)
	}
}

func TestResolveBoardID(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	for _, id := range []string{"aaaa1111", "aaaa2222", "bbbb3333"} {
		store.Put(ctx, &session.Board{ID: id, Size: 2})
	}

	tests := []struct {
		prefix  string
		want    string
		wantErr bool
	}{
		{"bbbb", "bbbb3333", false},
		{"aaaa1111", "aaaa1111", false},
		{"aaaa", "", true},
		{"cccc", "", true},
	}
	for _, tt := range tests {
		got, err := resolveBoardID(ctx, store, tt.prefix)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("resolveBoardID(%q) = %q, %v; want %q, err=%v", tt.prefix, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseCell(t *testing.T) {
	c, err := parseCell(" 2, 3")
	if err != nil || c.Row != 2 || c.Col != 3 {
		t.Errorf("parseCell = %v, %v", c, err)
	}
	for _, bad := range []string{"2", "a,1", "1,b"} {
		if _, err := parseCell(bad); err == nil {
			t.Errorf("parseCell(%q) should fail", bad)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "show")
	if !strings.Contains(out, "board_dir") || !strings.Contains(out, `algorithm = "DFS"`) {
		t.Errorf("config show:\n%s", out)
	}

	out = env.mustRun(t, "config", "path")
	if !strings.Contains(out, env.configPath) {
		t.Errorf("config path:\n%s", out)
	}

	missing := &testEnv{configPath: filepath.Join(env.dir, "nope.toml")}
	if _, err := missing.run(t, "config", "show"); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	cacheDir := filepath.Join(env.dir, "cache")

	out := env.mustRun(t, "cache", "path")
	if strings.TrimSpace(out) != cacheDir {
		t.Errorf("cache path = %q, want %q", out, cacheDir)
	}

	out = env.mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("clear on empty cache:\n%s", out)
	}

	env.mustRun(t, "render", "--size", "2", "-f", "dot")
	out = env.mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cleared 1 cached renders") {
		t.Errorf("clear output:\n%s", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "completion", "bash")
	if !strings.Contains(out, "gridwalk") {
		t.Error("bash completion should mention the command")
	}
	if _, err := env.run(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}
