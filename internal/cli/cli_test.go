package cli

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// execute runs the root command with args, discarding cobra output.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func isolateCache(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	return filepath.Join(dir, appName)
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return n
}

func TestLayoutCommandWritesJSON(t *testing.T) {
	isolateCache(t)
	out := filepath.Join(t.TempDir(), "sol.layout.json")

	if err := execute(t, "layout", "sol", "--no-cache", "-q", "--mode", "profile", "--focus", "earth", "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got layoutFile
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Layout == nil || got.View == nil {
		t.Fatalf("output missing layout or view: %s", data)
	}
	if got.Layout.Metadata.ViewMode != "profile" {
		t.Errorf("view mode = %q, want profile", got.Layout.Metadata.ViewMode)
	}
	for _, id := range []string{"sol", "earth", "luna", "jupiter"} {
		if _, ok := got.Layout.Results[id]; !ok {
			t.Errorf("layout has no result for %s", id)
		}
	}
	if got.View.FocusID != "earth" || got.View.Camera.TargetID != "earth" {
		t.Errorf("view focus = %q camera = %q, want earth", got.View.FocusID, got.View.Camera.TargetID)
	}
}

func TestLayoutCommandTargets(t *testing.T) {
	isolateCache(t)
	out := filepath.Join(t.TempDir(), "mars.json")

	if err := execute(t, "layout", "sol", "--no-cache", "-q", "--targets", "mars", "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got layoutFile
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Layout.Results["jupiter"]; ok {
		t.Error("partial layout of mars contains jupiter")
	}
	if _, ok := got.Layout.Results["phobos"]; !ok {
		t.Error("partial layout of mars is missing phobos")
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	isolateCache(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"layout", "sol", "--no-cache", "--mode", "warp"}},
		{"unknown catalog", []string{"layout", "andromeda", "--no-cache"}},
		{"unknown focus", []string{"layout", "sol", "--no-cache", "-q", "--focus", "vulcan"}},
		{"missing argument", []string{"layout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
		})
	}
}

func TestCacheClear(t *testing.T) {
	dir := isolateCache(t)

	if err := execute(t, "layout", "sol", "-q"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if countEntries(t, dir) == 0 {
		t.Fatal("layout did not populate the file cache")
	}

	if err := execute(t, "cache", "clear", "--mode", "scientific"); err != nil {
		t.Fatalf("cache clear --mode: %v", err)
	}
	if countEntries(t, dir) == 0 {
		t.Fatal("clearing another mode removed the explorational layout")
	}

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("%d entries left after cache clear", n)
	}

	if err := execute(t, "cache", "clear", "--mode", "warp"); err == nil {
		t.Error("cache clear with an unknown mode should fail")
	}
}

func TestTreeCommand(t *testing.T) {
	isolateCache(t)
	out := filepath.Join(t.TempDir(), "sol.dot")

	if err := execute(t, "tree", "sol", "--no-cache", "--mode", "scientific", "-o", out); err != nil {
		t.Fatalf("tree: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.HasPrefix(dot, "digraph orrery") {
		t.Errorf("output is not DOT: %.40q", dot)
	}
	if !strings.Contains(dot, `"earth" -> "luna"`) {
		t.Error("DOT is missing the earth -> luna edge")
	}

	if err := execute(t, "tree", "sol", "--format", "png"); err == nil {
		t.Error("tree --format png should fail")
	}
}

func TestTreeFormat(t *testing.T) {
	tests := map[string]string{
		"":            "dot",
		"sol.dot":     "dot",
		"sol.svg":     "svg",
		"SOL.SVG":     "svg",
		"tree.gv":     "dot",
		"dir/out.svg": "svg",
	}
	for path, want := range tests {
		if got := treeFormat(path); got != want {
			t.Errorf("treeFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestCatalogsCommandWithDir(t *testing.T) {
	isolateCache(t)
	dir := t.TempDir()
	toml := `name = "kepler-16"
[[objects]]
id = "kepler-16a"
classification = "star"
properties = { radius_km = 453000 }
`
	if err := os.WriteFile(filepath.Join(dir, "kepler-16.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "catalogs", "--catalogs", dir); err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	if err := execute(t, "modes"); err != nil {
		t.Fatalf("modes: %v", err)
	}
}

func TestApplyServeEnv(t *testing.T) {
	t.Setenv(envAddr, ":9999")
	t.Setenv(envOrigins, "https://a.example, https://b.example")
	t.Setenv(envMongoURI, "mongodb://db:27017")

	c := New(io.Discard, LogInfo)
	cmd := c.serveCommand()
	if err := cmd.Flags().Set("mongo", "mongodb://flag:27017"); err != nil {
		t.Fatal(err)
	}

	flags := serveFlags{mongo: "mongodb://flag:27017"}
	applyServeEnv(cmd, &flags)

	if flags.addr != ":9999" {
		t.Errorf("addr = %q, want :9999", flags.addr)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(flags.origins, want) {
		t.Errorf("origins = %v, want %v", flags.origins, want)
	}
	if flags.mongo != "mongodb://flag:27017" {
		t.Errorf("mongo = %q, flag should win over environment", flags.mongo)
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		"":               "http://localhost:8080",
		":9000":          "http://localhost:9000",
		"127.0.0.1:8081": "http://127.0.0.1:8081",
	}
	for addr, want := range tests {
		if got := displayAddr(addr); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", addr, got, want)
		}
	}
}
