package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/plushie"
	plushieio "github.com/matzehuels/plushie/pkg/io"
)

const ballPattern = "mr(6)\n6*inc\n12*sc\n6*dec\nfo\n"

// run executes the command tree with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writePattern(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ball.pattern")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"cache", "compile", "completion", "params", "relax", "serve"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			found = found || g == name
		}
		if !found {
			t.Errorf("subcommand %q missing, have %v", name, got)
		}
	}
	for _, flag := range []string{"params", "gravity", "centroids", "initializer", "redis-addr", "mongo-uri"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestCompileToStdout(t *testing.T) {
	out, err := run(t, "mr(3) 3*sc", "compile", "-", "-o", "-", "-f", "dot", "--no-cache")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.HasPrefix(out, "graph G {") {
		t.Errorf("output = %q, want DOT", out)
	}
}

func TestCompileWritesGraph(t *testing.T) {
	input := writePattern(t, ballPattern)
	output := filepath.Join(t.TempDir(), "ball.json")

	if _, err := run(t, "", "compile", input, "-o", output, "--no-cache"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	var sg graph.StitchGraph
	if err := json.Unmarshal(data, &sg); err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	if _, err := sg.InitialGraph(); err != nil {
		t.Errorf("written graph is invalid: %v", err)
	}
	if got := sg.NodeCount(); got != 38 {
		t.Errorf("nodes = %d, want 38", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"compile", "-", "-f", "stl"}, "invalid format"},
		{"bad pattern", []string{"compile", "-", "-o", "-", "--no-cache"}, "label was never marked"},
		{"bad leniency", []string{"compile", "-", "--leniency", "lenient"}, "unknown leniency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "mr(3) goto(4)", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRelaxWritesOutputs(t *testing.T) {
	input := writePattern(t, ballPattern)
	dir := t.TempDir()
	result := filepath.Join(dir, "ball.result.json")
	stl := filepath.Join(dir, "ball.stl")
	xyz := filepath.Join(dir, "ball.xyz")

	_, err := run(t, "", "relax", input, "--steps", "5", "--no-cache",
		"-o", result, "--stl", stl, "--points", xyz)
	if err != nil {
		t.Fatalf("relax: %v", err)
	}

	res, err := graph.ReadResultFile(result)
	if err != nil {
		t.Fatalf("ReadResultFile: %v", err)
	}
	if res.Steps != 5 {
		t.Errorf("steps = %d, want 5", res.Steps)
	}
	if len(res.Points) != 38 {
		t.Errorf("points = %d, want 38", len(res.Points))
	}

	f, err := os.Open(stl)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	n, err := plushieio.ReadSTLCount(f)
	if err != nil {
		t.Fatalf("ReadSTLCount: %v", err)
	}
	if n == 0 {
		t.Error("STL has no triangles")
	}

	cloud, err := plushieio.ImportPoints(xyz)
	if err != nil {
		t.Fatalf("ImportPoints: %v", err)
	}
	if len(cloud.Points) != 38 {
		t.Errorf("xyz points = %d, want 38", len(cloud.Points))
	}
}

func TestRelaxSaveNeedsMongo(t *testing.T) {
	input := writePattern(t, ballPattern)
	_, err := run(t, "", "relax", input, "--save", "--mongo-uri", "")
	if err == nil || !strings.Contains(err.Error(), "--mongo-uri") {
		t.Errorf("error = %v, want a hint about --mongo-uri", err)
	}
}

func TestParamsShowAppliesOverrides(t *testing.T) {
	out, err := run(t, "", "params", "show", "-f", "yaml", "--gravity", "0.5", "--centroids", "3", "--initializer", "one-by-one")
	if err != nil {
		t.Fatalf("params show: %v", err)
	}
	for _, want := range []string{"gravity: 0.5", "number: 3", "kind: one-by-one"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "", "params", "show", "--initializer", "sphere"); err == nil {
		t.Error("unknown initializer accepted")
	}
}

func TestParamsInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	if _, err := run(t, "", "params", "init", "-o", path); err != nil {
		t.Fatalf("params init: %v", err)
	}
	got, err := plushie.LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if got.Gravity != plushie.DefaultParams().Gravity {
		t.Errorf("gravity = %v, want %v", got.Gravity, plushie.DefaultParams().Gravity)
	}

	if _, err := run(t, "", "params", "init", "-o", path); err == nil {
		t.Error("params init overwrote an existing file without --force")
	}

	out, err := run(t, "", "params", "show", "--params", path, "-f", "toml")
	if err != nil {
		t.Fatalf("params show: %v", err)
	}
	if !strings.Contains(out, `hook_leniency = "no-mercy"`) {
		t.Errorf("output = %q, want the file's params", out)
	}
}

func TestLoadParamsLeniency(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("leniency", "", "")
	cmd.Flags().Float32Var(&c.gravity, "gravity", 0, "")
	cmd.Flags().IntVar(&c.centroids, "centroids", 0, "")
	cmd.Flags().StringVar(&c.initializer, "initializer", "", "")
	if err := cmd.ParseFlags([]string{"--leniency", "genetic-fixups"}); err != nil {
		t.Fatal(err)
	}

	params, err := c.loadParams(cmd)
	if err != nil {
		t.Fatalf("loadParams: %v", err)
	}
	if params.HookLeniency != hook.GeneticFixups {
		t.Errorf("leniency = %v, want %v", params.HookLeniency, hook.GeneticFixups)
	}
	if params.Gravity != plushie.DefaultParams().Gravity {
		t.Errorf("unset --gravity changed gravity to %v", params.Gravity)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input, output, want string
	}{
		{"patterns/ball.pattern", "", "ball"},
		{"-", "", "plushie"},
		{"ball.pattern", "out/sphere.svg", "out/sphere"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.input, tt.output); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"json"}},
		{"svg", []string{"svg"}},
		{"json,dot,svg", []string{"json", "dot", "svg"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.input, "json")
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{"json": []byte("{}"), "dot": []byte("graph G {}")}

	paths, err := writeArtifacts(filepath.Join(dir, "ball"), "", artifacts)
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
	want := []string{filepath.Join(dir, "ball.dot"), filepath.Join(dir, "ball.json")}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	single := filepath.Join(dir, "exact.gv")
	paths, err = writeArtifacts(filepath.Join(dir, "ignored"), single, map[string][]byte{"dot": []byte("x")})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
	if len(paths) != 1 || paths[0] != single {
		t.Errorf("paths = %v, want [%s]", paths, single)
	}

	if err := writeStdout(io.Discard, artifacts); err == nil {
		t.Error("writeStdout accepted two artifacts")
	}
}

func TestClearCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	n, err := clearCache(dir)
	if err != nil || n != 0 {
		t.Errorf("clearCache(missing) = %d, %v, want 0, nil", n, err)
	}

	shard := filepath.Join(dir, "ab")
	if err := os.MkdirAll(shard, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"one.json", "two.json"} {
		if err := os.WriteFile(filepath.Join(shard, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	n, err = clearCache(dir)
	if err != nil || n != 2 {
		t.Errorf("clearCache() = %d, %v, want 2, nil", n, err)
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("displayAddr(:8080) = %q", got)
	}
	if got := displayAddr("0.0.0.0:9000"); got != "0.0.0.0:9000" {
		t.Errorf("displayAddr(0.0.0.0:9000) = %q", got)
	}
}

func TestFlagValueCompletion(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"relax", "ball.pattern", "--initializer", ""}, []string{"cylinder", "one-by-one"}},
		{[]string{"compile", "ball.pattern", "--leniency", "skip"}, []string{"no-mercy", "skip-incorrect", "genetic-fixups"}},
		{[]string{"compile", "ball.pattern", "--format", "json,"}, []string{"json,dot", "json,svg"}},
	}
	for _, tt := range tests {
		out, err := run(t, "", append([]string{cobra.ShellCompRequestCmd}, tt.args...)...)
		if err != nil {
			t.Fatalf("complete %v: %v", tt.args, err)
		}
		for _, w := range tt.want {
			if !strings.Contains(out, w+"\n") {
				t.Errorf("complete %v = %q, want %q offered", tt.args, out, w)
			}
		}
	}
}

func TestPatternArgumentCompletion(t *testing.T) {
	out, err := run(t, "", cobra.ShellCompRequestCmd, "relax", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "pattern\n") {
		t.Errorf("completion = %q, want pattern extension", out)
	}
	want := fmt.Sprintf(":%d\n", cobra.ShellCompDirectiveFilterFileExt)
	if !strings.Contains(out, want) {
		t.Errorf("completion = %q, want directive %s", out, want)
	}
}
