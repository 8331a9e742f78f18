package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/matzehuels/plushie/pkg/cache"
	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/hook"
	plushieio "github.com/matzehuels/plushie/pkg/io"
	"github.com/matzehuels/plushie/pkg/plushie"
)

const ball = "mr(6) 6*inc 12*sc 6*dec fo"

func quietParams() *plushie.Params {
	p := plushie.DefaultParams()
	p.AutoStop.MaxRelaxingIterations = 20
	return &p
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"result", false},
		{"stl", false},
		{"points", false},
		{"xyz", false},
		{"png", true},
		{"STL", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want %v", tt.format, errors.GetCode(err), errors.ErrCodeInvalidFormat)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "stl"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Source: ball}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Params == nil || opts.Params.Gravity != plushie.DefaultGravity {
		t.Errorf("Params = %+v, want defaults", opts.Params)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatResult {
		t.Errorf("Formats = %v, want %v", opts.Formats, DefaultFormats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidate(t *testing.T) {
	badParams := plushie.DefaultParams()
	badParams.Timestep = 0

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"EmptySource", Options{Source: "  \n"}, errors.ErrCodeInvalidPattern},
		{"ControlCharacters", Options{Source: "mr(6)\x00"}, errors.ErrCodeInvalidPattern},
		{"BadParams", Options{Source: ball, Params: &badParams}, errors.ErrCodeInvalidParams},
		{"NegativeSteps", Options{Source: ball, Steps: -1}, errors.ErrCodeInvalidParams},
		{"BadFormat", Options{Source: ball, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestOptionsNeedsRelax(t *testing.T) {
	tests := []struct {
		formats []string
		want    bool
	}{
		{[]string{"json"}, false},
		{[]string{"json", "dot", "svg"}, false},
		{[]string{"json", "stl"}, true},
		{[]string{"points"}, true},
	}
	for _, tt := range tests {
		opts := Options{Formats: tt.formats}
		if got := opts.NeedsRelax(); got != tt.want {
			t.Errorf("NeedsRelax(%v) = %v, want %v", tt.formats, got, tt.want)
		}
	}
}

func TestCompile(t *testing.T) {
	sg, err := Compile(Options{Source: ball})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if got := sg.NodeCount(); got != 38 {
		t.Errorf("NodeCount() = %d, want 38", got)
	}
}

func TestGraphHash(t *testing.T) {
	a, err := Compile(Options{Source: ball})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(Options{Source: "mr(6) 6*sc fo"})
	if err != nil {
		t.Fatal(err)
	}

	first, err := GraphHash(a)
	if err != nil {
		t.Fatalf("GraphHash() error: %v", err)
	}
	again, _ := GraphHash(a)
	if first != again {
		t.Errorf("GraphHash() = %q then %q, want stable", first, again)
	}
	other, _ := GraphHash(b)
	if first == other {
		t.Errorf("GraphHash() = %q for different graphs", first)
	}
	if len(first) != 64 {
		t.Errorf("len(GraphHash()) = %d, want 64", len(first))
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"Syntax", "mr(6", "cannot parse pattern"},
		{"NoStarter", "sc sc", "cannot build pattern"},
		{"UnknownLabel", "mr(6) goto(3)", "cannot build pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(Options{Source: tt.source})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidPattern) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPattern)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}

	_, err := Compile(Options{Source: "mr(6) goto(3)"})
	if !stderrors.Is(err, hook.ErrUnknownLabel) {
		t.Errorf("hook error lost in wrapping: %v", err)
	}
}

func TestCompileLeniency(t *testing.T) {
	params := plushie.DefaultParams()
	params.HookLeniency = hook.SkipIncorrect

	sg, err := Compile(Options{Source: "mr(3) reverse 3*sc", Params: &params})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if got := sg.NodeCount(); got != 7 {
		t.Errorf("NodeCount() = %d, want 7", got)
	}
}

func TestRelaxFixedSteps(t *testing.T) {
	sg, err := Compile(Options{Source: ball})
	if err != nil {
		t.Fatal(err)
	}
	res, err := Relax(context.Background(), sg, Options{Source: ball, Steps: 3})
	if err != nil {
		t.Fatalf("Relax() error: %v", err)
	}
	if res.Steps != 3 {
		t.Errorf("Steps = %d, want 3", res.Steps)
	}
	if len(res.Points) != 38 {
		t.Errorf("len(Points) = %d, want 38", len(res.Points))
	}
	want, err := GraphHash(sg)
	if err != nil {
		t.Fatalf("GraphHash() error: %v", err)
	}
	if res.GraphHash != want {
		t.Errorf("GraphHash = %q, want %q", res.GraphHash, want)
	}
	if res.Source != ball {
		t.Errorf("Source = %q, want %q", res.Source, ball)
	}
}

func TestRelaxCancelled(t *testing.T) {
	sg, err := Compile(Options{Source: ball})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Relax(ctx, sg, Options{Steps: 10}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Relax() error = %v, want context.Canceled", err)
	}
}

func TestRender(t *testing.T) {
	sg, err := Compile(Options{Source: ball})
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := Render(sg, nil, Options{Formats: []string{FormatJSON, FormatDOT}})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !bytes.Contains(artifacts[FormatJSON], []byte(`"round_spans"`)) {
		t.Error("json artifact is not a stitch graph")
	}
	if !bytes.HasPrefix(artifacts[FormatDOT], []byte("graph G {")) {
		t.Error("dot artifact is not DOT")
	}

	if _, err := Render(sg, nil, Options{Formats: []string{FormatSTL}}); err == nil {
		t.Error("Render(stl) without a result should fail")
	}

	res, err := Relax(context.Background(), sg, Options{Steps: 2})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err = Render(sg, res, Options{Formats: []string{FormatSTL, FormatPoints, FormatXYZ}})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	n, err := plushieio.ReadSTLCount(bytes.NewReader(artifacts[FormatSTL]))
	if err != nil || n == 0 {
		t.Errorf("stl artifact has %d triangles (err %v)", n, err)
	}
	pc, err := plushieio.ReadPoints(bytes.NewReader(artifacts[FormatPoints]))
	if err != nil || len(pc.Points) != 38 {
		t.Errorf("points artifact has %d points (err %v)", len(pc.Points), err)
	}
	if got := bytes.Count(artifacts[FormatXYZ], []byte("\n")); got != 38 {
		t.Errorf("xyz artifact has %d lines, want 38", got)
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{Source: ball, Params: quietParams(), Formats: []string{FormatResult, FormatSVG}}
	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.CacheInfo.CompileHit || first.CacheInfo.RelaxHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}
	if first.Relaxed == nil || first.Stats.Steps == 0 {
		t.Fatalf("first run did not relax: %+v", first.Stats)
	}
	if len(first.Artifacts[FormatSVG]) == 0 || len(first.Artifacts[FormatResult]) == 0 {
		t.Errorf("missing artifacts: %v", len(first.Artifacts))
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !second.CacheInfo.CompileHit || !second.CacheInfo.RelaxHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if second.Relaxed.Points[5] != first.Relaxed.Points[5] {
		t.Error("cached result differs from computed one")
	}
	if second.GraphHash != first.GraphHash {
		t.Errorf("GraphHash = %q, want %q", second.GraphHash, first.GraphHash)
	}

	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.CompileHit || third.CacheInfo.RelaxHit {
		t.Errorf("refresh CacheInfo = %+v, want misses", third.CacheInfo)
	}
}

func TestRunnerParamsChangeMissesResultCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)

	opts := Options{Source: ball, Params: quietParams(), Steps: 2}
	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	changed := quietParams()
	changed.Gravity = 0.01
	opts.Params = changed
	res, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.CompileHit {
		t.Error("graph should still be cached")
	}
	if res.CacheInfo.RelaxHit {
		t.Error("result should miss after a params change")
	}
}

func TestRunnerGraphFormatsSkipRelax(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), Options{Source: ball, Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Relaxed != nil {
		t.Error("Relaxed should be nil for graph-only formats")
	}
	if res.Stats.NodeCount != 38 {
		t.Errorf("NodeCount = %d, want 38", res.Stats.NodeCount)
	}
}
