package pipeline

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/common"
	"github.com/gstvribs/ng-packagr/css"
)

func chainNames(chain []Plugin) []string {
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	return names
}

func TestPipeline_Assemble(t *testing.T) {
	p := New(zap.NewNop())

	tests := []struct {
		name string
		mode common.CSSURLMode
		want []string
	}{
		{"no url handling", common.CSSURLModeNone, []string{"preset", "minify"}},
		{"inline", common.CSSURLModeInline, []string{"url-rewrite", "preset", "minify"}},
		{"rebase", common.CSSURLModeRebase, []string{"url-rewrite", "preset", "minify"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := p.Assemble("/work/app.scss", nil, tt.mode)
			if got := chainNames(chain); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Assemble() chain = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPipeline_MinifierProfile(t *testing.T) {
	p := New(zap.NewNop())

	for _, mode := range []common.CSSURLMode{common.CSSURLModeNone, common.CSSURLModeInline, common.CSSURLModeRebase} {
		chain := p.Assemble("/work/app.scss", nil, mode)
		m, ok := chain[len(chain)-1].(*minifier)
		if !ok {
			t.Fatalf("last plugin = %T, want *minifier", chain[len(chain)-1])
		}
		if m.Options.OptimizeSVG {
			t.Errorf("mode %v: OptimizeSVG enabled, must stay off", mode)
		}
		if m.Options.FoldCalc {
			t.Errorf("mode %v: FoldCalc enabled, must stay off", mode)
		}
	}
}

func TestPipeline_Optimize(t *testing.T) {
	p := New(zap.NewNop())

	res, err := p.Optimize(context.Background(), "/work/app.css", "a { color: red; }", nil, common.CSSURLModeNone)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if res.CSS != "a{color:red}" {
		t.Errorf("Optimize() = %q, want %q", res.CSS, "a{color:red}")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Optimize() warnings = %v, want none", res.Warnings)
	}
}

func TestPipeline_OptimizeDeterministic(t *testing.T) {
	p := New(zap.NewNop())
	const source = "a { user-select: none; color: red }\np { position: sticky }\n"
	targets := []string{"chrome 120", "firefox 115", "ie 11", "netscape 4"}

	first, err := p.Optimize(context.Background(), "/work/app.css", source, targets, common.CSSURLModeNone)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := p.Optimize(context.Background(), "/work/app.css", source, targets, common.CSSURLModeNone)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		if next.CSS != first.CSS {
			t.Fatalf("run %d produced %q, first run produced %q", i, next.CSS, first.CSS)
		}
		if !reflect.DeepEqual(next.Warnings, first.Warnings) {
			t.Fatalf("run %d warnings = %v, first run = %v", i, next.Warnings, first.Warnings)
		}
	}
}

func TestPipeline_OptimizeCancelled(t *testing.T) {
	p := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Optimize(ctx, "/work/app.css", "a{}", nil, common.CSSURLModeNone); err == nil {
		t.Error("Optimize() error = nil with cancelled context")
	}
}

func TestPreset_Prefixing(t *testing.T) {
	rw := css.NewRewriter(zap.NewNop())

	tests := []struct {
		name    string
		targets []string
		input   string
		want    string
	}{
		{
			"full vendor set",
			nil,
			`a{user-select:none}`,
			`a{-webkit-user-select:none;-moz-user-select:none;-ms-user-select:none;user-select:none;}`,
		},
		{
			"webkit only",
			[]string{"chrome 120"},
			`a{user-select:none}`,
			`a{-webkit-user-select:none;user-select:none;}`,
		},
		{
			"value keyword",
			[]string{"safari 17"},
			`a{position:sticky}`,
			`a{position:-webkit-sticky;position:sticky;}`,
		},
		{
			"already prefixed left alone",
			nil,
			`a{-webkit-user-select:none}`,
			`a{-webkit-user-select:none;}`,
		},
		{
			"no prefix demanded",
			[]string{"firefox 115"},
			`a{backdrop-filter:blur(2px)}`,
			`a{backdrop-filter:blur(2px);}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &TransformJob{From: "/w/a.css", To: "/w/a.css", CSS: []byte(tt.input)}
			if err := newPreset(rw, tt.targets, zap.NewNop()).Transform(context.Background(), job); err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if string(job.CSS) != tt.want {
				t.Errorf("Transform() = %q, want %q", job.CSS, tt.want)
			}
		})
	}
}

func TestPreset_UnknownTargetWarning(t *testing.T) {
	rw := css.NewRewriter(zap.NewNop())
	job := &TransformJob{From: "/w/a.css", To: "/w/a.css", CSS: []byte(`a{color:red}`)}

	err := newPreset(rw, []string{"chrome 120", "netscape 4"}, zap.NewNop()).Transform(context.Background(), job)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	want := []string{"unknown browser target: netscape 4"}
	if !reflect.DeepEqual(job.warnings, want) {
		t.Errorf("warnings = %v, want %v", job.warnings, want)
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		active  []string
		unknown int
	}{
		{"empty list covers everything", nil, []string{prefixWebkit, prefixMoz, prefixMS}, 0},
		{"defaults", []string{"defaults"}, []string{prefixWebkit, prefixMoz, prefixMS}, 0},
		{"coverage query", []string{"> 0.5%"}, []string{prefixWebkit, prefixMoz, prefixMS}, 0},
		{"last n versions", []string{"last 2 versions"}, []string{prefixWebkit, prefixMoz, prefixMS}, 0},
		{"last n browser versions", []string{"last 2 firefox versions"}, []string{prefixMoz}, 0},
		{"resolved entries", []string{"chrome 120", "ie 11"}, []string{prefixWebkit, prefixMS}, 0},
		{"unknown browser", []string{"chrome 120", "netscape 4"}, []string{prefixWebkit}, 1},
		{"garbage", []string{"certainly-not-a-browser"}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets, unknown := ParseTargets(tt.entries)
			if len(unknown) != tt.unknown {
				t.Errorf("ParseTargets() unknown = %v, want %d entries", unknown, tt.unknown)
			}
			for _, prefix := range []string{prefixWebkit, prefixMoz, prefixMS} {
				want := false
				for _, a := range tt.active {
					if a == prefix {
						want = true
					}
				}
				if got := targets.Active(prefix); got != want {
					t.Errorf("Active(%s) = %v, want %v", prefix, got, want)
				}
			}
		})
	}
}

func TestURLRewriter_Inline(t *testing.T) {
	dir := t.TempDir()
	// minimal PNG signature so sniffing resolves the MIME type
	payload := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("xxxx")...)
	if err := os.WriteFile(filepath.Join(dir, "img.png"), payload, 0644); err != nil {
		t.Fatal(err)
	}

	rw := css.NewRewriter(zap.NewNop())
	job := &TransformJob{
		From: filepath.Join(dir, "app.scss"),
		To:   filepath.Join(dir, "app.css"),
		CSS:  []byte(`a{background:url(img.png)}`),
	}
	if err := newURLRewriter(rw, common.CSSURLModeInline, zap.NewNop()).Transform(context.Background(), job); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	want := `a{background:url("data:image/png;base64,` + base64.StdEncoding.EncodeToString(payload) + `");}`
	if string(job.CSS) != want {
		t.Errorf("Transform() = %q, want %q", job.CSS, want)
	}
	if len(job.warnings) != 0 {
		t.Errorf("warnings = %v, want none", job.warnings)
	}
}

func TestURLRewriter_InlineExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "icon.svg"), []byte("<svg/>"), 0644); err != nil {
		t.Fatal(err)
	}

	rw := css.NewRewriter(zap.NewNop())
	job := &TransformJob{
		From: filepath.Join(dir, "app.scss"),
		To:   filepath.Join(dir, "app.css"),
		CSS:  []byte(`a{background:url(icon.svg)}`),
	}
	if err := newURLRewriter(rw, common.CSSURLModeInline, zap.NewNop()).Transform(context.Background(), job); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if !strings.Contains(string(job.CSS), "data:image/svg+xml;base64,") {
		t.Errorf("Transform() = %q, want svg data URI", job.CSS)
	}
}

func TestURLRewriter_InlineMissingAsset(t *testing.T) {
	dir := t.TempDir()
	rw := css.NewRewriter(zap.NewNop())
	job := &TransformJob{
		From: filepath.Join(dir, "app.scss"),
		To:   filepath.Join(dir, "app.css"),
		CSS:  []byte(`a{background:url(gone.png)}`),
	}
	if err := newURLRewriter(rw, common.CSSURLModeInline, zap.NewNop()).Transform(context.Background(), job); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if string(job.CSS) != `a{background:url(gone.png);}` {
		t.Errorf("Transform() = %q, want reference untouched", job.CSS)
	}
	if len(job.warnings) != 1 || !strings.Contains(job.warnings[0], "gone.png") {
		t.Errorf("warnings = %v, want one mentioning the missing asset", job.warnings)
	}
}

func TestURLRewriter_Rebase(t *testing.T) {
	rw := css.NewRewriter(zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"normalized", `a{background:url(./a/../b.png)}`, `a{background:url("b.png");}`},
		{"suffix kept", `a{background:url(font.woff2?v=1#iefix)}`, `a{background:url("font.woff2?v=1#iefix");}`},
		{"absolute untouched", `a{background:url(/assets/b.png)}`, `a{background:url(/assets/b.png);}`},
		{"protocol untouched", `a{background:url(https://cdn/x.png)}`, `a{background:url(https://cdn/x.png);}`},
		{"data untouched", `a{background:url("data:image/png;base64,AA==")}`, `a{background:url("data:image/png;base64,AA==");}`},
		{"fragment untouched", `a{background:url(#mask)}`, `a{background:url(#mask);}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &TransformJob{From: "/work/src/app.scss", To: "/work/src/app.css", CSS: []byte(tt.input)}
			if err := newURLRewriter(rw, common.CSSURLModeRebase, zap.NewNop()).Transform(context.Background(), job); err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if string(job.CSS) != tt.want {
				t.Errorf("Transform() = %q, want %q", job.CSS, tt.want)
			}
		})
	}
}

func TestSniffMIME(t *testing.T) {
	tests := []struct {
		name string
		path string
		data []byte
		want string
	}{
		{"magic number", "x.bin", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, "image/png"},
		{"extension fallback", "style.css", []byte("a{}"), "text/css"},
		{"woff2 fallback", "f.WOFF2", []byte("nope"), "font/woff2"},
		{"unknown", "x.qqq", []byte("????"), "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffMIME(tt.path, tt.data); got != tt.want {
				t.Errorf("sniffMIME(%s) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestReplaceExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/w/app.scss", "/w/app.css"},
		{"/w/app.css", "/w/app.css"},
		{"/w/app", "/w/app.css"},
	}
	for _, tt := range tests {
		if got := replaceExt(tt.in, ".css"); got != tt.want {
			t.Errorf("replaceExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
