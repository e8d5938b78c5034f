package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/halo/internal/colour"
	"github.com/jmylchreest/halo/internal/config"
	"github.com/jmylchreest/halo/internal/halo"
)

// isolateEnv clears HALO_* variables so the host environment can't leak in.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvBaseURL, config.EnvSamplingTimeout, config.EnvCacheDir, config.EnvListen} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolateEnv(t)

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "halo ") {
		t.Errorf("version output = %q", out)
	}
}

func TestSampleCmd(t *testing.T) {
	path := writePNG(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255})

	out, err := execute(t, "sample", path)
	if err != nil {
		t.Fatalf("sample error = %v", err)
	}
	if got := strings.TrimSpace(out); got != "#102030 dark" {
		t.Errorf("sample output = %q, want %q", got, "#102030 dark")
	}

	out, err = execute(t, "sample", "--format", "json", path)
	if err != nil {
		t.Fatalf("sample --format json error = %v", err)
	}
	var s colour.Sample
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if s.Hex != "#102030" || !s.IsDark {
		t.Errorf("sample = %+v", s)
	}
}

func TestSampleCmdErrors(t *testing.T) {
	if _, err := execute(t, "sample", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("sample of a missing file returned nil error")
	}
	if _, err := execute(t, "sample", "--format", "xml", "x.png"); err == nil {
		t.Error("sample --format xml returned nil error")
	}
	if _, err := execute(t, "sample", "--algorithm", "median", "x.png"); err == nil {
		t.Error("sample --algorithm median returned nil error")
	}
}

func TestRenderCmd(t *testing.T) {
	path := writePNG(t, color.RGBA{R: 0xee, G: 0xdd, B: 0xcc, A: 255})

	out, err := execute(t, "render", "--alt", "Beige", "--class", "hero", path)
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	for _, want := range []string{"#eeddcc", `alt="Beige"`, "hero", halo.PanelTitle, `data-dark="false"`} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCmdFailOpen(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "render", "--json", bad)
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	var h halo.Halo
	if err := json.Unmarshal([]byte(out), &h); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if h != (halo.Halo{}) {
		t.Errorf("halo = %+v, want plain image", h)
	}
}

func TestLinkCmd(t *testing.T) {
	out, err := execute(t, "link", "--base", "/blog/", "/blog/post-1", "/", "https://example.com/x", "about")
	if err != nil {
		t.Fatalf("link error = %v", err)
	}
	want := "/blog/blog/post-1\n/blog\nhttps://example.com/x\nabout\n"
	if out != want {
		t.Errorf("link output = %q, want %q", out, want)
	}

	out, err = execute(t, "link", "/about")
	if err != nil {
		t.Fatalf("link error = %v", err)
	}
	if out != "/about\n" {
		t.Errorf("root deployment link output = %q, want %q", out, "/about\n")
	}
}

func TestLinkCmdExplain(t *testing.T) {
	out, err := execute(t, "link", "--base", "/blog", "--explain", "/", "about")
	if err != nil {
		t.Fatalf("link --explain error = %v", err)
	}
	for _, want := range []string{"HREF", "RULE", "site-root", "relative"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLinkCmdConfigBase(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "halo.yaml")
	if err := os.WriteFile(cfgPath, []byte("base_url: /docs/\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath, "link", "/guide")
	if err != nil {
		t.Fatalf("link error = %v", err)
	}
	if out != "/docs/guide\n" {
		t.Errorf("link output = %q, want %q", out, "/docs/guide\n")
	}
}

func TestRewriteCmd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "index.html")
	if err := os.WriteFile(in, []byte(`<a href="/about">About</a>`), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "rewrite", "--base", "/blog/", in)
	if err != nil {
		t.Fatalf("rewrite error = %v", err)
	}
	if out != `<a href="/blog/about">About</a>` {
		t.Errorf("rewrite output = %q", out)
	}

	if _, err := execute(t, "rewrite", "--base", "/blog/", "--in-place", in); err != nil {
		t.Fatalf("rewrite --in-place error = %v", err)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `<a href="/blog/about">About</a>` {
		t.Errorf("rewritten file = %q", data)
	}

	if _, err := execute(t, "rewrite", "-i", "-o", "x.html", in); err == nil {
		t.Error("rewrite with --in-place and --output returned nil error")
	}
}

func TestVerboseQuietExclusive(t *testing.T) {
	if _, err := execute(t, "-v", "-q", "link", "/"); err == nil {
		t.Error("--verbose with --quiet returned nil error")
	}
}
