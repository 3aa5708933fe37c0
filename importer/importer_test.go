package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap/zaptest"
	yaml "gopkg.in/yaml.v3"

	"okvars/common"
	"okvars/config"
	"okvars/reconcile"
	"okvars/state"
)

const themeCSS = `@theme {
  --color-sky-500: oklch(0.685 0.169 237.323);
  --color-red-100: oklch(0.936 0.032 17.717);
  --color-red-50: oklch(97.1% 0.013 17.38);
  --color-bad-1: oklch(0.5 0.1);
  --color-brand-500: #ff0000;
}
`

func testEnv(t *testing.T) *state.LocalEnv {
	t.Helper()

	env := state.EnvFromContext(state.ContextWithEnv(context.Background()))
	env.Cfg = &config.Config{
		Version: 1,
		Store:   config.StoreConfig{Kind: common.StoreKindMemory},
		Swatch:  config.SwatchConfig{Columns: 4, CellSize: 32},
	}
	env.Log = zaptest.NewLogger(t)
	t.Cleanup(func() { env.CloseStore() })
	return env
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestParse(t *testing.T) {
	env := testEnv(t)
	src := writeFile(t, "theme.css", []byte(themeCSS))
	dst := filepath.Join(t.TempDir(), "report.yaml")

	if err := parse(context.Background(), env, src, dst, env.Log); err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	var report reconcile.Validation
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid yaml: %v", err)
	}
	if report.TotalFound != 4 || len(report.Valid) != 3 || len(report.Invalid) != 1 || len(report.Details) != 4 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Valid[2].Variable != "color/red/50" || math.Abs(report.Valid[2].OKLCH.L-0.971) > 1e-9 {
		t.Errorf("percent lightness not normalized: %+v", report.Valid[2])
	}
	for _, d := range report.Details[:3] {
		if d.Status != reconcile.StatusCreate {
			t.Errorf("detail %+v, want create", d)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	env := testEnv(t)
	out := captureStdout(t)
	src := writeFile(t, "empty.css", []byte("body { color: red; }"))

	if err := parse(context.Background(), env, src, "", env.Log); err != nil {
		t.Fatalf("parse() must not fail on empty extraction: %v", err)
	}
	if !strings.Contains(out.String(), "total_found: 0") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestParse_Stdin(t *testing.T) {
	env := testEnv(t)
	env.Format = common.OutputFmtJSON
	out := captureStdout(t)

	old := stdin
	stdin = strings.NewReader("--color-lime-300: oklch(0.897 0.196 126.665);")
	t.Cleanup(func() { stdin = old })

	if err := parse(context.Background(), env, StdinName, "-", env.Log); err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	var report reconcile.Validation
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if report.TotalFound != 1 || report.Valid[0].Variable != "color/lime/300" {
		t.Errorf("unexpected report %+v", report)
	}
}

// redirectConsole replaces process stdout and stderr with files. Console
// logger must be prepared after the call to pick them up.
func redirectConsole(t *testing.T) (out, errs *os.File) {
	t.Helper()

	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "stdout"))
	if err != nil {
		t.Fatal(err)
	}
	if errs, err = os.Create(filepath.Join(dir, "stderr")); err != nil {
		t.Fatal(err)
	}

	oldOut, oldErr, oldWriter := os.Stdout, os.Stderr, stdout
	os.Stdout, os.Stderr, stdout = out, errs, out
	t.Cleanup(func() {
		os.Stdout, os.Stderr, stdout = oldOut, oldErr, oldWriter
		out.Close()
		errs.Close()
	})
	return out, errs
}

func TestParse_StdoutCarriesOnlyReport(t *testing.T) {
	out, errs := redirectConsole(t)

	env := testEnv(t)
	env.Format = common.OutputFmtJSON

	logging := config.LoggingConfig{
		ConsoleLogger: config.LoggerConfig{Level: "debug"},
		FileLogger:    config.LoggerConfig{Level: "none"},
	}
	log, err := logging.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Log = log

	src := writeFile(t, "theme.css", []byte(themeCSS))
	if err := parse(context.Background(), env, src, "", log.Named("parse")); err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	_ = log.Sync()

	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	var report reconcile.Validation
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("stdout is not a single json document: %v\n%s", err, data)
	}
	if report.TotalFound != 4 {
		t.Errorf("unexpected report %+v", report)
	}

	logs, err := os.ReadFile(errs.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logs), "Validation completed") || !strings.Contains(string(logs), "Invalid color token") {
		t.Errorf("console log is missing expected messages:\n%s", logs)
	}
}

func TestReadSource(t *testing.T) {
	env := testEnv(t)

	t.Run("binary", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		if _, err := readSource(env, writeFile(t, "image.css", png)); err == nil {
			t.Error("expected binary input to be rejected")
		}
	})

	t.Run("zip archive", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for name, content := range map[string]string{
			"theme/colors.css": "--color-red-500: oklch(0.637 0.237 25.331);",
			"theme/notes.txt":  "--color-blue-500: oklch(0.623 0.214 259.815);",
		} {
			w, err := zw.Create(name)
			if err != nil {
				t.Fatal(err)
			}
			w.Write([]byte(content))
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}

		src, err := readSource(env, writeFile(t, "theme.zip", buf.Bytes()))
		if err != nil {
			t.Fatalf("readSource() error = %v", err)
		}
		if string(src.data) != "--color-red-500: oklch(0.637 0.237 25.331);" {
			t.Errorf("data = %q", src.data)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := readSource(env, filepath.Join(t.TempDir(), "missing.css")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("no name", func(t *testing.T) {
		if _, err := readSource(env, ""); err == nil {
			t.Error("expected error for empty source name")
		}
	})

	t.Run("code page", func(t *testing.T) {
		env := testEnv(t)
		env.CodePage = codePage("windows-1252", env.Log)
		if env.CodePage == nil {
			t.Fatal("windows-1252 must be known")
		}
		// "café" in windows-1252
		src, err := readSource(env, writeFile(t, "cp.css", []byte("/* caf\xe9 */")))
		if err != nil {
			t.Fatal(err)
		}
		if string(src.data) != "/* café */" {
			t.Errorf("decoded = %q", src.data)
		}
	})

	t.Run("unknown code page", func(t *testing.T) {
		if codePage("no-such-charset", env.Log) != nil {
			t.Error("unknown charset must be ignored")
		}
		if codePage("", env.Log) != nil {
			t.Error("empty charset means no conversion")
		}
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)
	src := writeFile(t, "theme.css", []byte(themeCSS))
	dir := t.TempDir()

	first := filepath.Join(dir, "first.yaml")
	if err := apply(ctx, env, src, first, &applyOptions{newCollection: "Tailwind", only: []string{"color/sky/500"}}, env.Log); err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	var out reconcile.Outcome
	data, _ := os.ReadFile(first)
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary != (reconcile.Summary{Created: 1, Total: 1}) {
		t.Errorf("first pass summary = %+v", out.Summary)
	}

	second := filepath.Join(dir, "second.yaml")
	if err := apply(ctx, env, src, second, &applyOptions{collectionID: out.Collection.ID}, env.Log); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	data, _ = os.ReadFile(second)
	out = reconcile.Outcome{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary != (reconcile.Summary{Created: 2, Updated: 1, Total: 3}) {
		t.Errorf("second pass summary = %+v", out.Summary)
	}
	if out.Created[0].Variable != "color/red/100" || out.Created[1].Variable != "color/red/50" {
		t.Errorf("created = %+v", out.Created)
	}

	buf := captureStdout(t)
	if err := list(ctx, env, ""); err != nil {
		t.Fatalf("list() error = %v", err)
	}
	var vars []variableInfo
	if err := yaml.Unmarshal(buf.Bytes(), &vars); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, v := range vars {
		names = append(names, v.Name)
		if v.Collection != "Tailwind" || len(v.Values["Mode 1"]) != 7 {
			t.Errorf("unexpected listing entry %+v", v)
		}
	}
	if strings.Join(names, ",") != "color/red/50,color/red/100,color/sky/500" {
		t.Errorf("natural order broken: %v", names)
	}

	buf.Reset()
	if err := collections(ctx, env, ""); err != nil {
		t.Fatalf("collections() error = %v", err)
	}
	var cols []collectionInfo
	if err := yaml.Unmarshal(buf.Bytes(), &cols); err != nil {
		t.Fatal(err)
	}
	if len(cols) != 1 || cols[0].ID != out.Collection.ID || cols[0].DefaultModeID == "" {
		t.Errorf("collections = %+v", cols)
	}
}

func TestApply_Preconditions(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)
	src := writeFile(t, "theme.css", []byte(themeCSS))

	if err := apply(ctx, env, src, "", &applyOptions{}, env.Log); err == nil || !strings.Contains(err.Error(), reconcile.ErrNoCollection.Error()) {
		t.Errorf("apply() without collection error = %v", err)
	}
	if err := apply(ctx, env, src, "", &applyOptions{collectionID: "missing"}, env.Log); err == nil {
		t.Error("expected error for missing collection")
	}
	if err := apply(ctx, env, src, "", &applyOptions{collectionID: "a", newCollection: "b"}, env.Log); err == nil {
		t.Error("expected error for conflicting selectors")
	}
}

func TestApply_NothingFound(t *testing.T) {
	env := testEnv(t)
	out := captureStdout(t)
	src := writeFile(t, "empty.css", []byte(":root { --color-brand-500: #fff; }"))

	if err := apply(context.Background(), env, src, "", &applyOptions{}, env.Log); err != nil {
		t.Errorf("apply() must not fail when nothing is found: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRenderSheet(t *testing.T) {
	env := testEnv(t)
	src := writeFile(t, "theme.css", []byte(themeCSS))
	dst := filepath.Join(t.TempDir(), "sheet.png")

	if err := renderSheet(env, src, dst, sheetOptions(env.Cfg), env.Log); err != nil {
		t.Fatalf("renderSheet() error = %v", err)
	}
	img, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("unable to open sheet: %v", err)
	}
	// sky and red groups take two rows
	if img.Bounds().Dy() <= 2*32 {
		t.Errorf("sheet height = %d", img.Bounds().Dy())
	}

	if err := renderSheet(env, src, "", sheetOptions(env.Cfg), env.Log); err == nil {
		t.Error("expected error without destination")
	}
}

func TestRenderSheet_Stdout(t *testing.T) {
	env := testEnv(t)
	out := captureStdout(t)
	src := writeFile(t, "theme.css", []byte(themeCSS))

	if err := renderSheet(env, src, StdinName, sheetOptions(env.Cfg), env.Log); err != nil {
		t.Fatalf("renderSheet() error = %v", err)
	}
	img, err := png.Decode(out)
	if err != nil {
		t.Fatalf("stdout is not PNG: %v", err)
	}
	if img.Bounds().Dy() <= 2*32 {
		t.Errorf("sheet height = %d", img.Bounds().Dy())
	}
}
