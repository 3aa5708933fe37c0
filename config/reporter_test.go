package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	input := filepath.Join(dir, "theme.css")
	if err := os.WriteFile(input, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("input.css", input); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// copy is taken at the time of the call
	if err := os.WriteFile(input, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("input.css", input); err != nil {
		t.Fatalf("StoreCopy() second call error = %v", err)
	}
	r.Store("live.css", input)
	r.Store("absent.log", filepath.Join(dir, "absent.log"))
	r.StoreData("report.yaml", []byte("total_found: 0\n"))

	copies := append([]string(nil), r.copies...)
	name := r.Name()

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	if files["input.css"] != "original" {
		t.Errorf("input.css = %q", files["input.css"])
	}
	if files["live.css"] != "changed" {
		t.Errorf("live.css = %q", files["live.css"])
	}
	if files["report.yaml"] != "total_found: 0\n" {
		t.Errorf("report.yaml = %q", files["report.yaml"])
	}
	if _, ok := files["absent.log"]; ok {
		t.Error("absent file must be skipped")
	}
	versioned := 0
	for n := range files {
		if strings.HasPrefix(n, "input.css-") {
			versioned++
		}
	}
	if versioned != 1 {
		t.Errorf("expected one versioned copy, got %d", versioned)
	}
	if !strings.Contains(files["MANIFEST"], "absent.log") {
		t.Error("MANIFEST must list every entry")
	}

	for _, d := range copies {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("temporary copy %s was not removed", d)
		}
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Error("Name on nil report should be empty")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("a", "one")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting Store")
		}
	}()
	r.Store("a", "two")
}

func TestReport_StoreCopyMissing(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.StoreCopy("x", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
