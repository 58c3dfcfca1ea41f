package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestReport_Archive(t *testing.T) {
	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())

	stored := filepath.Join(t.TempDir(), "app.css")
	if err := os.WriteFile(stored, []byte("a{color:red}"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}
	r.Store("result/app.css", stored)
	r.StoreData("jobs/1/warnings.txt", []byte("unknown browser target: netscape 4"))
	r.Store("gone/file.css", filepath.Join(t.TempDir(), "missing.css"))

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	zr, err := zip.OpenReader(reportFile.Name())
	if err != nil {
		t.Fatalf("unable to open report archive: %v", err)
	}
	defer zr.Close()

	content := map[string]string{}
	for _, f := range zr.File {
		in, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open archive entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(in)
		in.Close()
		if err != nil {
			t.Fatalf("unable to read archive entry %s: %v", f.Name, err)
		}
		content[f.Name] = string(data)
	}

	if got := content["result/app.css"]; got != "a{color:red}" {
		t.Errorf("archived css = %q", got)
	}
	if got := content["jobs/1/warnings.txt"]; got != "unknown browser target: netscape 4" {
		t.Errorf("archived warnings = %q", got)
	}
	// entry pointing at a vanished file is dropped, not fatal
	if _, exists := content["gone/file.css"]; exists {
		t.Error("missing source file still produced an archive entry")
	}
}

func TestReport_StoreDataVersionsDuplicates(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}

	r.StoreData("jobs/1/result.css", []byte("first"))
	r.StoreData("jobs/1/result.css", []byte("second"))

	if len(r.entries) != 2 {
		t.Errorf("entries length = %d, want 2 (duplicate name versioned)", len(r.entries))
	}
}

func TestReport_NilReceiver(t *testing.T) {
	var r *Report

	// all of these must be no-ops on nil receiver
	r.Store("name", "/tmp/whatever")
	r.StoreData("name", []byte("data"))
	if n := r.Name(); n != "" {
		t.Errorf("Name() on nil report = %q, want empty", n)
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
	if n := r.Name(); n != "" {
		t.Errorf("Name() with nil file = %q, want empty", n)
	}
}

func TestReporterConfig_Prepare(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.zip")
	conf := &ReporterConfig{Destination: dest}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	defer r.Close()

	if r.Name() != dest {
		t.Errorf("Name() = %q, want %q", r.Name(), dest)
	}
}
