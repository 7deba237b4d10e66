package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadResolvesSourcesRelativeToSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	writeFile(t, path, `{
		"Sources": ["common.cl", "hz.cl"],
		"CompileOptions": "-cl-mad-enable",
		"Comment": "ignored"
	}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{filepath.Join(dir, "common.cl"), filepath.Join(dir, "hz.cl")}
	if len(m.Sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(m.Sources))
	}
	for i := range want {
		if m.Sources[i] != want[i] {
			t.Errorf("source %d = %s, want %s", i, m.Sources[i], want[i])
		}
	}
	if m.CompileOptions != "-cl-mad-enable" {
		t.Errorf("CompileOptions = %q", m.CompileOptions)
	}
	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}
}

func TestLoadAllowsEmptyCompileOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	writeFile(t, path, `{"Sources": ["a.cl"], "CompileOptions": ""}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.CompileOptions != "" {
		t.Errorf("expected empty options, got %q", m.CompileOptions)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"Sources": ["a.cl"`},
		{"missing sources", `{"CompileOptions": ""}`},
		{"null sources", `{"Sources": null, "CompileOptions": ""}`},
		{"empty sources", `{"Sources": [], "CompileOptions": ""}`},
		{"missing options", `{"Sources": ["a.cl"]}`},
		{"sources not a list", `{"Sources": "a.cl", "CompileOptions": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFileName)
			writeFile(t, path, tt.content)

			_, err := Load(path)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying os.ErrNotExist, got %v", err)
	}
}

func TestBundlePreservesOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"z_last.cl", "a_first.cl", "m_middle.cl"}
	for _, name := range names {
		writeFile(t, filepath.Join(dir, name), "// "+name+"\n")
	}
	path := filepath.Join(dir, DefaultFileName)
	writeFile(t, path, `{"Sources": ["z_last.cl", "a_first.cl", "m_middle.cl"], "CompileOptions": "-DN=4"}`)

	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle failed: %v", err)
	}

	for i, name := range names {
		if b.Sources[i] != "// "+name+"\n" {
			t.Errorf("source %d = %q, want contents of %s", i, b.Sources[i], name)
		}
		if b.Files[i] != filepath.Join(dir, name) {
			t.Errorf("file %d = %s", i, b.Files[i])
		}
	}
	if b.CompileOptions != "-DN=4" {
		t.Errorf("CompileOptions = %q", b.CompileOptions)
	}
}

func TestBundleUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.cl"), "__kernel void a() {}")
	path := filepath.Join(dir, DefaultFileName)
	writeFile(t, path, `{"Sources": ["a.cl", "missing.cl"], "CompileOptions": ""}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	_, err = m.Bundle()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
