package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSReaderReadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.gosl"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	r, err := NewOSReader(dir, dir)
	if err != nil {
		t.Fatalf("NewOSReader: %v", err)
	}

	data, err := r.ReadFile("hello.gosl")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "package main\n" {
		t.Fatalf("unexpected contents: %q", data)
	}
}

func TestOSReaderIsFileIsDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.gosl"), nil, 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	r, _ := NewOSReader(dir, dir)

	if !r.IsFile("main.gosl") {
		t.Fatalf("expected main.gosl to be a file")
	}
	if r.IsDir("main.gosl") {
		t.Fatalf("expected main.gosl not to be a dir")
	}
	if !r.IsDir("pkg") {
		t.Fatalf("expected pkg to be a dir")
	}
	if r.IsFile("pkg") {
		t.Fatalf("expected pkg not to be a file")
	}
}

func TestOSReaderReadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.gosl", "b.gosl"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	r, _ := NewOSReader(dir, dir)
	names, err := r.ReadDir(".")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(names), names)
	}
}

func TestOSReaderResolvesAbsolutePathsUntouched(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs.gosl")
	if err := os.WriteFile(abs, []byte("x"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	r, _ := NewOSReader("/nonexistent-base", dir)
	data, err := r.ReadFile(abs)
	if err != nil {
		t.Fatalf("ReadFile with absolute path: %v", err)
	}
	if string(data) != "x" {
		t.Fatalf("unexpected contents: %q", data)
	}
}
