package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadAndHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, hash, err := ReadAndHash(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadAndHash() error = %v", err)
	}

	if string(content) != "hello world" {
		t.Errorf("content = %q", content)
	}
	if hash.MD5 != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Errorf("MD5 = %s", hash.MD5)
	}
	if hash.SHA256 != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Errorf("SHA256 = %s", hash.SHA256)
	}
}

func TestReadAndHash_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := ReadAndHash(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("ReadAndHash() error = %v, want context.Canceled", err)
	}
}

func TestReadAndHash_MissingFile(t *testing.T) {
	if _, _, err := ReadAndHash(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("ReadAndHash() should fail for a missing file")
	}
}

func TestHashFile_MatchesReadAndHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("some content here"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, want, err := ReadAndHash(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if got != want {
		t.Errorf("HashFile() = %+v, want %+v", got, want)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"512", 512},
		{"650K", 650 * 1024},
		{"4M", 4 * 1024 * 1024},
		{"2g", 2 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		if got := ParseSize(tt.input); got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
