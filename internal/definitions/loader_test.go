package definitions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

const sampleDefs = `version: "2026.08.1"
signatures:
  - md5: "44d88612fea8a8f36de82e1278abb02f"
    sha256: "275a021bbfb6489e54d471899f7db9d1663fc695ec2fe2a2c4538aabf651fd0f"
    name: "EICAR-Test-File"
    severity: high
    family: "eicar"
    added_version: "2026.08.1"
  - md5: "098f6bcd4621d373cade4e832627b4f6"
    sha256: "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
    name: "Test.Trojan.Generic"
    severity: critical
    family: "generic"
    added_version: "2026.08.1"
`

func writeDefs(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoader_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDefs(t, dir, "base.yaml", sampleDefs)

	set, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if set.Version() != "2026.08.1" {
		t.Errorf("Version() = %q, want 2026.08.1", set.Version())
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}

	entry, ok := set.ByMD5("44d88612fea8a8f36de82e1278abb02f")
	if !ok {
		t.Fatal("ByMD5 lookup failed for known entry")
	}
	if entry.ThreatName != "EICAR-Test-File" {
		t.Errorf("ThreatName = %q, want EICAR-Test-File", entry.ThreatName)
	}
}

func TestLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	writeDefs(t, dir, "base.yaml", sampleDefs)
	writeDefs(t, dir, "extra.yml", `version: "2026.08.2"
signatures:
  - sha256: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
    name: "Test.Dropper"
    severity: medium
`)

	set, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if set.Version() != "2026.08.2" {
		t.Errorf("Version() = %q, want highest file version 2026.08.2", set.Version())
	}
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T) string
	}{
		{
			name: "missing path",
			prepare: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
		},
		{
			name: "empty directory",
			prepare: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "no version",
			prepare: func(t *testing.T) string {
				dir := t.TempDir()
				return writeDefs(t, dir, "v.yaml", "signatures:\n  - sha256: \"ab\"\n    name: x\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.prepare(t)).Load()
			if !errors.Is(err, ErrNoDefinitions) {
				t.Errorf("Load() error = %v, want ErrNoDefinitions", err)
			}
		})
	}
}

func TestLoader_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeDefs(t, dir, "bad.yaml", "signatures: [not closed")

	if _, err := NewLoader(dir).Load(); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestManager_UpdateSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	base := writeDefs(t, dir, "base.yaml", sampleDefs)
	next := writeDefs(t, dir, "next.yaml", `version: "2026.09.0"
signatures:
  - sha256: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
    name: "Test.Worm"
    severity: high
`)

	mgr, err := NewManager(base, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	before := mgr.Active()

	if _, err := mgr.Update(next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if mgr.Active().Version() != "2026.09.0" {
		t.Errorf("active version = %q, want 2026.09.0", mgr.Active().Version())
	}

	// The snapshot held before the update must be unchanged
	if before.Version() != "2026.08.1" {
		t.Errorf("old snapshot version mutated to %q", before.Version())
	}
	if _, ok := before.ByMD5("44d88612fea8a8f36de82e1278abb02f"); !ok {
		t.Error("old snapshot lost its entries after update")
	}
}

func TestManager_UpdateFailureKeepsActive(t *testing.T) {
	dir := t.TempDir()
	base := writeDefs(t, dir, "base.yaml", sampleDefs)

	mgr, err := NewManager(base, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := mgr.Update(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("Update() should fail for a missing ref")
	}

	if mgr.Active().Version() != "2026.08.1" {
		t.Errorf("active version = %q, want unchanged 2026.08.1", mgr.Active().Version())
	}
}
