package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewValidatesSpec(t *testing.T) {
	if _, err := New(Options{Spec: "", Source: "x", Dir: "y"}); err == nil {
		t.Fatal("New accepted an empty spec")
	}
	if _, err := New(Options{Spec: "not a cron", Source: "x", Dir: "y"}); err == nil {
		t.Fatal("New accepted a malformed spec")
	}
	if _, err := New(Options{Spec: "0 3 * * *", Source: "x", Dir: "y"}); err != nil {
		t.Fatalf("New rejected a valid spec: %v", err)
	}
}

func TestSnapshotCopiesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "shop.json")
	if err := os.WriteFile(source, []byte(`{"sword":{"buy":1,"sell":0}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	backupDir := filepath.Join(dir, "backups")
	// pre-seed stale snapshots that sort before any new timestamped name
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, name := range []string{"shop-19990101-000000.json", "shop-19990102-000000.json"} {
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("old"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	s, err := New(Options{Spec: "0 3 * * *", Source: source, Dir: backupDir, Retain: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.snapshot()

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("backups after prune = %v, want 2 files", names)
	}

	// the newest entry is the fresh copy with the source contents
	newest := entries[len(entries)-1]
	data, err := os.ReadFile(filepath.Join(backupDir, newest.Name()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"sword":{"buy":1,"sell":0}}` {
		t.Fatalf("snapshot contents = %q", data)
	}
}
