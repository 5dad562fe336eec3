package kv

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// exerciseStorage runs the behaviour every backend must share.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "patients"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound on empty storage, got %v", err)
	}

	if err := s.Set(ctx, "patients", []byte(`[{"id":"RG-2025-001"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "patients")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":"RG-2025-001"}]` {
		t.Errorf("unexpected value %s", got)
	}

	if err := s.Set(ctx, "patients", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "patients")
	if string(got) != `[]` {
		t.Errorf("expected last write to win, got %s", got)
	}

	if err := s.Set(ctx, "current_patient_id", []byte(`"RG-2025-001"`)); err != nil {
		t.Fatalf("set second key: %v", err)
	}
	if err := s.Delete(ctx, "patients"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "patients"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
	if _, err := s.Get(ctx, "current_patient_id"); err != nil {
		t.Errorf("expected other key to survive delete, got %v", err)
	}
	if err := s.Delete(ctx, "never-set"); err != nil {
		t.Errorf("expected delete of missing key to succeed, got %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestMemoryStorage_FailWrites(t *testing.T) {
	s := NewMemoryStorage()
	s.FailWrites(errors.New("quota exceeded"))

	err := s.Set(context.Background(), "patients", []byte(`[]`))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	s.FailWrites(nil)
	if err := s.Set(context.Background(), "patients", []byte(`[]`)); err != nil {
		t.Fatalf("expected writes to recover, got %v", err)
	}
	if s.SetCount() != 1 {
		t.Errorf("expected 1 successful set, got %d", s.SetCount())
	}
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	value := []byte("abc")
	s.Set(ctx, "k", value)
	value[0] = 'z'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("expected stored value to be isolated from caller, got %s", got)
	}
}

func TestFileStorage(t *testing.T) {
	s, err := NewFileStorage(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}
	exerciseStorage(t, s)
}

func TestFileStorage_SurvivesReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	first, _ := NewFileStorage(fs, "/data")
	if err := first.Set(ctx, "current_patient_id", []byte(`"BS-2025-045"`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, _ := NewFileStorage(fs, "/data")
	got, err := second.Get(ctx, "current_patient_id")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `"BS-2025-045"` {
		t.Errorf("unexpected value %s", got)
	}

	files, _ := afero.ReadDir(fs, "/data")
	if len(files) != 1 {
		t.Errorf("expected no temp files left behind, found %d entries", len(files))
	}
}

func TestFileStorage_ReadOnlyFsIsUnavailable(t *testing.T) {
	base := afero.NewMemMapFs()
	base.MkdirAll("/data", 0o755)
	s, err := NewFileStorage(afero.NewReadOnlyFs(base), "/data")
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}

	err = s.Set(context.Background(), "patients", []byte(`[]`))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on read-only fs, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"patients":           "patients.json",
		"current_patient_id": "current_patient_id.json",
		"../etc/passwd":      "___etc_passwd.json",
		"":                   "_.json",
	}
	for key, want := range cases {
		if got := fileName(key); got != want {
			t.Errorf("fileName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	exerciseStorage(t, s)

	version, err := MigrationVersion(s.DB())
	if err != nil {
		t.Fatalf("migration version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}

	var out bytes.Buffer
	if err := PrintMigrationStatus(s.DB(), &out); err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if !strings.Contains(out.String(), "00001_create_kv.sql") {
		t.Errorf("status output missing migration: %q", out.String())
	}
}

func TestSQLiteStorage_ClosedIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s.Close()

	if err := s.Set(ctx, "patients", []byte(`[]`)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after close, got %v", err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: "memory"})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("expected *MemoryStorage, got %T", s)
	}

	s, err = Open(ctx, Options{Driver: "file", Path: "/data", Fs: afero.NewMemMapFs()})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := s.(*FileStorage); !ok {
		t.Errorf("expected *FileStorage, got %T", s)
	}

	if _, err := Open(ctx, Options{Driver: "redis"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
