package localfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return s
}

func TestSaveAndOpen(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	payload := []byte("%PDF-1.7 uploaded bytes")
	if err := s.Save(ctx, "matter-1/f1.pdf", bytes.NewReader(payload)); err != nil {
		t.Fatalf("save: %v", err)
	}

	rc, err := s.Open(ctx, "matter-1/f1.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload did not round-trip: %q", got)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	if err := s.Save(ctx, "matter-1/f1.pdf", strings.NewReader("first")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, "matter-1/f1.pdf", strings.NewReader("second")); err != nil {
		t.Fatalf("second save: %v", err)
	}

	rc, err := s.Open(ctx, "matter-1/f1.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "second" {
		t.Fatalf("expected latest payload, got %q", got)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if err := s.Save(context.Background(), "matter-1/f1.pdf", strings.NewReader("bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "matter-1"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".upload-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestKeysCannotEscapeRoot(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	for _, key := range []string{"", "../outside.pdf", "matter-1/../../outside.pdf", "/etc/passwd"} {
		if err := s.Save(ctx, key, strings.NewReader("x")); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
		if _, err := s.Open(ctx, key); err == nil {
			t.Fatalf("open with key %q must be rejected", key)
		}
	}
}

func TestOpenMissingKey(t *testing.T) {
	s := newStorage(t)
	if _, err := s.Open(context.Background(), "matter-1/ghost.pdf"); err == nil {
		t.Fatalf("missing key must error")
	}
}
