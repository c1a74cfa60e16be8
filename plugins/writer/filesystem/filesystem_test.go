package filesystem

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vigcrack/pkg/contract"
)

func ptr(b bool) *bool { return &b }

func noTemp(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("tmp file not cleaned: %s", e.Name())
		}
	}
}

func TestWriteAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, v := range []string{"THE QUICK", "the quick brown fox"} {
		if err := w.Write(context.Background(), "msgs/a.decrypted.txt", bytes.NewBufferString(v)); err != nil {
			t.Fatalf("write %q: %v", v, err)
		}
	}
	// Flat 默认开启：只保留文件名
	b, err := os.ReadFile(filepath.Join(dir, "a.decrypted.txt"))
	if err != nil || string(b) != "the quick brown fox" {
		t.Fatalf("替换失败: %v %q", err, b)
	}
	noTemp(t, dir)
}

func TestWriteNested(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir, Flat: ptr(false), Atomic: ptr(false)})
	if err := w.Write(context.Background(), "sub/out.txt", bytes.NewBufferString("v")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if b, err := os.ReadFile(filepath.Join(dir, "sub", "out.txt")); err != nil || string(b) != "v" {
		t.Fatalf("file not created: %v", err)
	}
}

func TestWritePathInvalid(t *testing.T) {
	w, _ := New(&Options{OutputDir: t.TempDir(), Flat: ptr(false)})
	for _, id := range []string{"../bad", "..", "."} {
		if err := w.Write(context.Background(), contract.ArtifactID(id), bytes.NewBufferString("x")); !errors.Is(err, contract.ErrPathInvalid) {
			t.Fatalf("id %q expect path invalid, got %v", id, err)
		}
	}
}

func TestWriteNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, _ := New(&Options{OutputDir: dir, Overwrite: ptr(false)})
	err := w.Write(context.Background(), "a.txt", bytes.NewBufferString("new"))
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expect ErrExist, got %v", err)
	}
	if b, _ := os.ReadFile(filepath.Join(dir, "a.txt")); string(b) != "keep" {
		t.Fatalf("原文件被改写: %q", b)
	}
}

func TestWriteCtxCancel(t *testing.T) {
	w, _ := New(&Options{OutputDir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, "a.txt", strings.NewReader("data")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx error: %v", err)
	}
}

func TestNewInvalid(t *testing.T) {
	for _, o := range []*Options{nil, {}, {OutputDir: "  "}} {
		if _, err := New(o); !errors.Is(err, contract.ErrInvalidInput) {
			t.Fatalf("expect ErrInvalidInput for %+v: %v", o, err)
		}
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestWriteAtomicCopyError(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir})
	if err := w.Write(context.Background(), "a.txt", errReader{}); err == nil {
		t.Fatalf("expect copy error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp files left %v", entries)
	}
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir})
	p, err := w.Path("x/y/z.decrypted.txt")
	if err != nil || p != filepath.Join(dir, "z.decrypted.txt") {
		t.Fatalf("path: %q %v", p, err)
	}
}

func TestReaderWithCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := readerWithCtx(ctx, strings.NewReader("data"))
	cancel()
	if _, err := r.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expect ctx error")
	}
}
