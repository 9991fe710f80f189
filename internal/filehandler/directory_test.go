package filehandler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanDirectoryMedia(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"b/IMG_0002.JPG",
		"a/IMG_0001.jpg",
		"a/CLIP0001.AVI",
		"a/notes.txt",
		"a/JC38.csv",
		"top.bmp",
	} {
		touch(t, filepath.Join(root, name))
	}

	got, err := ScanDirectoryMedia(context.Background(), root, ScanOptions{})
	if err != nil {
		t.Fatalf("ScanDirectoryMedia() error = %v", err)
	}

	want := []string{"a/CLIP0001.AVI", "a/IMG_0001.jpg", "b/IMG_0002.JPG", "top.bmp"}
	if len(got) != len(want) {
		t.Fatalf("ScanDirectoryMedia() = %v, want %v", got, want)
	}
	for i := range want {
		rel, _ := filepath.Rel(root, got[i])
		if rel != filepath.FromSlash(want[i]) {
			t.Errorf("file %d = %q, want %q", i, rel, want[i])
		}
	}

	again, err := ScanDirectoryMedia(context.Background(), root, ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range got {
		if got[i] != again[i] {
			t.Errorf("second scan file %d = %q, want %q", i, again[i], got[i])
		}
	}
}

func TestScanDirectoryMediaOptions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "1.jpg"))
	touch(t, filepath.Join(root, "2.jpg"))
	touch(t, filepath.Join(root, "sub", "3.jpg"))

	got, err := ScanDirectoryMedia(context.Background(), root, ScanOptions{MaxDepth: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("MaxDepth=1 returned %d files, want 2", len(got))
	}

	got, err = ScanDirectoryMedia(context.Background(), root, ScanOptions{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "1.jpg" {
		t.Errorf("Limit=1 returned %v, want [1.jpg]", got)
	}
}

func TestScanDirectoryMediaCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "1.jpg"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ScanDirectoryMedia(ctx, root, ScanOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("ScanDirectoryMedia() error = %v, want context.Canceled", err)
	}
}

func TestScanDirectoryMediaMissing(t *testing.T) {
	if _, err := ScanDirectoryMedia(context.Background(), filepath.Join(t.TempDir(), "missing"), ScanOptions{}); err == nil {
		t.Error("ScanDirectoryMedia() error = nil, want error for missing directory")
	}
}
