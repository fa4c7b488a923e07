package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMatches(t *testing.T) {
	w := New(t.TempDir(), func(string) {}).WithPatterns("*/constructs/**", "*/templates/*/source.html")

	tests := []struct {
		path string
		want bool
	}{
		{"base/constructs/teaser/construct.json", true},
		{"base/templates/page/source.html", true},
		{"base/templates/page/gentics_structure.json", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := w.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if !New(t.TempDir(), func(string) {}).Matches("anything") {
		t.Error("expected watcher without patterns to match everything")
	}
}

func TestWatchDebouncesByKey(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "base", "constructs", "teaser")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 10)
	w := New(root, func(key string) { changes <- key }).
		WithDebounce(50 * time.Millisecond).
		WithKey(func(rel string) string { return strings.SplitN(rel, "/", 2)[0] })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// give the watcher time to register the directories
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "construct.json"), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case key := <-changes:
		if key != "base" {
			t.Errorf("expected key base, got %s", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case key := <-changes:
		t.Errorf("expected writes to be debounced, got second change %s", key)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "construct.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if !isDir(dir) {
		t.Errorf("expected %s to be a directory", dir)
	}
	if isDir(file) {
		t.Errorf("expected %s to be a file", file)
	}
	if isDir(filepath.Join(dir, "missing")) {
		t.Error("expected missing path not to be a directory")
	}
}
