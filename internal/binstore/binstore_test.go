package binstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	info, err := store.Put(ctx, "file/12", strings.NewReader("hello"), 5, "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("expected size 5, got %d", info.Size)
	}
	if info.MD5 != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("unexpected md5 %s", info.MD5)
	}

	rc, err := store.Get(ctx, "file/12")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Errorf("expected hello, got %q", data)
	}

	if err := store.Delete(ctx, "file/12"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "file/12"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "file/12"); err != nil {
		t.Errorf("expected deleting a missing key to succeed, got %v", err)
	}
}

func TestFSStoreRejects(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	for _, key := range []string{"", "/abs", "../escape", "a//b", "a/./b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), 1, ""); err == nil {
			t.Errorf("expected key %q to be rejected", key)
		}
	}

	if _, err := store.Put(ctx, "file/1", strings.NewReader("abc"), 10, ""); err == nil {
		t.Error("expected short upload to fail")
	}
	if _, err := store.Get(ctx, "file/1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected failed upload to leave nothing behind, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Put(cancelled, "file/2", strings.NewReader("abc"), -1, ""); err == nil {
		t.Error("expected cancelled upload to fail")
	}
}

func TestMinIOConfigValidate(t *testing.T) {
	valid := MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "a",
		SecretKey: "b",
		Region:    "us-east-1",
		Bucket:    "contentnode",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	invalid := valid
	invalid.Endpoint = "http://localhost:9000"
	if err := invalid.Validate(); err == nil {
		t.Fatalf("Validate() expected error for scheme in endpoint")
	}
	invalid = valid
	invalid.Bucket = ""
	if err := invalid.Validate(); err == nil {
		t.Fatalf("Validate() expected error for missing bucket")
	}
}
