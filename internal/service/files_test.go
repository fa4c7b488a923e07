package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"contentnode/internal/binstore"
	"contentnode/internal/domain"
	"contentnode/internal/repository"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	assertNoError(t, err)
	return string(data)
}

func TestFileService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	store, err := binstore.NewFSStore(t.TempDir())
	assertNoError(t, err)
	files := NewFileService(f.objects, store)

	image := domain.NewImage("logo.png", f.folder.ID, f.master.ID)
	assertNoError(t, f.objects.Create(ctx, image))

	content := "not really a png"
	updated, err := files.Upload(ctx, domain.TypeImage, image.ID, strings.NewReader(content), int64(len(content)), "")
	assertNoError(t, err)

	t.Run("upload records size, checksum and type", func(t *testing.T) {
		img := updated.(*domain.Image)
		sum := md5.Sum([]byte(content))
		if img.MD5 != hex.EncodeToString(sum[:]) {
			t.Errorf("unexpected md5 %q", img.MD5)
		}
		if img.FileSize != int64(len(content)) {
			t.Errorf("expected size %d, got %d", len(content), img.FileSize)
		}
		if img.FileType != "image/png" {
			t.Errorf("expected type from extension, got %q", img.FileType)
		}
	})

	t.Run("download", func(t *testing.T) {
		rc, file, err := files.Download(ctx, domain.TypeImage, image.ID)
		assertNoError(t, err)
		if got := readAll(t, rc); got != content {
			t.Errorf("expected %q, got %q", content, got)
		}
		if file.Name != "logo.png" {
			t.Errorf("unexpected file %s", file.Describe())
		}
	})

	local, err := f.channels.Localize(ctx, domain.TypeImage, image.ID, f.channel.ID)
	assertNoError(t, err)

	t.Run("localized copy falls back to the master content", func(t *testing.T) {
		rc, _, err := files.Download(inChannel(f.channel.ID), domain.TypeImage, image.ID)
		assertNoError(t, err)
		if got := readAll(t, rc); got != content {
			t.Errorf("expected master content, got %q", got)
		}
	})

	t.Run("localized copy with own content", func(t *testing.T) {
		own := "channel logo"
		_, err := files.Upload(ctx, domain.TypeImage, local.GetID(), strings.NewReader(own), -1, "image/png")
		assertNoError(t, err)
		rc, _, err := files.Download(inChannel(f.channel.ID), domain.TypeImage, image.ID)
		assertNoError(t, err)
		if got := readAll(t, rc); got != own {
			t.Errorf("expected channel content, got %q", got)
		}
	})

	t.Run("objects without content", func(t *testing.T) {
		_, err := files.Upload(ctx, domain.TypeFolder, f.folder.ID, strings.NewReader("x"), 1, "")
		assertErrorIs(t, err, ErrInvalid)
	})

	t.Run("delete removes all contents", func(t *testing.T) {
		assertNoError(t, files.Delete(ctx, domain.TypeImage, image.ID))
		_, err := f.repo.Get(ctx, domain.TypeImage, local.GetID())
		assertErrorIs(t, err, repository.ErrNotFound)
		for _, key := range []string{image.BinaryKey(), local.(*domain.Image).BinaryKey()} {
			_, err := store.Get(ctx, key)
			assertErrorIs(t, err, binstore.ErrNotFound)
		}
	})
}
