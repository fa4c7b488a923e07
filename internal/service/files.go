package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"contentnode/internal/binstore"
	"contentnode/internal/domain"
)

// FileService stores the binary contents of files and images
type FileService struct {
	objects *ObjectService
	store   binstore.Store
}

// NewFileService creates a new file service
func NewFileService(objects *ObjectService, store binstore.Store) *FileService {
	return &FileService{objects: objects, store: store}
}

type binaryObject interface {
	domain.NodeObject
	BinaryKey() string
}

func fileOf(obj domain.NodeObject) (*domain.File, binaryObject, error) {
	switch o := obj.(type) {
	case *domain.File:
		return o, o, nil
	case *domain.Image:
		return &o.File, o, nil
	}
	return nil, nil, fmt.Errorf("%w: %s has no binary content", ErrInvalid, obj.Describe())
}

// Upload stores the content of the file or image and records its size,
// checksum and type. An empty content type is derived from the file name.
func (s *FileService) Upload(ctx context.Context, t domain.ObjectType, id int, r io.Reader, size int64, contentType string) (domain.NodeObject, error) {
	obj, err := s.objects.repo.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	f, bin, err := fileOf(obj)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(f.Name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.store.Put(ctx, bin.BinaryKey(), r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store content of %s: %w", obj.Describe(), err)
	}

	return s.objects.Update(ctx, t, id, func(edit domain.NodeObject) error {
		ef, _, err := fileOf(edit)
		if err != nil {
			return err
		}
		if err := ef.SetContentInfo(info.Size, info.MD5); err != nil {
			return err
		}
		return ef.SetFileType(info.ContentType)
	})
}

// Download opens the content of the file or image as seen from the channel
// of the context. Localized copies without own content fall back to the master's.
func (s *FileService) Download(ctx context.Context, t domain.ObjectType, id int) (io.ReadCloser, *domain.File, error) {
	obj, err := s.objects.Load(ctx, t, id)
	if err != nil {
		return nil, nil, err
	}
	f, bin, err := fileOf(obj)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, bin.BinaryKey())
	if errors.Is(err, binstore.ErrNotFound) && !f.IsMaster() {
		variants, verr := s.objects.repo.ChannelSet(ctx, t, f.ChannelSetID)
		if verr != nil {
			return nil, nil, verr
		}
		for _, v := range variants {
			if l, ok := domain.AsLocalizable(v); ok && l.IsMaster() {
				if mb, ok := v.(binaryObject); ok {
					rc, err = s.store.Get(ctx, mb.BinaryKey())
				}
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

// Delete removes the file or image together with its content
func (s *FileService) Delete(ctx context.Context, t domain.ObjectType, id int) error {
	obj, err := s.objects.repo.Get(ctx, t, id)
	if err != nil {
		return err
	}
	if _, _, err := fileOf(obj); err != nil {
		return err
	}

	var keys []string
	if l, ok := domain.AsLocalizable(obj); ok && l.IsMaster() {
		variants, err := s.objects.repo.ChannelSet(ctx, t, l.ChannelInfo().ChannelSetID)
		if err != nil {
			return err
		}
		for _, v := range variants {
			if b, ok := v.(binaryObject); ok {
				keys = append(keys, b.BinaryKey())
			}
		}
	}
	if len(keys) == 0 {
		keys = append(keys, obj.(binaryObject).BinaryKey())
	}

	if err := s.objects.Delete(ctx, t, id); err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, binstore.ErrNotFound) {
			s.objects.logger.Warn("Failed to delete binary content", "key", key, "error", err)
		}
	}
	return nil
}
