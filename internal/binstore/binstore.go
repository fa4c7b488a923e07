// Package binstore keeps the binary contents of files and images.
package binstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"strings"
)

// ErrNotFound is returned when no content is stored under a key
var ErrNotFound = errors.New("binary content not found")

// Info describes stored content
type Info struct {
	Key         string
	Size        int64
	MD5         string
	ContentType string
}

// Store persists binary contents by key
type Store interface {
	// Put stores the content read from r. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// digestReader counts and hashes everything read through it
type digestReader struct {
	r    io.Reader
	hash hash.Hash
	n    int64
}

func newDigestReader(r io.Reader) *digestReader {
	return &digestReader{r: r, hash: md5.New()}
}

func (d *digestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.hash.Write(p[:n])
		d.n += int64(n)
	}
	return n, err
}

func (d *digestReader) info(key, contentType string) Info {
	return Info{
		Key:         key,
		Size:        d.n,
		MD5:         hex.EncodeToString(d.hash.Sum(nil)),
		ContentType: contentType,
	}
}

// validKey rejects keys escaping the store root
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
