package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Codec reads and writes package documents in one format
type Codec interface {
	Decode(r io.Reader, v any) error
	Encode(w io.Writer, v any) error
	Format() string
	// Extension is the file extension including the dot
	Extension() string
}

// ForFormat returns the codec for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ForPath picks the codec by file extension
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, fmt.Errorf("no format for %s", path)
	}
	return ForFormat(ext)
}

// Extensions lists the file extensions of all supported formats
func Extensions() []string {
	return []string{".json", ".yaml", ".yml"}
}
