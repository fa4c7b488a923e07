package codec

import (
	"bytes"
	"strings"
	"testing"
)

type document struct {
	Keyword string            `json:"keyword" yaml:"keyword"`
	Name    map[string]string `json:"name" yaml:"name"`
	Order   int               `json:"order" yaml:"order"`
}

func TestCodecs(t *testing.T) {
	in := document{Keyword: "teaser", Name: map[string]string{"en": "Teaser"}, Order: 2}

	for _, c := range []Codec{NewJSONCodec(), NewYAMLCodec()} {
		t.Run(c.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := c.Encode(&buf, in); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			var out document
			if err := c.Decode(&buf, &out); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if out.Keyword != in.Keyword || out.Name["en"] != "Teaser" || out.Order != 2 {
				t.Errorf("unexpected document %+v", out)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	var out document
	if err := NewJSONCodec().Decode(strings.NewReader("{"), &out); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if err := NewYAMLCodec().Decode(strings.NewReader("keyword: ["), &out); err == nil {
		t.Error("expected error for invalid YAML")
	}
	if err := NewYAMLCodec().Decode(strings.NewReader(""), &out); err != nil {
		t.Errorf("expected empty YAML to decode, got %v", err)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		format  string
		wantErr bool
	}{
		{"constructs/teaser/construct.json", "json", false},
		{"construct.YAML", "yaml", false},
		{"construct.yml", "yaml", false},
		{"source.html", "", true},
		{"README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := ForPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForPath(%s) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err == nil && c.Format() != tt.format {
				t.Errorf("ForPath(%s) = %s, want %s", tt.path, c.Format(), tt.format)
			}
		})
	}
}
