package domain

import (
	"errors"
	"testing"
)

func TestConstructParts(t *testing.T) {
	c := NewConstruct("teaser")
	c.ID = 4

	if err := c.AddPart(NewPart("title", PartTypeTextShort)); err != nil {
		t.Fatalf("AddPart: %v", err)
	}
	if err := c.AddPart(NewPart("body", PartTypeHTMLLong)); err != nil {
		t.Fatalf("AddPart: %v", err)
	}
	if err := c.AddPart(NewPart("title", PartTypeText)); err == nil {
		t.Error("expected duplicate part keyword to fail")
	}

	parts := c.SortedParts()
	if len(parts) != 2 || parts[0].Keyword != "title" || parts[1].Order != 2 {
		t.Errorf("unexpected parts: %+v", parts)
	}
	if parts[0].ConstructID != 4 {
		t.Errorf("expected part to reference construct 4, got %d", parts[0].ConstructID)
	}

	if err := c.RemovePart("body"); err != nil {
		t.Fatalf("RemovePart: %v", err)
	}
	if _, ok := c.Part("body"); ok {
		t.Error("expected body part to be removed")
	}
}

func TestConstructValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Construct
		wantErr bool
	}{
		{"valid", func() *Construct {
			c := NewConstruct("text_block")
			c.Parts = []*Part{NewPart("text", PartTypeText)}
			return c
		}, false},
		{"bad keyword", func() *Construct { return NewConstruct("has space") }, true},
		{"unknown part type", func() *Construct {
			c := NewConstruct("x")
			c.Parts = []*Part{NewPart("p", PartType(999))}
			return c
		}, true},
		{"select without datasource", func() *Construct {
			c := NewConstruct("x")
			c.Parts = []*Part{NewPart("choice", PartTypeSelectSingle)}
			return c
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConstructNewTagFor(t *testing.T) {
	c := NewConstruct("teaser")
	c.ID = 9
	title := NewPart("title", PartTypeTextShort)
	title.DefaultValue = "Untitled"
	c.Parts = []*Part{title}

	tag := c.NewTagFor("teaser1", TagKindContent)
	if tag.ConstructID != 9 {
		t.Errorf("expected construct 9, got %d", tag.ConstructID)
	}
	v, ok := tag.Value("title")
	if !ok || v.Text != "Untitled" {
		t.Errorf("expected default value, got %+v", v)
	}
}

func TestConstructDisplayName(t *testing.T) {
	c := NewConstruct("teaser")
	if got := c.DisplayName("de"); got != "teaser" {
		t.Errorf("expected keyword fallback, got %s", got)
	}
	_ = c.SetName("en", "Teaser")
	_ = c.SetName("de", "Anreißer")
	if got := c.DisplayName("de"); got != "Anreißer" {
		t.Errorf("expected german name, got %s", got)
	}
	if got := c.DisplayName("fr"); got != "Teaser" {
		t.Errorf("expected english fallback, got %s", got)
	}
}

func TestConstructFreezeCascades(t *testing.T) {
	c := NewConstruct("teaser")
	c.Parts = []*Part{NewPart("title", PartTypeText)}
	c.Freeze()

	if err := c.Parts[0].SetRequired(true); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected read-only part, got %v", err)
	}
	edit := c.Copy()
	if err := edit.Parts[0].SetRequired(true); err != nil {
		t.Errorf("expected copied part to be editable, got %v", err)
	}
	if c.Parts[0].Required {
		t.Error("expected original part untouched")
	}
}

func TestPartTypeReferencedType(t *testing.T) {
	if typ, ok := PartTypeURLPage.ReferencedType(); !ok || typ != TypePage {
		t.Errorf("expected URLPAGE to reference pages, got %v %v", typ, ok)
	}
	if _, ok := PartTypeText.ReferencedType(); ok {
		t.Error("expected TEXT to reference nothing")
	}
	pt, err := ParsePartType("RICHTEXT")
	if err != nil || pt != PartTypeHTMLLong {
		t.Errorf("ParsePartType(RICHTEXT) = %v, %v", pt, err)
	}
}

func TestTagValidate(t *testing.T) {
	tests := []struct {
		tag     Tag
		wantErr bool
	}{
		{Tag{Name: "text1", ConstructID: 1, Kind: TagKindContent}, false},
		{Tag{Name: "object.keywords", ConstructID: 1, Kind: TagKindObject}, false},
		{Tag{Name: "keywords", ConstructID: 1, Kind: TagKindObject}, true},
		{Tag{Name: "text1", Kind: TagKindContent}, true},
		{Tag{Name: "", ConstructID: 1, Kind: TagKindTemplate}, true},
	}

	for _, tt := range tests {
		err := tt.tag.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.tag.Name, err, tt.wantErr)
		}
	}
}
