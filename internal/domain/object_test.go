package domain

import (
	"errors"
	"testing"
	"time"
)

func TestObjectTypeNames(t *testing.T) {
	tests := []struct {
		t    ObjectType
		name string
	}{
		{TypePage, "page"},
		{TypeFolder, "folder"},
		{TypeSystemUser, "user"},
		{TypeUserGroup, "group"},
		{TypeContentTag, "contenttag"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.name {
			t.Errorf("ObjectType(%d).String() = %s, want %s", int(tt.t), got, tt.name)
		}
		parsed, err := ParseObjectType(tt.name)
		if err != nil {
			t.Fatalf("ParseObjectType(%s): %v", tt.name, err)
		}
		if parsed != tt.t {
			t.Errorf("ParseObjectType(%s) = %d, want %d", tt.name, parsed, tt.t)
		}
	}

	if _, err := ParseObjectType("spaceship"); err == nil {
		t.Error("expected error for unknown type")
	}
	if got := ObjectType(4711).String(); got != "type(4711)" {
		t.Errorf("unexpected name for unknown type: %s", got)
	}
}

func TestNewObjectsAreEditable(t *testing.T) {
	objects := []NodeObject{
		NewNode("site", "example.com"),
		NewFolder("news", 1, 1),
		NewPage("Home", 2, 3, 1),
		NewTemplate("default", "<html></html>", 1),
		NewFile("doc.pdf", 2, 1),
		NewImage("logo.png", 2, 1),
		NewConstruct("text"),
		NewDatasource("colors", DatasourceStatic),
		NewSystemUser("jdoe", "John", "Doe"),
		NewUserGroup("editors", 1),
		NewContentLanguage("de", "Deutsch"),
	}

	for _, obj := range objects {
		if !obj.IsEditable() {
			t.Errorf("expected %s to be editable", obj.Describe())
		}
		if !obj.GetGlobalID().IsValid() {
			t.Errorf("expected %s to have a valid global id, got %q", obj.Describe(), obj.GetGlobalID())
		}
	}
}

func TestGlobalIDIsValid(t *testing.T) {
	tests := []struct {
		gid  GlobalID
		want bool
	}{
		{NewGlobalID(), true},
		{"A547.7", true},
		{"3b2c.1", true},
		{"", false},
		{"abc", false},
		{"A547.", false},
		{"../A547.7", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.gid), func(t *testing.T) {
			if got := tt.gid.IsValid(); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.gid, got, tt.want)
			}
		})
	}
}

func TestFreezeAndCopy(t *testing.T) {
	page := NewPage("Home", 2, 3, 1)
	page.ID = 42
	tag := NewTag("content", 7, TagKindContent)
	if err := page.AddTag(tag); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if err := tag.SetValue("text", "hello"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	page.Freeze()

	t.Run("setters fail on frozen page", func(t *testing.T) {
		err := page.SetName("Other")
		if !errors.Is(err, ErrReadOnly) {
			t.Fatalf("expected ErrReadOnly, got %v", err)
		}
		var roErr *ReadOnlyError
		if !errors.As(err, &roErr) {
			t.Fatalf("expected *ReadOnlyError, got %T", err)
		}
		if roErr.Object != "page 42 (Home)" {
			t.Errorf("unexpected object description %q", roErr.Object)
		}
	})

	t.Run("freeze cascades to tags and values", func(t *testing.T) {
		if err := page.Tags["content"].SetValue("text", "changed"); !errors.Is(err, ErrReadOnly) {
			t.Errorf("expected tag to be read-only, got %v", err)
		}
		v, _ := page.Tags["content"].Value("text")
		if err := v.SetText("changed"); !errors.Is(err, ErrReadOnly) {
			t.Errorf("expected value to be read-only, got %v", err)
		}
	})

	t.Run("copy is editable and independent", func(t *testing.T) {
		edit := page.Copy()
		if !edit.IsEditable() {
			t.Fatal("expected copy to be editable")
		}
		if edit.ID != page.ID || edit.GlobalID != page.GlobalID {
			t.Error("expected copy to keep identity")
		}
		if err := edit.Tags["content"].SetValue("text", "changed"); err != nil {
			t.Fatalf("SetValue on copy: %v", err)
		}
		orig, _ := page.Tags["content"].Value("text")
		if orig.Text != "hello" {
			t.Errorf("expected original value untouched, got %q", orig.Text)
		}
	})
}

func TestCheckEditable(t *testing.T) {
	folder := NewFolder("news", 1, 1)
	if err := CheckEditable(folder); err != nil {
		t.Errorf("expected nil for editable folder, got %v", err)
	}
	folder.Freeze()
	if err := CheckEditable(folder); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if err := CheckEditable(nil); err != nil {
		t.Errorf("expected nil for nil object, got %v", err)
	}
}

func TestTouch(t *testing.T) {
	page := &Page{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	Touch(page, 3, now)

	if page.CreatorID != 3 || page.EditorID != 3 {
		t.Errorf("expected creator and editor 3, got %d/%d", page.CreatorID, page.EditorID)
	}
	if !page.CreatedAt.Equal(now) || !page.EditedAt.Equal(now) {
		t.Error("expected timestamps to be set")
	}

	later := now.Add(time.Hour)
	Touch(page, 5, later)
	if page.CreatorID != 3 {
		t.Errorf("expected creator to stay 3, got %d", page.CreatorID)
	}
	if page.EditorID != 5 || !page.EditedAt.Equal(later) {
		t.Error("expected editor and edit time to change")
	}
}

func TestAssignIDAndGlobalID(t *testing.T) {
	img := &Image{}
	AssignID(img, 9)
	EnsureGlobalID(img)
	if img.ID != 9 {
		t.Errorf("expected ID 9, got %d", img.ID)
	}
	if img.GlobalID == "" {
		t.Error("expected global id to be assigned")
	}
	gid := img.GlobalID
	EnsureGlobalID(img)
	if img.GlobalID != gid {
		t.Error("expected existing global id to be kept")
	}
}

func TestNewEmpty(t *testing.T) {
	for _, typ := range []ObjectType{TypePage, TypeFolder, TypeImage, TypeSystemUser} {
		obj, err := NewEmpty(typ)
		if err != nil {
			t.Fatalf("NewEmpty(%s): %v", typ, err)
		}
		if obj.TType() != typ {
			t.Errorf("NewEmpty(%s) returned %s", typ, obj.TType())
		}
		if obj.IsEditable() {
			t.Errorf("expected empty %s to be read-only", typ)
		}
	}
	if _, err := NewEmpty(TypeContentTag); err == nil {
		t.Error("expected tags not to be standalone")
	}
}

func TestAsLocalizable(t *testing.T) {
	if _, ok := AsLocalizable(NewPage("p", 1, 1, 1)); !ok {
		t.Error("expected page to be localizable")
	}
	if _, ok := AsDisinheritable(NewTemplate("t", "", 1)); ok {
		t.Error("expected template not to be disinheritable")
	}
	if _, ok := AsDisinheritable(NewImage("i.png", 1, 1)); !ok {
		t.Error("expected image to be disinheritable")
	}
	if _, ok := AsLocalizable(NewConstruct("c")); ok {
		t.Error("expected construct not to be localizable")
	}
}

func TestResetIdentity(t *testing.T) {
	page := NewPage("Home", 2, 3, 1)
	page.ID = 42
	tag := NewTag("text1", 7, TagKindContent)
	tag.ID = 100
	if err := page.AddTag(tag); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	gid := page.GlobalID
	tagGID := tag.GlobalID

	ResetIdentity(page)

	if page.ID != 0 || page.GlobalID == gid {
		t.Errorf("expected fresh identity, got %d %s", page.ID, page.GlobalID)
	}
	if tag.ID != 0 || tag.ContainerID != 0 || tag.GlobalID == tagGID {
		t.Errorf("expected tag identity to be reset, got %+v", tag)
	}
}
