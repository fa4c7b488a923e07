package domain

import (
	"fmt"
	"strings"
)

// Template holds the markup pages are rendered with
type Template struct {
	Object
	Channelling
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Source         string          `json:"source"`
	MarkupLanguage string          `json:"markup_language"`
	FolderIDs      []int           `json:"folder_ids,omitempty"`
	Tags           map[string]*Tag `json:"tags,omitempty"`
	ObjectTags     map[string]*Tag `json:"object_tags,omitempty"`
	Locked         bool            `json:"locked"`
}

// NewTemplate creates an editable master template
func NewTemplate(name, source string, nodeID int) *Template {
	return &Template{
		Object:         newObject(),
		Channelling:    Channelling{Master: true, NodeID: nodeID},
		Name:           name,
		Source:         source,
		MarkupLanguage: "html",
		Tags:           make(map[string]*Tag),
		ObjectTags:     make(map[string]*Tag),
	}
}

func (t *Template) TType() ObjectType { return TypeTemplate }

func (t *Template) Describe() string { return describe(TypeTemplate, t.ID, t.Name) }

// Freeze marks the template and its tags read-only
func (t *Template) Freeze() {
	t.Object.Freeze()
	freezeTags(t.Tags)
	freezeTags(t.ObjectTags)
}

// Copy returns an editable deep copy
func (t *Template) Copy() *Template {
	c := *t
	c.Object = t.Object.editableCopy()
	c.FolderIDs = copyInts(t.FolderIDs)
	c.Tags = copyTags(t.Tags)
	c.ObjectTags = copyTags(t.ObjectTags)
	return &c
}

func (t *Template) CopyObject() NodeObject { return t.Copy() }

// ChildTags returns template tags and object tags
func (t *Template) ChildTags() []*Tag { return sortedTags(t.Tags, t.ObjectTags) }

// Tag returns the template tag with the given name
func (t *Template) Tag(name string) (*Tag, bool) {
	if strings.HasPrefix(name, ObjectTagPrefix) {
		tag, ok := t.ObjectTags[name]
		return tag, ok
	}
	tag, ok := t.Tags[name]
	return tag, ok
}

// EditableTags returns the template tags pages may fill in
func (t *Template) EditableTags() []*Tag {
	var out []*Tag
	for _, tag := range sortedTags(t.Tags) {
		if tag.EditableInPage {
			out = append(out, tag)
		}
	}
	return out
}

// IsLinkedTo reports whether the template is linked to the folder
func (t *Template) IsLinkedTo(folderID int) bool { return containsInt(t.FolderIDs, folderID) }

// SetName changes the name
func (t *Template) SetName(name string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.Name = name
	return nil
}

// SetDescription changes the description
func (t *Template) SetDescription(desc string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.Description = desc
	return nil
}

// SetSource changes the template markup
func (t *Template) SetSource(source string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.Source = source
	return nil
}

// SetMarkupLanguage changes the markup language
func (t *Template) SetMarkupLanguage(ml string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.MarkupLanguage = ml
	return nil
}

// SetLocked changes the lock flag
func (t *Template) SetLocked(locked bool) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.Locked = locked
	return nil
}

// LinkFolder links the template to a folder
func (t *Template) LinkFolder(folderID int) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	if !t.IsLinkedTo(folderID) {
		t.FolderIDs = append(t.FolderIDs, folderID)
	}
	return nil
}

// AddTag adds a template or object tag
func (t *Template) AddTag(tag *Tag) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	if tag.Kind == TagKindObject || strings.HasPrefix(tag.Name, ObjectTagPrefix) {
		return addTag(&t.ObjectTags, tag, TagKindObject, TypeTemplate, t.ID)
	}
	return addTag(&t.Tags, tag, TagKindTemplate, TypeTemplate, t.ID)
}

// RemoveTag removes a template or object tag
func (t *Template) RemoveTag(name string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	if _, ok := t.Tags[name]; ok {
		delete(t.Tags, name)
		return nil
	}
	if _, ok := t.ObjectTags[name]; ok {
		delete(t.ObjectTags, name)
		return nil
	}
	return fmt.Errorf("template %d has no tag %q", t.ID, name)
}

// Validate checks required fields
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name required")
	}
	for _, tag := range t.ChildTags() {
		if err := tag.Validate(); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
	}
	return nil
}
