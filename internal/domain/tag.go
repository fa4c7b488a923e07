package domain

import (
	"fmt"
	"sort"
	"strings"
)

// TagKind distinguishes the containers a tag can live in
type TagKind string

const (
	TagKindContent  TagKind = "content"
	TagKindTemplate TagKind = "template"
	TagKindObject   TagKind = "object"
)

// ObjectTagPrefix prefixes the names of object tags
const ObjectTagPrefix = "object."

// Tag is an instance of a construct inside a page, template or other container
type Tag struct {
	Object
	Name          string            `json:"name"`
	ConstructID   int               `json:"construct_id"`
	Kind          TagKind           `json:"kind"`
	Enabled       bool              `json:"enabled"`
	ContainerType ObjectType        `json:"container_type"`
	ContainerID   int               `json:"container_id"`
	Values        map[string]*Value `json:"values,omitempty"`

	// EditableInPage marks template tags that pages may fill in
	EditableInPage bool `json:"editable_in_page,omitempty"`
	// Mandatory template tags must be filled by pages
	Mandatory bool `json:"mandatory,omitempty"`
	// InheritedFrom is the folder an inherited object tag comes from
	InheritedFrom int `json:"inherited_from,omitempty"`
}

// NewTag creates an editable tag for a construct
func NewTag(name string, constructID int, kind TagKind) *Tag {
	return &Tag{
		Object:      newObject(),
		Name:        name,
		ConstructID: constructID,
		Kind:        kind,
		Enabled:     true,
		Values:      make(map[string]*Value),
	}
}

// TType returns the type code matching the tag kind
func (t *Tag) TType() ObjectType {
	switch t.Kind {
	case TagKindTemplate:
		return TypeTemplateTag
	case TagKindObject:
		return TypeObjectTag
	default:
		return TypeContentTag
	}
}

func (t *Tag) Describe() string { return describe(t.TType(), t.ID, t.Name) }

// IsContentTag reports whether the tag belongs to a page
func (t *Tag) IsContentTag() bool { return t.Kind == TagKindContent }

// IsTemplateTag reports whether the tag belongs to a template
func (t *Tag) IsTemplateTag() bool { return t.Kind == TagKindTemplate }

// IsObjectTag reports whether the tag is an object property
func (t *Tag) IsObjectTag() bool { return t.Kind == TagKindObject }

// Freeze marks the tag and its values read-only
func (t *Tag) Freeze() {
	t.Object.Freeze()
	for _, v := range t.Values {
		v.Freeze()
	}
}

// Copy returns an editable deep copy
func (t *Tag) Copy() *Tag {
	c := *t
	c.Object = t.Object.editableCopy()
	c.Values = make(map[string]*Value, len(t.Values))
	for k, v := range t.Values {
		c.Values[k] = v.Copy()
	}
	return &c
}

func (t *Tag) CopyObject() NodeObject { return t.Copy() }

// Value returns the value filled for a part keyword
func (t *Tag) Value(keyword string) (*Value, bool) {
	if t.Values == nil {
		return nil, false
	}
	v, ok := t.Values[keyword]
	return v, ok
}

// ValueKeywords returns the part keywords with values, sorted
func (t *Tag) ValueKeywords() []string {
	keys := make([]string, 0, len(t.Values))
	for k := range t.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SameContent reports whether both tags render the same: same construct,
// enabled flag and part values
func (t *Tag) SameContent(o *Tag) bool {
	if t.ConstructID != o.ConstructID || t.Enabled != o.Enabled || len(t.Values) != len(o.Values) {
		return false
	}
	for kw, v := range t.Values {
		ov, ok := o.Values[kw]
		if !ok || v.PartType != ov.PartType || v.Text != ov.Text || v.Info != ov.Info || v.ValueRef != ov.ValueRef {
			return false
		}
	}
	return true
}

// SetName renames the tag
func (t *Tag) SetName(name string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.Name = name
	return nil
}

// SetEnabled toggles whether the tag renders
func (t *Tag) SetEnabled(enabled bool) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.Enabled = enabled
	return nil
}

// SetConstructID changes the construct of the tag
func (t *Tag) SetConstructID(id int) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	t.ConstructID = id
	return nil
}

// SetValue fills the text of the value for a part, creating it if needed
func (t *Tag) SetValue(keyword, text string) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	if t.Values == nil {
		t.Values = make(map[string]*Value)
	}
	v, ok := t.Values[keyword]
	if !ok {
		v = NewValue(keyword, PartTypeText)
		t.Values[keyword] = v
	}
	return v.SetText(text)
}

// PutValue stores a value under its part keyword
func (t *Tag) PutValue(v *Value) error {
	if err := t.failReadOnly(t); err != nil {
		return err
	}
	if v.PartKeyword == "" {
		return fmt.Errorf("value without part keyword")
	}
	if t.Values == nil {
		t.Values = make(map[string]*Value)
	}
	t.Values[v.PartKeyword] = v
	return nil
}

// Validate checks the tag name
func (t *Tag) Validate() error {
	name := t.Name
	if t.Kind == TagKindObject {
		if !strings.HasPrefix(name, ObjectTagPrefix) {
			return fmt.Errorf("object tag %q must start with %q", name, ObjectTagPrefix)
		}
		name = strings.TrimPrefix(name, ObjectTagPrefix)
	}
	if !isKeyword(name) {
		return fmt.Errorf("invalid tag name %q", t.Name)
	}
	if t.ConstructID == 0 {
		return fmt.Errorf("tag %q has no construct", t.Name)
	}
	return nil
}

// Value is the content of one part inside a tag
type Value struct {
	Object
	PartID      int      `json:"part_id"`
	PartKeyword string   `json:"part_keyword"`
	PartType    PartType `json:"part_type"`
	Text        string   `json:"text,omitempty"`
	Info        int      `json:"info,omitempty"`
	// ValueRef references another object (page, file, datasource entry) depending on the part type
	ValueRef int `json:"value_ref,omitempty"`
}

// NewValue creates an editable value for a part
func NewValue(keyword string, partType PartType) *Value {
	return &Value{
		Object:      newObject(),
		PartKeyword: keyword,
		PartType:    partType,
	}
}

func (v *Value) TType() ObjectType { return TypeValue }

func (v *Value) Describe() string { return describe(TypeValue, v.ID, v.PartKeyword) }

// Copy returns an editable copy
func (v *Value) Copy() *Value {
	c := *v
	c.Object = v.Object.editableCopy()
	return &c
}

func (v *Value) CopyObject() NodeObject { return v.Copy() }

// SetText changes the text content
func (v *Value) SetText(text string) error {
	if err := v.failReadOnly(v); err != nil {
		return err
	}
	v.Text = text
	return nil
}

// SetInfo changes the numeric info field
func (v *Value) SetInfo(info int) error {
	if err := v.failReadOnly(v); err != nil {
		return err
	}
	v.Info = info
	return nil
}

// SetValueRef changes the referenced object
func (v *Value) SetValueRef(ref int) error {
	if err := v.failReadOnly(v); err != nil {
		return err
	}
	v.ValueRef = ref
	return nil
}

// IsEmpty reports whether nothing was filled in
func (v *Value) IsEmpty() bool {
	return v.Text == "" && v.ValueRef == 0 && v.Info == 0
}

func copyTags(in map[string]*Tag) map[string]*Tag {
	if in == nil {
		return nil
	}
	out := make(map[string]*Tag, len(in))
	for k, t := range in {
		out[k] = t.Copy()
	}
	return out
}

func freezeTags(tags map[string]*Tag) {
	for _, t := range tags {
		t.Freeze()
	}
}

func sortedTags(groups ...map[string]*Tag) []*Tag {
	var out []*Tag
	for _, g := range groups {
		for _, t := range g {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isKeyword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
