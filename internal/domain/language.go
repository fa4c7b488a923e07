package domain

import (
	"fmt"
	"strings"
)

// ContentLanguage is a language pages can be translated into
type ContentLanguage struct {
	Object
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewContentLanguage creates an editable language
func NewContentLanguage(code, name string) *ContentLanguage {
	return &ContentLanguage{Object: newObject(), Code: code, Name: name}
}

func (l *ContentLanguage) TType() ObjectType { return TypeContentLanguage }

func (l *ContentLanguage) Describe() string { return describe(TypeContentLanguage, l.ID, l.Code) }

// Copy returns an editable copy
func (l *ContentLanguage) Copy() *ContentLanguage {
	c := *l
	c.Object = l.Object.editableCopy()
	return &c
}

func (l *ContentLanguage) CopyObject() NodeObject { return l.Copy() }

// SetName changes the display name
func (l *ContentLanguage) SetName(name string) error {
	if err := l.failReadOnly(l); err != nil {
		return err
	}
	l.Name = name
	return nil
}

// Validate checks the language code
func (l *ContentLanguage) Validate() error {
	code := strings.TrimSpace(l.Code)
	if len(code) < 2 || len(code) > 5 {
		return fmt.Errorf("invalid language code %q", l.Code)
	}
	return nil
}

// ObjectTagDefinition defines an object property available for a target type
type ObjectTagDefinition struct {
	Object
	Keyword              string            `json:"keyword"`
	Name                 map[string]string `json:"name"`
	Description          map[string]string `json:"description,omitempty"`
	TargetType           ObjectType        `json:"target_type"`
	ConstructID          int               `json:"construct_id"`
	Required             bool              `json:"required"`
	InheritableByDefault bool              `json:"inheritable"`
	NodeIDs              []int             `json:"node_ids,omitempty"`
}

// NewObjectTagDefinition creates an editable object property definition
func NewObjectTagDefinition(keyword string, target ObjectType, constructID int) *ObjectTagDefinition {
	return &ObjectTagDefinition{
		Object:      newObject(),
		Keyword:     strings.TrimPrefix(keyword, ObjectTagPrefix),
		Name:        map[string]string{},
		TargetType:  target,
		ConstructID: constructID,
	}
}

func (d *ObjectTagDefinition) TType() ObjectType { return TypeObjectTagDefinition }

func (d *ObjectTagDefinition) Describe() string {
	return describe(TypeObjectTagDefinition, d.ID, d.Keyword)
}

// Copy returns an editable copy
func (d *ObjectTagDefinition) Copy() *ObjectTagDefinition {
	c := *d
	c.Object = d.Object.editableCopy()
	c.Name = copyStringMap(d.Name)
	c.Description = copyStringMap(d.Description)
	c.NodeIDs = copyInts(d.NodeIDs)
	return &c
}

func (d *ObjectTagDefinition) CopyObject() NodeObject { return d.Copy() }

// TagName returns the name of tags created from this definition
func (d *ObjectTagDefinition) TagName() string { return ObjectTagPrefix + d.Keyword }

// SetRequired changes the required flag
func (d *ObjectTagDefinition) SetRequired(required bool) error {
	if err := d.failReadOnly(d); err != nil {
		return err
	}
	d.Required = required
	return nil
}

// SetInheritable changes whether folder object tags are inherited by default
func (d *ObjectTagDefinition) SetInheritable(inheritable bool) error {
	if err := d.failReadOnly(d); err != nil {
		return err
	}
	d.InheritableByDefault = inheritable
	return nil
}

// Validate checks keyword and target type
func (d *ObjectTagDefinition) Validate() error {
	if !isKeyword(d.Keyword) {
		return fmt.Errorf("invalid object property keyword %q", d.Keyword)
	}
	switch d.TargetType {
	case TypeFolder, TypePage, TypeTemplate, TypeFile, TypeImage, TypeNode:
	default:
		return fmt.Errorf("object properties cannot target %s", d.TargetType)
	}
	if d.ConstructID == 0 {
		return fmt.Errorf("object property %s has no construct", d.Keyword)
	}
	return nil
}
