package domain

import "fmt"

// NewEmpty returns a zero instance of the type, used when decoding stored objects
func NewEmpty(t ObjectType) (NodeObject, error) {
	switch t {
	case TypeNode:
		return &Node{}, nil
	case TypeFolder:
		return &Folder{}, nil
	case TypePage:
		return &Page{}, nil
	case TypeTemplate:
		return &Template{}, nil
	case TypeFile:
		return &File{}, nil
	case TypeImage:
		return &Image{}, nil
	case TypeConstruct:
		return &Construct{}, nil
	case TypeDatasource:
		return &Datasource{}, nil
	case TypeSystemUser:
		return &SystemUser{}, nil
	case TypeUserGroup:
		return &UserGroup{}, nil
	case TypeContentLanguage:
		return &ContentLanguage{}, nil
	case TypeObjectTagDefinition:
		return &ObjectTagDefinition{}, nil
	}
	return nil, fmt.Errorf("%s is not stored as a standalone object", t)
}

// IsStandalone reports whether objects of the type are stored on their own
func IsStandalone(t ObjectType) bool {
	_, err := NewEmpty(t)
	return err == nil
}

// IsLocalizable reports whether objects of the type have channel variants
func IsLocalizable(t ObjectType) bool {
	switch t {
	case TypeFolder, TypePage, TypeTemplate, TypeFile, TypeImage:
		return true
	}
	return false
}

// TagContainer is implemented by objects owning tags
type TagContainer interface {
	NodeObject
	ChildTags() []*Tag
}

// AsLocalizable returns the object as LocalizableNodeObject if it has channel variants
func AsLocalizable(obj NodeObject) (LocalizableNodeObject, bool) {
	if obj == nil || !IsLocalizable(obj.TType()) {
		return nil, false
	}
	l, ok := obj.(LocalizableNodeObject)
	return l, ok
}

// AsDisinheritable returns the object as Disinheritable if it supports disinheritance
func AsDisinheritable(obj NodeObject) (Disinheritable, bool) {
	if obj == nil || !IsLocalizable(obj.TType()) {
		return nil, false
	}
	d, ok := obj.(Disinheritable)
	return d, ok
}

// ResetIdentity clears the local ID and assigns a fresh global ID to the
// object and its tags, so that it is stored as a new object
func ResetIdentity(obj NodeObject) {
	b := baseOf(obj)
	if b == nil {
		return
	}
	b.ID = 0
	b.GlobalID = NewGlobalID()
	c, ok := obj.(TagContainer)
	if !ok {
		return
	}
	for _, tag := range c.ChildTags() {
		tag.ID = 0
		tag.GlobalID = NewGlobalID()
		tag.ContainerID = 0
		for _, v := range tag.Values {
			v.ID = 0
			v.GlobalID = NewGlobalID()
		}
	}
}
