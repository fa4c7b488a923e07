package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectType is the type code of a content object
type ObjectType int

const (
	TypeUserGroup           ObjectType = 6
	TypeSystemUser          ObjectType = 10
	TypeObjectTagDefinition ObjectType = 109
	TypeNode                ObjectType = 10001
	TypeFolder              ObjectType = 10002
	TypeConstruct           ObjectType = 10004
	TypeTemplate            ObjectType = 10006
	TypePage                ObjectType = 10007
	TypeFile                ObjectType = 10008
	TypeImage               ObjectType = 10011
	TypeContentLanguage     ObjectType = 10023
	TypeDatasource          ObjectType = 10024
	TypeDatasourceEntry     ObjectType = 10025
	TypeValue               ObjectType = 10027
	TypePart                ObjectType = 10029
	TypeContentTag          ObjectType = 10111
	TypeTemplateTag         ObjectType = 10112
	TypeObjectTag           ObjectType = 10113
)

var typeNames = map[ObjectType]string{
	TypeUserGroup:           "group",
	TypeSystemUser:          "user",
	TypeObjectTagDefinition: "objectproperty",
	TypeNode:                "node",
	TypeFolder:              "folder",
	TypeConstruct:           "construct",
	TypeTemplate:            "template",
	TypePage:                "page",
	TypeFile:                "file",
	TypeImage:               "image",
	TypeContentLanguage:     "language",
	TypeDatasource:          "datasource",
	TypeDatasourceEntry:     "datasourceentry",
	TypeValue:               "value",
	TypePart:                "part",
	TypeContentTag:          "contenttag",
	TypeTemplateTag:         "templatetag",
	TypeObjectTag:           "objecttag",
}

// String returns the REST name of the type
func (t ObjectType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseObjectType returns the type for a REST name
func ParseObjectType(name string) (ObjectType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown object type %q", name)
}

// ObjectTypes returns all known types ordered by code
func ObjectTypes() []ObjectType {
	types := make([]ObjectType, 0, len(typeNames))
	for t := range typeNames {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// GlobalID identifies an object across installations
type GlobalID string

// NewGlobalID generates a fresh global ID
func NewGlobalID() GlobalID {
	return GlobalID(uuid.NewString())
}

// legacyGlobalID matches the "<prefix>.<counter>" IDs of imported packages, like A547.7
var legacyGlobalID = regexp.MustCompile(`^[0-9A-Fa-f]+\.[0-9]+$`)

// IsValid reports whether the global ID parses as a UUID or has the
// prefix.counter form
func (g GlobalID) IsValid() bool {
	if _, err := uuid.Parse(string(g)); err == nil {
		return true
	}
	return legacyGlobalID.MatchString(string(g))
}

// ErrReadOnly is returned when modifying an object that was not copied for editing
var ErrReadOnly = errors.New("object is read-only")

// ReadOnlyError names the object a modification was attempted on
type ReadOnlyError struct {
	Object string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s is read-only, get an editable copy first", e.Object)
}

func (e *ReadOnlyError) Unwrap() error {
	return ErrReadOnly
}

// NodeObject is the contract shared by all content objects
type NodeObject interface {
	GetID() int
	GetGlobalID() GlobalID
	TType() ObjectType
	IsEditable() bool
	Describe() string
	CopyObject() NodeObject
	Freeze()
}

// Object holds the identity and audit fields common to all content objects
type Object struct {
	ID        int       `json:"id"`
	GlobalID  GlobalID  `json:"global_id"`
	CreatorID int       `json:"creator_id,omitempty"`
	EditorID  int       `json:"editor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	EditedAt  time.Time `json:"edited_at"`

	editable bool
}

func newObject() Object {
	now := time.Now()
	return Object{
		GlobalID:  NewGlobalID(),
		CreatedAt: now,
		EditedAt:  now,
		editable:  true,
	}
}

// GetID returns the local ID (0 until saved)
func (o *Object) GetID() int { return o.ID }

// GetGlobalID returns the global ID
func (o *Object) GetGlobalID() GlobalID { return o.GlobalID }

// IsEditable reports whether setters may be called
func (o *Object) IsEditable() bool { return o.editable }

// Freeze marks the instance read-only
func (o *Object) Freeze() { o.editable = false }

// IsNew reports whether the object has not been saved yet
func (o *Object) IsNew() bool { return o.ID == 0 }

// editableCopy returns a copy of the base with the editable flag set
func (o Object) editableCopy() Object {
	o.editable = true
	return o
}

// failReadOnly returns a ReadOnlyError unless the instance is editable
func (o *Object) failReadOnly(obj NodeObject) error {
	if o.editable {
		return nil
	}
	return &ReadOnlyError{Object: obj.Describe()}
}

// CheckEditable returns a ReadOnlyError for objects that are not editable
func CheckEditable(obj NodeObject) error {
	if obj == nil || obj.IsEditable() {
		return nil
	}
	return &ReadOnlyError{Object: obj.Describe()}
}

// Touch records an edit by the given user
func Touch(obj NodeObject, userID int, now time.Time) {
	base := baseOf(obj)
	if base == nil {
		return
	}
	if base.CreatorID == 0 && (base.ID == 0 || base.CreatedAt.IsZero()) {
		base.CreatedAt = now
		base.CreatorID = userID
	}
	base.EditedAt = now
	base.EditorID = userID
}

// EditTime returns the last edit time of known entity types
func EditTime(obj NodeObject) time.Time {
	if base := baseOf(obj); base != nil {
		return base.EditedAt
	}
	return time.Time{}
}

// baseOf returns the embedded Object of known entity types
func baseOf(obj NodeObject) *Object {
	if b, ok := obj.(interface{ base() *Object }); ok {
		return b.base()
	}
	return nil
}

func (o *Object) base() *Object { return o }

// AssignID sets the local ID of an unsaved object; used by repositories
func AssignID(obj NodeObject, id int) {
	if b := baseOf(obj); b != nil {
		b.ID = id
	}
}

// EnsureGlobalID assigns a global ID if the object has none
func EnsureGlobalID(obj NodeObject) {
	if b := baseOf(obj); b != nil && b.GlobalID == "" {
		b.GlobalID = NewGlobalID()
	}
}

func describe(t ObjectType, id int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s %d", t, id)
	}
	return fmt.Sprintf("%s %d (%s)", t, id, name)
}

func copyInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
