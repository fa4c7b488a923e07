package domain

import (
	"fmt"
	"sort"
)

// PartType identifies how a construct part is edited and rendered
type PartType int

const (
	PartTypeText           PartType = 1
	PartTypeHTML           PartType = 2
	PartTypeTextShort      PartType = 3
	PartTypeURLPage        PartType = 4
	PartTypeURLImage       PartType = 6
	PartTypeURLFile        PartType = 8
	PartTypeTagPage        PartType = 11
	PartTypeHTMLLong       PartType = 21
	PartTypeSelectSingle   PartType = 29
	PartTypeSelectMultiple PartType = 30
	PartTypeCheckbox       PartType = 31
	PartTypeDatasource     PartType = 32
	PartTypeVelocity       PartType = 33
	PartTypeNode           PartType = 40
)

var partTypeNames = map[PartType]string{
	PartTypeText:           "TEXT",
	PartTypeHTML:           "HTML",
	PartTypeTextShort:      "STRING",
	PartTypeURLPage:        "URLPAGE",
	PartTypeURLImage:       "URLIMAGE",
	PartTypeURLFile:        "URLFILE",
	PartTypeTagPage:        "TAGPAGE",
	PartTypeHTMLLong:       "RICHTEXT",
	PartTypeSelectSingle:   "SELECTSINGLE",
	PartTypeSelectMultiple: "SELECTMULTIPLE",
	PartTypeCheckbox:       "BOOLEAN",
	PartTypeDatasource:     "DATASOURCE",
	PartTypeVelocity:       "VELOCITY",
	PartTypeNode:           "NODE",
}

// String returns the REST name of the part type
func (p PartType) String() string {
	if name, ok := partTypeNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PARTTYPE_%d", int(p))
}

// IsValid reports whether the part type is known
func (p PartType) IsValid() bool {
	_, ok := partTypeNames[p]
	return ok
}

// ParsePartType inverts String
func ParsePartType(name string) (PartType, error) {
	for t, n := range partTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown part type %q", name)
}

// ReferencedType returns the object type a value of this part points to via ValueRef
func (p PartType) ReferencedType() (ObjectType, bool) {
	switch p {
	case PartTypeURLPage, PartTypeTagPage:
		return TypePage, true
	case PartTypeURLImage:
		return TypeImage, true
	case PartTypeURLFile:
		return TypeFile, true
	case PartTypeSelectSingle, PartTypeSelectMultiple, PartTypeDatasource:
		return TypeDatasource, true
	case PartTypeNode:
		return TypeNode, true
	}
	return 0, false
}

// Construct is a tag type: a named set of parts
type Construct struct {
	Object
	Keyword           string            `json:"keyword"`
	Name              map[string]string `json:"name"`
	Description       map[string]string `json:"description,omitempty"`
	IconName          string            `json:"icon_name,omitempty"`
	MayBeSubtag       bool              `json:"may_be_subtag"`
	MayContainSubtags bool              `json:"may_contain_subtags"`
	CategoryID        int               `json:"category_id,omitempty"`
	Parts             []*Part           `json:"parts,omitempty"`
	NodeIDs           []int             `json:"node_ids,omitempty"`
}

// NewConstruct creates an editable construct
func NewConstruct(keyword string) *Construct {
	return &Construct{
		Object:  newObject(),
		Keyword: keyword,
		Name:    map[string]string{},
	}
}

func (c *Construct) TType() ObjectType { return TypeConstruct }

func (c *Construct) Describe() string { return describe(TypeConstruct, c.ID, c.Keyword) }

// Freeze marks the construct and its parts read-only
func (c *Construct) Freeze() {
	c.Object.Freeze()
	for _, p := range c.Parts {
		p.Freeze()
	}
}

// Copy returns an editable deep copy
func (c *Construct) Copy() *Construct {
	cp := *c
	cp.Object = c.Object.editableCopy()
	cp.Name = copyStringMap(c.Name)
	cp.Description = copyStringMap(c.Description)
	cp.NodeIDs = copyInts(c.NodeIDs)
	cp.Parts = make([]*Part, len(c.Parts))
	for i, p := range c.Parts {
		cp.Parts[i] = p.Copy()
	}
	return &cp
}

func (c *Construct) CopyObject() NodeObject { return c.Copy() }

// DisplayName returns the name in the given language, falling back to english and the keyword
func (c *Construct) DisplayName(lang string) string {
	if n := c.Name[lang]; n != "" {
		return n
	}
	if n := c.Name["en"]; n != "" {
		return n
	}
	return c.Keyword
}

// Part returns the part with the given keyword
func (c *Construct) Part(keyword string) (*Part, bool) {
	for _, p := range c.Parts {
		if p.Keyword == keyword {
			return p, true
		}
	}
	return nil, false
}

// SortedParts returns parts in display order
func (c *Construct) SortedParts() []*Part {
	parts := make([]*Part, len(c.Parts))
	copy(parts, c.Parts)
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].Order < parts[j].Order })
	return parts
}

// SetKeyword changes the keyword
func (c *Construct) SetKeyword(keyword string) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	c.Keyword = keyword
	return nil
}

// SetName sets the name in one language
func (c *Construct) SetName(lang, name string) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	if c.Name == nil {
		c.Name = map[string]string{}
	}
	c.Name[lang] = name
	return nil
}

// SetDescription sets the description in one language
func (c *Construct) SetDescription(lang, desc string) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	if c.Description == nil {
		c.Description = map[string]string{}
	}
	c.Description[lang] = desc
	return nil
}

// SetIconName changes the icon
func (c *Construct) SetIconName(icon string) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	c.IconName = icon
	return nil
}

// SetSubtagFlags changes the nesting flags
func (c *Construct) SetSubtagFlags(mayBeSubtag, mayContainSubtags bool) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	c.MayBeSubtag = mayBeSubtag
	c.MayContainSubtags = mayContainSubtags
	return nil
}

// SetNodeIDs replaces the nodes the construct is assigned to
func (c *Construct) SetNodeIDs(ids []int) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	c.NodeIDs = copyInts(ids)
	return nil
}

// AddPart appends a part, assigning the next order number if unset
func (c *Construct) AddPart(p *Part) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	if _, exists := c.Part(p.Keyword); exists {
		return fmt.Errorf("construct %s already has part %q", c.Keyword, p.Keyword)
	}
	if p.Order == 0 {
		p.Order = len(c.Parts) + 1
	}
	p.ConstructID = c.ID
	c.Parts = append(c.Parts, p)
	return nil
}

// RemovePart drops the part with the keyword
func (c *Construct) RemovePart(keyword string) error {
	if err := c.failReadOnly(c); err != nil {
		return err
	}
	for i, p := range c.Parts {
		if p.Keyword == keyword {
			c.Parts = append(c.Parts[:i], c.Parts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("construct %s has no part %q", c.Keyword, keyword)
}

// IsAssignedTo reports whether the construct may be used in the node
func (c *Construct) IsAssignedTo(nodeID int) bool {
	return containsInt(c.NodeIDs, nodeID)
}

// Validate checks keyword syntax and part consistency
func (c *Construct) Validate() error {
	if !isKeyword(c.Keyword) {
		return fmt.Errorf("invalid construct keyword %q", c.Keyword)
	}
	seen := make(map[string]bool, len(c.Parts))
	for _, p := range c.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("construct %s: %w", c.Keyword, err)
		}
		if seen[p.Keyword] {
			return fmt.Errorf("construct %s: duplicate part keyword %q", c.Keyword, p.Keyword)
		}
		seen[p.Keyword] = true
	}
	return nil
}

// NewTagFor creates an editable tag with an empty value per editable part
func (c *Construct) NewTagFor(name string, kind TagKind) *Tag {
	tag := NewTag(name, c.ID, kind)
	for _, p := range c.Parts {
		v := NewValue(p.Keyword, p.PartType)
		v.PartID = p.ID
		v.Text = p.DefaultValue
		tag.Values[p.Keyword] = v
	}
	return tag
}

// Part is one editable or static field of a construct
type Part struct {
	Object
	ConstructID  int               `json:"construct_id"`
	Keyword      string            `json:"keyword"`
	Name         map[string]string `json:"name,omitempty"`
	PartType     PartType          `json:"part_type"`
	Editable     bool              `json:"editable"`
	Required     bool              `json:"required"`
	Hidden       bool              `json:"hidden"`
	DefaultValue string            `json:"default_value,omitempty"`
	InfoText     string            `json:"info_text,omitempty"`
	InfoInt      int               `json:"info_int,omitempty"`
	DatasourceID int               `json:"datasource_id,omitempty"`
	Order        int               `json:"order"`
}

// NewPart creates an editable part
func NewPart(keyword string, partType PartType) *Part {
	return &Part{
		Object:   newObject(),
		Keyword:  keyword,
		PartType: partType,
		Editable: true,
	}
}

func (p *Part) TType() ObjectType { return TypePart }

func (p *Part) Describe() string { return describe(TypePart, p.ID, p.Keyword) }

// Copy returns an editable copy
func (p *Part) Copy() *Part {
	c := *p
	c.Object = p.Object.editableCopy()
	c.Name = copyStringMap(p.Name)
	return &c
}

func (p *Part) CopyObject() NodeObject { return p.Copy() }

// SetRequired changes the required flag
func (p *Part) SetRequired(required bool) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.Required = required
	return nil
}

// SetDefaultValue changes the default text
func (p *Part) SetDefaultValue(value string) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.DefaultValue = value
	return nil
}

// SetHidden changes the hidden flag
func (p *Part) SetHidden(hidden bool) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.Hidden = hidden
	return nil
}

// Validate checks keyword and type
func (p *Part) Validate() error {
	if !isKeyword(p.Keyword) {
		return fmt.Errorf("invalid part keyword %q", p.Keyword)
	}
	if !p.PartType.IsValid() {
		return fmt.Errorf("part %s: unknown part type %d", p.Keyword, int(p.PartType))
	}
	if (p.PartType == PartTypeSelectSingle || p.PartType == PartTypeSelectMultiple) && p.DatasourceID == 0 {
		return fmt.Errorf("part %s: select parts need a datasource", p.Keyword)
	}
	return nil
}
