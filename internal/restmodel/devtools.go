package restmodel

import (
	"fmt"

	"contentnode/internal/domain"
)

// Refs maps local IDs to global IDs and back, so devtools packages can
// reference objects across installations
type Refs interface {
	GlobalIDOf(t domain.ObjectType, id int) (domain.GlobalID, error)
	IDOf(t domain.ObjectType, gid domain.GlobalID) (int, error)
}

// DevtoolsConstruct is the content of construct.json
type DevtoolsConstruct struct {
	GlobalID          string            `json:"globalId" yaml:"globalId"`
	Keyword           string            `json:"keyword" yaml:"keyword"`
	Name              map[string]string `json:"name" yaml:"name"`
	Description       map[string]string `json:"description,omitempty" yaml:"description,omitempty"`
	Icon              string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	MayBeSubtag       bool              `json:"mayBeSubtag" yaml:"mayBeSubtag"`
	MayContainSubtags bool              `json:"mayContainSubtags" yaml:"mayContainSubtags"`
	Parts             []DevtoolsPart    `json:"parts" yaml:"parts"`
}

// DevtoolsPart is a construct part inside construct.json
type DevtoolsPart struct {
	GlobalID     string            `json:"globalId" yaml:"globalId"`
	Keyword      string            `json:"keyword" yaml:"keyword"`
	Name         map[string]string `json:"name,omitempty" yaml:"name,omitempty"`
	Type         string            `json:"type" yaml:"type"`
	Editable     bool              `json:"editable" yaml:"editable"`
	Mandatory    bool              `json:"mandatory" yaml:"mandatory"`
	Hidden       bool              `json:"hidden" yaml:"hidden"`
	DefaultValue string            `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	InfoText     string            `json:"infoText,omitempty" yaml:"infoText,omitempty"`
	Datasource   string            `json:"datasource,omitempty" yaml:"datasource,omitempty"`
	Order        int               `json:"order" yaml:"order"`
}

// DevtoolsDatasource is the content of datasource.json
type DevtoolsDatasource struct {
	GlobalID string                    `json:"globalId" yaml:"globalId"`
	Name     string                    `json:"name" yaml:"name"`
	Type     string                    `json:"type" yaml:"type"`
	Values   []DevtoolsDatasourceValue `json:"values" yaml:"values"`
}

// DevtoolsDatasourceValue is one datasource entry
type DevtoolsDatasourceValue struct {
	GlobalID string `json:"globalId" yaml:"globalId"`
	DsID     int    `json:"dsId" yaml:"dsId"`
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
}

// DevtoolsTemplate is the content of gentics_structure.json of a template;
// the source is stored next to it in source.html
type DevtoolsTemplate struct {
	GlobalID       string                `json:"globalId" yaml:"globalId"`
	Name           string                `json:"name" yaml:"name"`
	Description    string                `json:"description,omitempty" yaml:"description,omitempty"`
	MarkupLanguage string                `json:"type" yaml:"type"`
	Source         string                `json:"-" yaml:"-"`
	TemplateTags   []DevtoolsTemplateTag `json:"templateTags" yaml:"templateTags"`
}

// DevtoolsTemplateTag is a template tag referencing its construct by keyword
type DevtoolsTemplateTag struct {
	GlobalID  string            `json:"globalId" yaml:"globalId"`
	Name      string            `json:"name" yaml:"name"`
	Construct string            `json:"constructKeyword" yaml:"constructKeyword"`
	Active    bool              `json:"active" yaml:"active"`
	Editable  bool              `json:"editableInPage" yaml:"editableInPage"`
	Mandatory bool              `json:"mandatory" yaml:"mandatory"`
	Values    map[string]string `json:"values,omitempty" yaml:"values,omitempty"`
}

// DevtoolsObjectProperty is the content of gentics_structure.json of an object property
type DevtoolsObjectProperty struct {
	GlobalID             string            `json:"globalId" yaml:"globalId"`
	Keyword              string            `json:"keyword" yaml:"keyword"`
	Name                 map[string]string `json:"nameI18n" yaml:"nameI18n"`
	Description          map[string]string `json:"descriptionI18n,omitempty" yaml:"descriptionI18n,omitempty"`
	Type                 string            `json:"type" yaml:"type"`
	Construct            string            `json:"constructKeyword" yaml:"constructKeyword"`
	Required             bool              `json:"required" yaml:"required"`
	InheritableByDefault bool              `json:"inheritable" yaml:"inheritable"`
}

// ConstructKeywords resolves construct IDs and keywords in both directions
type ConstructKeywords interface {
	KeywordOf(constructID int) (string, error)
	ConstructID(keyword string) (int, error)
}

// ConstructToDevtools converts a construct for export
func ConstructToDevtools(c *domain.Construct, refs Refs) (*DevtoolsConstruct, error) {
	out := &DevtoolsConstruct{
		GlobalID:          string(c.GlobalID),
		Keyword:           c.Keyword,
		Name:              copyMap(c.Name),
		Description:       copyMap(c.Description),
		Icon:              c.IconName,
		MayBeSubtag:       c.MayBeSubtag,
		MayContainSubtags: c.MayContainSubtags,
	}
	for _, p := range c.SortedParts() {
		dp := DevtoolsPart{
			GlobalID:     string(p.GlobalID),
			Keyword:      p.Keyword,
			Name:         copyMap(p.Name),
			Type:         p.PartType.String(),
			Editable:     p.Editable,
			Mandatory:    p.Required,
			Hidden:       p.Hidden,
			DefaultValue: p.DefaultValue,
			InfoText:     p.InfoText,
			Order:        p.Order,
		}
		if p.DatasourceID != 0 {
			gid, err := refs.GlobalIDOf(domain.TypeDatasource, p.DatasourceID)
			if err != nil {
				return nil, fmt.Errorf("part %s: %w", p.Keyword, err)
			}
			dp.Datasource = string(gid)
		}
		out.Parts = append(out.Parts, dp)
	}
	return out, nil
}

// ConstructFromDevtools applies an imported construct to an editable construct
func ConstructFromDevtools(d *DevtoolsConstruct, c *domain.Construct, refs Refs) error {
	if err := domain.CheckEditable(c); err != nil {
		return err
	}
	if d.GlobalID != "" {
		c.GlobalID = domain.GlobalID(d.GlobalID)
	}
	c.Keyword = d.Keyword
	c.Name = copyMap(d.Name)
	c.Description = copyMap(d.Description)
	c.IconName = d.Icon
	c.MayBeSubtag = d.MayBeSubtag
	c.MayContainSubtags = d.MayContainSubtags

	existing := make(map[string]*domain.Part, len(c.Parts))
	for _, p := range c.Parts {
		existing[p.Keyword] = p
	}
	parts := make([]*domain.Part, 0, len(d.Parts))
	for _, dp := range d.Parts {
		pt, err := domain.ParsePartType(dp.Type)
		if err != nil {
			return fmt.Errorf("part %s: %w", dp.Keyword, err)
		}
		p, ok := existing[dp.Keyword]
		if !ok {
			p = domain.NewPart(dp.Keyword, pt)
		}
		if dp.GlobalID != "" {
			p.GlobalID = domain.GlobalID(dp.GlobalID)
		}
		p.ConstructID = c.ID
		p.Name = copyMap(dp.Name)
		p.PartType = pt
		p.Editable = dp.Editable
		p.Required = dp.Mandatory
		p.Hidden = dp.Hidden
		p.DefaultValue = dp.DefaultValue
		p.InfoText = dp.InfoText
		p.Order = dp.Order
		p.DatasourceID = 0
		if dp.Datasource != "" {
			id, err := refs.IDOf(domain.TypeDatasource, domain.GlobalID(dp.Datasource))
			if err != nil {
				return fmt.Errorf("part %s: datasource %s: %w", dp.Keyword, dp.Datasource, err)
			}
			p.DatasourceID = id
		}
		parts = append(parts, p)
	}
	c.Parts = parts
	return c.Validate()
}

// DatasourceToDevtools converts a datasource for export
func DatasourceToDevtools(d *domain.Datasource) *DevtoolsDatasource {
	out := &DevtoolsDatasource{
		GlobalID: string(d.GlobalID),
		Name:     d.Name,
		Type:     string(d.Type),
	}
	for _, e := range d.SortedEntries() {
		out.Values = append(out.Values, DevtoolsDatasourceValue{
			GlobalID: string(e.GlobalID),
			DsID:     e.DsID,
			Key:      e.Key,
			Value:    e.Value,
		})
	}
	return out
}

// DatasourceFromDevtools applies an imported datasource to an editable datasource
func DatasourceFromDevtools(dd *DevtoolsDatasource, d *domain.Datasource) error {
	if err := domain.CheckEditable(d); err != nil {
		return err
	}
	if dd.GlobalID != "" {
		d.GlobalID = domain.GlobalID(dd.GlobalID)
	}
	d.Name = dd.Name
	d.Type = domain.DatasourceType(dd.Type)
	if d.Type == "" {
		d.Type = domain.DatasourceStatic
	}
	d.Entries = nil
	for i, v := range dd.Values {
		e, err := d.AddEntry(v.Key, v.Value)
		if err != nil {
			return err
		}
		if v.DsID != 0 {
			e.DsID = v.DsID
		}
		if v.GlobalID != "" {
			e.GlobalID = domain.GlobalID(v.GlobalID)
		}
		e.Sort = i + 1
	}
	return d.Validate()
}

// TemplateToDevtools converts a template for export
func TemplateToDevtools(t *domain.Template, constructs ConstructKeywords) (*DevtoolsTemplate, error) {
	out := &DevtoolsTemplate{
		GlobalID:       string(t.GlobalID),
		Name:           t.Name,
		Description:    t.Description,
		MarkupLanguage: t.MarkupLanguage,
		Source:         t.Source,
	}
	for _, tag := range t.ChildTags() {
		if !tag.IsTemplateTag() {
			continue
		}
		kw, err := constructs.KeywordOf(tag.ConstructID)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag.Name, err)
		}
		dt := DevtoolsTemplateTag{
			GlobalID:  string(tag.GlobalID),
			Name:      tag.Name,
			Construct: kw,
			Active:    tag.Enabled,
			Editable:  tag.EditableInPage,
			Mandatory: tag.Mandatory,
		}
		for _, vk := range tag.ValueKeywords() {
			if v := tag.Values[vk]; v.Text != "" {
				if dt.Values == nil {
					dt.Values = map[string]string{}
				}
				dt.Values[vk] = v.Text
			}
		}
		out.TemplateTags = append(out.TemplateTags, dt)
	}
	return out, nil
}

// TemplateFromDevtools applies an imported template to an editable template.
// Template tags not in the package are removed.
func TemplateFromDevtools(dt *DevtoolsTemplate, t *domain.Template, constructs ConstructKeywords) error {
	if err := domain.CheckEditable(t); err != nil {
		return err
	}
	if dt.GlobalID != "" {
		t.GlobalID = domain.GlobalID(dt.GlobalID)
	}
	t.Name = dt.Name
	t.Description = dt.Description
	t.Source = dt.Source
	if dt.MarkupLanguage != "" {
		t.MarkupLanguage = dt.MarkupLanguage
	}

	keep := make(map[string]bool, len(dt.TemplateTags))
	for _, dtag := range dt.TemplateTags {
		keep[dtag.Name] = true
		constructID, err := constructs.ConstructID(dtag.Construct)
		if err != nil {
			return fmt.Errorf("tag %s: %w", dtag.Name, err)
		}
		tag, ok := t.Tags[dtag.Name]
		if !ok {
			tag = domain.NewTag(dtag.Name, constructID, domain.TagKindTemplate)
			if err := t.AddTag(tag); err != nil {
				return err
			}
		}
		if dtag.GlobalID != "" {
			tag.GlobalID = domain.GlobalID(dtag.GlobalID)
		}
		tag.ConstructID = constructID
		tag.Enabled = dtag.Active
		tag.EditableInPage = dtag.Editable
		tag.Mandatory = dtag.Mandatory
		for kw, text := range dtag.Values {
			if err := tag.SetValue(kw, text); err != nil {
				return err
			}
		}
	}
	for name := range t.Tags {
		if !keep[name] {
			delete(t.Tags, name)
		}
	}
	return t.Validate()
}

// ObjectPropertyToDevtools converts an object tag definition for export
func ObjectPropertyToDevtools(d *domain.ObjectTagDefinition, constructs ConstructKeywords) (*DevtoolsObjectProperty, error) {
	kw, err := constructs.KeywordOf(d.ConstructID)
	if err != nil {
		return nil, fmt.Errorf("object property %s: %w", d.Keyword, err)
	}
	return &DevtoolsObjectProperty{
		GlobalID:             string(d.GlobalID),
		Keyword:              d.Keyword,
		Name:                 copyMap(d.Name),
		Description:          copyMap(d.Description),
		Type:                 d.TargetType.String(),
		Construct:            kw,
		Required:             d.Required,
		InheritableByDefault: d.InheritableByDefault,
	}, nil
}

// ObjectPropertyFromDevtools applies an imported object property to an editable definition
func ObjectPropertyFromDevtools(dp *DevtoolsObjectProperty, d *domain.ObjectTagDefinition, constructs ConstructKeywords) error {
	if err := domain.CheckEditable(d); err != nil {
		return err
	}
	target, err := domain.ParseObjectType(dp.Type)
	if err != nil {
		return err
	}
	constructID, err := constructs.ConstructID(dp.Construct)
	if err != nil {
		return fmt.Errorf("object property %s: %w", dp.Keyword, err)
	}
	if dp.GlobalID != "" {
		d.GlobalID = domain.GlobalID(dp.GlobalID)
	}
	d.Keyword = dp.Keyword
	d.Name = copyMap(dp.Name)
	d.Description = copyMap(dp.Description)
	d.TargetType = target
	d.ConstructID = constructID
	d.Required = dp.Required
	d.InheritableByDefault = dp.InheritableByDefault
	return d.Validate()
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
