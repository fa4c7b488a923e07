package restmodel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
	"contentnode/internal/resolvable"
)

// Transformer converts domain objects to REST models. Fill options that need
// referenced objects load them through the loader.
type Transformer struct {
	loader resolvable.Loader
}

// NewTransformer creates a transformer; loader may be nil
func NewTransformer(loader resolvable.Loader) *Transformer {
	return &Transformer{loader: loader}
}

func splitComma(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func multichannelling(ctx context.Context, c *domain.Channelling) Multichannelling {
	return Multichannelling{
		Inherited:       c.IsInherited(channel.FromContext(ctx)),
		InheritedFromID: c.OwningNodeID(),
		MasterNodeID:    c.NodeID,
		ChannelID:       c.ChannelID,
		ChannelSetID:    c.ChannelSetID,
		Master:          c.Master,
	}
}

func disinheritance(d *domain.Disinheritance, fill []Fill) Disinheritance {
	out := Disinheritance{
		Excluded:          d.Excluded,
		DisinheritDefault: d.DisinheritDefault,
	}
	if has(fill, FillDisinherit) {
		out.Disinherit = append([]int{}, d.DisinheritedChannels...)
	}
	return out
}

// ToREST converts any supported object
func (t *Transformer) ToREST(ctx context.Context, obj domain.NodeObject, fill ...Fill) (any, error) {
	switch o := obj.(type) {
	case *domain.Page:
		return t.Page(ctx, o, fill...)
	case *domain.Folder:
		return t.Folder(ctx, o, fill...), nil
	case *domain.Template:
		return t.Template(ctx, o, fill...), nil
	case *domain.Image:
		return t.Image(ctx, o, fill...), nil
	case *domain.File:
		return t.File(ctx, o, fill...), nil
	case *domain.Node:
		return NodeToREST(o), nil
	case *domain.Construct:
		return ConstructToREST(o), nil
	case *domain.Datasource:
		return DatasourceToREST(o), nil
	case *domain.SystemUser:
		return UserToREST(o), nil
	case *domain.UserGroup:
		return GroupToREST(o), nil
	case *domain.ContentLanguage:
		return LanguageToREST(o), nil
	case *domain.ObjectTagDefinition:
		return ObjectPropertyToREST(o), nil
	}
	return nil, fmt.Errorf("no REST model for %T", obj)
}

// Page converts a page
func (t *Transformer) Page(ctx context.Context, p *domain.Page, fill ...Fill) (*Page, error) {
	out := &Page{
		ID:               p.ID,
		GlobalID:         string(p.GlobalID),
		Name:             p.Name,
		FileName:         p.FileName,
		Description:      p.Description,
		Priority:         p.Priority,
		TemplateID:       p.TemplateID,
		FolderID:         p.FolderID,
		LanguageID:       p.LanguageID,
		ContentSetID:     p.ContentSetID,
		Online:           p.Online,
		Modified:         p.Modified,
		PublishAt:        p.PublishAt,
		OfflineAt:        p.OfflineAt,
		CreatorID:        p.CreatorID,
		EditorID:         p.EditorID,
		CDate:            unix(p.CreatedAt),
		EDate:            unix(p.EditedAt),
		Multichannelling: multichannelling(ctx, &p.Channelling),
		Disinheritance:   disinheritance(&p.Disinheritance, fill),
	}
	if has(fill, FillTags) {
		out.Tags = tagsToREST(p.Tags, p.ObjectTags)
	}
	if t.loader == nil {
		return out, nil
	}
	if has(fill, FillFolder) && p.FolderID != 0 {
		f, err := t.loader.Load(ctx, domain.TypeFolder, p.FolderID)
		if err != nil {
			return nil, fmt.Errorf("load folder of %s: %w", p.Describe(), err)
		}
		if folder, ok := f.(*domain.Folder); ok {
			out.Folder = t.Folder(ctx, folder)
		}
	}
	if has(fill, FillTemplate) && p.TemplateID != 0 {
		o, err := t.loader.Load(ctx, domain.TypeTemplate, p.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("load template of %s: %w", p.Describe(), err)
		}
		if tmpl, ok := o.(*domain.Template); ok {
			out.Template = t.Template(ctx, tmpl)
		}
	}
	if has(fill, FillLanguages) && p.LanguageID != 0 {
		o, err := t.loader.Load(ctx, domain.TypeContentLanguage, p.LanguageID)
		if err != nil {
			return nil, fmt.Errorf("load language of %s: %w", p.Describe(), err)
		}
		if lang, ok := o.(*domain.ContentLanguage); ok {
			out.Language = lang.Code
		}
	}
	if has(fill, FillUsers) {
		out.Creator = t.user(ctx, p.CreatorID)
		out.Editor = t.user(ctx, p.EditorID)
	}
	return out, nil
}

func (t *Transformer) user(ctx context.Context, id int) *User {
	if id == 0 {
		return nil
	}
	o, err := t.loader.Load(ctx, domain.TypeSystemUser, id)
	if err != nil {
		return nil
	}
	u, ok := o.(*domain.SystemUser)
	if !ok {
		return nil
	}
	rest := UserToREST(u)
	return &rest
}

// Folder converts a folder
func (t *Transformer) Folder(ctx context.Context, f *domain.Folder, fill ...Fill) *Folder {
	out := &Folder{
		ID:               f.ID,
		GlobalID:         string(f.GlobalID),
		Name:             f.Name,
		Description:      f.Description,
		PublishDir:       f.PublishDir,
		MotherID:         f.MotherID,
		NodeID:           f.NodeID,
		TemplateIDs:      append([]int(nil), f.TemplateIDs...),
		CDate:            unix(f.CreatedAt),
		EDate:            unix(f.EditedAt),
		Multichannelling: multichannelling(ctx, &f.Channelling),
		Disinheritance:   disinheritance(&f.Disinheritance, fill),
	}
	if has(fill, FillTags) {
		out.Tags = tagsToREST(f.ObjectTags)
	}
	return out
}

// Template converts a template; template and object tags are always included
func (t *Transformer) Template(ctx context.Context, tmpl *domain.Template, fill ...Fill) *Template {
	return &Template{
		ID:               tmpl.ID,
		GlobalID:         string(tmpl.GlobalID),
		Name:             tmpl.Name,
		Description:      tmpl.Description,
		Source:           tmpl.Source,
		MarkupLanguage:   tmpl.MarkupLanguage,
		FolderIDs:        append([]int(nil), tmpl.FolderIDs...),
		Locked:           tmpl.Locked,
		Multichannelling: multichannelling(ctx, &tmpl.Channelling),
		TemplateTags:     tagsToREST(tmpl.Tags),
		ObjectTags:       tagsToREST(tmpl.ObjectTags),
	}
}

// File converts a file
func (t *Transformer) File(ctx context.Context, f *domain.File, fill ...Fill) *File {
	out := &File{
		ID:               f.ID,
		GlobalID:         string(f.GlobalID),
		Name:             f.Name,
		Description:      f.Description,
		FileType:         f.FileType,
		FileSize:         f.FileSize,
		MD5:              f.MD5,
		FolderID:         f.FolderID,
		CDate:            unix(f.CreatedAt),
		EDate:            unix(f.EditedAt),
		Multichannelling: multichannelling(ctx, &f.Channelling),
		Disinheritance:   disinheritance(&f.Disinheritance, fill),
	}
	if has(fill, FillTags) {
		out.Tags = tagsToREST(f.ObjectTags)
	}
	return out
}

// Image converts an image
func (t *Transformer) Image(ctx context.Context, img *domain.Image, fill ...Fill) *Image {
	return &Image{
		File:        *t.File(ctx, &img.File, fill...),
		SizeX:       img.Width,
		SizeY:       img.Height,
		DPIX:        img.DPIX,
		DPIY:        img.DPIY,
		FocalPointX: img.FocalPointX,
		FocalPointY: img.FocalPointY,
	}
}

// NodeToREST converts a node
func NodeToREST(n *domain.Node) *Node {
	return &Node{
		ID:                   n.ID,
		GlobalID:             string(n.GlobalID),
		Name:                 n.Name,
		Host:                 n.HostName,
		HTTPS:                n.HTTPS,
		PublishDir:           n.PublishDir,
		BinaryPublishDir:     n.BinaryPublishDir,
		UTF8:                 n.UTF8,
		MasterNodeID:         n.MasterNodeID,
		FolderID:             n.FolderID,
		LanguageIDs:          append([]int(nil), n.LanguageIDs...),
		DefaultFileFolderID:  n.DefaultFileFolderID,
		DefaultImageFolderID: n.DefaultImageFolderID,
		IsChannel:            n.IsChannel(),
	}
}

// ConstructToREST converts a construct with its parts
func ConstructToREST(c *domain.Construct) *Construct {
	out := &Construct{
		ID:                c.ID,
		GlobalID:          string(c.GlobalID),
		Keyword:           c.Keyword,
		Name:              c.DisplayName("en"),
		NameI18n:          c.Name,
		DescriptionI18n:   c.Description,
		Icon:              c.IconName,
		MayBeSubtag:       c.MayBeSubtag,
		MayContainSubtags: c.MayContainSubtags,
		CategoryID:        c.CategoryID,
	}
	for _, p := range c.SortedParts() {
		out.Parts = append(out.Parts, Part{
			ID:           p.ID,
			GlobalID:     string(p.GlobalID),
			Keyword:      p.Keyword,
			Name:         p.Name["en"],
			Type:         p.PartType.String(),
			TypeID:       int(p.PartType),
			Editable:     p.Editable,
			Mandatory:    p.Required,
			Hidden:       p.Hidden,
			DefaultValue: p.DefaultValue,
			DatasourceID: p.DatasourceID,
			Order:        p.Order,
		})
	}
	return out
}

// DatasourceToREST converts a datasource
func DatasourceToREST(d *domain.Datasource) *Datasource {
	out := &Datasource{
		ID:       d.ID,
		GlobalID: string(d.GlobalID),
		Name:     d.Name,
		Type:     string(d.Type),
	}
	for _, e := range d.SortedEntries() {
		out.Entries = append(out.Entries, DatasourceEntry{DsID: e.DsID, Key: e.Key, Value: e.Value})
	}
	return out
}

// UserToREST converts a user; the password hash is never exposed
func UserToREST(u *domain.SystemUser) User {
	return User{
		ID:          u.ID,
		Login:       u.Login,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Description: u.Description,
		Active:      u.Active,
		GroupIDs:    append([]int(nil), u.GroupIDs...),
	}
}

// GroupToREST converts a group
func GroupToREST(g *domain.UserGroup) Group {
	return Group{
		ID:               g.ID,
		Name:             g.Name,
		Description:      g.Description,
		MotherID:         g.MotherID,
		NodeRestrictions: append([]int(nil), g.NodeRestrictions...),
	}
}

// LanguageToREST converts a content language
func LanguageToREST(l *domain.ContentLanguage) Language {
	return Language{ID: l.ID, Code: l.Code, Name: l.Name}
}

// ObjectPropertyToREST converts an object tag definition
func ObjectPropertyToREST(d *domain.ObjectTagDefinition) ObjectProperty {
	return ObjectProperty{
		ID:                   d.ID,
		GlobalID:             string(d.GlobalID),
		Keyword:              d.TagName(),
		Name:                 copyMap(d.Name),
		Description:          copyMap(d.Description),
		Type:                 int(d.TargetType),
		ConstructID:          d.ConstructID,
		Required:             d.Required,
		InheritableByDefault: d.InheritableByDefault,
		NodeIDs:              append([]int(nil), d.NodeIDs...),
	}
}

func tagsToREST(groups ...map[string]*domain.Tag) map[string]Tag {
	out := make(map[string]Tag)
	for _, g := range groups {
		for name, tag := range g {
			out[name] = TagToREST(tag)
		}
	}
	return out
}

// TagToREST converts a tag with its values
func TagToREST(tag *domain.Tag) Tag {
	active := tag.Enabled
	out := Tag{
		ID:          tag.ID,
		Name:        tag.Name,
		ConstructID: tag.ConstructID,
		Active:      &active,
		Type:        strings.ToUpper(string(tag.Kind)) + "TAG",
		Editable:    tag.EditableInPage,
		Mandatory:   tag.Mandatory,
		Properties:  make(map[string]Property, len(tag.Values)),
	}
	for _, kw := range tag.ValueKeywords() {
		v := tag.Values[kw]
		out.Properties[kw] = ValueToREST(v)
	}
	return out
}

// ValueToREST converts a value; the field used depends on the part type
func ValueToREST(v *domain.Value) Property {
	p := Property{
		ID:     v.ID,
		PartID: v.PartID,
		Type:   v.PartType.String(),
	}
	switch v.PartType {
	case domain.PartTypeCheckbox:
		b := isTrue(v.Text)
		p.BooleanValue = &b
	case domain.PartTypeURLPage, domain.PartTypeTagPage:
		p.PageID = v.ValueRef
		p.StringValue = v.Text
	case domain.PartTypeURLFile:
		p.FileID = v.ValueRef
	case domain.PartTypeURLImage:
		p.ImageID = v.ValueRef
	case domain.PartTypeNode:
		p.NodeID = v.ValueRef
	case domain.PartTypeSelectSingle, domain.PartTypeSelectMultiple, domain.PartTypeDatasource:
		p.DatasourceID = v.Info
		p.SelectedOptionID = v.ValueRef
		p.StringValue = v.Text
	default:
		p.StringValue = v.Text
	}
	return p
}

func isTrue(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// SortedTagNames returns the tag names of a REST tag map
func SortedTagNames(tags map[string]Tag) []string {
	names := make([]string, 0, len(tags))
	for n := range tags {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
