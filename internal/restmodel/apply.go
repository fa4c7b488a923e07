package restmodel

import (
	"fmt"
	"strconv"

	"contentnode/internal/domain"
)

// Apply functions copy the editable fields of a REST model onto an editable
// domain object. Zero values leave the field unchanged. The object must be an
// editable copy, otherwise the setters fail with domain.ErrReadOnly.

// ApplyPage applies a REST page
func ApplyPage(rest *Page, p *domain.Page) error {
	if err := domain.CheckEditable(p); err != nil {
		return err
	}
	if rest.Name != "" {
		if err := p.SetName(rest.Name); err != nil {
			return err
		}
	}
	if rest.Description != "" {
		if err := p.SetDescription(rest.Description); err != nil {
			return err
		}
	}
	if rest.FileName != "" {
		if err := p.SetFileName(rest.FileName); err != nil {
			return err
		}
	}
	if rest.Priority != 0 {
		if err := p.SetPriority(rest.Priority); err != nil {
			return err
		}
	}
	if rest.TemplateID != 0 {
		if err := p.SetTemplateID(rest.TemplateID); err != nil {
			return err
		}
	}
	if rest.FolderID != 0 {
		if err := p.SetFolderID(rest.FolderID); err != nil {
			return err
		}
	}
	if rest.LanguageID != 0 || rest.ContentSetID != 0 {
		if err := p.SetLanguage(rest.LanguageID, rest.ContentSetID); err != nil {
			return err
		}
	}
	if rest.PublishAt != nil || rest.OfflineAt != nil {
		if err := p.SetPublishWindow(rest.PublishAt, rest.OfflineAt); err != nil {
			return err
		}
	}
	for _, name := range SortedTagNames(rest.Tags) {
		changed, err := applyTag(rest.Tags[name], name, p, p.AddTag)
		if err != nil {
			return err
		}
		if changed {
			if err := p.MarkModified(); err != nil {
				return err
			}
		}
	}
	return nil
}

type tagLookup interface {
	Tag(name string) (*domain.Tag, bool)
}

// applyTag updates an existing tag or adds a new one through add. It
// reports whether the content of the container changed.
func applyTag(rest Tag, name string, container tagLookup, add func(*domain.Tag) error) (bool, error) {
	if rest.Name == "" {
		rest.Name = name
	}
	tag, exists := container.Tag(rest.Name)
	if !exists {
		if rest.ConstructID == 0 {
			return false, fmt.Errorf("new tag %q needs a construct", rest.Name)
		}
		tag = domain.NewTag(rest.Name, rest.ConstructID, "")
		if err := ApplyTag(rest, tag); err != nil {
			return false, err
		}
		return true, add(tag)
	}
	before := tag.Copy()
	if err := ApplyTag(rest, tag); err != nil {
		return false, err
	}
	return !tag.SameContent(before), nil
}

// ApplyTag applies the active flag, when given, and the properties to an
// editable tag
func ApplyTag(rest Tag, tag *domain.Tag) error {
	if rest.Active != nil {
		if err := tag.SetEnabled(*rest.Active); err != nil {
			return err
		}
	}
	for kw, prop := range rest.Properties {
		v, ok := tag.Value(kw)
		if !ok {
			pt, err := domain.ParsePartType(prop.Type)
			if err != nil {
				return fmt.Errorf("tag %s property %s: %w", tag.Name, kw, err)
			}
			v = domain.NewValue(kw, pt)
			v.PartID = prop.PartID
			if err := tag.PutValue(v); err != nil {
				return err
			}
		}
		if err := ApplyValue(prop, v); err != nil {
			return fmt.Errorf("tag %s property %s: %w", tag.Name, kw, err)
		}
	}
	return nil
}

// ApplyValue applies a REST property to an editable value
func ApplyValue(p Property, v *domain.Value) error {
	switch v.PartType {
	case domain.PartTypeCheckbox:
		if p.BooleanValue == nil {
			return nil
		}
		return v.SetText(strconv.FormatBool(*p.BooleanValue))
	case domain.PartTypeURLPage, domain.PartTypeTagPage:
		if err := v.SetValueRef(p.PageID); err != nil {
			return err
		}
		return v.SetText(p.StringValue)
	case domain.PartTypeURLFile:
		return v.SetValueRef(p.FileID)
	case domain.PartTypeURLImage:
		return v.SetValueRef(p.ImageID)
	case domain.PartTypeNode:
		return v.SetValueRef(p.NodeID)
	case domain.PartTypeSelectSingle, domain.PartTypeSelectMultiple, domain.PartTypeDatasource:
		if err := v.SetInfo(p.DatasourceID); err != nil {
			return err
		}
		if err := v.SetValueRef(p.SelectedOptionID); err != nil {
			return err
		}
		return v.SetText(p.StringValue)
	}
	return v.SetText(p.StringValue)
}

// ApplyFolder applies a REST folder
func ApplyFolder(rest *Folder, f *domain.Folder) error {
	if err := domain.CheckEditable(f); err != nil {
		return err
	}
	if rest.Name != "" {
		if err := f.SetName(rest.Name); err != nil {
			return err
		}
	}
	if rest.Description != "" {
		if err := f.SetDescription(rest.Description); err != nil {
			return err
		}
	}
	if rest.PublishDir != "" {
		if err := f.SetPublishDir(rest.PublishDir); err != nil {
			return err
		}
	}
	if rest.MotherID != 0 {
		if err := f.SetMotherID(rest.MotherID); err != nil {
			return err
		}
	}
	for _, id := range rest.TemplateIDs {
		if err := f.LinkTemplate(id); err != nil {
			return err
		}
	}
	for _, name := range SortedTagNames(rest.Tags) {
		if _, err := applyTag(rest.Tags[name], name, objectTagLookup(f.ObjectTags), f.AddObjectTag); err != nil {
			return err
		}
	}
	return nil
}

type objectTagLookup map[string]*domain.Tag

func (m objectTagLookup) Tag(name string) (*domain.Tag, bool) {
	t, ok := m[name]
	return t, ok
}

// ApplyTemplate applies a REST template
func ApplyTemplate(rest *Template, t *domain.Template) error {
	if err := domain.CheckEditable(t); err != nil {
		return err
	}
	if rest.Name != "" {
		if err := t.SetName(rest.Name); err != nil {
			return err
		}
	}
	if rest.Description != "" {
		if err := t.SetDescription(rest.Description); err != nil {
			return err
		}
	}
	if rest.Source != "" {
		if err := t.SetSource(rest.Source); err != nil {
			return err
		}
	}
	if rest.MarkupLanguage != "" {
		if err := t.SetMarkupLanguage(rest.MarkupLanguage); err != nil {
			return err
		}
	}
	for _, id := range rest.FolderIDs {
		if err := t.LinkFolder(id); err != nil {
			return err
		}
	}
	for _, name := range SortedTagNames(rest.TemplateTags) {
		rt := rest.TemplateTags[name]
		_, err := applyTag(rt, name, t, func(tag *domain.Tag) error {
			tag.Kind = domain.TagKindTemplate
			tag.EditableInPage = rt.Editable
			tag.Mandatory = rt.Mandatory
			return t.AddTag(tag)
		})
		if err != nil {
			return err
		}
	}
	for _, name := range SortedTagNames(rest.ObjectTags) {
		if _, err := applyTag(rest.ObjectTags[name], name, objectTagLookup(t.ObjectTags), t.AddTag); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFile applies a REST file; images additionally take their focal point
func ApplyFile(rest *File, f *domain.File) error {
	if err := domain.CheckEditable(f); err != nil {
		return err
	}
	if rest.Name != "" {
		if err := f.SetName(rest.Name); err != nil {
			return err
		}
	}
	if rest.Description != "" {
		if err := f.SetDescription(rest.Description); err != nil {
			return err
		}
	}
	if rest.FileType != "" {
		if err := f.SetFileType(rest.FileType); err != nil {
			return err
		}
	}
	if rest.FolderID != 0 {
		if err := f.SetFolderID(rest.FolderID); err != nil {
			return err
		}
	}
	for _, name := range SortedTagNames(rest.Tags) {
		if _, err := applyTag(rest.Tags[name], name, objectTagLookup(f.ObjectTags), f.AddObjectTag); err != nil {
			return err
		}
	}
	return nil
}

// ApplyImage applies a REST image
func ApplyImage(rest *Image, img *domain.Image) error {
	if err := ApplyFile(&rest.File, &img.File); err != nil {
		return err
	}
	if rest.FocalPointX != 0 || rest.FocalPointY != 0 {
		return img.SetFocalPoint(rest.FocalPointX, rest.FocalPointY)
	}
	return nil
}

// ApplyNode applies a REST node
func ApplyNode(rest *Node, n *domain.Node) error {
	if err := domain.CheckEditable(n); err != nil {
		return err
	}
	if rest.Name != "" {
		if err := n.SetName(rest.Name); err != nil {
			return err
		}
	}
	if rest.Host != "" {
		if err := n.SetHostName(rest.Host); err != nil {
			return err
		}
	}
	if err := n.SetHTTPS(rest.HTTPS); err != nil {
		return err
	}
	if rest.PublishDir != "" {
		if err := n.SetPublishDir(rest.PublishDir); err != nil {
			return err
		}
	}
	if rest.BinaryPublishDir != "" {
		if err := n.SetBinaryPublishDir(rest.BinaryPublishDir); err != nil {
			return err
		}
	}
	if rest.LanguageIDs != nil {
		if err := n.SetLanguageIDs(rest.LanguageIDs); err != nil {
			return err
		}
	}
	if rest.DefaultFileFolderID != 0 || rest.DefaultImageFolderID != 0 {
		return n.SetDefaultFolders(rest.DefaultFileFolderID, rest.DefaultImageFolderID)
	}
	return nil
}

// ApplyUser applies a REST user; a non-empty password is hashed
func ApplyUser(rest *User, u *domain.SystemUser) error {
	if err := domain.CheckEditable(u); err != nil {
		return err
	}
	if rest.Login != "" {
		if err := u.SetLogin(rest.Login); err != nil {
			return err
		}
	}
	if rest.FirstName != "" || rest.LastName != "" {
		if err := u.SetName(rest.FirstName, rest.LastName); err != nil {
			return err
		}
	}
	if rest.Email != "" {
		if err := u.SetEmail(rest.Email); err != nil {
			return err
		}
	}
	if rest.Description != "" {
		if err := u.SetDescription(rest.Description); err != nil {
			return err
		}
	}
	if rest.Password != "" {
		if err := u.SetPassword(rest.Password); err != nil {
			return err
		}
	}
	return nil
}

// ApplyGroup applies a REST group
func ApplyGroup(rest *Group, g *domain.UserGroup) error {
	if err := domain.CheckEditable(g); err != nil {
		return err
	}
	if rest.Name != "" {
		if err := g.SetName(rest.Name); err != nil {
			return err
		}
	}
	if rest.Description != "" {
		if err := g.SetDescription(rest.Description); err != nil {
			return err
		}
	}
	if rest.MotherID != 0 {
		if err := g.SetMotherID(rest.MotherID); err != nil {
			return err
		}
	}
	if rest.NodeRestrictions != nil {
		return g.SetNodeRestrictions(rest.NodeRestrictions)
	}
	return nil
}
