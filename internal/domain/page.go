package domain

import (
	"fmt"
	"strings"
	"time"
)

// Page is a content page rendered with a template
type Page struct {
	Object
	Channelling
	Disinheritance
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"file_name"`
	Priority    int    `json:"priority"`
	TemplateID  int    `json:"template_id"`
	FolderID    int    `json:"folder_id"`
	ContentID   int    `json:"content_id"`
	LanguageID  int    `json:"language_id,omitempty"`
	// ContentSetID groups the language variants of a page
	ContentSetID int             `json:"content_set_id,omitempty"`
	Online       bool            `json:"online"`
	Modified     bool            `json:"modified"`
	PublishAt    *time.Time      `json:"publish_at,omitempty"`
	OfflineAt    *time.Time      `json:"offline_at,omitempty"`
	PublishedAt  *time.Time      `json:"published_at,omitempty"`
	Tags         map[string]*Tag `json:"tags,omitempty"`
	ObjectTags   map[string]*Tag `json:"object_tags,omitempty"`
}

// NewPage creates an editable master page in the folder
func NewPage(name string, folderID, templateID, nodeID int) *Page {
	return &Page{
		Object:      newObject(),
		Channelling: Channelling{Master: true, NodeID: nodeID},
		Name:        name,
		FolderID:    folderID,
		TemplateID:  templateID,
		Priority:    1,
		Modified:    true,
		Tags:        make(map[string]*Tag),
		ObjectTags:  make(map[string]*Tag),
	}
}

func (p *Page) TType() ObjectType { return TypePage }

func (p *Page) Describe() string { return describe(TypePage, p.ID, p.Name) }

// Freeze marks the page and all its tags read-only
func (p *Page) Freeze() {
	p.Object.Freeze()
	freezeTags(p.Tags)
	freezeTags(p.ObjectTags)
}

// Copy returns an editable deep copy
func (p *Page) Copy() *Page {
	c := *p
	c.Object = p.Object.editableCopy()
	c.Disinheritance = p.Disinheritance.clone()
	c.PublishAt = copyTime(p.PublishAt)
	c.OfflineAt = copyTime(p.OfflineAt)
	c.PublishedAt = copyTime(p.PublishedAt)
	c.Tags = copyTags(p.Tags)
	c.ObjectTags = copyTags(p.ObjectTags)
	return &c
}

func (p *Page) CopyObject() NodeObject { return p.Copy() }

// ChildTags returns content tags and object tags
func (p *Page) ChildTags() []*Tag { return sortedTags(p.Tags, p.ObjectTags) }

// Tag returns the content tag with the given name
func (p *Page) Tag(name string) (*Tag, bool) {
	if strings.HasPrefix(name, ObjectTagPrefix) {
		t, ok := p.ObjectTags[name]
		return t, ok
	}
	t, ok := p.Tags[name]
	return t, ok
}

// IsOnline reports whether the page is published
func (p *Page) IsOnline() bool { return p.Online }

// IsPublishable reports whether the page is online and inside its time window
func (p *Page) IsPublishable(now time.Time) bool {
	if !p.Online {
		return false
	}
	if p.PublishAt != nil && now.Before(*p.PublishAt) {
		return false
	}
	if p.OfflineAt != nil && !now.Before(*p.OfflineAt) {
		return false
	}
	return true
}

// IsLanguageVariantOf reports whether both pages belong to the same content set
func (p *Page) IsLanguageVariantOf(other *Page) bool {
	return p.ContentSetID != 0 && p.ContentSetID == other.ContentSetID && p.ID != other.ID
}

func (p *Page) modified() { p.Modified = true }

// MarkModified flags a content change made outside the page setters, like
// edited tag values
func (p *Page) MarkModified() error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.modified()
	return nil
}

// SetName changes the name
func (p *Page) SetName(name string) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	if p.Name != name {
		p.Name = name
		p.modified()
	}
	return nil
}

// SetDescription changes the description
func (p *Page) SetDescription(desc string) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	if p.Description != desc {
		p.Description = desc
		p.modified()
	}
	return nil
}

// SetFileName changes the published file name
func (p *Page) SetFileName(name string) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("file name %q must not contain path separators", name)
	}
	if p.FileName != name {
		p.FileName = name
		p.modified()
	}
	return nil
}

// SetPriority changes the priority
func (p *Page) SetPriority(priority int) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.Priority = priority
	return nil
}

// SetTemplateID changes the template
func (p *Page) SetTemplateID(id int) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	if p.TemplateID != id {
		p.TemplateID = id
		p.modified()
	}
	return nil
}

// SetFolderID moves the page
func (p *Page) SetFolderID(id int) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.FolderID = id
	return nil
}

// SetLanguage assigns a language and content set
func (p *Page) SetLanguage(languageID, contentSetID int) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.LanguageID = languageID
	p.ContentSetID = contentSetID
	return nil
}

// SetPublishWindow sets the planned publish and offline times
func (p *Page) SetPublishWindow(publishAt, offlineAt *time.Time) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	if publishAt != nil && offlineAt != nil && !offlineAt.After(*publishAt) {
		return fmt.Errorf("offline time must be after publish time")
	}
	p.PublishAt = copyTime(publishAt)
	p.OfflineAt = copyTime(offlineAt)
	return nil
}

// Publish marks the page online
func (p *Page) Publish(now time.Time) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.Online = true
	p.Modified = false
	p.PublishedAt = &now
	return nil
}

// TakeOffline marks the page offline
func (p *Page) TakeOffline() error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	p.Online = false
	return nil
}

// AddTag adds a content or object tag
func (p *Page) AddTag(tag *Tag) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	var err error
	if tag.Kind == TagKindObject || strings.HasPrefix(tag.Name, ObjectTagPrefix) {
		err = addTag(&p.ObjectTags, tag, TagKindObject, TypePage, p.ID)
	} else {
		err = addTag(&p.Tags, tag, TagKindContent, TypePage, p.ID)
	}
	if err == nil {
		p.modified()
	}
	return err
}

// RemoveTag removes a content or object tag
func (p *Page) RemoveTag(name string) error {
	if err := p.failReadOnly(p); err != nil {
		return err
	}
	if _, ok := p.Tags[name]; ok {
		delete(p.Tags, name)
		p.modified()
		return nil
	}
	if _, ok := p.ObjectTags[name]; ok {
		delete(p.ObjectTags, name)
		p.modified()
		return nil
	}
	return fmt.Errorf("page %d has no tag %q", p.ID, name)
}

// Validate checks required fields
func (p *Page) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("page name required")
	}
	if p.FolderID == 0 {
		return fmt.Errorf("page %q has no folder", p.Name)
	}
	if p.TemplateID == 0 {
		return fmt.Errorf("page %q has no template", p.Name)
	}
	if strings.ContainsAny(p.FileName, `/\`) {
		return fmt.Errorf("file name %q must not contain path separators", p.FileName)
	}
	for _, t := range p.ChildTags() {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("page %q: %w", p.Name, err)
		}
	}
	return nil
}

// SuggestFileName derives a file name from the page name
func SuggestFileName(name, extension string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == 'ä':
			b.WriteString("ae")
		case r == 'ö':
			b.WriteString("oe")
		case r == 'ü':
			b.WriteString("ue")
		case r == 'ß':
			b.WriteString("ss")
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		base = "page"
	}
	if extension == "" {
		return base
	}
	return base + "." + strings.TrimPrefix(extension, ".")
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
