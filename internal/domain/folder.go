package domain

import (
	"fmt"
	"strings"
)

// Folder groups pages, files, images and sub-folders
type Folder struct {
	Object
	Channelling
	Disinheritance
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	PublishDir  string          `json:"publish_dir"`
	MotherID    int             `json:"mother_id,omitempty"`
	TemplateIDs []int           `json:"template_ids,omitempty"`
	ObjectTags  map[string]*Tag `json:"object_tags,omitempty"`
}

// NewFolder creates an editable master folder below the mother folder
func NewFolder(name string, motherID, nodeID int) *Folder {
	return &Folder{
		Object:      newObject(),
		Channelling: Channelling{Master: true, NodeID: nodeID},
		Name:        name,
		PublishDir:  "/",
		MotherID:    motherID,
		ObjectTags:  make(map[string]*Tag),
	}
}

func (f *Folder) TType() ObjectType { return TypeFolder }

func (f *Folder) Describe() string { return describe(TypeFolder, f.ID, f.Name) }

// IsRoot reports whether the folder is the root folder of its node
func (f *Folder) IsRoot() bool { return f.MotherID == 0 }

// Freeze marks the folder and its object tags read-only
func (f *Folder) Freeze() {
	f.Object.Freeze()
	freezeTags(f.ObjectTags)
}

// Copy returns an editable deep copy
func (f *Folder) Copy() *Folder {
	c := *f
	c.Object = f.Object.editableCopy()
	c.Disinheritance = f.Disinheritance.clone()
	c.TemplateIDs = copyInts(f.TemplateIDs)
	c.ObjectTags = copyTags(f.ObjectTags)
	return &c
}

func (f *Folder) CopyObject() NodeObject { return f.Copy() }

// ChildTags returns the object tags of the folder
func (f *Folder) ChildTags() []*Tag { return sortedTags(f.ObjectTags) }

// HasTemplate reports whether the template is linked to the folder
func (f *Folder) HasTemplate(templateID int) bool { return containsInt(f.TemplateIDs, templateID) }

// SetName changes the name
func (f *Folder) SetName(name string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.Name = name
	return nil
}

// SetDescription changes the description
func (f *Folder) SetDescription(desc string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.Description = desc
	return nil
}

// SetPublishDir changes the publish directory
func (f *Folder) SetPublishDir(dir string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.PublishDir = cleanDir(dir)
	return nil
}

// SetMotherID moves the folder
func (f *Folder) SetMotherID(id int) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	if id != 0 && id == f.ID {
		return fmt.Errorf("folder %d cannot be its own mother", id)
	}
	f.MotherID = id
	return nil
}

// LinkTemplate links a template to the folder
func (f *Folder) LinkTemplate(templateID int) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	if !f.HasTemplate(templateID) {
		f.TemplateIDs = append(f.TemplateIDs, templateID)
	}
	return nil
}

// UnlinkTemplate removes a template link
func (f *Folder) UnlinkTemplate(templateID int) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	out := f.TemplateIDs[:0]
	for _, id := range f.TemplateIDs {
		if id != templateID {
			out = append(out, id)
		}
	}
	f.TemplateIDs = out
	return nil
}

// AddObjectTag adds an object tag
func (f *Folder) AddObjectTag(tag *Tag) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	return addTag(&f.ObjectTags, tag, TagKindObject, TypeFolder, f.ID)
}

// Validate checks required fields
func (f *Folder) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("folder name required")
	}
	if f.NodeID == 0 {
		return fmt.Errorf("folder %q has no node", f.Name)
	}
	return nil
}
