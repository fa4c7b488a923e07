package domain

import (
	"fmt"
	"strings"
)

// File is a binary object stored in a folder
type File struct {
	Object
	Channelling
	Disinheritance
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	FileType    string          `json:"file_type"`
	FileSize    int64           `json:"file_size"`
	MD5         string          `json:"md5,omitempty"`
	FolderID    int             `json:"folder_id"`
	ObjectTags  map[string]*Tag `json:"object_tags,omitempty"`
}

// NewFile creates an editable master file
func NewFile(name string, folderID, nodeID int) *File {
	return &File{
		Object:      newObject(),
		Channelling: Channelling{Master: true, NodeID: nodeID},
		Name:        name,
		FileType:    "application/octet-stream",
		FolderID:    folderID,
		ObjectTags:  make(map[string]*Tag),
	}
}

func (f *File) TType() ObjectType { return TypeFile }

func (f *File) Describe() string { return describe(TypeFile, f.ID, f.Name) }

// Freeze marks the file and its object tags read-only
func (f *File) Freeze() {
	f.Object.Freeze()
	freezeTags(f.ObjectTags)
}

// Copy returns an editable deep copy
func (f *File) Copy() *File {
	c := *f
	c.Object = f.Object.editableCopy()
	c.Disinheritance = f.Disinheritance.clone()
	c.ObjectTags = copyTags(f.ObjectTags)
	return &c
}

func (f *File) CopyObject() NodeObject { return f.Copy() }

// ChildTags returns the object tags
func (f *File) ChildTags() []*Tag { return sortedTags(f.ObjectTags) }

// Extension returns the lowercase file extension without dot
func (f *File) Extension() string {
	i := strings.LastIndexByte(f.Name, '.')
	if i < 0 || i == len(f.Name)-1 {
		return ""
	}
	return strings.ToLower(f.Name[i+1:])
}

// BinaryKey returns the key the binary content is stored under
func (f *File) BinaryKey() string {
	return fmt.Sprintf("%s/%s", f.TType(), f.GlobalID)
}

// SetName changes the name
func (f *File) SetName(name string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("file name %q must not contain path separators", name)
	}
	f.Name = name
	return nil
}

// SetDescription changes the description
func (f *File) SetDescription(desc string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.Description = desc
	return nil
}

// SetFileType changes the MIME type
func (f *File) SetFileType(mime string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.FileType = mime
	return nil
}

// SetFolderID moves the file
func (f *File) SetFolderID(id int) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.FolderID = id
	return nil
}

// SetContentInfo records size and checksum of uploaded content
func (f *File) SetContentInfo(size int64, md5 string) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	f.FileSize = size
	f.MD5 = md5
	return nil
}

// AddObjectTag adds an object tag
func (f *File) AddObjectTag(tag *Tag) error {
	if err := f.failReadOnly(f); err != nil {
		return err
	}
	return addTag(&f.ObjectTags, tag, TagKindObject, f.TType(), f.ID)
}

// Validate checks required fields
func (f *File) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("file name required")
	}
	if strings.ContainsAny(f.Name, `/\`) {
		return fmt.Errorf("file name %q must not contain path separators", f.Name)
	}
	if f.FolderID == 0 {
		return fmt.Errorf("file %q has no folder", f.Name)
	}
	return nil
}

// Image is a file with pixel dimensions
type Image struct {
	File
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	DPIX        int     `json:"dpi_x,omitempty"`
	DPIY        int     `json:"dpi_y,omitempty"`
	FocalPointX float64 `json:"fp_x"`
	FocalPointY float64 `json:"fp_y"`
}

// NewImage creates an editable master image
func NewImage(name string, folderID, nodeID int) *Image {
	img := &Image{
		File:        *NewFile(name, folderID, nodeID),
		FocalPointX: 0.5,
		FocalPointY: 0.5,
	}
	img.FileType = "image/jpeg"
	return img
}

func (i *Image) TType() ObjectType { return TypeImage }

func (i *Image) Describe() string { return describe(TypeImage, i.ID, i.Name) }

// Copy returns an editable deep copy
func (i *Image) Copy() *Image {
	c := *i
	c.File = *i.File.Copy()
	return &c
}

func (i *Image) CopyObject() NodeObject { return i.Copy() }

// BinaryKey returns the key the binary content is stored under
func (i *Image) BinaryKey() string {
	return fmt.Sprintf("%s/%s", i.TType(), i.GlobalID)
}

// SetDimensions records width and height
func (i *Image) SetDimensions(width, height int) error {
	if err := i.failReadOnly(i); err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	i.Width = width
	i.Height = height
	return nil
}

// SetFocalPoint sets the focal point in relative coordinates
func (i *Image) SetFocalPoint(x, y float64) error {
	if err := i.failReadOnly(i); err != nil {
		return err
	}
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return fmt.Errorf("focal point (%g, %g) out of range", x, y)
	}
	i.FocalPointX = x
	i.FocalPointY = y
	return nil
}

// AddObjectTag adds an object tag
func (i *Image) AddObjectTag(tag *Tag) error {
	if err := i.failReadOnly(i); err != nil {
		return err
	}
	return addTag(&i.ObjectTags, tag, TagKindObject, TypeImage, i.ID)
}
