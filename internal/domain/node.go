package domain

import (
	"fmt"
	"path"
	"strings"
)

// Node is a website (or a channel of one) with its own root folder
type Node struct {
	Object
	Name             string `json:"name"`
	HostName         string `json:"host_name"`
	HTTPS            bool   `json:"https"`
	PublishDir       string `json:"publish_dir"`
	BinaryPublishDir string `json:"binary_publish_dir"`
	UTF8             bool   `json:"utf8"`
	// MasterNodeID is 0 for master nodes and the parent node for channels
	MasterNodeID         int             `json:"master_node_id,omitempty"`
	FolderID             int             `json:"folder_id"`
	LanguageIDs          []int           `json:"language_ids,omitempty"`
	DefaultFileFolderID  int             `json:"default_file_folder_id,omitempty"`
	DefaultImageFolderID int             `json:"default_image_folder_id,omitempty"`
	ObjectTags           map[string]*Tag `json:"object_tags,omitempty"`
}

// NewNode creates an editable master node
func NewNode(name, hostName string) *Node {
	return &Node{
		Object:     newObject(),
		Name:       name,
		HostName:   hostName,
		PublishDir: "/",
		UTF8:       true,
		ObjectTags: make(map[string]*Tag),
	}
}

// NewChannel creates an editable channel of the master node
func NewChannel(name, hostName string, masterNodeID int) *Node {
	n := NewNode(name, hostName)
	n.MasterNodeID = masterNodeID
	return n
}

func (n *Node) TType() ObjectType { return TypeNode }

func (n *Node) Describe() string { return describe(TypeNode, n.ID, n.Name) }

// IsChannel reports whether the node is a channel of another node
func (n *Node) IsChannel() bool { return n.MasterNodeID != 0 }

// Freeze marks the node and its object tags read-only
func (n *Node) Freeze() {
	n.Object.Freeze()
	freezeTags(n.ObjectTags)
}

// Copy returns an editable deep copy
func (n *Node) Copy() *Node {
	c := *n
	c.Object = n.Object.editableCopy()
	c.LanguageIDs = copyInts(n.LanguageIDs)
	c.ObjectTags = copyTags(n.ObjectTags)
	return &c
}

func (n *Node) CopyObject() NodeObject { return n.Copy() }

// ChildTags returns the object tags of the node
func (n *Node) ChildTags() []*Tag { return sortedTags(n.ObjectTags) }

// BaseURL returns scheme, host and publish directory
func (n *Node) BaseURL() string {
	scheme := "http"
	if n.HTTPS {
		scheme = "https"
	}
	dir := n.PublishDir
	if dir == "" {
		dir = "/"
	}
	return fmt.Sprintf("%s://%s%s", scheme, n.HostName, cleanDir(dir))
}

// SetName changes the name
func (n *Node) SetName(name string) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.Name = name
	return nil
}

// SetHostName changes the host name
func (n *Node) SetHostName(host string) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.HostName = host
	return nil
}

// SetHTTPS toggles https URLs
func (n *Node) SetHTTPS(https bool) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.HTTPS = https
	return nil
}

// SetPublishDir changes the page publish directory
func (n *Node) SetPublishDir(dir string) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.PublishDir = cleanDir(dir)
	return nil
}

// SetBinaryPublishDir changes the file publish directory
func (n *Node) SetBinaryPublishDir(dir string) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.BinaryPublishDir = cleanDir(dir)
	return nil
}

// SetFolderID sets the root folder
func (n *Node) SetFolderID(id int) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.FolderID = id
	return nil
}

// SetLanguageIDs replaces the ordered list of node languages
func (n *Node) SetLanguageIDs(ids []int) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.LanguageIDs = copyInts(ids)
	return nil
}

// SetDefaultFolders sets the upload folders for files and images
func (n *Node) SetDefaultFolders(fileFolderID, imageFolderID int) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	n.DefaultFileFolderID = fileFolderID
	n.DefaultImageFolderID = imageFolderID
	return nil
}

// AddObjectTag adds an object tag
func (n *Node) AddObjectTag(tag *Tag) error {
	if err := n.failReadOnly(n); err != nil {
		return err
	}
	return addTag(&n.ObjectTags, tag, TagKindObject, TypeNode, n.ID)
}

// Validate checks required fields
func (n *Node) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("node name required")
	}
	if strings.TrimSpace(n.HostName) == "" {
		return fmt.Errorf("node host name required")
	}
	if strings.ContainsAny(n.HostName, "/ ") {
		return fmt.Errorf("invalid host name %q", n.HostName)
	}
	return nil
}

func cleanDir(dir string) string {
	if dir == "" {
		return "/"
	}
	c := path.Clean("/" + dir)
	if c != "/" {
		c += "/"
	}
	return c
}

// addTag validates and stores a tag in a container map
func addTag(tags *map[string]*Tag, tag *Tag, kind TagKind, containerType ObjectType, containerID int) error {
	if tag.Kind == "" {
		tag.Kind = kind
	}
	if tag.Kind != kind {
		return fmt.Errorf("cannot add %s tag %q as %s tag", tag.Kind, tag.Name, kind)
	}
	if kind == TagKindObject && !strings.HasPrefix(tag.Name, ObjectTagPrefix) {
		tag.Name = ObjectTagPrefix + tag.Name
	}
	if *tags == nil {
		*tags = make(map[string]*Tag)
	}
	if _, exists := (*tags)[tag.Name]; exists {
		return fmt.Errorf("tag %q already exists", tag.Name)
	}
	tag.ContainerType = containerType
	tag.ContainerID = containerID
	(*tags)[tag.Name] = tag
	return nil
}
