// Package restmodel converts content objects to and from the JSON models of
// the REST API and of devtools packages.
package restmodel

import "time"

// Fill selects optional parts of a REST model
type Fill string

const (
	FillTags       Fill = "tags"
	FillFolder     Fill = "folder"
	FillTemplate   Fill = "template"
	FillLanguages  Fill = "languages"
	FillDisinherit Fill = "disinherit"
	FillUsers      Fill = "users"
)

func has(fill []Fill, f Fill) bool {
	for _, x := range fill {
		if x == f {
			return true
		}
	}
	return false
}

// ParseFill converts query values like "tags,folder" to fill options
func ParseFill(values []string) []Fill {
	var out []Fill
	for _, v := range values {
		for _, f := range splitComma(v) {
			out = append(out, Fill(f))
		}
	}
	return out
}

// Multichannelling holds the channel fields shared by localizable models
type Multichannelling struct {
	Inherited       bool `json:"inherited"`
	InheritedFromID int  `json:"inheritedFromId"`
	MasterNodeID    int  `json:"masterNodeId"`
	ChannelID       int  `json:"channelId"`
	ChannelSetID    int  `json:"channelSetId"`
	Master          bool `json:"master"`
}

// Disinheritance holds the disinheritance fields of disinheritable models
type Disinheritance struct {
	Excluded          bool  `json:"excluded"`
	DisinheritDefault bool  `json:"disinheritDefault"`
	Disinherit        []int `json:"disinherit,omitempty"`
}

// Page is the REST model of a page
type Page struct {
	ID           int        `json:"id"`
	GlobalID     string     `json:"globalId"`
	Name         string     `json:"name"`
	FileName     string     `json:"fileName"`
	Description  string     `json:"description"`
	Priority     int        `json:"priority"`
	TemplateID   int        `json:"templateId"`
	FolderID     int        `json:"folderId"`
	LanguageID   int        `json:"contentGroupId,omitempty"`
	Language     string     `json:"language,omitempty"`
	ContentSetID int        `json:"contentSetId,omitempty"`
	Online       bool       `json:"online"`
	Modified     bool       `json:"modified"`
	PublishAt    *time.Time `json:"publishAt,omitempty"`
	OfflineAt    *time.Time `json:"offlineAt,omitempty"`
	CreatorID    int        `json:"creatorId,omitempty"`
	EditorID     int        `json:"editorId,omitempty"`
	Creator      *User      `json:"creator,omitempty"`
	Editor       *User      `json:"editor,omitempty"`
	CDate        int64      `json:"cdate"`
	EDate        int64      `json:"edate"`
	Multichannelling
	Disinheritance
	Tags             map[string]Tag `json:"tags,omitempty"`
	Folder           *Folder        `json:"folder,omitempty"`
	Template         *Template      `json:"template,omitempty"`
	LanguageVariants map[string]int `json:"languageVariants,omitempty"`
}

// Folder is the REST model of a folder
type Folder struct {
	ID          int    `json:"id"`
	GlobalID    string `json:"globalId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PublishDir  string `json:"publishDir"`
	MotherID    int    `json:"motherId"`
	NodeID      int    `json:"nodeId"`
	TemplateIDs []int  `json:"templateIds,omitempty"`
	CDate       int64  `json:"cdate"`
	EDate       int64  `json:"edate"`
	Multichannelling
	Disinheritance
	Tags map[string]Tag `json:"tags,omitempty"`
}

// Template is the REST model of a template
type Template struct {
	ID             int    `json:"id"`
	GlobalID       string `json:"globalId"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Source         string `json:"source"`
	MarkupLanguage string `json:"markupLanguage"`
	FolderIDs      []int  `json:"folderIds,omitempty"`
	Locked         bool   `json:"locked"`
	Multichannelling
	TemplateTags map[string]Tag `json:"templateTags,omitempty"`
	ObjectTags   map[string]Tag `json:"objectTags,omitempty"`
}

// File is the REST model of a file
type File struct {
	ID          int    `json:"id"`
	GlobalID    string `json:"globalId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FileType    string `json:"fileType"`
	FileSize    int64  `json:"fileSize"`
	MD5         string `json:"md5,omitempty"`
	FolderID    int    `json:"folderId"`
	CDate       int64  `json:"cdate"`
	EDate       int64  `json:"edate"`
	Multichannelling
	Disinheritance
	Tags map[string]Tag `json:"tags,omitempty"`
}

// Image is the REST model of an image
type Image struct {
	File
	SizeX       int     `json:"sizeX"`
	SizeY       int     `json:"sizeY"`
	DPIX        int     `json:"dpiX"`
	DPIY        int     `json:"dpiY"`
	FocalPointX float64 `json:"fpX"`
	FocalPointY float64 `json:"fpY"`
}

// Node is the REST model of a node or channel
type Node struct {
	ID                   int    `json:"id"`
	GlobalID             string `json:"globalId"`
	Name                 string `json:"name"`
	Host                 string `json:"host"`
	HTTPS                bool   `json:"https"`
	PublishDir           string `json:"publishDir"`
	BinaryPublishDir     string `json:"binaryPublishDir"`
	UTF8                 bool   `json:"utf8"`
	MasterNodeID         int    `json:"masterNodeId,omitempty"`
	FolderID             int    `json:"folderId"`
	LanguageIDs          []int  `json:"languagesId,omitempty"`
	DefaultFileFolderID  int    `json:"defaultFileFolderId,omitempty"`
	DefaultImageFolderID int    `json:"defaultImageFolderId,omitempty"`
	IsChannel            bool   `json:"isChannel"`
}

// Construct is the REST model of a construct
type Construct struct {
	ID                int               `json:"id"`
	GlobalID          string            `json:"globalId"`
	Keyword           string            `json:"keyword"`
	Name              string            `json:"name"`
	NameI18n          map[string]string `json:"nameI18n,omitempty"`
	DescriptionI18n   map[string]string `json:"descriptionI18n,omitempty"`
	Icon              string            `json:"icon,omitempty"`
	MayBeSubtag       bool              `json:"mayBeSubtag"`
	MayContainSubtags bool              `json:"mayContainSubtags"`
	CategoryID        int               `json:"categoryId,omitempty"`
	Parts             []Part            `json:"parts,omitempty"`
}

// Part is the REST model of a construct part
type Part struct {
	ID           int    `json:"id"`
	GlobalID     string `json:"globalId"`
	Keyword      string `json:"keyword"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type"`
	TypeID       int    `json:"typeId"`
	Editable     bool   `json:"editable"`
	Mandatory    bool   `json:"mandatory"`
	Hidden       bool   `json:"hidden"`
	DefaultValue string `json:"defaultValue,omitempty"`
	DatasourceID int    `json:"datasourceId,omitempty"`
	Order        int    `json:"partOrder"`
}

// Tag is the REST model of a content, template or object tag
type Tag struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	ConstructID int                 `json:"constructId"`
	Active      *bool               `json:"active,omitempty"`
	Type        string              `json:"type"`
	Editable    bool                `json:"editableInPage,omitempty"`
	Mandatory   bool                `json:"mandatory,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
}

// Property is the REST model of a tag value
type Property struct {
	ID               int    `json:"id,omitempty"`
	PartID           int    `json:"partId,omitempty"`
	Type             string `json:"type"`
	StringValue      string `json:"stringValue,omitempty"`
	BooleanValue     *bool  `json:"booleanValue,omitempty"`
	PageID           int    `json:"pageId,omitempty"`
	FileID           int    `json:"fileId,omitempty"`
	ImageID          int    `json:"imageId,omitempty"`
	NodeID           int    `json:"nodeId,omitempty"`
	DatasourceID     int    `json:"datasourceId,omitempty"`
	SelectedOptionID int    `json:"selectedOptionId,omitempty"`
}

// Datasource is the REST model of a datasource
type Datasource struct {
	ID       int               `json:"id"`
	GlobalID string            `json:"globalId"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Entries  []DatasourceEntry `json:"entries,omitempty"`
}

// DatasourceEntry is one datasource option
type DatasourceEntry struct {
	DsID  int    `json:"dsId"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// User is the REST model of a system user
type User struct {
	ID          int    `json:"id"`
	Login       string `json:"login,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	GroupIDs    []int  `json:"groupIds,omitempty"`
	Password    string `json:"password,omitempty"`
}

// Group is the REST model of a user group
type Group struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	MotherID         int    `json:"motherId,omitempty"`
	NodeRestrictions []int  `json:"nodeRestrictions,omitempty"`
}

// Language is the REST model of a content language
type Language struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// ObjectProperty is the REST model of an object tag definition
type ObjectProperty struct {
	ID                   int               `json:"id"`
	GlobalID             string            `json:"globalId"`
	Keyword              string            `json:"keyword"`
	Name                 map[string]string `json:"nameI18n"`
	Description          map[string]string `json:"descriptionI18n,omitempty"`
	Type                 int               `json:"type"`
	ConstructID          int               `json:"constructId"`
	Required             bool              `json:"required"`
	InheritableByDefault bool              `json:"inheritable"`
	NodeIDs              []int             `json:"nodeIds,omitempty"`
}
