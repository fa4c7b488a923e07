package resolvable

import (
	"context"
	"path"
	"strings"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
)

var (
	nodeProps       Properties[*domain.Node]
	folderProps     Properties[*domain.Folder]
	pageProps       Properties[*domain.Page]
	templateProps   Properties[*domain.Template]
	fileProps       Properties[*domain.File]
	imageProps      Properties[*domain.Image]
	tagProps        Properties[*domain.Tag]
	valueProps      Properties[*domain.Value]
	constructProps  Properties[*domain.Construct]
	datasourceProps Properties[*domain.Datasource]
	entryProps      Properties[*domain.DatasourceEntry]
	userProps       Properties[*domain.SystemUser]
	groupProps      Properties[*domain.UserGroup]
	languageProps   Properties[*domain.ContentLanguage]
)

// Wrap returns the Resolvable for a content object, nil for nil or unsupported objects
func Wrap(obj domain.NodeObject) ObjectResolvable {
	switch o := obj.(type) {
	case *domain.Node:
		if o != nil {
			return nodeProps.Bind(o)
		}
	case *domain.Folder:
		if o != nil {
			return folderProps.Bind(o)
		}
	case *domain.Page:
		if o != nil {
			return pageProps.Bind(o)
		}
	case *domain.Template:
		if o != nil {
			return templateProps.Bind(o)
		}
	case *domain.File:
		if o != nil {
			return fileProps.Bind(o)
		}
	case *domain.Image:
		if o != nil {
			return imageProps.Bind(o)
		}
	case *domain.Tag:
		if o != nil {
			return &tagResolvable{object: object[*domain.Tag]{obj: o, props: tagProps}}
		}
	case *domain.Value:
		if o != nil {
			return &valueResolvable{object: object[*domain.Value]{obj: o, props: valueProps}}
		}
	case *domain.Construct:
		if o != nil {
			return constructProps.Bind(o)
		}
	case *domain.Datasource:
		if o != nil {
			return datasourceProps.Bind(o)
		}
	case *domain.DatasourceEntry:
		if o != nil {
			return entryProps.Bind(o)
		}
	case *domain.SystemUser:
		if o != nil {
			return userProps.Bind(o)
		}
	case *domain.UserGroup:
		if o != nil {
			return groupProps.Bind(o)
		}
	case *domain.ContentLanguage:
		if o != nil {
			return languageProps.Bind(o)
		}
	}
	return nil
}

// wrapAny wraps the object for use as a property value; absent objects become untyped nil
func wrapAny(obj domain.NodeObject) any {
	if r := Wrap(obj); r != nil {
		return r
	}
	return nil
}

func value[T domain.NodeObject](get func(T) any) Property[T] {
	return Property[T]{Get: func(_ context.Context, obj T) (any, error) { return get(obj), nil }}
}

func tagMap(tags []*domain.Tag, trimPrefix string) map[string]any {
	out := make(map[string]any, len(tags))
	for _, t := range tags {
		out[strings.TrimPrefix(t.Name, trimPrefix)] = Wrap(t)
	}
	return out
}

func objectTags(tags map[string]*domain.Tag) map[string]any {
	return tagMap(tagList(tags), domain.ObjectTagPrefix)
}

// nodeFor returns the node an object is rendered for: the scoped channel,
// otherwise the node or channel the variant lives in
func nodeFor(ctx context.Context, c *domain.Channelling) int {
	if id := channel.FromContext(ctx); id != 0 {
		return id
	}
	return c.OwningNodeID()
}

// publishURL builds the URL of a published object and records the folder path
// and node host it depends on
func publishURL(ctx context.Context, nodeID, folderID int, fileName string) (string, error) {
	node, err := loadAs[*domain.Node](ctx, domain.TypeNode, nodeID)
	if err != nil {
		return "", err
	}
	folder, err := loadAs[*domain.Folder](ctx, domain.TypeFolder, folderID)
	if err != nil {
		return "", err
	}
	base := "/"
	if node != nil {
		record(ctx, node, "host")
		record(ctx, node, "path")
		base = node.BaseURL()
	}
	dir := ""
	if folder != nil {
		record(ctx, folder, "path")
		dir = strings.Trim(folder.PublishDir, "/")
	}
	return base + path.Join(dir, fileName), nil
}

func init() {
	nodeProps = Properties[*domain.Node]{
		"id":        value(func(n *domain.Node) any { return n.ID }),
		"name":      value(func(n *domain.Node) any { return n.Name }),
		"host":      value(func(n *domain.Node) any { return n.HostName }),
		"path":      value(func(n *domain.Node) any { return n.PublishDir }),
		"https":     value(func(n *domain.Node) any { return n.HTTPS }),
		"utf8":      value(func(n *domain.Node) any { return n.UTF8 }),
		"ischannel": value(func(n *domain.Node) any { return n.IsChannel() }),
		"url": {
			Get:  func(_ context.Context, n *domain.Node) (any, error) { return n.BaseURL(), nil },
			Deps: []string{"host", "path", "https"},
		},
		"folder": {Get: func(ctx context.Context, n *domain.Node) (any, error) {
			return loadResolvable(ctx, domain.TypeFolder, n.FolderID)
		}},
		"master": {Get: func(ctx context.Context, n *domain.Node) (any, error) {
			return loadResolvable(ctx, domain.TypeNode, n.MasterNodeID)
		}},
		"object": value(func(n *domain.Node) any { return objectTags(n.ObjectTags) }),
	}

	folderProps = Properties[*domain.Folder]{
		"id":           value(func(f *domain.Folder) any { return f.ID }),
		"name":         value(func(f *domain.Folder) any { return f.Name }),
		"description":  value(func(f *domain.Folder) any { return f.Description }),
		"path":         value(func(f *domain.Folder) any { return f.PublishDir }),
		"isroot":       value(func(f *domain.Folder) any { return f.IsRoot() }),
		"ismaster":     value(func(f *domain.Folder) any { return f.IsMaster() }),
		"object":       value(func(f *domain.Folder) any { return objectTags(f.ObjectTags) }),
		"creationdate": value(func(f *domain.Folder) any { return f.CreatedAt }),
		"editdate":     value(func(f *domain.Folder) any { return f.EditedAt }),
		"inherited": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return f.IsInherited(channel.FromContext(ctx)), nil
		}},
		"parent": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return loadResolvable(ctx, domain.TypeFolder, f.MotherID)
		}},
		"node": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return loadResolvable(ctx, domain.TypeNode, nodeFor(ctx, &f.Channelling))
		}},
		"pages": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return listInFolder(ctx, domain.TypePage, f.ID)
		}},
		"files": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return listInFolder(ctx, domain.TypeFile, f.ID)
		}},
		"images": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return listInFolder(ctx, domain.TypeImage, f.ID)
		}},
		"folders": {Get: func(ctx context.Context, f *domain.Folder) (any, error) {
			return listInFolder(ctx, domain.TypeFolder, f.ID)
		}},
	}

	pageProps = Properties[*domain.Page]{
		"id":           value(func(p *domain.Page) any { return p.ID }),
		"name":         value(func(p *domain.Page) any { return p.Name }),
		"filename":     value(func(p *domain.Page) any { return p.FileName }),
		"description":  value(func(p *domain.Page) any { return p.Description }),
		"priority":     value(func(p *domain.Page) any { return p.Priority }),
		"online":       value(func(p *domain.Page) any { return p.Online }),
		"ismaster":     value(func(p *domain.Page) any { return p.IsMaster() }),
		"languageset":  value(func(p *domain.Page) any { return p.ContentSetID }),
		"creationdate": value(func(p *domain.Page) any { return p.CreatedAt }),
		"editdate":     value(func(p *domain.Page) any { return p.EditedAt }),
		"publishdate":  value(func(p *domain.Page) any { return p.PublishedAt }),
		"tags":         value(func(p *domain.Page) any { return tagMap(tagList(p.Tags), "") }),
		"object":       value(func(p *domain.Page) any { return objectTags(p.ObjectTags) }),
		"inherited": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return p.IsInherited(channel.FromContext(ctx)), nil
		}},
		"folder": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return loadResolvable(ctx, domain.TypeFolder, p.FolderID)
		}},
		"template": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return loadResolvable(ctx, domain.TypeTemplate, p.TemplateID)
		}},
		"node": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return loadResolvable(ctx, domain.TypeNode, nodeFor(ctx, &p.Channelling))
		}},
		"language": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return loadResolvable(ctx, domain.TypeContentLanguage, p.LanguageID)
		}},
		"creator": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return loadResolvable(ctx, domain.TypeSystemUser, p.CreatorID)
		}},
		"editor": {Get: func(ctx context.Context, p *domain.Page) (any, error) {
			return loadResolvable(ctx, domain.TypeSystemUser, p.EditorID)
		}},
		"url": {
			Get: func(ctx context.Context, p *domain.Page) (any, error) {
				return publishURL(ctx, nodeFor(ctx, &p.Channelling), p.FolderID, p.FileName)
			},
			Deps: []string{"filename", "folder"},
		},
	}

	templateProps = Properties[*domain.Template]{
		"id":          value(func(t *domain.Template) any { return t.ID }),
		"name":        value(func(t *domain.Template) any { return t.Name }),
		"description": value(func(t *domain.Template) any { return t.Description }),
		"source":      value(func(t *domain.Template) any { return t.Source }),
		"ml":          value(func(t *domain.Template) any { return t.MarkupLanguage }),
		"locked":      value(func(t *domain.Template) any { return t.Locked }),
		"ismaster":    value(func(t *domain.Template) any { return t.IsMaster() }),
		"tags":        value(func(t *domain.Template) any { return tagMap(tagList(t.Tags), "") }),
		"object":      value(func(t *domain.Template) any { return objectTags(t.ObjectTags) }),
		"inherited": {Get: func(ctx context.Context, t *domain.Template) (any, error) {
			return t.IsInherited(channel.FromContext(ctx)), nil
		}},
	}

	fileProps = fileProperties(func(f *domain.File) *domain.File { return f })

	imageProps = Properties[*domain.Image]{
		"width":  value(func(i *domain.Image) any { return i.Width }),
		"height": value(func(i *domain.Image) any { return i.Height }),
		"dpix":   value(func(i *domain.Image) any { return i.DPIX }),
		"dpiy":   value(func(i *domain.Image) any { return i.DPIY }),
		"fpx":    value(func(i *domain.Image) any { return i.FocalPointX }),
		"fpy":    value(func(i *domain.Image) any { return i.FocalPointY }),
	}
	for k, p := range fileProperties(func(i *domain.Image) *domain.File { return &i.File }) {
		imageProps[k] = p
	}

	tagProps = Properties[*domain.Tag]{
		"id":      value(func(t *domain.Tag) any { return t.ID }),
		"name":    value(func(t *domain.Tag) any { return t.Name }),
		"visible": value(func(t *domain.Tag) any { return t.Enabled }),
		"empty":   value(func(t *domain.Tag) any { return tagIsEmpty(t) }),
		"parts":   value(func(t *domain.Tag) any { return valueMap(t) }),
		"construct": {Get: func(ctx context.Context, t *domain.Tag) (any, error) {
			return loadResolvable(ctx, domain.TypeConstruct, t.ConstructID)
		}},
	}

	valueProps = Properties[*domain.Value]{
		"id":      value(func(v *domain.Value) any { return v.ID }),
		"keyword": value(func(v *domain.Value) any { return v.PartKeyword }),
		"text":    value(func(v *domain.Value) any { return v.Text }),
		"info":    value(func(v *domain.Value) any { return v.Info }),
		"type":    value(func(v *domain.Value) any { return v.PartType.String() }),
		"empty":   value(func(v *domain.Value) any { return v.IsEmpty() }),
		"target": {Get: func(ctx context.Context, v *domain.Value) (any, error) {
			t, ok := v.PartType.ReferencedType()
			if !ok {
				return nil, nil
			}
			return loadResolvable(ctx, t, v.ValueRef)
		}},
	}

	constructProps = Properties[*domain.Construct]{
		"id":      value(func(c *domain.Construct) any { return c.ID }),
		"keyword": value(func(c *domain.Construct) any { return c.Keyword }),
		"name":    value(func(c *domain.Construct) any { return c.DisplayName("en") }),
		"icon":    value(func(c *domain.Construct) any { return c.IconName }),
	}

	datasourceProps = Properties[*domain.Datasource]{
		"id":   value(func(d *domain.Datasource) any { return d.ID }),
		"name": value(func(d *domain.Datasource) any { return d.Name }),
		"items": value(func(d *domain.Datasource) any {
			entries := d.SortedEntries()
			out := make([]any, len(entries))
			for i, e := range entries {
				out[i] = Wrap(e)
			}
			return out
		}),
	}

	entryProps = Properties[*domain.DatasourceEntry]{
		"dsid":  value(func(e *domain.DatasourceEntry) any { return e.DsID }),
		"key":   value(func(e *domain.DatasourceEntry) any { return e.Key }),
		"value": value(func(e *domain.DatasourceEntry) any { return e.Value }),
	}

	userProps = Properties[*domain.SystemUser]{
		"id":          value(func(u *domain.SystemUser) any { return u.ID }),
		"login":       value(func(u *domain.SystemUser) any { return u.Login }),
		"firstname":   value(func(u *domain.SystemUser) any { return u.FirstName }),
		"lastname":    value(func(u *domain.SystemUser) any { return u.LastName }),
		"fullname":    value(func(u *domain.SystemUser) any { return u.FullName() }),
		"email":       value(func(u *domain.SystemUser) any { return u.Email }),
		"description": value(func(u *domain.SystemUser) any { return u.Description }),
		"active":      value(func(u *domain.SystemUser) any { return u.Active }),
	}

	groupProps = Properties[*domain.UserGroup]{
		"id":          value(func(g *domain.UserGroup) any { return g.ID }),
		"name":        value(func(g *domain.UserGroup) any { return g.Name }),
		"description": value(func(g *domain.UserGroup) any { return g.Description }),
		"parent": {Get: func(ctx context.Context, g *domain.UserGroup) (any, error) {
			return loadResolvable(ctx, domain.TypeUserGroup, g.MotherID)
		}},
	}

	languageProps = Properties[*domain.ContentLanguage]{
		"id":   value(func(l *domain.ContentLanguage) any { return l.ID }),
		"code": value(func(l *domain.ContentLanguage) any { return l.Code }),
		"name": value(func(l *domain.ContentLanguage) any { return l.Name }),
	}
}

// fileProperties builds the file table for files and images
func fileProperties[T domain.NodeObject](file func(T) *domain.File) Properties[T] {
	return Properties[T]{
		"id":          value(func(o T) any { return file(o).ID }),
		"name":        value(func(o T) any { return file(o).Name }),
		"description": value(func(o T) any { return file(o).Description }),
		"size":        value(func(o T) any { return file(o).FileSize }),
		"type":        value(func(o T) any { return file(o).FileType }),
		"extension":   value(func(o T) any { return file(o).Extension() }),
		"md5":         value(func(o T) any { return file(o).MD5 }),
		"ismaster":    value(func(o T) any { return file(o).IsMaster() }),
		"object":      value(func(o T) any { return objectTags(file(o).ObjectTags) }),
		"editdate":    value(func(o T) any { return file(o).EditedAt }),
		"inherited": {Get: func(ctx context.Context, o T) (any, error) {
			return file(o).IsInherited(channel.FromContext(ctx)), nil
		}},
		"folder": {Get: func(ctx context.Context, o T) (any, error) {
			return loadResolvable(ctx, domain.TypeFolder, file(o).FolderID)
		}},
		"url": {
			Get: func(ctx context.Context, o T) (any, error) {
				f := file(o)
				return publishURL(ctx, nodeFor(ctx, &f.Channelling), f.FolderID, f.Name)
			},
			Deps: []string{"name", "folder"},
		},
	}
}

func tagList(tags map[string]*domain.Tag) []*domain.Tag {
	list := make([]*domain.Tag, 0, len(tags))
	for _, t := range tags {
		list = append(list, t)
	}
	return list
}

func valueMap(t *domain.Tag) map[string]any {
	out := make(map[string]any, len(t.Values))
	for k, v := range t.Values {
		out[k] = Wrap(v)
	}
	return out
}

func tagIsEmpty(t *domain.Tag) bool {
	for _, v := range t.Values {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

func listInFolder(ctx context.Context, t domain.ObjectType, folderID int) (any, error) {
	l, ok := LoaderFrom(ctx).(Lister)
	if !ok {
		return []any{}, nil
	}
	objs, err := l.ListInFolder(ctx, t, folderID)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(objs))
	for _, o := range objs {
		if r := Wrap(o); r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
