package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contentnode/internal/devtools"
	"contentnode/internal/domain"
	"contentnode/internal/repository"
	"contentnode/internal/restmodel"
)

// Selection names the objects to export. Empty lists select all objects of the kind.
type Selection struct {
	Constructs       []string `json:"constructs,omitempty"`
	Datasources      []string `json:"datasources,omitempty"`
	Templates        []string `json:"templates,omitempty"`
	ObjectProperties []string `json:"objectProperties,omitempty"`
}

// DevtoolsService synchronizes implementation objects with packages on disk
type DevtoolsService struct {
	objects  *ObjectService
	packages *devtools.Packages
	nodeID   int
}

// NewDevtoolsService creates a new devtools service
func NewDevtoolsService(objects *ObjectService, packages *devtools.Packages) *DevtoolsService {
	return &DevtoolsService{objects: objects, packages: packages}
}

// WithNode sets the node imported templates are created in
func (s *DevtoolsService) WithNode(nodeID int) *DevtoolsService {
	s.nodeID = nodeID
	return s
}

// Packages returns the package directory
func (s *DevtoolsService) Packages() *devtools.Packages {
	return s.packages
}

// repoRefs resolves references against the repository. The restmodel
// conversions take no context, so the request context is kept here.
type repoRefs struct {
	ctx  context.Context
	repo repository.Repository
}

func (r repoRefs) GlobalIDOf(t domain.ObjectType, id int) (domain.GlobalID, error) {
	obj, err := r.repo.Get(r.ctx, t, id)
	if err != nil {
		return "", err
	}
	return obj.GetGlobalID(), nil
}

func (r repoRefs) IDOf(t domain.ObjectType, gid domain.GlobalID) (int, error) {
	obj, err := r.repo.GetByGlobalID(r.ctx, gid)
	if err != nil {
		return 0, err
	}
	if obj.TType() != t {
		return 0, fmt.Errorf("%s is not a %s: %w", gid, t, repository.ErrNotFound)
	}
	return obj.GetID(), nil
}

func (r repoRefs) KeywordOf(constructID int) (string, error) {
	obj, err := r.repo.Get(r.ctx, domain.TypeConstruct, constructID)
	if err != nil {
		return "", err
	}
	return obj.(*domain.Construct).Keyword, nil
}

func (r repoRefs) ConstructID(keyword string) (int, error) {
	obj, err := findByName(r.ctx, r.repo, domain.TypeConstruct, keyword)
	if err != nil {
		return 0, fmt.Errorf("construct %q: %w", keyword, err)
	}
	return obj.GetID(), nil
}

// nameOf returns the name objects are identified by inside packages
func nameOf(obj domain.NodeObject) string {
	switch o := obj.(type) {
	case *domain.Construct:
		return o.Keyword
	case *domain.Datasource:
		return o.Name
	case *domain.Template:
		return o.Name
	case *domain.ObjectTagDefinition:
		return o.Keyword
	}
	return ""
}

func findByName(ctx context.Context, repo repository.Repository, t domain.ObjectType, name string) (domain.NodeObject, error) {
	if name == "" {
		return nil, repository.ErrNotFound
	}
	objs, err := repo.List(ctx, repository.Filter{Type: t, Name: name, MasterOnly: domain.IsLocalizable(t)})
	if err != nil {
		return nil, err
	}
	for _, obj := range objs {
		if nameOf(obj) == name {
			return obj, nil
		}
	}
	return nil, repository.ErrNotFound
}

func selected(names []string, name string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// ============================================================================
// Export
// ============================================================================

// Contents converts the selected objects into package contents
func (s *DevtoolsService) Contents(ctx context.Context, sel Selection) (*devtools.Contents, error) {
	refs := repoRefs{ctx: ctx, repo: s.objects.repo}
	c := &devtools.Contents{}

	err := s.each(ctx, domain.TypeDatasource, sel.Datasources, func(obj domain.NodeObject) error {
		c.Datasources = append(c.Datasources, restmodel.DatasourceToDevtools(obj.(*domain.Datasource)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, domain.TypeConstruct, sel.Constructs, func(obj domain.NodeObject) error {
		dc, err := restmodel.ConstructToDevtools(obj.(*domain.Construct), refs)
		if err != nil {
			return err
		}
		c.Constructs = append(c.Constructs, dc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, domain.TypeObjectTagDefinition, sel.ObjectProperties, func(obj domain.NodeObject) error {
		dp, err := restmodel.ObjectPropertyToDevtools(obj.(*domain.ObjectTagDefinition), refs)
		if err != nil {
			return err
		}
		c.ObjectProperties = append(c.ObjectProperties, dp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, domain.TypeTemplate, sel.Templates, func(obj domain.NodeObject) error {
		dt, err := restmodel.TemplateToDevtools(obj.(*domain.Template), refs)
		if err != nil {
			return err
		}
		c.Templates = append(c.Templates, dt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DevtoolsService) each(ctx context.Context, t domain.ObjectType, names []string, fn func(domain.NodeObject) error) error {
	objs, err := s.objects.repo.List(ctx, repository.Filter{Type: t, MasterOnly: domain.IsLocalizable(t)})
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if !selected(names, nameOf(obj)) {
			continue
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// Export writes the selected objects into the named package
func (s *DevtoolsService) Export(ctx context.Context, name string, sel Selection) (*devtools.Contents, error) {
	c, err := s.Contents(ctx, sel)
	if err != nil {
		return nil, err
	}
	if err := s.packages.Export(ctx, name, c); err != nil {
		return nil, err
	}
	s.objects.logger.Info("Exported package",
		"package", name,
		"constructs", len(c.Constructs),
		"datasources", len(c.Datasources),
		"templates", len(c.Templates),
		"objectproperties", len(c.ObjectProperties))
	return c, nil
}

// ============================================================================
// Import
// ============================================================================

// ImportPackage loads the named package and imports it
func (s *DevtoolsService) ImportPackage(ctx context.Context, name string) (*devtools.Contents, error) {
	c, err := s.packages.Load(name)
	if err != nil {
		return nil, err
	}
	if err := s.Import(ctx, name, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Import creates or updates the objects of the package. Objects are matched
// by global ID, then by name. Datasources and constructs are imported before
// the objects referencing them.
func (s *DevtoolsService) Import(ctx context.Context, name string, c *devtools.Contents) error {
	refs := repoRefs{ctx: ctx, repo: s.objects.repo}

	for _, dd := range c.Datasources {
		err := s.upsert(ctx, domain.TypeDatasource, dd.GlobalID, dd.Name,
			func() domain.NodeObject { return domain.NewDatasource(dd.Name, domain.DatasourceStatic) },
			func(obj domain.NodeObject) error {
				return restmodel.DatasourceFromDevtools(dd, obj.(*domain.Datasource))
			})
		if err != nil {
			return fmt.Errorf("datasource %s: %w", dd.Name, err)
		}
	}

	for _, dc := range c.Constructs {
		err := s.upsert(ctx, domain.TypeConstruct, dc.GlobalID, dc.Keyword,
			func() domain.NodeObject { return domain.NewConstruct(dc.Keyword) },
			func(obj domain.NodeObject) error {
				return restmodel.ConstructFromDevtools(dc, obj.(*domain.Construct), refs)
			})
		if err != nil {
			return fmt.Errorf("construct %s: %w", dc.Keyword, err)
		}
	}

	for _, dp := range c.ObjectProperties {
		err := s.upsert(ctx, domain.TypeObjectTagDefinition, dp.GlobalID, dp.Keyword,
			func() domain.NodeObject { return domain.NewObjectTagDefinition(dp.Keyword, 0, 0) },
			func(obj domain.NodeObject) error {
				return restmodel.ObjectPropertyFromDevtools(dp, obj.(*domain.ObjectTagDefinition), refs)
			})
		if err != nil {
			return fmt.Errorf("object property %s: %w", dp.Keyword, err)
		}
	}

	for _, dt := range c.Templates {
		err := s.upsert(ctx, domain.TypeTemplate, dt.GlobalID, dt.Name,
			func() domain.NodeObject { return domain.NewTemplate(dt.Name, "", s.nodeID) },
			func(obj domain.NodeObject) error {
				return restmodel.TemplateFromDevtools(dt, obj.(*domain.Template), refs)
			})
		if err != nil {
			return fmt.Errorf("template %s: %w", dt.Name, err)
		}
	}

	s.objects.logger.Info("Imported package", "package", name)
	return nil
}

func (s *DevtoolsService) upsert(ctx context.Context, t domain.ObjectType, gid, name string, fresh func() domain.NodeObject, apply func(domain.NodeObject) error) error {
	existing, err := s.existing(ctx, t, gid, name)
	if err != nil {
		return err
	}
	if existing != nil {
		_, err := s.objects.Update(ctx, t, existing.GetID(), apply)
		return err
	}
	obj := fresh()
	if err := apply(obj); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s.objects.Create(ctx, obj)
}

func (s *DevtoolsService) existing(ctx context.Context, t domain.ObjectType, gid, name string) (domain.NodeObject, error) {
	if gid != "" {
		obj, err := s.objects.repo.GetByGlobalID(ctx, domain.GlobalID(gid))
		if err == nil {
			if obj.TType() != t {
				return nil, fmt.Errorf("global id %s belongs to %s: %w", gid, obj.Describe(), repository.ErrConflict)
			}
			return obj, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	obj, err := findByName(ctx, s.objects.repo, t, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return obj, err
}
