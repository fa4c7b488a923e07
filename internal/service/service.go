package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
	"contentnode/internal/event"
	"contentnode/internal/repository"
	"contentnode/internal/resolvable"
)

var (
	// ErrInvalid is returned when an object fails validation or a request makes no sense
	ErrInvalid = errors.New("invalid request")
	// ErrUnauthorized is returned for failed logins
	ErrUnauthorized = errors.New("unauthorized")
)

type userKey struct{}

// WithUser records the acting user in the context
func WithUser(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the acting user of the context, 0 if none
func UserFrom(ctx context.Context) int {
	id, _ := ctx.Value(userKey{}).(int)
	return id
}

type validator interface {
	Validate() error
}

func validate(obj domain.NodeObject) error {
	v, ok := obj.(validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ObjectService provides business logic for content objects.
// Reads are scoped to the channel of the context; writes publish events.
type ObjectService struct {
	repo     repository.Repository
	eventBus *EventBus
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	hierarchy *channel.Hierarchy
}

// NewObjectService creates a new object service
func NewObjectService(repo repository.Repository, eventBus *EventBus) *ObjectService {
	return &ObjectService{
		repo:     repo,
		eventBus: eventBus,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// WithLogger sets the logger
func (s *ObjectService) WithLogger(logger *slog.Logger) *ObjectService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithMetrics counts saved and deleted objects
func (s *ObjectService) WithMetrics(m *Metrics) *ObjectService {
	s.metrics = m
	return s
}

// Repository returns the underlying repository
func (s *ObjectService) Repository() repository.Repository {
	return s.repo
}

// Hierarchy returns the channel hierarchy of all nodes. It is cached until a node changes.
func (s *ObjectService) Hierarchy(ctx context.Context) (*channel.Hierarchy, error) {
	s.mu.RLock()
	h := s.hierarchy
	s.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	objs, err := s.repo.List(ctx, repository.Filter{Type: domain.TypeNode})
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	nodes := make([]*domain.Node, 0, len(objs))
	for _, o := range objs {
		if n, ok := o.(*domain.Node); ok {
			nodes = append(nodes, n)
		}
	}
	h, err = channel.NewHierarchy(nodes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.hierarchy = h
	s.mu.Unlock()
	return h, nil
}

func (s *ObjectService) invalidate(obj domain.NodeObject) {
	if obj.TType() != domain.TypeNode {
		return
	}
	s.mu.Lock()
	s.hierarchy = nil
	s.mu.Unlock()
}

// View returns a channel view over the repository
func (s *ObjectService) View(ctx context.Context) (*channel.View, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return channel.NewView(s.repo, h), nil
}

// Loader returns a channel aware loader for resolving object references
func (s *ObjectService) Loader() resolvable.Loader {
	return &objectLoader{svc: s}
}

type objectLoader struct {
	svc *ObjectService
}

func (l *objectLoader) Load(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error) {
	return l.svc.Load(ctx, t, id)
}

func (l *objectLoader) ListInFolder(ctx context.Context, t domain.ObjectType, folderID int) ([]domain.NodeObject, error) {
	folderID, err := l.svc.masterFolderID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	objs, err := l.svc.repo.ListInFolder(ctx, t, folderID)
	if err != nil {
		return nil, err
	}
	return l.svc.filter(ctx, t, objs)
}

// ============================================================================
// Reads
// ============================================================================

// Load returns the object as seen from the channel of the context
func (s *ObjectService) Load(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error) {
	if !domain.IsLocalizable(t) || channel.FromContext(ctx) == 0 {
		return s.repo.Get(ctx, t, id)
	}
	view, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return view.Load(ctx, t, id)
}

// LoadByGlobalID returns the object with the global ID
func (s *ObjectService) LoadByGlobalID(ctx context.Context, gid domain.GlobalID) (domain.NodeObject, error) {
	if gid == "" {
		return nil, fmt.Errorf("%w: empty global id", ErrInvalid)
	}
	return s.repo.GetByGlobalID(ctx, gid)
}

// List returns the objects matching the filter that are visible in the channel of the context
func (s *ObjectService) List(ctx context.Context, f repository.Filter) ([]domain.NodeObject, error) {
	if f.FolderID != 0 {
		id, err := s.masterFolderID(ctx, f.FolderID)
		if err != nil {
			return nil, err
		}
		f.FolderID = id
	}
	objs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, f.Type, objs)
}

// masterFolderID maps a localized folder copy to the master of its channel
// set. Folder contents always reference the master folder.
func (s *ObjectService) masterFolderID(ctx context.Context, folderID int) (int, error) {
	obj, err := s.repo.Get(ctx, domain.TypeFolder, folderID)
	if errors.Is(err, repository.ErrNotFound) {
		return folderID, nil
	}
	if err != nil {
		return 0, err
	}
	folder := obj.(*domain.Folder)
	if folder.IsMaster() {
		return folderID, nil
	}
	variants, err := s.repo.ChannelSet(ctx, domain.TypeFolder, folder.ChannelSetID)
	if err != nil {
		return 0, err
	}
	for _, v := range variants {
		if l, ok := domain.AsLocalizable(v); ok && l.IsMaster() {
			return v.GetID(), nil
		}
	}
	return folderID, nil
}

func (s *ObjectService) filter(ctx context.Context, t domain.ObjectType, objs []domain.NodeObject) ([]domain.NodeObject, error) {
	if channel.FromContext(ctx) == 0 || (t != 0 && !domain.IsLocalizable(t)) {
		return objs, nil
	}
	view, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return view.Filter(ctx, objs)
}

// ============================================================================
// Writes
// ============================================================================

// Create validates and stores a new editable object
func (s *ObjectService) Create(ctx context.Context, obj domain.NodeObject) error {
	if !obj.IsEditable() {
		return domain.CheckEditable(obj)
	}
	if err := validate(obj); err != nil {
		return err
	}
	domain.Touch(obj, UserFrom(ctx), s.now())
	if err := s.save(ctx, obj); err != nil {
		return err
	}
	s.publish(obj, event.ActionCreate)
	return nil
}

// Update applies changes to an editable copy of the object and stores it.
// The stored object is returned read-only.
func (s *ObjectService) Update(ctx context.Context, t domain.ObjectType, id int, apply func(domain.NodeObject) error) (domain.NodeObject, error) {
	current, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	edit := current.CopyObject()
	if err := apply(edit); err != nil {
		if errors.Is(err, domain.ErrReadOnly) || errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := validate(edit); err != nil {
		return nil, err
	}
	domain.Touch(edit, UserFrom(ctx), s.now())
	if err := s.save(ctx, edit); err != nil {
		return nil, err
	}
	edit.Freeze()
	s.publish(edit, event.ActionUpdate)
	return edit, nil
}

// SetOnline publishes the page or takes it offline
func (s *ObjectService) SetOnline(ctx context.Context, pageID int, online bool) (*domain.Page, error) {
	current, err := s.repo.Get(ctx, domain.TypePage, pageID)
	if err != nil {
		return nil, err
	}
	edit := current.CopyObject().(*domain.Page)
	if online {
		err = edit.Publish(s.now())
	} else {
		err = edit.TakeOffline()
	}
	if err != nil {
		return nil, err
	}
	domain.Touch(edit, UserFrom(ctx), s.now())
	if err := s.save(ctx, edit); err != nil {
		return nil, err
	}
	edit.Freeze()
	s.publish(edit, event.ActionPublish, "online")
	s.logger.Info("Changed page status", "page", edit.Describe(), "online", online)
	return edit, nil
}

func (s *ObjectService) save(ctx context.Context, obj domain.NodeObject) error {
	if err := s.repo.Save(ctx, obj); err != nil {
		return fmt.Errorf("failed to save %s: %w", obj.Describe(), err)
	}
	s.invalidate(obj)
	if s.metrics != nil {
		s.metrics.ObjectsSaved.WithLabelValues(obj.TType().String()).Inc()
	}
	s.logger.Debug("Saved object", "object", obj.Describe(), "global_id", obj.GetGlobalID())
	return nil
}

// Delete removes the object. Deleting a master removes all its localized
// copies, deleting a folder removes its contents.
func (s *ObjectService) Delete(ctx context.Context, t domain.ObjectType, id int) error {
	obj, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return err
	}

	var targets []domain.NodeObject
	if l, ok := domain.AsLocalizable(obj); ok && l.IsMaster() && l.ChannelInfo().ChannelSetID != 0 {
		variants, err := s.repo.ChannelSet(ctx, t, l.ChannelInfo().ChannelSetID)
		if err != nil {
			return err
		}
		for _, v := range variants {
			if v.GetID() != obj.GetID() {
				targets = append(targets, v)
			}
		}
	}
	targets = append(targets, obj)

	for _, target := range targets {
		if f, ok := target.(*domain.Folder); ok {
			if err := s.deleteContents(ctx, f); err != nil {
				return err
			}
		}
		if err := s.deleteOne(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

var folderContentTypes = []domain.ObjectType{
	domain.TypeFolder, domain.TypePage, domain.TypeFile, domain.TypeImage,
}

func (s *ObjectService) deleteContents(ctx context.Context, f *domain.Folder) error {
	for _, t := range folderContentTypes {
		children, err := s.repo.ListInFolder(ctx, t, f.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			err := s.Delete(ctx, child.TType(), child.GetID())
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to delete contents of %s: %w", f.Describe(), err)
			}
		}
	}
	return nil
}

func (s *ObjectService) deleteOne(ctx context.Context, obj domain.NodeObject) error {
	if err := s.repo.Delete(ctx, obj.TType(), obj.GetID()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", obj.Describe(), err)
	}
	s.invalidate(obj)
	if s.metrics != nil {
		s.metrics.ObjectsDeleted.WithLabelValues(obj.TType().String()).Inc()
	}
	s.logger.Debug("Deleted object", "object", obj.Describe())
	s.publish(obj, event.ActionDelete)
	return nil
}

func (s *ObjectService) publish(obj domain.NodeObject, action event.Action, props ...string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(event.Trigger(obj, action, props...)...)
}
