package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
	"contentnode/internal/repository"
	"contentnode/internal/resolvable"
)

// RenderResult is the output of rendering a page
type RenderResult struct {
	Output string `json:"output"`
	// Dependencies lists the object properties the output was built from
	Dependencies []resolvable.Dependency `json:"dependencies"`
	// Unresolved lists placeholders that rendered empty
	Unresolved []string `json:"unresolved,omitempty"`
}

// RenderService renders pages with their templates
type RenderService struct {
	objects *ObjectService
	metrics *Metrics
	logger  *slog.Logger
}

// NewRenderService creates a new render service
func NewRenderService(objects *ObjectService) *RenderService {
	return &RenderService{objects: objects, metrics: objects.metrics, logger: objects.logger}
}

// RenderPage renders the page as seen from the channel. A non-empty source
// replaces the source of the page's template.
func (s *RenderService) RenderPage(ctx context.Context, pageID, channelID int, source string) (*RenderResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RenderDuration.Observe(time.Since(start).Seconds())
		}
	}()

	tracker := resolvable.NewTracker()
	ctx = channel.WithChannel(ctx, channelID)
	ctx = resolvable.WithLoader(ctx, s.objects.Loader())
	ctx = resolvable.WithTracker(ctx, tracker)

	obj, err := s.objects.Load(ctx, domain.TypePage, pageID)
	if err != nil {
		return nil, err
	}
	page, ok := obj.(*domain.Page)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a page", ErrInvalid, obj.Describe())
	}

	roots, tmpl, err := s.roots(ctx, page)
	if err != nil {
		return nil, err
	}
	if source == "" && tmpl != nil {
		source = tmpl.Source
	}

	output, misses, err := resolvable.Render(ctx, source, roots)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(misses) > 0 {
		s.logger.Debug("Unresolved placeholders", "page", page.Describe(), "paths", misses)
	}

	return &RenderResult{
		Output:       output,
		Dependencies: tracker.Dependencies(),
		Unresolved:   misses,
	}, nil
}

var reservedRoots = map[string]bool{
	"page": true, "folder": true, "template": true, "node": true, "object": true,
}

// roots returns the names placeholders can start with: the page and the
// objects around it, and the tags of template and page by name
func (s *RenderService) roots(ctx context.Context, page *domain.Page) (map[string]any, *domain.Template, error) {
	roots := map[string]any{
		"page": resolvable.Wrap(page),
	}
	pageRoot := roots["page"].(resolvable.ObjectResolvable)

	var tmpl *domain.Template
	for _, name := range []string{"folder", "template", "node"} {
		v, err := pageRoot.Get(ctx, name)
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, channel.ErrNotVisible) {
			s.logger.Warn("Referenced object missing", "page", page.Describe(), "property", name, "error", err)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load %s of %s: %w", name, page.Describe(), err)
		}
		if v == nil {
			continue
		}
		roots[name] = v
		if r, ok := v.(resolvable.ObjectResolvable); ok {
			if t, ok := r.Object().(*domain.Template); ok {
				tmpl = t
			}
		}
	}

	object, err := pageRoot.Get(ctx, "object")
	if err != nil {
		return nil, nil, err
	}
	roots["object"] = object

	addTags := func(tags map[string]*domain.Tag) {
		for name, tag := range tags {
			if !reservedRoots[name] {
				roots[name] = resolvable.Wrap(tag)
			}
		}
	}
	if tmpl != nil {
		addTags(tmpl.Tags)
	}
	// page tags fill the template tags of the same name
	addTags(page.Tags)
	return roots, tmpl, nil
}
