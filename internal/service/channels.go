package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
	"contentnode/internal/event"
	"contentnode/internal/repository"
)

// ChannelService manages localized copies and disinheritance of multichannelled objects
type ChannelService struct {
	objects *ObjectService
}

// NewChannelService creates a new channel service
func NewChannelService(objects *ObjectService) *ChannelService {
	return &ChannelService{objects: objects}
}

// DisinheritStatus describes where an object is hidden
type DisinheritStatus struct {
	Excluded          bool  `json:"excluded"`
	DisinheritDefault bool  `json:"disinheritDefault"`
	Channels          []int `json:"disinheritedChannels"`
	// Effective includes the sub-channels of the disinherited channels
	Effective []int `json:"effectiveChannels"`
}

// DisinheritRequest changes disinheritance; nil fields stay unchanged
type DisinheritRequest struct {
	Excluded          *bool `json:"excluded,omitempty"`
	DisinheritDefault *bool `json:"disinheritDefault,omitempty"`
	Channels          []int `json:"disinheritedChannels,omitempty"`
	// Recursive applies newly disinherited channels to the contents of a folder
	Recursive bool `json:"recursive,omitempty"`
}

func (s *ChannelService) localizable(ctx context.Context, t domain.ObjectType, id int) (domain.LocalizableNodeObject, []domain.LocalizableNodeObject, error) {
	obj, err := s.objects.repo.Get(ctx, t, id)
	if err != nil {
		return nil, nil, err
	}
	l, ok := domain.AsLocalizable(obj)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no channel variants", ErrInvalid, obj.Describe())
	}
	view, err := s.objects.View(ctx)
	if err != nil {
		return nil, nil, err
	}
	variants, err := view.Variants(ctx, t, l.ChannelInfo().ChannelSetID)
	if err != nil {
		return nil, nil, err
	}
	if len(variants) == 0 {
		variants = []domain.LocalizableNodeObject{l}
	}
	return l, variants, nil
}

// Variants returns all variants of the object's channel set
func (s *ChannelService) Variants(ctx context.Context, t domain.ObjectType, id int) ([]domain.LocalizableNodeObject, error) {
	_, variants, err := s.localizable(ctx, t, id)
	return variants, err
}

// Resolve returns the variant of the object visible in the channel
func (s *ChannelService) Resolve(ctx context.Context, t domain.ObjectType, id, channelID int) (domain.LocalizableNodeObject, error) {
	_, variants, err := s.localizable(ctx, t, id)
	if err != nil {
		return nil, err
	}
	h, err := s.objects.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return channel.Resolve(h, variants, channelID)
}

// Localize creates a localized copy of the object in the channel, based on
// the variant currently visible there
func (s *ChannelService) Localize(ctx context.Context, t domain.ObjectType, id, channelID int) (domain.LocalizableNodeObject, error) {
	_, variants, err := s.localizable(ctx, t, id)
	if err != nil {
		return nil, err
	}
	h, err := s.objects.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	master, ok := channel.Master(variants)
	if !ok {
		return nil, fmt.Errorf("%w: channel set has no master", ErrInvalid)
	}
	if h.IsChannelOf(channelID, master.ChannelInfo().NodeID) {
		if _, err := channel.Resolve(h, variants, channelID); err != nil {
			return nil, err
		}
	}

	// the copy starts from what the channel shows, which may be a copy in a parent channel
	source := master
	if parent := h.ChainFor(channelID); len(parent) > 1 {
		if visible, err := channel.Resolve(h, variants, parent[1]); err == nil {
			source = visible
		}
	}

	cp, err := channel.Localize(h, variants, source, channelID)
	if err != nil {
		return nil, err
	}
	domain.Touch(cp, UserFrom(ctx), s.objects.now())
	if err := s.objects.save(ctx, cp); err != nil {
		return nil, err
	}
	cp.Freeze()
	s.objects.publish(cp, event.ActionLocalize)
	s.objects.logger.Info("Localized object", "object", source.Describe(), "channel", channelID, "copy", cp.GetID())
	return cp, nil
}

// Unlocalize deletes the localized copy of the object in the channel, so the
// channel inherits again
func (s *ChannelService) Unlocalize(ctx context.Context, t domain.ObjectType, id, channelID int) error {
	_, variants, err := s.localizable(ctx, t, id)
	if err != nil {
		return err
	}
	target, err := channel.Unlocalize(variants, channelID)
	if err != nil {
		return err
	}
	if err := s.objects.repo.Delete(ctx, t, target.GetID()); err != nil {
		return fmt.Errorf("failed to unlocalize %s: %w", target.Describe(), err)
	}
	if s.objects.metrics != nil {
		s.objects.metrics.ObjectsDeleted.WithLabelValues(t.String()).Inc()
	}
	s.objects.publish(target, event.ActionUnlocalize)
	s.objects.logger.Info("Unlocalized object", "object", target.Describe(), "channel", channelID)
	return nil
}

// DisinheritInfo returns the disinheritance of the object's channel set
func (s *ChannelService) DisinheritInfo(ctx context.Context, t domain.ObjectType, id int) (*DisinheritStatus, error) {
	obj, variants, err := s.localizable(ctx, t, id)
	if err != nil {
		return nil, err
	}
	d, err := disinheritableMaster(obj, variants)
	if err != nil {
		return nil, err
	}
	h, err := s.objects.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	info := d.DisinheritInfo()
	return &DisinheritStatus{
		Excluded:          info.Excluded,
		DisinheritDefault: info.DisinheritDefault,
		Channels:          sortedInts(info.DisinheritedChannels),
		Effective:         sortedInts(channel.DisinheritedIn(h, info)),
	}, nil
}

func disinheritableMaster(obj domain.LocalizableNodeObject, variants []domain.LocalizableNodeObject) (domain.Disinheritable, error) {
	master, ok := channel.Master(variants)
	if !ok {
		master = obj
	}
	d, ok := master.(domain.Disinheritable)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot be disinherited", ErrInvalid, obj.Describe())
	}
	return d, nil
}

// Disinherit changes in which channels the object is hidden. Changes are
// stored on the master; hide and reveal events are published per affected channel.
func (s *ChannelService) Disinherit(ctx context.Context, t domain.ObjectType, id int, req DisinheritRequest) (*DisinheritStatus, error) {
	obj, variants, err := s.localizable(ctx, t, id)
	if err != nil {
		return nil, err
	}
	d, err := disinheritableMaster(obj, variants)
	if err != nil {
		return nil, err
	}
	h, err := s.objects.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	info := d.DisinheritInfo()

	channels := info.DisinheritedChannels
	if req.Channels != nil {
		channels = req.Channels
		parent, err := s.parentDisinheritance(ctx, d)
		if err != nil {
			return nil, err
		}
		if err := channel.ValidateDisinherit(h, d, parent, channels); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if req.Excluded != nil && *req.Excluded && len(variants) > 1 {
		return nil, fmt.Errorf("%w: %s has localized copies and cannot be excluded", ErrInvalid, d.Describe())
	}

	before := channel.DisinheritedIn(h, info)
	flagsChanged := (req.Excluded != nil && *req.Excluded != info.Excluded) ||
		(req.DisinheritDefault != nil && *req.DisinheritDefault != info.DisinheritDefault)

	if flagsChanged {
		updated, err := s.objects.Update(ctx, t, d.GetID(), func(edit domain.NodeObject) error {
			ed := edit.(domain.Disinheritable)
			if req.Excluded != nil {
				if err := domain.SetExcluded(ed, *req.Excluded); err != nil {
					return err
				}
			}
			if req.DisinheritDefault != nil {
				if err := domain.SetDisinheritDefault(ed, *req.DisinheritDefault); err != nil {
					return err
				}
			}
			return domain.SetDisinheritedChannels(ed, channels)
		})
		if err != nil {
			return nil, err
		}
		d = updated.(domain.Disinheritable)
	} else if req.Channels != nil {
		if err := s.objects.repo.SetDisinherited(ctx, t, d.ChannelInfo().ChannelSetID, channels); err != nil {
			return nil, fmt.Errorf("failed to disinherit %s: %w", d.Describe(), err)
		}
	}

	after := channel.DisinheritedIn(h, &domain.Disinheritance{DisinheritedChannels: channels})
	s.publishVisibility(d, before, after)

	if req.Recursive && req.Channels != nil {
		if f, ok := d.(*domain.Folder); ok {
			if err := s.disinheritContents(ctx, f, channels); err != nil {
				return nil, err
			}
		}
	}
	return s.DisinheritInfo(ctx, t, d.GetID())
}

// disinheritContents adds the channels to the disinherited channels of everything in the folder
func (s *ChannelService) disinheritContents(ctx context.Context, f *domain.Folder, channels []int) error {
	for _, t := range folderContentTypes {
		children, err := s.objects.repo.ListInFolder(ctx, t, f.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			d, ok := domain.AsDisinheritable(child)
			if !ok || !d.IsMaster() {
				continue
			}
			merged := mergeInts(d.DisinheritInfo().DisinheritedChannels, channels)
			_, err := s.Disinherit(ctx, t, child.GetID(), DisinheritRequest{Channels: merged, Recursive: true})
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
	}
	return nil
}

// parentDisinheritance returns the disinheritance of the folder containing the object
func (s *ChannelService) parentDisinheritance(ctx context.Context, obj domain.Disinheritable) (*domain.Disinheritance, error) {
	var folderID int
	switch o := obj.(type) {
	case *domain.Folder:
		folderID = o.MotherID
	case *domain.Page:
		folderID = o.FolderID
	case *domain.File:
		folderID = o.FolderID
	case *domain.Image:
		folderID = o.FolderID
	}
	if folderID == 0 {
		return nil, nil
	}
	parent, err := s.objects.repo.Get(ctx, domain.TypeFolder, folderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d, ok := domain.AsDisinheritable(parent); ok {
		return d.DisinheritInfo(), nil
	}
	return nil, nil
}

func (s *ChannelService) publishVisibility(obj domain.NodeObject, before, after []int) {
	was := make(map[int]bool, len(before))
	for _, c := range before {
		was[c] = true
	}
	is := make(map[int]bool, len(after))
	for _, c := range after {
		is[c] = true
	}
	for _, c := range after {
		if !was[c] {
			s.publishIn(obj, event.ActionHide, c)
		}
	}
	for _, c := range before {
		if !is[c] {
			s.publishIn(obj, event.ActionReveal, c)
		}
	}
}

func (s *ChannelService) publishIn(obj domain.NodeObject, action event.Action, channelID int) {
	if s.objects.eventBus == nil {
		return
	}
	events := event.Trigger(obj, action)
	for i := range events {
		events[i].ChannelID = channelID
	}
	s.objects.eventBus.Publish(events...)
}

// CreateChannel stores a new channel node and disinherits every object of
// the master node whose disinherit default is set
func (s *ChannelService) CreateChannel(ctx context.Context, n *domain.Node) error {
	if !n.IsChannel() {
		return fmt.Errorf("%w: %s has no master node", ErrInvalid, n.Describe())
	}
	if err := s.objects.Create(ctx, n); err != nil {
		return err
	}
	h, err := s.objects.Hierarchy(ctx)
	if err != nil {
		return err
	}
	master := h.MasterOf(n.ID)

	for _, t := range []domain.ObjectType{domain.TypeFolder, domain.TypePage, domain.TypeFile, domain.TypeImage} {
		objs, err := s.objects.repo.List(ctx, repository.Filter{Type: t, NodeID: master, MasterOnly: true})
		if err != nil {
			return err
		}
		for _, obj := range objs {
			d, ok := domain.AsDisinheritable(obj)
			if !ok || !d.DisinheritInfo().DisinheritDefault {
				continue
			}
			channels := mergeInts(d.DisinheritInfo().DisinheritedChannels, []int{n.ID})
			if err := s.objects.repo.SetDisinherited(ctx, t, d.ChannelInfo().ChannelSetID, channels); err != nil {
				return fmt.Errorf("failed to disinherit %s in new channel: %w", d.Describe(), err)
			}
			s.publishIn(d, event.ActionHide, n.ID)
		}
	}
	return nil
}

func mergeInts(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	var out []int
	for _, list := range [][]int{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Ints(out)
	return out
}

func sortedInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	return out
}
