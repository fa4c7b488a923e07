package service

import (
	"context"
	"errors"
	"testing"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
	"contentnode/internal/event"
	"contentnode/internal/repository"
	"contentnode/internal/repository/sqlstore"
)

// ============================================================================
// Test Helpers
// ============================================================================

type fixture struct {
	repo     *sqlstore.Store
	bus      *EventBus
	events   chan event.ObjectEvent
	objects  *ObjectService
	channels *ChannelService

	master  *domain.Node
	channel *domain.Node
	sub     *domain.Node
	folder  *domain.Folder
}

// newFixture creates services over an in-memory store with a master node,
// a channel and a sub-channel of that channel
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := sqlstore.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	events := make(chan event.ObjectEvent, 256)
	bus.Subscribe(events)

	objects := NewObjectService(repo, bus).WithMetrics(NewMetrics(nil))
	f := &fixture{
		repo:     repo,
		bus:      bus,
		events:   events,
		objects:  objects,
		channels: NewChannelService(objects),
	}

	ctx := context.Background()
	f.master = domain.NewNode("Master", "www.example.com")
	assertNoError(t, objects.Create(ctx, f.master))
	f.channel = domain.NewChannel("Channel", "channel.example.com", f.master.ID)
	assertNoError(t, f.channels.CreateChannel(ctx, f.channel))
	f.sub = domain.NewChannel("Sub", "sub.example.com", f.channel.ID)
	assertNoError(t, f.channels.CreateChannel(ctx, f.sub))
	f.folder = domain.NewFolder("Home", 0, f.master.ID)
	assertNoError(t, objects.Create(ctx, f.folder))

	f.drain()
	return f
}

// drain returns the events published so far
func (f *fixture) drain() []event.ObjectEvent {
	var out []event.ObjectEvent
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (f *fixture) newPage(t *testing.T, name string) *domain.Page {
	t.Helper()
	page := domain.NewPage(name, f.folder.ID, 1, f.master.ID)
	assertNoError(t, f.objects.Create(context.Background(), page))
	return page
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertErrorIs fails the test unless err wraps target
func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func inChannel(id int) context.Context {
	return channel.WithChannel(context.Background(), id)
}

func actions(events []event.ObjectEvent) map[event.Action]int {
	out := map[event.Action]int{}
	for _, ev := range events {
		out[ev.Action]++
	}
	return out
}

// ============================================================================
// ObjectService
// ============================================================================

func TestObjectServiceCreate(t *testing.T) {
	f := newFixture(t)
	ctx := WithUser(context.Background(), 7)

	page := domain.NewPage("About", f.folder.ID, 1, f.master.ID)
	tag := domain.NewTag("content", 3, domain.TagKindContent)
	assertNoError(t, tag.SetValue("text", "hi"))
	assertNoError(t, page.AddTag(tag))
	assertNoError(t, f.objects.Create(ctx, page))

	t.Run("create publishes events for the page and its tags", func(t *testing.T) {
		events := f.drain()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %v", events)
		}
		if events[0].Action != event.ActionCreate || events[0].ID != page.ID {
			t.Errorf("unexpected page event %v", events[0])
		}
		if !events[1].Cascaded || events[1].ContainerID != page.ID {
			t.Errorf("expected cascaded tag event, got %v", events[1])
		}
	})

	t.Run("loaded page is read-only and carries the editor", func(t *testing.T) {
		obj, err := f.objects.Load(context.Background(), domain.TypePage, page.ID)
		assertNoError(t, err)
		loaded := obj.(*domain.Page)
		if loaded.IsEditable() {
			t.Error("expected loaded page to be read-only")
		}
		if loaded.CreatorID != 7 || loaded.EditorID != 7 {
			t.Errorf("expected creator and editor 7, got %d/%d", loaded.CreatorID, loaded.EditorID)
		}
	})

	t.Run("invalid object is rejected", func(t *testing.T) {
		err := f.objects.Create(ctx, domain.NewPage("", f.folder.ID, 1, f.master.ID))
		assertErrorIs(t, err, ErrInvalid)
	})

	t.Run("read-only object is rejected", func(t *testing.T) {
		obj, err := f.objects.Load(ctx, domain.TypePage, page.ID)
		assertNoError(t, err)
		assertErrorIs(t, f.objects.Create(ctx, obj), domain.ErrReadOnly)
	})
}

func TestObjectServiceUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.newPage(t, "About")
	f.drain()

	updated, err := f.objects.Update(ctx, domain.TypePage, page.ID, func(obj domain.NodeObject) error {
		return obj.(*domain.Page).SetName("About us")
	})
	assertNoError(t, err)
	if updated.IsEditable() {
		t.Error("expected updated object to be returned read-only")
	}
	if got := updated.(*domain.Page).Name; got != "About us" {
		t.Errorf("expected new name, got %q", got)
	}
	if a := actions(f.drain()); a[event.ActionUpdate] != 1 {
		t.Errorf("expected one update event, got %v", a)
	}

	t.Run("apply errors are invalid requests", func(t *testing.T) {
		_, err := f.objects.Update(ctx, domain.TypePage, page.ID, func(obj domain.NodeObject) error {
			return obj.(*domain.Page).SetName("")
		})
		assertErrorIs(t, err, ErrInvalid)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := f.objects.Update(ctx, domain.TypePage, 999, func(domain.NodeObject) error { return nil })
		assertErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestObjectServiceDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := domain.NewFolder("News", f.folder.ID, f.master.ID)
	assertNoError(t, f.objects.Create(ctx, sub))
	page := domain.NewPage("Article", sub.ID, 1, f.master.ID)
	assertNoError(t, f.objects.Create(ctx, page))
	local, err := f.channels.Localize(ctx, domain.TypePage, page.ID, f.channel.ID)
	assertNoError(t, err)
	f.drain()

	assertNoError(t, f.objects.Delete(ctx, domain.TypeFolder, sub.ID))

	for _, ref := range []struct {
		t  domain.ObjectType
		id int
	}{{domain.TypeFolder, sub.ID}, {domain.TypePage, page.ID}, {domain.TypePage, local.GetID()}} {
		_, err := f.repo.Get(ctx, ref.t, ref.id)
		assertErrorIs(t, err, repository.ErrNotFound)
	}
	if a := actions(f.drain()); a[event.ActionDelete] != 3 {
		t.Errorf("expected 3 delete events, got %v", a)
	}

	_, err = f.repo.Get(ctx, domain.TypeFolder, f.folder.ID)
	assertNoError(t, err)
}

func TestObjectServiceSetOnline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.newPage(t, "News")
	f.drain()

	online, err := f.objects.SetOnline(ctx, page.ID, true)
	assertNoError(t, err)
	if !online.IsOnline() || online.PublishedAt == nil {
		t.Errorf("expected published page, got %+v", online)
	}
	if online.IsEditable() {
		t.Error("returned page should be read-only")
	}
	if got := actions(f.drain()); got[event.ActionPublish] != 1 {
		t.Errorf("expected a publish event, got %v", got)
	}

	offline, err := f.objects.SetOnline(ctx, page.ID, false)
	assertNoError(t, err)
	if offline.IsOnline() {
		t.Error("expected page offline")
	}

	_, err = f.objects.SetOnline(ctx, 999, true)
	assertErrorIs(t, err, repository.ErrNotFound)
}

func TestObjectServiceHierarchyCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.objects.Hierarchy(ctx)
	assertNoError(t, err)
	if !h.IsChannelOf(f.sub.ID, f.master.ID) {
		t.Fatal("expected sub-channel to belong to the master node")
	}

	other := domain.NewChannel("Other", "other.example.com", f.master.ID)
	assertNoError(t, f.objects.Create(ctx, other))
	h, err = f.objects.Hierarchy(ctx)
	assertNoError(t, err)
	if !h.Contains(other.ID) {
		t.Error("expected hierarchy to be rebuilt after creating a node")
	}
}

// ============================================================================
// ChannelService
// ============================================================================

func TestChannelServiceLocalize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.newPage(t, "Home")
	f.drain()

	local, err := f.channels.Localize(ctx, domain.TypePage, page.ID, f.channel.ID)
	assertNoError(t, err)
	if local.IsMaster() || local.GetID() == page.ID {
		t.Fatalf("expected a new localized copy, got %s", local.Describe())
	}
	if a := actions(f.drain()); a[event.ActionLocalize] != 1 {
		t.Errorf("expected localize event, got %v", a)
	}

	t.Run("channel and sub-channel see the copy", func(t *testing.T) {
		for _, id := range []int{f.channel.ID, f.sub.ID} {
			obj, err := f.objects.Load(inChannel(id), domain.TypePage, page.ID)
			assertNoError(t, err)
			if obj.GetID() != local.GetID() {
				t.Errorf("channel %d: expected localized copy, got %s", id, obj.Describe())
			}
		}
	})

	t.Run("master node sees the master", func(t *testing.T) {
		obj, err := f.objects.Load(inChannel(f.master.ID), domain.TypePage, local.GetID())
		assertNoError(t, err)
		if obj.GetID() != page.ID {
			t.Errorf("expected master, got %s", obj.Describe())
		}
	})

	t.Run("sub-channel copies the channel's copy", func(t *testing.T) {
		_, err := f.objects.Update(ctx, domain.TypePage, local.GetID(), func(obj domain.NodeObject) error {
			return obj.(*domain.Page).SetName("Channel home")
		})
		assertNoError(t, err)
		subCopy, err := f.channels.Localize(ctx, domain.TypePage, page.ID, f.sub.ID)
		assertNoError(t, err)
		if got := subCopy.(*domain.Page).Name; got != "Channel home" {
			t.Errorf("expected copy of the channel variant, got %q", got)
		}
		assertNoError(t, f.channels.Unlocalize(ctx, domain.TypePage, page.ID, f.sub.ID))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := f.channels.Localize(ctx, domain.TypePage, page.ID, f.channel.ID)
		assertErrorIs(t, err, channel.ErrAlreadyLocalized)
		_, err = f.channels.Localize(ctx, domain.TypePage, page.ID, f.master.ID)
		assertErrorIs(t, err, channel.ErrNotChannel)
		_, err = f.channels.Localize(ctx, domain.TypeNode, f.master.ID, f.channel.ID)
		assertErrorIs(t, err, ErrInvalid)
	})

	t.Run("unlocalize", func(t *testing.T) {
		assertNoError(t, f.channels.Unlocalize(ctx, domain.TypePage, page.ID, f.channel.ID))
		obj, err := f.objects.Load(inChannel(f.channel.ID), domain.TypePage, page.ID)
		assertNoError(t, err)
		if obj.GetID() != page.ID {
			t.Errorf("expected master after unlocalize, got %s", obj.Describe())
		}
		assertErrorIs(t, f.channels.Unlocalize(ctx, domain.TypePage, page.ID, f.channel.ID), channel.ErrNotLocalized)
		assertErrorIs(t, f.channels.Unlocalize(ctx, domain.TypePage, page.ID, f.master.ID), channel.ErrMaster)
	})
}

func TestChannelServiceDisinherit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.newPage(t, "Home")
	other := f.newPage(t, "Other")
	f.drain()

	status, err := f.channels.Disinherit(ctx, domain.TypePage, page.ID, DisinheritRequest{Channels: []int{f.channel.ID}})
	assertNoError(t, err)
	if len(status.Effective) != 2 {
		t.Errorf("expected channel and sub-channel to be affected, got %v", status.Effective)
	}
	if a := actions(f.drain()); a[event.ActionHide] != 2 {
		t.Errorf("expected hide events for channel and sub-channel, got %v", a)
	}

	t.Run("hidden in channel and sub-channel", func(t *testing.T) {
		for _, id := range []int{f.channel.ID, f.sub.ID} {
			_, err := f.objects.Load(inChannel(id), domain.TypePage, page.ID)
			assertErrorIs(t, err, channel.ErrNotVisible)
		}
		objs, err := f.objects.List(inChannel(f.channel.ID), repository.Filter{Type: domain.TypePage})
		assertNoError(t, err)
		if len(objs) != 1 || objs[0].GetID() != other.ID {
			t.Errorf("expected only the other page in channel listing, got %v", objs)
		}
	})

	t.Run("cannot localize hidden object", func(t *testing.T) {
		_, err := f.channels.Localize(ctx, domain.TypePage, page.ID, f.channel.ID)
		assertErrorIs(t, err, channel.ErrNotVisible)
	})

	t.Run("reveal", func(t *testing.T) {
		_, err := f.channels.Disinherit(ctx, domain.TypePage, page.ID, DisinheritRequest{Channels: []int{}})
		assertNoError(t, err)
		if a := actions(f.drain()); a[event.ActionReveal] != 2 {
			t.Errorf("expected reveal events, got %v", a)
		}
		_, err = f.objects.Load(inChannel(f.sub.ID), domain.TypePage, page.ID)
		assertNoError(t, err)
	})

	t.Run("excluded objects are only visible in their node", func(t *testing.T) {
		excluded := true
		status, err := f.channels.Disinherit(ctx, domain.TypePage, other.ID, DisinheritRequest{Excluded: &excluded})
		assertNoError(t, err)
		if !status.Excluded {
			t.Error("expected excluded flag")
		}
		_, err = f.objects.Load(inChannel(f.channel.ID), domain.TypePage, other.ID)
		assertErrorIs(t, err, channel.ErrNotVisible)
	})

	t.Run("invalid channel", func(t *testing.T) {
		_, err := f.channels.Disinherit(ctx, domain.TypePage, page.ID, DisinheritRequest{Channels: []int{f.master.ID}})
		assertErrorIs(t, err, ErrInvalid)
	})
}

func TestChannelServiceDisinheritFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.newPage(t, "Home")

	_, err := f.channels.Disinherit(ctx, domain.TypeFolder, f.folder.ID, DisinheritRequest{
		Channels:  []int{f.channel.ID},
		Recursive: true,
	})
	assertNoError(t, err)

	status, err := f.channels.DisinheritInfo(ctx, domain.TypePage, page.ID)
	assertNoError(t, err)
	if len(status.Channels) != 1 || status.Channels[0] != f.channel.ID {
		t.Fatalf("expected folder contents to be disinherited, got %v", status.Channels)
	}

	// contents must stay hidden where the folder is hidden
	_, err = f.channels.Disinherit(ctx, domain.TypePage, page.ID, DisinheritRequest{Channels: []int{}})
	assertErrorIs(t, err, ErrInvalid)
}

func TestCreateChannelAppliesDisinheritDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.newPage(t, "Home")

	enabled := true
	_, err := f.channels.Disinherit(ctx, domain.TypePage, page.ID, DisinheritRequest{DisinheritDefault: &enabled})
	assertNoError(t, err)

	fresh := domain.NewChannel("Fresh", "fresh.example.com", f.master.ID)
	assertNoError(t, f.channels.CreateChannel(ctx, fresh))

	_, err = f.objects.Load(inChannel(fresh.ID), domain.TypePage, page.ID)
	assertErrorIs(t, err, channel.ErrNotVisible)
	_, err = f.objects.Load(inChannel(f.channel.ID), domain.TypePage, page.ID)
	assertNoError(t, err)

	assertErrorIs(t, f.channels.CreateChannel(ctx, domain.NewNode("Plain", "plain.example.com")), ErrInvalid)
}

// ============================================================================
// EventBus
// ============================================================================

func TestEventBus(t *testing.T) {
	bus := NewEventBus().WithMetrics(NewMetrics(nil))
	fast := make(chan event.ObjectEvent, 2)
	slow := make(chan event.ObjectEvent)
	bus.Subscribe(fast)
	bus.Subscribe(slow)

	page := domain.NewPage("Home", 1, 1, 1)
	bus.Publish(event.Trigger(page, event.ActionUpdate)...)

	select {
	case ev := <-fast:
		if ev.Action != event.ActionUpdate {
			t.Errorf("unexpected event %v", ev)
		}
	default:
		t.Fatal("expected event for subscriber")
	}

	bus.Unsubscribe(fast)
	bus.Publish(event.Trigger(page, event.ActionDelete)...)
	select {
	case ev := <-fast:
		t.Errorf("unsubscribed channel received %v", ev)
	default:
	}
}
