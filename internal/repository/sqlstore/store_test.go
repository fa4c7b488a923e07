package sqlstore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"contentnode/internal/domain"
	"contentnode/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestStore creates an in-memory SQLite store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// assertErrorIs fails the test unless err wraps target
func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func savePage(t *testing.T, store *Store, name string, folderID int) *domain.Page {
	t.Helper()
	page := domain.NewPage(name, folderID, 3, 1)
	assertNoError(t, store.Save(context.Background(), page))
	return page
}

// ============================================================================
// Save and Get
// ============================================================================

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	page := domain.NewPage("Home", 2, 3, 1)
	tag := domain.NewTag("text1", 7, domain.TagKindContent)
	assertNoError(t, tag.SetValue("text", "hello"))
	assertNoError(t, page.AddTag(tag))
	assertNoError(t, store.Save(ctx, page))

	t.Run("assigns ids", func(t *testing.T) {
		assertEqual(t, 1, page.ID)
		if page.ChannelSetID == 0 {
			t.Fatal("expected channel set id to be assigned")
		}
		if tag.ID == 0 {
			t.Fatal("expected tag id to be assigned")
		}
		assertEqual(t, page.ID, tag.ContainerID)
		assertEqual(t, domain.TypePage, tag.ContainerType)
	})

	t.Run("loaded object is read-only", func(t *testing.T) {
		obj, err := store.Get(ctx, domain.TypePage, page.ID)
		assertNoError(t, err)
		loaded := obj.(*domain.Page)
		assertEqual(t, "Home", loaded.Name)
		assertEqual(t, false, loaded.IsEditable())
		assertErrorIs(t, loaded.SetName("Other"), domain.ErrReadOnly)

		v, ok := loaded.Tags["text1"].Value("text")
		if !ok || v.Text != "hello" {
			t.Fatalf("expected tag value to survive, got %+v", v)
		}
		assertErrorIs(t, v.SetText("changed"), domain.ErrReadOnly)
	})

	t.Run("update through editable copy", func(t *testing.T) {
		obj, err := store.Get(ctx, domain.TypePage, page.ID)
		assertNoError(t, err)
		edit := obj.(*domain.Page).Copy()
		assertNoError(t, edit.SetName("Start"))
		assertNoError(t, store.Save(ctx, edit))

		obj, err = store.Get(ctx, domain.TypePage, page.ID)
		assertNoError(t, err)
		assertEqual(t, "Start", obj.(*domain.Page).Name)
		assertEqual(t, page.GlobalID, obj.GetGlobalID())
	})

	t.Run("get by global id", func(t *testing.T) {
		obj, err := store.GetByGlobalID(ctx, page.GlobalID)
		assertNoError(t, err)
		assertEqual(t, page.ID, obj.GetID())
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := store.Get(ctx, domain.TypePage, 999)
		assertErrorIs(t, err, repository.ErrNotFound)
		_, err = store.GetByGlobalID(ctx, domain.NewGlobalID())
		assertErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSaveRejects(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("read-only instance", func(t *testing.T) {
		folder := domain.NewFolder("news", 1, 1)
		folder.Freeze()
		assertErrorIs(t, store.Save(ctx, folder), domain.ErrReadOnly)
	})

	t.Run("non-standalone type", func(t *testing.T) {
		if err := store.Save(ctx, domain.NewTag("t", 1, domain.TagKindContent)); err == nil {
			t.Fatal("expected error saving a tag on its own")
		}
	})

	t.Run("duplicate global id", func(t *testing.T) {
		first := domain.NewFolder("a", 1, 1)
		assertNoError(t, store.Save(ctx, first))
		second := domain.NewFolder("b", 1, 1)
		second.GlobalID = first.GlobalID
		assertErrorIs(t, store.Save(ctx, second), repository.ErrConflict)
	})
}

func TestIDSequences(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	imported := domain.NewConstruct("imported")
	imported.ID = 50
	assertNoError(t, store.Save(ctx, imported))

	next := domain.NewConstruct("next")
	assertNoError(t, next.AddPart(domain.NewPart("text", domain.PartTypeText)))
	assertNoError(t, store.Save(ctx, next))
	assertEqual(t, 51, next.ID)
	assertEqual(t, next.ID, next.Parts[0].ConstructID)
	if next.Parts[0].ID == 0 {
		t.Fatal("expected part id to be assigned")
	}

	// ids are counted per type
	folder := domain.NewFolder("news", 1, 1)
	assertNoError(t, store.Save(ctx, folder))
	assertEqual(t, 1, folder.ID)
}

// ============================================================================
// List
// ============================================================================

func TestList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	savePage(t, store, "Alpha", 2)
	savePage(t, store, "Beta", 2)
	savePage(t, store, "Gamma 100%", 4)
	assertNoError(t, store.Save(ctx, domain.NewFolder("Alpha folder", 2, 1)))

	tests := []struct {
		name   string
		filter repository.Filter
		want   []string
	}{
		{"by type", repository.Filter{Type: domain.TypePage}, []string{"Alpha", "Beta", "Gamma 100%"}},
		{"by folder", repository.Filter{Type: domain.TypePage, FolderID: 2}, []string{"Alpha", "Beta"}},
		{"by name", repository.Filter{Name: "alpha"}, []string{"Alpha folder", "Alpha"}},
		{"name with wildcard", repository.Filter{Name: "0%"}, []string{"Gamma 100%"}},
		{"limit", repository.Filter{Type: domain.TypePage, Limit: 1}, []string{"Alpha"}},
		{"offset", repository.Filter{Type: domain.TypePage, Offset: 2}, []string{"Gamma 100%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := store.List(ctx, tt.filter)
			assertNoError(t, err)
			var names []string
			for _, obj := range objs {
				switch o := obj.(type) {
				case *domain.Page:
					names = append(names, o.Name)
				case *domain.Folder:
					names = append(names, o.Name)
				}
				if obj.IsEditable() {
					t.Errorf("expected %s to be read-only", obj.Describe())
				}
			}
			assertEqual(t, tt.want, names)
		})
	}

	t.Run("list in folder", func(t *testing.T) {
		objs, err := store.ListInFolder(ctx, domain.TypeFolder, 2)
		assertNoError(t, err)
		assertEqual(t, 1, len(objs))
	})
}

// ============================================================================
// Channel sets and disinheritance
// ============================================================================

func TestChannelSet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	master := savePage(t, store, "Home", 2)

	local := master.Copy()
	domain.ResetIdentity(local)
	local.ChannelID = 5
	local.Master = false
	assertNoError(t, store.Save(ctx, local))
	assertEqual(t, master.ChannelSetID, local.ChannelSetID)

	t.Run("variants share the channel set", func(t *testing.T) {
		variants, err := store.ChannelSet(ctx, domain.TypePage, master.ChannelSetID)
		assertNoError(t, err)
		assertEqual(t, 2, len(variants))
		loaded := variants[1].(*domain.Page)
		assertEqual(t, 5, loaded.ChannelID)
		assertEqual(t, false, loaded.IsMaster())
	})

	t.Run("second copy in the same channel conflicts", func(t *testing.T) {
		dup := master.Copy()
		domain.ResetIdentity(dup)
		dup.ChannelID = 5
		dup.Master = false
		assertErrorIs(t, store.Save(ctx, dup), repository.ErrConflict)
	})

	t.Run("unknown channel set is empty", func(t *testing.T) {
		variants, err := store.ChannelSet(ctx, domain.TypePage, 0)
		assertNoError(t, err)
		assertEqual(t, 0, len(variants))
	})
}

func TestDisinherited(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	master := domain.NewPage("Home", 2, 3, 1)
	assertNoError(t, domain.SetDisinheritedChannels(master, []int{4}))
	assertNoError(t, store.Save(ctx, master))

	obj, err := store.Get(ctx, domain.TypePage, master.ID)
	assertNoError(t, err)
	assertEqual(t, []int{4}, obj.(*domain.Page).DisinheritedChannels)

	assertNoError(t, store.SetDisinherited(ctx, domain.TypePage, master.ChannelSetID, []int{6, 5}))
	obj, err = store.Get(ctx, domain.TypePage, master.ID)
	assertNoError(t, err)
	assertEqual(t, []int{5, 6}, obj.(*domain.Page).DisinheritedChannels)

	err = store.SetDisinherited(ctx, domain.TypePage, 999, []int{5})
	assertErrorIs(t, err, repository.ErrNotFound)

	assertNoError(t, store.Delete(ctx, domain.TypePage, master.ID))
	channels, err := store.queryInts(ctx, `SELECT channel_id FROM disinherited_channels`)
	assertNoError(t, err)
	assertEqual(t, 0, len(channels))
}

// ============================================================================
// Delete and group memberships
// ============================================================================

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	page := savePage(t, store, "Home", 2)
	assertNoError(t, store.Delete(ctx, domain.TypePage, page.ID))

	_, err := store.Get(ctx, domain.TypePage, page.ID)
	assertErrorIs(t, err, repository.ErrNotFound)
	assertErrorIs(t, store.Delete(ctx, domain.TypePage, page.ID), repository.ErrNotFound)
}

func TestGroupMembers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := domain.NewSystemUser("jdoe", "John", "Doe")
	assertNoError(t, user.AddGroup(2))
	assertNoError(t, user.AddGroup(3))
	assertNoError(t, store.Save(ctx, user))

	members, err := store.GroupMembers(ctx, 2)
	assertNoError(t, err)
	assertEqual(t, []int{user.ID}, members)

	obj, err := store.Get(ctx, domain.TypeSystemUser, user.ID)
	assertNoError(t, err)
	assertEqual(t, []int{2, 3}, obj.(*domain.SystemUser).GroupIDs)

	assertNoError(t, store.Delete(ctx, domain.TypeSystemUser, user.ID))
	members, err = store.GroupMembers(ctx, 2)
	assertNoError(t, err)
	assertEqual(t, 0, len(members))
}
