package service

import (
	"context"
	"testing"

	"contentnode/internal/devtools"
	"contentnode/internal/domain"
	"contentnode/internal/repository"
)

// seedImplementation creates a datasource, a construct with a select part
// using it and a template with a tag of the construct
func seedImplementation(t *testing.T, f *fixture) (*domain.Construct, *domain.Template) {
	t.Helper()
	ctx := context.Background()

	colors := domain.NewDatasource("colors", domain.DatasourceStatic)
	_, err := colors.AddEntry("red", "Red")
	assertNoError(t, err)
	_, err = colors.AddEntry("blue", "Blue")
	assertNoError(t, err)
	assertNoError(t, f.objects.Create(ctx, colors))

	construct := domain.NewConstruct("teaser")
	assertNoError(t, construct.AddPart(domain.NewPart("text", domain.PartTypeText)))
	color := domain.NewPart("color", domain.PartTypeSelectSingle)
	color.DatasourceID = colors.ID
	assertNoError(t, construct.AddPart(color))
	assertNoError(t, f.objects.Create(ctx, construct))

	tmpl := domain.NewTemplate("Standard", "<node teaser>", f.master.ID)
	tag := domain.NewTag("teaser", construct.ID, domain.TagKindTemplate)
	assertNoError(t, tag.SetValue("text", "default"))
	assertNoError(t, tmpl.AddTag(tag))
	assertNoError(t, f.objects.Create(ctx, tmpl))
	return construct, tmpl
}

func count(t *testing.T, f *fixture, typ domain.ObjectType) int {
	t.Helper()
	objs, err := f.repo.List(context.Background(), repository.Filter{Type: typ})
	assertNoError(t, err)
	return len(objs)
}

func TestDevtoolsExportImport(t *testing.T) {
	ctx := context.Background()
	packages := devtools.New(t.TempDir(), nil)

	src := newFixture(t)
	construct, tmpl := seedImplementation(t, src)
	exported, err := NewDevtoolsService(src.objects, packages).Export(ctx, "basic", Selection{})
	assertNoError(t, err)
	if len(exported.Constructs) != 1 || len(exported.Datasources) != 1 || len(exported.Templates) != 1 {
		t.Fatalf("unexpected export %+v", exported)
	}

	t.Run("selection limits the export", func(t *testing.T) {
		c, err := NewDevtoolsService(src.objects, packages).Contents(ctx, Selection{Templates: []string{"none"}})
		assertNoError(t, err)
		if len(c.Templates) != 0 || len(c.Constructs) != 1 {
			t.Errorf("unexpected selection %+v", c)
		}
	})

	dst := newFixture(t)
	svc := NewDevtoolsService(dst.objects, packages).WithNode(dst.master.ID)
	_, err = svc.ImportPackage(ctx, "basic")
	assertNoError(t, err)

	t.Run("objects keep their global IDs", func(t *testing.T) {
		obj, err := dst.repo.GetByGlobalID(ctx, tmpl.GlobalID)
		assertNoError(t, err)
		imported := obj.(*domain.Template)
		if imported.Source != "<node teaser>" || imported.NodeID != dst.master.ID {
			t.Errorf("unexpected template %+v", imported)
		}
		tag, ok := imported.Tag("teaser")
		if !ok {
			t.Fatal("expected imported template tag")
		}
		c, err := dst.repo.GetByGlobalID(ctx, construct.GlobalID)
		assertNoError(t, err)
		if tag.ConstructID != c.GetID() {
			t.Errorf("expected tag to reference construct %d, got %d", c.GetID(), tag.ConstructID)
		}
		part, ok := c.(*domain.Construct).Part("color")
		if !ok || part.DatasourceID == 0 {
			t.Errorf("expected select part to reference the imported datasource, got %+v", part)
		}
	})

	t.Run("importing again updates in place", func(t *testing.T) {
		_, err := svc.ImportPackage(ctx, "basic")
		assertNoError(t, err)
		for _, typ := range []domain.ObjectType{domain.TypeConstruct, domain.TypeDatasource, domain.TypeTemplate} {
			if n := count(t, dst, typ); n != 1 {
				t.Errorf("expected one %s, got %d", typ, n)
			}
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := svc.ImportPackage(ctx, "missing")
		assertErrorIs(t, err, devtools.ErrNotFound)
	})
}

func TestDevtoolsImportMatchesByName(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)
	seedImplementation(t, src)
	c, err := NewDevtoolsService(src.objects, nil).Contents(ctx, Selection{Constructs: []string{"teaser"}})
	assertNoError(t, err)
	c.Constructs[0].GlobalID = ""

	dst := newFixture(t)
	existing := domain.NewConstruct("teaser")
	assertNoError(t, existing.AddPart(domain.NewPart("text", domain.PartTypeText)))
	assertNoError(t, dst.objects.Create(ctx, existing))

	// datasources are exported along with the construct
	assertNoError(t, NewDevtoolsService(dst.objects, nil).Import(ctx, "inline", c))
	if n := count(t, dst, domain.TypeConstruct); n != 1 {
		t.Fatalf("expected the construct to be updated, found %d", n)
	}
	obj, err := dst.repo.Get(ctx, domain.TypeConstruct, existing.ID)
	assertNoError(t, err)
	if _, ok := obj.(*domain.Construct).Part("color"); !ok {
		t.Error("expected imported part on the existing construct")
	}
}

func TestDevtoolsImportConflict(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)
	construct, _ := seedImplementation(t, src)
	c, err := NewDevtoolsService(src.objects, nil).Contents(ctx, Selection{})
	assertNoError(t, err)

	dst := newFixture(t)
	page := domain.NewPage("Taken", dst.folder.ID, 1, dst.master.ID)
	page.GlobalID = construct.GlobalID
	assertNoError(t, dst.objects.Create(ctx, page))

	err = NewDevtoolsService(dst.objects, nil).WithNode(dst.master.ID).Import(ctx, "conflict", c)
	assertErrorIs(t, err, repository.ErrConflict)
}
