package restmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentnode/internal/channel"
	"contentnode/internal/domain"
	"contentnode/internal/resolvable"
)

func testPage(t *testing.T) *domain.Page {
	t.Helper()
	page := domain.NewPage("Home", 2, 3, 1)
	page.ID = 4
	page.FileName = "index.html"
	page.ChannelSetID = 40
	page.DisinheritedChannels = []int{6}
	tag := domain.NewTag("text1", 7, domain.TagKindContent)
	require.NoError(t, tag.SetValue("text", "hello"))
	flag := domain.NewValue("show", domain.PartTypeCheckbox)
	flag.Text = "1"
	require.NoError(t, tag.PutValue(flag))
	require.NoError(t, page.AddTag(tag))
	return page
}

func TestPageToREST(t *testing.T) {
	page := testPage(t)
	folder := domain.NewFolder("News", 0, 1)
	folder.ID = 2
	loader := resolvable.LoaderFunc(func(_ context.Context, typ domain.ObjectType, id int) (domain.NodeObject, error) {
		if typ == domain.TypeFolder && id == 2 {
			return folder, nil
		}
		return nil, fmt.Errorf("%s %d not found", typ, id)
	})
	tr := NewTransformer(loader)

	rest, err := tr.Page(context.Background(), page, FillTags, FillFolder, FillDisinherit)
	require.NoError(t, err)

	assert.Equal(t, 4, rest.ID)
	assert.Equal(t, "index.html", rest.FileName)
	assert.Equal(t, 40, rest.ChannelSetID)
	assert.True(t, rest.Master)
	assert.False(t, rest.Inherited)
	assert.Equal(t, []int{6}, rest.Disinherit)
	require.NotNil(t, rest.Folder)
	assert.Equal(t, "News", rest.Folder.Name)

	tag, ok := rest.Tags["text1"]
	require.True(t, ok)
	assert.Equal(t, "CONTENTTAG", tag.Type)
	assert.Equal(t, "hello", tag.Properties["text"].StringValue)
	require.NotNil(t, tag.Properties["show"].BooleanValue)
	assert.True(t, *tag.Properties["show"].BooleanValue)

	data, err := json.Marshal(rest)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "globalId", "fileName", "inherited", "masterNodeId", "channelSetId", "excluded", "disinheritDefault", "disinherit", "tags"} {
		assert.Contains(t, raw, key)
	}
}

func TestPageToRESTInChannel(t *testing.T) {
	ctx := channel.WithChannel(context.Background(), 5)
	rest, err := NewTransformer(nil).Page(ctx, testPage(t))
	require.NoError(t, err)
	assert.True(t, rest.Inherited)
	assert.Equal(t, 1, rest.InheritedFromID)
	assert.Nil(t, rest.Tags, "tags are only filled on request")
	assert.Nil(t, rest.Disinherit)
}

func TestApplyPage(t *testing.T) {
	page := testPage(t)
	page.Freeze()

	rest := &Page{Name: "Start"}
	assert.ErrorIs(t, ApplyPage(rest, page), domain.ErrReadOnly)

	edit := page.Copy()
	show, active := false, true
	rest = &Page{
		Name:     "Start",
		FileName: "start.html",
		Tags: map[string]Tag{
			"text1": {Active: &active, Properties: map[string]Property{
				"text": {Type: "TEXT", StringValue: "changed"},
				"show": {Type: "BOOLEAN", BooleanValue: &show},
			}},
			"teaser": {ConstructID: 9, Active: &active, Properties: map[string]Property{
				"link": {Type: "URLPAGE", PageID: 12},
			}},
		},
	}
	require.NoError(t, ApplyPage(rest, edit))

	assert.Equal(t, "Start", edit.Name)
	assert.Equal(t, "start.html", edit.FileName)
	assert.Equal(t, "Home", page.Name, "original must not change")

	text, _ := edit.Tags["text1"].Value("text")
	assert.Equal(t, "changed", text.Text)
	flag, _ := edit.Tags["text1"].Value("show")
	assert.Equal(t, "false", flag.Text)

	teaser, ok := edit.Tag("teaser")
	require.True(t, ok)
	link, _ := teaser.Value("link")
	assert.Equal(t, 12, link.ValueRef)
	assert.Equal(t, domain.PartTypeURLPage, link.PartType)

	err := ApplyPage(&Page{Tags: map[string]Tag{"nocontruct": {}}}, edit)
	assert.Error(t, err)
}

func TestApplyPageTagContent(t *testing.T) {
	page := testPage(t)
	page.Freeze()

	t.Run("omitted active flag keeps the tag enabled", func(t *testing.T) {
		edit := page.Copy()
		require.NoError(t, edit.Publish(time.Now()))
		require.False(t, edit.Modified)

		rest := &Page{Tags: map[string]Tag{
			"text1": {Properties: map[string]Property{"text": {Type: "TEXT", StringValue: "new"}}},
		}}
		require.NoError(t, ApplyPage(rest, edit))

		tag, ok := edit.Tag("text1")
		require.True(t, ok)
		text, _ := tag.Value("text")
		assert.Equal(t, "new", text.Text)
		assert.True(t, tag.Enabled)
		assert.True(t, edit.Modified, "changed tag content must mark the page modified")
	})

	t.Run("explicit active flag disables the tag", func(t *testing.T) {
		edit := page.Copy()
		inactive := false
		require.NoError(t, ApplyPage(&Page{Tags: map[string]Tag{"text1": {Active: &inactive}}}, edit))
		tag, _ := edit.Tag("text1")
		assert.False(t, tag.Enabled)
	})

	t.Run("unchanged values leave the page unmodified", func(t *testing.T) {
		edit := page.Copy()
		require.NoError(t, edit.Publish(time.Now()))

		rest := &Page{Tags: map[string]Tag{
			"text1": {Properties: map[string]Property{"text": {Type: "TEXT", StringValue: "hello"}}},
		}}
		require.NoError(t, ApplyPage(rest, edit))
		assert.False(t, edit.Modified)
	})
}

func TestApplyUser(t *testing.T) {
	user := domain.NewSystemUser("jdoe", "John", "Doe")
	require.NoError(t, ApplyUser(&User{Email: "john@example.com", Password: "long enough"}, user))
	assert.Equal(t, "john@example.com", user.Email)
	assert.True(t, user.CheckPassword("long enough"))

	rest := UserToREST(user)
	data, err := json.Marshal(rest)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}

type fakeRefs map[domain.GlobalID]int

func (f fakeRefs) GlobalIDOf(_ domain.ObjectType, id int) (domain.GlobalID, error) {
	for gid, i := range f {
		if i == id {
			return gid, nil
		}
	}
	return "", fmt.Errorf("no global id for %d", id)
}

func (f fakeRefs) IDOf(_ domain.ObjectType, gid domain.GlobalID) (int, error) {
	if id, ok := f[gid]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown global id %s", gid)
}

type fakeConstructs map[string]int

func (f fakeConstructs) KeywordOf(id int) (string, error) {
	for kw, i := range f {
		if i == id {
			return kw, nil
		}
	}
	return "", fmt.Errorf("no construct %d", id)
}

func (f fakeConstructs) ConstructID(kw string) (int, error) {
	if id, ok := f[kw]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("no construct %s", kw)
}

func TestConstructDevtools(t *testing.T) {
	refs := fakeRefs{"ds-colors": 30}

	c := domain.NewConstruct("select")
	c.ID = 9
	_ = c.SetName("en", "Select")
	part := domain.NewPart("color", domain.PartTypeSelectSingle)
	part.DatasourceID = 30
	require.NoError(t, c.AddPart(part))

	dc, err := ConstructToDevtools(c, refs)
	require.NoError(t, err)
	assert.Equal(t, "select", dc.Keyword)
	require.Len(t, dc.Parts, 1)
	assert.Equal(t, "SELECTSINGLE", dc.Parts[0].Type)
	assert.Equal(t, "ds-colors", dc.Parts[0].Datasource)

	imported := domain.NewConstruct("")
	require.NoError(t, ConstructFromDevtools(dc, imported, refs))
	assert.Equal(t, c.GlobalID, imported.GlobalID)
	got, ok := imported.Part("color")
	require.True(t, ok)
	assert.Equal(t, 30, got.DatasourceID)
	assert.Equal(t, part.GlobalID, got.GlobalID)

	dc.Parts[0].Datasource = "missing"
	assert.Error(t, ConstructFromDevtools(dc, domain.NewConstruct(""), refs))
}

func TestTemplateDevtools(t *testing.T) {
	constructs := fakeConstructs{"text": 7}

	tmpl := domain.NewTemplate("default", "<node content>", 1)
	tag := domain.NewTag("content", 7, domain.TagKindTemplate)
	tag.EditableInPage = true
	require.NoError(t, tag.SetValue("text", "default text"))
	require.NoError(t, tmpl.AddTag(tag))

	dt, err := TemplateToDevtools(tmpl, constructs)
	require.NoError(t, err)
	require.Len(t, dt.TemplateTags, 1)
	assert.Equal(t, "text", dt.TemplateTags[0].Construct)
	assert.Equal(t, "default text", dt.TemplateTags[0].Values["text"])

	data, err := json.Marshal(dt)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<node content>", "source is stored separately")

	target := domain.NewTemplate("old", "", 1)
	require.NoError(t, target.AddTag(domain.NewTag("stale", 7, domain.TagKindTemplate)))
	require.NoError(t, TemplateFromDevtools(dt, target, constructs))
	assert.Equal(t, "default", target.Name)
	assert.Equal(t, "<node content>", target.Source)
	_, stale := target.Tags["stale"]
	assert.False(t, stale)
	imported, ok := target.Tags["content"]
	require.True(t, ok)
	assert.True(t, imported.EditableInPage)
}

func TestDatasourceDevtools(t *testing.T) {
	ds := domain.NewDatasource("colors", domain.DatasourceStatic)
	_, _ = ds.AddEntry("red", "Red")
	_, _ = ds.AddEntry("blue", "Blue")

	dd := DatasourceToDevtools(ds)
	require.Len(t, dd.Values, 2)

	imported := domain.NewDatasource("", "")
	require.NoError(t, DatasourceFromDevtools(dd, imported))
	assert.Equal(t, "colors", imported.Name)
	assert.Equal(t, ds.GlobalID, imported.GlobalID)
	e, ok := imported.Entry("blue")
	require.True(t, ok)
	assert.Equal(t, 2, e.DsID)
}

func TestParseFill(t *testing.T) {
	fill := ParseFill([]string{"tags, folder", "disinherit"})
	assert.Equal(t, []Fill{FillTags, FillFolder, FillDisinherit}, fill)
}
