package compiler

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/elcodo/burdy/internal/mapper"
	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/store"
	"github.com/elcodo/burdy/internal/tester"
)

func makePost(t *testing.T, st store.Store, slug string, status model.PostStatus, content map[string]interface{}) *model.Post {
	t.Helper()

	data, err := json.Marshal(content)
	assert.NoError(t, err)

	post := &model.Post{
		ID:       uuid.New().String(),
		Type:     model.PostTypePage,
		Name:     slug,
		Slug:     slug,
		SlugPath: slug,
		Status:   status,
		Content:  string(data),
	}
	assert.NoError(t, st.CreatePost(context.TODO(), post))

	return post
}

func postRef(id string) map[string]interface{} {
	return map[string]interface{}{"$post": id}
}

func TestCompiler_Compile(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	page := makePost(t, st, "home", model.PostStatusPublished, map[string]interface{}{"body": "welcome"})

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.NoError(t, err)
	assert.Equal(t, page.ID, compiled.ID)
	assert.Equal(t, "welcome", compiled.Content["body"])

	compiled, err = compiler.Compile(context.TODO(), CompileRequest{SlugPath: "/home"})
	assert.NoError(t, err)
	assert.Equal(t, page.ID, compiled.ID)

	_, err = compiler.Compile(context.TODO(), CompileRequest{})
	assert.ErrorIs(t, err, ErrInvalidPost)
}

func TestCompiler_DraftsHidden(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	draft := makePost(t, st, "draft", model.PostStatusDraft, map[string]interface{}{"body": "wip"})

	_, err := compiler.Compile(context.TODO(), CompileRequest{ID: draft.ID})
	assert.ErrorIs(t, err, ErrInvalidPost)

	// a directly supplied post compiles without the visibility check
	compiled, err := compiler.Compile(context.TODO(), CompileRequest{Post: draft})
	assert.NoError(t, err)
	assert.Equal(t, "wip", compiled.Content["body"])
}

func TestCompiler_PublishWindowRespected(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	page := makePost(t, st, "scheduled", model.PostStatusPublished, map[string]interface{}{})
	page.PublishedFrom = &future
	assert.NoError(t, st.UpdatePost(context.TODO(), page))

	compiler := NewCompiler(st, nil, func() time.Time { return now })
	_, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.ErrorIs(t, err, ErrInvalidPost)

	compiler = NewCompiler(st, nil, func() time.Time { return future.Add(time.Minute) })
	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.NoError(t, err)
	assert.Equal(t, page.ID, compiled.ID)
}

func TestCompiler_InlinesReferences(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	footer := makePost(t, st, "footer", model.PostStatusPublished, map[string]interface{}{"text": "bye"})
	page := makePost(t, st, "landing", model.PostStatusPublished, map[string]interface{}{
		"body": "hi",
		"sections": []interface{}{
			map[string]interface{}{"heading": "one"},
			postRef(footer.ID),
		},
	})

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.NoError(t, err)

	sections := compiled.Content["sections"].([]interface{})
	sub, ok := sections[1].(*mapper.PublicPost)
	assert.True(t, ok)
	assert.Equal(t, footer.ID, sub.ID)
	assert.Equal(t, "bye", sub.Content["text"])
}

func TestCompiler_CycleTruncation(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	a := makePost(t, st, "a", model.PostStatusPublished, nil)
	b := makePost(t, st, "b", model.PostStatusPublished, nil)
	c := makePost(t, st, "c", model.PostStatusPublished, nil)

	link := func(post *model.Post, target string) {
		data, err := json.Marshal(map[string]interface{}{"next": postRef(target)})
		assert.NoError(t, err)
		post.Content = string(data)
		assert.NoError(t, st.UpdatePost(context.TODO(), post))
	}
	link(a, b.ID)
	link(b, c.ID)
	link(c, a.ID)

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: a.ID})
	assert.NoError(t, err)

	subB, ok := compiled.Content["next"].(*mapper.PublicPost)
	assert.True(t, ok)
	assert.Equal(t, b.ID, subB.ID)

	subC, ok := subB.Content["next"].(*mapper.PublicPost)
	assert.True(t, ok)
	assert.Equal(t, c.ID, subC.ID)

	subA, ok := subC.Content["next"].(*mapper.PublicPost)
	assert.True(t, ok)
	assert.Equal(t, a.ID, subA.ID)

	// the ceiling is reached: the marker back to b stays unresolved
	marker, ok := subA.Content["next"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, b.ID, marker["$post"])
}

type countingStore struct {
	store.Store
	gets atomic.Int64
}

func (c *countingStore) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	c.gets.Add(1)
	return c.Store.GetPost(ctx, id)
}

func TestCompiler_DuplicateRefsCompiledOnce(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())

	shared := makePost(t, st, "shared", model.PostStatusPublished, map[string]interface{}{"text": "once"})
	page := makePost(t, st, "parent", model.PostStatusPublished, map[string]interface{}{
		"header": postRef(shared.ID),
		"footer": postRef(shared.ID),
	})

	counting := &countingStore{Store: st}
	compiler := NewCompiler(counting, nil, nil)

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{Post: page})
	assert.NoError(t, err)

	// one store read, both sites filled with the same result
	assert.Equal(t, int64(1), counting.gets.Load())
	assert.Same(t, compiled.Content["header"], compiled.Content["footer"])
}

func TestCompiler_MissingRefLeftUnresolved(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	missing := uuid.New().String()
	draft := makePost(t, st, "hidden", model.PostStatusDraft, map[string]interface{}{"text": "hidden"})
	page := makePost(t, st, "page", model.PostStatusPublished, map[string]interface{}{
		"gone":   postRef(missing),
		"hidden": postRef(draft.ID),
	})

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.NoError(t, err)

	// broken and invisible targets never fail the compile
	marker, ok := compiled.Content["gone"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, missing, marker["$post"])

	marker, ok = compiled.Content["hidden"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, draft.ID, marker["$post"])
}

func TestCompiler_AssetMerge(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	asset := &model.Asset{
		ID:       uuid.New().String(),
		Name:     "hero.png",
		Path:     "uploads/hero.png",
		MimeType: "image/png",
		Size:     2048,
	}
	assert.NoError(t, st.CreateAsset(context.TODO(), asset))

	stored, err := st.GetAsset(context.TODO(), uuid.MustParse(asset.ID))
	assert.NoError(t, err)
	assert.Equal(t, asset.Path, stored.Path)

	page := makePost(t, st, "gallery", model.PostStatusPublished, map[string]interface{}{
		"hero": map[string]interface{}{
			"$asset": asset.ID,
			"alt":    "a hero image",
			"name":   "stale-name.png",
		},
	})

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.NoError(t, err)

	hero, ok := compiled.Content["hero"].(map[string]interface{})
	assert.True(t, ok)

	// asset fields win over stale node data, extra node keys survive
	assert.Equal(t, "hero.png", hero["name"])
	assert.Equal(t, "uploads/hero.png", hero["path"])
	assert.Equal(t, "image/png", hero["mimeType"])
	assert.Equal(t, "a hero image", hero["alt"])
	assert.NotContains(t, hero, "$asset")
}

func TestCompiler_MissingAssetLeftUnresolved(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	compiler := NewCompiler(st, nil, nil)

	missing := uuid.New().String()
	page := makePost(t, st, "page", model.PostStatusPublished, map[string]interface{}{
		"img": map[string]interface{}{"$asset": missing},
	})

	compiled, err := compiler.Compile(context.TODO(), CompileRequest{ID: page.ID})
	assert.NoError(t, err)

	marker, ok := compiled.Content["img"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, missing, marker["$asset"])
}
