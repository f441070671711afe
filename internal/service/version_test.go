package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/store"
	"github.com/elcodo/burdy/internal/tester"
)

func TestVersionService_SnapshotOnUpdate(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	posts := newPostService()
	versions := NewVersionService(store.NewGormStore(tester.TestDB()), nil)

	page := mustCreate(t, posts, &CreatePostRequest{
		Type:    model.PostTypePage,
		Name:    "One",
		Slug:    "one",
		Content: map[string]interface{}{"body": "v1"},
		Tags:    []string{"first"},
	})

	count, err := versions.CountVersions(context.TODO(), page.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	name := "Two"
	_, err = posts.UpdatePost(context.TODO(), &UpdatePostRequest{
		PostID:  page.ID,
		Name:    &name,
		Content: map[string]interface{}{"body": "v2"},
	})
	assert.NoError(t, err)

	name = "Three"
	_, err = posts.UpdatePost(context.TODO(), &UpdatePostRequest{
		PostID:  page.ID,
		Name:    &name,
		Content: map[string]interface{}{"body": "v3"},
	})
	assert.NoError(t, err)

	list, err := versions.ListVersions(context.TODO(), page.ID)
	assert.NoError(t, err)
	assert.Len(t, list, 2)

	// newest first: the second snapshot holds the pre-third-edit state
	assert.Equal(t, "Two", list[0].Name)
	assert.Equal(t, "One", list[1].Name)

	for _, v := range list {
		assert.True(t, v.IsVersion())
		assert.Equal(t, page.ID, *v.ParentID)
		assert.NotEqual(t, page.SlugPath, v.SlugPath)
	}

	// the oldest snapshot carries the original content and tags
	assert.Contains(t, list[1].Content, "v1")
	assert.Len(t, list[1].Tags, 1)
}

func TestVersionService_ExplicitSnapshot(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	posts := newPostService()
	versions := NewVersionService(store.NewGormStore(tester.TestDB()), nil)

	page := mustCreate(t, posts, &CreatePostRequest{Type: model.PostTypePage, Name: "P", Slug: "p"})

	version, err := versions.Snapshot(context.TODO(), page.ID, "")
	assert.NoError(t, err)
	assert.True(t, version.IsVersion())
	assert.Equal(t, page.ID, *version.ParentID)

	// a version row is not a valid snapshot source
	_, err = versions.Snapshot(context.TODO(), version.ID, "")
	assert.ErrorIs(t, err, ErrInvalidPost)
}

func TestVersionService_Restore(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	posts := newPostService()
	versions := NewVersionService(store.NewGormStore(tester.TestDB()), nil)

	page := mustCreate(t, posts, &CreatePostRequest{
		Type:    model.PostTypePage,
		Name:    "Original",
		Slug:    "restore-me",
		Content: map[string]interface{}{"body": "original"},
	})

	name := "Edited"
	_, err := posts.UpdatePost(context.TODO(), &UpdatePostRequest{
		PostID:  page.ID,
		Name:    &name,
		Content: map[string]interface{}{"body": "edited"},
	})
	assert.NoError(t, err)

	list, err := versions.ListVersions(context.TODO(), page.ID)
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	restored, err := versions.Restore(context.TODO(), page.ID, list[0].ID, "")
	assert.NoError(t, err)
	assert.Equal(t, "Original", restored.Name)
	assert.Contains(t, restored.Content, "original")

	// the restore snapshotted the pre-restore state, so it can be undone
	list, err = versions.ListVersions(context.TODO(), page.ID)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "Edited", list[0].Name)
}

func TestVersionService_Restore_WrongPost(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	posts := newPostService()
	versions := NewVersionService(store.NewGormStore(tester.TestDB()), nil)

	a := mustCreate(t, posts, &CreatePostRequest{Type: model.PostTypePage, Name: "A", Slug: "a"})
	b := mustCreate(t, posts, &CreatePostRequest{Type: model.PostTypePage, Name: "B", Slug: "b"})

	version, err := versions.Snapshot(context.TODO(), a.ID, "")
	assert.NoError(t, err)

	// a version belongs to exactly one post
	_, err = versions.Restore(context.TODO(), b.ID, version.ID, "")
	assert.ErrorIs(t, err, ErrInvalidPostVersion)

	// a live post id is not a version id
	_, err = versions.Restore(context.TODO(), a.ID, b.ID, "")
	assert.ErrorIs(t, err, ErrInvalidPostVersion)
}

func TestVersionService_DeleteVersions(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	posts := newPostService()
	versions := NewVersionService(store.NewGormStore(tester.TestDB()), nil)

	page := mustCreate(t, posts, &CreatePostRequest{Type: model.PostTypePage, Name: "P", Slug: "p"})

	v1, err := versions.Snapshot(context.TODO(), page.ID, "")
	assert.NoError(t, err)
	v2, err := versions.Snapshot(context.TODO(), page.ID, "")
	assert.NoError(t, err)

	// live post ids and junk ids are ignored, only version rows go
	deleted, err := versions.DeleteVersions(context.TODO(), []string{v1.ID, v2.ID, page.ID, "not-a-uuid"})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := versions.CountVersions(context.TODO(), page.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// the live post survived
	got, err := posts.GetPost(context.TODO(), page.ID)
	assert.NoError(t, err)
	assert.Equal(t, "p", got.SlugPath)
}
