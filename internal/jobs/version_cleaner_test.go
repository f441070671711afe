package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/store"
	"github.com/elcodo/burdy/internal/tester"
)

func makeVersion(t *testing.T, st store.Store, parentID string) *model.Post {
	t.Helper()

	synthetic := uuid.New().String()
	version := &model.Post{
		ID:       uuid.New().String(),
		Type:     model.PostTypeVersion,
		Name:     "snapshot",
		Slug:     synthetic,
		SlugPath: synthetic,
		ParentID: &parentID,
	}
	assert.NoError(t, st.CreatePost(context.TODO(), version))

	return version
}

func TestVersionCleaner_Run(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())

	parentA := uuid.New().String()
	parentB := uuid.New().String()

	for i := 0; i < 3; i++ {
		makeVersion(t, st, parentA)
	}
	makeVersion(t, st, parentB)

	cleaner := NewVersionCleaner(st)
	cleaner.Run()

	// one survivor per (parent, window): two of parentA's three go
	countA, err := st.CountPostVersions(context.TODO(), uuid.MustParse(parentA))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), countA)

	countB, err := st.CountPostVersions(context.TODO(), uuid.MustParse(parentB))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), countB)
}

func TestVersionCleaner_Schedule(t *testing.T) {
	cleaner := NewVersionCleaner(store.NewGormStore(tester.TestDB()))
	assert.Equal(t, "@every 10m", cleaner.Schedule())
}
