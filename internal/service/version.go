package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/queue"
	"github.com/elcodo/burdy/internal/store"
)

// NewVersionService creates a new VersionService.
func NewVersionService(store store.Store, events queue.Queue) *VersionService {
	if events == nil {
		events = queue.NewNop()
	}

	return &VersionService{
		store:  store,
		events: events,
	}
}

// VersionService manages the immutable version rows snapshotted from live
// posts before each edit.
type VersionService struct {
	store  store.Store
	events queue.Queue
}

// snapshotPost persists an immutable copy of the post's editable fields as a
// version row. It must run, and complete, inside the same transaction as the
// edit it precedes; the source post is never mutated.
func snapshotPost(ctx context.Context, tx store.Store, post *model.Post, authorID string) (*model.Post, error) {
	// versions are not addressable: slug and path are random
	synthetic := uuid.New().String()
	parentID := post.ID

	version := &model.Post{
		ID:            uuid.New().String(),
		Type:          model.PostTypeVersion,
		Name:          post.Name,
		Slug:          synthetic,
		SlugPath:      synthetic,
		Status:        model.PostStatusDraft,
		ParentID:      &parentID,
		ContentTypeID: post.ContentTypeID,
		Meta:          post.Meta,
		Content:       post.Content,
		Compression:   post.Compression,
		AuthorID:      authorID,
		Tags:          post.Tags,
	}

	if err := tx.CreatePost(ctx, version); err != nil {
		return nil, err
	}

	return version, nil
}

// Snapshot takes an explicit version snapshot of a live post.
func (v *VersionService) Snapshot(ctx context.Context, postID, authorID string) (*model.Post, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, ErrInvalidPost
	}

	var version *model.Post
	err = v.store.Transaction(ctx, func(tx store.Store) error {
		post, err := tx.GetPost(ctx, id)
		if err != nil || post.IsVersion() {
			return ErrInvalidPost
		}

		version, err = snapshotPost(ctx, tx, post, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

// ListVersions lists a post's versions, newest first.
func (v *VersionService) ListVersions(ctx context.Context, postID string) ([]*model.Post, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, ErrInvalidPost
	}

	post, err := v.store.GetPost(ctx, id)
	if err != nil || post.IsVersion() {
		return nil, ErrInvalidPost
	}

	return v.store.ListPostVersions(ctx, id)
}

// CountVersions returns the number of versions without materializing them.
func (v *VersionService) CountVersions(ctx context.Context, postID string) (int64, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return 0, ErrInvalidPost
	}

	return v.store.CountPostVersions(ctx, id)
}

// Restore overwrites a live post's name, content and tags from one of its
// versions. The pre-restore state is snapshotted first, so a restore is
// itself undo-able.
func (v *VersionService) Restore(ctx context.Context, postID, versionID, authorID string) (*model.Post, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, ErrInvalidPost
	}
	vid, err := uuid.Parse(versionID)
	if err != nil {
		return nil, ErrInvalidPostVersion
	}

	var post *model.Post
	err = v.store.Transaction(ctx, func(tx store.Store) error {
		post, err = tx.GetPost(ctx, id)
		if err != nil || post.IsVersion() {
			return ErrInvalidPost
		}

		version, err := tx.GetPost(ctx, vid)
		if err != nil {
			return ErrInvalidPostVersion
		}
		if !version.IsVersion() || version.ParentID == nil || *version.ParentID != post.ID {
			return ErrInvalidPostVersion
		}

		if _, err := snapshotPost(ctx, tx, post, authorID); err != nil {
			return err
		}

		post.Name = version.Name
		post.Content = version.Content
		post.Compression = version.Compression

		if err := tx.UpdatePost(ctx, post); err != nil {
			return err
		}

		if err := tx.ReplacePostTags(ctx, post, version.Tags); err != nil {
			return err
		}
		post.Tags = version.Tags

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = v.events.PublishPostEvent(ctx, &queue.PostEvent{
		Kind:     queue.PostRestored,
		PostID:   post.ID,
		SlugPath: post.SlugPath,
	})
	if err != nil {
		logrus.Errorf("failed to publish restore event for %s: %v", post.ID, err)
	}

	return post, nil
}

// DeleteVersions bulk-deletes version rows. Ids that do not name a version
// row are silently ignored.
func (v *VersionService) DeleteVersions(ctx context.Context, ids []string) (int64, error) {
	versionIDs := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		versionIDs = append(versionIDs, parsed)
	}
	if len(versionIDs) == 0 {
		return 0, nil
	}

	return v.store.DeletePostVersions(ctx, versionIDs)
}
