package service

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/queue"
	"github.com/elcodo/burdy/internal/store"
)

// PublishWindow bounds a post's visibility in time. Either side may be nil,
// meaning unbounded.
type PublishWindow struct {
	From  *time.Time
	Until *time.Time
}

// NewPublishService creates a new PublishService. A nil clock means wall
// clock time.
func NewPublishService(store store.Store, events queue.Queue, compiled CompiledInvalidator, now func() time.Time) *PublishService {
	if events == nil {
		events = queue.NewNop()
	}
	if now == nil {
		now = time.Now
	}

	return &PublishService{
		store:    store,
		events:   events,
		compiled: compiled,
		now:      now,
	}
}

// PublishService applies publish and unpublish transitions, optionally
// cascading through the slug-path descendant relation.
type PublishService struct {
	store    store.Store
	events   queue.Queue
	compiled CompiledInvalidator
	now      func() time.Time
}

// Visible reports whether the post is effectively visible right now.
func (s *PublishService) Visible(post *model.Post) bool {
	return post.VisibleAt(s.now())
}

// SetPublished publishes the given posts with the given window. With
// recursive, the target set expands to every descendant of each post before
// the single bulk write. The returned posts are the originally requested
// ones, re-read after the write.
func (s *PublishService) SetPublished(ctx context.Context, ids []string, window PublishWindow, recursive bool) ([]*model.Post, error) {
	now := s.now()
	return s.transition(ctx, ids, recursive, queue.PostPublished, map[string]interface{}{
		"status":          model.PostStatusPublished,
		"published_at":    now,
		"published_from":  window.From,
		"published_until": window.Until,
	})
}

// SetUnpublished reverts the given posts, and with recursive their
// descendants, to drafts and clears the publish window.
func (s *PublishService) SetUnpublished(ctx context.Context, ids []string, recursive bool) ([]*model.Post, error) {
	return s.transition(ctx, ids, recursive, queue.PostUnpublished, map[string]interface{}{
		"status":          model.PostStatusDraft,
		"published_at":    nil,
		"published_from":  nil,
		"published_until": nil,
	})
}

func (s *PublishService) transition(ctx context.Context, ids []string, recursive bool, kind queue.EventKind, fields map[string]interface{}) ([]*model.Post, error) {
	requested := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrInvalidIds
		}
		requested = append(requested, parsed)
	}

	var updated []*model.Post
	var touched []string
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		posts, err := tx.ListPostsFromIDs(ctx, requested)
		if err != nil {
			return err
		}

		// version rows never take part in publish transitions
		roots := make([]uuid.UUID, 0, len(posts))
		targets := mapset.NewSet[uuid.UUID]()
		for _, post := range posts {
			if post.IsVersion() {
				continue
			}
			id := uuid.MustParse(post.ID)
			roots = append(roots, id)
			targets.Add(id)
			touched = append(touched, post.SlugPath)

			if recursive {
				descendants, err := tx.ListDescendants(ctx, post.SlugPath)
				if err != nil {
					return err
				}
				for _, descendant := range descendants {
					targets.Add(uuid.MustParse(descendant.ID))
					if descendant.ID != post.ID {
						touched = append(touched, descendant.SlugPath)
					}
				}
			}
		}
		if len(roots) == 0 {
			return ErrInvalidIds
		}

		if _, err := tx.UpdatePostFields(ctx, targets.ToSlice(), fields); err != nil {
			return err
		}

		updated, err = tx.ListPostsFromIDs(ctx, roots)
		return err
	})
	if err != nil {
		return nil, err
	}

	// compiled entries for every path in the transition are stale now
	if s.compiled != nil && len(touched) > 0 {
		s.compiled.Invalidate(ctx, touched...)
	}

	at := s.now()
	for _, post := range updated {
		err := s.events.PublishPostEvent(ctx, &queue.PostEvent{
			Kind:     kind,
			PostID:   post.ID,
			SlugPath: post.SlugPath,
			At:       at,
		})
		if err != nil {
			logrus.Errorf("failed to publish %s event for %s: %v", kind, post.ID, err)
		}
	}

	return updated, nil
}
