package queue

import (
	"context"
	"time"
)

type EventKind string

const (
	PostCreated     EventKind = "post.created"
	PostUpdated     EventKind = "post.updated"
	PostRenamed     EventKind = "post.renamed"
	PostRestored    EventKind = "post.restored"
	PostDeleted     EventKind = "post.deleted"
	PostPublished   EventKind = "post.published"
	PostUnpublished EventKind = "post.unpublished"
)

// PostEvent is emitted after a mutating operation commits. Consumers use it
// to invalidate edge caches and rebuild search indexes.
type PostEvent struct {
	Kind     EventKind `json:"kind"`
	PostID   string    `json:"postId"`
	SlugPath string    `json:"slugPath"`
	At       time.Time `json:"at"`
}

type Queue interface {
	// PublishPostEvent appends a post change event to the queue.
	PublishPostEvent(ctx context.Context, event *PostEvent) error
	Close()
}

type Nop struct {
}

func NewNop() Nop {
	return Nop{}
}

func (n Nop) PublishPostEvent(ctx context.Context, event *PostEvent) error {
	return nil
}

func (n Nop) Close() {}
