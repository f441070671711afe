package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/elcodo/burdy/internal/model"
)

type Store interface {
	PostStore
	VersionStore
	AssetStore
	TagStore
	// Transaction runs f inside one all-or-nothing transaction. Every
	// mutating core operation goes through it.
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type PostStore interface {
	// CreatePost creates a new post (or version row).
	CreatePost(ctx context.Context, post *model.Post) error
	// GetPost retrieves a post by ID, tags preloaded.
	GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// GetPostBySlugPath retrieves a live post by its slug path.
	GetPostBySlugPath(ctx context.Context, slugPath string) (*model.Post, error)
	// ListPostsFromIDs retrieves posts by IDs.
	ListPostsFromIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Post, error)
	// ListDescendants lists the post at slugPath and every post below it,
	// version rows excluded, in ascending path order.
	ListDescendants(ctx context.Context, slugPath string) ([]*model.Post, error)
	// UpdatePost saves a post.
	UpdatePost(ctx context.Context, post *model.Post) error
	// UpdatePostFields bulk-updates fields on the given posts.
	UpdatePostFields(ctx context.Context, ids []uuid.UUID, fields map[string]interface{}) (int64, error)
	// ShiftSlugPaths rewrites the oldPath prefix to newPath on every post at
	// or below oldPath in a single statement.
	ShiftSlugPaths(ctx context.Context, oldPath, newPath string) (int64, error)
	// ReplacePostTags replaces a post's tag set.
	ReplacePostTags(ctx context.Context, post *model.Post, tags []*model.Tag) error
	// DeletePost deletes a post by ID.
	DeletePost(ctx context.Context, id uuid.UUID) error
}

type VersionStore interface {
	// ListPostVersions lists version rows of a post, newest first.
	ListPostVersions(ctx context.Context, postID uuid.UUID) ([]*model.Post, error)
	// CountPostVersions returns the number of version rows without
	// materializing them.
	CountPostVersions(ctx context.Context, postID uuid.UUID) (int64, error)
	// ListVersionsCreatedBetween lists version rows created in [from, to],
	// grouped by parent, newest first. Used by the retention cleaner.
	ListVersionsCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Post, error)
	// DeletePostVersions deletes only rows with the version type; other ids
	// are ignored. Returns the number of rows deleted.
	DeletePostVersions(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type AssetStore interface {
	CreateAsset(ctx context.Context, asset *model.Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	ListAssetsFromIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Asset, error)
}

type TagStore interface {
	// GetOrCreateTag resolves a tag by name, creating it when missing.
	GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error)
}
