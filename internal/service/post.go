package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/elcodo/burdy/internal/compress"
	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/queue"
	"github.com/elcodo/burdy/internal/store"
)

// CompiledInvalidator drops compiled cache entries for mutated slug paths.
type CompiledInvalidator interface {
	Invalidate(ctx context.Context, slugPaths ...string)
}

// NewPostService creates a new PostService.
func NewPostService(codec compress.Compress, store store.Store, events queue.Queue, compiled CompiledInvalidator, types model.ContentTypeRegistry) *PostService {
	if events == nil {
		events = queue.NewNop()
	}

	return &PostService{
		codec:    codec,
		store:    store,
		events:   events,
		compiled: compiled,
		types:    types,
	}
}

// PostService manages the post tree: creation, edits, renames and copies.
// Every mutating edit snapshots the post into an immutable version row
// before the mutation becomes visible.
type PostService struct {
	codec    compress.Compress
	store    store.Store
	events   queue.Queue
	compiled CompiledInvalidator
	types    model.ContentTypeRegistry
}

// validateSlug rejects slugs that are empty or fake nesting: a slug is one
// path segment, never a path.
func validateSlug(slug string) error {
	if slug == "" || strings.Contains(slug, "/") {
		return ErrInvalidSlug
	}
	return nil
}

type CreatePostRequest struct {
	PostID        string // optional, a fresh id is assigned when empty
	Type          model.PostType
	Name          string
	Slug          string
	ParentID      *string
	ContentTypeID string
	Meta          []model.MetaField
	Content       map[string]interface{}
	Tags          []string
	AuthorID      string
}

// CreatePost creates a new post under the given parent.
func (s *PostService) CreatePost(ctx context.Context, request *CreatePostRequest) (*model.Post, error) {
	switch request.Type {
	case model.PostTypeFolder, model.PostTypePage, model.PostTypeFragment, model.PostTypePost:
	default:
		return nil, ErrInvalidPostType
	}

	if err := validateSlug(request.Slug); err != nil {
		return nil, err
	}

	if err := s.types.Validate(request.ContentTypeID, request.Type); err != nil {
		return nil, ErrInvalidPostType
	}

	meta, err := model.EncodeMeta(request.Meta)
	if err != nil {
		return nil, err
	}

	content, compression, err := s.encodeContent(request.Content)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:            request.PostID,
		Type:          request.Type,
		Name:          request.Name,
		Slug:          request.Slug,
		Status:        model.PostStatusDraft,
		ContentTypeID: request.ContentTypeID,
		Meta:          meta,
		Content:       content,
		Compression:   compression,
		AuthorID:      request.AuthorID,
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		parentPath := ""
		if request.ParentID != nil {
			parentID, err := uuid.Parse(*request.ParentID)
			if err != nil {
				return ErrInvalidParent
			}
			parent, err := tx.GetPost(ctx, parentID)
			if err != nil || parent.IsVersion() {
				return ErrInvalidParent
			}
			parentPath = parent.SlugPath
			post.ParentID = &parent.ID
		}
		post.SlugPath = model.ChildPath(parentPath, post.Slug)

		tags, err := resolveTags(ctx, tx, request.Tags)
		if err != nil {
			return err
		}
		post.Tags = tags

		return translateDup(tx.CreatePost(ctx, post))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, queue.PostCreated, post)

	return post, nil
}

// GetPost retrieves a live post by id.
func (s *PostService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidPost
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidPost
		}
		return nil, err
	}

	return post, nil
}

// GetPostBySlugPath retrieves a live post by its slug path. A leading slash
// is tolerated.
func (s *PostService) GetPostBySlugPath(ctx context.Context, slugPath string) (*model.Post, error) {
	post, err := s.store.GetPostBySlugPath(ctx, strings.TrimPrefix(slugPath, "/"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidPost
		}
		return nil, err
	}

	return post, nil
}

type UpdatePostRequest struct {
	PostID   string
	Name     *string
	Meta     []model.MetaField      // nil leaves meta unchanged
	Content  map[string]interface{} // nil leaves content unchanged
	Tags     []string               // nil leaves tags unchanged
	AuthorID string
}

// UpdatePost applies an edit to a live post. The pre-edit state is
// snapshotted into a version row inside the same transaction, before any
// change is written.
func (s *PostService) UpdatePost(ctx context.Context, request *UpdatePostRequest) (*model.Post, error) {
	postID, err := uuid.Parse(request.PostID)
	if err != nil {
		return nil, ErrInvalidPost
	}

	var post *model.Post
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		post, err = tx.GetPost(ctx, postID)
		if err != nil || post.IsVersion() {
			return ErrInvalidPost
		}

		if _, err := snapshotPost(ctx, tx, post, request.AuthorID); err != nil {
			return err
		}

		if request.Name != nil {
			post.Name = *request.Name
		}
		if request.Meta != nil {
			meta, err := model.EncodeMeta(request.Meta)
			if err != nil {
				return err
			}
			post.Meta = meta
		}
		if request.Content != nil {
			content, compression, err := s.encodeContent(request.Content)
			if err != nil {
				return err
			}
			post.Content = content
			post.Compression = compression
		}

		if err := tx.UpdatePost(ctx, post); err != nil {
			return err
		}

		if request.Tags != nil {
			tags, err := resolveTags(ctx, tx, request.Tags)
			if err != nil {
				return err
			}
			if err := tx.ReplacePostTags(ctx, post, tags); err != nil {
				return err
			}
			post.Tags = tags
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, queue.PostUpdated, post)
	s.invalidate(ctx, post.SlugPath)

	return post, nil
}

// RenamePost changes a post's slug and rewrites the slug path of its whole
// subtree in one atomic operation. Returns the number of rewritten posts,
// the renamed post included.
func (s *PostService) RenamePost(ctx context.Context, id, newSlug, authorID string) (int64, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrInvalidPost
	}
	if err := validateSlug(newSlug); err != nil {
		return 0, err
	}

	var affected int64
	var oldPath string
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		post, err := tx.GetPost(ctx, postID)
		if err != nil || post.IsVersion() {
			return ErrInvalidPost
		}

		oldPath = post.SlugPath
		newPath := model.ChildPath(model.ParentPath(oldPath), newSlug)
		if newPath == oldPath {
			return nil
		}

		if _, err := snapshotPost(ctx, tx, post, authorID); err != nil {
			return err
		}

		if _, err := tx.GetPostBySlugPath(ctx, newPath); err == nil {
			return ErrDuplicateSlug
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		affected, err = tx.ShiftSlugPaths(ctx, oldPath, newPath)
		if err != nil {
			return translateDup(err)
		}

		_, err = tx.UpdatePostFields(ctx, []uuid.UUID{postID}, map[string]interface{}{"slug": newSlug})
		return err
	})
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		s.emit(ctx, queue.PostRenamed, &model.Post{ID: id, SlugPath: oldPath})
		s.invalidate(ctx, oldPath)
	}

	return affected, nil
}

// copyableTypes are the post types carried along by a recursive copy.
var copyableTypes = map[model.PostType]bool{
	model.PostTypeFolder:   true,
	model.PostTypePage:     true,
	model.PostTypeFragment: true,
}

type CopyPostRequest struct {
	SourceID  string
	Slug      string
	Name      string // empty keeps the source name
	ParentID  *string
	Recursive bool
	AuthorID  string
}

// CopyPost duplicates a post, and with Recursive its whole subtree, under a
// new destination path. Subtree nodes are processed in ascending path order
// so every copied child finds its already-created parent; parent resolution
// goes through a prefix index of the new paths rather than a per-node scan.
func (s *PostService) CopyPost(ctx context.Context, request *CopyPostRequest) (*model.Post, error) {
	sourceID, err := uuid.Parse(request.SourceID)
	if err != nil {
		return nil, ErrInvalidSource
	}
	if err := validateSlug(request.Slug); err != nil {
		return nil, err
	}

	var root *model.Post
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		source, err := tx.GetPost(ctx, sourceID)
		if err != nil || source.IsVersion() {
			return ErrInvalidSource
		}

		destParentPath := ""
		var destParentID *string
		if request.ParentID != nil {
			parentID, err := uuid.Parse(*request.ParentID)
			if err != nil {
				return ErrInvalidParent
			}
			parent, err := tx.GetPost(ctx, parentID)
			if err != nil || parent.IsVersion() {
				return ErrInvalidParent
			}
			destParentPath = parent.SlugPath
			destParentID = &parent.ID
		}
		destPath := model.ChildPath(destParentPath, request.Slug)

		if _, err := tx.GetPostBySlugPath(ctx, destPath); err == nil {
			return ErrDuplicateSlug
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		nodes := []*model.Post{source}
		if request.Recursive {
			descendants, err := tx.ListDescendants(ctx, source.SlugPath)
			if err != nil {
				return err
			}
			nodes = nodes[:0]
			for _, node := range descendants {
				if node.ID == source.ID || copyableTypes[node.Type] {
					nodes = append(nodes, node)
				}
			}
			sort.Slice(nodes, func(i, j int) bool { return nodes[i].SlugPath < nodes[j].SlugPath })
		}

		// prefix index: source path -> path of its copy
		newPaths := make(map[string]string, len(nodes))
		copies := make(map[string]*model.Post, len(nodes))

		for _, node := range nodes {
			clone := &model.Post{
				ID:            uuid.New().String(),
				Type:          node.Type,
				Name:          node.Name,
				Slug:          node.Slug,
				Status:        model.PostStatusDraft,
				ContentTypeID: node.ContentTypeID,
				Meta:          node.Meta,
				Content:       node.Content,
				Compression:   node.Compression,
				AuthorID:      request.AuthorID,
				Tags:          node.Tags,
			}

			if node.ID == source.ID {
				clone.Slug = request.Slug
				clone.SlugPath = destPath
				clone.ParentID = destParentID
				if request.Name != "" {
					clone.Name = request.Name
				}
				root = clone
			} else {
				newDir, ok := newPaths[model.ParentPath(node.SlugPath)]
				if !ok {
					// ancestor was filtered out, the branch is detached
					continue
				}
				parent := copies[newDir]
				clone.SlugPath = model.ChildPath(newDir, node.Slug)
				clone.ParentID = &parent.ID
			}

			if err := tx.CreatePost(ctx, clone); err != nil {
				return translateDup(err)
			}
			newPaths[node.SlugPath] = clone.SlugPath
			copies[clone.SlugPath] = clone
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, queue.PostCreated, root)

	return root, nil
}

// DeletePost deletes a single post. Children are left in place; deleting a
// parent does not cascade.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	postID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidPost
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return ErrInvalidPost
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.emit(ctx, queue.PostDeleted, post)
	s.invalidate(ctx, post.SlugPath)

	return nil
}

// Descendants lists the post and everything below its slug path, version
// rows excluded.
func (s *PostService) Descendants(ctx context.Context, id string) ([]*model.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.store.ListDescendants(ctx, post.SlugPath)
}

func (s *PostService) encodeContent(content map[string]interface{}) (string, string, error) {
	if content == nil {
		content = map[string]interface{}{}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return "", "", err
	}
	encoded, err := s.codec.Encode(data)
	if err != nil {
		return "", "", err
	}
	return string(encoded), compress.Name(s.codec), nil
}

func (s *PostService) emit(ctx context.Context, kind queue.EventKind, post *model.Post) {
	if post == nil {
		return
	}
	err := s.events.PublishPostEvent(ctx, &queue.PostEvent{
		Kind:     kind,
		PostID:   post.ID,
		SlugPath: post.SlugPath,
		At:       time.Now(),
	})
	if err != nil {
		logrus.Errorf("failed to publish %s event for %s: %v", kind, post.ID, err)
	}
}

func (s *PostService) invalidate(ctx context.Context, slugPath string) {
	if s.compiled == nil {
		return
	}
	s.compiled.Invalidate(ctx, slugPath)
}

func resolveTags(ctx context.Context, tx store.Store, names []string) ([]*model.Tag, error) {
	tags := make([]*model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := tx.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
