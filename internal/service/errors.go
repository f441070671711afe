package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrInvalidParent is returned when a destination parent id does not resolve.
	ErrInvalidParent = errors.New("invalid parent post")
	// ErrInvalidSource is returned when a copy source id does not resolve.
	ErrInvalidSource = errors.New("invalid source post")
	// ErrInvalidPost is returned when a post id or slug path does not resolve.
	ErrInvalidPost = errors.New("invalid post")
	// ErrInvalidPostVersion is returned when a version id does not resolve or
	// does not belong to the given post.
	ErrInvalidPostVersion = errors.New("invalid post version")
	// ErrInvalidPostType is returned when a post type is outside the allowed set.
	ErrInvalidPostType = errors.New("invalid post type")
	// ErrInvalidIds is returned when a bulk id set resolves to zero posts.
	ErrInvalidIds = errors.New("no posts found for the given ids")
	// ErrInvalidSlug is returned when a slug is empty or not a single path
	// segment.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrDuplicateSlug is returned when a slug path collides with an existing one.
	ErrDuplicateSlug = errors.New("slug path already in use")
)

// translateDup maps store-level uniqueness violations, caught at the
// transaction boundary, onto the duplicate-slug error.
func translateDup(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlug
	}
	return err
}
