package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

type PostType string

const (
	PostTypeFolder   PostType = "folder"
	PostTypePage     PostType = "page"
	PostTypeFragment PostType = "fragment"
	PostTypePost     PostType = "post"
	// PostTypeVersion marks an immutable snapshot row. Version rows live in the
	// posts table but are excluded from path uniqueness concerns (they carry a
	// synthetic slug path) and from publish cascades.
	PostTypeVersion PostType = "post_version"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is the central entity: pages, folders, fragments and their immutable
// version snapshots all share this table, discriminated by Type.
type Post struct {
	gorm.Model
	ID     string   `gorm:"primaryKey;uuid;not null"`
	Type   PostType `gorm:"not null;index"`
	Name   string
	Slug   string `gorm:"not null"`
	// SlugPath is the full hierarchical address. Invariant: equal to the
	// parent's slug path plus "/" plus Slug, or just Slug for roots. Version
	// rows carry a random non-addressable path so the unique index holds.
	SlugPath       string     `gorm:"uniqueIndex;not null"`
	Status         PostStatus `gorm:"not null;default:draft"`
	PublishedAt    *time.Time
	PublishedFrom  *time.Time
	PublishedUntil *time.Time
	ParentID       *string `gorm:"uuid;index"`
	ContentTypeID  string  `gorm:"uuid"`
	Meta           string  // ordered key/value pairs, JSON encoded
	Content        string  // content tree, stored through the configured codec
	Compression    string  // codec used to encode Content
	AuthorID       string  `gorm:"uuid"`
	Tags           []*Tag  `gorm:"many2many:post_tags;"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) IsVersion() bool {
	return p.Type == PostTypeVersion
}

// VisibleAt reports effective visibility: published, and inside the optional
// [PublishedFrom, PublishedUntil] window. Either bound may be absent.
func (p *Post) VisibleAt(now time.Time) bool {
	if p.Status != PostStatusPublished {
		return false
	}
	if p.PublishedFrom != nil && now.Before(*p.PublishedFrom) {
		return false
	}
	if p.PublishedUntil != nil && now.After(*p.PublishedUntil) {
		return false
	}
	return true
}

// ChildPath computes a child's slug path from its parent's path.
func ChildPath(parentPath, slug string) string {
	if parentPath == "" {
		return slug
	}
	return parentPath + "/" + slug
}

// ParentPath strips the last segment of a slug path. Roots map to "".
func ParentPath(slugPath string) string {
	idx := strings.LastIndex(slugPath, "/")
	if idx < 0 {
		return ""
	}
	return slugPath[:idx]
}

// MetaField is one flattened content field, keyed by dot notation
// (e.g. "hero.title").
type MetaField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func EncodeMeta(fields []MetaField) (string, error) {
	if fields == nil {
		fields = []MetaField{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeMeta(meta string) ([]MetaField, error) {
	if meta == "" {
		return []MetaField{}, nil
	}
	var fields []MetaField
	if err := json.Unmarshal([]byte(meta), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
