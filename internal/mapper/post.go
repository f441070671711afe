package mapper

import (
	"time"

	"github.com/elcodo/burdy/internal/model"
)

// PublicPost is the sanitized external representation of a post, the shape
// served to anonymous readers. Store internals (compression, author, soft
// delete bookkeeping) never leak through it.
type PublicPost struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Name           string                 `json:"name"`
	Slug           string                 `json:"slug"`
	SlugPath       string                 `json:"slugPath"`
	Status         string                 `json:"status"`
	PublishedAt    *time.Time             `json:"publishedAt,omitempty"`
	PublishedFrom  *time.Time             `json:"publishedFrom,omitempty"`
	PublishedUntil *time.Time             `json:"publishedUntil,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Meta           []model.MetaField      `json:"meta,omitempty"`
	Content        map[string]interface{} `json:"content,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

func PublicPostFromModel(post *model.Post) (*PublicPost, error) {
	meta, err := model.DecodeMeta(post.Meta)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, tag.Name)
	}

	return &PublicPost{
		ID:             post.ID,
		Type:           string(post.Type),
		Name:           post.Name,
		Slug:           post.Slug,
		SlugPath:       post.SlugPath,
		Status:         string(post.Status),
		PublishedAt:    post.PublishedAt,
		PublishedFrom:  post.PublishedFrom,
		PublishedUntil: post.PublishedUntil,
		Tags:           tags,
		Meta:           meta,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}, nil
}
