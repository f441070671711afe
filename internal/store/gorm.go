package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elcodo/burdy/internal/model"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreatePost(ctx context.Context, post *model.Post) error {
	return g.db.WithContext(ctx).Create(post).Error
}

func (g *GormStore) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	err := g.db.WithContext(ctx).Preload("Tags").Where("id = ?", id.String()).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (g *GormStore) GetPostBySlugPath(ctx context.Context, slugPath string) (*model.Post, error) {
	var post model.Post
	err := g.db.WithContext(ctx).Preload("Tags").
		Where("slug_path = ? AND type <> ?", slugPath, model.PostTypeVersion).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (g *GormStore) ListPostsFromIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Post, error) {
	var posts []*model.Post
	err := g.db.WithContext(ctx).Preload("Tags").Where("id IN (?)", uuidStrings(ids)).Find(&posts).Error
	return posts, err
}

func (g *GormStore) ListDescendants(ctx context.Context, slugPath string) ([]*model.Post, error) {
	var posts []*model.Post
	err := g.db.WithContext(ctx).Preload("Tags").
		Where("(slug_path = ? OR slug_path LIKE ?) AND type <> ?", slugPath, slugPath+"/%", model.PostTypeVersion).
		Order("slug_path asc").
		Find(&posts).Error
	return posts, err
}

func (g *GormStore) UpdatePost(ctx context.Context, post *model.Post) error {
	return g.db.WithContext(ctx).Omit("Tags").Save(post).Error
}

func (g *GormStore) UpdatePostFields(ctx context.Context, ids []uuid.UUID, fields map[string]interface{}) (int64, error) {
	res := g.db.WithContext(ctx).Model(&model.Post{}).
		Where("id IN (?)", uuidStrings(ids)).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// ShiftSlugPaths rewrites the path prefix in one bulk statement. The substr
// expression works on both sqlite and postgres; the offset is computed in the
// database because substr counts characters, not bytes.
func (g *GormStore) ShiftSlugPaths(ctx context.Context, oldPath, newPath string) (int64, error) {
	res := g.db.WithContext(ctx).Model(&model.Post{}).
		Where("(slug_path = ? OR slug_path LIKE ?) AND type <> ?", oldPath, oldPath+"/%", model.PostTypeVersion).
		Update("slug_path", gorm.Expr("? || substr(slug_path, length(?) + 1)", newPath, oldPath))
	return res.RowsAffected, res.Error
}

func (g *GormStore) ReplacePostTags(ctx context.Context, post *model.Post, tags []*model.Tag) error {
	return g.db.WithContext(ctx).Model(post).Association("Tags").Replace(tags)
}

func (g *GormStore) DeletePost(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&model.Post{}).Error
}

func (g *GormStore) ListPostVersions(ctx context.Context, postID uuid.UUID) ([]*model.Post, error) {
	var versions []*model.Post
	err := g.db.WithContext(ctx).Preload("Tags").
		Where("parent_id = ? AND type = ?", postID.String(), model.PostTypeVersion).
		Order("created_at desc").
		Find(&versions).Error
	return versions, err
}

func (g *GormStore) CountPostVersions(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.Post{}).
		Where("parent_id = ? AND type = ?", postID.String(), model.PostTypeVersion).
		Count(&count).Error
	return count, err
}

func (g *GormStore) ListVersionsCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Post, error) {
	var versions []*model.Post
	err := g.db.WithContext(ctx).
		Where("type = ? AND created_at BETWEEN ? AND ?", model.PostTypeVersion, from, to).
		Order("parent_id asc, created_at desc").
		Find(&versions).Error
	return versions, err
}

func (g *GormStore) DeletePostVersions(ctx context.Context, ids []uuid.UUID) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("id IN (?) AND type = ?", uuidStrings(ids), model.PostTypeVersion).
		Delete(&model.Post{})
	return res.RowsAffected, res.Error
}

func (g *GormStore) CreateAsset(ctx context.Context, asset *model.Asset) error {
	return g.db.WithContext(ctx).Create(asset).Error
}

func (g *GormStore) GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var asset model.Asset
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (g *GormStore) ListAssetsFromIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Asset, error) {
	var assets []*model.Asset
	err := g.db.WithContext(ctx).Where("id IN (?)", uuidStrings(ids)).Find(&assets).Error
	return assets, err
}

func (g *GormStore) GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	err := g.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = model.Tag{ID: uuid.New().String(), Name: name}
	if err := g.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}

func uuidStrings(ids []uuid.UUID) []string {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	return strs
}
