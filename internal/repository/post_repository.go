package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

// PostFilter 至多设置一个条件；全空表示全部帖子
type PostFilter struct {
	GroupID  *uint
	AuthorID *uint
	// FollowerID 仅返回该用户关注的作者的帖子
	FollowerID *uint
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error
}

// Update 只写可编辑列，created_at 与 author_id 保持不变
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).
		Model(post).
		Select(model.EditableColumns).
		Updates(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// List 按创建时间倒序分页
func (r *postRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.filtered(ctx, f).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	err := r.filtered(ctx, f).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	switch {
	case f.GroupID != nil:
		q = q.Where("posts.group_id = ?", *f.GroupID)
	case f.AuthorID != nil:
		q = q.Where("posts.author_id = ?", *f.AuthorID)
	case f.FollowerID != nil:
		following := r.db.Model(&model.Follow{}).Select("author_id").Where("follower_id = ?", *f.FollowerID)
		q = q.Where("posts.author_id IN (?)", following)
	}
	return q
}
