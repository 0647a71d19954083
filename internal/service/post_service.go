package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/paginator"
)

// Feed 一页帖子
type Feed struct {
	Posts []*model.Post
	Page  paginator.Page
}

type GroupFeed struct {
	Group *model.Group
	Feed
}

// Profile 作者主页；Following 表示当前访问者是否已关注该作者
type Profile struct {
	Author         *model.User
	PostCount      int64
	Following      bool
	FollowerCount  int64
	FollowingCount int64
	Feed
}

type PostDetail struct {
	Post            *model.Post
	Comments        []*model.Comment
	CommentCount    int64
	AuthorPostCount int64
}

// PostService 帖子读写与各类信息流
type PostService interface {
	Index(ctx context.Context, rawPage string) (*Feed, error)
	GroupFeed(ctx context.Context, slug, rawPage string) (*GroupFeed, error)
	Profile(ctx context.Context, username string, viewerID *uint, rawPage string) (*Profile, error)
	FollowFeed(ctx context.Context, userID uint, rawPage string) (*Feed, error)
	Detail(ctx context.Context, id uint) (*PostDetail, error)
	Get(ctx context.Context, id uint) (*model.Post, error)
	Create(ctx context.Context, authorID uint, in form.PostInput) (*model.Post, error)
	Update(ctx context.Context, editorID, postID uint, in form.PostInput) (*model.Post, error)
	Groups(ctx context.Context) ([]*model.Group, error)
}

type postService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	media    media.Store
	pageSize int
}

type PostDeps struct {
	Posts    repository.PostRepository
	Groups   repository.GroupRepository
	Users    repository.UserRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
	Media    media.Store
	PageSize int
}

func NewPostService(d PostDeps) PostService {
	return &postService{
		posts:    d.Posts,
		groups:   d.Groups,
		users:    d.Users,
		comments: d.Comments,
		follows:  d.Follows,
		media:    d.Media,
		pageSize: d.PageSize,
	}
}

func (s *postService) feed(ctx context.Context, f repository.PostFilter, rawPage string) (*Feed, error) {
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	page := paginator.New(rawPage, total, s.pageSize)
	posts, err := s.posts.List(ctx, f, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &Feed{Posts: posts, Page: page}, nil
}

func (s *postService) Index(ctx context.Context, rawPage string) (*Feed, error) {
	return s.feed(ctx, repository.PostFilter{}, rawPage)
}

func (s *postService) GroupFeed(ctx context.Context, slug, rawPage string) (*GroupFeed, error) {
	g, err := s.groups.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	feed, err := s.feed(ctx, repository.PostFilter{GroupID: &g.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: g, Feed: *feed}, nil
}

func (s *postService) Profile(ctx context.Context, username string, viewerID *uint, rawPage string) (*Profile, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	feed, err := s.feed(ctx, repository.PostFilter{AuthorID: &author.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	p := &Profile{Author: author, PostCount: feed.Page.Total, Feed: *feed}

	if viewerID != nil && *viewerID != author.ID {
		if p.Following, err = s.follows.Exists(ctx, *viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	if p.FollowerCount, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if p.FollowingCount, err = s.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// FollowFeed 关注作者的帖子，拉模式实时查询
func (s *postService) FollowFeed(ctx context.Context, userID uint, rawPage string) (*Feed, error) {
	return s.feed(ctx, repository.PostFilter{FollowerID: &userID}, rawPage)
}

func (s *postService) Get(ctx context.Context, id uint) (*model.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return p, err
}

func (s *postService) Detail(ctx context.Context, id uint) (*PostDetail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	commentCount, err := s.comments.CountByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	authorPosts, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: &p.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	return &PostDetail{
		Post:            p,
		Comments:        comments,
		CommentCount:    commentCount,
		AuthorPostCount: authorPosts,
	}, nil
}

func (s *postService) Groups(ctx context.Context) ([]*model.Group, error) {
	return s.groups.List(ctx)
}

// Create 作者固定为 authorID，忽略表单中的任何作者信息
func (s *postService) Create(ctx context.Context, authorID uint, in form.PostInput) (*model.Post, error) {
	p := &model.Post{Text: in.Text, AuthorID: authorID}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// Update 非作者返回 ErrNotAuthor 且不做任何写入
func (s *postService) Update(ctx context.Context, editorID, postID uint, in form.PostInput) (*model.Post, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != editorID {
		return nil, ErrNotAuthor
	}
	p.Text = in.Text
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// apply 校验分组并保存图片；未上传新图片时保留原图
func (s *postService) apply(ctx context.Context, p *model.Post, in form.PostInput) error {
	p.GroupID = nil
	p.Group = nil
	if in.GroupID != nil {
		g, err := s.groups.GetByID(ctx, *in.GroupID)
		if errors.Is(err, repository.ErrNotFound) {
			return &ValidationError{Field: "group", Message: "Select a valid choice."}
		}
		if err != nil {
			return err
		}
		p.GroupID = &g.ID
		p.Group = g
	}
	if in.Image != nil && s.media != nil {
		path, err := s.media.Save(ctx, in.Image)
		if errors.Is(err, media.ErrNotImage) || errors.Is(err, media.ErrTooLarge) {
			return &ValidationError{Field: "image", Message: imageMessage(err)}
		}
		if err != nil {
			return fmt.Errorf("save image: %w", err)
		}
		p.Image = path
	}
	return nil
}

func imageMessage(err error) string {
	if errors.Is(err, media.ErrTooLarge) {
		return "The uploaded file is too large."
	}
	return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
}
