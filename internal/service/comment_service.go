package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

type CommentService interface {
	Add(ctx context.Context, authorID, postID uint, in form.CommentInput) (*model.Comment, error)
}

type commentService struct {
	posts    PostService
	comments repository.CommentRepository
}

func NewCommentService(posts PostService, comments repository.CommentRepository) CommentService {
	return &commentService{posts: posts, comments: comments}
}

// Add 帖子不存在返回 ErrPostNotFound
func (s *commentService) Add(ctx context.Context, authorID, postID uint, in form.CommentInput) (*model.Comment, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	c := &model.Comment{Text: in.Text, AuthorID: authorID, PostID: p.ID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}
