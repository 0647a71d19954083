package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, followerID uint, authorName string) (*model.User, error)
	Unfollow(ctx context.Context, followerID uint, authorName string) (*model.User, error)
	ListFollowing(ctx context.Context, username string, page, pageSize int) ([]*model.User, error)
	ListFans(ctx context.Context, username string, page, pageSize int) ([]*model.User, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewRelationshipService(followRepo repository.FollowRepository, userRepo repository.UserRepository) RelationshipService {
	return &relationshipService{followRepo: followRepo, userRepo: userRepo}
}

func (s *relationshipService) author(ctx context.Context, username string) (*model.User, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Follow 幂等；关注自己返回 ErrFollowSelf 且不写入
func (s *relationshipService) Follow(ctx context.Context, followerID uint, authorName string) (*model.User, error) {
	author, err := s.author(ctx, authorName)
	if err != nil {
		return nil, err
	}
	if followerID == author.ID {
		return author, ErrFollowSelf
	}
	if err := s.followRepo.Create(ctx, followerID, author.ID); err != nil {
		return nil, err
	}
	return author, nil
}

// Unfollow 关系不存在时为空操作
func (s *relationshipService) Unfollow(ctx context.Context, followerID uint, authorName string) (*model.User, error) {
	author, err := s.author(ctx, authorName)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Delete(ctx, followerID, author.ID); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, username string, page, pageSize int) ([]*model.User, error) {
	u, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	offset, limit := window(page, pageSize)
	items, err := s.followRepo.ListFollowing(ctx, u.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = it.Author
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, username string, page, pageSize int) ([]*model.User, error) {
	u, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	offset, limit := window(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, u.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = it.Follower
	}
	return res, nil
}

func window(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return (page - 1) * pageSize, pageSize
}
