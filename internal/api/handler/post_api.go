package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

func feedData(feed *service.Feed) gin.H {
	return gin.H{
		"page":      feed.Page.Number,
		"num_pages": feed.Page.NumPages,
		"count":     feed.Page.Total,
		"results":   feed.Posts,
	}
}

// ListPosts 全站帖子
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	feed, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, feedData(feed))
}

// GetPost 帖子详情与评论
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		response.NotFound(c, service.ErrPostNotFound.Error())
		return
	}
	d, err := h.postService.Detail(c.Request.Context(), id)
	if errors.Is(err, service.ErrPostNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"post":              d.Post,
		"comments":          d.Comments,
		"comment_count":     d.CommentCount,
		"author_post_count": d.AuthorPostCount,
	})
}

// ListGroupPosts 分组内帖子
// @Summary 分组帖子
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/groups/{slug}/posts [get]
func (h *Handler) ListGroupPosts(c *gin.Context) {
	feed, err := h.postService.GroupFeed(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if errors.Is(err, service.ErrGroupNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	data := feedData(&feed.Feed)
	data["group"] = feed.Group
	response.Success(c, data)
}

// ListFollowPosts 关注作者的帖子
// @Summary 关注流
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Router /api/v1/follow/posts [get]
func (h *Handler) ListFollowPosts(c *gin.Context) {
	user := middleware.CurrentUser(c)
	feed, err := h.postService.FollowFeed(c.Request.Context(), user.ID, c.Query("page"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, feedData(feed))
}
