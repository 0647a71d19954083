package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// ProfileFollow 关注作者；关注自己或重复关注为空操作，总是跳转回作者主页
func (h *Handler) ProfileFollow(c *gin.Context) {
	username := c.Param("username")
	user := middleware.CurrentUser(c)
	_, err := h.relService.Follow(c.Request.Context(), user.ID, username)
	switch {
	case err == nil, errors.Is(err, service.ErrFollowSelf):
	case errors.Is(err, service.ErrUserNotFound):
		h.NotFound(c)
		return
	default:
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

// ProfileUnfollow 关系不存在时同样跳转
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	username := c.Param("username")
	user := middleware.CurrentUser(c)
	_, err := h.relService.Unfollow(c.Request.Context(), user.ID, username)
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

type followRequest struct {
	Username string `json:"username" binding:"required"`
}

// Follow 关注用户
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "被关注的用户名"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user := middleware.CurrentUser(c)
	author, err := h.relService.Follow(c.Request.Context(), user.ID, req.Username)
	if err != nil {
		relationError(c, err)
		return
	}
	response.Success(c, gin.H{"username": author.Username, "following": true})
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "取消关注的用户名"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user := middleware.CurrentUser(c)
	author, err := h.relService.Unfollow(c.Request.Context(), user.ID, req.Username)
	if err != nil {
		relationError(c, err)
		return
	}
	response.Success(c, gin.H{"username": author.Username, "following": false})
}

func relationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFollowSelf):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{username}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFollowing(c.Request.Context(), c.Param("username"), page, pageSize)
	if err != nil {
		relationError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFans 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{username}/fans [get]
func (h *Handler) ListFans(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFans(c.Request.Context(), c.Param("username"), page, pageSize)
	if err != nil {
		relationError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
