package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Handler 页面与 API 处理器
type Handler struct {
	postService    service.PostService
	commentService service.CommentService
	relService     service.RelationshipService
	userService    service.UserService
	sessions       *auth.SessionManager
	tokens         *auth.TokenManager
}

type Deps struct {
	Posts     service.PostService
	Comments  service.CommentService
	Relations service.RelationshipService
	Users     service.UserService
	Sessions  *auth.SessionManager
	Tokens    *auth.TokenManager
}

func New(d Deps) *Handler {
	return &Handler{
		postService:    d.Posts,
		commentService: d.Comments,
		relService:     d.Relations,
		userService:    d.Users,
		sessions:       d.Sessions,
		tokens:         d.Tokens,
	}
}

// render 注入当前用户后渲染页面
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u := middleware.CurrentUser(c); u != nil {
		data["User"] = u
	}
	c.HTML(status, name, data)
}

// NotFound 未知路径；API 返回 JSON
func (h *Handler) NotFound(c *gin.Context) {
	if isAPI(c) {
		response.NotFound(c, "not found")
		return
	}
	render(c, http.StatusNotFound, "core/404.html", gin.H{"Title": "Not found", "Path": c.Request.URL.Path})
}

func serverError(c *gin.Context, err error) {
	if isAPI(c) {
		response.InternalError(c, err)
		return
	}
	response.Capture(c, err)
	render(c, http.StatusInternalServerError, "core/500.html", gin.H{"Title": "Server error"})
}

// pageError 将领域错误映射为页面响应
func (h *Handler) pageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrUserNotFound):
		h.NotFound(c)
	default:
		serverError(c, err)
	}
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func isAPI(c *gin.Context) bool {
	p := c.Request.URL.Path
	return len(p) >= 5 && p[:5] == "/api/"
}
