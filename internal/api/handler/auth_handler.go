package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Login GET 展示登录表单；POST 成功后跳转到 next
func (h *Handler) Login(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if c.Request.Method != http.MethodPost {
		render(c, http.StatusOK, "users/login.html", gin.H{"Title": "Log in", "Next": next, "Errors": form.Errors(nil)})
		return
	}

	next = safeNext(c.PostForm("next"))
	f, errs := form.ValidateLogin(form.LoginForm{Username: c.PostForm("username"), Password: c.PostForm("password")})
	if errs.Empty() {
		u, err := h.userService.Authenticate(c.Request.Context(), f.Username, f.Password)
		switch {
		case err == nil:
			if err := h.sessions.Login(c.Writer, c.Request, u.ID); err != nil {
				serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, next)
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			errs = form.Errors{}
			errs.Add("", "Please enter a correct username and password.")
		default:
			serverError(c, err)
			return
		}
	}
	render(c, http.StatusOK, "users/login.html", gin.H{
		"Title":    "Log in",
		"Next":     next,
		"Username": c.PostForm("username"),
		"Errors":   errs,
	})
}

// Signup 注册成功后自动登录
func (h *Handler) Signup(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		render(c, http.StatusOK, "users/signup.html", gin.H{"Title": "Sign up", "Errors": form.Errors(nil)})
		return
	}

	f, errs := form.ValidateSignup(form.SignupForm{
		Username:  c.PostForm("username"),
		Password1: c.PostForm("password1"),
		Password2: c.PostForm("password2"),
	})
	if errs.Empty() {
		u, err := h.userService.Register(c.Request.Context(), f.Username, f.Password1)
		switch {
		case err == nil:
			if err := h.sessions.Login(c.Writer, c.Request, u.ID); err != nil {
				serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, "/")
			return
		case errors.Is(err, service.ErrUsernameTaken):
			errs = form.Errors{}
			errs.Add("username", "A user with that username already exists.")
		default:
			serverError(c, err)
			return
		}
	}
	render(c, http.StatusOK, "users/signup.html", gin.H{
		"Title":    "Sign up",
		"Username": c.PostForm("username"),
		"Errors":   errs,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Writer, c.Request); err != nil {
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// safeNext 只允许站内路径，防止开放重定向
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// IssueToken 用户名密码换取 JWT
// @Summary 获取访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body tokenRequest true "登录信息"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/token [post]
func (h *Handler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Unauthorized(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	token, exp, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "expires_at": exp})
}
