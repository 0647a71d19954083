package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

// Index 首页，全站帖子
func (h *Handler) Index(c *gin.Context) {
	feed, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		serverError(c, err)
		return
	}
	render(c, http.StatusOK, "posts/index.html", gin.H{"Posts": feed.Posts, "Page": feed.Page})
}

func (h *Handler) GroupPosts(c *gin.Context) {
	feed, err := h.postService.GroupFeed(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.pageError(c, err)
		return
	}
	render(c, http.StatusOK, "posts/group_list.html", gin.H{
		"Title": feed.Group.Title,
		"Group": feed.Group,
		"Posts": feed.Posts,
		"Page":  feed.Page,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.postService.Profile(c.Request.Context(), c.Param("username"), middleware.CurrentUserID(c), c.Query("page"))
	if err != nil {
		h.pageError(c, err)
		return
	}
	render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Title":          p.Author.Username,
		"Author":         p.Author,
		"PostCount":      p.PostCount,
		"Following":      p.Following,
		"FollowerCount":  p.FollowerCount,
		"FollowingCount": p.FollowingCount,
		"Posts":          p.Posts,
		"Page":           p.Page,
	})
}

func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	d, err := h.postService.Detail(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	render(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"Title":           d.Post.Author.Username,
		"Post":            d.Post,
		"Comments":        d.Comments,
		"CommentCount":    d.CommentCount,
		"AuthorPostCount": d.AuthorPostCount,
	})
}

// FollowIndex 关注作者的帖子
func (h *Handler) FollowIndex(c *gin.Context) {
	user := middleware.CurrentUser(c)
	feed, err := h.postService.FollowFeed(c.Request.Context(), user.ID, c.Query("page"))
	if err != nil {
		serverError(c, err)
		return
	}
	render(c, http.StatusOK, "posts/follow.html", gin.H{"Title": "Follow", "Posts": feed.Posts, "Page": feed.Page})
}

// postForm 读取表单；作者字段即使提交也不读取
func postForm(c *gin.Context) form.PostForm {
	f := form.PostForm{Text: c.PostForm("text"), Group: c.PostForm("group")}
	if fh, err := c.FormFile("image"); err == nil {
		f.Image = fh
	}
	return f
}

func (h *Handler) renderPostForm(c *gin.Context, status int, data gin.H) {
	groups, err := h.postService.Groups(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	data["Groups"] = groups
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = form.Errors(nil)
	}
	render(c, status, "posts/create_post.html", data)
}

func formData(f form.PostForm, errs form.Errors) gin.H {
	var groupID uint
	if id, ok := form.ParseID(f.Group); ok {
		groupID = id
	}
	return gin.H{"Text": f.Text, "GroupID": groupID, "Errors": errs}
}

func fieldErrors(errs form.Errors, err error) (form.Errors, bool) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return errs, false
	}
	if errs == nil {
		errs = form.Errors{}
	}
	errs.Add(verr.Field, verr.Message)
	return errs, true
}

// PostCreate GET 返回空表单；POST 成功后跳转到作者主页
func (h *Handler) PostCreate(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.renderPostForm(c, http.StatusOK, gin.H{"Title": "New post", "Text": "", "GroupID": uint(0)})
		return
	}

	user := middleware.CurrentUser(c)
	f := postForm(c)
	in, errs := form.ValidatePost(f)
	if !errs.Empty() {
		data := formData(f, errs)
		data["Title"] = "New post"
		h.renderPostForm(c, http.StatusOK, data)
		return
	}
	if _, err := h.postService.Create(c.Request.Context(), user.ID, in); err != nil {
		if errs, ok := fieldErrors(errs, err); ok {
			data := formData(f, errs)
			data["Title"] = "New post"
			h.renderPostForm(c, http.StatusOK, data)
			return
		}
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// PostEdit 仅作者可编辑，其他人跳转到详情页
func (h *Handler) PostEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	user := middleware.CurrentUser(c)
	post, err := h.postService.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if post.AuthorID != user.ID {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}

	if c.Request.Method != http.MethodPost {
		h.renderPostForm(c, http.StatusOK, editData(post, gin.H{
			"Text":    post.Text,
			"GroupID": derefID(post.GroupID),
		}))
		return
	}

	f := postForm(c)
	in, errs := form.ValidatePost(f)
	if !errs.Empty() {
		h.renderPostForm(c, http.StatusOK, editData(post, formData(f, errs)))
		return
	}
	if _, err := h.postService.Update(c.Request.Context(), user.ID, id, in); err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			c.Redirect(http.StatusFound, detailURL(id))
			return
		}
		if errs, ok := fieldErrors(errs, err); ok {
			h.renderPostForm(c, http.StatusOK, editData(post, formData(f, errs)))
			return
		}
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

func editData(post *model.Post, data gin.H) gin.H {
	data["Title"] = "Edit post"
	data["IsEdit"] = true
	data["PostID"] = post.ID
	return data
}

// AddComment 校验失败也跳转回详情页
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	user := middleware.CurrentUser(c)
	if _, err := h.postService.Get(c.Request.Context(), id); err != nil {
		h.pageError(c, err)
		return
	}
	in, errs := form.ValidateComment(form.CommentForm{Text: c.PostForm("text")})
	if errs.Empty() {
		if _, err := h.commentService.Add(c.Request.Context(), user.ID, id, in); err != nil {
			h.pageError(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func profileURL(username string) string { return fmt.Sprintf("/profile/%s/", username) }

func detailURL(id uint) string { return fmt.Sprintf("/posts/%d/", id) }
