package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/testutil"
)

type env struct {
	t   *testing.T
	db  *gorm.DB
	app *App
	fs  afero.Fs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

func newEnvWith(t *testing.T, mutate func(*config.Config)) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	db := testutil.NewDB(t)
	fs := afero.NewMemMapFs()
	a, err := New(cfg, db, Options{
		Media:      media.NewFSStore(fs, "media", cfg.Media.MaxUploadBytes),
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return &env{t: t, db: db, app: a, fs: fs}
}

// cookies 为 user 建立会话
func (e *env) cookies(u *model.User) []*http.Cookie {
	rec := httptest.NewRecorder()
	require.NoError(e.t, e.app.Sessions.Login(rec, httptest.NewRequest(http.MethodGet, "/", nil), u.ID))
	return rec.Result().Cookies()
}

func (e *env) do(req *http.Request, as *model.User) *httptest.ResponseRecorder {
	if as != nil {
		for _, c := range e.cookies(as) {
			req.AddCookie(c)
		}
	}
	w := httptest.NewRecorder()
	e.app.Engine.ServeHTTP(w, req)
	return w
}

func (e *env) get(path string, as *model.User) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), as)
}

func (e *env) postForm(path string, vals url.Values, as *model.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, as)
}

func (e *env) count(m any) int64 {
	var n int64
	require.NoError(e.t, e.db.Model(m).Count(&n).Error)
	return n
}

func cards(w *httptest.ResponseRecorder) int {
	return strings.Count(w.Body.String(), `class="post-card"`)
}

func TestFeedsPaginate(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	group := testutil.CreateGroup(t, e.db, "cats")
	testutil.CreatePosts(t, e.db, author, group, 15)

	for _, base := range []string{"/", "/group/cats/", "/profile/leo/"} {
		w := e.get(base, nil)
		require.Equal(t, http.StatusOK, w.Code, base)
		assert.Equal(t, 10, cards(w), base)

		w = e.get(base+"?page=2", nil)
		require.Equal(t, http.StatusOK, w.Code, base)
		assert.Equal(t, 5, cards(w), base)

		// 越界页码落到最后一页
		w = e.get(base+"?page=7", nil)
		assert.Equal(t, 5, cards(w), base)
	}
}

func TestProfileShowsCountsAndFollowState(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	viewer := testutil.CreateUser(t, e.db, "kate")
	testutil.CreatePosts(t, e.db, author, nil, 3)

	w := e.get("/profile/leo/", viewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<span id="post-count">3</span>`)
	assert.Contains(t, w.Body.String(), "/profile/leo/follow/")

	e.get("/profile/leo/follow/", viewer)
	w = e.get("/profile/leo/", viewer)
	assert.Contains(t, w.Body.String(), "/profile/leo/unfollow/")
	assert.Contains(t, w.Body.String(), "Followers: 1")

	// 作者本人看不到关注按钮
	w = e.get("/profile/leo/", author)
	assert.NotContains(t, w.Body.String(), "/profile/leo/follow/")
}

func TestCreatePost(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	other := testutil.CreateUser(t, e.db, "kate")
	group := testutil.CreateGroup(t, e.db, "cats")
	before := e.count(&model.Post{})

	w := e.get("/create/", author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title cats")

	w = e.postForm("/create/", url.Values{
		"text":   {"brand new"},
		"group":  {fmt.Sprint(group.ID)},
		"author": {fmt.Sprint(other.ID)},
	}, author)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/leo/", w.Header().Get("Location"))
	assert.Equal(t, before+1, e.count(&model.Post{}))

	var p model.Post
	require.NoError(t, e.db.Order("id DESC").First(&p).Error)
	assert.Equal(t, author.ID, p.AuthorID)
	assert.Equal(t, "brand new", p.Text)
	require.NotNil(t, p.GroupID)
	assert.Equal(t, group.ID, *p.GroupID)
}

func TestCreatePost_InvalidRerenders(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")

	w := e.postForm("/create/", url.Values{"text": {"   "}}, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	assert.Contains(t, w.Body.String(), `id="id_text" class="is-invalid"`)

	w = e.postForm("/create/", url.Values{"text": {"ok"}, "group": {"999"}}, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Select a valid choice.")
	assert.Equal(t, int64(0), e.count(&model.Post{}))
}

func TestCreatePost_AnonymousRedirectsToLogin(t *testing.T) {
	e := newEnv(t)

	w := e.postForm("/create/", url.Values{"text": {"sneaky"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/create/", w.Header().Get("Location"))
	assert.Equal(t, int64(0), e.count(&model.Post{}))

	for _, path := range []string{"/create/", "/follow/", "/profile/leo/follow/"} {
		w = e.get(path, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/?next="+path), path)
	}
}

func TestCreatePost_WithImage(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	gif := []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
		0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02,
		0x44, 0x01, 0x00, 0x3B,
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "with picture"))
	part, err := mw.CreateFormFile("image", "pic.gif")
	require.NoError(t, err)
	_, err = part.Write(gif)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := e.do(req, author)
	require.Equal(t, http.StatusFound, w.Code)

	var p model.Post
	require.NoError(t, e.db.First(&p).Error)
	require.NotEmpty(t, p.Image)

	w = e.get("/media/"+p.Image, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, gif, w.Body.Bytes())

	w = e.get(fmt.Sprintf("/posts/%d/", p.ID), nil)
	assert.Contains(t, w.Body.String(), "/media/"+p.Image)
}

func TestCreatePost_RejectsSVG(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "with script"))
	part, err := mw.CreateFormFile("image", "x.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := e.do(req, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")
	assert.Equal(t, int64(0), e.count(&model.Post{}))
}

func TestConfiguredMediaAndLoginPaths(t *testing.T) {
	e := newEnvWith(t, func(c *config.Config) {
		c.Media.URLPrefix = "/uploads/"
		c.Auth.LoginURL = "/accounts/login/"
	})
	author := testutil.CreateUser(t, e.db, "leo")

	w := e.get("/create/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/accounts/login/?next=/create/", w.Header().Get("Location"))

	w = e.get("/accounts/login/?next=/create/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/accounts/login/"`)

	require.NoError(t, e.fs.MkdirAll("media/posts", 0o755))
	require.NoError(t, afero.WriteFile(e.fs, "media/posts/a.gif", []byte("GIF89a"), 0o644))
	require.NoError(t, e.db.Create(&model.Post{Text: "pic", AuthorID: author.ID, Image: "posts/a.gif"}).Error)

	w = e.get("/uploads/posts/a.gif", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GIF89a", w.Body.String())
	assert.Equal(t, http.StatusNotFound, e.get("/media/posts/a.gif", nil).Code)

	w = e.get("/profile/leo/", nil)
	assert.Contains(t, w.Body.String(), `src="/uploads/posts/a.gif"`)
}

func TestEditPost(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	other := testutil.CreateUser(t, e.db, "kate")
	post := testutil.CreatePosts(t, e.db, author, nil, 1)[0]
	detail := fmt.Sprintf("/posts/%d/", post.ID)
	edit := detail + "edit/"

	w := e.get(edit, other)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = e.postForm(edit, url.Values{"text": {"hijacked"}}, other)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))
	var stored model.Post
	require.NoError(t, e.db.First(&stored, post.ID).Error)
	assert.Equal(t, post.Text, stored.Text)

	w = e.get(edit, author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), post.Text)

	w = e.postForm(edit, url.Values{"text": {""}}, author)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.postForm(edit, url.Values{"text": {"edited"}}, author)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))
	var edited model.Post
	require.NoError(t, e.db.First(&edited, post.ID).Error)
	assert.Equal(t, "edited", edited.Text)
	assert.Equal(t, author.ID, edited.AuthorID)

	w = e.get("/posts/999/edit/", author)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	reader := testutil.CreateUser(t, e.db, "kate")
	post := testutil.CreatePosts(t, e.db, author, nil, 1)[0]
	detail := fmt.Sprintf("/posts/%d/", post.ID)

	w := e.postForm(detail+"comment/", url.Values{"text": {"first!"}}, reader)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))
	assert.Equal(t, int64(1), e.count(&model.Comment{}))

	w = e.postForm(detail+"comment/", url.Values{"text": {""}}, reader)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), e.count(&model.Comment{}))

	w = e.postForm(detail+"comment/", url.Values{"text": {"anon"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), e.count(&model.Comment{}))

	w = e.postForm("/posts/999/comment/", url.Values{"text": {"lost"}}, reader)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.get(detail, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first!")
	assert.Contains(t, w.Body.String(), `<span id="comment-count">1</span>`)
	assert.Contains(t, w.Body.String(), `<span id="author-post-count">1</span>`)
}

func TestFollowUnfollow(t *testing.T) {
	e := newEnv(t)
	fan := testutil.CreateUser(t, e.db, "fan")
	testutil.CreateUser(t, e.db, "star")

	for i := 0; i < 2; i++ {
		w := e.get("/profile/star/follow/", fan)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/star/", w.Header().Get("Location"))
	}
	assert.Equal(t, int64(1), e.count(&model.Follow{}))

	w := e.get("/profile/fan/follow/", fan)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), e.count(&model.Follow{}))

	for i := 0; i < 2; i++ {
		w = e.get("/profile/star/unfollow/", fan)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/star/", w.Header().Get("Location"))
	}
	assert.Equal(t, int64(0), e.count(&model.Follow{}))

	w = e.get("/profile/ghost/follow/", fan)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowFeed(t *testing.T) {
	e := newEnv(t)
	reader := testutil.CreateUser(t, e.db, "reader")
	star := testutil.CreateUser(t, e.db, "star")
	stranger := testutil.CreateUser(t, e.db, "stranger")
	testutil.CreatePosts(t, e.db, star, nil, 2)
	testutil.CreatePosts(t, e.db, stranger, nil, 3)

	w := e.get("/follow/", reader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, cards(w))

	e.get("/profile/star/follow/", reader)
	w = e.get("/follow/", reader)
	assert.Equal(t, 2, cards(w))
	assert.NotContains(t, w.Body.String(), "/profile/stranger/")

	w = e.get("/follow/", stranger)
	assert.Equal(t, 0, cards(w))
}

func TestMainFeedIsCached(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "leo")
	testutil.CreatePosts(t, e.db, author, nil, 1)

	first := e.get("/", nil)
	require.Equal(t, http.StatusOK, first.Code)

	require.NoError(t, e.db.Create(&model.Post{Text: "fresh post", AuthorID: author.ID}).Error)
	second := e.get("/", nil)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.NotContains(t, second.Body.String(), "fresh post")

	require.NoError(t, e.app.PageCache.Clear(context.Background()))
	third := e.get("/", nil)
	assert.NotEqual(t, first.Body.String(), third.Body.String())
	assert.Contains(t, third.Body.String(), "fresh post")
}

func TestNotFoundPages(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/unexisting_page/", "/group/nope/", "/profile/nobody/", "/posts/999/", "/posts/abc/"} {
		w := e.get(path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Page not found", path)
	}
}

func TestAuthPages(t *testing.T) {
	e := newEnv(t)

	w := e.get("/auth/signup/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.postForm("/auth/signup/", url.Values{
		"username": {"newbie"}, "password1": {"long-enough-1"}, "password2": {"long-enough-1"},
	}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.NotEmpty(t, w.Result().Cookies())

	w = e.postForm("/auth/signup/", url.Values{
		"username": {"newbie"}, "password1": {"long-enough-1"}, "password2": {"long-enough-1"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	w = e.postForm("/auth/login/", url.Values{
		"username": {"newbie"}, "password": {"long-enough-1"}, "next": {"/create/"},
	}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/create/", w.Header().Get("Location"))

	// 会话 cookie 可以访问受保护页面
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	e.app.Engine.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)

	w = e.postForm("/auth/login/", url.Values{
		"username": {"newbie"}, "password": {"long-enough-1"}, "next": {"//evil.example"},
	}, nil)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = e.postForm("/auth/login/", url.Values{"username": {"newbie"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "correct username and password")
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *env) api(method, path, token string, body any) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := e.do(req, nil)
	var env envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestAPI(t *testing.T) {
	e := newEnv(t)
	_, err := e.app.Users.Register(context.Background(), "fan", "fan-password")
	require.NoError(t, err)
	star := testutil.CreateUser(t, e.db, "star")
	group := testutil.CreateGroup(t, e.db, "cats")
	posts := testutil.CreatePosts(t, e.db, star, group, 12)

	code, _ := e.api(http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "fan", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res := e.api(http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "fan", "password": "fan-password"})
	require.Equal(t, http.StatusOK, code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &tok))
	require.NotEmpty(t, tok.Token)

	code, _ = e.api(http.MethodGet, "/api/v1/follow/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.api(http.MethodPost, "/api/v1/relations/follow", tok.Token, map[string]string{"username": "star"})
	assert.Equal(t, http.StatusOK, code)
	code, res = e.api(http.MethodPost, "/api/v1/relations/follow", tok.Token, map[string]string{"username": "fan"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "cannot follow self", res.Message)
	code, _ = e.api(http.MethodPost, "/api/v1/relations/follow", tok.Token, map[string]string{"username": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)

	var page struct {
		Page     int           `json:"page"`
		NumPages int           `json:"num_pages"`
		Count    int64         `json:"count"`
		Results  []*model.Post `json:"results"`
	}
	code, res = e.api(http.MethodGet, "/api/v1/follow/posts?page=2", tok.Token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, int64(12), page.Count)
	assert.Len(t, page.Results, 2)

	code, res = e.api(http.MethodGet, "/api/v1/groups/cats/posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Len(t, page.Results, 10)
	assert.Equal(t, posts[len(posts)-1].ID, page.Results[0].ID)

	code, _ = e.api(http.MethodGet, "/api/v1/groups/none/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.api(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", posts[0].ID), "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.api(http.MethodGet, "/api/v1/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	var fans struct {
		List []*model.User `json:"list"`
	}
	code, res = e.api(http.MethodGet, "/api/v1/relations/star/fans", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &fans))
	require.Len(t, fans.List, 1)
	assert.Equal(t, "fan", fans.List[0].Username)

	code, _ = e.api(http.MethodPost, "/api/v1/relations/unfollow", tok.Token, map[string]string{"username": "star"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), e.count(&model.Follow{}))

	code, _ = e.api(http.MethodGet, "/api/v1/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOperationalEndpoints(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.get("/health", nil).Code)

	w := e.get("/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yatube_http_requests_total")

	w = e.get("/swagger/doc.json", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/relations/follow")
}
