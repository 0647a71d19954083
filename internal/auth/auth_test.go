package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_RoundTrip(t *testing.T) {
	m := NewSessionManager("yatube_session", "secret", time.Hour, false)

	w := httptest.NewRecorder()
	require.NoError(t, m.Login(w, httptest.NewRequest(http.MethodGet, "/", nil), 42))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	id, ok := m.UserID(r)
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	// 另一密钥签名的 cookie 无效；会话注册表缓存在请求上，需新建请求
	other := NewSessionManager("yatube_session", "other-secret", time.Hour, false)
	fresh := httptest.NewRequest(http.MethodGet, "/", nil)
	fresh.AddCookie(cookies[0])
	_, ok = other.UserID(fresh)
	assert.False(t, ok)
}

func TestSessionManager_Anonymous(t *testing.T) {
	m := NewSessionManager("yatube_session", "secret", time.Hour, false)
	_, ok := m.UserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestSessionManager_Logout(t *testing.T) {
	m := NewSessionManager("yatube_session", "secret", time.Hour, false)
	w := httptest.NewRecorder()
	require.NoError(t, m.Login(w, httptest.NewRequest(http.MethodGet, "/", nil), 7))

	r := httptest.NewRequest(http.MethodGet, "/auth/logout/", nil)
	r.AddCookie(w.Result().Cookies()[0])
	out := httptest.NewRecorder()
	require.NoError(t, m.Logout(out, r))

	cookies := out.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestTokenManager(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	raw, exp, err := m.Issue(5, "auth")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth", claims.Username)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 5, id)

	_, err = NewTokenManager("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(5, "auth")
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
