// Package auth 页面用 cookie 会话，API 用 Bearer 令牌
package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const userIDKey = "user_id"

// SessionManager 基于 gorilla/sessions 的 cookie 会话
type SessionManager struct {
	store *sessions.CookieStore
	name  string
}

func NewSessionManager(name, secret string, maxAge time.Duration, secure bool) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name}
}

// Login 把用户 ID 写入会话 cookie
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// Logout 使会话立即过期
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// UserID 读取会话中的用户；cookie 缺失或签名无效时返回 false
func (m *SessionManager) UserID(r *http.Request) (uint, bool) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values[userIDKey].(uint)
	return id, ok && id != 0
}
