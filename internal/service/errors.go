package service

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAuthor          = errors.New("only the author can edit this post")
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

// ValidationError 字段级错误，页面按字段回显
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
