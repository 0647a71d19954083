package form

import "strings"

// CommentForm 评论表单；payload 中的 author 字段不会被绑定
type CommentForm struct {
	Text string `form:"text" validate:"required"`
}

type CommentInput struct {
	Text string
}

func ValidateComment(f CommentForm) (CommentInput, Errors) {
	f.Text = strings.TrimSpace(f.Text)
	if err := v().Struct(f); err != nil {
		return CommentInput{}, collect(err)
	}
	return CommentInput{Text: f.Text}, nil
}
