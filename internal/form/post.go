package form

import (
	"mime/multipart"
	"strings"
)

// PostForm 发帖/编辑表单的原始字段
type PostForm struct {
	Text  string                `form:"text" validate:"required"`
	Group string                `form:"group" validate:"omitempty,numeric"`
	Image *multipart.FileHeader `form:"image" validate:"-"`
}

// PostInput 校验通过的发帖数据
type PostInput struct {
	Text    string
	GroupID *uint
	Image   *multipart.FileHeader
}

// ValidatePost 校验表单；作者由调用方设置
func ValidatePost(f PostForm) (PostInput, Errors) {
	f.Text = strings.TrimSpace(f.Text)
	if err := v().Struct(f); err != nil {
		return PostInput{}, collect(err)
	}
	groupID, ok := parseOptionalID(f.Group)
	if !ok {
		errs := Errors{}
		errs.Add("group", "Select a valid choice.")
		return PostInput{}, errs
	}
	return PostInput{Text: f.Text, GroupID: groupID, Image: f.Image}, nil
}
