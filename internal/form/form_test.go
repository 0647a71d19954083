package form

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePost(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		in, errs := ValidatePost(PostForm{Text: "  hello  "})
		require.Nil(t, errs)
		assert.Equal(t, "hello", in.Text)
		assert.Nil(t, in.GroupID)
		assert.Nil(t, in.Image)
	})

	t.Run("with group and image", func(t *testing.T) {
		fh := &multipart.FileHeader{Filename: "small.gif"}
		in, errs := ValidatePost(PostForm{Text: "hello", Group: "3", Image: fh})
		require.Nil(t, errs)
		require.NotNil(t, in.GroupID)
		assert.EqualValues(t, 3, *in.GroupID)
		assert.Same(t, fh, in.Image)
	})

	t.Run("missing text", func(t *testing.T) {
		_, errs := ValidatePost(PostForm{Text: "   ", Group: "1"})
		require.NotNil(t, errs)
		assert.True(t, errs.Has("text"))
		assert.Equal(t, "This field is required.", errs["text"][0])
	})

	t.Run("non numeric group", func(t *testing.T) {
		_, errs := ValidatePost(PostForm{Text: "hello", Group: "cats"})
		require.NotNil(t, errs)
		assert.True(t, errs.Has("group"))
	})

	t.Run("zero group", func(t *testing.T) {
		_, errs := ValidatePost(PostForm{Text: "hello", Group: "0"})
		require.NotNil(t, errs)
		assert.Equal(t, "Select a valid choice.", errs["group"][0])
	})
}

func TestValidateComment(t *testing.T) {
	in, errs := ValidateComment(CommentForm{Text: "CommentText"})
	require.Nil(t, errs)
	assert.Equal(t, "CommentText", in.Text)

	_, errs = ValidateComment(CommentForm{})
	require.NotNil(t, errs)
	assert.True(t, errs.Has("text"))
}

func TestValidateSignup(t *testing.T) {
	_, errs := ValidateSignup(SignupForm{Username: "auth", Password1: "longenough", Password2: "longenough"})
	assert.Nil(t, errs)

	_, errs = ValidateSignup(SignupForm{Username: "auth", Password1: "longenough", Password2: "different"})
	require.NotNil(t, errs)
	assert.True(t, errs.Has("password2"))

	_, errs = ValidateSignup(SignupForm{Username: "bad name!", Password1: "longenough", Password2: "longenough"})
	require.NotNil(t, errs)
	assert.True(t, errs.Has("username"))

	_, errs = ValidateSignup(SignupForm{Username: "auth", Password1: "short", Password2: "short"})
	require.NotNil(t, errs)
	assert.True(t, errs.Has("password1"))
}

func TestErrors(t *testing.T) {
	errs := Errors{}
	errs.Add("text", "required")
	errs.Add("group", "invalid")

	var err error = errs
	assert.Equal(t, "group: invalid, text: required", err.Error())
	assert.False(t, errs.Empty())
	assert.True(t, errs.Has("text"))
	assert.False(t, errs.Has("image"))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("12")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	for _, raw := range []string{"", "0", "x", "-3"} {
		_, ok := ParseID(raw)
		assert.False(t, ok, raw)
	}
}
