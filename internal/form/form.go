// Package form 页面表单校验；作者字段不从提交内容读取
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Errors 字段名到错误信息；空键 "" 为非字段错误
type Errors map[string][]string

func (e Errors) Add(field, msg string) { e[field] = append(e[field], msg) }

func (e Errors) Has(field string) bool { return len(e[field]) > 0 }

func (e Errors) Empty() bool { return len(e) == 0 }

// Error 按字段名排序输出
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return strings.Join(parts, ", ")
}

func collect(err error) Errors {
	out := Errors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "username":
		return "Letters, digits and @/./+/-/_ only."
	case "numeric", "number":
		return "Select a valid choice."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

// parseOptionalID 空字符串表示未选择
func parseOptionalID(raw string) (*uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, false
	}
	id := uint(n)
	return &id, true
}

// ParseID 解析下拉框选中的 ID，空值或非法值返回 false
func ParseID(raw string) (uint, bool) {
	id, ok := parseOptionalID(raw)
	if !ok || id == nil {
		return 0, false
	}
	return *id, true
}
