package form

import "strings"

// LoginForm 登录表单
type LoginForm struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required"`
}

// SignupForm 注册表单
type SignupForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required"`
}

func ValidateLogin(f LoginForm) (LoginForm, Errors) {
	f.Username = strings.TrimSpace(f.Username)
	if err := v().Struct(f); err != nil {
		return LoginForm{}, collect(err)
	}
	return f, nil
}

func ValidateSignup(f SignupForm) (SignupForm, Errors) {
	f.Username = strings.TrimSpace(f.Username)
	if err := v().Struct(f); err != nil {
		return SignupForm{}, collect(err)
	}
	if f.Password1 != f.Password2 {
		errs := Errors{}
		errs.Add("password2", "The two password fields didn't match.")
		return SignupForm{}, errs
	}
	return f, nil
}
