package model

// All 返回需要建表的模型，顺序满足外键依赖
func All() []any {
	return []any{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}
