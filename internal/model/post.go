package model

import "time"

// Post 帖子；作者必填，分组与图片可选
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index:idx_post_author"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index:idx_post_group"`
	Group     *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_post_created"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

// EditableColumns 编辑时允许写入的列；created_at 与 author_id 不可变
var EditableColumns = []string{"text", "group_id", "image"}
