package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 按键查询无记录
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
