package model

import "gorm.io/gorm"

type Tag struct {
	gorm.Model
	ID   string `gorm:"primaryKey;uuid;not null"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (Tag) TableName() string {
	return "tags"
}
