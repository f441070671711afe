package model

import "gorm.io/gorm"

// Asset is an uploaded binary referenced from post content. The core only
// reads assets; upload and storage backends live outside it.
type Asset struct {
	gorm.Model
	ID       string `gorm:"primaryKey;uuid;not null"`
	Name     string `gorm:"not null"`
	Path     string `gorm:"not null"`
	MimeType string
	Size     int64
	Meta     string
}

func (Asset) TableName() string {
	return "assets"
}
