package model

import "time"

// Favorite joins a user and a recipe. The composite unique index is what
// keeps a pair from being stored twice.
type Favorite struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint64    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Recipe Recipe `gorm:"foreignKey:RecipeID"`
}

// Image records an uploaded blob. Path is the storage-relative location
// (file path under the upload dir, or object key).
type Image struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Filename  string    `gorm:"size:191;uniqueIndex;not null"`
	Path      string    `gorm:"size:512;not null"`
	MimeType  string    `gorm:"size:64"`
	Size      int64
	OwnerID   uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
