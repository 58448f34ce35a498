package model

import "time"

// Recipe is the aggregate root of the recipe domain. Ingredients, Steps and
// Tags are owned rows: they are created, replaced and deleted only through
// the recipe's own update cycle.
type Recipe struct {
	ID                   uint64 `gorm:"primaryKey;autoIncrement"`
	Name                 string `gorm:"size:191;uniqueIndex;not null"`
	Date                 string `gorm:"size:32"`
	Image                string `gorm:"size:512"`
	PreparationTimeValue int
	PreparationTimeUnit  string `gorm:"size:16"`
	BakingTimeValue      int
	BakingTimeUnit       string `gorm:"size:16"`
	Thermostat           int
	RestingTimeValue     int
	RestingTimeUnit      string `gorm:"size:16"`
	NumberOfPersons      int
	Link                 string    `gorm:"size:512"`
	OwnerID              uint64    `gorm:"not null;index"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`

	Owner       User         `gorm:"foreignKey:OwnerID"`
	Ingredients []Ingredient `gorm:"foreignKey:RecipeID"`
	Steps       []Step       `gorm:"foreignKey:RecipeID"`
	Tags        []Tag        `gorm:"foreignKey:RecipeID"`
}

// Ingredient belongs to exactly one recipe.
type Ingredient struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RecipeID uint64 `gorm:"not null;index"`
	Name     string `gorm:"size:191;not null"`
	Unit     string `gorm:"size:32"`
	Value    float64
}

// Step is one instruction of a recipe; order follows the primary key.
type Step struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	RecipeID    uint64 `gorm:"not null;index"`
	Description string `gorm:"type:text;not null"`
	Image       string `gorm:"size:512"`
}

// Tag is a free-form label on a recipe.
type Tag struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RecipeID uint64 `gorm:"not null;index"`
	Value    string `gorm:"size:64;not null"`
}

// BestTag marks recipes promoted by an administrator.
const BestTag = "best"
