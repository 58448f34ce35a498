package model

import "time"

// User statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User represents an application user record as stored in the `users`
// table. PasswordHash and IsAdmin never leave the service layer; handlers
// map users onto response types with the fields they are allowed to show.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:120;not null"`
	Email        string    `gorm:"size:320;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:72;not null"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	Status       string    `gorm:"size:32;not null;default:active"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// RefreshToken models an entry in the `refresh_tokens` table. The signed
// JWT is never stored; TokenID is the opaque id embedded in its claims so a
// session can be revoked server side.
type RefreshToken struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	TokenID   string    `gorm:"size:64;uniqueIndex;not null"`
	UserID    uint64    `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Revoked   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Usable reports whether the token may still mint access tokens at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// PasswordResetToken models a pending password reset. The unique index on
// user_id keeps at most one outstanding token per user.
type PasswordResetToken struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;uniqueIndex"`
	Token     string    `gorm:"size:128;uniqueIndex;not null"` // SHA-256 hex of the mailed token
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
