package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/model"
)

// TokenRepo persists refresh-token records keyed by the opaque token id
// carried in the signed JWT.
type TokenRepo struct{ DB *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{DB: db} }

// TokenStats counts refresh-token rows. A row both expired and revoked is
// counted in Expired and in Revoked.
type TokenStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
	Revoked int64 `json:"revoked"`
}

// Store inserts a refresh-token row.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenID string, exp time.Time) error {
	row := model.RefreshToken{TokenID: tokenID, UserID: userID, ExpiresAt: exp.UTC()}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindUsable returns the row for tokenID owned by userID if it is neither
// revoked nor expired at now.
func (r *TokenRepo) FindUsable(ctx context.Context, tokenID string, userID uint64, now time.Time) (*model.RefreshToken, error) {
	var row model.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("token_id = ? AND user_id = ?", tokenID, userID).
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	if !row.Usable(now) {
		return nil, ErrNotFound
	}
	return &row, nil
}

// Revoke marks a token as revoked. Unknown ids are not an error.
func (r *TokenRepo) Revoke(ctx context.Context, tokenID string, userID uint64) error {
	return r.DB.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("token_id = ? AND user_id = ? AND revoked = ?", tokenID, userID, false).
		Update("revoked", true).Error
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

// Cleanup deletes expired or revoked rows and returns how many went away.
func (r *TokenRepo) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", now.UTC(), true).
		Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}

// Stats counts rows as of now.
func (r *TokenRepo) Stats(ctx context.Context, now time.Time) (TokenStats, error) {
	var s TokenStats
	db := r.DB.WithContext(ctx).Model(&model.RefreshToken{})
	now = now.UTC()
	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&s.Total, "1 = 1", nil},
		{&s.Active, "revoked = ? AND expires_at > ?", []any{false, now}},
		{&s.Expired, "expires_at < ?", []any{now}},
		{&s.Revoked, "revoked = ?", []any{true}},
	}
	for _, c := range counts {
		if err := db.Session(&gorm.Session{}).Where(c.query, c.args...).Count(c.dst).Error; err != nil {
			return TokenStats{}, err
		}
	}
	return s, nil
}
