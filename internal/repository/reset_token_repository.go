package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/model"
)

// ResetTokenRepo stores password-reset tokens, at most one per user.
type ResetTokenRepo struct{ DB *gorm.DB }

func NewResetTokenRepo(db *gorm.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Replace drops any outstanding token of userID and inserts the new one in
// the same transaction.
func (r *ResetTokenRepo) Replace(ctx context.Context, userID uint64, token string, exp time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return err
		}
		row := model.PasswordResetToken{UserID: userID, Token: token, ExpiresAt: exp.UTC()}
		if err := tx.Create(&row).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

// FindByToken looks a token up regardless of its expiry.
func (r *ResetTokenRepo) FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	var row model.PasswordResetToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Delete removes a token row by id.
func (r *ResetTokenRepo) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.PasswordResetToken{}, id).Error
}

// Consume deletes the token and stores the new password hash of its user
// atomically. If another request consumed the token first, ErrNotFound is
// returned and the password is left untouched.
func (r *ResetTokenRepo) Consume(ctx context.Context, tok model.PasswordResetToken, passwordHash string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND token = ?", tok.ID, tok.Token).Delete(&model.PasswordResetToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		res = tx.Model(&model.User{}).Where("id = ?", tok.UserID).Update("password_hash", passwordHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
