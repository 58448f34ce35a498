package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/model"
)

// ImageRepo records uploaded images.
type ImageRepo struct{ DB *gorm.DB }

func NewImageRepo(db *gorm.DB) *ImageRepo { return &ImageRepo{DB: db} }

func (r *ImageRepo) Create(ctx context.Context, img *model.Image) error {
	if err := r.DB.WithContext(ctx).Create(img).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ImageRepo) GetByID(ctx context.Context, id uint64) (*model.Image, error) {
	var img model.Image
	if err := r.DB.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &img, nil
}

func (r *ImageRepo) Delete(ctx context.Context, id uint64) error {
	res := r.DB.WithContext(ctx).Delete(&model.Image{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
