package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
	"gorm.io/gorm"
)

type GalleryImageRepo struct {
	db *gorm.DB
}

func NewGalleryImageRepo(db *gorm.DB) *GalleryImageRepo {
	return &GalleryImageRepo{db}
}

// FindByProject returns the gallery in display order.
func (r *GalleryImageRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]models.GalleryImage, error) {
	var images []models.GalleryImage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Find(&images).Error
	return images, err
}

// ReplaceAll makes the stored gallery of projectID equal to images: rows missing
// from images are deleted, the rest are inserted or overwritten.
func (r *GalleryImageRepo) ReplaceAll(ctx context.Context, projectID uuid.UUID, images []models.GalleryImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]uuid.UUID, 0, len(images))
		for i := range images {
			images[i].ProjectID = projectID
			if images[i].ID == uuid.Nil {
				images[i].ID = uuid.New()
			}
			keep = append(keep, images[i].ID)
		}

		remove := tx.Where("project_id = ?", projectID)
		if len(keep) > 0 {
			remove = remove.Where("id NOT IN ?", keep)
		}
		if err := remove.Delete(&models.GalleryImage{}).Error; err != nil {
			return err
		}

		for i := range images {
			if err := tx.Save(&images[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
