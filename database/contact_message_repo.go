package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
	"gorm.io/gorm"
)

type ContactMessageRepo struct {
	db *gorm.DB
}

func NewContactMessageRepo(db *gorm.DB) *ContactMessageRepo {
	return &ContactMessageRepo{db}
}

// Add inserts a new contact message into the database
func (r *ContactMessageRepo) Add(ctx context.Context, message *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindAll returns every message, newest first.
func (r *ContactMessageRepo) FindAll(ctx context.Context) ([]*models.ContactMessage, error) {
	var messages []*models.ContactMessage
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&messages).Error
	return messages, err
}

func (r *ContactMessageRepo) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("read = ?", false).Count(&count).Error
	return count, err
}

// MarkRead sets read=true on one message and reports whether the message exists.
func (r *ContactMessageRepo) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Some drivers only count rows whose value changed.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkAllRead sets read=true on every unread message and returns how many changed.
func (r *ContactMessageRepo) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("read = ?", false).Update("read", true)
	return result.RowsAffected, result.Error
}
