package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
	"gorm.io/gorm"
)

type UserProfileRepo struct {
	db *gorm.DB
}

func NewUserProfileRepo(db *gorm.DB) *UserProfileRepo {
	return &UserProfileRepo{db}
}

// FindByID returns nil without an error when the identity has no profile row.
func (r *UserProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return findProfile(r.db.WithContext(ctx), id)
}

// FindByIDAsSubject reads the profile under the row-level security policies of the
// identity itself. On Postgres the request.jwt.claims setting is scoped to a
// transaction, so the policies see auth.uid() = id.
func (r *UserProfileRepo) FindByIDAsSubject(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	if r.db.Dialector.Name() != "postgres" {
		return r.FindByID(ctx, id)
	}

	claims, err := json.Marshal(map[string]string{"sub": id.String(), "role": "authenticated"})
	if err != nil {
		return nil, err
	}

	var profile *models.UserProfile
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, true)", string(claims)).Error; err != nil {
			return err
		}
		if err := tx.Exec("SET LOCAL ROLE authenticated").Error; err != nil {
			return err
		}
		found, err := findProfile(tx, id)
		profile = found
		return err
	})
	return profile, err
}

// FindByIDs returns the profiles keyed by id.
func (r *UserProfileRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserProfile, error) {
	out := make(map[uuid.UUID]models.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []models.UserProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, profile := range profiles {
		out[profile.ID] = profile
	}
	return out, nil
}

// Add inserts a new profile row.
func (r *UserProfileRepo) Add(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update applies a partial update and reports whether the row exists.
func (r *UserProfileRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	if len(fields) == 0 {
		profile, err := r.FindByID(ctx, id)
		return profile != nil, err
	}

	result := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	profile, err := r.FindByID(ctx, id)
	return profile != nil, err
}

// Delete removes the profile row. Deleting the auth identity normally cascades here.
func (r *UserProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.UserProfile{}, "id = ?", id).Error
}

func findProfile(db *gorm.DB, id uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := db.First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
