package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

func (r *ProjectRepo) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Gallery", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		})
}

// FindAll returns every project regardless of status, newest first.
func (r *ProjectRepo) FindAll(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.withRelations(ctx).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// FindPublished returns the published projects, newest first.
func (r *ProjectRepo) FindPublished(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.withRelations(ctx).
		Where("status = ?", models.StatusPublished).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// FindPublishedBySlug returns nil without an error when no published project has the slug.
func (r *ProjectRepo) FindPublishedBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := r.withRelations(ctx).
		Where("slug = ? AND status = ?", slug, models.StatusPublished).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindRelated returns up to limit published projects other than excludeID, newest first.
func (r *ProjectRepo) FindRelated(ctx context.Context, excludeID uuid.UUID, limit int) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.withRelations(ctx).
		Where("status = ? AND id <> ?", models.StatusPublished, excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&projects).Error
	return projects, err
}

// FindByID returns nil without an error when the project does not exist.
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.withRelations(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Count returns the number of project rows.
func (r *ProjectRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&count).Error
	return count, err
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Author", "Gallery").Create(project).Error
}

// Update saves every column of the project. Last write wins.
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Author", "Gallery", "CreatedAt").Save(project).Error
}

// SetThumbnail updates only the thumbnail column.
func (r *ProjectRepo) SetThumbnail(ctx context.Context, id uuid.UUID, thumbnail *string) error {
	return r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Update("thumbnail", thumbnail).Error
}

// UpsertBySlug inserts the project or overwrites the row that already has its slug.
// The stored id is written back into project.
func (r *ProjectRepo) UpsertBySlug(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Omit("Author", "Gallery").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "content", "summary", "thumbnail", "category", "status", "featured",
			"tech_stack", "background_video_url", "project_video_url", "published_at", "updated_at",
		}),
	}).Create(project).Error
	if err != nil {
		return err
	}

	var stored models.Project
	if err := r.db.WithContext(ctx).Select("id").First(&stored, "slug = ?", project.Slug).Error; err != nil {
		return err
	}
	project.ID = stored.ID
	return nil
}

// Delete removes a project from the database by id
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id).Error
}
