package services

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Limits for related-project queries.
const (
	DefaultRelatedLimit = 3
	MaxRelatedLimit     = 12
)

// ProjectReader serves published projects to the public site. The relational store
// and the CMS both implement it; one of them is chosen at startup.
type ProjectReader interface {
	AllPublished(ctx context.Context) ([]models.Project, error)
	PublishedBySlug(ctx context.Context, slug string) (*models.Project, error)
	Related(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Project, error)
}

// MediaStore holds uploaded gallery objects.
type MediaStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProjectInput carries the editable project fields. Nil pointers keep the current
// value on update.
type ProjectInput struct {
	Title              *string
	Slug               *string
	Content            json.RawMessage
	Summary            *string
	Thumbnail          *string
	Category           *models.ProjectCategory
	Status             *models.ProjectStatus
	Featured           *bool
	TechStack          []string
	BackgroundVideoURL *string
	ProjectVideoURL    *string
}

// DatabaseProjectReader reads published projects with the public credential.
type DatabaseProjectReader struct {
	repo *database.ProjectRepo
}

func NewDatabaseProjectReader(db database.Database) *DatabaseProjectReader {
	return &DatabaseProjectReader{repo: db.Public().ProjectRepo()}
}

func (r *DatabaseProjectReader) AllPublished(ctx context.Context) ([]models.Project, error) {
	projects, err := r.repo.FindPublished(ctx)
	return derefProjects(projects), err
}

func (r *DatabaseProjectReader) PublishedBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return r.repo.FindPublishedBySlug(ctx, slug)
}

func (r *DatabaseProjectReader) Related(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Project, error) {
	projects, err := r.repo.FindRelated(ctx, excludeID, limit)
	return derefProjects(projects), err
}

// ProjectService serves public project reads through the configured reader and runs
// admin writes against the relational store with the service credential.
type ProjectService struct {
	reader     ProjectReader
	projects   *database.ProjectRepo
	gallery    *database.GalleryImageRepo
	media      MediaStore
	uploadPool int
	logger     zerolog.Logger
}

// NewProjectService builds the service. media may be nil when no bucket is configured;
// uploads then fail with 503.
func NewProjectService(db database.Database, reader ProjectReader, media MediaStore) *ProjectService {
	return &ProjectService{
		reader:     reader,
		projects:   db.Service().ProjectRepo(),
		gallery:    db.Service().GalleryImageRepo(),
		media:      media,
		uploadPool: 4,
		logger:     log.With().Str("service", "projectService").Logger(),
	}
}

// GetAllProjects returns published projects, newest first.
func (s *ProjectService) GetAllProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.reader.AllPublished(ctx)
	if err != nil {
		return nil, s.readError("find", "projects", err)
	}
	return projects, nil
}

// GetProjectBySlug returns nil, nil when the project is missing or unpublished.
func (s *ProjectService) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	project, err := s.reader.PublishedBySlug(ctx, slug)
	if err != nil {
		return nil, s.readError("find", "project", err)
	}
	return project, nil
}

// GetRelatedProjects returns recent published projects other than excludeID. limit
// falls back to DefaultRelatedLimit and is capped at MaxRelatedLimit.
func (s *ProjectService) GetRelatedProjects(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Project, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	if limit > MaxRelatedLimit {
		limit = MaxRelatedLimit
	}
	projects, err := s.reader.Related(ctx, excludeID, limit)
	if err != nil {
		return nil, s.readError("find", "related projects", err)
	}
	return projects, nil
}

// GetProjectCount counts every project row, whatever its status.
func (s *ProjectService) GetProjectCount(ctx context.Context) (int64, error) {
	count, err := s.projects.Count(ctx)
	if err != nil {
		return 0, errs.NewDatabaseError("count", "projects", err)
	}
	return count, nil
}

// GetProject returns one stored project. Unpublished projects are reported as missing
// unless includeUnpublished is set.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	if project == nil || (!includeUnpublished && !project.IsPublished()) {
		return nil, errs.NewNotFoundError("project not found")
	}
	return project, nil
}

// ListAllProjects returns every stored project for the admin list.
func (s *ProjectService) ListAllProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.projects.FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "projects", err)
	}
	return derefProjects(projects), nil
}

func (s *ProjectService) CreateProject(ctx context.Context, input ProjectInput, authorID *uuid.UUID) (*models.Project, error) {
	project := &models.Project{AuthorID: authorID, TechStack: datatypes.JSONSlice[string]{}}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(project.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}
	if project.Slug == "" {
		project.Slug = models.Slugify(project.Title)
	}
	if project.Slug == "" {
		return nil, errs.NewInvalidFieldError("slug", "slug must contain at least one letter or digit")
	}
	stampPublished(project, "")

	if err := s.projects.Add(ctx, project); err != nil {
		return nil, errs.NewDatabaseError("create", "project", err)
	}
	s.logger.Info().Str("projectId", project.ID.String()).Str("slug", project.Slug).Msg("created project")
	return s.GetProject(ctx, project.ID, true)
}

// UpdateProject applies input to the stored project. Last write wins.
func (s *ProjectService) UpdateProject(ctx context.Context, id uuid.UUID, input ProjectInput) (*models.Project, error) {
	project, err := s.GetProject(ctx, id, true)
	if err != nil {
		return nil, err
	}
	previous := project.Status

	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(project.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}
	if project.Slug == "" {
		project.Slug = models.Slugify(project.Title)
	}
	stampPublished(project, previous)

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, errs.NewDatabaseError("update", "project", err)
	}
	return s.GetProject(ctx, id, true)
}

// DeleteProject removes the row, its gallery rows, and then the uploaded objects.
// Object deletion failures are logged only.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	project, err := s.GetProject(ctx, id, true)
	if err != nil {
		return err
	}

	if err := s.gallery.ReplaceAll(ctx, id, nil); err != nil {
		return errs.NewDatabaseError("delete", "gallery", err)
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return errs.NewDatabaseError("delete", "project", err)
	}

	for _, item := range project.Gallery {
		s.deleteObject(ctx, item)
	}
	s.logger.Info().Str("projectId", id.String()).Msg("deleted project")
	return nil
}

func (s *ProjectService) readError(operation, entity string, err error) error {
	if _, ok := s.reader.(*DatabaseProjectReader); ok {
		return errs.NewDatabaseError(operation, entity, err)
	}
	return errs.NewUpstreamError("cms", err)
}

func applyProjectInput(project *models.Project, input ProjectInput) error {
	if input.Title != nil {
		project.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		project.Slug = models.Slugify(*input.Slug)
	}
	if input.Content != nil {
		if !json.Valid(input.Content) {
			return errs.NewInvalidFieldError("content", "content must be valid JSON")
		}
		project.Content = datatypes.JSON(input.Content)
	}
	if input.Summary != nil {
		project.Summary = *input.Summary
	}
	if input.Thumbnail != nil {
		project.Thumbnail = emptyToNil(*input.Thumbnail)
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return errs.NewInvalidFieldError("category", "category must be one of web, mobile, desktop, ui, branding, other")
		}
		project.Category = *input.Category
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return errs.NewInvalidFieldError("status", "status must be one of draft, published, archived")
		}
		project.Status = *input.Status
	}
	if input.Featured != nil {
		project.Featured = *input.Featured
	}
	if input.TechStack != nil {
		project.TechStack = datatypes.JSONSlice[string](input.TechStack)
	}
	if input.BackgroundVideoURL != nil {
		project.BackgroundVideoURL = emptyToNil(*input.BackgroundVideoURL)
	}
	if input.ProjectVideoURL != nil {
		project.ProjectVideoURL = emptyToNil(*input.ProjectVideoURL)
	}
	return nil
}

// stampPublished sets PublishedAt the first time a project becomes published.
func stampPublished(project *models.Project, previous models.ProjectStatus) {
	if project.Status == models.StatusPublished && previous != models.StatusPublished && project.PublishedAt == nil {
		now := time.Now().UTC()
		project.PublishedAt = &now
	}
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func derefProjects(projects []*models.Project) []models.Project {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, *p)
	}
	return out
}
