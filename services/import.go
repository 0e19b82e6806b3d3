package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
	"golang.org/x/sync/errgroup"
)

// ProjectSource lists every project of the migration source.
type ProjectSource interface {
	All(ctx context.Context) ([]models.Project, error)
}

// ImportReport summarises an import run.
type ImportReport struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
}

// ImportFromCMS copies every source project into the relational store, matching
// rows by slug and replacing their galleries. The run stops at the first failure.
func (s *ProjectService) ImportFromCMS(ctx context.Context, source ProjectSource) (ImportReport, error) {
	projects, err := source.All(ctx)
	if err != nil {
		return ImportReport{}, errs.NewUpstreamError("cms", err)
	}

	var imported atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.uploadPool)
	for i := range projects {
		project := projects[i]
		group.Go(func() error {
			if err := s.importOne(groupCtx, project); err != nil {
				s.logger.Error().Err(err).Str("slug", project.Slug).Msg("failed to import project")
				return err
			}
			imported.Add(1)
			return nil
		})
	}

	report := ImportReport{Total: len(projects)}
	err = group.Wait()
	report.Imported = int(imported.Load())
	s.logger.Info().Int("total", report.Total).Int("imported", report.Imported).Msg("cms import finished")
	return report, err
}

func (s *ProjectService) importOne(ctx context.Context, project models.Project) error {
	sourceID := project.ID
	items := project.Gallery
	project.Gallery = nil
	project.Author = nil
	if project.Slug == "" {
		project.Slug = models.Slugify(project.Title)
	}

	if err := s.projects.UpsertBySlug(ctx, &project); err != nil {
		return errs.NewDatabaseError("upsert", "project", err)
	}

	now := time.Now().UTC()
	gallery := make([]models.GalleryImage, len(items))
	for i, item := range items {
		item.ID = uuid.NewSHA1(project.ID, []byte(sourceID.String()+item.ID.String()))
		item.ProjectID = project.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		gallery[i] = item
	}
	if err := s.gallery.ReplaceAll(ctx, project.ID, gallery); err != nil {
		return errs.NewDatabaseError("update", "gallery", err)
	}
	return nil
}
