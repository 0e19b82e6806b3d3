package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/gallery"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/storage"
	"golang.org/x/sync/errgroup"
)

// Upload is one file of a multipart gallery upload.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Category    models.GalleryCategory
	Open        func() (io.ReadCloser, error)
}

// ExternalMediaInput links media hosted elsewhere, such as a video page.
type ExternalMediaInput struct {
	URL      string
	Type     models.MediaType
	Category models.GalleryCategory
}

// UploadGalleryMedia stores the files concurrently and appends them to the gallery
// in the order given. Nothing is appended when any upload fails; objects that were
// already stored are removed again.
func (s *ProjectService) UploadGalleryMedia(ctx context.Context, projectID uuid.UUID, uploads []Upload) ([]models.GalleryImage, error) {
	if s.media == nil {
		return nil, errs.NewServiceUnavailableError("media storage")
	}
	if len(uploads) == 0 {
		return nil, errs.NewMissingRequiredFieldError("files")
	}
	project, err := s.GetProject(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	items := make([]models.GalleryImage, len(uploads))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.uploadPool)
	for i, upload := range uploads {
		i, upload := i, upload
		group.Go(func() error {
			item, err := s.uploadOne(groupCtx, projectID, upload)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		s.discardUploads(ctx, items)
		s.logger.Error().Err(err).Str("projectId", projectID.String()).Msg("gallery upload failed")
		return nil, errs.NewUpstreamError("media storage", err)
	}

	g := gallery.New(project.Gallery)
	g.Append(items...)
	if err := s.writeGallery(ctx, project, g); err != nil {
		s.discardUploads(ctx, items)
		return nil, err
	}
	return s.syncThumbnail(ctx, project, g)
}

// discardUploads removes objects stored for items that never reached the gallery.
func (s *ProjectService) discardUploads(ctx context.Context, items []models.GalleryImage) {
	for _, item := range items {
		if item.Path != nil {
			s.deleteObject(ctx, item)
		}
	}
}

func (s *ProjectService) uploadOne(ctx context.Context, projectID uuid.UUID, upload Upload) (models.GalleryImage, error) {
	body, err := upload.Open()
	if err != nil {
		return models.GalleryImage{}, err
	}
	defer body.Close()

	key := storage.ObjectKey(projectID, upload.Filename)
	url, err := s.media.Upload(ctx, key, upload.ContentType, body, upload.Size)
	if err != nil {
		return models.GalleryImage{}, err
	}

	mediaType := models.MediaImage
	if strings.HasPrefix(upload.ContentType, "video/") {
		mediaType = models.MediaVideo
	}
	category := upload.Category
	if !category.Valid() {
		category = models.GalleryCategoryGallery
	}
	return models.GalleryImage{
		ID:       uuid.New(),
		URL:      url,
		Path:     &key,
		Type:     mediaType,
		Category: category,
	}, nil
}

// AddExternalMedia appends a linked item that has no stored object.
func (s *ProjectService) AddExternalMedia(ctx context.Context, projectID uuid.UUID, input ExternalMediaInput) ([]models.GalleryImage, error) {
	project, err := s.GetProject(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	mediaType := input.Type
	if mediaType != models.MediaVideo {
		mediaType = models.MediaImage
	}
	category := input.Category
	if !category.Valid() {
		category = models.GalleryCategoryGallery
	}

	g := gallery.New(project.Gallery)
	g.Append(models.GalleryImage{
		ID:         uuid.New(),
		URL:        strings.TrimSpace(input.URL),
		Type:       mediaType,
		Category:   category,
		IsExternal: true,
	})
	return s.saveGallery(ctx, project, g)
}

// ReorderGallery moves the item at index from to index to.
func (s *ProjectService) ReorderGallery(ctx context.Context, projectID uuid.UUID, from, to int) ([]models.GalleryImage, error) {
	project, err := s.GetProject(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	g := gallery.New(project.Gallery)
	if err := g.Move(from, to); err != nil {
		return nil, errs.NewInvalidFieldError("order", err.Error())
	}
	return s.saveGallery(ctx, project, g)
}

// SetFeaturedImage makes one item the featured one; its URL becomes the thumbnail.
func (s *ProjectService) SetFeaturedImage(ctx context.Context, projectID, imageID uuid.UUID) ([]models.GalleryImage, error) {
	project, err := s.GetProject(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	g := gallery.New(project.Gallery)
	if _, err := g.SetFeatured(imageID); err != nil {
		return nil, galleryError(err)
	}
	return s.saveGallery(ctx, project, g)
}

// RemoveGalleryImage drops one item and deletes its stored object, if any.
func (s *ProjectService) RemoveGalleryImage(ctx context.Context, projectID, imageID uuid.UUID) ([]models.GalleryImage, error) {
	project, err := s.GetProject(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	g := gallery.New(project.Gallery)
	removed, err := g.Remove(imageID)
	if err != nil {
		return nil, galleryError(err)
	}

	items, err := s.saveGallery(ctx, project, g)
	if err != nil {
		return nil, err
	}
	s.deleteObject(ctx, removed)
	return items, nil
}

// saveGallery persists the gallery and keeps the thumbnail on the featured item.
func (s *ProjectService) saveGallery(ctx context.Context, project *models.Project, g *gallery.Gallery) ([]models.GalleryImage, error) {
	if err := s.writeGallery(ctx, project, g); err != nil {
		return nil, err
	}
	return s.syncThumbnail(ctx, project, g)
}

func (s *ProjectService) writeGallery(ctx context.Context, project *models.Project, g *gallery.Gallery) error {
	if err := s.gallery.ReplaceAll(ctx, project.ID, g.Items); err != nil {
		return errs.NewDatabaseError("update", "gallery", err)
	}
	return nil
}

func (s *ProjectService) syncThumbnail(ctx context.Context, project *models.Project, g *gallery.Gallery) ([]models.GalleryImage, error) {
	// A thumbnail set by hand stays unless it pointed at a gallery item.
	thumbnail := project.Thumbnail
	if featured, ok := g.Featured(); ok {
		url := featured.URL
		thumbnail = &url
	} else if thumbnail != nil && inGallery(project.Gallery, *thumbnail) {
		thumbnail = nil
	}
	if !sameString(project.Thumbnail, thumbnail) {
		if err := s.projects.SetThumbnail(ctx, project.ID, thumbnail); err != nil {
			return nil, errs.NewDatabaseError("update", "project thumbnail", err)
		}
	}
	return g.Items, nil
}

func (s *ProjectService) deleteObject(ctx context.Context, item models.GalleryImage) {
	if !item.HasStoredObject() || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, *item.Path); err != nil {
		s.logger.Warn().Err(err).Str("path", *item.Path).Msg("failed to delete media object")
	}
}

func galleryError(err error) error {
	if errors.Is(err, gallery.ErrItemNotFound) {
		return errs.NewNotFoundError("gallery item not found")
	}
	return errs.NewBadRequestError(err.Error())
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func inGallery(items []models.GalleryImage, url string) bool {
	for _, item := range items {
		if item.URL == url {
			return true
		}
	}
	return false
}
