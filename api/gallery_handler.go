package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 64 << 20

var allowedMediaTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml", "video/mp4", "video/webm"}

type galleryHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  *services.ProjectService
}

func newGalleryHandler(projects *services.ProjectService) galleryHandler {
	logger := log.With().Str("handlerName", "galleryHandler").Logger()

	return galleryHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
	}
}

// uploadMedia uploads the files of a multipart form and appends them to the gallery
// @Summary Upload gallery media
// @Tags Gallery
// @Accept multipart/form-data
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param files formData file true "One or more files"
// @Param category formData string false "Gallery category"
// @Success 201 {array} models.GalleryImage "The whole gallery after the upload"
// @Failure 413 {object} ErrorResponse "Request Entity Too Large"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type"
// @Router /api/projects/{projectID}/gallery [post]
func (h galleryHandler) uploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			h.logger.Warn().Err(err).Msg("failed to parse multipart form")
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxUploadBytes))
			case errors.Is(err, http.ErrNotMultipart):
				h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(r.Header.Get("Content-Type"), []string{"multipart/form-data"}))
			default:
				h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			}
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			files = r.MultipartForm.File["file"]
		}
		if len(files) == 0 {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("files"))
			return
		}

		category := models.GalleryCategory(r.FormValue("category"))
		uploads := make([]services.Upload, 0, len(files))
		for _, header := range files {
			contentType := header.Header.Get("Content-Type")
			if !isAllowedMediaType(contentType) {
				h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(contentType, allowedMediaTypes))
				return
			}
			uploads = append(uploads, services.Upload{
				Filename:    header.Filename,
				ContentType: contentType,
				Size:        header.Size,
				Category:    category,
				Open:        openPart(header),
			})
		}

		items, err := h.projects.UploadGalleryMedia(r.Context(), projectID, uploads)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, items)
	}
}

// addExternalMedia links media hosted elsewhere
// @Summary Add external gallery media
// @Tags Gallery
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param media body externalMediaRequest true "Linked media"
// @Success 201 {array} models.GalleryImage
// @Router /api/projects/{projectID}/gallery/external [post]
func (h galleryHandler) addExternalMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req externalMediaRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		items, err := h.projects.AddExternalMedia(r.Context(), projectID, services.ExternalMediaInput{
			URL:      req.URL,
			Type:     models.MediaType(req.Type),
			Category: models.GalleryCategory(req.Category),
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, items)
	}
}

// reorder moves one item to a new position
// @Summary Reorder gallery
// @Tags Gallery
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param move body reorderRequest true "Source and target index"
// @Success 200 {array} models.GalleryImage
// @Router /api/projects/{projectID}/gallery/order [put]
func (h galleryHandler) reorder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		items, err := h.projects.ReorderGallery(r.Context(), projectID, *req.From, *req.To)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, items)
	}
}

// setFeatured makes one item the featured image and the project thumbnail
// @Summary Set featured image
// @Tags Gallery
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param imageID path string true "Gallery item ID" format(uuid)
// @Success 200 {array} models.GalleryImage
// @Router /api/projects/{projectID}/gallery/{imageID}/featured [put]
func (h galleryHandler) setFeatured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, imageID, err := galleryParams(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		items, err := h.projects.SetFeaturedImage(r.Context(), projectID, imageID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, items)
	}
}

// removeImage removes one item and its stored object
// @Summary Remove gallery item
// @Tags Gallery
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param imageID path string true "Gallery item ID" format(uuid)
// @Success 200 {array} models.GalleryImage
// @Router /api/projects/{projectID}/gallery/{imageID} [delete]
func (h galleryHandler) removeImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, imageID, err := galleryParams(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		items, err := h.projects.RemoveGalleryImage(r.Context(), projectID, imageID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, items)
	}
}

func galleryParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	projectID, err := projectIDParam(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	imageID, err := uuid.Parse(chi.URLParam(r, "imageID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errs.NewBadRequestError("invalid imageID")
	}
	return projectID, imageID, nil
}

func openPart(header *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return header.Open()
	}
}

func isAllowedMediaType(contentType string) bool {
	for _, allowed := range allowedMediaTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}
