package cms

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
	"gorm.io/datatypes"
)

// projectFields flattens a project document into the shape of document below.
const projectFields = `{
  _id,
  _createdAt,
  _updatedAt,
  title,
  "slug": slug.current,
  summary,
  content,
  "thumbnail": coalesce(thumbnail.asset->url, mainImage.asset->url),
  category,
  status,
  featured,
  techStack,
  backgroundVideoUrl,
  projectVideoUrl,
  publishedAt,
  "gallery": gallery[]{
    _key,
    "url": coalesce(asset->url, url),
    "path": asset->path,
    type,
    category,
    isFeatured,
    isExternal
  }
}`

// documentFilter matches project documents with a slug. Unsaved studio edits
// live under drafts.<id> and never count as projects.
const documentFilter = `_type == "project" && defined(slug.current) && !(_id in path("drafts.**"))`

const publishedFilter = documentFilter + ` && (!defined(status) || status == "published")`

const (
	queryAllPublished    = `*[` + publishedFilter + `] | order(coalesce(publishedAt, _createdAt) desc) ` + projectFields
	queryAll             = `*[` + documentFilter + `] | order(_createdAt desc) ` + projectFields
	queryPublishedBySlug = `*[` + publishedFilter + ` && slug.current == $slug][0] ` + projectFields
	queryRelated         = `*[` + publishedFilter + `] | order(coalesce(publishedAt, _createdAt) desc)[0...$limit] ` + projectFields
)

type galleryItem struct {
	Key        string `json:"_key"`
	URL        string `json:"url"`
	Path       string `json:"path"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	IsFeatured bool   `json:"isFeatured"`
	IsExternal bool   `json:"isExternal"`
}

type document struct {
	ID                 string          `json:"_id"`
	CreatedAt          time.Time       `json:"_createdAt"`
	UpdatedAt          time.Time       `json:"_updatedAt"`
	Title              string          `json:"title"`
	Slug               string          `json:"slug"`
	Summary            string          `json:"summary"`
	Content            json.RawMessage `json:"content"`
	Thumbnail          string          `json:"thumbnail"`
	Category           string          `json:"category"`
	Status             string          `json:"status"`
	Featured           bool            `json:"featured"`
	TechStack          []string        `json:"techStack"`
	BackgroundVideoURL string          `json:"backgroundVideoUrl"`
	ProjectVideoURL    string          `json:"projectVideoUrl"`
	PublishedAt        *time.Time      `json:"publishedAt"`
	Gallery            []galleryItem   `json:"gallery"`
}

// ProjectReader serves published projects straight from the CMS.
type ProjectReader struct {
	client *Client
}

func NewProjectReader(client *Client) *ProjectReader {
	return &ProjectReader{client: client}
}

func (r *ProjectReader) AllPublished(ctx context.Context) ([]models.Project, error) {
	var docs []document
	if err := r.client.Query(ctx, queryAllPublished, nil, &docs); err != nil {
		return nil, err
	}
	return toProjects(docs), nil
}

// All returns every project document with a slug, whatever its status. Used by the import.
func (r *ProjectReader) All(ctx context.Context) ([]models.Project, error) {
	var docs []document
	if err := r.client.Query(ctx, queryAll, nil, &docs); err != nil {
		return nil, err
	}
	return toProjects(docs), nil
}

// PublishedBySlug returns nil without an error when no published document has the slug.
func (r *ProjectReader) PublishedBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var doc *document
	if err := r.client.Query(ctx, queryPublishedBySlug, map[string]interface{}{"slug": slug}, &doc); err != nil {
		return nil, err
	}
	if doc == nil || doc.isDraft() {
		return nil, nil
	}
	project := doc.toProject()
	return &project, nil
}

// Related returns up to limit published projects other than the one with id.
// Document ids are not always uuids, so the exclusion happens after mapping.
func (r *ProjectReader) Related(ctx context.Context, id uuid.UUID, limit int) ([]models.Project, error) {
	var docs []document
	params := map[string]interface{}{"limit": limit + 1}
	if err := r.client.Query(ctx, queryRelated, params, &docs); err != nil {
		return nil, err
	}

	related := make([]models.Project, 0, limit)
	for _, project := range toProjects(docs) {
		if project.ID == id || len(related) == limit {
			continue
		}
		related = append(related, project)
	}
	return related, nil
}

const draftPrefix = "drafts."

// ProjectID maps a CMS document id onto a stable uuid. Documents whose id already
// is a uuid keep it; others get a name-based uuid.
func ProjectID(documentID string) uuid.UUID {
	trimmed := strings.TrimPrefix(documentID, draftPrefix)
	if id, err := uuid.Parse(trimmed); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("cms:"+trimmed))
}

func toProjects(docs []document) []models.Project {
	projects := make([]models.Project, 0, len(docs))
	for _, doc := range docs {
		if doc.isDraft() {
			continue
		}
		projects = append(projects, doc.toProject())
	}
	return projects
}

// isDraft reports whether the document is an unsaved studio edit of another one.
func (d document) isDraft() bool {
	return strings.HasPrefix(d.ID, draftPrefix)
}

func (d document) toProject() models.Project {
	project := models.Project{
		ID:                 ProjectID(d.ID),
		Title:              d.Title,
		Slug:               d.Slug,
		Summary:            d.Summary,
		Category:           models.ProjectCategory(d.Category),
		Status:             models.ProjectStatus(d.Status),
		Featured:           d.Featured,
		TechStack:          datatypes.JSONSlice[string](d.TechStack),
		BackgroundVideoURL: optional(d.BackgroundVideoURL),
		ProjectVideoURL:    optional(d.ProjectVideoURL),
		Thumbnail:          optional(d.Thumbnail),
		PublishedAt:        d.PublishedAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if !project.Category.Valid() {
		project.Category = models.CategoryOther
	}
	if !project.Status.Valid() {
		project.Status = models.StatusPublished
		if d.isDraft() {
			project.Status = models.StatusDraft
		}
	}
	if project.TechStack == nil {
		project.TechStack = datatypes.JSONSlice[string]{}
	}
	if len(d.Content) > 0 && string(d.Content) != "null" {
		project.Content = datatypes.JSON(d.Content)
	}

	for i, item := range d.Gallery {
		image := models.GalleryImage{
			ID:         uuid.NewSHA1(project.ID, []byte(item.Key)),
			ProjectID:  project.ID,
			URL:        item.URL,
			Path:       optional(item.Path),
			Type:       models.MediaType(item.Type),
			Category:   models.GalleryCategory(item.Category),
			IsFeatured: item.IsFeatured,
			Order:      i,
			IsExternal: item.IsExternal,
		}
		if image.Type != models.MediaVideo {
			image.Type = models.MediaImage
		}
		if !image.Category.Valid() {
			image.Category = models.GalleryCategoryGallery
		}
		project.Gallery = append(project.Gallery, image)
	}
	return project
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
