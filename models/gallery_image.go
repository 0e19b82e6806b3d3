package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type GalleryCategory string

const (
	GalleryCategoryGallery   GalleryCategory = "gallery"
	GalleryCategoryFeatured  GalleryCategory = "featured"
	GalleryCategoryTechnical GalleryCategory = "technical"
	GalleryCategoryProcess   GalleryCategory = "process"
)

func (c GalleryCategory) Valid() bool {
	switch c {
	case GalleryCategoryGallery, GalleryCategoryFeatured, GalleryCategoryTechnical, GalleryCategoryProcess:
		return true
	}
	return false
}

// GalleryImage is one media item of a project gallery. Path is the object key in
// media storage and is nil for externally linked media.
type GalleryImage struct {
	ID         uuid.UUID       `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID  uuid.UUID       `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_gallery_project_order,priority:1"`
	URL        string          `json:"url" db:"url" gorm:"type:text;not null"`
	Path       *string         `json:"path,omitempty" db:"path" gorm:"type:text"`
	Type       MediaType       `json:"type" db:"type" gorm:"type:text;not null;default:'image'"`
	Category   GalleryCategory `json:"category" db:"category" gorm:"type:text;not null;default:'gallery'"`
	IsFeatured bool            `json:"isFeatured" db:"is_featured" gorm:"not null;default:false"`
	Order      int             `json:"order" db:"sort_order" gorm:"column:sort_order;not null;default:0;index:idx_gallery_project_order,priority:2"`
	IsExternal bool            `json:"isExternal" db:"is_external" gorm:"not null;default:false"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

func (g *GalleryImage) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Type == "" {
		g.Type = MediaImage
	}
	if g.Category == "" {
		g.Category = GalleryCategoryGallery
	}
	return nil
}

// HasStoredObject reports whether removing the item must also delete a storage object.
func (g GalleryImage) HasStoredObject() bool {
	return g.Path != nil && *g.Path != "" && !g.IsExternal
}
