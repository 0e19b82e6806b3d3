package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectCategory classifies a portfolio project.
type ProjectCategory string

const (
	CategoryWeb      ProjectCategory = "web"
	CategoryMobile   ProjectCategory = "mobile"
	CategoryDesktop  ProjectCategory = "desktop"
	CategoryUI       ProjectCategory = "ui"
	CategoryBranding ProjectCategory = "branding"
	CategoryOther    ProjectCategory = "other"
)

func (c ProjectCategory) Valid() bool {
	switch c {
	case CategoryWeb, CategoryMobile, CategoryDesktop, CategoryUI, CategoryBranding, CategoryOther:
		return true
	}
	return false
}

// ProjectStatus is the publication state of a project.
type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "draft"
	StatusPublished ProjectStatus = "published"
	StatusArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Project is a portfolio entry. Content holds portable-text blocks as JSON so the
// same row shape serves both the relational store and projects imported from the CMS.
type Project struct {
	ID                 uuid.UUID                   `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title              string                      `json:"title" db:"title" gorm:"type:text;not null"`
	Slug               string                      `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex"`
	Content            datatypes.JSON              `json:"content,omitempty" db:"content"`
	Summary            string                      `json:"summary" db:"summary" gorm:"type:text;not null;default:''"`
	Thumbnail          *string                     `json:"thumbnail,omitempty" db:"thumbnail" gorm:"type:text"`
	Category           ProjectCategory             `json:"category" db:"category" gorm:"type:text;not null;default:'other'"`
	Status             ProjectStatus               `json:"status" db:"status" gorm:"type:text;not null;default:'draft';index"`
	Featured           bool                        `json:"featured" db:"featured" gorm:"not null;default:false"`
	TechStack          datatypes.JSONSlice[string] `json:"tech_stack" db:"tech_stack"`
	BackgroundVideoURL *string                     `json:"background_video_url,omitempty" db:"background_video_url" gorm:"type:text"`
	ProjectVideoURL    *string                     `json:"project_video_url,omitempty" db:"project_video_url" gorm:"type:text"`
	AuthorID           *uuid.UUID                  `json:"author_id,omitempty" db:"author_id" gorm:"type:uuid;index"`
	PublishedAt        *time.Time                  `json:"published_at,omitempty" db:"published_at"`
	CreatedAt          time.Time                   `json:"created_at" db:"created_at" gorm:"index"`
	UpdatedAt          time.Time                   `json:"updated_at" db:"updated_at"`

	Author  *UserProfile   `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID"`
	Gallery []GalleryImage `json:"gallery,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

// IsPublished reports whether the project may appear in public listings.
func (p *Project) IsPublished() bool {
	return p.Status == StatusPublished
}

// Slugify lowercases s and keeps ASCII letters and digits, joining runs of anything
// else with a single dash.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
