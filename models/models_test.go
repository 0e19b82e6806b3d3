package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	testCases := map[string]string{
		"Portfolio Site":         "portfolio-site",
		"  Hello,   World!  ":    "hello-world",
		"React + Three.js Scene": "react-three-js-scene",
		"Café Menu":              "caf-menu",
		"---":                    "",
		"v2 API":                 "v2-api",
	}

	for input, expected := range testCases {
		assert.Equal(t, expected, Slugify(input), input)
	}
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, CategoryBranding.Valid())
	assert.False(t, ProjectCategory("games").Valid())
	assert.True(t, StatusArchived.Valid())
	assert.False(t, ProjectStatus("hidden").Valid())
	assert.True(t, RoleEditor.Valid())
	assert.False(t, Role("owner").Valid())
	assert.True(t, GalleryCategoryProcess.Valid())
	assert.False(t, GalleryCategory("misc").Valid())
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "jane", EmailLocalPart("jane@example.com"))
	assert.Equal(t, "no-at-sign.com", EmailLocalPart("no-at-sign.com"))
}

func TestGalleryImageHasStoredObject(t *testing.T) {
	path := "projects/a/b.png"
	empty := ""

	assert.True(t, GalleryImage{Path: &path}.HasStoredObject())
	assert.False(t, GalleryImage{Path: &path, IsExternal: true}.HasStoredObject())
	assert.False(t, GalleryImage{Path: &empty}.HasStoredObject())
	assert.False(t, GalleryImage{}.HasStoredObject())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrateAndCreateDefaults(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	project := Project{Title: "My New Site"}
	require.NoError(t, db.Create(&project).Error)

	assert.NotEqual(t, uuid.Nil, project.ID)
	assert.Equal(t, "my-new-site", project.Slug)
	assert.Equal(t, StatusDraft, project.Status)
	assert.Equal(t, CategoryOther, project.Category)
	assert.False(t, project.IsPublished())

	image := GalleryImage{ProjectID: project.ID, URL: "https://cdn/x.png"}
	require.NoError(t, db.Create(&image).Error)
	assert.Equal(t, MediaImage, image.Type)
	assert.Equal(t, GalleryCategoryGallery, image.Category)
}

func TestColumnMismatchReport(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Exec("ALTER TABLE contact_messages ADD COLUMN phone text").Error)

	report, err := ColumnMismatchReport(db)
	require.NoError(t, err)

	assert.Equal(t, []string{"phone"}, report["contact_messages"])
	assert.Empty(t, report["projects"])
	assert.Empty(t, report["user_profiles"])
}
