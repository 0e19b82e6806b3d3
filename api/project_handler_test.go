package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProject(t *testing.T, env *testEnv, token, title, status string) models.Project {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/projects", map[string]any{
		"title":      title,
		"status":     status,
		"category":   "web",
		"tech_stack": []string{"Go"},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Project](t, rec)
}

func TestProjectWritesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/projects", map[string]any{"title": "Nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/projects", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicProjectReads(t *testing.T) {
	env := newTestEnv(t)
	token, authorID := env.signIn(t, "editor@example.com", models.RoleEditor)

	published := createTestProject(t, env, token, "Live Site", "published")
	draft := createTestProject(t, env, token, "Secret Draft", "draft")
	assert.Equal(t, "live-site", published.Slug)
	require.NotNil(t, published.AuthorID)
	assert.Equal(t, authorID, *published.AuthorID)
	assert.NotNil(t, published.PublishedAt)

	rec := env.do(t, http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode[[]models.Project](t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, published.ID, projects[0].ID)

	rec = env.do(t, http.MethodGet, "/api/projects/slug/live-site", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects/slug/secret-draft", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects/slug/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects/"+draft.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects/"+draft.ID.String(), nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects/count", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[countResponse](t, rec).Count)

	rec = env.do(t, http.MethodGet, "/api/admin/projects", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Project](t, rec), 2)
}

func TestRelatedProjects(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)

	first := createTestProject(t, env, token, "One", "published")
	createTestProject(t, env, token, "Two", "published")
	createTestProject(t, env, token, "Three", "published")

	rec := env.do(t, http.MethodGet, "/api/projects/"+first.ID.String()+"/related?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	related := decode[[]models.Project](t, rec)
	require.Len(t, related, 1)
	assert.NotEqual(t, first.ID, related[0].ID)

	rec = env.do(t, http.MethodGet, "/api/projects/"+first.ID.String()+"/related?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)
	project := createTestProject(t, env, token, "Draft", "draft")

	rec := env.do(t, http.MethodPut, "/api/projects/"+project.ID.String(), map[string]any{
		"summary": "Now live",
		"status":  "published",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Project](t, rec)
	assert.Equal(t, "Now live", updated.Summary)
	assert.Equal(t, models.StatusPublished, updated.Status)

	rec = env.do(t, http.MethodPut, "/api/projects/"+project.ID.String(), map[string]any{"status": "hidden"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/projects/"+project.ID.String(), nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/projects/"+project.ID.String(), nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/projects/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGalleryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)
	project := createTestProject(t, env, token, "Gallery", "published")
	base := "/api/projects/" + project.ID.String() + "/gallery"

	body, contentType := multipartBody(t, map[string]string{"a.png": "aaa"})
	req := httptest.NewRequest(http.MethodPost, base, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	items := decode[[]models.GalleryImage](t, rec)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsFeatured)
	assert.Len(t, env.media.objects, 1)

	rec = env.do(t, http.MethodPost, base+"/external", map[string]string{
		"url":  "https://videos.example.com/demo.mp4",
		"type": "video",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	items = decode[[]models.GalleryImage](t, rec)
	require.Len(t, items, 2)
	assert.False(t, items[1].IsFeatured)

	rec = env.do(t, http.MethodPut, base+"/order", map[string]int{"from": 1, "to": 0}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items = decode[[]models.GalleryImage](t, rec)
	for i, item := range items {
		assert.Equal(t, i, item.Order)
	}
	assert.Equal(t, "https://videos.example.com/demo.mp4", items[0].URL)

	rec = env.do(t, http.MethodPut, base+"/order", map[string]int{"from": 0, "to": 9}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, base+"/"+items[0].ID.String()+"/featured", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items = decode[[]models.GalleryImage](t, rec)
	assert.True(t, items[0].IsFeatured)
	assert.False(t, items[1].IsFeatured)

	rec = env.do(t, http.MethodDelete, base+"/"+items[0].ID.String(), nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items = decode[[]models.GalleryImage](t, rec)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsFeatured)
	assert.Equal(t, 0, items[0].Order)

	rec = env.do(t, http.MethodGet, "/api/projects/slug/gallery", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[models.Project](t, rec)
	require.NotNil(t, stored.Thumbnail)
	assert.Equal(t, items[0].URL, *stored.Thumbnail)
}

func TestGalleryUploadRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)
	project := createTestProject(t, env, token, "Gallery", "draft")

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+project.ID.String()+"/gallery", nil)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
