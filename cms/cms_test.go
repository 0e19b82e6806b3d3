package cms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectsPayload = `{"ms": 3, "result": [
  {
    "_id": "11111111-1111-1111-1111-111111111111",
    "_createdAt": "2024-05-01T10:00:00Z",
    "title": "Studio Site",
    "slug": "studio-site",
    "summary": "A site",
    "content": [{"_type": "block", "children": [{"_type": "span", "text": "Hello"}]}],
    "thumbnail": "https://cdn.sanity.io/a.png",
    "category": "web",
    "featured": true,
    "techStack": ["go", "react"],
    "gallery": [
      {"_key": "k1", "url": "https://cdn.sanity.io/a.png", "isFeatured": true},
      {"_key": "k2", "url": "https://youtu.be/x", "type": "video", "category": "process", "isExternal": true}
    ]
  },
  {
    "_id": "legacy-doc",
    "_createdAt": "2024-04-01T10:00:00Z",
    "title": "Legacy",
    "slug": "legacy",
    "category": "games"
  }
]}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{
		ProjectID:  "abc123",
		Dataset:    "production",
		APIVersion: "2023-05-03",
		Token:      "secret",
		CacheTTL:   time.Minute,
		BaseURL:    server.URL,
	})
}

func TestAllPublishedMapsDocuments(t *testing.T) {
	var calls int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v2023-05-03/data/query/production", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("query"), `_type == "project"`)
		_, _ = w.Write([]byte(projectsPayload))
	})
	reader := NewProjectReader(client)

	projects, err := reader.AllPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	first := projects[0]
	assert.Equal(t, uuid.MustParse("11111111-1111-1111-1111-111111111111"), first.ID)
	assert.Equal(t, "studio-site", first.Slug)
	assert.Equal(t, models.CategoryWeb, first.Category)
	assert.Equal(t, models.StatusPublished, first.Status)
	assert.Equal(t, []string{"go", "react"}, []string(first.TechStack))
	assert.Contains(t, string(first.Content), "Hello")
	require.Len(t, first.Gallery, 2)
	assert.True(t, first.Gallery[0].IsFeatured)
	assert.Equal(t, 1, first.Gallery[1].Order)
	assert.Equal(t, models.MediaVideo, first.Gallery[1].Type)
	assert.Equal(t, models.GalleryCategoryProcess, first.Gallery[1].Category)

	legacy := projects[1]
	assert.Equal(t, ProjectID("legacy-doc"), legacy.ID)
	assert.Equal(t, models.CategoryOther, legacy.Category)

	// Second call is served from the cache.
	_, err = reader.AllPublished(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestPublishedBySlugNull(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"missing"`, r.URL.Query().Get("$slug"))
		_, _ = w.Write([]byte(`{"ms": 1, "result": null}`))
	})

	project, err := NewProjectReader(client).PublishedBySlug(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, project)
}

func TestRelatedExcludesProject(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("$limit"))
		_, _ = w.Write([]byte(projectsPayload))
	})

	related, err := NewProjectReader(client).Related(context.Background(), uuid.MustParse("11111111-1111-1111-1111-111111111111"), 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "legacy", related[0].Slug)
}

func TestQueryErrorStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"description": "param $slug referenced, but not provided", "type": "queryParseError"}}`))
	})

	_, err := NewProjectReader(client).AllPublished(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "param $slug referenced"))
}

func TestProjectIDStable(t *testing.T) {
	assert.Equal(t, ProjectID("legacy-doc"), ProjectID("drafts.legacy-doc"))
	assert.NotEqual(t, ProjectID("a"), ProjectID("b"))
}

func TestStudioDraftsNeverListed(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "published", r.URL.Query().Get("perspective"))
		assert.Contains(t, r.URL.Query().Get("query"), `!(_id in path("drafts.**"))`)
		_, _ = w.Write([]byte(`{"ms": 2, "result": [
  {"_id": "studio", "_createdAt": "2024-05-01T10:00:00Z", "title": "Studio", "slug": "studio", "status": "published"},
  {"_id": "drafts.studio", "_createdAt": "2024-05-02T10:00:00Z", "title": "Studio WIP", "slug": "studio"}
]}`))
	})
	reader := NewProjectReader(client)

	projects, err := reader.AllPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Studio", projects[0].Title)

	all, err := reader.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Studio", all[0].Title)
}

func TestPublishedBySlugIgnoresDraftDocument(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ms": 1, "result": {"_id": "drafts.studio", "title": "Studio WIP", "slug": "studio"}}`))
	})

	project, err := NewProjectReader(client).PublishedBySlug(context.Background(), "studio")
	require.NoError(t, err)
	assert.Nil(t, project)
}

func TestDraftDocumentWithoutStatusIsDraft(t *testing.T) {
	project := document{ID: "drafts.studio", Title: "Studio WIP", Slug: "studio"}.toProject()

	assert.Equal(t, models.StatusDraft, project.Status)
	assert.False(t, project.IsPublished())
}
