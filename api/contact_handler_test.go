package api

import (
	"net/http"
	"testing"

	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitContactRejectsInvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Jane",
		"email":   "no-at-sign.com",
		"message": "Hello",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "email", body.Field)

	var count int64
	require.NoError(t, env.db.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitContactMissingField(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":  "Jane",
		"email": "jane@example.com",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "message", decode[ErrorResponse](t, rec).Field)
}

func TestSubmitContactRejectsBlankFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "   ",
		"email":   "jane@example.com",
		"message": "Hello",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decode[ErrorResponse](t, rec).Field)

	rec = env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Jane",
		"email":   "jane@example.com",
		"message": "\n\t ",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "message", decode[ErrorResponse](t, rec).Field)

	var count int64
	require.NoError(t, env.db.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestContactInboxFlow(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)

	rec := env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    " Jane ",
		"email":   "jane@example.com",
		"subject": "Hi",
		"message": "Hello there",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	message := decode[models.ContactMessage](t, rec)
	assert.Equal(t, "Jane", message.Name)
	assert.False(t, message.Read)

	rec = env.do(t, http.MethodGet, "/api/contact/unread", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/contact/unread", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[countResponse](t, rec).Count)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/api/contact/messages/"+message.ID.String()+"/read", nil, token)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/contact/messages", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode[[]models.ContactMessage](t, rec)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Read)

	rec = env.do(t, http.MethodGet, "/api/contact/unread", nil, token)
	assert.Equal(t, int64(0), decode[countResponse](t, rec).Count)
}

func TestMarkReadUnknownMessage(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)

	rec := env.do(t, http.MethodPost, "/api/contact/messages/00000000-0000-0000-0000-000000000001/read", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/contact/messages/not-a-uuid/read", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signIn(t, "editor@example.com", models.RoleEditor)

	for _, name := range []string{"A", "B"} {
		rec := env.do(t, http.MethodPost, "/api/contact", map[string]string{
			"name": name, "email": "x@example.com", "message": "hi",
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/contact/messages/read-all", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[countResponse](t, rec).Count)
}
