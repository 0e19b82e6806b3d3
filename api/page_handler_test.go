package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminPagesRedirectAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/admin/messages", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/admin/messages"), rec.Header().Get("Location"))
}

func TestViewerIsRedirectedFromUserList(t *testing.T) {
	env := newTestEnv(t)
	viewer, _ := env.signIn(t, "viewer@example.com", models.RoleViewer)

	rec := env.do(t, http.MethodGet, "/admin/users", nil, viewer)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "viewer@example.com")

	rec = env.do(t, http.MethodGet, "/admin", nil, viewer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `href="/admin/users"`)
}

func TestAdminSeesUserList(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.signIn(t, "admin@example.com", models.RoleAdmin)

	rec := env.do(t, http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin@example.com")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestLoginFormSetsCookies(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "editor@example.com", models.RoleEditor)

	form := url.Values{"email": {"editor@example.com"}, "password": {"secret-password"}, "next": {"/admin/projects"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/projects", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	names := make(map[string]*http.Cookie)
	for _, c := range cookies {
		names[c.Name] = c
	}
	require.Contains(t, names, identity.AccessTokenCookie)
	require.Contains(t, names, identity.RefreshTokenCookie)
	assert.True(t, names[identity.AccessTokenCookie].HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/admin/projects", nil)
	req.AddCookie(names[identity.AccessTokenCookie])
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginFormRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "editor@example.com", models.RoleEditor)

	form := url.Values{"email": {"editor@example.com"}, "password": {"wrong"}, "next": {"//evil.example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Contains(t, rec.Body.String(), `value="/admin"`)
}

func TestExpiredCookieSessionIsRefreshed(t *testing.T) {
	env := newTestEnv(t)
	_, userID := env.signIn(t, "editor@example.com", models.RoleEditor)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(&http.Cookie{Name: identity.AccessTokenCookie, Value: "expired"})
	req.AddCookie(&http.Cookie{Name: identity.RefreshTokenCookie, Value: "refresh-" + userID.String()})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	check := decode[authCheckResponse](t, rec)
	assert.True(t, check.Authenticated)
	require.NotNil(t, check.User)
	assert.Equal(t, models.RoleEditor, check.User.Role)
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/admin", safeNext(""))
	assert.Equal(t, "/admin", safeNext("https://evil.example.com"))
	assert.Equal(t, "/admin", safeNext("//evil.example.com"))
	assert.Equal(t, "/admin/messages", safeNext("/admin/messages"))
}
