package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret"

type testEnv struct {
	router   http.Handler
	db       *gorm.DB
	provider *fakeProvider
	verifier identity.SessionVerifier
	media    *fakeMediaStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))

	store := database.New(db, db)
	verifier := identity.NewSessionVerifier(testJWTSecret)
	provider := &fakeProvider{verifier: verifier, users: map[uuid.UUID]identity.Identity{}, passwords: map[string]string{}}
	media := &fakeMediaStore{objects: map[string]string{}}

	projects := services.NewProjectService(store, services.NewDatabaseProjectReader(store), media)
	contact := services.NewContactService(store, nil, "")
	deps := Dependencies{
		Settings: config.Settings{Server: config.ServerSettings{AcceptedOrigins: []string{"https://example.com"}}},
		Database: store,
		Verifier: verifier,
		Auth:     services.NewAuthService(provider, store),
		Contact:  contact,
		Projects: projects,
		Badge:    services.NewUnreadBadge(contact, time.Minute),
	}

	return &testEnv{
		router:   newRouter(deps, withoutAccessLog()),
		db:       db,
		provider: provider,
		verifier: verifier,
		media:    media,
	}
}

// signIn registers a user with a profile row and returns a bearer token for it.
func (e *testEnv) signIn(t *testing.T, email string, role models.Role) (string, uuid.UUID) {
	t.Helper()
	ident := e.provider.add(email, "secret-password")
	require.NoError(t, e.db.Create(&models.UserProfile{ID: ident.ID, Email: email, Role: role, DisplayName: models.EmailLocalPart(email)}).Error)

	token, err := e.verifier.Sign(ident.ID, email, time.Hour)
	require.NoError(t, err)
	return token, ident.ID
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type fakeProvider struct {
	mu        sync.Mutex
	verifier  identity.SessionVerifier
	users     map[uuid.UUID]identity.Identity
	passwords map[string]string
}

func (p *fakeProvider) add(email, password string) identity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := identity.Identity{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	p.users[user.ID] = user
	p.passwords[email] = password
	return user
}

func (p *fakeProvider) session(user identity.Identity) (identity.Session, error) {
	token, err := p.verifier.Sign(user.ID, user.Email, time.Hour)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{AccessToken: token, RefreshToken: "refresh-" + user.ID.String(), ExpiresIn: time.Hour, Identity: user}, nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, user := range p.users {
		if user.Email == email && p.passwords[email] == password {
			return p.session(user)
		}
	}
	return identity.Session{}, errors.New("invalid login credentials")
}

func (p *fakeProvider) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, err := uuid.Parse(strings.TrimPrefix(refreshToken, "refresh-"))
	if err != nil {
		return identity.Session{}, errors.New("refresh token not found")
	}
	user, ok := p.users[id]
	if !ok {
		return identity.Session{}, errors.New("refresh token not found")
	}
	return p.session(user)
}

func (p *fakeProvider) ListUsers(ctx context.Context) ([]identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]identity.Identity, 0, len(p.users))
	for _, user := range p.users {
		out = append(out, user)
	}
	return out, nil
}

func (p *fakeProvider) CreateUser(ctx context.Context, input identity.NewIdentity) (identity.Identity, error) {
	return p.add(input.Email, input.Password), nil
}

func (p *fakeProvider) DeleteUser(ctx context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[id]; !ok {
		return identity.ErrUserNotFound
	}
	delete(p.users, id)
	return nil
}

type fakeMediaStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *fakeMediaStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = string(data)
	return "https://cdn.example.com/" + key, nil
}

func (m *fakeMediaStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}
