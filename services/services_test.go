package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) (database.Database, *gorm.DB) {
	t.Helper()
	db := openMigratedDB(t)
	return database.New(db, db), db
}

// openSplitTestDatabase gives the public and service roles separate databases.
func openSplitTestDatabase(t *testing.T) (database.Database, *gorm.DB, *gorm.DB) {
	t.Helper()
	public := openMigratedDB(t)
	service := openMigratedDB(t)
	return database.New(public, service), public, service
}

func openMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

type fakeProvider struct {
	mu        sync.Mutex
	users     map[uuid.UUID]identity.Identity
	passwords map[string]string
	listErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{users: map[uuid.UUID]identity.Identity{}, passwords: map[string]string{}}
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passwords[email] != password || password == "" {
		return identity.Session{}, errors.New("invalid login credentials")
	}
	for _, user := range p.users {
		if user.Email == email {
			return identity.Session{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: time.Hour, Identity: user}, nil
		}
	}
	return identity.Session{}, errors.New("invalid login credentials")
}

func (p *fakeProvider) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	return identity.Session{}, errors.New("refresh token not found")
}

func (p *fakeProvider) ListUsers(ctx context.Context) ([]identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listErr != nil {
		return nil, p.listErr
	}
	out := make([]identity.Identity, 0, len(p.users))
	for _, user := range p.users {
		out = append(out, user)
	}
	return out, nil
}

func (p *fakeProvider) CreateUser(ctx context.Context, input identity.NewIdentity) (identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := identity.Identity{ID: uuid.New(), Email: input.Email, CreatedAt: time.Now()}
	p.users[user.ID] = user
	p.passwords[input.Email] = input.Password
	return user, nil
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

// addUser registers an identity without a profile row.
func (p *fakeProvider) addUser(email string) identity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := identity.Identity{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	p.users[user.ID] = user
	return user
}

type fakeMediaStore struct {
	mu       sync.Mutex
	objects  map[string]string
	deleted  []string
	failKeys string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: map[string]string{}}
}

func (m *fakeMediaStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if m.failKeys != "" && strings.Contains(string(data), m.failKeys) {
		return "", errors.New("bucket unavailable")
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
	m.deleted = append(m.deleted, key)
	return nil
}

type fakeMailer struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (m *fakeMailer) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return m.err
}

func textUpload(name, contentType, content string) Upload {
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
