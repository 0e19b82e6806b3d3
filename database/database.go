package database

import (
	"context"

	"gorm.io/gorm"
)

// Scope is one set of repositories bound to a single database credential.
type Scope struct {
	db          *gorm.DB
	projectRepo *ProjectRepo
	galleryRepo *GalleryImageRepo
	contactRepo *ContactMessageRepo
	profileRepo *UserProfileRepo
}

func newScope(db *gorm.DB) Scope {
	return Scope{
		db:          db,
		projectRepo: NewProjectRepo(db),
		galleryRepo: NewGalleryImageRepo(db),
		contactRepo: NewContactMessageRepo(db),
		profileRepo: NewUserProfileRepo(db),
	}
}

// Accessor methods for each repository

func (s Scope) ProjectRepo() *ProjectRepo {
	return s.projectRepo
}

func (s Scope) GalleryImageRepo() *GalleryImageRepo {
	return s.galleryRepo
}

func (s Scope) ContactMessageRepo() *ContactMessageRepo {
	return s.contactRepo
}

func (s Scope) UserProfileRepo() *UserProfileRepo {
	return s.profileRepo
}

// Database holds the public scope, subject to row-level security, and the service
// scope, which connects with the elevated credential.
type Database struct {
	public  Scope
	service Scope
}

// New initializes a new Database from the two GORM connections. Pass the same
// handle twice when only one credential is available.
func New(public *gorm.DB, service *gorm.DB) Database {
	return Database{
		public:  newScope(public),
		service: newScope(service),
	}
}

func (d Database) Public() Scope {
	return d.public
}

func (d Database) Service() Scope {
	return d.service
}

// Ping checks both connections.
func (d Database) Ping(ctx context.Context) error {
	for _, db := range []*gorm.DB{d.public.db, d.service.db} {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}
