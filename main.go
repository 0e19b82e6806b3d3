package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-site-backend/api"
	"github.com/rpupo63/portfolio-site-backend/cms"
	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rpupo63/portfolio-site-backend/storage"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	ctx := context.Background()
	if err := config.OverlayFromSSM(ctx, c); err != nil {
		fmt.Printf("Error loading parameters from SSM: %v\n", err)
		os.Exit(1)
	}
	settings := config.Load(c)
	setupLogging(settings)

	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	publicDB, serviceDB, err := openDatabases(settings.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(serviceDB, config.GetString(c, "GENERATE_MODELS_PATH", "./query")); err != nil {
			log.Fatal().Err(err).Msg("model generation failed")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		log.Info().Msg("Generating column mismatch report...")
		report, err := models.ColumnMismatchReport(serviceDB)
		if err != nil {
			log.Fatal().Err(err).Msg("column report failed")
		}
		models.LogColumnMismatchReport(report)
		return
	}

	store := database.New(publicDB, serviceDB)

	var cmsReader *cms.ProjectReader
	if settings.CMS.Enabled() {
		cmsReader = cms.NewProjectReader(cms.NewClient(cms.Options{
			ProjectID:  settings.CMS.ProjectID,
			Dataset:    settings.CMS.Dataset,
			APIVersion: settings.CMS.APIVersion,
			Token:      settings.CMS.Token,
			CacheTTL:   settings.CMS.CacheTTL,
		}))
	}

	var media services.MediaStore
	if settings.Storage.Enabled() {
		s3Store, err := storage.NewS3MediaStore(ctx, storage.Options{
			Endpoint:      settings.Storage.Endpoint,
			Region:        settings.Storage.Region,
			AccessKey:     settings.Storage.AccessKey,
			SecretKey:     settings.Storage.SecretKey,
			Bucket:        settings.Storage.Bucket,
			PublicBaseURL: settings.Storage.PublicBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("error configuring media storage")
		}
		media = s3Store
	} else {
		log.Warn().Msg("STORAGE_BUCKET not set, gallery uploads are disabled")
	}

	var reader services.ProjectReader = services.NewDatabaseProjectReader(store)
	if settings.ProjectSource == config.ProjectSourceCMS {
		reader = cmsReader
	}
	log.Info().Str("projectSource", settings.ProjectSource).Msg("Serving published projects")

	projects := services.NewProjectService(store, reader, media)

	// If importing CMS projects, copy them into the database and exit
	if config.GetBool(c, "IMPORT_CMS_PROJECTS", false) {
		if cmsReader == nil {
			log.Fatal().Msg("IMPORT_CMS_PROJECTS requires SANITY_PROJECT_ID")
		}
		report, err := projects.ImportFromCMS(ctx, cmsReader)
		if err != nil {
			log.Fatal().Err(err).Int("imported", report.Imported).Msg("CMS import failed")
		}
		log.Info().Int("total", report.Total).Int("imported", report.Imported).Msg("CMS import complete")
		return
	}

	provider, err := identity.NewSupabaseProvider(settings.Supabase.URL, settings.Supabase.AnonKey, settings.Supabase.ServiceRoleKey)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating auth client")
	}

	var mailer services.Mailer
	if settings.Email.Enabled() {
		mailer = services.NewResendMailer(settings.Email)
	}
	contact := services.NewContactService(store, mailer, settings.Email.NotifyEmail)

	badge := services.NewUnreadBadge(contact, settings.BadgeRefresh)
	if err := badge.Start(); err != nil {
		log.Fatal().Err(err).Msg("error starting unread badge refresh")
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(api.Dependencies{
		Settings: settings,
		Database: store,
		Verifier: identity.NewSessionVerifier(settings.Supabase.JWTSecret),
		Auth:     services.NewAuthService(provider, store),
		Contact:  contact,
		Projects: projects,
		Badge:    badge,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
	<-badge.Stop().Done()
}

func setupLogging(settings config.Settings) {
	level, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if settings.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// openDatabases connects the public and service roles. Reads of the public
// connection go to the replica when one is configured.
func openDatabases(settings config.DatabaseSettings) (*gorm.DB, *gorm.DB, error) {
	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	log.Info().Str("host", settings.Host).Msg("Connecting to Supabase database...")
	publicDB, err := openPostgres(settings.DSN(), newLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("public connection: %w", err)
	}

	if replica := settings.ReplicaDSN(); replica != "" {
		err := publicDB.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{DSN: replica, PreferSimpleProtocol: true})},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, nil, fmt.Errorf("register replica: %w", err)
		}
		log.Info().Str("host", settings.ReplicaHost).Msg("Read replica registered")
	}

	if settings.ServiceDSN() == settings.DSN() {
		log.Warn().Msg("No service credentials configured, admin writes use the public role")
		return publicDB, publicDB, nil
	}

	serviceDB, err := openPostgres(settings.ServiceDSN(), newLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("service connection: %w", err)
	}
	return publicDB, serviceDB, nil
}

func openPostgres(dsn string, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("testing database connection: %w", err)
	}
	return db, nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
