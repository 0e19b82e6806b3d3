package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Project sources accepted by PROJECT_SOURCE.
const (
	ProjectSourceDatabase = "database"
	ProjectSourceCMS      = "cms"
)

type ServerSettings struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	AcceptedOrigins []string
	CookieDomain    string
	CookieSecure    bool
}

type DatabaseSettings struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	ServiceUser     string
	ServicePassword string
	ReplicaHost     string
	SSLMode         string
}

// DSN builds the connection string for the public (row-level-security bound) role.
func (d DatabaseSettings) DSN() string {
	return d.dsn(d.Host, d.User, d.Password)
}

// ServiceDSN builds the connection string for the elevated role. It falls back to
// the public credentials when no service credentials are configured.
func (d DatabaseSettings) ServiceDSN() string {
	if d.ServiceUser == "" {
		return d.DSN()
	}
	return d.dsn(d.Host, d.ServiceUser, d.ServicePassword)
}

// ReplicaDSN returns an empty string when no replica is configured.
func (d DatabaseSettings) ReplicaDSN() string {
	if d.ReplicaHost == "" {
		return ""
	}
	return d.dsn(d.ReplicaHost, d.User, d.Password)
}

func (d DatabaseSettings) dsn(host, user, password string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, d.Name, d.Port, d.SSLMode)
}

type SupabaseSettings struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
}

type CMSSettings struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	CacheTTL   time.Duration
}

func (c CMSSettings) Enabled() bool {
	return c.ProjectID != ""
}

type StorageSettings struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func (s StorageSettings) Enabled() bool {
	return s.Bucket != ""
}

type EmailSettings struct {
	ResendAPIKey string
	FromEmail    string
	NotifyEmail  string
}

func (e EmailSettings) Enabled() bool {
	return e.ResendAPIKey != "" && e.FromEmail != "" && e.NotifyEmail != ""
}

// Settings is the typed view over the environment map.
type Settings struct {
	Env           string
	LogLevel      string
	ProjectSource string
	BadgeRefresh  time.Duration

	Server   ServerSettings
	Database DatabaseSettings
	Supabase SupabaseSettings
	CMS      CMSSettings
	Storage  StorageSettings
	Email    EmailSettings
}

func Load(c map[string]string) Settings {
	return Settings{
		Env:           GetString(c, "ENV", "development"),
		LogLevel:      GetString(c, "LOG_LEVEL", "info"),
		ProjectSource: strings.ToLower(GetString(c, "PROJECT_SOURCE", ProjectSourceDatabase)),
		BadgeRefresh:  time.Duration(GetInt(c, "BADGE_REFRESH_SECONDS", 60)) * time.Second,
		Server: ServerSettings{
			Port:            GetString(c, "PORT", "8080"),
			ReadTimeout:     time.Duration(GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second,
			WriteTimeout:    time.Duration(GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second,
			IdleTimeout:     time.Duration(GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second,
			AcceptedOrigins: GetList(c, "ACCEPTED_ORIGINS"),
			CookieDomain:    GetString(c, "COOKIE_DOMAIN", ""),
			CookieSecure:    GetBool(c, "COOKIE_SECURE", true),
		},
		Database: DatabaseSettings{
			Host:            GetString(c, "SUPABASE_DB_HOST", ""),
			Port:            GetString(c, "SUPABASE_DB_PORT", "5432"),
			Name:            GetString(c, "SUPABASE_DB_NAME", "postgres"),
			User:            GetString(c, "SUPABASE_DB_USER", ""),
			Password:        GetString(c, "SUPABASE_DB_PASSWORD", ""),
			ServiceUser:     GetString(c, "SUPABASE_SERVICE_DB_USER", ""),
			ServicePassword: GetString(c, "SUPABASE_SERVICE_DB_PASSWORD", ""),
			ReplicaHost:     GetString(c, "SUPABASE_DB_REPLICA_HOST", ""),
			SSLMode:         GetString(c, "SUPABASE_DB_SSLMODE", "require"),
		},
		Supabase: SupabaseSettings{
			URL:            GetString(c, "SUPABASE_URL", ""),
			AnonKey:        GetString(c, "SUPABASE_ANON_KEY", ""),
			ServiceRoleKey: GetString(c, "SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      GetString(c, "SUPABASE_JWT_SECRET", ""),
		},
		CMS: CMSSettings{
			ProjectID:  GetString(c, "SANITY_PROJECT_ID", ""),
			Dataset:    GetString(c, "SANITY_DATASET", "production"),
			APIVersion: GetString(c, "SANITY_API_VERSION", "2023-05-03"),
			Token:      GetString(c, "SANITY_API_TOKEN", ""),
			CacheTTL:   time.Duration(GetInt(c, "CMS_CACHE_SECONDS", 60)) * time.Second,
		},
		Storage: StorageSettings{
			Endpoint:      GetString(c, "STORAGE_S3_ENDPOINT", ""),
			Region:        GetString(c, "STORAGE_S3_REGION", "us-east-1"),
			AccessKey:     GetString(c, "STORAGE_S3_ACCESS_KEY", ""),
			SecretKey:     GetString(c, "STORAGE_S3_SECRET_KEY", ""),
			Bucket:        GetString(c, "STORAGE_BUCKET", ""),
			PublicBaseURL: GetString(c, "STORAGE_PUBLIC_URL", ""),
		},
		Email: EmailSettings{
			ResendAPIKey: GetString(c, "RESEND_API_KEY", ""),
			FromEmail:    GetString(c, "RESEND_FROM_EMAIL", ""),
			NotifyEmail:  GetString(c, "CONTACT_NOTIFY_EMAIL", ""),
		},
	}
}

// Validate reports every required key that is missing.
func (s Settings) Validate() error {
	var missing []string
	required := map[string]string{
		"SUPABASE_DB_HOST":          s.Database.Host,
		"SUPABASE_DB_USER":          s.Database.User,
		"SUPABASE_URL":              s.Supabase.URL,
		"SUPABASE_ANON_KEY":         s.Supabase.AnonKey,
		"SUPABASE_SERVICE_ROLE_KEY": s.Supabase.ServiceRoleKey,
		"SUPABASE_JWT_SECRET":       s.Supabase.JWTSecret,
	}
	for key, value := range required {
		if value == "" {
			missing = append(missing, key)
		}
	}

	switch s.ProjectSource {
	case ProjectSourceDatabase:
	case ProjectSourceCMS:
		if !s.CMS.Enabled() {
			missing = append(missing, "SANITY_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unsupported PROJECT_SOURCE %q", s.ProjectSource)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
