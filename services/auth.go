package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CreateUserInput is an admin request for a new account.
type CreateUserInput struct {
	Email       string
	Password    string
	Role        models.Role
	DisplayName string
}

// UpdateUserInput is a partial profile update. Nil fields stay unchanged.
type UpdateUserInput struct {
	Role        *models.Role
	DisplayName *string
}

// AuthService attaches profile roles to auth identities and runs the admin user
// operations.
type AuthService struct {
	provider identity.Provider
	public   *database.UserProfileRepo
	service  *database.UserProfileRepo
	logger   zerolog.Logger
}

func NewAuthService(provider identity.Provider, db database.Database) *AuthService {
	return &AuthService{
		provider: provider,
		public:   db.Public().UserProfileRepo(),
		service:  db.Service().UserProfileRepo(),
		logger:   log.With().Str("service", "authService").Logger(),
	}
}

// FallbackUser is the least-privilege user for a session whose profile cannot be read.
func FallbackUser(ident identity.Identity) *models.User {
	return &models.User{
		ID:           ident.ID,
		Email:        ident.Email,
		Role:         models.RoleViewer,
		DisplayName:  models.EmailLocalPart(ident.Email),
		CreatedAt:    ident.CreatedAt,
		LastSignInAt: ident.LastSignInAt,
	}
}

// GetCurrentUser joins a verified session identity to its profile. The profile is
// read under the caller's own permissions first. Row-level security hides rows
// rather than failing, so the service credential is tried when that read fails
// or finds nothing. An identity without a profile under either read is a viewer.
// An error means the service read failed; callers degrade with FallbackUser.
func (s *AuthService) GetCurrentUser(ctx context.Context, ident identity.Identity) (*models.User, error) {
	profile, err := s.public.FindByIDAsSubject(ctx, ident.ID)
	if err != nil || profile == nil {
		s.logger.Debug().Err(err).Str("userId", ident.ID.String()).Msg("profile not readable as user, retrying with service credential")
		profile, err = s.service.FindByID(ctx, ident.ID)
		if err != nil {
			return nil, errs.NewDatabaseError("find", "user profile", err)
		}
	}
	return joinProfile(ident, profile), nil
}

// RequireAuth allows any signed-in user.
func (s *AuthService) RequireAuth(user *models.User) Decision {
	return Authorize(user, "")
}

// RequireAdmin allows only admins.
func (s *AuthService) RequireAdmin(user *models.User) Decision {
	return Authorize(user, models.RoleAdmin)
}

// SignIn exchanges credentials for a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	session, err := s.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Info().Err(err).Str("email", email).Msg("sign in rejected")
		return identity.Session{}, errs.NewInvalidCredentialsError(err)
	}
	return session, nil
}

// Refresh exchanges a refresh token for a new session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	session, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return identity.Session{}, errs.NewInvalidTokenError(err)
	}
	return session, nil
}

// GetAllUsers lists every identity joined to its profile. Identities without a
// profile default to viewer with the email local part as display name.
func (s *AuthService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	identities, err := s.provider.ListUsers(ctx)
	if err != nil {
		return nil, errs.NewUpstreamError("auth", err)
	}

	ids := make([]uuid.UUID, 0, len(identities))
	for _, ident := range identities {
		ids = append(ids, ident.ID)
	}
	profiles, err := s.service.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "user profiles", err)
	}

	users := make([]models.User, 0, len(identities))
	for _, ident := range identities {
		var profile *models.UserProfile
		if p, ok := profiles[ident.ID]; ok {
			profile = &p
		}
		users = append(users, *joinProfile(ident, profile))
	}
	return users, nil
}

// CreateUser creates a pre-confirmed identity and then its profile row. A failed
// profile insert is returned as is; the identity is not removed.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleViewer
	}
	if !role.Valid() {
		return nil, errs.NewInvalidFieldError("role", "role must be one of admin, editor, viewer")
	}
	email := strings.TrimSpace(input.Email)
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = models.EmailLocalPart(email)
	}

	ident, err := s.provider.CreateUser(ctx, identity.NewIdentity{
		Email:       email,
		Password:    input.Password,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, errs.NewUpstreamError("auth", err)
	}

	profile := &models.UserProfile{
		ID:          ident.ID,
		Email:       email,
		Role:        role,
		DisplayName: displayName,
	}
	if err := s.service.Add(ctx, profile); err != nil {
		s.logger.Error().Err(err).Str("userId", ident.ID.String()).Msg("identity created but profile insert failed")
		return nil, errs.NewDatabaseError("create", "user profile", err)
	}

	s.logger.Info().Str("userId", ident.ID.String()).Str("role", string(role)).Msg("created user")
	return joinProfile(ident, profile), nil
}

// UpdateUser changes the profile row only. A missing row is created from the input.
func (s *AuthService) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.UserProfile, error) {
	fields := map[string]interface{}{}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, errs.NewInvalidFieldError("role", "role must be one of admin, editor, viewer")
		}
		fields["role"] = *input.Role
	}
	if input.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*input.DisplayName)
	}

	found, err := s.service.Update(ctx, id, fields)
	if err != nil {
		return nil, errs.NewDatabaseError("update", "user profile", err)
	}
	if !found {
		profile := &models.UserProfile{ID: id, Role: models.RoleViewer}
		if input.Role != nil {
			profile.Role = *input.Role
		}
		if input.DisplayName != nil {
			profile.DisplayName = strings.TrimSpace(*input.DisplayName)
		}
		if err := s.service.Add(ctx, profile); err != nil {
			return nil, errs.NewDatabaseError("create", "user profile", err)
		}
	}

	profile, err := s.service.FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "user profile", err)
	}
	return profile, nil
}

// DeleteUser removes the identity. The profile row is removed by the storage-level
// cascade on the identity table.
func (s *AuthService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.provider.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return errs.NewNotFound("user")
		}
		return errs.NewUpstreamError("auth", err)
	}
	s.logger.Info().Str("userId", id.String()).Msg("deleted user")
	return nil
}

func joinProfile(ident identity.Identity, profile *models.UserProfile) *models.User {
	user := FallbackUser(ident)
	if profile == nil {
		return user
	}
	if profile.Role.Valid() {
		user.Role = profile.Role
	}
	if profile.DisplayName != "" {
		user.DisplayName = profile.DisplayName
	}
	if user.Email == "" {
		user.Email = profile.Email
	}
	return user
}
