package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseProvider implements Provider with two auth clients: one holding the
// anon key for sign-in, one authorized with the service-role key for admin calls.
type SupabaseProvider struct {
	public gotrue.Client
	admin  gotrue.Client
	logger zerolog.Logger
}

func NewSupabaseProvider(url, anonKey, serviceRoleKey string) (*SupabaseProvider, error) {
	publicClient, err := supabase.NewClient(url, anonKey, nil)
	if err != nil {
		return nil, err
	}
	adminClient, err := supabase.NewClient(url, serviceRoleKey, nil)
	if err != nil {
		return nil, err
	}

	return &SupabaseProvider{
		public: publicClient.Auth,
		admin:  adminClient.Auth.WithToken(serviceRoleKey),
		logger: log.With().Str("service", "supabaseProvider").Logger(),
	}, nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	token, err := p.public.SignInWithEmailPassword(email, password)
	if err != nil {
		return Session{}, err
	}
	return sessionFromToken(token), nil
}

func (p *SupabaseProvider) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	token, err := p.public.RefreshToken(refreshToken)
	if err != nil {
		return Session{}, err
	}
	return sessionFromToken(token), nil
}

func (p *SupabaseProvider) ListUsers(ctx context.Context) ([]Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.admin.AdminListUsers()
	if err != nil {
		return nil, err
	}

	identities := make([]Identity, 0, len(resp.Users))
	for _, user := range resp.Users {
		identities = append(identities, identityFromUser(user))
	}
	p.logger.Debug().Int("count", len(identities)).Msg("listed auth users")
	return identities, nil
}

func (p *SupabaseProvider) CreateUser(ctx context.Context, input NewIdentity) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	password := input.Password
	resp, err := p.admin.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        input.Email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"display_name": input.DisplayName},
	})
	if err != nil {
		return Identity{}, err
	}
	return identityFromUser(resp.User), nil
}

func (p *SupabaseProvider) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.admin.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id})
	if isNotFoundResponse(err) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return err
}

// isNotFoundResponse matches the status-coded errors gotrue returns for a 404.
func isNotFoundResponse(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), fmt.Sprintf("response status code %d", http.StatusNotFound))
}

func sessionFromToken(token *types.TokenResponse) Session {
	return Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    time.Duration(token.ExpiresIn) * time.Second,
		Identity:     identityFromUser(token.User),
	}
}

func identityFromUser(user types.User) Identity {
	return Identity{
		ID:           user.ID,
		Email:        user.Email,
		CreatedAt:    user.CreatedAt,
		LastSignInAt: user.LastSignInAt,
	}
}
