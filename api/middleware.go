package api

import (
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const refreshCookieMaxAge = 30 * 24 * time.Hour

// authMiddleware resolves the caller's session and guards routes.
type authMiddleware struct {
	responder Responder
	logger    zerolog.Logger
	verifier  identity.SessionVerifier
	auth      *services.AuthService
	cookies   cookieWriter
}

func newAuthMiddleware(verifier identity.SessionVerifier, auth *services.AuthService, cookies cookieWriter) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		logger:    logger,
		verifier:  verifier,
		auth:      auth,
		cookies:   cookies,
	}
}

// session puts the signed-in user, if any, into the request context. Tokens come
// from the Authorization header or the session cookies. An expired cookie session
// is refreshed once with the refresh cookie.
func (m authMiddleware) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := m.resolveIdentity(w, r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.auth.GetCurrentUser(r.Context(), ident)
		user = services.OrDefault(user, err, services.FallbackUser(ident), m.logger, "get current user")

		next.ServeHTTP(w, r.WithContext(ctxWithUser(r.Context(), user)))
	})
}

func (m authMiddleware) resolveIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		ident, err := m.verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			m.logger.Debug().Err(err).Msg("rejected bearer token")
			return identity.Identity{}, false
		}
		return ident, true
	}

	if cookie, err := r.Cookie(identity.AccessTokenCookie); err == nil && cookie.Value != "" {
		if ident, err := m.verifier.Verify(cookie.Value); err == nil {
			return ident, true
		}
	}

	refresh, err := r.Cookie(identity.RefreshTokenCookie)
	if err != nil || refresh.Value == "" {
		return identity.Identity{}, false
	}
	session, err := m.auth.Refresh(r.Context(), refresh.Value)
	if err != nil {
		m.logger.Debug().Err(err).Msg("session refresh failed")
		m.cookies.clearSession(w)
		return identity.Identity{}, false
	}
	m.cookies.setSession(w, session)

	ident, err := m.verifier.Verify(session.AccessToken)
	if err != nil {
		return session.Identity, session.Identity.ID != uuid.Nil
	}
	return ident, true
}

// requireAuth answers 401 for anonymous API calls.
func (m authMiddleware) requireAuth(next http.Handler) http.Handler {
	return m.require("", next)
}

// requireAdmin answers 401 for anonymous and 403 for non-admin API calls.
func (m authMiddleware) requireAdmin(next http.Handler) http.Handler {
	return m.require(models.RoleAdmin, next)
}

func (m authMiddleware) require(role models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := services.Authorize(userFromContext(r.Context()), role)
		if !decision.Allowed {
			m.responder.WriteError(w, decision.Err(role))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePage redirects instead of answering with an error: anonymous callers go
// to the login page, signed-in callers without the role go to the admin home.
func (m authMiddleware) requirePage(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := services.Authorize(userFromContext(r.Context()), role)
			switch decision.Reason {
			case services.ReasonUnauthenticated:
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			case services.ReasonForbidden:
				http.Redirect(w, r, "/admin", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cookieWriter writes the session cookies with the configured attributes.
type cookieWriter struct {
	domain string
	secure bool
}

func newCookieWriter(settings config.ServerSettings) cookieWriter {
	return cookieWriter{domain: settings.CookieDomain, secure: settings.CookieSecure}
}

func (c cookieWriter) setSession(w http.ResponseWriter, session identity.Session) {
	accessAge := session.ExpiresIn
	if accessAge <= 0 {
		accessAge = time.Hour
	}
	http.SetCookie(w, c.cookie(identity.AccessTokenCookie, session.AccessToken, accessAge))
	if session.RefreshToken != "" {
		http.SetCookie(w, c.cookie(identity.RefreshTokenCookie, session.RefreshToken, refreshCookieMaxAge))
	}
}

func (c cookieWriter) clearSession(w http.ResponseWriter) {
	for _, name := range []string{identity.AccessTokenCookie, identity.RefreshTokenCookie} {
		cookie := c.cookie(name, "", 0)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (c cookieWriter) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				// Write 500 if nothing written yet
				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

// CORSCheckMiddleware rejects preflight requests from origins outside the allow list
// with a JSON error instead of a bare response.
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// If no origin header, it's likely a same-origin request
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !originAllowed(allowedOrigins, origin) && r.Method == http.MethodOptions {
				responder := NewResponder(log.Logger)
				responder.WriteError(w, errs.NewCORSError(origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		duration := time.Since(start)

		// Color-code based on HTTP status codes
		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}
