package api

import (
	"net/http"

	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	auth      *services.AuthService
	cookies   cookieWriter
}

func newAuthHandler(auth *services.AuthService, cookies cookieWriter) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		auth:      auth,
		cookies:   cookies,
	}
}

// login signs in with email and password and sets the session cookies
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Email and password"
// @Success 200 {object} authCheckResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid credentials payload"
// @Failure 401 {object} ErrorResponse "Unauthorized - Wrong email or password"
// @Router /api/auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.cookies.setSession(w, session)

		user, err := h.auth.GetCurrentUser(r.Context(), session.Identity)
		user = services.OrDefault(user, err, services.FallbackUser(session.Identity), h.logger, "get current user")

		h.responder.WriteJSON(w, authCheckResponse{Authenticated: true, User: user})
	}
}

// logout clears the session cookies
// @Summary Sign out
// @Tags Auth
// @Produce json
// @Success 200 {object} statusResponse
// @Router /api/auth/logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.cookies.clearSession(w)
		h.responder.WriteJSON(w, statusResponse{Status: "success", Message: "signed out"})
	}
}

// check reports whether the request carries a valid session
// @Summary Session check
// @Tags Auth
// @Produce json
// @Success 200 {object} authCheckResponse
// @Router /api/auth/check [get]
func (h authHandler) check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		h.responder.WriteJSON(w, authCheckResponse{Authenticated: user != nil, User: user})
	}
}
