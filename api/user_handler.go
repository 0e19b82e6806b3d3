package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	auth      *services.AuthService
}

func newUserHandler(auth *services.AuthService) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		auth:      auth,
	}
}

// listUsers returns every identity joined with its profile. Failures read as an empty list.
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden - Admin role required"
// @Router /api/admin/users [get]
func (h userHandler) listUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.auth.GetAllUsers(r.Context())
		users = services.OrDefault(users, err, []models.User{}, h.logger, "list users")
		h.responder.WriteJSON(w, users)
	}
}

// createUser creates an identity and its profile
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param user body createUserRequest true "New user"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid user data"
// @Failure 502 {object} ErrorResponse "Bad Gateway - Auth provider rejected the user"
// @Router /api/admin/users [post]
// @Router /api/users [post]
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.auth.CreateUser(r.Context(), services.CreateUserInput{
			Email:       req.Email,
			Password:    req.Password,
			Role:        models.Role(req.Role),
			DisplayName: req.DisplayName,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, user)
	}
}

// updateUser changes the role or display name of a profile. The id comes from the
// path, the body or the id query parameter, in that order.
// @Summary Update user profile
// @Tags Users
// @Accept json
// @Produce json
// @Param userId path string false "User ID" format(uuid)
// @Param user body updateUserRequest true "Profile changes"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid id or fields"
// @Router /api/admin/users [put]
// @Router /api/users/{userId} [patch]
func (h userHandler) updateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		id, err := userIDFrom(r, req.ID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		profile, err := h.auth.UpdateUser(r.Context(), id, req.toInput())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, profile)
	}
}

// deleteUser removes an identity. The profile row goes with it through the foreign key.
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param userId path string false "User ID" format(uuid)
// @Success 200 {object} statusResponse
// @Failure 404 {object} ErrorResponse "Not Found - User not found"
// @Router /api/admin/users [delete]
// @Router /api/users/{userId} [delete]
func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bodyID string
		if chi.URLParam(r, "userId") == "" && r.URL.Query().Get("id") == "" && r.ContentLength != 0 {
			var req deleteUserRequest
			if err := decodeJSON(w, r, &req); err != nil {
				h.responder.WriteError(w, err)
				return
			}
			bodyID = req.ID
		}

		id, err := userIDFrom(r, bodyID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.auth.DeleteUser(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, statusResponse{Status: "success", Message: "user deleted"})
	}
}

func userIDFrom(r *http.Request, bodyID string) (uuid.UUID, error) {
	raw := chi.URLParam(r, "userId")
	if raw == "" {
		raw = bodyID
	}
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError("id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError("id", "id must be a UUID")
	}
	return id, nil
}
