package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  *services.ProjectService
}

func newProjectHandler(projects *services.ProjectService) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
	}
}

// getAllProjects retrieves the published projects
// @Summary Get published projects
// @Description Retrieves published projects, newest first, from the configured project source
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching projects"
// @Router /api/projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projects.GetAllProjects(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// getProjectBySlug retrieves one published project
// @Summary Get project by slug
// @Tags Projects
// @Produce json
// @Param slug path string true "Project slug"
// @Success 200 {object} models.Project
// @Failure 404 {object} ErrorResponse "Not Found - Missing or unpublished"
// @Router /api/projects/slug/{slug} [get]
func (h projectHandler) getProjectBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		project, err := h.projects.GetProjectBySlug(r.Context(), slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("project not found"))
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// getProject retrieves a project by ID. Signed-in callers also see unpublished projects.
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid projectID"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		signedIn := userFromContext(r.Context()) != nil
		project, err := h.projects.GetProject(r.Context(), projectID, signedIn)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// getRelatedProjects retrieves other published projects
// @Summary Related projects
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param limit query int false "Maximum results (default 3, max 12)"
// @Success 200 {array} models.Project
// @Router /api/projects/{projectID}/related [get]
func (h projectHandler) getRelatedProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 1 {
				h.responder.WriteError(w, errs.NewInvalidFieldError("limit", "limit must be a positive integer"))
				return
			}
		}

		projects, err := h.projects.GetRelatedProjects(r.Context(), projectID, limit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// getProjectCount counts all stored projects
// @Summary Project count
// @Tags Projects
// @Produce json
// @Success 200 {object} countResponse
// @Router /api/projects/count [get]
func (h projectHandler) getProjectCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.projects.GetProjectCount(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, countResponse{Count: count})
	}
}

// listAllProjects retrieves every stored project for the admin area
// @Summary Admin project list
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/admin/projects [get]
func (h projectHandler) listAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projects.ListAllProjects(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// createProject creates a new project
// @Summary Create project
// @Description Creates a new project in the database. An empty slug is derived from the title.
// @Tags Projects
// @Accept json
// @Produce json
// @Param project body projectRequest true "Project data"
// @Success 201 {object} models.Project "Created project"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Failure 409 {object} ErrorResponse "Conflict - Slug already used"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error creating project"
// @Router /api/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var authorID *uuid.UUID
		if user := userFromContext(r.Context()); user != nil {
			authorID = &user.ID
		}

		project, err := h.projects.CreateProject(r.Context(), req.toInput(), authorID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

// updateProject updates an existing project
// @Summary Update project
// @Description Updates the fields present in the body. Last write wins.
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param project body projectRequest true "Updated project data"
// @Success 200 {object} models.Project "Updated project"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.UpdateProject(r.Context(), projectID, req.toInput())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// deleteProject deletes a project by ID
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} statusResponse "Success message"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projects.DeleteProject(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, statusResponse{
			Status:  "success",
			Message: "project deleted successfully",
		})
	}
}

func projectIDParam(r *http.Request) (uuid.UUID, error) {
	projectIDStr := chi.URLParam(r, "projectID")
	if projectIDStr == "" {
		return uuid.Nil, errs.NewBadRequestError("missing projectID")
	}
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid projectID")
	}
	return projectID, nil
}
