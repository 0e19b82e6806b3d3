package api

import (
	"encoding/json"
	"time"

	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler    authHandler
	contactHandler contactHandler
	projectHandler projectHandler
	galleryHandler galleryHandler
	userHandler    userHandler
	healthHandler  healthHandler
	pageHandler    pageHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid field"`
	Message string `json:"message,omitempty" example:"email must be a valid email address"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Code    string `json:"code,omitempty" example:"42501"`
	Field   string `json:"field,omitempty" example:"email"`
	Status  string `json:"status" example:"error"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Subject string `json:"subject" validate:"max=300"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type projectRequest struct {
	Title              *string         `json:"title" validate:"omitempty,max=200"`
	Slug               *string         `json:"slug" validate:"omitempty,max=200"`
	Content            json.RawMessage `json:"content"`
	Summary            *string         `json:"summary" validate:"omitempty,max=2000"`
	Thumbnail          *string         `json:"thumbnail"`
	Category           *string         `json:"category" validate:"omitempty,oneof=web mobile desktop ui branding other"`
	Status             *string         `json:"status" validate:"omitempty,oneof=draft published archived"`
	Featured           *bool           `json:"featured"`
	TechStack          []string        `json:"tech_stack" validate:"omitempty,dive,max=60"`
	BackgroundVideoURL *string         `json:"background_video_url"`
	ProjectVideoURL    *string         `json:"project_video_url"`
}

func (p projectRequest) toInput() services.ProjectInput {
	input := services.ProjectInput{
		Title:              p.Title,
		Slug:               p.Slug,
		Content:            p.Content,
		Summary:            p.Summary,
		Thumbnail:          p.Thumbnail,
		Featured:           p.Featured,
		TechStack:          p.TechStack,
		BackgroundVideoURL: p.BackgroundVideoURL,
		ProjectVideoURL:    p.ProjectVideoURL,
	}
	if p.Category != nil {
		category := models.ProjectCategory(*p.Category)
		input.Category = &category
	}
	if p.Status != nil {
		status := models.ProjectStatus(*p.Status)
		input.Status = &status
	}
	return input
}

type reorderRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

type externalMediaRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Type     string `json:"type" validate:"omitempty,oneof=image video"`
	Category string `json:"category" validate:"omitempty,oneof=gallery featured technical process"`
}

type createUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type updateUserRequest struct {
	ID          string  `json:"id"`
	Role        *string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
}

func (u updateUserRequest) toInput() services.UpdateUserInput {
	input := services.UpdateUserInput{DisplayName: u.DisplayName}
	if u.Role != nil {
		role := models.Role(*u.Role)
		input.Role = &role
	}
	return input
}

type deleteUserRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type authCheckResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	StartedAt time.Time `json:"startedAt"`
	Database  string    `json:"database"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
