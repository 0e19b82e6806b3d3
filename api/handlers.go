package api

import "time"

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, cookies cookieWriter, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		authHandler:    newAuthHandler(deps.Auth, cookies),
		contactHandler: newContactHandler(deps.Contact, deps.Badge),
		projectHandler: newProjectHandler(deps.Projects),
		galleryHandler: newGalleryHandler(deps.Projects),
		userHandler:    newUserHandler(deps.Auth),
		healthHandler:  newHealthHandler(deps.Database, startupTime),
		pageHandler:    newPageHandler(deps.Auth, deps.Contact, deps.Projects, deps.Badge, cookies),
	}
}
