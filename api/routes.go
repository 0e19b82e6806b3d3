package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// setupAPIRoutes mounts the JSON API. Guards answer 401/403.
func setupAPIRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware) {
	r.Get("/health", handlers.healthHandler.health())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())
		r.Get("/check", handlers.authHandler.check())
	})

	r.Route("/contact", func(r chi.Router) {
		r.Post("/", handlers.contactHandler.submitMessage())

		r.Group(func(r chi.Router) {
			r.Use(auth.requireAuth)

			r.Get("/", handlers.contactHandler.listMessages())
			r.Get("/unread", handlers.contactHandler.unreadCount())
			r.Get("/messages", handlers.contactHandler.listMessages())
			r.Post("/messages/read-all", handlers.contactHandler.markAllRead())
			r.Post("/messages/{id}/read", handlers.contactHandler.markRead())
		})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", handlers.projectHandler.getAllProjects())
		r.Get("/count", handlers.projectHandler.getProjectCount())
		r.Get("/slug/{slug}", handlers.projectHandler.getProjectBySlug())
		r.Get("/{projectID}", handlers.projectHandler.getProject())
		r.Get("/{projectID}/related", handlers.projectHandler.getRelatedProjects())

		r.Group(func(r chi.Router) {
			r.Use(auth.requireAuth)

			r.Post("/", handlers.projectHandler.createProject())
			r.Put("/{projectID}", handlers.projectHandler.updateProject())
			r.Delete("/{projectID}", handlers.projectHandler.deleteProject())

			r.Post("/{projectID}/gallery", handlers.galleryHandler.uploadMedia())
			r.Post("/{projectID}/gallery/external", handlers.galleryHandler.addExternalMedia())
			r.Put("/{projectID}/gallery/order", handlers.galleryHandler.reorder())
			r.Put("/{projectID}/gallery/{imageID}/featured", handlers.galleryHandler.setFeatured())
			r.Delete("/{projectID}/gallery/{imageID}", handlers.galleryHandler.removeImage())
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(auth.requireAuth).Get("/projects", handlers.projectHandler.listAllProjects())

		r.Group(func(r chi.Router) {
			r.Use(auth.requireAdmin)

			r.Get("/users", handlers.userHandler.listUsers())
			r.Post("/users", handlers.userHandler.createUser())
			r.Put("/users", handlers.userHandler.updateUser())
			r.Delete("/users", handlers.userHandler.deleteUser())
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.requireAdmin)

		r.Post("/", handlers.userHandler.createUser())
		r.Patch("/{userId}", handlers.userHandler.updateUser())
		r.Delete("/{userId}", handlers.userHandler.deleteUser())
	})
}

// setupPageRoutes mounts the server-rendered admin shell. Guards redirect.
func setupPageRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware) {
	r.Get("/login", handlers.pageHandler.loginPage())
	r.Post("/login", handlers.pageHandler.loginSubmit())
	r.Post("/logout", handlers.pageHandler.logout())

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.requirePage(""))

		r.Get("/", handlers.pageHandler.dashboard())
		r.Get("/projects", handlers.pageHandler.projectList())
		r.Get("/messages", handlers.pageHandler.messageList())
		r.With(auth.requirePage(models.RoleAdmin)).Get("/users", handlers.pageHandler.userList())
	})
}
