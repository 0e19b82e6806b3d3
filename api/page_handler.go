package api

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"truncate": func(s string, n int) string {
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return string(runes[:n]) + "..."
	},
}

// pageHandler serves the server-rendered admin shell.
type pageHandler struct {
	logger   zerolog.Logger
	auth     *services.AuthService
	contact  *services.ContactService
	projects *services.ProjectService
	badge    *services.UnreadBadge
	cookies  cookieWriter
	pages    map[string]*template.Template
}

func newPageHandler(auth *services.AuthService, contact *services.ContactService, projects *services.ProjectService, badge *services.UnreadBadge, cookies cookieWriter) pageHandler {
	logger := log.With().Str("handlerName", "pageHandler").Logger()

	pages := make(map[string]*template.Template)
	for _, page := range []string{"login.html", "dashboard.html", "projects.html", "messages.html", "users.html"} {
		pages[page] = template.Must(template.New("").Funcs(pageFuncs).ParseFS(templateFS, "templates/base.html", "templates/"+page))
	}

	return pageHandler{
		logger:   logger,
		auth:     auth,
		contact:  contact,
		projects: projects,
		badge:    badge,
		cookies:  cookies,
		pages:    pages,
	}
}

func (h pageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	user := userFromContext(r.Context())
	data["User"] = user
	data["IsAdmin"] = user != nil && user.Role == models.RoleAdmin
	data["Unread"] = h.unread()

	tmpl, ok := h.pages[page]
	if !ok {
		h.logger.Error().Str("page", page).Msg("unknown page template")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	var body strings.Builder
	if err := tmpl.ExecuteTemplate(&body, "base", data); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("template execute error")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body.String()))
}

func (h pageHandler) unread() int64 {
	if h.badge == nil {
		return 0
	}
	return h.badge.Count()
}

func (h pageHandler) loginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNext(r.URL.Query().Get("next"))
		if userFromContext(r.Context()) != nil {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
		h.render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Sign in", "Next": next})
	}
}

func (h pageHandler) loginSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		next := safeNext(r.PostFormValue("next"))

		session, err := h.auth.SignIn(r.Context(), email, r.PostFormValue("password"))
		if err != nil {
			status := errs.StatusCode(err)
			message := "Sign-in failed, try again later."
			if status == http.StatusUnauthorized {
				message = "Invalid email or password."
			}
			h.render(w, r, status, "login.html", map[string]any{
				"Title": "Sign in",
				"Next":  next,
				"Email": email,
				"Error": message,
			})
			return
		}

		h.cookies.setSession(w, session)
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

func (h pageHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.cookies.clearSession(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (h pageHandler) dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.projects.GetProjectCount(r.Context())
		count = services.OrDefault(count, err, 0, h.logger, "project count")

		h.render(w, r, http.StatusOK, "dashboard.html", map[string]any{
			"Title":        "Dashboard",
			"ProjectCount": count,
		})
	}
}

func (h pageHandler) projectList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projects.ListAllProjects(r.Context())
		projects = services.OrDefault(projects, err, nil, h.logger, "list projects")

		h.render(w, r, http.StatusOK, "projects.html", map[string]any{
			"Title":    "Projects",
			"Projects": projects,
		})
	}
}

func (h pageHandler) messageList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := h.contact.List(r.Context())
		messages = services.OrDefault(messages, err, nil, h.logger, "list messages")

		h.render(w, r, http.StatusOK, "messages.html", map[string]any{
			"Title":    "Messages",
			"Messages": messages,
		})
	}
}

func (h pageHandler) userList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.auth.GetAllUsers(r.Context())
		users = services.OrDefault(users, err, nil, h.logger, "list users")

		h.render(w, r, http.StatusOK, "users.html", map[string]any{
			"Title": "Users",
			"Users": users,
		})
	}
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin"
	}
	return next
}
