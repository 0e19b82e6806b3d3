package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contactHandler struct {
	responder Responder
	logger    zerolog.Logger
	contact   *services.ContactService
	badge     *services.UnreadBadge
}

func newContactHandler(contact *services.ContactService, badge *services.UnreadBadge) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder: NewResponder(logger),
		logger:    logger,
		contact:   contact,
		badge:     badge,
	}
}

// submitMessage stores a contact form submission
// @Summary Submit contact form
// @Description Public endpoint. Input is validated before anything is stored.
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body contactRequest true "Contact form"
// @Success 201 {object} models.ContactMessage
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or invalid field"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Storage rejected the message"
// @Router /api/contact [post]
func (h contactHandler) submitMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message, err := h.contact.Submit(r.Context(), services.ContactInput{
			Name:    req.Name,
			Email:   req.Email,
			Subject: req.Subject,
			Message: req.Message,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.refreshBadge(r)

		h.responder.WriteJSONStatus(w, http.StatusCreated, message)
	}
}

// listMessages returns every message, newest first
// @Summary List contact messages
// @Tags Contact
// @Produce json
// @Success 200 {array} models.ContactMessage
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/contact/messages [get]
func (h contactHandler) listMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := h.contact.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, messages)
	}
}

// unreadCount returns the number of unread messages. Storage failures read as 0.
// @Summary Unread message count
// @Tags Contact
// @Produce json
// @Success 200 {object} countResponse
// @Router /api/contact/unread [get]
func (h contactHandler) unreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.contact.GetUnreadCount(r.Context())
		count = services.OrDefault(count, err, 0, h.logger, "unread count")
		h.responder.WriteJSON(w, countResponse{Count: count})
	}
}

// markRead marks one message as read
// @Summary Mark message read
// @Tags Contact
// @Produce json
// @Param id path string true "Message ID" format(uuid)
// @Success 200 {object} statusResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid id"
// @Failure 404 {object} ErrorResponse "Not Found - Message not found"
// @Router /api/contact/messages/{id}/read [post]
func (h contactHandler) markRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid message id"))
			return
		}

		if err := h.contact.MarkAsRead(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.refreshBadge(r)

		h.responder.WriteJSON(w, statusResponse{Status: "success"})
	}
}

// markAllRead marks every message as read
// @Summary Mark all messages read
// @Tags Contact
// @Produce json
// @Success 200 {object} countResponse "Number of messages changed"
// @Router /api/contact/messages/read-all [post]
func (h contactHandler) markAllRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed, err := h.contact.MarkAllAsRead(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.refreshBadge(r)

		h.responder.WriteJSON(w, countResponse{Count: changed})
	}
}

func (h contactHandler) refreshBadge(r *http.Request) {
	if h.badge != nil {
		h.badge.Refresh(r.Context())
	}
}
