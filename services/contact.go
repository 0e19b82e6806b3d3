package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContactInput is an already validated contact form submission.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactService manages the contact inbox. Inserts and admin reads use the service
// credential; anonymous inserts are otherwise rejected by row-level security.
type ContactService struct {
	repo     *database.ContactMessageRepo
	mailer   Mailer
	notifyTo string
	logger   zerolog.Logger
}

// NewContactService builds the service. mailer may be nil, in which case no
// notification is sent.
func NewContactService(db database.Database, mailer Mailer, notifyTo string) *ContactService {
	return &ContactService{
		repo:     db.Service().ContactMessageRepo(),
		mailer:   mailer,
		notifyTo: notifyTo,
		logger:   log.With().Str("service", "contactService").Logger(),
	}
}

// Submit stores a new unread message and sends the owner a notification.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*models.ContactMessage, error) {
	message := &models.ContactMessage{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
		Read:    false,
	}
	if message.Name == "" {
		return nil, errs.NewMissingRequiredFieldError("name")
	}
	if message.Message == "" {
		return nil, errs.NewMissingRequiredFieldError("message")
	}

	if err := s.repo.Add(ctx, message); err != nil {
		s.logger.Error().Err(err).Str("code", errs.StorageCode(err)).Msg("failed to insert contact message")
		if errs.IsPolicyViolation(err) {
			return nil, errs.NewPolicyViolationError("contact message", err)
		}
		return nil, errs.NewDatabaseError("create", "contact message", err)
	}

	s.notify(ctx, *message)
	return message, nil
}

func (s *ContactService) notify(ctx context.Context, message models.ContactMessage) {
	if s.mailer == nil || s.notifyTo == "" {
		return
	}

	subject := "New contact message"
	if message.Subject != "" {
		subject = fmt.Sprintf("New contact message: %s", message.Subject)
	}
	body := fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
		html.EscapeString(message.Name),
		html.EscapeString(message.Email),
		strings.ReplaceAll(html.EscapeString(message.Message), "\n", "<br>"),
	)

	if err := s.mailer.SendEmail(ctx, subject, body, []string{s.notifyTo}); err != nil {
		s.logger.Warn().Err(err).Str("messageId", message.ID.String()).Msg("failed to send contact notification")
	}
}

// List returns every message, newest first.
func (s *ContactService) List(ctx context.Context) ([]*models.ContactMessage, error) {
	messages, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "contact messages", err)
	}
	return messages, nil
}

// GetUnreadCount counts unread messages. Callers that only need a badge number wrap
// it with OrDefault.
func (s *ContactService) GetUnreadCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, errs.NewDatabaseError("count", "unread contact messages", err)
	}
	return count, nil
}

// MarkAsRead is idempotent: marking a read message again succeeds.
func (s *ContactService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return errs.NewDatabaseError("update", "contact message", err)
	}
	if !found {
		return errs.NewNotFound("contact message")
	}
	return nil
}

func (s *ContactService) MarkAllAsRead(ctx context.Context) (int64, error) {
	changed, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, errs.NewDatabaseError("update", "contact messages", err)
	}
	return changed, nil
}
