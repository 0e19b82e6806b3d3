package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder Responder
	logger    zerolog.Logger
	db        database.Database
	startedAt time.Time
}

func newHealthHandler(db database.Database, startedAt time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder: NewResponder(logger),
		logger:    logger,
		db:        db,
		startedAt: startedAt,
	}
}

// health reports process uptime and database reachability
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /api/health [get]
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("database ping failed")
			dbStatus = "error"
		}

		h.responder.WriteJSON(w, healthResponse{
			Status:    "ok",
			Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
			StartedAt: h.startedAt,
			Database:  dbStatus,
		})
	}
}
