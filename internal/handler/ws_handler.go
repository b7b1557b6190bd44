package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/middleware"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/service"
	"github.com/quizgate/quizgate/internal/websocket"
)

// WSHandler streams an attempt over a WebSocket: the server pushes the
// countdown once per second while the client sends answer and submit
// actions over the same connection.
type WSHandler struct {
	attempts *service.AttemptService
	upgrader gorillaws.Upgrader
	log      zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(cfg *config.Config, attempts *service.AttemptService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		upgrader: buildUpgrader(cfg),
		log:      log.With().Str("component", "ws_handler").Logger(),
	}
}

// AttemptStream godoc
// GET /ws/v1/attempts/:attempt_id/stream?token=...
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Verify ownership before upgrading so a bad attempt id fails as a
	// plain HTTP error, not a dropped socket.
	if _, err := h.attempts.View(attemptID, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := websocket.Wrap(raw)
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go h.pushTicks(ctx, conn, attemptID, claims.UserID)
	h.readActions(ctx, conn, attemptID, claims.UserID)
}

// pushTicks sends the remaining time once per second until the attempt
// leaves the active state or the connection goes away.
func (h *WSHandler) pushTicks(ctx context.Context, conn *websocket.Conn, attemptID uuid.UUID, participantID string) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view, err := h.attempts.View(attemptID, participantID)
			if err != nil {
				return
			}
			if err := conn.WriteTyped(websocket.TickEvent{
				Event:            websocket.EventTick,
				RemainingSeconds: view.RemainingSeconds,
				State:            string(view.State),
			}); err != nil {
				return
			}
			if view.State == model.AttemptStateScored || view.State == model.AttemptStateExpired {
				if view.Result != nil {
					_ = conn.WriteTyped(websocket.GradedEvent{
						Event: websocket.EventGraded,
						Score: view.Result.Score,
						Total: view.Result.Total,
					})
				}
				return
			}
		}
	}
}

// readActions consumes client actions until the connection closes.
func (h *WSHandler) readActions(ctx context.Context, conn *websocket.Conn, attemptID uuid.UUID, participantID string) {
	for {
		var req websocket.RequestPayload
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		switch req.Action {
		case websocket.ActionPing:
			_ = conn.WriteTyped(websocket.PongResponse{Event: websocket.EventPong})

		case websocket.ActionAnswer:
			err := h.attempts.SetAnswer(ctx, attemptID, participantID, req.QuestionID, req.Selected)
			if err != nil {
				_ = conn.WriteError(err.Error())
				continue
			}
			_ = conn.WriteTyped(websocket.SavedEvent{Event: websocket.EventSaved, QuestionID: req.QuestionID})

		case websocket.ActionSubmit:
			result, err := h.attempts.Submit(ctx, attemptID, participantID)
			if err != nil {
				if errors.Is(err, service.ErrSubmissionInFlight) {
					// The auto-submit got there first; the graded event
					// will arrive through the tick pusher.
					continue
				}
				_ = conn.WriteError(err.Error())
				continue
			}
			_ = conn.WriteTyped(websocket.GradedEvent{
				Event: websocket.EventGraded,
				Score: result.Score,
				Total: result.Total,
			})

		default:
			_ = conn.WriteError("unknown action")
		}
	}
}

func buildUpgrader(cfg *config.Config) gorillaws.Upgrader {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if _, ok := allowed["*"]; ok {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}
