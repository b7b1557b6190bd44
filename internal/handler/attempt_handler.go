package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizgate/quizgate/internal/middleware"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/service"
	"github.com/quizgate/quizgate/internal/validator"
)

// AttemptHandler drives the attempt lifecycle over HTTP. The WebSocket
// stream in WSHandler covers the same answer/submit operations for clients
// that hold a live connection; both go through the same AttemptService.
type AttemptHandler struct {
	authService *service.AuthService
	attempts    *service.AttemptService
	quizContext *service.QuizContextService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(
	authService *service.AuthService,
	attempts *service.AttemptService,
	quizContext *service.QuizContextService,
) *AttemptHandler {
	return &AttemptHandler{
		authService: authService,
		attempts:    attempts,
		quizContext: quizContext,
	}
}

// Begin godoc
// POST /api/v1/participant/attempts
// Starts an attempt at the quiz currently in the participant's context.
// If the quiz window has already closed the attempt comes back expired,
// with no questions; otherwise it is active with the full countdown.
func (h *AttemptHandler) Begin(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quiz, err := h.quizContext.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoQuizSelected) {
			response.Fail(c, http.StatusConflict, response.ErrNoQuizSelected)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.UpstreamToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	view, err := h.attempts.Begin(c.Request.Context(), claims.UserID, token, *quiz)
	if err != nil {
		failUpstream(c, err)
		return
	}

	status := http.StatusCreated
	if view.State == model.AttemptStateExpired {
		// The window closed before the attempt could begin.
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"attempt": view})
}

// View godoc
// GET /api/v1/participant/attempts/:attempt_id
func (h *AttemptHandler) View(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	view, err := h.attempts.View(attemptID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": view})
}

// SetAnswer godoc
// PUT /api/v1/participant/attempts/:attempt_id/answers
// Records the selected option for one question. Last write wins.
func (h *AttemptHandler) SetAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	var req model.SetAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.attempts.SetAnswer(c.Request.Context(), attemptID, claims.UserID, req.QuestionID, req.Selected)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_id": req.QuestionID, "selected": req.Selected})
}

// Submit godoc
// POST /api/v1/participant/attempts/:attempt_id/submit
// Submits the attempt for scoring. Repeating the call on a scored attempt
// returns the stored result rather than scoring again.
func (h *AttemptHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	result, err := h.attempts.Submit(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Abandon godoc
// DELETE /api/v1/participant/attempts/:attempt_id
func (h *AttemptHandler) Abandon(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	if err := h.attempts.Abandon(attemptID, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func parseAttemptID(c *gin.Context) (uuid.UUID, bool) {
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return attemptID, true
}

// failAttempt maps attempt lifecycle errors onto their API codes.
func failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, service.ErrAttemptFinished):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
	case errors.Is(err, service.ErrSubmissionInFlight), errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionInFlight)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	default:
		failUpstream(c, err)
	}
}
