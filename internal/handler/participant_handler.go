package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/middleware"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/service"
	"github.com/quizgate/quizgate/internal/validator"
)

// ParticipantHandler serves the participant dashboard and quiz selection.
type ParticipantHandler struct {
	authService      *service.AuthService
	dashboardService *service.DashboardService
	quizContext      *service.QuizContextService
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(
	authService *service.AuthService,
	dashboardService *service.DashboardService,
	quizContext *service.QuizContextService,
) *ParticipantHandler {
	return &ParticipantHandler{
		authService:      authService,
		dashboardService: dashboardService,
		quizContext:      quizContext,
	}
}

// ListQuizzes godoc
// GET /api/v1/participant/quizzes
// Lists the quizzes open to participants, each annotated with the single
// action the dashboard may offer for it right now.
func (h *ParticipantHandler) ListQuizzes(c *gin.Context) {
	claims := middleware.GetClaims(c)

	token, err := h.authService.UpstreamToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	quizzes, err := h.dashboardService.ListForParticipant(c.Request.Context(), token)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// SelectQuiz godoc
// POST /api/v1/participant/quizzes/:quiz_id/select
// Stores the picked quiz as the participant's quiz context, overwriting any
// previous selection. The attempt view reads the quiz from here, never from
// the request that starts it.
func (h *ParticipantHandler) SelectQuiz(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SelectQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz := model.QuizSummary{
		ID:              quizID,
		Title:           req.Title,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		NumQuestions:    req.NumQuestions,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		TrainerID:       req.TrainerID,
	}

	if err := h.quizContext.Select(c.Request.Context(), claims.UserID, quiz); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// GetQuizContext godoc
// GET /api/v1/participant/quiz-context
// Returns the participant's current selection so a reloaded client can pick
// up where it left off.
func (h *ParticipantHandler) GetQuizContext(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quiz, err := h.quizContext.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoQuizSelected) {
			response.Fail(c, http.StatusNotFound, response.ErrNoQuizSelected)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// ClearQuizContext godoc
// DELETE /api/v1/participant/quiz-context
func (h *ParticipantHandler) ClearQuizContext(c *gin.Context) {
	claims := middleware.GetClaims(c)

	if err := h.quizContext.Clear(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
