package handler

import (
	"context"
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

// maxQuestionFileSize bounds the uploaded question source file.
const maxQuestionFileSize = 10 << 20 // 10 MiB

// TrainerHandler serves the trainer dashboard: quiz listing, creation,
// start/end transitions, and the results view.
type TrainerHandler struct {
	authService      *service.AuthService
	dashboardService *service.DashboardService
	analyticsService *service.AnalyticsService
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(
	authService *service.AuthService,
	dashboardService *service.DashboardService,
	analyticsService *service.AnalyticsService,
) *TrainerHandler {
	return &TrainerHandler{
		authService:      authService,
		dashboardService: dashboardService,
		analyticsService: analyticsService,
	}
}

// ListQuizzes godoc
// GET /api/v1/trainer/quizzes
func (h *TrainerHandler) ListQuizzes(c *gin.Context) {
	claims := middleware.GetClaims(c)

	token, err := h.authService.UpstreamToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	quizzes, err := h.dashboardService.ListForTrainer(c.Request.Context(), token, claims.UserID)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// CreateQuiz godoc
// POST /api/v1/trainer/quizzes
// Multipart form: the schedule fields plus the question source file under
// the "file" part. The file streams through to the upstream unchanged.
func (h *TrainerHandler) CreateQuiz(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateQuizRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if fileHeader.Size > maxQuestionFileSize {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	defer file.Close()

	token, err := h.authService.UpstreamToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	quiz, err := h.dashboardService.Create(c.Request.Context(), token, claims.UserID, req, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrBadScheduleWindow) {
			response.Fail(c, http.StatusBadRequest, response.ErrBadSchedule)
			return
		}
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// StartQuiz godoc
// POST /api/v1/trainer/quizzes/:quiz_id/start
func (h *TrainerHandler) StartQuiz(c *gin.Context) {
	h.transition(c, h.dashboardService.Start)
}

// EndQuiz godoc
// POST /api/v1/trainer/quizzes/:quiz_id/end
func (h *TrainerHandler) EndQuiz(c *gin.Context) {
	h.transition(c, h.dashboardService.End)
}

// Analysis godoc
// GET /api/v1/trainer/quizzes/:quiz_id/analysis
// Returns the aggregated results for a completed quiz.
func (h *TrainerHandler) Analysis(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	token, err := h.authService.UpstreamToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	analysis, err := h.analyticsService.QuizAnalysis(c.Request.Context(), token, quizID)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"analysis": analysis})
}

func (h *TrainerHandler) transition(c *gin.Context, apply func(ctx context.Context, token string, quizID int) (model.QuizStatus, error)) {
	claims := middleware.GetClaims(c)

	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	token, err := h.authService.UpstreamToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	status, err := apply(c.Request.Context(), token, quizID)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz_id": quizID, "status": status})
}

func parseQuizID(c *gin.Context) (int, bool) {
	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return quizID, true
}
