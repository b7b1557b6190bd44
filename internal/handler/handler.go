package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/upstream"
)

// failUpstream translates an upstream call failure into an API error.
// Rejections keep the upstream's status and message so the user sees the
// same inline error text the quiz service produced; transport failures
// become a 502.
func failUpstream(c *gin.Context, err error) {
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		status := upErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		response.FailWithMessage(c, status, response.ErrUpstreamRejected, upErr.Detail)
		return
	}
	response.Fail(c, http.StatusBadGateway, response.ErrUpstream)
}
