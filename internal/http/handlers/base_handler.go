// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"surgecast/internal/modules/surge"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// predictStatus maps a pipeline error to its HTTP status. legacy keeps the
// old contract of always answering 200 with the fallback body.
func predictStatus(err error, legacy bool) int {
	if err == nil || legacy {
		return http.StatusOK
	}
	switch surge.Kind(err) {
	case surge.KindInvalidInput:
		return http.StatusBadRequest
	case surge.KindModelInference:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
