package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/eventtickets/internal/entity"
	"github.com/ds124wfegd/eventtickets/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	codeInvalidRequest = "invalid_request"
	codeValidation     = "validation_error"
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeInternal       = "internal_error"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

// respondError maps a service error onto a status code. Unknown errors are
// logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		writeError(c, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, entity.ErrNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, entity.ErrConflict):
		writeError(c, http.StatusConflict, codeConflict, err.Error())
	default:
		logrus.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(middleware.RequestIDKey),
		}).Errorf("Request failed: %v", err)
		writeError(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, codeInvalidRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
