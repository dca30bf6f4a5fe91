package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err     error
	status  int
	message string // fixed message; empty means derive it from the error
}

var errorMappings = []errorMapping{
	{common.ErrorInvalidInput, http.StatusBadRequest, ""},
	{common.ErrorValidationFailed, http.StatusBadRequest, ""},
	{common.ErrorExpired, http.StatusBadRequest, "OTP has expired. Please request a new one"},
	{common.ErrorMismatch, http.StatusBadRequest, "Invalid OTP"},
	{common.ErrorNotFound, http.StatusNotFound, ""},
	{common.ErrorConflict, http.StatusConflict, ""},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{common.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "Token is not valid"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{common.ErrorDeliveryFailure, http.StatusInternalServerError, ""},
}

// errorResponse maps a service error to a status and a client message.
// Anything unknown becomes a 500 without details.
func errorResponse(err error) (int, string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.message != "" {
			return m.status, m.message
		}
		msg := err.Error()
		if i := strings.Index(msg, m.err.Error()+": "); i >= 0 {
			msg = msg[i+len(m.err.Error())+2:]
		}
		return m.status, msg
	}
	return http.StatusInternalServerError, "Server error"
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := errorResponse(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
}
