package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer = "Internal server error"
	errInvalidBody    = "Invalid request body"
)

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:         http.StatusBadRequest,
	domain.KindConflict:           http.StatusBadRequest,
	domain.KindInvalidToken:       http.StatusBadRequest,
	domain.KindExpired:            http.StatusBadRequest,
	domain.KindUnauthenticated:    http.StatusUnauthorized,
	domain.KindInvalidCredentials: http.StatusUnauthorized,
	domain.KindForbidden:          http.StatusForbidden,
	domain.KindNotFound:           http.StatusNotFound,
}

// respondError writes the failure envelope. Domain errors keep their message;
// anything else is logged and answered with a generic 500.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.ErrorContext(c.Request.Context(), op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errInternalServer})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": domainMessage(err)})
}

func respondBindError(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": errInvalidBody})
}

func respondOK(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

// domainMessage returns the outermost *domain.Error's text, dropping any
// wrapping context that is meant for logs.
func domainMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return err.Error()
}
