package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	ctxlog "github.com/ErlanBelekov/notes-service/internal/log"
	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	userIDKey   = "userID"

	msgUnauthenticated = "Unauthorized - no valid session"
	msgInternal        = "Internal server error"
)

// Authenticator is satisfied by *usecase.AuthUsecase.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error)
}

// Responder renders a Guard failure for one caller channel.
type Responder interface {
	Unauthenticated(c *gin.Context)
	Internal(c *gin.Context)
}

// APIResponder answers with a JSON envelope.
type APIResponder struct{}

func (APIResponder) Unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msgUnauthenticated})
}

func (APIResponder) Internal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgInternal})
}

// RedirectResponder sends interactive callers to the login page.
type RedirectResponder struct {
	LoginPath string
}

func (r RedirectResponder) Unauthenticated(c *gin.Context) {
	c.Redirect(http.StatusFound, r.LoginPath)
	c.Abort()
}

func (r RedirectResponder) Internal(c *gin.Context) {
	c.AbortWithStatus(http.StatusInternalServerError)
}

// Guard resolves the session token from the Authorization header, or the
// session cookie when no header is sent, and stores the identity in the
// gin context. Failures are rendered by responder.
func Guard(auth Authenticator, cookieName string, responder Responder, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := SessionToken(c, cookieName)
		if raw == "" {
			responder.Unauthenticated(c)
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				responder.Unauthenticated(c)
				return
			}
			logger.ErrorContext(c.Request.Context(), "authenticate session", "error", err)
			responder.Internal(c)
			return
		}

		c.Set(identityKey, identity)
		c.Set(userIDKey, identity.ID)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), identity.ID))
		c.Next()
	}
}

// SessionToken returns the bearer token, falling back to the session cookie.
func SessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// Identity returns the identity stored by Guard, or nil outside a guarded route.
func Identity(c *gin.Context) *domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*domain.Identity)
	return identity
}

// UserID returns the authenticated identity's ID.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
