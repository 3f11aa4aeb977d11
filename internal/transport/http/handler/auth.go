package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/transport/http/middleware"
	"github.com/ErlanBelekov/notes-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Signup(ctx context.Context, input usecase.SignupInput) (*domain.Identity, error)
	Login(ctx context.Context, email, secret string) (*usecase.LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error)
	Logout(ctx context.Context, rawToken string) error
}

type recoveryUsecaser interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, recoveryToken, newSecret string) error
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	auth     authUsecaser
	recovery recoveryUsecaser
	cookie   CookieConfig
	logger   *slog.Logger
}

func NewAuthHandler(auth authUsecaser, recovery recoveryUsecaser, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		recovery: recovery,
		cookie:   cookie,
		logger:   logger.With("component", "auth_handler"),
	}
}

type identityResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{
		ID:        i.ID,
		Username:  i.Username,
		Email:     i.Email,
		Image:     i.ImageURL,
		CreatedAt: i.CreatedAt,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	identity, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Secret:   req.Password,
	})
	if err != nil {
		respondError(c, h.logger, "signup", err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    toIdentityResponse(identity),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/login
// Sets the session cookie and also returns the token for bearer use.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	h.setSessionCookie(c, res.Token, int(h.cookie.TTL.Seconds()))
	respondOK(c, http.StatusOK, gin.H{
		"message":    "Logged in successfully",
		"user":       toIdentityResponse(res.Identity),
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := middleware.SessionToken(c, h.cookie.Name)
	if err := h.auth.Logout(c.Request.Context(), raw); err != nil {
		// The cookie is still cleared; revocation failure only affects copies elsewhere.
		h.logger.ErrorContext(c.Request.Context(), "revoke sessions on logout", "error", err)
	}

	h.setSessionCookie(c, "", -1)
	respondOK(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// POST /api/v1/auth/verify-session-token
// The token comes from the body, else the Authorization header or cookie.
func (h *AuthHandler) VerifySessionToken(c *gin.Context) {
	var req verifyTokenRequest
	// An empty body is allowed; the token then comes from the header or cookie.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c)
		return
	}

	raw := req.Token
	if raw == "" {
		raw = middleware.SessionToken(c, h.cookie.Name)
	}
	if raw == "" {
		respondError(c, h.logger, "verify session token", domain.ErrUnauthenticated)
		return
	}

	identity, err := h.auth.Authenticate(c.Request.Context(), raw)
	if err != nil {
		respondError(c, h.logger, "verify session token", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"valid": true, "user": toIdentityResponse(identity)})
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

// POST /api/v1/auth/send-otp
// Returns once the code is stored; the email goes out in the background.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	if err := h.recovery.SendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, "send otp", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"message": "OTP sent to email"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// POST /api/v1/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	recoveryToken, err := h.recovery.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, h.logger, "verify otp", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"message": "OTP verified", "tempToken": recoveryToken})
}

type resetPasswordRequest struct {
	TempToken   string `json:"tempToken"`
	NewPassword string `json:"newPassword"`
}

// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	if err := h.recovery.ResetPassword(c.Request.Context(), req.TempToken, req.NewPassword); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// GET /dashboard
// Interactive route; the redirect Guard has already resolved the identity.
func (h *AuthHandler) Dashboard(c *gin.Context) {
	identity := middleware.Identity(c)
	respondOK(c, http.StatusOK, gin.H{"user": toIdentityResponse(identity)})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
