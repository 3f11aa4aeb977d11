package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/transport/http/handler"
	"github.com/ErlanBelekov/notes-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

const cookieName = "notes_session"

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	signup       func(ctx context.Context, input usecase.SignupInput) (*domain.Identity, error)
	login        func(ctx context.Context, email, secret string) (*usecase.LoginResult, error)
	authenticate func(ctx context.Context, raw string) (*domain.Identity, error)
	logout       func(ctx context.Context, raw string) error
}

func (f *fakeAuthUsecase) Signup(ctx context.Context, input usecase.SignupInput) (*domain.Identity, error) {
	return f.signup(ctx, input)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, email, secret string) (*usecase.LoginResult, error) {
	return f.login(ctx, email, secret)
}

func (f *fakeAuthUsecase) Authenticate(ctx context.Context, raw string) (*domain.Identity, error) {
	return f.authenticate(ctx, raw)
}

func (f *fakeAuthUsecase) Logout(ctx context.Context, raw string) error {
	return f.logout(ctx, raw)
}

type fakeRecoveryUsecase struct {
	sendOTP       func(ctx context.Context, email string) error
	verifyOTP     func(ctx context.Context, email, code string) (string, error)
	resetPassword func(ctx context.Context, recoveryToken, newSecret string) error
}

func (f *fakeRecoveryUsecase) SendOTP(ctx context.Context, email string) error {
	return f.sendOTP(ctx, email)
}

func (f *fakeRecoveryUsecase) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	return f.verifyOTP(ctx, email, code)
}

func (f *fakeRecoveryUsecase) ResetPassword(ctx context.Context, recoveryToken, newSecret string) error {
	return f.resetPassword(ctx, recoveryToken, newSecret)
}

var alice = &domain.Identity{
	ID:         "11111111-1111-1111-1111-111111111111",
	Username:   "alice",
	Email:      "alice@example.com",
	SecretHash: "$2a$04$not-a-real-hash",
	CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

func newAuthEngine(auth *fakeAuthUsecase, recovery *fakeRecoveryUsecase) *gin.Engine {
	h := handler.NewAuthHandler(auth, recovery, handler.CookieConfig{Name: cookieName, TTL: time.Hour}, discardLogger())

	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/verify-session-token", h.VerifySessionToken)
	r.POST("/auth/send-otp", h.SendOTP)
	r.POST("/auth/verify-otp", h.VerifyOTP)
	r.POST("/auth/reset-password", h.ResetPassword)
	return r
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ---- Signup ----

func TestSignup_InvalidJSON_Returns400(t *testing.T) {
	w := httptest.NewRecorder()
	newAuthEngine(&fakeAuthUsecase{}, nil).ServeHTTP(w, postJSON("/auth/signup", `{bad json}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestSignup_DuplicateEmail_Returns400WithMessage(t *testing.T) {
	auth := &fakeAuthUsecase{
		signup: func(_ context.Context, _ usecase.SignupInput) (*domain.Identity, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(auth, nil).ServeHTTP(w, postJSON("/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Email already exists" {
		t.Errorf("message = %v", msg)
	}
}

func TestSignup_Success_Returns201WithoutSecret(t *testing.T) {
	var got usecase.SignupInput
	auth := &fakeAuthUsecase{
		signup: func(_ context.Context, input usecase.SignupInput) (*domain.Identity, error) {
			got = input
			return alice, nil
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(auth, nil).ServeHTTP(w, postJSON("/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" || got.Secret != "hunter22" {
		t.Errorf("usecase input = %+v", got)
	}
	if strings.Contains(w.Body.String(), alice.SecretHash) {
		t.Error("response leaks the secret hash")
	}
	user, _ := decode(t, w)["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Errorf("user = %v", user)
	}
}

// ---- Login ----

func TestLogin_InvalidCredentials_Returns401(t *testing.T) {
	auth := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (*usecase.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(auth, nil).ServeHTTP(w, postJSON("/auth/login", `{"email":"a@b.co","password":"nope"}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if findCookie(w, cookieName) != nil {
		t.Error("failed login must not set a session cookie")
	}
}

func TestLogin_StoreFailure_Returns500WithoutDetails(t *testing.T) {
	auth := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (*usecase.LoginResult, error) {
			return nil, errors.New("db down")
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(auth, nil).ServeHTTP(w, postJSON("/auth/login", `{"email":"a@b.co","password":"pw"}`))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Errorf("body %q leaks the internal error", w.Body.String())
	}
}

func TestLogin_Success_SetsHttpOnlyCookie(t *testing.T) {
	auth := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (*usecase.LoginResult, error) {
			return &usecase.LoginResult{Identity: alice, Token: "session.jwt.value", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(auth, nil).ServeHTTP(w, postJSON("/auth/login", `{"email":"alice@example.com","password":"hunter22"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cookie := findCookie(w, cookieName)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "session.jwt.value" || !cookie.HttpOnly {
		t.Errorf("cookie = %+v", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("cookie MaxAge = %d, want 3600", cookie.MaxAge)
	}
	if tok := decode(t, w)["token"]; tok != "session.jwt.value" {
		t.Errorf("token = %v", tok)
	}
}

// ---- Logout ----

func TestLogout_RevokesCookieTokenAndClearsCookie(t *testing.T) {
	var revoked string
	auth := &fakeAuthUsecase{
		logout: func(_ context.Context, raw string) error {
			revoked = raw
			return nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "session.jwt.value"})
	newAuthEngine(auth, nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if revoked != "session.jwt.value" {
		t.Errorf("revoked %q, want the cookie token", revoked)
	}
	cookie := findCookie(w, cookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cookie)
	}
}

func TestLogout_RevocationFailure_StillClearsCookie(t *testing.T) {
	auth := &fakeAuthUsecase{
		logout: func(_ context.Context, _ string) error { return errors.New("redis down") },
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer session.jwt.value")
	newAuthEngine(auth, nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if findCookie(w, cookieName) == nil {
		t.Error("expected a clearing Set-Cookie")
	}
}

// ---- VerifySessionToken ----

func TestVerifySessionToken_NoToken_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	newAuthEngine(&fakeAuthUsecase{}, nil).ServeHTTP(w, postJSON("/auth/verify-session-token", `{}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestVerifySessionToken_BodyTokenWinsOverCookie(t *testing.T) {
	var seen string
	auth := &fakeAuthUsecase{
		authenticate: func(_ context.Context, raw string) (*domain.Identity, error) {
			seen = raw
			return alice, nil
		},
	}
	w := httptest.NewRecorder()
	req := postJSON("/auth/verify-session-token", `{"token":"from-body"}`)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"})
	newAuthEngine(auth, nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if seen != "from-body" {
		t.Errorf("authenticated %q, want from-body", seen)
	}
	if valid := decode(t, w)["valid"]; valid != true {
		t.Errorf("valid = %v", valid)
	}
}

func TestVerifySessionToken_CookieFallback(t *testing.T) {
	auth := &fakeAuthUsecase{
		authenticate: func(_ context.Context, raw string) (*domain.Identity, error) {
			if raw != "from-cookie" {
				return nil, domain.ErrUnauthenticated
			}
			return alice, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-session-token", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"})
	newAuthEngine(auth, nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestVerifySessionToken_MalformedBody_Returns400(t *testing.T) {
	auth := &fakeAuthUsecase{
		authenticate: func(_ context.Context, _ string) (*domain.Identity, error) {
			t.Error("Authenticate must not be called for a malformed body")
			return alice, nil
		},
	}
	w := httptest.NewRecorder()
	req := postJSON("/auth/verify-session-token", `{"token":`)
	// A valid cookie does not rescue a body that failed to parse.
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"})
	newAuthEngine(auth, nil).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["success"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestVerifySessionToken_EmptyJSONBody_FallsBackToCookie(t *testing.T) {
	auth := &fakeAuthUsecase{
		authenticate: func(_ context.Context, raw string) (*domain.Identity, error) {
			if raw != "from-cookie" {
				return nil, domain.ErrUnauthenticated
			}
			return alice, nil
		},
	}
	w := httptest.NewRecorder()
	req := postJSON("/auth/verify-session-token", "")
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"})
	newAuthEngine(auth, nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// ---- Recovery ----

func TestSendOTP_UnknownEmail_Returns404(t *testing.T) {
	recovery := &fakeRecoveryUsecase{
		sendOTP: func(_ context.Context, _ string) error { return domain.ErrUserNotFound },
	}
	w := httptest.NewRecorder()
	newAuthEngine(nil, recovery).ServeHTTP(w, postJSON("/auth/send-otp", `{"email":"ghost@example.com"}`))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSendOTP_Success_Returns200(t *testing.T) {
	var sentTo string
	recovery := &fakeRecoveryUsecase{
		sendOTP: func(_ context.Context, email string) error {
			sentTo = email
			return nil
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(nil, recovery).ServeHTTP(w, postJSON("/auth/send-otp", `{"email":"alice@example.com"}`))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if sentTo != "alice@example.com" {
		t.Errorf("sendOTP email = %q", sentTo)
	}
}

func TestVerifyOTP_Expired_Returns400(t *testing.T) {
	recovery := &fakeRecoveryUsecase{
		verifyOTP: func(_ context.Context, _, _ string) (string, error) {
			return "", domain.ErrOTPInvalidOrExpired
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(nil, recovery).ServeHTTP(w, postJSON("/auth/verify-otp", `{"email":"alice@example.com","otp":"000000"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Invalid or expired OTP" {
		t.Errorf("message = %v", msg)
	}
}

func TestVerifyOTP_Success_ReturnsTempToken(t *testing.T) {
	recovery := &fakeRecoveryUsecase{
		verifyOTP: func(_ context.Context, email, code string) (string, error) {
			if email != "alice@example.com" || code != "123456" {
				return "", domain.ErrOTPInvalidOrExpired
			}
			return "recovery.jwt.value", nil
		},
	}
	w := httptest.NewRecorder()
	newAuthEngine(nil, recovery).ServeHTTP(w, postJSON("/auth/verify-otp", `{"email":"alice@example.com","otp":"123456"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if tok := decode(t, w)["tempToken"]; tok != "recovery.jwt.value" {
		t.Errorf("tempToken = %v", tok)
	}
}

func TestResetPassword_MapsTokenErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", domain.ErrRecoveryTokenInvalid, http.StatusBadRequest},
		{"expired", domain.ErrRecoveryTokenExpired, http.StatusBadRequest},
		{"weak secret", domain.ErrSecretTooShort, http.StatusBadRequest},
		{"unknown user", domain.ErrUserNotFound, http.StatusNotFound},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
		{"ok", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recovery := &fakeRecoveryUsecase{
				resetPassword: func(_ context.Context, _, _ string) error { return tc.err },
			}
			w := httptest.NewRecorder()
			newAuthEngine(nil, recovery).ServeHTTP(w, postJSON("/auth/reset-password",
				`{"tempToken":"recovery.jwt.value","newPassword":"new-secret"}`))

			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
