package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/transport/http/handler"
	"github.com/ErlanBelekov/notes-service/internal/transport/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// RouterConfig carries the HTTP-facing settings the router needs.
type RouterConfig struct {
	CookieName    string
	SecureCookies bool
	LoginPath     string
	CORSOrigins   []string
}

type Handlers struct {
	Auth      *handler.AuthHandler
	Notebooks *handler.NotebookHandler
	Notes     *handler.NoteHandler
}

func NewRouter(logger *slog.Logger, cfg RouterConfig, auth middleware.Authenticator, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(cfg.SecureCookies))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// cors.New panics on an empty origin list, so CORS stays off unless configured.
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiGuard := middleware.Guard(auth, cfg.CookieName, middleware.APIResponder{}, logger)
	pageGuard := middleware.Guard(auth, cfg.CookieName, middleware.RedirectResponder{LoginPath: cfg.LoginPath}, logger)

	api := r.Group("/api/v1")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", h.Auth.Signup)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.POST("/verify-session-token", h.Auth.VerifySessionToken)
	authRoutes.POST("/send-otp", h.Auth.SendOTP)
	authRoutes.POST("/verify-otp", h.Auth.VerifyOTP)
	authRoutes.POST("/reset-password", h.Auth.ResetPassword)

	notebooks := api.Group("/notebooks", apiGuard)
	notebooks.GET("", h.Notebooks.List)
	notebooks.POST("", h.Notebooks.Create)
	notebooks.GET("/all-notes", h.Notebooks.AllNotes)
	notebooks.PUT("/:id", h.Notebooks.Rename)
	notebooks.DELETE("/:id", h.Notebooks.Delete)
	notebooks.GET("/:id/notes", h.Notebooks.ListNotes)
	notebooks.POST("/:id/notes", h.Notebooks.CreateNote)
	notebooks.GET("/:id/notes/:noteId", h.Notebooks.GetNote)
	notebooks.PUT("/:id/notes/:noteId", h.Notebooks.UpdateNote)
	notebooks.DELETE("/:id/notes/:noteId", h.Notebooks.DeleteNote)

	notes := api.Group("/notes", apiGuard)
	notes.GET("", h.Notes.List)
	notes.POST("", h.Notes.Create)
	notes.GET("/shared", h.Notes.ListShared)
	notes.GET("/by-title/:title", h.Notes.NotebookByTitle)
	notes.POST("/share/:noteId", h.Notes.Share)
	notes.DELETE("/share/:noteId", h.Notes.Unshare)
	notes.GET("/:id", h.Notes.GetByID)
	notes.PUT("/:id", h.Notes.Update)
	notes.DELETE("/:id", h.Notes.Delete)

	r.GET("/dashboard", pageGuard, h.Auth.Dashboard)

	return r
}
