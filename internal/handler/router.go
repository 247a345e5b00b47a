package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/workchat/internal/config"
	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
)

// NewRouter собирает HTTP-маршруты поверх ядра. Открытые маршруты — только
// регистрация, вход и сброс пароля; всё остальное за TokenAuth.
func NewRouter(svc *core.Service, cfg *config.Config) chi.Router {
	authH := NewAuthHandler(svc)
	userH := NewUserHandler(svc)
	channelH := NewChannelHandler(svc)
	dmH := NewDMHandler(svc)
	msgH := NewMessageHandler(svc)
	adminH := NewAdminHandler(svc)
	standupH := NewStandupHandler(svc)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(middleware.RateLimitIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSAllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/api/auth/register", authH.Register)
	r.Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/password-reset/request", authH.RequestPasswordReset)
	r.Post("/api/auth/password-reset", authH.ResetPassword)

	// Раздача сохранённых аватаров.
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/static/*", fs.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenAuth(svc))
		r.Use(middleware.RateLimitUser)

		r.Post("/api/auth/logout", authH.Logout)

		r.Get("/api/users/me", userH.GetMe)
		r.Get("/api/users", userH.GetUsers)
		r.Get("/api/users/{id}", userH.GetProfile)
		r.Put("/api/users/me/name", userH.SetName)
		r.Put("/api/users/me/email", userH.SetEmail)
		r.Put("/api/users/me/handle", userH.SetHandle)
		r.Put("/api/users/me/photo", userH.SetPhoto)
		r.Get("/api/users/me/stats", userH.GetUserStats)
		r.Get("/api/users/me/notifications", userH.GetNotifications)
		r.Get("/api/workspace/stats", userH.GetWorkspaceStats)

		r.Post("/api/channels", channelH.Create)
		r.Get("/api/channels", channelH.List)
		r.Get("/api/channels/all", channelH.ListAll)
		r.Get("/api/channels/{id}", channelH.Details)
		r.Post("/api/channels/{id}/join", channelH.Join)
		r.Post("/api/channels/{id}/invite", channelH.Invite)
		r.Post("/api/channels/{id}/leave", channelH.Leave)
		r.Post("/api/channels/{id}/owners", channelH.AddOwner)
		r.Delete("/api/channels/{id}/owners", channelH.RemoveOwner)
		r.Get("/api/channels/{id}/messages", channelH.Messages)
		r.Post("/api/channels/{id}/messages", channelH.Send)
		r.Post("/api/channels/{id}/standup/start", standupH.Start)
		r.Get("/api/channels/{id}/standup", standupH.Active)
		r.Post("/api/channels/{id}/standup/send", standupH.Send)

		r.Post("/api/dms", dmH.Create)
		r.Get("/api/dms", dmH.List)
		r.Get("/api/dms/{id}", dmH.Details)
		r.Post("/api/dms/{id}/leave", dmH.Leave)
		r.Delete("/api/dms/{id}", dmH.Remove)
		r.Get("/api/dms/{id}/messages", dmH.Messages)
		r.Post("/api/dms/{id}/messages", dmH.Send)

		r.Put("/api/messages/{id}", msgH.Edit)
		r.Delete("/api/messages/{id}", msgH.Remove)
		r.Post("/api/messages/{id}/pin", msgH.Pin)
		r.Post("/api/messages/{id}/unpin", msgH.Unpin)
		r.Post("/api/messages/{id}/react", msgH.React)
		r.Post("/api/messages/{id}/unreact", msgH.Unreact)
		r.Post("/api/messages/{id}/share", msgH.Share)
		r.Get("/api/messages/search", msgH.Search)

		r.Put("/api/admin/users/{id}/tier", adminH.ChangeTier)
		r.Delete("/api/admin/users/{id}", adminH.RemoveUser)
	})

	return r
}
