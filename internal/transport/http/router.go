package http

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devconnect-api/internal/application/message"
	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/application/post"
	"github.com/devconnect-api/internal/application/resource"
	"github.com/devconnect-api/internal/application/search"
	"github.com/devconnect-api/internal/application/user"
	"github.com/devconnect-api/internal/config"
	jwtinfra "github.com/devconnect-api/internal/infrastructure/jwt"
	"github.com/devconnect-api/internal/realtime"
	"github.com/devconnect-api/internal/transport/http/handler"
	appmiddleware "github.com/devconnect-api/internal/transport/http/middleware"
	"github.com/devconnect-api/internal/transport/ws"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	PostRepo         PostRepository
	ResourceRepo     ResourceRepository
	NotificationRepo NotificationRepository
	MessageRepo      MessageRepository
	ObjectStore      ObjectStore

	// JWTProvider may be nil in development; requests then identify
	// themselves with the X-User-ID header.
	JWTProvider *jwtinfra.Provider
	Relay       *realtime.Relay

	// WriteLimiter throttles mutating endpoints. Nil disables limiting.
	WriteLimiter *appmiddleware.RateLimiter

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
	// AccessLog receives one line per request. Defaults to stdout.
	AccessLog io.Writer

	// RegisterOnShutdown, when set, receives a hook that closes live
	// websocket sessions. Pass (*http.Server).RegisterOnShutdown.
	RegisterOnShutdown func(func())
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	httpMetrics := appmiddleware.NewHTTPMetrics(deps.Registerer)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}
	r.Use(appmiddleware.AccessLog(accessLog))
	r.Use(chimiddleware.Recoverer)
	r.Use(httpMetrics.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.DevUserHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var (
		authMw   func(http.Handler) http.Handler
		verifier ws.TokenVerifier
	)
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		verifier = deps.JWTProvider
	} else {
		log.Warn("no JWT provider configured; trusting X-User-ID header")
		authMw = appmiddleware.DevAuth
	}

	limitWrites := func(next http.Handler) http.Handler { return next }
	if deps.WriteLimiter != nil {
		limitWrites = deps.WriteLimiter.Limit
	}

	notifSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		UserRepo:         deps.UserRepo,
		Relay:            deps.Relay,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:     deps.UserRepo,
		PostRepo:     deps.PostRepo,
		ResourceRepo: deps.ResourceRepo,
		Notifier:     notifSvc,
		Logger:       log,
	})
	postSvc := post.NewService(post.ServiceDeps{
		PostRepo:      deps.PostRepo,
		UserRepo:      deps.UserRepo,
		ObjectStore:   deps.ObjectStore,
		Notifier:      notifSvc,
		Logger:        log,
		MaxImageBytes: cfg.MaxImageBytes,
	})
	resourceSvc := resource.NewService(resource.ServiceDeps{
		ResourceRepo:   deps.ResourceRepo,
		UserRepo:       deps.UserRepo,
		ObjectStore:    deps.ObjectStore,
		Notifier:       notifSvc,
		Logger:         log,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	searchSvc := search.NewService(search.ServiceDeps{
		UserRepo:     deps.UserRepo,
		PostRepo:     deps.PostRepo,
		ResourceRepo: deps.ResourceRepo,
	})
	messageSvc := message.NewService(message.ServiceDeps{
		MessageRepo: deps.MessageRepo,
		UserRepo:    deps.UserRepo,
		Relay:       deps.Relay,
	})

	healthH := handler.NewHealthHandler(deps.Relay.Registry())
	postH := handler.NewPostHandler(postSvc, cfg.MaxImageBytes)
	resourceH := handler.NewResourceHandler(resourceSvc, cfg.MaxUploadBytes)
	userH := handler.NewUserHandler(userSvc)
	searchH := handler.NewSearchHandler(searchSvc)
	messageH := handler.NewMessageHandler(messageSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	socketH := ws.NewHandler(ws.Options{
		Registry:       deps.Relay.Registry(),
		Messages:       messageSvc,
		Verifier:       verifier,
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.WSSendBuffer,
		Logger:         log,
	})
	if deps.RegisterOnShutdown != nil {
		deps.RegisterOnShutdown(socketH.Shutdown)
	}

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Check)

		// The socket authenticates its own upgrade request.
		r.Method(http.MethodGet, "/socket", socketH)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postH.Feed)
				r.With(limitWrites).Post("/", postH.Create)
				r.Get("/{id}", postH.Get)
				r.With(limitWrites).Put("/{id}", postH.Edit)
				r.Delete("/{id}", postH.Delete)
				r.Get("/{id}/image", postH.Image)
				r.With(limitWrites).Post("/{id}/like", postH.ToggleLike)
				r.Get("/{id}/comments", postH.Comments)
				r.With(limitWrites).Post("/{id}/comments", postH.AddComment)
				r.Delete("/{id}/comments/{commentID}", postH.DeleteComment)
				r.With(limitWrites).Post("/{id}/comments/{commentID}/replies", postH.AddReply)
				r.Delete("/{id}/comments/{commentID}/replies/{replyID}", postH.DeleteReply)
			})

			r.Route("/resources", func(r chi.Router) {
				r.Get("/", resourceH.List)
				r.With(limitWrites).Post("/", resourceH.Upload)
				r.Get("/{id}", resourceH.Get)
				r.Get("/{id}/download", resourceH.Download)
				r.Delete("/{id}", resourceH.Delete)
			})

			r.Get("/profile/{id}", userH.Profile)
			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/", userH.Get)
				r.Get("/followers", userH.Followers)
				r.Get("/following", userH.Following)
				r.With(limitWrites).Post("/follow", userH.Follow)
				r.With(limitWrites).Post("/unfollow", userH.Unfollow)
			})

			r.Get("/search", searchH.Search)

			r.Route("/messages", func(r chi.Router) {
				r.With(limitWrites).Post("/", messageH.Send)
				r.Get("/conversations", messageH.Conversations)
				r.Get("/unread", messageH.UnreadCount)
				r.Delete("/item/{messageID}", messageH.Delete)
				r.Get("/{userID}", messageH.Thread)
				r.Put("/{userID}/read", messageH.MarkThreadRead)
				r.Delete("/{userID}", messageH.DeleteConversation)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notifH.List)
				r.Get("/unread", notifH.UnreadCount)
				r.Put("/read", notifH.MarkAllRead)
				r.Put("/{id}/read", notifH.MarkRead)
			})
		})
	})

	return r
}
