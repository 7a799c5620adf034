package main

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/notionv2/service/internal/auth"
	"github.com/notionv2/service/internal/config"
	"github.com/notionv2/service/internal/files"
	"github.com/notionv2/service/internal/health"
	appMiddleware "github.com/notionv2/service/internal/middleware"
	"github.com/notionv2/service/internal/response"
	"github.com/notionv2/service/internal/storage"
	"github.com/notionv2/service/internal/user"
)

type routerDeps struct {
	tokens appMiddleware.TokenParser
	auth   *auth.Handler
	users  *user.Handler
	files  *files.Handler
	health *health.Handler
}

func newRouter(cfg *config.Config, d routerDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.ExposeRequestID)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(appMiddleware.SecureHeaders)
	r.Use(chiMiddleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appMiddleware.RequestIDHeader, "X-File-Public"},
		ExposedHeaders:   []string{appMiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(appMiddleware.Authenticate(d.tokens))

	r.NotFound(response.NotFound)
	r.MethodNotAllowed(response.MethodNotAllowed)

	r.Route("/health", d.health.Routes)

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Only the local backend needs a public download route: its signed URLs are plain links
	// here. Remote objects are reached by their own URL or a presigned one.
	if cfg.Storage.Driver == storage.DriverLocal {
		r.Get("/uploads/*", d.files.Serve)
	}

	r.Get("/api", d.health.Index)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", d.health.Info)

		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.auth.Register)
			r.Post("/login", d.auth.Login)
		})

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", d.users.GetMe)
				r.Patch("/me", d.users.UpdateProfile)
				r.Post("/me/avatar", d.users.UploadAvatar)
			})

			d.files.Routes(r)
		})
	})

	return r
}
