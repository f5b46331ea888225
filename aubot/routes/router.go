package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aubot/aubot/config"
	"aubot/aubot/controllers"
	"aubot/aubot/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Controllers struct {
	Health        *controllers.HealthController
	Conversations *controllers.ConversationController
	Chat          *controllers.ChatController
}

// NewRouter assembles the middleware stack and mounts every API route under /api.
func NewRouter(cfg config.Config, ctrls Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(cfg.UpstreamTimeout + 10*time.Second))

	r.Route("/api", func(api chi.Router) {
		api.NotFound(notFoundHandler)
		api.MethodNotAllowed(methodNotAllowedHandler)

		api.Mount("/health", HealthRoutes(ctrls.Health))
		api.Mount("/conversations", ConversationRoutes(ctrls.Conversations, cfg))
		api.Mount("/messages", MessageRoutes(ctrls.Conversations, ctrls.Chat, cfg))
		api.Mount("/chat", ChatRoutes(ctrls.Chat, cfg))
		api.Mount("/regenerate", RegenerateRoutes(ctrls.Chat, cfg))
		api.Mount("/export", ExportRoutes(ctrls.Chat, cfg))
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", spaHandler(cfg.StaticDir))
	} else {
		r.NotFound(notFoundHandler)
	}
	return r
}

// spaHandler serves files from dir and falls back to index.html so client-side
// routes resolve.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			notFoundHandler(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
