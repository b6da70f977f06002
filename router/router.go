package router

import (
	"net/http"

	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/config"
	"github.com/branchbook/branchbook-api/handlers"
	"github.com/branchbook/branchbook-api/middleware"
	"github.com/branchbook/branchbook-api/services"
)

// NewRouter wires services over db and returns the complete HTTP handler.
func NewRouter(db *gorm.DB, env config.Environment) http.Handler {
	tokens := auth.NewTokenManager(env.AccessTokenSecret, env.RefreshTokenSecret, env.AccessTokenTTL, env.RefreshTokenTTL)

	h := &handlers.Handler{
		Credentials: services.NewCredentialService(db, tokens),
		Todos:       services.NewTodoService(db),
		Graph:       services.NewGraphService(db),
		Cookies: auth.CookieOptions{
			Domain:        env.Domain,
			Secure:        env.CookieSecure,
			IsDevelopment: env.IsDevelopment,
		},
		RefreshTTL: tokens.RefreshTTL(),
	}
	limiter := middleware.NewRateLimiter(env.AuthRateLimit, env.AuthRateBurst, env.TrustProxy)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /auth/register", limiter.Middleware(h.Register))
	mux.HandleFunc("POST /auth/login", limiter.Middleware(h.Login))
	mux.HandleFunc("POST /auth/refresh", limiter.Middleware(h.Refresh))
	mux.HandleFunc("POST /auth/logout", h.Logout)

	feature := http.NewServeMux()

	// Todo
	feature.HandleFunc("GET /feature/todo", h.ListTodos)
	feature.HandleFunc("GET /feature/todo/{$}", h.ListTodos)
	feature.HandleFunc("POST /feature/todo", h.CreateTodo)
	feature.HandleFunc("POST /feature/todo/{$}", h.CreateTodo)
	feature.HandleFunc("PUT /feature/todo/{id}", h.UpdateTodo)
	feature.HandleFunc("DELETE /feature/todo/{id}", h.DeleteTodo)

	// Branches
	feature.HandleFunc("GET /feature/branches", h.ListBranches)
	feature.HandleFunc("GET /feature/branches/{$}", h.ListBranches)
	feature.HandleFunc("POST /feature/branches", h.CreateBranch)
	feature.HandleFunc("POST /feature/branches/{$}", h.CreateBranch)
	feature.HandleFunc("DELETE /feature/branches/{id}", h.DeleteBranch)

	// Nodes
	feature.HandleFunc("GET /feature/branches/{id}/nodes", h.ListNodes)
	feature.HandleFunc("POST /feature/branches/{id}/nodes", h.CreateNode)
	feature.HandleFunc("PUT /feature/branches/{id}/nodes/{nodeId}", h.UpdateNode)
	feature.HandleFunc("DELETE /feature/branches/{id}/nodes/{nodeId}", h.DeleteNode)

	// Connections
	feature.HandleFunc("GET /feature/branches/{id}/connections", h.ListConnections)
	feature.HandleFunc("GET /feature/branches/{id}/connections/{$}", h.ListConnections)
	feature.HandleFunc("POST /feature/branches/{id}/connections", h.CreateConnection)

	mux.Handle("/feature/", middleware.NewSessionGuard(tokens)(feature))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   env.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(middleware.WithLogging(mux))

	return corsHandler
}
