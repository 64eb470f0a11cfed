package bootstrap

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/reloop-app/reloop-backend/internal/api/http"
	"github.com/reloop-app/reloop-backend/internal/api/http/middleware"
	"github.com/reloop-app/reloop-backend/internal/auth"
	authmw "github.com/reloop-app/reloop-backend/internal/auth/middleware"
	dashboardhttp "github.com/reloop-app/reloop-backend/internal/dashboard/http"
	itemshttp "github.com/reloop-app/reloop-backend/internal/items/http"
	usershttp "github.com/reloop-app/reloop-backend/internal/users/http"
	webhookshttp "github.com/reloop-app/reloop-backend/internal/webhooks/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
	DB             httpapi.Pinger
	Verifier       auth.Verifier
	Limiter        *middleware.IPRateLimiter
	Items          *itemshttp.Handler
	Webhooks       *webhookshttp.Handler
	Dashboard      *dashboardhttp.Handler
	Users          *usershttp.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")
	requireAuth := authmw.RequireAuth(dep.Verifier)

	limit := func(c *gin.Context) { c.Next() }
	if dep.Limiter != nil {
		limit = dep.Limiter.Middleware()
	}

	dep.Items.Register(api.Group("/items"), requireAuth, limit)

	account := api.Group("/auth")
	dep.Webhooks.Register(account)
	dep.Users.RegisterAccount(account, requireAuth)

	// get-user-details is public; the rest of the dashboard is per caller.
	dashboard := api.Group("/dashboard")
	dep.Users.RegisterDirectory(dashboard, limit)
	dep.Dashboard.Register(dashboard.Group("", requireAuth))

	return r
}
