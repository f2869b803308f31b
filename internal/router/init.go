package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/user-service/internal/interface/http"
	"github.com/oksasatya/user-service/internal/interface/middleware"
	"github.com/oksasatya/user-service/internal/router/modules"
)

// Deps are the already constructed collaborators route modules need.
type Deps struct {
	UserHandler *handlers.UserHandler
	Redis       *redis.Client // nil disables rate limiting
	Logger      *logrus.Logger

	CreatePerMin int
	ReadPerMin   int

	DebugMetrics bool
	Health       modules.HealthCheck
}

// InitModules registers every feature module. Call once during startup, before RegisterAll.
func InitModules(r *Registry, d Deps) {
	limiter := middleware.NewLimiter(d.Redis, "rl", d.Logger)
	r.Add(modules.NewUserModule(d.UserHandler, limiter, d.CreatePerMin, d.ReadPerMin))
	if d.DebugMetrics {
		r.Add(modules.NewDebugModule(limiter))
	}
	r.AddRoot(modules.NewHealthModule(d.Health))
}
