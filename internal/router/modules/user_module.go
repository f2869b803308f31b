package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-service/internal/interface/http"
	"github.com/oksasatya/user-service/internal/interface/middleware"
)

// Limit policy names; they appear in Redis keys and 429 messages.
const (
	PolicyUsersCreate = "users:create"
	PolicyUsersRead   = "users:read"
)

// UserModule wires user HTTP handlers into routes:
// POST /api/users, GET /api/users, GET /api/users/:id, GET /api/users/email/:email
type UserModule struct {
	Handler      *handlers.UserHandler
	Limiter      *middleware.Limiter
	CreatePerMin int
	ReadPerMin   int
}

func NewUserModule(h *handlers.UserHandler, limiter *middleware.Limiter, createPerMin, readPerMin int) *UserModule {
	return &UserModule{Handler: h, Limiter: limiter, CreatePerMin: createPerMin, ReadPerMin: readPerMin}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	create := m.Limiter.Handler(middleware.Policy{Name: PolicyUsersCreate, Limit: m.CreatePerMin, Window: time.Minute})
	read := m.Limiter.Handler(middleware.Policy{Name: PolicyUsersRead, Limit: m.ReadPerMin, Window: time.Minute})

	users := rg.Group("/users")
	users.POST("", create, m.Handler.Create)
	users.GET("", read, m.Handler.List)
	users.GET("/:id", read, m.Handler.GetByID)
	users.GET("/email/:email", read, m.Handler.GetByEmail)
}
