package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-service/internal/interface/middleware"
)

const PolicyDebugVars = "debug:vars"

type DebugModule struct {
	Limiter *middleware.Limiter
}

func NewDebugModule(limiter *middleware.Limiter) *DebugModule { return &DebugModule{Limiter: limiter} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar counters; private networks are not limited
	rl := m.Limiter.Handler(middleware.Policy{
		Name:   PolicyDebugVars,
		Limit:  120,
		Window: time.Minute,
		Allow:  middleware.AllowPrivateIP(),
	})
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
