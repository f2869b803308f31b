package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether a dependency the service needs is reachable.
type HealthCheck func(ctx context.Context) error

type HealthModule struct {
	Check HealthCheck
}

func NewHealthModule(check HealthCheck) *HealthModule { return &HealthModule{Check: check} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.liveness)
	rg.GET("/readyz", m.readiness)
}

func (m *HealthModule) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (m *HealthModule) readiness(c *gin.Context) {
	if m.Check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := m.Check(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
