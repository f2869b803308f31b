package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-service/internal/application"
	"github.com/oksasatya/user-service/internal/infrastructure/memory"
	"github.com/oksasatya/user-service/internal/infrastructure/messaging"
	handlers "github.com/oksasatya/user-service/internal/interface/http"
	"github.com/oksasatya/user-service/internal/interface/middleware"
	"github.com/oksasatya/user-service/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validation.Init()
	os.Exit(m.Run())
}

type outbox struct {
	mu     sync.Mutex
	keys   []string
	bodies []any
}

func (o *outbox) PublishJSON(_ context.Context, routingKey string, body any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keys = append(o.keys, routingKey)
	o.bodies = append(o.bodies, body)
	return nil
}

func newEngine(t *testing.T, health func(context.Context) error, opts ...func(*Deps)) (*gin.Engine, *outbox) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	box := &outbox{}
	svc := application.NewService(memory.NewUserRepository(), messaging.NewUserEventPublisher(box, "", logger), logger)

	r := gin.New()
	require.NoError(t, middleware.ConfigureClientIP(r, nil, ""))
	r.Use(middleware.RequestIDMiddleware())
	reg := NewRegistry(r)
	reg.Use(middleware.RealIP())
	deps := Deps{
		UserHandler:  handlers.NewUserHandler(svc, logger),
		Logger:       logger,
		DebugMetrics: true,
		Health:       health,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	InitModules(reg, deps)
	reg.RegisterAll()
	return r, box
}

func call(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserRoutes_EndToEnd(t *testing.T) {
	r, box := newEngine(t, nil)
	body := `{"firstName":"Ana","lastName":"Diaz","email":"Ana@X.com"}`

	w := call(r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		RequestID string `json:"request_id"`
		Data      struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "ana@x.com", created.Data.Email)
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), created.RequestID)
	assert.Equal(t, []string{"user.created"}, box.keys)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users/"+created.Data.ID, "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users/email/ana@x.com", "").Code)
	assert.Equal(t, http.StatusConflict, call(r, http.MethodPost, "/api/users", body).Code)
	assert.Len(t, box.keys, 1)

	w = call(r, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
}

func TestDebugVars(t *testing.T) {
	r, _ := newEngine(t, nil)

	w := call(r, http.MethodGet, "/api/debug/vars", "")

	require.Equal(t, http.StatusOK, w.Code)
	var vars map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	assert.Contains(t, vars, "users_created")
	assert.Contains(t, vars, "users_duplicate_rejected")
	assert.Contains(t, vars, "user_events_publish_failed")
}

func TestUserRoutes_RateLimitedPerPolicy(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r, _ := newEngine(t, nil, func(d *Deps) {
		d.Redis = rdb
		d.CreatePerMin = 1
		d.ReadPerMin = 2
	})

	body := `{"firstName":"Ana","lastName":"Diaz","email":"ana@x.com"}`
	require.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/api/users", body).Code)
	w := call(r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "users:create")

	// reads have their own budget
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(r, http.MethodGet, "/api/users", "").Code)
}

func TestHealthRoutes(t *testing.T) {
	r, _ := newEngine(t, nil)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/readyz", "").Code)

	down, _ := newEngine(t, func(context.Context) error { return errors.New("db down") })
	assert.Equal(t, http.StatusOK, call(down, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, call(down, http.MethodGet, "/readyz", "").Code)
}
