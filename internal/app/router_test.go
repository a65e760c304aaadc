package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/observability"
	"github.com/odyssey-erp/brandstock/internal/rbac"
	"github.com/odyssey-erp/brandstock/internal/shared"
	"github.com/odyssey-erp/brandstock/internal/users"
)

type userTable map[uuid.UUID]users.User

func (t userTable) FindActive(ctx context.Context, id uuid.UUID) (users.User, error) {
	u, ok := t[id]
	if !ok || !u.Usable() {
		return users.User{}, shared.NotFound("id", "user")
	}
	return u, nil
}

func (t userTable) FindAny(ctx context.Context, id uuid.UUID) (users.User, error) {
	u, ok := t[id]
	if !ok {
		return users.User{}, shared.NotFound("id", "user")
	}
	return u, nil
}

func (t userTable) ListActive(ctx context.Context, vis brandscope.Visibility) ([]users.User, error) {
	out := []users.User{}
	for _, u := range t {
		if u.Usable() && (vis.All || (u.BrandID.Valid && vis.Includes(u.BrandID.UUID))) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (t userTable) Insert(ctx context.Context, u users.User) error {
	t[u.ID] = u
	return nil
}

func (t userTable) SoftDelete(ctx context.Context, id uuid.UUID) error {
	delete(t, id)
	return nil
}

type routerFixture struct {
	handler  http.Handler
	sessions *shared.SessionManager
	manager  users.User
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	brand := uuid.New()
	manager := users.User{
		ID:       uuid.New(),
		Email:    "manager@example.com",
		Role:     brandscope.RoleBrandManager,
		BrandID:  uuid.NullUUID{UUID: brand, Valid: true},
		IsActive: true,
	}
	service := users.NewService(userTable{manager.ID: manager})
	mw := rbac.Middleware{Actors: service, Logger: logger}
	sessions := shared.NewSessionManager(client, "brandstock_session", "test-secret", time.Hour, false)

	handler := NewRouter(RouterParams{
		Logger:         logger,
		Config:         &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, AppRateLimit: 1000},
		SessionManager: sessions,
		RBACMiddleware: mw,
		UsersHandler:   users.NewHandler(logger, service, mw),
		Metrics:        observability.NewMetrics(),
	})
	return routerFixture{handler: handler, sessions: sessions, manager: manager}
}

func (f routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthzAndSecurityHeaders(t *testing.T) {
	f := newRouterFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestAPIRequiresSession(t *testing.T) {
	f := newRouterFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	require.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestAPIAcceptsIssuedToken(t *testing.T) {
	f := newRouterFixture(t)
	token, err := f.sessions.Issue(context.Background(), f.manager.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), f.manager.Email)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "brandstock_session", Value: token})
	require.Equal(t, http.StatusOK, f.do(req).Code)
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	f := newRouterFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")

	rr = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "brandstock_http_requests_total")
}
