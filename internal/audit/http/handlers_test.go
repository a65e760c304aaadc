package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/brandstock/internal/audit"
	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.TimelineRow
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, actor brandscope.Actor, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	if !actor.IsSystemAdmin() {
		return audit.Result{}, shared.NewFieldError(shared.ErrPermissionDenied, "", shared.CodePermissionDenied, "denied")
	}
	return s.result, nil
}

func (s *stubTimelineService) Export(ctx context.Context, actor brandscope.Actor, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

func newRouter(service *stubTimelineService, actor *brandscope.Actor) http.Handler {
	handler := NewHandler(nil, service)
	handler.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if actor != nil {
				req = req.WithContext(brandscope.WithActor(req.Context(), *actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/audit", handler.MountRoutes)
	return r
}

func adminActor() *brandscope.Actor {
	return &brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleSystemAdmin}
}

func TestTimelineRequiresActor(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(&stubTimelineService{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTimelineForbiddenForManagers(t *testing.T) {
	manager := &brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleBrandManager, Brand: uuid.NullUUID{UUID: uuid.New(), Valid: true}}
	rr := httptest.NewRecorder()
	newRouter(&stubTimelineService{}, manager).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTimelineDefaultsWindow(t *testing.T) {
	rows := []audit.TimelineRow{{At: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), Action: "inventory:record.delete", Entity: "inventory_record", EntityID: "1"}}
	service := &stubTimelineService{result: audit.Result{Rows: rows, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}}
	rr := httptest.NewRecorder()
	newRouter(service, adminActor()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit?entity=inventory_record", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body audit.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	require.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), service.lastFilters.From)
	require.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), service.lastFilters.To)
	require.Equal(t, "inventory_record", service.lastFilters.Entity)
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	for _, query := range []string{
		"from=2026-03-10&to=2026-03-01",
		"from=2025-01-01&to=2026-03-01",
		"to=yesterday",
		"page=0",
		"actor=not-a-uuid",
	} {
		rr := httptest.NewRecorder()
		newRouter(&stubTimelineService{}, adminActor()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit?"+query, nil))
		require.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}

func TestExportWritesCSV(t *testing.T) {
	service := &stubTimelineService{exportRows: []audit.TimelineRow{{At: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), ActorEmail: "ops@example.com", Action: "inventory:movement.delete", Entity: "stock_movement", EntityID: "m1"}}}
	rr := httptest.NewRecorder()
	newRouter(service, adminActor()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/export.csv?from=2026-03-01&to=2026-03-15", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rr.Body.String(), "At,Actor,Action"))
	require.Contains(t, rr.Body.String(), "ops@example.com")
}

func TestExportIsRateLimited(t *testing.T) {
	router := newRouter(&stubTimelineService{}, adminActor())
	var last int
	for i := 0; i <= rateLimit; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}
