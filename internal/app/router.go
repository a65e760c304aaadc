package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/odyssey-erp/brandstock/internal/audit/http"
	"github.com/odyssey-erp/brandstock/internal/inventory"
	"github.com/odyssey-erp/brandstock/internal/masterdata/brands"
	"github.com/odyssey-erp/brandstock/internal/masterdata/categories"
	"github.com/odyssey-erp/brandstock/internal/masterdata/products"
	"github.com/odyssey-erp/brandstock/internal/masterdata/stores"
	"github.com/odyssey-erp/brandstock/internal/observability"
	"github.com/odyssey-erp/brandstock/internal/platform/httpx"
	"github.com/odyssey-erp/brandstock/internal/rbac"
	"github.com/odyssey-erp/brandstock/internal/shared"
	"github.com/odyssey-erp/brandstock/internal/users"
	"github.com/odyssey-erp/brandstock/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	RBACMiddleware rbac.Middleware

	BrandsHandler     *brands.Handler
	StoresHandler     *stores.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	UsersHandler      *users.Handler
	InventoryHandler  *inventory.Handler
	AuditHandler      *audithttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything under /api/v1 requires an
// authenticated actor.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(params.RBACMiddleware.Authenticate)
		if params.BrandsHandler != nil {
			r.Route("/brands", params.BrandsHandler.MountRoutes)
		}
		if params.StoresHandler != nil {
			r.Route("/stores", params.StoresHandler.MountRoutes)
		}
		if params.CategoriesHandler != nil {
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			params.InventoryHandler.MountRoutes(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.NotFound("", "route"))
	})
	return r
}
