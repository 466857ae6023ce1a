package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/service"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/aussiebroadwan/campusbot/pkg/httpx"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"

	_ "github.com/aussiebroadwan/campusbot/api/campus" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// SnapshotReader is the part of the snapshot cache the HTTP surface uses.
type SnapshotReader interface {
	Get(ctx context.Context, force bool) *domain.CampusSnapshot
	Stats() service.SnapshotStats
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	snapshots SnapshotReader
	clusters  []domain.Cluster
}

func NewRouter(
	buildVersion string,
	st store.Store,
	snapshots SnapshotReader,
	clusters []domain.Cluster,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		middlewares:  []httpx.Middleware{slogx.HTTPMiddleware(logger)},
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		snapshots:    snapshots,
		clusters:     clusters,
	}
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerCampus()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Campus Bot Operator API
//	@version		0.1.0
//	@description	Operator endpoints of the campus presence bot: health checks and the current campus snapshot.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/campusbot
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.HealthLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.snapshots),
			httpx.RateLimitByIP(httpx.HealthLimit),
		),
	)
}

func (r *Router) registerCampus() {
	r.Mux.Handle("GET /v1/campus",
		httpx.Chain(&CampusHandler{Snapshots: r.snapshots, Clusters: r.clusters},
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)
}
