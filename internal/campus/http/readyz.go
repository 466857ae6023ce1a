package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/aussiebroadwan/campusbot/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Checks database connectivity and that at least one campus snapshot has been captured.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store, snapshots SnapshotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := snapshots.Stats()
		checks := &HealthChecks{
			Database: "ok",
			Snapshot: "ok",
			Stats:    &stats,
		}
		status, code := "ok", http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		if stats.SnapshotID == "" {
			checks.Snapshot = "error: no campus snapshot captured yet"
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Truncate(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
