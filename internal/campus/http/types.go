package http

import (
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/service"
)

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty" example:"1h23m45s"`
	Version string        `json:"version,omitempty" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency the bot needs to be useful.
type HealthChecks struct {
	Database string                 `json:"database" example:"ok"`
	Snapshot string                 `json:"snapshot" example:"ok"`
	Stats    *service.SnapshotStats `json:"stats,omitempty"`
}

// CampusResponse is the current campus snapshot.
type CampusResponse struct {
	SnapshotID     string        `json:"snapshot_id,omitempty" example:"01JNPZ8S5T6V7W8X9Y0Z1A2B3C"`
	CapturedAt     *time.Time    `json:"captured_at,omitempty"`
	Present        int           `json:"present" example:"42"`
	FailedClusters []string      `json:"failed_clusters,omitempty"`
	Clusters       []ClusterView `json:"clusters"`
}

// ClusterView lists the participants of one cluster, sorted by login.
type ClusterView struct {
	ID           string                      `json:"id" example:"36621"`
	Code         string                      `json:"code" example:"ay"`
	Floor        string                      `json:"floor" example:"2nd Floor"`
	Participants []domain.ClusterParticipant `json:"participants"`
}
