package http

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/pkg/httpx"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"
)

type CampusHandler struct {
	Snapshots SnapshotReader
	Clusters  []domain.Cluster
}

// ServeHTTP godoc
//
//	@Summary		Current campus snapshot
//	@Description	Returns who is on campus, grouped by cluster in configuration order.
//	@Description	With refresh=true a refresh is requested; it is still coalesced with any refresh made in the last 30 seconds.
//	@Tags			Campus
//	@Produce		json
//	@Param			refresh	query		bool			false	"request a fresh snapshot"
//	@Success		200		{object}	CampusResponse	"current snapshot"
//	@Failure		400		{object}	httpx.ErrorResponse	"invalid query"
//	@Failure		429		{object}	httpx.ErrorResponse	"rate limit exceeded"
//	@Router			/v1/campus [get].
func (h *CampusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh must be a boolean")
			return
		}
		force = v
	}

	snap := h.Snapshots.Get(r.Context(), force)
	slogx.FromContext(r.Context()).Debug("serving campus snapshot",
		"snapshot_id", snap.ID, "forced", force)

	httpx.WriteJSON(w, http.StatusOK, campusResponse(snap, h.Clusters))
}

func campusResponse(snap *domain.CampusSnapshot, clusters []domain.Cluster) CampusResponse {
	resp := CampusResponse{
		SnapshotID:     snap.ID,
		Present:        snap.Count(),
		FailedClusters: snap.Failed,
		Clusters:       make([]ClusterView, 0, len(clusters)),
	}
	if !snap.IsZero() {
		captured := snap.CapturedAt.UTC()
		resp.CapturedAt = &captured
	}

	for _, c := range clusters {
		participants := slices.Clone(snap.Clusters[c.ID])
		if participants == nil {
			participants = []domain.ClusterParticipant{}
		}
		slices.SortFunc(participants, func(a, b domain.ClusterParticipant) int {
			return strings.Compare(a.Login, b.Login)
		})
		resp.Clusters = append(resp.Clusters, ClusterView{
			ID:           c.ID,
			Code:         c.Code,
			Floor:        c.Floor,
			Participants: participants,
		})
	}
	return resp
}
