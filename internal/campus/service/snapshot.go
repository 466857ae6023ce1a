package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/pkg/idx"
	"github.com/aussiebroadwan/campusbot/pkg/s21"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMinInterval  = 30 * time.Second
	DefaultMaxInterval  = 5 * time.Minute
	DefaultFetchTimeout = 20 * time.Second
)

// TokenProvider hands out upstream access tokens. *s21.TokenSource implements it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// ClusterFetcher reads one cluster's seat map. *s21.Client implements it.
type ClusterFetcher interface {
	ClusterMap(ctx context.Context, token, clusterID string) ([]s21.Seat, error)
}

// SnapshotSource is what readers of campus presence depend on.
type SnapshotSource interface {
	Get(ctx context.Context, force bool) *domain.CampusSnapshot
}

type SnapshotConfig struct {
	MinInterval  time.Duration // refresh attempts closer than this are coalesced
	MaxInterval  time.Duration // snapshots older than this are always refreshed
	FetchTimeout time.Duration // upper bound for a single cluster fetch
}

// SnapshotCache holds the last campus snapshot. A single gate serialises
// refresh decisions so bursts of readers cost at most one upstream fan-out;
// the gate doubles as the upstream rate limit.
type SnapshotCache struct {
	Tokens   TokenProvider
	Fetcher  ClusterFetcher
	Clusters []domain.Cluster
	Logger   *slog.Logger
	Config   SnapshotConfig
	Now      func() time.Time

	gate        chan struct{}
	lastAttempt time.Time // guarded by gate
	current     atomic.Pointer[domain.CampusSnapshot]
	refreshes   atomic.Int64
}

func NewSnapshotCache(
	tokens TokenProvider,
	fetcher ClusterFetcher,
	clusters []domain.Cluster,
	logger *slog.Logger,
	cfg SnapshotConfig,
) *SnapshotCache {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	return &SnapshotCache{
		Tokens:   tokens,
		Fetcher:  fetcher,
		Clusters: clusters,
		Logger:   logger,
		Config:   cfg,
		Now:      time.Now,
		gate:     make(chan struct{}, 1),
	}
}

// Get returns the best snapshot available. It never fails: when the upstream
// is unreachable the previous (possibly empty) snapshot is returned.
//
// Under the gate:
//   - an attempt less than MinInterval ago, by any caller, is reused;
//   - unforced reads reuse a snapshot no older than MaxInterval;
//   - everything else refreshes.
//
// ctx bounds only the wait for the gate. A refresh, once started, runs to
// completion under FetchTimeout even if the caller goes away.
func (c *SnapshotCache) Get(ctx context.Context, force bool) *domain.CampusSnapshot {
	select {
	case c.gate <- struct{}{}:
	case <-ctx.Done():
		return orEmpty(c.current.Load())
	}
	defer func() { <-c.gate }()

	now := c.Now()
	cur := c.current.Load()

	if !c.lastAttempt.IsZero() && now.Sub(c.lastAttempt) < c.Config.MinInterval {
		c.Logger.Debug("campus snapshot reused, recent refresh",
			"since_last_refresh", now.Sub(c.lastAttempt))
		return orEmpty(cur)
	}

	if !force && cur != nil && cur.Age(now) <= c.Config.MaxInterval {
		return cur
	}

	c.lastAttempt = now
	return c.refresh(context.WithoutCancel(ctx), now, cur)
}

// Current returns the last snapshot without touching the gate. Nil before
// the first successful refresh.
func (c *SnapshotCache) Current() *domain.CampusSnapshot {
	return c.current.Load()
}

// Refreshes counts snapshots built so far.
func (c *SnapshotCache) Refreshes() int64 {
	return c.refreshes.Load()
}

// SnapshotStats is a point-in-time view of the cache for operators.
type SnapshotStats struct {
	SnapshotID     string    `json:"snapshot_id,omitempty"`
	CapturedAt     time.Time `json:"captured_at,omitempty"`
	Present        int       `json:"present"`
	FailedClusters []string  `json:"failed_clusters,omitempty"`
	Refreshes      int64     `json:"refreshes"`
	TokenRefreshes int64     `json:"token_refreshes"`
}

func (c *SnapshotCache) Stats() SnapshotStats {
	stats := SnapshotStats{Refreshes: c.refreshes.Load()}
	if r, ok := c.Tokens.(interface{ Refreshes() int64 }); ok {
		stats.TokenRefreshes = r.Refreshes()
	}
	if snap := c.current.Load(); snap != nil {
		stats.SnapshotID = snap.ID
		stats.CapturedAt = snap.CapturedAt
		stats.Present = snap.Count()
		stats.FailedClusters = snap.Failed
	}
	return stats
}

func (c *SnapshotCache) refresh(ctx context.Context, now time.Time, prev *domain.CampusSnapshot) *domain.CampusSnapshot {
	tokenCtx, cancel := context.WithTimeout(ctx, c.Config.FetchTimeout)
	token, err := c.Tokens.Token(tokenCtx)
	cancel()
	if err != nil {
		c.Logger.Warn("campus refresh skipped, no upstream token", "error", err)
		return orEmpty(prev)
	}

	seats := make([][]s21.Seat, len(c.Clusters))
	errs := make([]error, len(c.Clusters))

	var g errgroup.Group
	for i, cluster := range c.Clusters {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, c.Config.FetchTimeout)
			defer cancel()

			seats[i], errs[i] = c.Fetcher.ClusterMap(fetchCtx, token, cluster.ID)
			return nil
		})
	}
	_ = g.Wait()

	clusters := make(map[string][]domain.ClusterParticipant, len(c.Clusters))
	var failed []string
	unauthorized := false

	for i, cluster := range c.Clusters {
		if errs[i] != nil {
			failed = append(failed, cluster.ID)
			unauthorized = unauthorized || s21.IsUnauthorized(errs[i])
			c.Logger.Warn("cluster fetch failed", "cluster_id", cluster.ID, "error", errs[i])
			continue
		}
		clusters[cluster.ID] = participantsOf(cluster, seats[i])
	}

	if unauthorized {
		c.Tokens.Invalidate()
	}

	if len(failed) > 0 && len(failed) == len(c.Clusters) {
		c.Logger.Error("campus refresh failed for every cluster, keeping previous snapshot")
		return orEmpty(prev)
	}

	snap := domain.NewCampusSnapshot(idx.NewAt(now).String(), clusters, failed, now)
	c.current.Store(snap)
	c.refreshes.Add(1)

	c.Logger.Info("campus snapshot refreshed",
		"snapshot_id", snap.ID,
		"present", snap.Count(),
		"failed_clusters", failed,
	)
	return snap
}

func participantsOf(cluster domain.Cluster, seats []s21.Seat) []domain.ClusterParticipant {
	participants := make([]domain.ClusterParticipant, 0, len(seats))
	for _, seat := range seats {
		if seat.Login == "" {
			continue
		}
		participants = append(participants, domain.ClusterParticipant{
			Login:       seat.Login,
			Row:         seat.Row.String(),
			Number:      seat.Number.String(),
			ClusterID:   cluster.ID,
			ClusterCode: cluster.Code,
		})
	}
	return participants
}

func orEmpty(s *domain.CampusSnapshot) *domain.CampusSnapshot {
	if s == nil {
		return domain.EmptySnapshot()
	}
	return s
}
