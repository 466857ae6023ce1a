package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/aussiebroadwan/campusbot/internal/campus/store/drivers/sqlite"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func mustRegister(t *testing.T, st store.Store, id int64, login string) {
	t.Helper()
	require.NoError(t, st.Users().UpsertUser(context.Background(), domain.UserRecord{
		UserID: id,
		Login:  login,
		Name:   "Peer " + login,
	}))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticSnapshots struct {
	mu     sync.Mutex
	snap   *domain.CampusSnapshot
	forced []bool
}

func (s *staticSnapshots) Get(_ context.Context, force bool) *domain.CampusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = append(s.forced, force)
	if s.snap == nil {
		return domain.EmptySnapshot()
	}
	return s.snap
}

func (s *staticSnapshots) Set(snap *domain.CampusSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

type sentMessage struct {
	UserID int64
	Text   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail func(userID int64) error
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		if err := n.fail(userID); err != nil {
			return err
		}
	}
	n.sent = append(n.sent, sentMessage{UserID: userID, Text: text})
	return nil
}

func (n *recordingNotifier) Sent() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func snapshotWith(participants ...domain.ClusterParticipant) *domain.CampusSnapshot {
	clusters := make(map[string][]domain.ClusterParticipant)
	for _, p := range participants {
		clusters[p.ClusterID] = append(clusters[p.ClusterID], p)
	}
	return domain.NewCampusSnapshot("snap", clusters, nil, time.Now())
}

var discard = slogx.Discard()
