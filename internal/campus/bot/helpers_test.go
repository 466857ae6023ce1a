package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/service"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/aussiebroadwan/campusbot/internal/campus/store/drivers/sqlite"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const adminID = 1000

type fixedSnapshots struct {
	mu   sync.Mutex
	snap *domain.CampusSnapshot
}

func (f *fixedSnapshots) Get(context.Context, bool) *domain.CampusSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap == nil {
		return domain.EmptySnapshot()
	}
	return f.snap
}

func participant(login, clusterID, code, row, number string) domain.ClusterParticipant {
	return domain.ClusterParticipant{Login: login, Row: row, Number: number, ClusterID: clusterID, ClusterCode: code}
}

func snapshotOf(failed []string, participants ...domain.ClusterParticipant) *domain.CampusSnapshot {
	clusters := make(map[string][]domain.ClusterParticipant)
	for _, p := range participants {
		clusters[p.ClusterID] = append(clusters[p.ClusterID], p)
	}
	return domain.NewCampusSnapshot("snap", clusters, failed, time.Now())
}

type copied struct {
	chatID, fromChatID, messageID int64
}

type recordingCopier struct {
	mu     sync.Mutex
	copies []copied
	fail   map[int64]error
}

func (r *recordingCopier) CopyMessage(_ context.Context, chatID, fromChatID, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[chatID]; err != nil {
		return err
	}
	r.copies = append(r.copies, copied{chatID: chatID, fromChatID: fromChatID, messageID: messageID})
	return nil
}

func (r *recordingCopier) Copies() []copied {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]copied(nil), r.copies...)
}

func newTestBot(t *testing.T) (*Bot, store.Store, *fixedSnapshots) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	broadcasts := service.NewBroadcastService(st, &recordingCopier{}, slogx.Discard())
	broadcasts.Limiter = nil

	snaps := &fixedSnapshots{}
	return &Bot{
		Members:    &service.MemberService{Store: st},
		Moderation: &service.ModerationService{Store: st, AdminID: adminID},
		Broadcasts: broadcasts,
		Notifier:   &Notifier{Sender: &recordingSender{}},
		Snapshots:  snaps,
		Clusters:   domain.DefaultClusters(),
		Logger:     slogx.Discard(),
	}, st, snaps
}

func say(b *Bot, userID int64, text string) []string {
	return b.Handle(context.Background(), Message{ChatID: userID, UserID: userID, Username: "u", Text: text})
}
