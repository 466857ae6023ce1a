package domain

import (
	"fmt"
	"time"
)

// ClusterParticipant is one occupied seat observed during a fetch.
type ClusterParticipant struct {
	Login       string `json:"login"`
	Row         string `json:"row"`
	Number      string `json:"number"`
	ClusterID   string `json:"cluster_id"`
	ClusterCode string `json:"cluster_code"`
}

// Seat renders the participant's place as "<code>-<row><number>".
func (p ClusterParticipant) Seat() string {
	code := p.ClusterCode
	if code == "" {
		code = p.ClusterID
	}
	return fmt.Sprintf("%s-%s%s", code, p.Row, p.Number)
}

// CampusSnapshot is a point-in-time aggregate of who is present across all
// clusters. A snapshot is never modified after NewCampusSnapshot returns it.
type CampusSnapshot struct {
	ID         string
	Clusters   map[string][]ClusterParticipant
	CapturedAt time.Time
	Failed     []string // clusters that returned no data for this capture

	present map[string]ClusterParticipant
}

// NewCampusSnapshot builds a snapshot and its derived login index.
func NewCampusSnapshot(id string, clusters map[string][]ClusterParticipant, failed []string, capturedAt time.Time) *CampusSnapshot {
	if clusters == nil {
		clusters = make(map[string][]ClusterParticipant)
	}

	present := make(map[string]ClusterParticipant)
	for _, participants := range clusters {
		for _, p := range participants {
			if p.Login == "" {
				continue
			}
			present[p.Login] = p
		}
	}

	return &CampusSnapshot{
		ID:         id,
		Clusters:   clusters,
		CapturedAt: capturedAt,
		Failed:     failed,
		present:    present,
	}
}

// EmptySnapshot is returned when nothing has ever been fetched.
func EmptySnapshot() *CampusSnapshot {
	return NewCampusSnapshot("", nil, nil, time.Time{})
}

// IsZero reports whether the snapshot was never captured.
func (s *CampusSnapshot) IsZero() bool {
	return s == nil || s.CapturedAt.IsZero()
}

// IsPresent reports whether login was seen in any cluster.
func (s *CampusSnapshot) IsPresent(login string) bool {
	if s == nil {
		return false
	}
	_, ok := s.present[login]
	return ok
}

// Locate returns the seat where login was seen.
func (s *CampusSnapshot) Locate(login string) (ClusterParticipant, bool) {
	if s == nil {
		return ClusterParticipant{}, false
	}
	p, ok := s.present[login]
	return p, ok
}

// PresentLogins returns the set of logins on campus. Callers must not modify it.
func (s *CampusSnapshot) PresentLogins() map[string]ClusterParticipant {
	if s == nil {
		return nil
	}
	return s.present
}

// Count is the number of distinct logins present.
func (s *CampusSnapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.present)
}

// Age is how old the snapshot is at now. A zero snapshot is infinitely old.
func (s *CampusSnapshot) Age(now time.Time) time.Duration {
	if s.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(s.CapturedAt)
}
