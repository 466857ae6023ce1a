package domain

// WatchEntry is an active presence-alert subscription. A watcher has at most
// one watched login; the notified flag is reset daily and on re-targeting.
type WatchEntry struct {
	UserID       int64
	WatchedLogin string
	Notified     bool
}

// Active reports whether the entry watches someone.
func (w WatchEntry) Active() bool {
	return w.WatchedLogin != ""
}

// Notification is a pending alert for a watcher whose peer is on campus.
type Notification struct {
	UserID       int64
	WatchedLogin string
	Seat         ClusterParticipant
}
