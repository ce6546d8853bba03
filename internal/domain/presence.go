package domain

import (
	"sort"
	"time"
)

// OnlineWindow is how recently an identity must have been seen to count as
// online. The boundary is exclusive: exactly OnlineWindow ago is offline.
const OnlineWindow = 3 * time.Minute

// HeartbeatInterval is the cadence at which an active session refreshes
// its LastSeenAt.
const HeartbeatInterval = time.Minute

// IsOnline is a pure function of one record and the current time.
// An identity that has never been seen is offline.
func IsOnline(lastSeenAt *time.Time, now time.Time) bool {
	if lastSeenAt == nil {
		return false
	}
	return now.Sub(*lastSeenAt) < OnlineWindow
}

// SortRoster partitions identities online-first, in place. The sort is
// stable: within each partition the incoming order is preserved.
func SortRoster(identities []*Identity, now time.Time) {
	sort.SliceStable(identities, func(a, b int) bool {
		return IsOnline(identities[a].LastSeenAt, now) && !IsOnline(identities[b].LastSeenAt, now)
	})
}
