package domain_test

import (
	"testing"
	"time"

	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsOnline(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		lastSeenAt *time.Time
		want       bool
	}{
		{
			name:       "never seen",
			lastSeenAt: nil,
			want:       false,
		},
		{
			name:       "seen just now",
			lastSeenAt: timePtr(now),
			want:       true,
		},
		{
			name:       "one millisecond inside the window",
			lastSeenAt: timePtr(now.Add(-domain.OnlineWindow + time.Millisecond)),
			want:       true,
		},
		{
			name:       "exactly at the window boundary",
			lastSeenAt: timePtr(now.Add(-domain.OnlineWindow)),
			want:       false,
		},
		{
			name:       "well past the window",
			lastSeenAt: timePtr(now.Add(-time.Hour)),
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.IsOnline(tt.lastSeenAt, now))
		})
	}
}

func TestSortRoster(t *testing.T) {
	now := time.Now()
	online := timePtr(now.Add(-time.Second))
	offline := timePtr(now.Add(-time.Hour))

	identities := []*domain.Identity{
		{Key: "a", LastSeenAt: online},
		{Key: "b", LastSeenAt: offline},
		{Key: "c", LastSeenAt: online},
		{Key: "d", LastSeenAt: nil},
		{Key: "e", LastSeenAt: online},
	}

	domain.SortRoster(identities, now)

	// Online members first, relative order preserved within each partition.
	keys := make([]string, len(identities))
	for i, identity := range identities {
		keys[i] = identity.Key
	}
	assert.Equal(t, []string{"a", "c", "e", "b", "d"}, keys)
}

func TestSortRosterStable(t *testing.T) {
	now := time.Now()
	seen := timePtr(now)

	identities := []*domain.Identity{
		{Key: "first", LastSeenAt: seen},
		{Key: "second", LastSeenAt: seen},
		{Key: "third", LastSeenAt: seen},
	}

	domain.SortRoster(identities, now)

	assert.Equal(t, "first", identities[0].Key)
	assert.Equal(t, "second", identities[1].Key)
	assert.Equal(t, "third", identities[2].Key)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
