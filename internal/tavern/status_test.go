package tavern_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/beacondash/internal/tavern"
)

func ptr[T any](v T) *T { return &v }

func TestBeacon_Online(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		beacon tavern.Beacon
		want   bool
	}{
		{name: "never seen", beacon: tavern.Beacon{Interval: 5}, want: false},
		{name: "just now", beacon: tavern.Beacon{Interval: 5, LastSeenAt: ptr(now)}, want: true},
		{
			name:   "within interval plus grace",
			beacon: tavern.Beacon{Interval: 60, LastSeenAt: ptr(now.Add(-2 * time.Minute))},
			want:   true,
		},
		{
			name:   "past grace",
			beacon: tavern.Beacon{Interval: 60, LastSeenAt: ptr(now.Add(-2*time.Minute - time.Second))},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.beacon.Online(now))
		})
	}
}

func TestHost_BeaconStatusAndPrincipals(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	host := tavern.Host{Beacons: tavern.Connection[tavern.Beacon]{Edges: []tavern.Edge[tavern.Beacon]{
		{Node: tavern.Beacon{Principal: "root", Interval: 5, LastSeenAt: ptr(now)}},
		{Node: tavern.Beacon{Principal: "www-data", Interval: 5}},
		{Node: tavern.Beacon{Principal: "root", Interval: 5, LastSeenAt: ptr(now.Add(-time.Hour))}},
		{Node: tavern.Beacon{Principal: ""}},
	}}}

	online, offline := host.BeaconStatus(now)
	assert.Equal(t, 1, online)
	assert.Equal(t, 3, offline)
	assert.Equal(t, []string{"root", "www-data"}, host.Principals())
}

func TestTask_Status(t *testing.T) {
	at := ptr(time.Now())
	assert.Equal(t, tavern.TaskQueued, tavern.Task{}.Status())
	assert.Equal(t, tavern.TaskClaimed, tavern.Task{ClaimedAt: at}.Status())
	assert.Equal(t, tavern.TaskRunning, tavern.Task{ClaimedAt: at, ExecStartedAt: at}.Status())
	assert.Equal(t, tavern.TaskFinished, tavern.Task{ExecStartedAt: at, ExecFinishedAt: at}.Status())
	assert.Equal(t, tavern.TaskFailed, tavern.Task{ExecFinishedAt: at, Error: "exit 1"}.Status())
}
