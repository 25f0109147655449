package tavern

import (
	"slices"
	"time"
)

// beaconGrace is how far past its callback interval a beacon may be before it
// counts as offline.
const beaconGrace = time.Minute

// Online reports whether the beacon called back recently enough.
func (b Beacon) Online(now time.Time) bool {
	if b.LastSeenAt == nil {
		return false
	}
	return now.Sub(*b.LastSeenAt) <= time.Duration(b.Interval)*time.Second+beaconGrace
}

// BeaconStatus counts the host's online and offline beacons.
func (h Host) BeaconStatus(now time.Time) (online, offline int) {
	for _, b := range h.Beacons.Nodes() {
		if b.Online(now) {
			online++
		} else {
			offline++
		}
	}
	return online, offline
}

// Principals returns the distinct beacon principals, sorted.
func (h Host) Principals() []string {
	var out []string
	for _, b := range h.Beacons.Nodes() {
		if b.Principal != "" && !slices.Contains(out, b.Principal) {
			out = append(out, b.Principal)
		}
	}
	slices.Sort(out)
	return out
}

// TaskStatus is the lifecycle stage of a task.
type TaskStatus string

// Task lifecycle stages.
const (
	TaskQueued   TaskStatus = "queued"
	TaskClaimed  TaskStatus = "claimed"
	TaskRunning  TaskStatus = "running"
	TaskFinished TaskStatus = "finished"
	TaskFailed   TaskStatus = "failed"
)

// Status derives the lifecycle stage from the task timestamps.
func (t Task) Status() TaskStatus {
	switch {
	case t.Error != "":
		return TaskFailed
	case t.ExecFinishedAt != nil:
		return TaskFinished
	case t.ExecStartedAt != nil:
		return TaskRunning
	case t.ClaimedAt != nil:
		return TaskClaimed
	default:
		return TaskQueued
	}
}
