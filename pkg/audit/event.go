// Package audit provides an append-only trail of verification operations:
// snapshot captures, diffs, health checks, validations, and config pushes.
package audit

import (
	"fmt"
	"time"
)

// Operation names recorded on events.
const (
	OpSnapshotCapture = "snapshot.capture"
	OpSnapshotDiff    = "snapshot.diff"
	OpHealthCheck     = "health.check"
	OpValidate        = "validate.run"
	OpTopologyVerify  = "topology.verify"
	OpConfigPush      = "config.push"
	OpConnectivity    = "connectivity.check"
)

// Event is one recorded verification operation.
type Event struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	User       string            `json:"user"`
	Device     string            `json:"device"`
	Operation  string            `json:"operation"`
	SnapshotID string            `json:"snapshot_id,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Duration   time.Duration     `json:"duration"`
	Details    map[string]string `json:"details,omitempty"`
}

// Filter defines criteria for querying audit events. Zero fields match
// everything.
type Filter struct {
	Device      string
	User        string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event stamped with the current time.
func NewEvent(user, device, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Operation: operation,
	}
}

// WithSnapshotID sets the snapshot involved in the operation.
func (e *Event) WithSnapshotID(id string) *Event {
	e.SnapshotID = id
	return e
}

// WithDetail attaches one key/value pair of operation context.
func (e *Event) WithDetail(key, value string) *Event {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
