package util

import (
	"errors"
	"fmt"
	"testing"
)

func TestDeviceErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *DeviceError
		kind error
	}{
		{"connection", NewConnectionError("leaf1", "dial failed"), ErrConnection},
		{"validation", NewValidationError("leaf1", "bad state"), ErrValidation},
		{"snapshot", NewSnapshotError("leaf1", "capture failed"), ErrSnapshot},
		{"triage", NewTriageError("leaf1", "analysis failed"), ErrTriage},
		{"config push", NewConfigPushError("leaf1", "push failed"), ErrConfigPush},
		{"command execution", NewCommandExecutionError("leaf1", "cmd failed"), ErrCommandExecution},
		{"inventory", NewInventoryError("leaf1", "host missing"), ErrInventory},
		{"topology", NewTopologyError("", "graph split"), ErrTopology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, kind) = false, want true", tt.err)
			}
			for _, other := range tests {
				if other.kind != tt.kind && errors.Is(tt.err, other.kind) {
					t.Errorf("error matches foreign kind %v", other.kind)
				}
			}
		})
	}
}

func TestDeviceErrorUnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewSnapshotError("leaf1", "capture failed").WithCause(cause)

	if !errors.Is(err, ErrSnapshot) {
		t.Error("expected snapshot kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
}

func TestDeviceErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *DeviceError
		want string
	}{
		{
			name: "device and message",
			err:  NewConnectionError("leaf1", "dial failed"),
			want: "[leaf1] dial failed",
		},
		{
			name: "no device",
			err:  NewTopologyError("", "graph split"),
			want: "graph split",
		},
		{
			name: "details render sorted",
			err: NewCommandExecutionError("leaf1", "cmd failed").
				WithDetail("oid", ".1.3.6").
				WithDetail("attempt", "2"),
			want: "[leaf1] cmd failed (attempt=2, oid=.1.3.6)",
		},
		{
			name: "formatted detail",
			err:  NewSnapshotError("leaf1", "capture failed").WithDetailf("attempt", "%d", 3),
			want: "[leaf1] capture failed (attempt=3)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
