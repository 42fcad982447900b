// Package util provides logging construction and common error types.
package util

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors classifying every failure kind the framework surfaces.
// Use errors.Is against these to branch on error kind.
var (
	ErrConnection       = errors.New("connection failed")
	ErrValidation       = errors.New("validation failed")
	ErrSnapshot         = errors.New("snapshot failed")
	ErrTriage           = errors.New("triage failed")
	ErrConfigPush       = errors.New("config push failed")
	ErrCommandExecution = errors.New("command execution failed")
	ErrInventory        = errors.New("inventory error")
	ErrTopology         = errors.New("topology error")
)

// DeviceError carries device and key-value context alongside an error kind.
// It unwraps to both its kind sentinel and its underlying cause, so
// errors.Is(err, util.ErrSnapshot) and errors.Is(err, cause) both hold.
type DeviceError struct {
	Kind    error
	Device  string
	Message string
	Details map[string]string
	Cause   error
}

func (e *DeviceError) Error() string {
	var parts []string
	if e.Device != "" {
		parts = append(parts, "["+e.Device+"]")
	}
	parts = append(parts, e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+e.Details[k])
		}
		parts = append(parts, "("+strings.Join(pairs, ", ")+")")
	}
	return strings.Join(parts, " ")
}

func (e *DeviceError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// WithDetail attaches a key-value pair to the error context.
func (e *DeviceError) WithDetail(key, value string) *DeviceError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithDetailf attaches a formatted value to the error context.
func (e *DeviceError) WithDetailf(key, format string, args ...interface{}) *DeviceError {
	return e.WithDetail(key, fmt.Sprintf(format, args...))
}

// WithCause records the underlying error.
func (e *DeviceError) WithCause(cause error) *DeviceError {
	e.Cause = cause
	return e
}

func newDeviceError(kind error, device, message string) *DeviceError {
	return &DeviceError{Kind: kind, Device: device, Message: message}
}

// NewConnectionError creates a connection-kind error.
func NewConnectionError(device, message string) *DeviceError {
	return newDeviceError(ErrConnection, device, message)
}

// NewValidationError creates a validation-kind error.
func NewValidationError(device, message string) *DeviceError {
	return newDeviceError(ErrValidation, device, message)
}

// NewSnapshotError creates a snapshot-kind error.
func NewSnapshotError(device, message string) *DeviceError {
	return newDeviceError(ErrSnapshot, device, message)
}

// NewTriageError creates a triage-kind error.
func NewTriageError(device, message string) *DeviceError {
	return newDeviceError(ErrTriage, device, message)
}

// NewConfigPushError creates a config-push-kind error.
func NewConfigPushError(device, message string) *DeviceError {
	return newDeviceError(ErrConfigPush, device, message)
}

// NewCommandExecutionError creates a command-execution-kind error.
func NewCommandExecutionError(device, message string) *DeviceError {
	return newDeviceError(ErrCommandExecution, device, message)
}

// NewInventoryError creates an inventory-kind error.
func NewInventoryError(device, message string) *DeviceError {
	return newDeviceError(ErrInventory, device, message)
}

// NewTopologyError creates a topology-kind error.
func NewTopologyError(device, message string) *DeviceError {
	return newDeviceError(ErrTopology, device, message)
}
