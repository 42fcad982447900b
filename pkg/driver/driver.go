// Package driver defines the vendor-agnostic device driver contract and the
// workflows built on top of it: retried state collection, scoped sessions,
// connectivity validation, and composite health checks. Vendor adapters live
// in sub-packages (driver/eos, driver/snmp) and are selected through the
// Factory registry.
package driver

import (
	"context"

	"github.com/driftwatch-network/driftwatch/pkg/state"
)

// Driver is the capability contract every vendor adapter implements.
//
// Connect and Disconnect are idempotent: repeated calls are no-ops. Each
// getter returns a command-execution-kind error when the underlying transport
// call fails; Connect returns a connection-kind error; PushConfig returns a
// config-push-kind error.
type Driver interface {
	// Hostname returns the hostname of the managed device.
	Hostname() string
	// Vendor returns the vendor tag (e.g. "arista").
	Vendor() string
	// IsConnected reports whether the driver holds an open session.
	IsConnected() bool

	Connect(ctx context.Context) error
	Disconnect() error

	// GetBGPNeighbors returns the BGP neighbor table keyed by peer address.
	GetBGPNeighbors() (map[string]state.BGPNeighbor, error)
	// GetInterfaces returns interface status and counters keyed by name.
	GetInterfaces() (map[string]state.Interface, error)
	// GetRoutingTable returns the RIB keyed by prefix.
	GetRoutingTable() (map[string]state.Route, error)
	// GetLLDPNeighbors returns LLDP adjacencies keyed by local interface.
	GetLLDPNeighbors() (map[string]state.LLDPNeighbor, error)
	// GetEVPNRoutes returns the EVPN route table keyed by route distinguisher.
	GetEVPNRoutes() (map[string]state.EVPNRoute, error)

	// PushConfig commits vendor-native configuration text to the device.
	PushConfig(config string) error
	// ExecuteCommand runs an operational-mode command and returns raw output.
	ExecuteCommand(command string) (string, error)
}
