// Package testutil provides shared test doubles and fixtures. The stub
// driver implements the full driver contract over in-memory state maps with
// scripted failure injection, so collection, snapshot, health, and
// validation code can be tested without network access.
package testutil

import (
	"context"
	"sync"

	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// StubDriver serves scripted state maps and counts calls per getter.
// FailFirst[name] makes the named operation fail that many times before
// succeeding; FailAlways[name] makes it fail on every call. Safe for
// concurrent use.
type StubDriver struct {
	Device string

	BGPNeighbors  map[string]state.BGPNeighbor
	Interfaces    map[string]state.Interface
	RoutingTable  map[string]state.Route
	LLDPNeighbors map[string]state.LLDPNeighbor
	EVPNRoutes    map[string]state.EVPNRoute

	CommandOutput string
	FailFirst     map[string]int
	FailAlways    map[string]bool

	mu        sync.Mutex
	connected bool
	calls     map[string]int
}

// NewStubDriver returns a stub with empty state maps.
func NewStubDriver(device string) *StubDriver {
	return &StubDriver{
		Device:        device,
		BGPNeighbors:  make(map[string]state.BGPNeighbor),
		Interfaces:    make(map[string]state.Interface),
		RoutingTable:  make(map[string]state.Route),
		LLDPNeighbors: make(map[string]state.LLDPNeighbor),
		EVPNRoutes:    make(map[string]state.EVPNRoute),
		CommandOutput: "stub version 1.0",
		FailFirst:     make(map[string]int),
		FailAlways:    make(map[string]bool),
		calls:         make(map[string]int),
	}
}

func (s *StubDriver) Hostname() string { return s.Device }
func (s *StubDriver) Vendor() string   { return "stub" }

func (s *StubDriver) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *StubDriver) Connect(ctx context.Context) error {
	if err := s.maybeFail("connect"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *StubDriver) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Calls returns how many times the named operation was invoked.
func (s *StubDriver) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// maybeFail records the call and applies the failure script.
func (s *StubDriver) maybeFail(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	if s.FailAlways[name] {
		return util.NewConnectionError(s.Device, "scripted failure: "+name)
	}
	if s.FailFirst[name] > 0 {
		s.FailFirst[name]--
		return util.NewConnectionError(s.Device, "scripted transient failure: "+name)
	}
	return nil
}

func (s *StubDriver) GetBGPNeighbors() (map[string]state.BGPNeighbor, error) {
	if err := s.maybeFail("bgp_neighbors"); err != nil {
		return nil, err
	}
	return copyMap(s.BGPNeighbors), nil
}

func (s *StubDriver) GetInterfaces() (map[string]state.Interface, error) {
	if err := s.maybeFail("interfaces"); err != nil {
		return nil, err
	}
	return copyMap(s.Interfaces), nil
}

func (s *StubDriver) GetRoutingTable() (map[string]state.Route, error) {
	if err := s.maybeFail("routing_table"); err != nil {
		return nil, err
	}
	return copyMap(s.RoutingTable), nil
}

func (s *StubDriver) GetLLDPNeighbors() (map[string]state.LLDPNeighbor, error) {
	if err := s.maybeFail("lldp_neighbors"); err != nil {
		return nil, err
	}
	return copyMap(s.LLDPNeighbors), nil
}

func (s *StubDriver) GetEVPNRoutes() (map[string]state.EVPNRoute, error) {
	if err := s.maybeFail("evpn_routes"); err != nil {
		return nil, err
	}
	return copyMap(s.EVPNRoutes), nil
}

func (s *StubDriver) ExecuteCommand(command string) (string, error) {
	if err := s.maybeFail("execute_command"); err != nil {
		return "", err
	}
	return s.CommandOutput, nil
}

func (s *StubDriver) PushConfig(config string) error {
	return s.maybeFail("push_config")
}

func copyMap[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
