// Package eos implements the driver contract for Arista EOS devices over
// SSH, using the "| json" output modifier of the EOS CLI for structured
// state collection.
package eos

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

const (
	defaultSSHPort = 22
	defaultTimeout = 30 * time.Second

	commandsPerSecond = 10
	commandBurst      = 5
)

// limiters bounds the command rate per device across all driver instances.
var limiters = driver.NewPerDevice(commandsPerSecond, commandBurst)

// Driver talks to one EOS device. Connect/Disconnect are idempotent; each
// command runs in its own SSH session so the driver is safe to share across
// goroutines once connected.
type Driver struct {
	info state.DeviceInfo
	log  *logrus.Entry

	mu     sync.Mutex
	client *ssh.Client
}

// Register wires the EOS constructor into a driver factory under the
// "arista" vendor tag.
func Register(f *driver.Factory, log *logrus.Entry) {
	f.Register("arista", func(info state.DeviceInfo) (driver.Driver, error) {
		return New(info, log), nil
	})
}

// New returns an unconnected EOS driver.
func New(info state.DeviceInfo, log *logrus.Entry) *Driver {
	if info.Port == 0 {
		info.Port = defaultSSHPort
	}
	return &Driver{info: info, log: util.WithDevice(log, info.Hostname)}
}

func (d *Driver) Hostname() string { return d.info.Hostname }
func (d *Driver) Vendor() string   { return "arista" }

// IsConnected reports whether an SSH client is currently open.
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client != nil
}

// Connect opens the SSH transport. Calling Connect on a connected driver is
// a no-op.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return nil
	}

	timeout := defaultTimeout
	if d.info.Timeout > 0 {
		timeout = time.Duration(d.info.Timeout) * time.Second
	}
	config := &ssh.ClientConfig{
		User: d.info.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(d.info.Password),
		},
		// Lab/verification environment — production would verify host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(d.info.Hostname, fmt.Sprintf("%d", d.info.Port))
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return util.NewConnectionError(d.info.Hostname, "SSH dial failed").WithCause(err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return util.NewConnectionError(d.info.Hostname, "SSH handshake failed").WithCause(err)
	}
	d.client = ssh.NewClient(sshConn, chans, reqs)
	d.log.Info("Connected (Arista EOS)")
	return nil
}

// Disconnect closes the SSH transport. Idempotent.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	d.log.Info("Disconnected")
	return err
}

func (d *Driver) sshClient() (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil, util.NewConnectionError(d.info.Hostname, "not connected")
	}
	return d.client, nil
}

// ExecuteCommand runs one CLI command in a fresh SSH session and returns the
// combined output.
func (d *Driver) ExecuteCommand(command string) (string, error) {
	client, err := d.sshClient()
	if err != nil {
		return "", err
	}
	if err := limiters.Wait(context.Background(), d.info.Hostname); err != nil {
		return "", err
	}
	session, err := client.NewSession()
	if err != nil {
		return "", util.NewCommandExecutionError(d.info.Hostname, "failed to open SSH session").
			WithDetail("command", command).WithCause(err)
	}
	defer session.Close()

	out, err := session.CombinedOutput(command)
	if err != nil {
		return string(out), util.NewCommandExecutionError(d.info.Hostname, "command failed").
			WithDetail("command", command).WithCause(err)
	}
	return string(out), nil
}

// runJSON executes a show command with the "| json" modifier and decodes the
// output into v.
func (d *Driver) runJSON(command string, v interface{}) error {
	out, err := d.ExecuteCommand(command + " | json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return util.NewCommandExecutionError(d.info.Hostname, "failed to decode JSON output").
			WithDetail("command", command).WithCause(err)
	}
	return nil
}

// eosBGPSummary mirrors the "show ip bgp summary | json" document. EOS
// reports the peer ASN as a string on recent releases and a number on older
// ones; json.Number absorbs both.
type eosBGPSummary struct {
	VRFs map[string]struct {
		Peers map[string]struct {
			PeerState      string      `json:"peerState"`
			ASN            json.Number `json:"asn"`
			PrefixReceived int         `json:"prefixReceived"`
			UpDownTime     float64     `json:"upDownTime"`
			Description    string      `json:"description"`
		} `json:"peers"`
	} `json:"vrfs"`
}

// GetBGPNeighbors collects BGP sessions across all VRFs, keyed by peer
// address.
func (d *Driver) GetBGPNeighbors() (map[string]state.BGPNeighbor, error) {
	var doc eosBGPSummary
	if err := d.runJSON("show ip bgp summary vrf all", &doc); err != nil {
		return nil, err
	}
	neighbors := make(map[string]state.BGPNeighbor)
	for vrfName, vrf := range doc.VRFs {
		for addr, peer := range vrf.Peers {
			asn, _ := peer.ASN.Int64()
			neighbors[addr] = state.BGPNeighbor{
				PeerAddress:      addr,
				State:            strings.ToLower(peer.PeerState),
				PeerAS:           int(asn),
				PrefixesReceived: peer.PrefixReceived,
				UptimeSeconds:    int64(peer.UpDownTime),
				Description:      peer.Description,
				VRF:              vrfName,
			}
		}
	}
	d.log.Debugf("Retrieved %d BGP neighbors", len(neighbors))
	return neighbors, nil
}

// eosInterfaces mirrors the "show interfaces | json" document.
type eosInterfaces struct {
	Interfaces map[string]struct {
		InterfaceStatus    string `json:"interfaceStatus"`
		LineProtocolStatus string `json:"lineProtocolStatus"`
		Description        string `json:"description"`
		Bandwidth          int64  `json:"bandwidth"`
		MTU                int    `json:"mtu"`
		PhysicalAddress    string `json:"physicalAddress"`
		InterfaceCounters  struct {
			InputErrors  int64 `json:"inputErrors"`
			OutputErrors int64 `json:"outputErrors"`
		} `json:"interfaceCounters"`
	} `json:"interfaces"`
}

// GetInterfaces collects interface state keyed by interface name.
func (d *Driver) GetInterfaces() (map[string]state.Interface, error) {
	var doc eosInterfaces
	if err := d.runJSON("show interfaces", &doc); err != nil {
		return nil, err
	}
	interfaces := make(map[string]state.Interface)
	for name, info := range doc.Interfaces {
		oper := state.OperDown
		if info.LineProtocolStatus == "up" {
			oper = state.OperUp
		}
		interfaces[name] = state.Interface{
			Name:         name,
			AdminStatus:  strings.ToLower(info.InterfaceStatus),
			OperStatus:   oper,
			Description:  info.Description,
			SpeedBps:     info.Bandwidth,
			MTU:          info.MTU,
			MACAddress:   info.PhysicalAddress,
			InputErrors:  info.InterfaceCounters.InputErrors,
			OutputErrors: info.InterfaceCounters.OutputErrors,
		}
	}
	d.log.Debugf("Retrieved %d interfaces", len(interfaces))
	return interfaces, nil
}

// eosRoutes mirrors the "show ip route | json" document.
type eosRoutes struct {
	VRFs map[string]struct {
		Routes map[string]struct {
			RouteType         string `json:"routeType"`
			Preference        int    `json:"preference"`
			Metric            int    `json:"metric"`
			DirectlyConnected bool   `json:"directlyConnected"`
			Vias              []struct {
				NexthopAddr string `json:"nexthopAddr"`
				Interface   string `json:"interface"`
			} `json:"vias"`
		} `json:"routes"`
	} `json:"vrfs"`
}

// GetRoutingTable collects the IP routing table keyed by prefix. The first
// via supplies the next hop; directly connected routes fall back to the
// egress interface name.
func (d *Driver) GetRoutingTable() (map[string]state.Route, error) {
	var doc eosRoutes
	if err := d.runJSON("show ip route", &doc); err != nil {
		return nil, err
	}
	routes := make(map[string]state.Route)
	for _, vrf := range doc.VRFs {
		for prefix, info := range vrf.Routes {
			var nextHop string
			if len(info.Vias) > 0 {
				nextHop = info.Vias[0].NexthopAddr
				if nextHop == "" {
					nextHop = info.Vias[0].Interface
				}
			}
			routes[prefix] = state.Route{
				Prefix:            prefix,
				NextHop:           nextHop,
				Protocol:          info.RouteType,
				Preference:        info.Preference,
				Metric:            info.Metric,
				DirectlyConnected: info.DirectlyConnected,
			}
		}
	}
	d.log.Debugf("Retrieved %d routes", len(routes))
	return routes, nil
}

// eosLLDP mirrors the "show lldp neighbors detail | json" document.
type eosLLDP struct {
	LLDPNeighbors map[string][]struct {
		NeighborDevice          string `json:"neighborDevice"`
		NeighborPort            string `json:"neighborPort"`
		NeighborPortDescription string `json:"neighborPortDescription"`
		ChassisID               string `json:"chassisId"`
	} `json:"lldpNeighbors"`
}

// GetLLDPNeighbors collects LLDP adjacencies keyed by local interface. Only
// the first neighbor per interface is kept.
func (d *Driver) GetLLDPNeighbors() (map[string]state.LLDPNeighbor, error) {
	var doc eosLLDP
	if err := d.runJSON("show lldp neighbors detail", &doc); err != nil {
		return nil, err
	}
	neighbors := make(map[string]state.LLDPNeighbor)
	for localIf, list := range doc.LLDPNeighbors {
		if len(list) == 0 {
			continue
		}
		n := list[0]
		neighbors[localIf] = state.LLDPNeighbor{
			LocalInterface:        localIf,
			RemoteSystem:          n.NeighborDevice,
			RemotePort:            n.NeighborPort,
			RemotePortDescription: n.NeighborPortDescription,
			RemoteChassisID:       n.ChassisID,
		}
	}
	d.log.Debugf("Retrieved %d LLDP neighbors", len(neighbors))
	return neighbors, nil
}

// eosEVPNSummary mirrors the "show bgp evpn summary | json" document.
type eosEVPNSummary struct {
	VRFs map[string]struct {
		Peers map[string]struct {
			PeerState      string `json:"peerState"`
			PrefixReceived int    `json:"prefixReceived"`
		} `json:"peers"`
	} `json:"vrfs"`
}

// GetEVPNRoutes collects EVPN peer summaries keyed by peer address. Devices
// without the EVPN address family return an empty map rather than an error.
func (d *Driver) GetEVPNRoutes() (map[string]state.EVPNRoute, error) {
	routes := make(map[string]state.EVPNRoute)
	var doc eosEVPNSummary
	if err := d.runJSON("show bgp evpn summary", &doc); err != nil {
		d.log.Debug("EVPN not available")
		return routes, nil
	}
	for peer, info := range doc.VRFs["default"].Peers {
		routes[peer] = state.EVPNRoute{
			RouteDistinguisher: peer,
			RouteType:          2,
			State:              info.PeerState,
			PrefixCount:        info.PrefixReceived,
		}
	}
	return routes, nil
}

// PushConfig enters configure mode in a single Cli session and applies the
// commands, one per line. Blank lines are dropped.
func (d *Driver) PushConfig(config string) error {
	client, err := d.sshClient()
	if err != nil {
		return err
	}
	session, err := client.NewSession()
	if err != nil {
		return util.NewConfigPushError(d.info.Hostname, "failed to open SSH session").WithCause(err)
	}
	defer session.Close()

	var script strings.Builder
	script.WriteString("configure\n")
	for _, line := range strings.Split(config, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		script.WriteString(line)
		script.WriteByte('\n')
	}
	script.WriteString("end\nwrite memory\n")
	session.Stdin = strings.NewReader(script.String())

	if out, err := session.CombinedOutput("Cli"); err != nil {
		return util.NewConfigPushError(d.info.Hostname, "config push failed").
			WithDetail("output", strings.TrimSpace(string(out))).WithCause(err)
	}
	d.log.Info("Configuration pushed")
	return nil
}
