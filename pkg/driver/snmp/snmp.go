// Package snmp implements a read-only driver over SNMPv2c for devices that
// expose no structured CLI. State is assembled from IF-MIB, BGP4-MIB,
// LLDP-MIB, and IP-FORWARD-MIB table walks; EVPN state is not available over
// SNMP and always collects empty.
package snmp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

const (
	defaultPort    = 161
	defaultTimeout = 10 * time.Second

	oidSysDescr = ".1.3.6.1.2.1.1.1.0"

	oidIfDescr       = ".1.3.6.1.2.1.2.2.1.2"
	oidIfSpeed       = ".1.3.6.1.2.1.2.2.1.5"
	oidIfPhysAddress = ".1.3.6.1.2.1.2.2.1.6"
	oidIfAdminStatus = ".1.3.6.1.2.1.2.2.1.7"
	oidIfOperStatus  = ".1.3.6.1.2.1.2.2.1.8"
	oidIfInErrors    = ".1.3.6.1.2.1.2.2.1.14"
	oidIfOutErrors   = ".1.3.6.1.2.1.2.2.1.20"
	oidIfMTU         = ".1.3.6.1.2.1.2.2.1.4"
	oidIfAlias       = ".1.3.6.1.2.1.31.1.1.1.18"

	oidBgpPeerState      = ".1.3.6.1.2.1.15.3.1.2"
	oidBgpPeerRemoteAS   = ".1.3.6.1.2.1.15.3.1.9"
	oidBgpPeerFsmUptime  = ".1.3.6.1.2.1.15.3.1.16"
	oidBgpPeerInUpdates  = ".1.3.6.1.2.1.15.3.1.10"
	oidBgpPeerOutUpdates = ".1.3.6.1.2.1.15.3.1.11"

	oidLldpRemSysName   = ".1.0.8802.1.1.2.1.4.1.1.9"
	oidLldpRemPortID    = ".1.0.8802.1.1.2.1.4.1.1.7"
	oidLldpRemPortDesc  = ".1.0.8802.1.1.2.1.4.1.1.8"
	oidLldpRemChassisID = ".1.0.8802.1.1.2.1.4.1.1.5"
	oidLldpLocPortDesc  = ".1.0.8802.1.1.2.1.3.7.1.4"

	oidIpCidrRouteProto   = ".1.3.6.1.2.1.4.24.4.1.7"
	oidIpCidrRouteNextHop = ".1.3.6.1.2.1.4.24.4.1.4"
	oidIpCidrRouteMetric  = ".1.3.6.1.2.1.4.24.4.1.11"
)

// bgpPeerStates maps BGP4-MIB bgpPeerState integers to session state names.
var bgpPeerStates = map[int]string{
	1: "idle",
	2: "connect",
	3: "active",
	4: "opensent",
	5: "openconfirm",
	6: state.BGPEstablished,
}

// ipCidrRouteProtos maps IP-FORWARD-MIB ipCidrRouteProto integers to protocol
// names.
var ipCidrRouteProtos = map[int]string{
	2:  "local",
	3:  "static",
	8:  "rip",
	13: "ospf",
	14: "bgp",
	15: "isis",
}

// Driver polls one device over SNMPv2c. The device password field carries
// the community string. PushConfig is unsupported; SNMP access here is
// strictly read-only.
type Driver struct {
	info state.DeviceInfo
	log  *logrus.Entry

	mu   sync.Mutex
	conn *gosnmp.GoSNMP
}

// Register wires the SNMP constructor into a driver factory under the
// "snmp" vendor tag.
func Register(f *driver.Factory, log *logrus.Entry) {
	f.Register("snmp", func(info state.DeviceInfo) (driver.Driver, error) {
		return New(info, log), nil
	})
}

// New returns an unconnected SNMP driver.
func New(info state.DeviceInfo, log *logrus.Entry) *Driver {
	if info.Port == 0 {
		info.Port = defaultPort
	}
	return &Driver{info: info, log: util.WithDevice(log, info.Hostname)}
}

func (d *Driver) Hostname() string { return d.info.Hostname }
func (d *Driver) Vendor() string   { return "snmp" }

func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

// Connect opens the SNMP socket and verifies the agent responds by reading
// sysDescr. Idempotent.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return nil
	}
	timeout := defaultTimeout
	if d.info.Timeout > 0 {
		timeout = time.Duration(d.info.Timeout) * time.Second
	}
	g := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    d.info.Hostname,
		Port:      uint16(d.info.Port),
		Version:   gosnmp.Version2c,
		Community: d.info.Password,
		Timeout:   timeout,
		Retries:   1,
		MaxOids:   60,
	}
	if err := g.Connect(); err != nil {
		return util.NewConnectionError(d.info.Hostname, "SNMP connect failed").WithCause(err)
	}
	if _, err := g.Get([]string{oidSysDescr}); err != nil {
		g.Conn.Close()
		return util.NewConnectionError(d.info.Hostname, "SNMP agent not responding").WithCause(err)
	}
	d.conn = g
	d.log.Info("Connected (SNMP v2c)")
	return nil
}

// Disconnect closes the SNMP socket. Idempotent.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Conn.Close()
	d.conn = nil
	d.log.Info("Disconnected")
	return err
}

func (d *Driver) session() (*gosnmp.GoSNMP, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil, util.NewConnectionError(d.info.Hostname, "not connected")
	}
	return d.conn, nil
}

// walkColumn bulk-walks one table column, returning PDU values keyed by the
// index suffix under the column OID.
func (d *Driver) walkColumn(oid string) (map[string]gosnmp.SnmpPDU, error) {
	conn, err := d.session()
	if err != nil {
		return nil, err
	}
	pdus, err := conn.BulkWalkAll(oid)
	if err != nil {
		return nil, util.NewCommandExecutionError(d.info.Hostname, "SNMP walk failed").
			WithDetail("oid", oid).WithCause(err)
	}
	out := make(map[string]gosnmp.SnmpPDU, len(pdus))
	for _, pdu := range pdus {
		out[strings.TrimPrefix(pdu.Name, oid+".")] = pdu
	}
	return out, nil
}

func pduString(pdu gosnmp.SnmpPDU, ok bool) string {
	if !ok {
		return ""
	}
	switch v := pdu.Value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func pduInt(pdu gosnmp.SnmpPDU, ok bool) int {
	if !ok {
		return 0
	}
	return int(gosnmp.ToBigInt(pdu.Value).Int64())
}

// GetBGPNeighbors walks BGP4-MIB bgpPeerTable; the table index is the peer
// address.
func (d *Driver) GetBGPNeighbors() (map[string]state.BGPNeighbor, error) {
	states, err := d.walkColumn(oidBgpPeerState)
	if err != nil {
		return nil, err
	}
	remoteAS, err := d.walkColumn(oidBgpPeerRemoteAS)
	if err != nil {
		return nil, err
	}
	uptimes, err := d.walkColumn(oidBgpPeerFsmUptime)
	if err != nil {
		return nil, err
	}

	neighbors := make(map[string]state.BGPNeighbor, len(states))
	for peer, pdu := range states {
		st, ok := bgpPeerStates[pduInt(pdu, true)]
		if !ok {
			st = "unknown"
		}
		asPDU, asOK := remoteAS[peer]
		upPDU, upOK := uptimes[peer]
		neighbors[peer] = state.BGPNeighbor{
			PeerAddress:   peer,
			State:         st,
			PeerAS:        pduInt(asPDU, asOK),
			UptimeSeconds: int64(pduInt(upPDU, upOK)),
		}
	}
	d.log.Debugf("Retrieved %d BGP neighbors", len(neighbors))
	return neighbors, nil
}

// GetInterfaces walks the IF-MIB ifTable columns and joins them on ifIndex,
// keying the result by ifDescr.
func (d *Driver) GetInterfaces() (map[string]state.Interface, error) {
	descrs, err := d.walkColumn(oidIfDescr)
	if err != nil {
		return nil, err
	}
	admins, err := d.walkColumn(oidIfAdminStatus)
	if err != nil {
		return nil, err
	}
	opers, err := d.walkColumn(oidIfOperStatus)
	if err != nil {
		return nil, err
	}
	speeds, err := d.walkColumn(oidIfSpeed)
	if err != nil {
		return nil, err
	}
	mtus, err := d.walkColumn(oidIfMTU)
	if err != nil {
		return nil, err
	}
	macs, err := d.walkColumn(oidIfPhysAddress)
	if err != nil {
		return nil, err
	}
	inErrs, err := d.walkColumn(oidIfInErrors)
	if err != nil {
		return nil, err
	}
	outErrs, err := d.walkColumn(oidIfOutErrors)
	if err != nil {
		return nil, err
	}
	aliases, err := d.walkColumn(oidIfAlias)
	if err != nil {
		return nil, err
	}

	statusName := func(v int) string {
		if v == 1 {
			return state.OperUp
		}
		return state.OperDown
	}

	interfaces := make(map[string]state.Interface, len(descrs))
	for idx, pdu := range descrs {
		name := pduString(pdu, true)
		if name == "" {
			continue
		}
		adminPDU, adminOK := admins[idx]
		operPDU, operOK := opers[idx]
		speedPDU, speedOK := speeds[idx]
		mtuPDU, mtuOK := mtus[idx]
		macPDU, macOK := macs[idx]
		inPDU, inOK := inErrs[idx]
		outPDU, outOK := outErrs[idx]
		aliasPDU, aliasOK := aliases[idx]

		var mac string
		if macOK {
			if raw, isBytes := macPDU.Value.([]byte); isBytes && len(raw) > 0 {
				parts := make([]string, len(raw))
				for i, b := range raw {
					parts[i] = fmt.Sprintf("%02x", b)
				}
				mac = strings.Join(parts, ":")
			}
		}

		interfaces[name] = state.Interface{
			Name:         name,
			AdminStatus:  statusName(pduInt(adminPDU, adminOK)),
			OperStatus:   statusName(pduInt(operPDU, operOK)),
			Description:  pduString(aliasPDU, aliasOK),
			SpeedBps:     int64(pduInt(speedPDU, speedOK)),
			MTU:          pduInt(mtuPDU, mtuOK),
			MACAddress:   mac,
			InputErrors:  int64(pduInt(inPDU, inOK)),
			OutputErrors: int64(pduInt(outPDU, outOK)),
		}
	}
	d.log.Debugf("Retrieved %d interfaces", len(interfaces))
	return interfaces, nil
}

// GetRoutingTable walks IP-FORWARD-MIB ipCidrRouteTable. The row index
// encodes dest.mask.tos.nexthop; the prefix is reconstructed from the first
// eight index components.
func (d *Driver) GetRoutingTable() (map[string]state.Route, error) {
	protos, err := d.walkColumn(oidIpCidrRouteProto)
	if err != nil {
		return nil, err
	}
	nextHops, err := d.walkColumn(oidIpCidrRouteNextHop)
	if err != nil {
		return nil, err
	}
	metrics, err := d.walkColumn(oidIpCidrRouteMetric)
	if err != nil {
		return nil, err
	}

	routes := make(map[string]state.Route, len(protos))
	for idx, pdu := range protos {
		parts := strings.Split(idx, ".")
		if len(parts) < 8 {
			continue
		}
		dest := strings.Join(parts[0:4], ".")
		maskBits := maskToPrefixLen(parts[4:8])
		prefix := fmt.Sprintf("%s/%d", dest, maskBits)

		protoName, ok := ipCidrRouteProtos[pduInt(pdu, true)]
		if !ok {
			protoName = "other"
		}
		nhPDU, nhOK := nextHops[idx]
		mPDU, mOK := metrics[idx]
		routes[prefix] = state.Route{
			Prefix:            prefix,
			NextHop:           pduString(nhPDU, nhOK),
			Protocol:          protoName,
			Metric:            pduInt(mPDU, mOK),
			DirectlyConnected: protoName == "local",
		}
	}
	d.log.Debugf("Retrieved %d routes", len(routes))
	return routes, nil
}

// maskToPrefixLen counts the set bits of a dotted-quad netmask split into
// its four decimal octets.
func maskToPrefixLen(octets []string) int {
	bits := 0
	for _, o := range octets {
		var v int
		fmt.Sscanf(o, "%d", &v)
		for v > 0 {
			bits += v & 1
			v >>= 1
		}
	}
	return bits
}

// GetLLDPNeighbors walks LLDP-MIB lldpRemTable and joins it with the local
// port table to key neighbors by local interface name. The remote table
// index is timeMark.localPortNum.remIndex.
func (d *Driver) GetLLDPNeighbors() (map[string]state.LLDPNeighbor, error) {
	sysNames, err := d.walkColumn(oidLldpRemSysName)
	if err != nil {
		return nil, err
	}
	portIDs, err := d.walkColumn(oidLldpRemPortID)
	if err != nil {
		return nil, err
	}
	portDescs, err := d.walkColumn(oidLldpRemPortDesc)
	if err != nil {
		return nil, err
	}
	chassisIDs, err := d.walkColumn(oidLldpRemChassisID)
	if err != nil {
		return nil, err
	}
	locPorts, err := d.walkColumn(oidLldpLocPortDesc)
	if err != nil {
		return nil, err
	}

	neighbors := make(map[string]state.LLDPNeighbor, len(sysNames))
	for idx, pdu := range sysNames {
		parts := strings.Split(idx, ".")
		if len(parts) < 2 {
			continue
		}
		portNum := parts[1]
		localIf := pduStringFrom(locPorts, portNum)
		if localIf == "" {
			localIf = "port" + portNum
		}
		neighbors[localIf] = state.LLDPNeighbor{
			LocalInterface:        localIf,
			RemoteSystem:          pduString(pdu, true),
			RemotePort:            pduStringFrom(portIDs, idx),
			RemotePortDescription: pduStringFrom(portDescs, idx),
			RemoteChassisID:       pduStringFrom(chassisIDs, idx),
		}
	}
	d.log.Debugf("Retrieved %d LLDP neighbors", len(neighbors))
	return neighbors, nil
}

func pduStringFrom(m map[string]gosnmp.SnmpPDU, key string) string {
	pdu, ok := m[key]
	return pduString(pdu, ok)
}

// GetEVPNRoutes returns an empty map; EVPN state is not exposed over
// standard MIBs.
func (d *Driver) GetEVPNRoutes() (map[string]state.EVPNRoute, error) {
	return make(map[string]state.EVPNRoute), nil
}

// ExecuteCommand answers the connectivity probe with sysDescr; any other
// command is unsupported.
func (d *Driver) ExecuteCommand(command string) (string, error) {
	conn, err := d.session()
	if err != nil {
		return "", err
	}
	if command != "show version" {
		return "", util.NewCommandExecutionError(d.info.Hostname, "command not supported over SNMP").
			WithDetail("command", command)
	}
	res, err := conn.Get([]string{oidSysDescr})
	if err != nil || len(res.Variables) == 0 {
		return "", util.NewCommandExecutionError(d.info.Hostname, "sysDescr query failed").WithCause(err)
	}
	return pduString(res.Variables[0], true), nil
}

// PushConfig always fails; SNMP access is read-only.
func (d *Driver) PushConfig(string) error {
	return util.NewConfigPushError(d.info.Hostname, "configuration push is not supported over SNMP")
}
