// Package state defines the vendor-neutral operational state records shared
// by drivers, the snapshot engine, and the validators. Each category has an
// explicit field schema; records are plain comparable structs so deep
// equality is the == operator and JSON round-trips are lossless.
package state

// Well-known status values used across categories.
const (
	BGPEstablished = "established"
	OperUp         = "up"
	OperDown       = "down"
)

// DeviceInfo holds immutable identity and credentials for one device.
// Never mutated after construction.
type DeviceInfo struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	Vendor   string `json:"vendor" yaml:"vendor"`
	Platform string `json:"platform" yaml:"platform"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"password"`
	Port     int    `json:"port" yaml:"port"`
	// Timeout is the connection timeout in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`
}

// BGPNeighbor is one entry of the BGP neighbor table, keyed by peer address.
type BGPNeighbor struct {
	PeerAddress      string `json:"peer_address"`
	State            string `json:"state"`
	PeerAS           int    `json:"peer_as"`
	PrefixesReceived int    `json:"prefixes_received"`
	PrefixesSent     int    `json:"prefixes_sent"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Description      string `json:"description,omitempty"`
	VRF              string `json:"vrf,omitempty"`
}

// Interface is one entry of the interface table, keyed by interface name.
type Interface struct {
	Name         string `json:"name"`
	AdminStatus  string `json:"admin_status"`
	OperStatus   string `json:"oper_status"`
	Description  string `json:"description,omitempty"`
	SpeedBps     int64  `json:"speed"`
	MTU          int    `json:"mtu"`
	MACAddress   string `json:"mac_address,omitempty"`
	InputErrors  int64  `json:"input_errors"`
	OutputErrors int64  `json:"output_errors"`
}

// Route is one RIB entry, keyed by prefix.
type Route struct {
	Prefix            string `json:"prefix"`
	NextHop           string `json:"next_hop"`
	Protocol          string `json:"protocol"`
	Preference        int    `json:"preference"`
	Metric            int    `json:"metric"`
	DirectlyConnected bool   `json:"directly_connected,omitempty"`
}

// LLDPNeighbor is one LLDP adjacency, keyed by local interface name.
type LLDPNeighbor struct {
	LocalInterface        string `json:"local_interface"`
	RemoteSystem          string `json:"remote_system"`
	RemotePort            string `json:"remote_port"`
	RemotePortDescription string `json:"remote_port_description,omitempty"`
	RemoteChassisID       string `json:"remote_chassis_id,omitempty"`
}

// EVPNRoute is one EVPN route table entry, keyed by route distinguisher.
// Route types follow RFC 7432: 2 = MAC/IP advertisement, 5 = IP prefix.
type EVPNRoute struct {
	RouteDistinguisher string `json:"route_distinguisher"`
	RouteType          int    `json:"route_type"`
	State              string `json:"state,omitempty"`
	MAC                string `json:"mac,omitempty"`
	IP                 string `json:"ip,omitempty"`
	VNI                int    `json:"vni,omitempty"`
	NextHop            string `json:"next_hop,omitempty"`
	PrefixCount        int    `json:"prefix_count,omitempty"`
}
