// Package inventory loads and queries the device inventory that feeds the
// driver factory. The on-disk format is a YAML map of inventory name to host
// parameters:
//
//	leaf1:
//	  hostname: 10.0.0.11
//	  vendor: arista
//	  platform: eos
//	  username: admin
//	  password: admin
//	  port: 22
//	  groups: [leaves]
package inventory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

const defaultSSHPort = 22

// Host is one inventory entry. The inventory name may differ from the
// hostname used to reach the device.
type Host struct {
	Hostname string            `yaml:"hostname"`
	Vendor   string            `yaml:"vendor"`
	Platform string            `yaml:"platform"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Port     int               `yaml:"port"`
	Timeout  int               `yaml:"timeout"`
	Groups   []string          `yaml:"groups"`
	Data     map[string]string `yaml:"data"`
}

// DeviceInfo converts the entry into driver connection parameters.
func (h Host) DeviceInfo() state.DeviceInfo {
	return state.DeviceInfo{
		Hostname: h.Hostname,
		Vendor:   h.Vendor,
		Platform: h.Platform,
		Username: h.Username,
		Password: h.Password,
		Port:     h.Port,
		Timeout:  h.Timeout,
	}
}

// Manager holds the loaded inventory. Load replaces the host set wholesale;
// hosts can also be registered programmatically for lab environments.
type Manager struct {
	hosts map[string]Host
	log   *logrus.Entry
}

// NewManager returns an empty inventory manager.
func NewManager(log *logrus.Entry) *Manager {
	return &Manager{hosts: make(map[string]Host), log: log}
}

// Load reads a YAML hosts file and replaces the current inventory. Entries
// without an explicit hostname default to their inventory name; a zero port
// defaults to 22.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return util.NewInventoryError("", fmt.Sprintf("hosts file not found: %s", path)).WithCause(err)
	}
	var raw map[string]Host
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return util.NewInventoryError("", fmt.Sprintf("failed to parse hosts file: %s", path)).WithCause(err)
	}

	hosts := make(map[string]Host, len(raw))
	for name, host := range raw {
		if host.Hostname == "" {
			host.Hostname = name
		}
		if host.Port == 0 {
			host.Port = defaultSSHPort
		}
		hosts[name] = host
	}
	m.hosts = hosts
	if m.log != nil {
		m.log.Infof("Inventory loaded from %s (%d hosts)", path, len(m.hosts))
	}
	return nil
}

// AddHost registers a host programmatically, replacing any entry with the
// same name.
func (m *Manager) AddHost(name string, host Host) {
	if host.Hostname == "" {
		host.Hostname = name
	}
	if host.Port == 0 {
		host.Port = defaultSSHPort
	}
	m.hosts[name] = host
	if m.log != nil {
		m.log.Debugf("Added host %s to inventory", name)
	}
}

// Get retrieves one host by inventory name. Unknown names yield an
// inventory-kind error listing the available names.
func (m *Manager) Get(name string) (Host, error) {
	host, ok := m.hosts[name]
	if !ok {
		return Host{}, util.NewInventoryError(name, fmt.Sprintf("host %q not found in inventory", name)).
			WithDetail("available", strings.Join(m.Names(), ", "))
	}
	return host, nil
}

// Names returns the sorted inventory names.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.hosts))
	for name := range m.hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hosts returns a copy of the full host map.
func (m *Manager) Hosts() map[string]Host {
	out := make(map[string]Host, len(m.hosts))
	for name, host := range m.hosts {
		out[name] = host
	}
	return out
}

// Filter returns hosts matching every non-empty criterion. Vendor and
// platform compare case-insensitively; group matches exact membership.
func (m *Manager) Filter(vendor, platform, group string) map[string]Host {
	out := make(map[string]Host)
	for name, host := range m.hosts {
		if vendor != "" && !strings.EqualFold(host.Vendor, vendor) {
			continue
		}
		if platform != "" && !strings.EqualFold(host.Platform, platform) {
			continue
		}
		if group != "" && !contains(host.Groups, group) {
			continue
		}
		out[name] = host
	}
	return out
}

// DeviceInfos returns connection parameters for all hosts, optionally
// filtered by vendor, in sorted inventory-name order.
func (m *Manager) DeviceInfos(vendor string) []state.DeviceInfo {
	hosts := m.hosts
	if vendor != "" {
		hosts = m.Filter(vendor, "", "")
	}
	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]state.DeviceInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, hosts[name].DeviceInfo())
	}
	return infos
}

// HostCount returns the number of loaded hosts.
func (m *Manager) HostCount() int {
	return len(m.hosts)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
