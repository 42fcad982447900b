package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/driftwatch-network/driftwatch/pkg/util"
)

const sampleHosts = `
leaf1:
  hostname: 10.0.0.11
  vendor: arista
  platform: eos
  username: admin
  password: admin
  groups: [leaves]
leaf2:
  hostname: 10.0.0.12
  vendor: arista
  platform: eos
  username: admin
  password: admin
  port: 2222
  groups: [leaves]
spine1:
  vendor: snmp
  platform: generic
  username: public
  password: public
  groups: [spines]
`

func loadSample(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.yml")
	if err := os.WriteFile(path, []byte(sampleHosts), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(nil)
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestLoadAppliesDefaults(t *testing.T) {
	m := loadSample(t)
	if m.HostCount() != 3 {
		t.Fatalf("HostCount = %d, want 3", m.HostCount())
	}

	leaf1, err := m.Get("leaf1")
	if err != nil {
		t.Fatal(err)
	}
	if leaf1.Hostname != "10.0.0.11" {
		t.Errorf("hostname = %q", leaf1.Hostname)
	}
	if leaf1.Port != 22 {
		t.Errorf("port = %d, want default 22", leaf1.Port)
	}

	leaf2, err := m.Get("leaf2")
	if err != nil {
		t.Fatal(err)
	}
	if leaf2.Port != 2222 {
		t.Errorf("explicit port overridden: %d", leaf2.Port)
	}

	// No hostname in the entry: inventory name is the hostname.
	spine1, err := m.Get("spine1")
	if err != nil {
		t.Fatal(err)
	}
	if spine1.Hostname != "spine1" {
		t.Errorf("hostname = %q, want inventory name", spine1.Hostname)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m := NewManager(nil)
	err := m.Load(filepath.Join(t.TempDir(), "absent.yml"))
	if !errors.Is(err, util.ErrInventory) {
		t.Errorf("err = %v, want inventory kind", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yml")
	if err := os.WriteFile(path, []byte("leaf1: [unbalanced"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(nil)
	if err := m.Load(path); !errors.Is(err, util.ErrInventory) {
		t.Errorf("err = %v, want inventory kind", err)
	}
}

func TestLoadReplacesInventory(t *testing.T) {
	m := loadSample(t)
	path := filepath.Join(t.TempDir(), "hosts.yml")
	if err := os.WriteFile(path, []byte("border1:\n  vendor: arista\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	if got := m.Names(); !reflect.DeepEqual(got, []string{"border1"}) {
		t.Errorf("Names = %v, want only the reloaded inventory", got)
	}
}

func TestGetUnknownListsAvailable(t *testing.T) {
	m := loadSample(t)
	_, err := m.Get("leaf9")
	if !errors.Is(err, util.ErrInventory) {
		t.Fatalf("err = %v, want inventory kind", err)
	}
	if !strings.Contains(err.Error(), "leaf1, leaf2, spine1") {
		t.Errorf("error does not list available hosts: %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	m := loadSample(t)
	want := []string{"leaf1", "leaf2", "spine1"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestFilter(t *testing.T) {
	m := loadSample(t)
	tests := []struct {
		name     string
		vendor   string
		platform string
		group    string
		want     []string
	}{
		{"by vendor", "arista", "", "", []string{"leaf1", "leaf2"}},
		{"vendor case-insensitive", "ARISTA", "", "", []string{"leaf1", "leaf2"}},
		{"by platform", "", "generic", "", []string{"spine1"}},
		{"by group", "", "", "spines", []string{"spine1"}},
		{"vendor and group", "arista", "", "leaves", []string{"leaf1", "leaf2"}},
		{"no match", "juniper", "", "", nil},
		{"empty criteria match all", "", "", "", []string{"leaf1", "leaf2", "spine1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Filter(tt.vendor, tt.platform, tt.group)
			var names []string
			for name := range got {
				names = append(names, name)
			}
			sort.Strings(names)
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("Filter = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestDeviceInfosSortedByInventoryName(t *testing.T) {
	m := loadSample(t)
	infos := m.DeviceInfos("")
	if len(infos) != 3 {
		t.Fatalf("infos = %d, want 3", len(infos))
	}
	want := []string{"10.0.0.11", "10.0.0.12", "spine1"}
	for i, info := range infos {
		if info.Hostname != want[i] {
			t.Errorf("infos[%d].Hostname = %q, want %q", i, info.Hostname, want[i])
		}
	}

	arista := m.DeviceInfos("arista")
	if len(arista) != 2 {
		t.Errorf("vendor-filtered infos = %d, want 2", len(arista))
	}
}

func TestAddHostDefaults(t *testing.T) {
	m := NewManager(nil)
	m.AddHost("lab1", Host{Vendor: "arista"})
	host, err := m.Get("lab1")
	if err != nil {
		t.Fatal(err)
	}
	if host.Hostname != "lab1" || host.Port != 22 {
		t.Errorf("host = %+v, want name and port defaults applied", host)
	}
}

func TestHostsReturnsCopy(t *testing.T) {
	m := loadSample(t)
	hosts := m.Hosts()
	delete(hosts, "leaf1")
	if m.HostCount() != 3 {
		t.Error("Hosts exposed internal map")
	}
}
