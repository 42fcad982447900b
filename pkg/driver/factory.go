package driver

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// Constructor builds an unconnected driver from device parameters.
type Constructor func(info state.DeviceInfo) (Driver, error)

// Factory maps vendor tags to driver constructors. Adapters register
// themselves explicitly (see the Register function in each adapter package);
// there is no implicit discovery.
type Factory struct {
	registry map[string]Constructor
	log      *logrus.Entry
}

// NewFactory creates an empty factory.
func NewFactory(log *logrus.Entry) *Factory {
	return &Factory{registry: make(map[string]Constructor), log: log}
}

// Register associates a vendor tag (case-insensitive) with a constructor.
// Re-registering a tag replaces the previous constructor.
func (f *Factory) Register(vendor string, fn Constructor) {
	f.registry[strings.ToLower(vendor)] = fn
	if f.log != nil {
		f.log.Debugf("Registered driver for vendor %q", vendor)
	}
}

// Create instantiates an unconnected driver for the vendor tag. Unknown
// vendors yield an inventory-kind error listing the supported tags.
func (f *Factory) Create(vendor string, info state.DeviceInfo) (Driver, error) {
	fn, ok := f.registry[strings.ToLower(vendor)]
	if !ok {
		return nil, util.NewInventoryError(info.Hostname,
			"unsupported vendor '"+vendor+"'").
			WithDetail("supported", strings.Join(f.SupportedVendors(), ", "))
	}
	return fn(info)
}

// SupportedVendors returns the sorted list of registered vendor tags.
func (f *Factory) SupportedVendors() []string {
	out := make([]string, 0, len(f.registry))
	for v := range f.registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
