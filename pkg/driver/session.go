package driver

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// WithSession connects drv, invokes fn, and guarantees Disconnect on every
// exit path. Disconnect errors are logged and never propagated; an error
// from fn is returned as-is.
func WithSession(ctx context.Context, drv Driver, log *logrus.Entry, fn func(Driver) error) error {
	if err := drv.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := drv.Disconnect(); err != nil && log != nil {
			log.Warnf("Disconnect from %s failed: %v", drv.Hostname(), err)
		}
	}()
	return fn(drv)
}

// connectivityProbeCommand is the lightweight command used to verify the
// device responds. Every supported adapter answers it.
const connectivityProbeCommand = "show version"

// ValidateConnectivity verifies the device is reachable and responsive:
// connect if not already connected, run a lightweight command, and fail on
// empty output. The session is torn down afterward only when this call
// opened it; a pre-existing session is left connected.
func ValidateConnectivity(ctx context.Context, drv Driver, log *logrus.Entry) error {
	wasConnected := drv.IsConnected()
	if !wasConnected {
		if err := drv.Connect(ctx); err != nil {
			return err
		}
		defer func() {
			if err := drv.Disconnect(); err != nil && log != nil {
				log.Warnf("Disconnect from %s failed: %v", drv.Hostname(), err)
			}
		}()
	}

	out, err := drv.ExecuteCommand(connectivityProbeCommand)
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return util.NewConnectionError(drv.Hostname(), "empty response from device")
	}
	if log != nil {
		log.Infof("Connectivity validated for %s", drv.Hostname())
	}
	return nil
}
