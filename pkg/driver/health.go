package driver

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// healthExcludedPrefixes names loopback and management interfaces skipped by
// the interface sub-check.
var healthExcludedPrefixes = []string{"lo", "Loopback", "Management", "mgmt"}

// SubHealth is one health-check sub-judgment with the raw data it was
// judged from, kept for diagnosis.
type SubHealth struct {
	Healthy bool        `json:"healthy"`
	Details interface{} `json:"details"`
}

// HealthReport is the composite outcome of RunHealthCheck. OverallHealthy is
// the AND of the three sub-judgments.
type HealthReport struct {
	Device         string    `json:"device"`
	Timestamp      time.Time `json:"timestamp"`
	BGP            SubHealth `json:"bgp"`
	Interfaces     SubHealth `json:"interfaces"`
	LLDP           SubHealth `json:"lldp"`
	OverallHealthy bool      `json:"overall_healthy"`
}

// RunHealthCheck collects BGP, interface, and LLDP state through the retry
// policy and judges each:
//
//   - BGP is healthy iff every peer is established. A device with zero peers
//     judges healthy; callers can inspect Details to tell the cases apart.
//   - Interfaces are healthy iff every non-loopback, non-management interface
//     is operationally up.
//   - LLDP is healthy iff at least one neighbor is visible.
//
// Collection failures (after retry exhaustion) abort the check.
func RunHealthCheck(drv Driver, policy RetryPolicy, log *logrus.Entry) (*HealthReport, error) {
	if log != nil {
		log.Infof("Running health check on %s", drv.Hostname())
	}

	bgp, err := Collect(policy, "bgp_neighbors", drv.GetBGPNeighbors)
	if err != nil {
		return nil, err
	}
	bgpHealthy := true
	for _, n := range bgp {
		if !strings.EqualFold(n.State, state.BGPEstablished) {
			bgpHealthy = false
			break
		}
	}

	ifaces, err := Collect(policy, "interfaces", drv.GetInterfaces)
	if err != nil {
		return nil, err
	}
	ifaceHealthy := true
	for name, iface := range ifaces {
		if util.HasAnyPrefix(name, healthExcludedPrefixes...) {
			continue
		}
		if !strings.EqualFold(iface.OperStatus, state.OperUp) {
			ifaceHealthy = false
			break
		}
	}

	lldp, err := Collect(policy, "lldp_neighbors", drv.GetLLDPNeighbors)
	if err != nil {
		return nil, err
	}
	lldpHealthy := len(lldp) > 0

	report := &HealthReport{
		Device:         drv.Hostname(),
		Timestamp:      time.Now().UTC(),
		BGP:            SubHealth{Healthy: bgpHealthy, Details: bgp},
		Interfaces:     SubHealth{Healthy: ifaceHealthy, Details: ifaces},
		LLDP:           SubHealth{Healthy: lldpHealthy, Details: lldp},
		OverallHealthy: bgpHealthy && ifaceHealthy && lldpHealthy,
	}

	if log != nil {
		if report.OverallHealthy {
			log.Infof("Health check result for %s: healthy", drv.Hostname())
		} else {
			log.Warnf("Health check result for %s: unhealthy (bgp=%t interfaces=%t lldp=%t)",
				drv.Hostname(), bgpHealthy, ifaceHealthy, lldpHealthy)
		}
	}
	return report, nil
}
