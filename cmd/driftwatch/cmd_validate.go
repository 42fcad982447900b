package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftwatch-network/driftwatch/pkg/audit"
	"github.com/driftwatch-network/driftwatch/pkg/cli"
	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the full validation suite against live device state",
	Long: `Validate collects all five state categories from each selected device
and runs the comprehensive assertion suite: BGP peers established,
interfaces up and error-free, routes present, LLDP adjacencies populated,
and EVPN route types present where EVPN is in use. Any failing assertion
makes the exit status nonzero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		failures := 0
		err := forEachDevice(ctx, func(drv driver.Driver) error {
			start := time.Now()
			set, err := collectStateSet(drv)
			if err != nil {
				recordAudit(audit.NewEvent(currentUser(), drv.Hostname(), audit.OpValidate), start, err)
				return err
			}
			report := validator.New(drv.Hostname(), logEntry()).RunFullValidation(set)
			event := audit.NewEvent(currentUser(), drv.Hostname(), audit.OpValidate).
				WithDetail("passed", strconv.Itoa(report.PassCount())).
				WithDetail("failed", strconv.Itoa(report.FailCount()))
			recordAudit(event, start, nil)
			if jsonOutput {
				data, err := report.Encode()
				if err != nil {
					return err
				}
				os.Stdout.Write(data)
				fmt.Println()
			} else {
				cli.PrintValidationReport(report)
			}
			failures += report.FailCount()
			return nil
		})
		if err != nil {
			return err
		}
		if failures > 0 {
			return fmt.Errorf("%d assertion(s) failed", failures)
		}
		return nil
	},
}

// collectStateSet gathers all five categories through the retry policy.
func collectStateSet(drv driver.Driver) (validator.StateSet, error) {
	policy := retryPolicy()
	var set validator.StateSet
	var err error
	if set.BGPNeighbors, err = driver.Collect(policy, "bgp_neighbors", drv.GetBGPNeighbors); err != nil {
		return set, err
	}
	if set.Interfaces, err = driver.Collect(policy, "interfaces", drv.GetInterfaces); err != nil {
		return set, err
	}
	if set.RoutingTable, err = driver.Collect(policy, "routing_table", drv.GetRoutingTable); err != nil {
		return set, err
	}
	if set.LLDPNeighbors, err = driver.Collect(policy, "lldp_neighbors", drv.GetLLDPNeighbors); err != nil {
		return set, err
	}
	if set.EVPNRoutes, err = driver.Collect(policy, "evpn_routes", drv.GetEVPNRoutes); err != nil {
		return set, err
	}
	return set, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
