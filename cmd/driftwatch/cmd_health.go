package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftwatch-network/driftwatch/pkg/audit"
	"github.com/driftwatch-network/driftwatch/pkg/cli"
	"github.com/driftwatch-network/driftwatch/pkg/driver"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run the composite health check on every selected device",
	Long: `Health judges three aspects per device: every BGP peer established,
every non-management interface operationally up, and at least one LLDP
neighbor visible. The exit status is nonzero if any device is unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		unhealthy := 0
		err := forEachDevice(ctx, func(drv driver.Driver) error {
			start := time.Now()
			report, err := driver.RunHealthCheck(drv, retryPolicy(), logEntry())
			event := audit.NewEvent(currentUser(), drv.Hostname(), audit.OpHealthCheck)
			if report != nil {
				event.WithDetail("healthy", strconv.FormatBool(report.OverallHealthy))
			}
			recordAudit(event, start, err)
			if err != nil {
				return err
			}
			if jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				os.Stdout.Write(data)
				fmt.Println()
			} else {
				cli.PrintHealthReport(report)
			}
			if !report.OverallHealthy {
				unhealthy++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if unhealthy > 0 {
			return fmt.Errorf("%d device(s) unhealthy", unhealthy)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
