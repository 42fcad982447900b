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
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture, list, and compare state snapshots",
}

var snapshotTakeCmd = &cobra.Command{
	Use:   "take <snapshot-id>",
	Short: "Capture a snapshot of every selected device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		engine, err := newEngine(ctx)
		if err != nil {
			return err
		}
		drivers, err := selectedDrivers()
		if err != nil {
			return err
		}
		for _, drv := range drivers {
			if err := drv.Connect(ctx); err != nil {
				return err
			}
			defer drv.Disconnect()
		}

		start := time.Now()
		snaps, err := engine.CaptureMultiple(drivers, args[0])
		for _, drv := range drivers {
			event := audit.NewEvent(currentUser(), drv.Hostname(), audit.OpSnapshotCapture).WithSnapshotID(args[0])
			if _, ok := snaps[drv.Hostname()]; ok {
				recordAudit(event, start, nil)
			} else {
				recordAudit(event, start, fmt.Errorf("capture failed"))
			}
		}
		for device := range snaps {
			fmt.Printf("%s: snapshot %q captured\n", device, args[0])
		}
		return err
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <before-id> <after-id>",
	Short: "Compare two snapshots of every selected device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		engine, err := newEngine(ctx)
		if err != nil {
			return err
		}
		infos, err := selectedInfos()
		if err != nil {
			return err
		}
		devices := make([]string, 0, len(infos))
		for _, info := range infos {
			devices = append(devices, info.Hostname)
		}

		diffs := engine.DiffMultiple(devices, args[0], args[1])

		start := time.Now()
		changed := false
		for _, device := range devices {
			diff, ok := diffs[device]
			if !ok {
				continue
			}
			event := audit.NewEvent(currentUser(), device, audit.OpSnapshotDiff).
				WithSnapshotID(args[0]).
				WithDetail("after", args[1]).
				WithDetail("changes", strconv.Itoa(len(diff.Entries)))
			recordAudit(event, start, nil)
			if jsonOutput {
				data, err := diff.Encode()
				if err != nil {
					return err
				}
				os.Stdout.Write(data)
				fmt.Println()
			} else {
				cli.PrintDiff(diff)
			}
			changed = changed || diff.HasChanges
		}
		if changed {
			return fmt.Errorf("state drift detected between %q and %q", args[0], args[1])
		}
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshot IDs per selected device",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		engine, err := newEngine(ctx)
		if err != nil {
			return err
		}
		infos, err := selectedInfos()
		if err != nil {
			return err
		}
		t := cli.NewTable("DEVICE", "SNAPSHOT")
		for _, info := range infos {
			ids, err := engine.List(info.Hostname)
			if err != nil {
				return err
			}
			for _, id := range ids {
				t.Row(info.Hostname, id)
			}
		}
		t.Flush()
		return nil
	},
}

// connectivityPadWidth aligns the per-device status column.
const connectivityPadWidth = 28

var connectivityCmd = &cobra.Command{
	Use:   "connectivity",
	Short: "Verify every selected device is reachable and responsive",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return forEachDevice(ctx, func(drv driver.Driver) error {
			start := time.Now()
			err := driver.ValidateConnectivity(ctx, drv, logEntry())
			recordAudit(audit.NewEvent(currentUser(), drv.Hostname(), audit.OpConnectivity), start, err)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cli.DotPad(drv.Hostname(), connectivityPadWidth), cli.Green("reachable"))
			return nil
		})
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotTakeCmd, snapshotDiffCmd, snapshotListCmd)
	rootCmd.AddCommand(snapshotCmd, connectivityCmd)
}
