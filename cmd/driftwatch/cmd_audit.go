package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftwatch-network/driftwatch/pkg/audit"
	"github.com/driftwatch-network/driftwatch/pkg/cli"
)

var (
	auditOpFilter   string
	auditUserFilter string
	auditFailedOnly bool
	auditLimit      int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the operation audit trail",
	Long: `Audit lists recorded operations from the JSON-lines audit log named by
--audit-log, newest entries last. Use the filter flags to narrow by device,
operation, user, or outcome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditLogPath == "" {
			return fmt.Errorf("no audit log configured; pass --audit-log")
		}

		filter := audit.Filter{
			Device:      deviceFilter,
			User:        auditUserFilter,
			Operation:   auditOpFilter,
			FailureOnly: auditFailedOnly,
			Limit:       auditLimit,
		}
		events, err := auditLog.Query(filter)
		if err != nil {
			return err
		}

		if jsonOutput {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return err
			}
			os.Stdout.Write(data)
			fmt.Println()
			return nil
		}

		t := cli.NewTable("TIME", "USER", "DEVICE", "OPERATION", "RESULT", "DETAIL")
		for _, e := range events {
			result := cli.Green("ok")
			detail := e.SnapshotID
			if !e.Success {
				result = cli.Red("failed")
				detail = e.Error
			}
			t.Row(e.Timestamp.Format("2006-01-02 15:04:05"), e.User, e.Device, e.Operation, result, detail)
		}
		t.Flush()
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditOpFilter, "op", "", "Filter by operation name (e.g. snapshot.capture)")
	auditCmd.Flags().StringVar(&auditUserFilter, "user", "", "Filter by user")
	auditCmd.Flags().BoolVar(&auditFailedOnly, "failed", false, "Show only failed operations")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 0, "Maximum number of events to show")
	rootCmd.AddCommand(auditCmd)
}
