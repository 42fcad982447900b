package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftwatch-network/driftwatch/pkg/audit"
	"github.com/driftwatch-network/driftwatch/pkg/cli"
	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/topology"
)

var (
	expectedLinkFlags []string
	strictTopology    bool
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Verify the LLDP topology of the selected devices",
	Long: `Topology collects LLDP tables from every selected device, builds the
adjacency graph, and checks it: expected links present (--expect a:b),
no unidirectional links, and full connectivity. With --strict any issue
also fails the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		start := time.Now()

		lldpByDevice := make(map[string]map[string]state.LLDPNeighbor)
		err := forEachDevice(ctx, func(drv driver.Driver) error {
			lldp, err := driver.Collect(retryPolicy(), "lldp_neighbors", drv.GetLLDPNeighbors)
			if err != nil {
				return err
			}
			lldpByDevice[drv.Hostname()] = lldp
			return nil
		})
		if err != nil {
			return err
		}

		expected, err := parseExpectedLinks(expectedLinkFlags)
		if err != nil {
			return err
		}

		verifier := topology.NewVerifier(strictTopology, logEntry())
		verifier.BuildFromLLDP(lldpByDevice)

		var issues []topology.Issue
		linkIssues, err := verifier.VerifyExpectedLinks(expected)
		issues = append(issues, linkIssues...)
		if err != nil {
			cli.PrintTopologyIssues(issues)
			return err
		}
		issues = append(issues, verifier.DetectUnidirectionalLinks()...)
		if issue, err := verifier.AssertFullyConnected(); err != nil {
			if issue != nil {
				issues = append(issues, *issue)
			}
			cli.PrintTopologyIssues(issues)
			return err
		} else if issue != nil {
			issues = append(issues, *issue)
		}

		cli.PrintTopologyIssues(issues)
		event := audit.NewEvent(currentUser(), "", audit.OpTopologyVerify).
			WithDetail("devices", strconv.Itoa(len(verifier.Devices()))).
			WithDetail("issues", strconv.Itoa(len(issues)))
		recordAudit(event, start, nil)
		if len(issues) > 0 {
			return fmt.Errorf("%d topology issue(s)", len(issues))
		}
		return nil
	},
}

// parseExpectedLinks turns "a:b" flags into link expectations.
func parseExpectedLinks(flags []string) ([]topology.ExpectedLink, error) {
	links := make([]topology.ExpectedLink, 0, len(flags))
	for _, f := range flags {
		parts := strings.SplitN(f, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --expect %q: want deviceA:deviceB", f)
		}
		links = append(links, topology.ExpectedLink{A: parts[0], B: parts[1]})
	}
	return links, nil
}

func init() {
	topologyCmd.Flags().StringArrayVar(&expectedLinkFlags, "expect", nil, "Expected adjacency as deviceA:deviceB (repeatable)")
	topologyCmd.Flags().BoolVar(&strictTopology, "strict", false, "Treat any topology issue as an error")
	rootCmd.AddCommand(topologyCmd)
}
