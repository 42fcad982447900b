// Driftwatch - Network Device State Verification Tool
//
// A CLI for verifying the operational state of network devices:
//   - Point-in-time snapshots of BGP, interface, routing, LLDP, and EVPN state
//   - Deterministic diffs between snapshots (pre/post change verification)
//   - Per-device health checks and connectivity probes
//   - Assertion-style state validation with CI-friendly reports
//   - LLDP-based topology verification
//
// Devices come from a YAML inventory; snapshots persist to a local directory
// or a shared Redis instance.
//
// Examples:
//
//	driftwatch -I hosts.yml snapshot take pre-change
//	driftwatch -I hosts.yml -d leaf1 snapshot diff pre-change post-change
//	driftwatch -I hosts.yml health
//	driftwatch -I hosts.yml validate --json
//	driftwatch -I hosts.yml topology --expect leaf1:spine1 --strict
package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/driftwatch-network/driftwatch/pkg/audit"
	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/driver/eos"
	"github.com/driftwatch-network/driftwatch/pkg/driver/snmp"
	"github.com/driftwatch-network/driftwatch/pkg/inventory"
	"github.com/driftwatch-network/driftwatch/pkg/metrics"
	"github.com/driftwatch-network/driftwatch/pkg/snapshot"
	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
	"github.com/driftwatch-network/driftwatch/pkg/version"
)

var (
	inventoryPath string
	deviceFilter  string
	vendorFilter  string

	storeDir      string
	redisAddr     string
	redisDB       int
	metricsListen string

	maxAttempts int
	backoffBase float64

	askPass    bool
	verbose    bool
	jsonOutput bool

	auditLogPath string

	log      *logrus.Logger
	inv      *inventory.Manager
	auditLog audit.Logger = audit.NopLogger{}
)

// Audit log rotation defaults.
const (
	auditMaxSize    = 10 << 20
	auditMaxBackups = 5
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "driftwatch",
	Short:             "Network Device State Verification Tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Driftwatch captures, validates, and compares the operational state of
network devices: BGP sessions, interfaces, routes, LLDP adjacencies, and
EVPN routes. Snapshots taken before and after a change diff deterministically,
so unexpected drift shows up as a nonzero exit in CI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = util.NewLogger()
		if verbose {
			util.SetLogLevel(log, "debug")
		} else {
			util.SetLogLevel(log, "warn")
		}
		if jsonOutput {
			util.SetJSONFormat(log)
		}

		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if auditLogPath != "" {
			rotation := audit.RotationConfig{MaxSize: auditMaxSize, MaxBackups: auditMaxBackups}
			logger, err := audit.NewFileLogger(auditLogPath, rotation, logrus.NewEntry(log))
			if err != nil {
				return err
			}
			auditLog = logger
		}
		// Audit queries only read the log; no inventory or devices involved.
		if cmd.Name() == "audit" {
			return nil
		}

		inv = inventory.NewManager(logrus.NewEntry(log))
		if err := inv.Load(inventoryPath); err != nil {
			return err
		}
		if askPass {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			for name, host := range inv.Hosts() {
				host.Password = password
				inv.AddHost(name, host)
			}
		}

		if metricsListen != "" {
			go metrics.Serve(metricsListen, logrus.NewEntry(log))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		auditLog.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("driftwatch " + version.Info())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inventoryPath, "inventory", "I", "hosts.yml", "Path to the YAML device inventory")
	rootCmd.PersistentFlags().StringVarP(&deviceFilter, "device", "d", "", "Restrict to inventory hosts (comma-separated)")
	rootCmd.PersistentFlags().StringVar(&vendorFilter, "vendor", "", "Restrict to hosts of one vendor")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "snapshots", "Directory for snapshot files")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address for shared snapshot storage (overrides --store-dir)")
	rootCmd.PersistentFlags().IntVar(&redisDB, "redis-db", 0, "Redis database number")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "Address to serve Prometheus metrics on (e.g. :9344)")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", driver.DefaultMaxAttempts, "Collection attempts per state category")
	rootCmd.PersistentFlags().Float64Var(&backoffBase, "backoff-base", driver.DefaultBackoffBase, "Exponential backoff base in seconds")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "", "Append operations to a JSON-lines audit log")
	rootCmd.PersistentFlags().BoolVar(&askPass, "ask-pass", false, "Prompt for a device password instead of using inventory values")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "JSON output")

	rootCmd.AddCommand(versionCmd)
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Device password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

func logEntry() *logrus.Entry {
	return logrus.NewEntry(log)
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// recordAudit appends one operation outcome to the audit trail. Audit write
// failures are logged, never fatal.
func recordAudit(event *audit.Event, start time.Time, opErr error) {
	event.WithDuration(time.Since(start))
	if opErr != nil {
		event.WithError(opErr)
	} else {
		event.WithSuccess()
	}
	if err := auditLog.Log(event); err != nil {
		log.Warnf("Audit log write failed: %v", err)
	}
}

// retryPolicy builds the collection retry policy from the global flags.
func retryPolicy() driver.RetryPolicy {
	return driver.RetryPolicy{
		MaxAttempts: maxAttempts,
		BackoffBase: backoffBase,
		Log:         logrus.NewEntry(log),
	}
}

// newFactory returns a driver factory with all adapters registered.
func newFactory() *driver.Factory {
	f := driver.NewFactory(logrus.NewEntry(log))
	eos.Register(f, logrus.NewEntry(log))
	snmp.Register(f, logrus.NewEntry(log))
	return f
}

// newStore picks the snapshot backend: Redis when --redis is set, the local
// file store otherwise.
func newStore(ctx context.Context) (snapshot.Store, error) {
	if redisAddr != "" {
		return snapshot.NewRedisStore(ctx, redisAddr, redisDB)
	}
	return snapshot.NewFileStore(storeDir)
}

// newEngine builds the snapshot engine over the selected store.
func newEngine(ctx context.Context) (*snapshot.Engine, error) {
	store, err := newStore(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.NewEngine(store, retryPolicy(), logrus.NewEntry(log))
}

// selectedInfos resolves the --device/--vendor flags against the inventory.
// --device takes a comma-separated list of inventory hosts.
func selectedInfos() ([]state.DeviceInfo, error) {
	if names := util.SplitCommaSeparated(deviceFilter); len(names) > 0 {
		infos := make([]state.DeviceInfo, 0, len(names))
		for _, name := range names {
			host, err := inv.Get(name)
			if err != nil {
				return nil, err
			}
			infos = append(infos, host.DeviceInfo())
		}
		return infos, nil
	}
	infos := inv.DeviceInfos(vendorFilter)
	if len(infos) == 0 {
		return nil, fmt.Errorf("no hosts selected from %s", inventoryPath)
	}
	return infos, nil
}

// selectedDrivers instantiates unconnected drivers for the selected hosts.
func selectedDrivers() ([]driver.Driver, error) {
	infos, err := selectedInfos()
	if err != nil {
		return nil, err
	}
	factory := newFactory()
	drivers := make([]driver.Driver, 0, len(infos))
	for _, info := range infos {
		drv, err := factory.Create(info.Vendor, info)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, drv)
	}
	return drivers, nil
}

// forEachDevice connects each selected driver in turn and invokes fn inside
// a managed session. Per-device failures are collected, not fatal to the
// other devices.
func forEachDevice(ctx context.Context, fn func(driver.Driver) error) error {
	drivers, err := selectedDrivers()
	if err != nil {
		return err
	}
	var failed []string
	for _, drv := range drivers {
		err := driver.WithSession(ctx, drv, logrus.NewEntry(log), fn)
		if err != nil {
			log.Errorf("%s: %v", drv.Hostname(), err)
			failed = append(failed, drv.Hostname())
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("failed on %d device(s): %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}
