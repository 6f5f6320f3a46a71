// Fleetcmd - bulk command execution for network device fleets
//
// Connects to every device in a CSV inventory over SSH, runs an ordered
// command file against each one in parallel, and writes a per-device
// transcript log:
//
//	fleetcmd run -d devices.csv -c commands.txt -m show
//	fleetcmd run -d devices.csv -c changes.txt -m config --save --ask
//
// Device failures are isolated: one unreachable or misbehaving device
// never affects the rest of the batch. The end-of-run summary lists
// every failure with its reason.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

var (
	verbose    bool
	jsonOutput bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "fleetcmd",
	Short:             "Bulk command execution for network device fleets",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Fleetcmd runs an ordered command file against every device in a CSV
inventory, in parallel under a concurrency cap, and records one
transcript log per device.

Show mode audits device state read-only; config mode enters the
configuration context first and can persist the result with --save.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			if err := util.SetLogLevel("debug"); err != nil {
				return err
			}
		}
		if jsonOutput {
			util.SetJSONFormat()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "log in JSON format")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}
