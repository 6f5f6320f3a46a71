package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetcmd/fleetcmd/pkg/cli"
	"github.com/fleetcmd/fleetcmd/pkg/commandset"
	"github.com/fleetcmd/fleetcmd/pkg/config"
	"github.com/fleetcmd/fleetcmd/pkg/inventory"
	"github.com/fleetcmd/fleetcmd/pkg/runner"
	"github.com/fleetcmd/fleetcmd/pkg/session"
	"github.com/fleetcmd/fleetcmd/pkg/transcript"
)

func newRunCmd() *cobra.Command {
	var (
		devicesPath  string
		commandsPath string
		modeStr      string
		concurrency  int
		outputDir    string
		configPath   string
		markers      string

		ask     bool
		useKeys bool
		keyFile string

		connectTimeout time.Duration
		commandTimeout time.Duration
		cmdDelay       time.Duration

		save               bool
		failOnDeviceErrors bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the command file against every device in the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.File
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
				// File values apply only where the flag was left at its default.
				if !cmd.Flags().Changed("concurrency") && cfg.Concurrency > 0 {
					concurrency = cfg.Concurrency
				}
				if !cmd.Flags().Changed("output") && cfg.OutputDir != "" {
					outputDir = cfg.OutputDir
				}
				if !cmd.Flags().Changed("markers") && cfg.CommentMarkers != "" {
					markers = cfg.CommentMarkers
				}
				if !cmd.Flags().Changed("connect-timeout") && cfg.ConnectTimeout > 0 {
					connectTimeout = cfg.ConnectTimeout.Std()
				}
				if !cmd.Flags().Changed("command-timeout") && cfg.CommandTimeout > 0 {
					commandTimeout = cfg.CommandTimeout.Std()
				}
				if !cmd.Flags().Changed("cmd-delay") && cfg.CommandDelay > 0 {
					cmdDelay = cfg.CommandDelay.Std()
				}
			}

			mode, err := commandset.ParseMode(modeStr)
			if err != nil {
				return err
			}

			defaults := inventory.Defaults{}
			if cfg != nil {
				defaults = inventory.Defaults{
					Username:     cfg.Username,
					Password:     cfg.Password,
					Secret:       cfg.Secret,
					DeviceFamily: cfg.DeviceFamily,
					Port:         cfg.Port,
				}
			}
			if ask {
				creds, err := promptCredentials(useKeys)
				if err != nil {
					return err
				}
				defaults.Username = creds.username
				if creds.password != "" {
					defaults.Password = creds.password
				}
				if creds.secret != "" {
					defaults.Secret = creds.secret
				}
			}

			commands, err := commandset.Load(commandsPath, markers)
			if err != nil {
				return err
			}
			records, err := inventory.Load(devicesPath, defaults)
			if err != nil {
				return err
			}

			writer, err := transcript.NewWriter(outputDir)
			if err != nil {
				return err
			}
			dialer := &session.SSHDialer{
				ConnectTimeout: connectTimeout,
				UseKeys:        useKeys,
				KeyFile:        keyFile,
			}

			// Operator interrupt drains in-flight sessions through
			// their disconnect; no new sessions start after the signal.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Run(ctx, records, commands, runner.Options{
				Mode:        mode,
				Concurrency: concurrency,
				Dialer:      dialer,
				Writer:      writer,
				Timeouts: session.Timeouts{
					Connect: connectTimeout,
					Command: commandTimeout,
				},
				CommandDelay: cmdDelay,
				Save:         save,
			})
			if err != nil {
				return err
			}

			printSummary(os.Stdout, summary)
			return runExitError(failOnDeviceErrors, len(summary.Failed))
		},
	}

	cmd.Flags().StringVarP(&devicesPath, "devices", "d", "", "CSV device inventory (required)")
	cmd.Flags().StringVarP(&commandsPath, "commands", "c", "", "command file, one command per line (required)")
	cmd.Flags().StringVarP(&modeStr, "mode", "m", "show", "treat commands as show or config")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "t", runner.DefaultConcurrency, "max concurrent device sessions")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "outputs", "transcript output directory")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML file with run-level defaults")
	cmd.Flags().StringVar(&markers, "markers", commandset.DefaultMarkers, "comment-leader characters in the command file")
	cmd.Flags().BoolVar(&ask, "ask", false, "prompt once for username/password/secret fallbacks")
	cmd.Flags().BoolVar(&useKeys, "use-keys", false, "authenticate with an SSH key instead of a password")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "private key path (default ~/.ssh/id_rsa)")
	cmd.Flags().DurationVar(&connectTimeout, "connect-timeout", session.DefaultConnectTimeout, "per-device connect timeout")
	cmd.Flags().DurationVar(&commandTimeout, "command-timeout", session.DefaultCommandTimeout, "per-command prompt timeout")
	cmd.Flags().DurationVar(&cmdDelay, "cmd-delay", 0, "pause between commands for slow control planes")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "persist running config after config mode (per family convention)")
	cmd.Flags().BoolVar(&failOnDeviceErrors, "fail-on-device-errors", false, "exit non-zero when any device fails")
	cmd.MarkFlagRequired("devices")
	cmd.MarkFlagRequired("commands")
	return cmd
}

// runExitError decides the process exit outcome. The run having executed
// is success by default; --fail-on-device-errors makes per-device
// failures flip the exit code.
func runExitError(failOnDeviceErrors bool, failed int) error {
	if failOnDeviceErrors && failed > 0 {
		return fmt.Errorf("%d device(s) failed", failed)
	}
	return nil
}

func printSummary(w io.Writer, s *runner.Summary) {
	fmt.Fprintf(w, "\nRun %s: %d devices, %d succeeded, %d failed, %s\n",
		s.RunID, s.Total, s.Succeeded, len(s.Failed), s.Elapsed.Round(time.Millisecond))

	if len(s.Failed) > 0 {
		fmt.Fprintln(w)
		table := cli.NewTable(w, "DEVICE", "HOST", "REASON")
		for _, f := range s.Failed {
			table.Row(f.Hostname, f.Host, f.Reason)
		}
		table.Flush()
	}

	var artifacts []string
	for _, r := range s.Results {
		if r.Artifact != "" {
			artifacts = append(artifacts, r.Artifact)
		}
	}
	if len(artifacts) > 0 {
		fmt.Fprintln(w, "\nOutput files:")
		for _, a := range artifacts {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
}
