// Package cli provides the command-line interface for geodataset.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/internal/cli/commands"
	"github.com/beetlebugorg/geodataset/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geodataset",
		Short: "Inspect, convert and regrid geophysical datasets",
		Long: `geodataset reads time-varying geophysical datasets stored in the native
XDR format: modeled grids, ground stations, lidar points, satellite swaths,
aircraft tracks and sonde profiles.

It can probe values at a time and location, summarize subsets, regrid
point data onto model grids, sample one dataset at the points of another
and convert datasets to ASCII, COARDS and IOAPI NetCDF, ESRI Shapefile
and KML.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := cfg.NewLogger(cmd.ErrOrStderr())
			cmd.SetContext(context.WithValue(cmd.Context(), config.LoggerKey(), logger))

			if path := config.GetConfigFileUsed(); path != "" {
				logger.Debug("using config file", "path", path)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./geodataset.yaml)")
	flags.Int64("max-resident-bytes", 0, "Largest dataset held fully in memory; larger ones are paged (-1 always pages)")
	flags.Int("page-timesteps", 0, "Timesteps per page when paging")
	flags.Float64("probe-tolerance", 0, "Largest distance in degrees for point probes")
	flags.Int("workers", 0, "Worker goroutines for parallel loading and regridding")
	flags.String("output-dir", "", "Directory for written datasets")
	flags.StringP("format", "f", "", "Output format (xdr|ascii|coards|ioapi|shapefile|kml|original)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"xdr", "ascii", "coards", "ioapi", "shapefile", "kml", "original"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewProbeCommand())
	rootCmd.AddCommand(commands.NewTimeseriesCommand())
	rootCmd.AddCommand(commands.NewSubsetCommand())
	rootCmd.AddCommand(commands.NewWriteCommand())
	rootCmd.AddCommand(commands.NewRegridCommand())
	rootCmd.AddCommand(commands.NewSampleCommand())
	rootCmd.AddCommand(commands.NewIndexCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for geodataset.

To load completions:

Bash:
  $ source <(geodataset completion bash)

Zsh:
  $ geodataset completion zsh > "${fpath[1]}/_geodataset"

Fish:
  $ geodataset completion fish | source

PowerShell:
  PS> geodataset completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
