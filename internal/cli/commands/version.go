package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display geodataset version and supported formats.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "geodataset v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Reads native XDR datasets; writes xdr, ascii, coards, ioapi, shapefile and kml")
		},
	}
}
