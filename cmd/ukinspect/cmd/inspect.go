// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/siderolabs/ukinspect/internal/pkg/uki"
)

var inspectCmdFlags struct {
	format  string
	verbose bool
}

// inspectCmd represents the `inspect` command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <uki-path>",
	Short: "Inspect a Unified Kernel Image without modifying it",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := uki.Inspect(cmd.Context(), args[0], uki.WithLogger(newLogger()))
		if err != nil {
			return err
		}

		switch inspectCmdFlags.format {
		case "human":
			printHuman(os.Stdout, report, inspectCmdFlags.verbose)

			return nil
		case "json":
			return json.NewEncoder(os.Stdout).Encode(report)
		case "json-pretty":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(report)
		default:
			return fmt.Errorf("unsupported format %q", inspectCmdFlags.format)
		}
	},
}

func printHuman(w io.Writer, report *uki.Report, verbose bool) {
	name := "<unknown>"
	if report.OSRelease != nil && report.OSRelease.Name != "" {
		name = report.OSRelease.Name
	}

	peKind := "PE32"
	if report.PE32Plus {
		peKind = "PE32+"
	}

	fmt.Fprintf(w, "%s • %s • %s\n", name, report.Arch, peKind)

	if report.HasSignature {
		fmt.Fprintf(w, "secure-boot: signed (%d certs)\n", report.CertCount)
	} else {
		fmt.Fprintln(w, "secure-boot: unsigned")
	}

	if report.Cmdline != "" {
		fmt.Fprintf(w, "cmdline: %s\n", report.Cmdline)
	}

	fmt.Fprintf(w, "kernel  : %s (offset %#x)\n", humanSize(report.Linux.Size), report.Linux.Offset)

	if verbose {
		fmt.Fprintf(w, "  sha256: %s\n", report.Linux.SHA256)
	}

	fmt.Fprintf(w, "initrd  : %s (offset %#x), compression: %s\n",
		humanSize(report.Initrd.Size), report.Initrd.Offset, report.Initrd.Compression)

	if verbose {
		fmt.Fprintf(w, "  sha256: %s\n", report.Initrd.SHA256)
	}
}

func humanSize(size uint64) string {
	return fmt.Sprintf("%.1f MiB", float64(size)/(1024.0*1024.0))
}

func init() {
	inspectCmd.Flags().StringVar(&inspectCmdFlags.format, "format", "human", "output format: human, json, json-pretty")
	inspectCmd.Flags().BoolVarP(&inspectCmdFlags.verbose, "verbose", "v", false, "show section digests in human output")

	rootCmd.AddCommand(inspectCmd)
}
