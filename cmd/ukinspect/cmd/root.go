// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the ukinspect command tree.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/ukinspect/internal/pkg/logging"
)

var rootCmdFlags struct {
	debug bool
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:               "ukinspect",
	Short:             "A CLI for read-only inspection of Unified Kernel Images (UKI)",
	Long:              ``,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootCmdFlags.debug, "debug", false, "enable debug logging of inspection stages")
}

// newLogger builds the CLI logger honoring the --debug flag.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if rootCmdFlags.debug {
		level = zapcore.DebugLevel
	}

	return logging.ZapLogger(
		logging.NewLogDestination(os.Stderr, level, logging.WithColoredLevels()),
	)
}
