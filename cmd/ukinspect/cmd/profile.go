// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siderolabs/ukinspect/pkg/profile"
)

// profileCmd represents the `profile` command.
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Work with initramfs build profiles",
	Long:  ``,
}

// profileValidateCmd represents the `profile validate` command.
var profileValidateCmd = &cobra.Command{
	Use:   "validate <profile-path>",
	Short: "Validate an initramfs build profile",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("profile %q is valid (root: %s, %d modules)\n", p.Name, p.Root, len(p.Modules))

		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileValidateCmd)
	rootCmd.AddCommand(profileCmd)
}
