// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package profile contains the definition of the initramfs build profile.
//
// ukinspect only loads and validates profiles; consuming a profile to
// actually build an initramfs belongs to the builder subsystem.
package profile

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Root filesystem flavors.
const (
	RootOSTree    = "ostree"
	RootComposefs = "composefs"
	RootPlain     = "plain"
)

// Profile describes one initramfs build configuration.
type Profile struct {
	// Name of the profile.
	Name string `toml:"name"`
	// Root filesystem flavor: ostree, composefs or plain.
	Root string `toml:"root"`
	// Kernel modules to include in the initramfs.
	Modules []string `toml:"modules"`
	// Extra kernel command line.
	Cmdline string `toml:"cmdline,omitempty"`
}

// Load reads and validates a profile from a TOML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var p Profile

	if err = toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err = p.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	return &p, nil
}

// Validate the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}

	switch p.Root {
	case RootOSTree, RootComposefs, RootPlain:
	case "":
		return errors.New("root is required")
	default:
		return fmt.Errorf("invalid root %q", p.Root)
	}

	return nil
}
