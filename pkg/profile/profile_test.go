// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/ukinspect/pkg/profile"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	p, err := profile.Load(writeProfile(t, `
name = "kvm-ostree"
root = "ostree"
modules = ["virtio_blk", "virtio_net", "xfs", "ext4"]
cmdline = "console=ttyS0,115200n8"
`))
	require.NoError(t, err)

	assert.Equal(t, "kvm-ostree", p.Name)
	assert.Equal(t, profile.RootOSTree, p.Root)
	assert.Equal(t, []string{"virtio_blk", "virtio_net", "xfs", "ext4"}, p.Modules)
	assert.Equal(t, "console=ttyS0,115200n8", p.Cmdline)
}

func TestLoadWithoutCmdline(t *testing.T) {
	t.Parallel()

	p, err := profile.Load(writeProfile(t, `
name = "kvm-composefs"
root = "composefs"
modules = ["virtio_blk", "virtio_net"]
`))
	require.NoError(t, err)

	assert.Equal(t, "kvm-composefs", p.Name)
	assert.Equal(t, profile.RootComposefs, p.Root)
	assert.Empty(t, p.Cmdline)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		contents      string
		expectedError string
	}{
		{
			name:          "missing_name",
			contents:      "root = \"plain\"\n",
			expectedError: "name is required",
		},
		{
			name:          "missing_root",
			contents:      "name = \"x\"\n",
			expectedError: "root is required",
		},
		{
			name:          "unknown_root",
			contents:      "name = \"x\"\nroot = \"tmpfs\"\n",
			expectedError: `invalid root "tmpfs"`,
		},
		{
			name:          "not_toml",
			contents:      "{] definitely not toml",
			expectedError: "parse",
		},
	} {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := profile.Load(writeProfile(t, test.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.expectedError)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := profile.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
