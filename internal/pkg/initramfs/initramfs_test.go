// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package initramfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siderolabs/ukinspect/internal/pkg/initramfs"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		data     []byte
		expected initramfs.Compression
	}{
		{
			name:     "gzip",
			data:     []byte{0x1f, 0x8b, 0x08, 0x00},
			expected: initramfs.CompressionGzip,
		},
		{
			name:     "xz",
			data:     []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x04},
			expected: initramfs.CompressionXz,
		},
		{
			name:     "zstd",
			data:     []byte{0x28, 0xb5, 0x2f, 0xfd, 0x24},
			expected: initramfs.CompressionZstd,
		},
		{
			name:     "newc_cpio",
			data:     []byte("070701000000010000"),
			expected: initramfs.CompressionUncompressed,
		},
		{
			name:     "empty",
			data:     nil,
			expected: initramfs.CompressionUnknown,
		},
		{
			name:     "short",
			data:     []byte{0x00, 0x01},
			expected: initramfs.CompressionUnknown,
		},
		{
			name:     "gzip_prefix_too_short",
			data:     []byte{0x1f},
			expected: initramfs.CompressionUnknown,
		},
		{
			name:     "odc_cpio_is_not_newc",
			data:     []byte("070707000000010000"),
			expected: initramfs.CompressionUnknown,
		},
		{
			name:     "random",
			data:     []byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef},
			expected: initramfs.CompressionUnknown,
		},
	} {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, test.expected, initramfs.Detect(test.data))

			// classification is deterministic
			require.Equal(t, initramfs.Detect(test.data), initramfs.Detect(test.data))
		})
	}
}
