// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package initramfs provides magic-byte classification of initramfs images.
package initramfs

import "bytes"

// Compression is the compression format of an initramfs image.
type Compression string

// List of recognized compression formats.
const (
	CompressionGzip         Compression = "gzip"
	CompressionXz           Compression = "xz"
	CompressionZstd         Compression = "zstd"
	CompressionUncompressed Compression = "uncompressed"
	CompressionUnknown      Compression = "unknown"
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	return string(c)
}

var (
	magicXz   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	magicNewc = []byte("070701")
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicGzip = []byte{0x1f, 0x8b}
)

// Detect classifies an initramfs image by its leading magic bytes.
//
// Detect is total: every byte sequence, including the empty one, maps to
// exactly one Compression value. Most specific magic wins; "070701" is the
// header magic of an uncompressed newc cpio archive.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, magicXz):
		return CompressionXz
	case bytes.HasPrefix(data, magicNewc):
		return CompressionUncompressed
	case bytes.HasPrefix(data, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(data, magicGzip):
		return CompressionGzip
	default:
		return CompressionUnknown
	}
}
