// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pe_test

import (
	"bytes"
	"testing"

	"github.com/siderolabs/gen/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/ukinspect/internal/pkg/uki/internal/pe"
	"github.com/siderolabs/ukinspect/internal/pkg/uki/internal/testimage"
)

func TestNewFileMalformed(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		data []byte
	}{
		{
			name: "empty",
		},
		{
			name: "not_pe",
			data: []byte("definitely not a portable executable"),
		},
		{
			name: "truncated_headers",
			data: testimage.Build(testimage.Options{Machine: testimage.MachineAMD64})[:0x90],
		},
	} {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := pe.NewFile(test.data)
			require.Error(t, err)
			assert.True(t, xerrors.TagIs[pe.MalformedImageTag](err))
		})
	}
}

func TestArch(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		machine  uint16
		pe32     bool
		expected string
	}{
		{
			name:     "amd64",
			machine:  testimage.MachineAMD64,
			expected: "x86_64",
		},
		{
			name:     "arm64",
			machine:  testimage.MachineARM64,
			expected: "aarch64",
		},
		{
			name:     "arm",
			machine:  testimage.MachineARM,
			pe32:     true,
			expected: "arm",
		},
		{
			name:     "i386",
			machine:  testimage.MachineI386,
			pe32:     true,
			expected: "i386",
		},
		{
			name:     "unrecognized_machine_is_not_an_error",
			machine:  0x5a4d,
			expected: "unknown",
		},
	} {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			f, err := pe.NewFile(testimage.Build(testimage.Options{
				Machine: test.machine,
				PE32:    test.pe32,
			}))
			require.NoError(t, err)

			assert.Equal(t, test.expected, f.Arch())
			assert.Equal(t, !test.pe32, f.PE32Plus())
		})
	}
}

func TestSection(t *testing.T) {
	t.Parallel()

	kernel := bytes.Repeat([]byte{0xaa}, 1024)

	f, err := pe.NewFile(testimage.Build(testimage.Options{
		Machine: testimage.MachineAMD64,
		Sections: []testimage.Section{
			{Name: ".linux", Data: kernel},
			{Name: ".cmdline", Data: []byte("console=ttyS0\x00\x00")},
		},
	}))
	require.NoError(t, err)

	info, err := f.Section(".linux")
	require.NoError(t, err)

	assert.Equal(t, uint64(1024), info.Size)
	assert.NotZero(t, info.Offset)

	data, err := f.Bytes(info)
	require.NoError(t, err)
	assert.Equal(t, kernel, data)

	_, err = f.Section(".initrd")
	require.Error(t, err)
	assert.True(t, xerrors.TagIs[pe.SectionNotFoundTag](err))
}

func TestSectionDuplicateNamesFirstWins(t *testing.T) {
	t.Parallel()

	f, err := pe.NewFile(testimage.Build(testimage.Options{
		Machine: testimage.MachineAMD64,
		Sections: []testimage.Section{
			{Name: ".dup", Data: bytes.Repeat([]byte{0x01}, 512)},
			{Name: ".dup", Data: bytes.Repeat([]byte{0x02}, 512)},
		},
	}))
	require.NoError(t, err)

	_, data, err := f.SectionBytes(".dup")
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{0x01}, 512), data)
}

func TestSectionInvalidBounds(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		section testimage.Section
	}{
		{
			name: "offset_beyond_image",
			section: testimage.Section{
				Name:      ".corrupt",
				Data:      bytes.Repeat([]byte{0x01}, 512),
				RawOffset: 0x40000000,
			},
		},
		{
			name: "size_beyond_image",
			section: testimage.Section{
				Name:    ".corrupt",
				Data:    bytes.Repeat([]byte{0x01}, 512),
				RawSize: 0xfffff000,
			},
		},
	} {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			f, err := pe.NewFile(testimage.Build(testimage.Options{
				Machine:  testimage.MachineAMD64,
				Sections: []testimage.Section{test.section},
			}))
			require.NoError(t, err)

			_, err = f.Section(".corrupt")
			require.Error(t, err)
			assert.True(t, xerrors.TagIs[pe.InvalidSectionBoundsTag](err))
		})
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	f, err := pe.NewFile(testimage.Build(testimage.Options{
		Machine: testimage.MachineAMD64,
		Sections: []testimage.Section{
			{Name: ".cmdline", Data: []byte("  console=ttyS0 quiet \x00garbage after NUL")},
			{Name: ".osrel", Data: append([]byte("ID=fedora\n"), 0xff, 0xfe)},
		},
	}))
	require.NoError(t, err)

	text, err := f.Text(".cmdline")
	require.NoError(t, err)
	assert.Equal(t, "  console=ttyS0 quiet ", text)

	// invalid UTF-8 is replaced, never an error
	text, err = f.Text(".osrel")
	require.NoError(t, err)
	assert.Contains(t, text, "ID=fedora\n")
	assert.True(t, len(text) > len("ID=fedora\n"))
}

func TestCertificates(t *testing.T) {
	t.Parallel()

	blob1 := bytes.Repeat([]byte{0x30}, 21) // deliberately not 8-aligned
	blob2 := bytes.Repeat([]byte{0x31}, 64)

	f, err := pe.NewFile(testimage.Build(testimage.Options{
		Machine:      testimage.MachineAMD64,
		Certificates: [][]byte{blob1, blob2},
	}))
	require.NoError(t, err)

	certs := f.Certificates()
	require.Len(t, certs, 2)

	assert.Equal(t, uint32(8+21), certs[0].Length)
	assert.Equal(t, uint16(0x0200), certs[0].Revision)
	assert.Equal(t, uint16(0x0002), certs[0].Type)
	assert.Equal(t, blob1, certs[0].Data)
	assert.Equal(t, blob2, certs[1].Data)
}

func TestCertificatesAbsent(t *testing.T) {
	t.Parallel()

	f, err := pe.NewFile(testimage.Build(testimage.Options{Machine: testimage.MachineAMD64}))
	require.NoError(t, err)

	assert.Empty(t, f.Certificates())
}

func TestCertificatesTruncated(t *testing.T) {
	t.Parallel()

	image := testimage.Build(testimage.Options{
		Machine:      testimage.MachineAMD64,
		Certificates: [][]byte{bytes.Repeat([]byte{0x30}, 64)},
	})

	// drop the tail of the certificate table; the walk must stop, not fail
	f, err := pe.NewFile(image[:len(image)-32])
	require.NoError(t, err)

	assert.Empty(t, f.Certificates())
}
