// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package testimage assembles minimal UKI-shaped PE images in memory.
//
// The images are structurally valid PE32/PE32+ files with an arbitrary set
// of named sections and an optional attribute certificate table, which is
// enough to exercise the inspection engine without shipping binary
// fixtures.
package testimage

import "encoding/binary"

// Machine type codes used by tests.
const (
	MachineAMD64 = 0x8664
	MachineARM64 = 0xaa64
	MachineARM   = 0x1c0
	MachineI386  = 0x14c
)

const (
	ntHeaderOffset   = 0x80
	fileAlignment    = 0x200
	sectionAlignment = 0x1000

	optionalHeaderSize64 = 240
	optionalHeaderSize32 = 224

	sectionHeaderSize = 40
	certHeaderSize    = 8
)

// Section describes one section to place in the built image.
//
// Raw data is padded with NUL bytes up to the file alignment, the way
// objcopy lays out UKI sections.
type Section struct {
	Name string
	Data []byte

	// RawOffset/RawSize override the corresponding section header fields
	// to simulate corrupt section tables. Zero means "use the real value".
	RawOffset uint32
	RawSize   uint32
}

// Options describe the image to build.
type Options struct {
	Machine      uint16
	PE32         bool // build a 32-bit PE32 image instead of PE32+
	Sections     []Section
	Certificates [][]byte // raw attribute certificate payloads, one record each
}

// Build assembles the image.
func Build(opts Options) []byte {
	optionalHeaderSize := optionalHeaderSize64
	if opts.PE32 {
		optionalHeaderSize = optionalHeaderSize32
	}

	headersEnd := ntHeaderOffset + 4 + 20 + optionalHeaderSize + sectionHeaderSize*len(opts.Sections)
	sizeOfHeaders := align(uint32(headersEnd), fileAlignment)

	// lay out raw section data
	rawOffsets := make([]uint32, len(opts.Sections))
	rawSizes := make([]uint32, len(opts.Sections))
	virtualAddrs := make([]uint32, len(opts.Sections))

	rawOffset := sizeOfHeaders
	virtualAddr := uint32(sectionAlignment)

	for i, section := range opts.Sections {
		rawOffsets[i] = rawOffset
		rawSizes[i] = align(uint32(len(section.Data)), fileAlignment)
		virtualAddrs[i] = virtualAddr

		rawOffset += rawSizes[i]
		virtualAddr += align(max(uint32(len(section.Data)), 1), sectionAlignment)
	}

	certOffset := rawOffset

	certSize := uint32(0)
	for _, cert := range opts.Certificates {
		certSize += align(certHeaderSize+uint32(len(cert)), 8)
	}

	image := make([]byte, certOffset+certSize)

	// DOS header
	copy(image, "MZ")
	binary.LittleEndian.PutUint32(image[0x3c:], ntHeaderOffset)

	// NT signature + COFF file header
	w := cursor{buf: image, off: ntHeaderOffset}
	w.bytes([]byte("PE\x00\x00"))
	w.u16(opts.Machine)
	w.u16(uint16(len(opts.Sections)))
	w.u32(0) // TimeDateStamp
	w.u32(0) // PointerToSymbolTable
	w.u32(0) // NumberOfSymbols
	w.u16(uint16(optionalHeaderSize))
	w.u16(0x0022) // EXECUTABLE_IMAGE | LARGE_ADDRESS_AWARE

	// optional header
	if opts.PE32 {
		w.u16(0x10b) // PE32 magic
	} else {
		w.u16(0x20b) // PE32+ magic
	}

	w.u8(0) // MajorLinkerVersion
	w.u8(0) // MinorLinkerVersion
	w.u32(0) // SizeOfCode
	w.u32(0) // SizeOfInitializedData
	w.u32(0) // SizeOfUninitializedData
	w.u32(sectionAlignment) // AddressOfEntryPoint
	w.u32(sectionAlignment) // BaseOfCode

	if opts.PE32 {
		w.u32(0)        // BaseOfData
		w.u32(0x400000) // ImageBase
	} else {
		w.u64(0x140000000) // ImageBase
	}

	w.u32(sectionAlignment)
	w.u32(fileAlignment)
	w.u16(0) // MajorOperatingSystemVersion
	w.u16(0) // MinorOperatingSystemVersion
	w.u16(0) // MajorImageVersion
	w.u16(0) // MinorImageVersion
	w.u16(6) // MajorSubsystemVersion
	w.u16(0) // MinorSubsystemVersion
	w.u32(0) // Win32VersionValue
	w.u32(align(virtualAddr, sectionAlignment)) // SizeOfImage
	w.u32(sizeOfHeaders)
	w.u32(0)  // CheckSum
	w.u16(10) // Subsystem: EFI application
	w.u16(0)  // DllCharacteristics

	if opts.PE32 {
		w.u32(0x100000) // SizeOfStackReserve
		w.u32(0x1000)   // SizeOfStackCommit
		w.u32(0x100000) // SizeOfHeapReserve
		w.u32(0x1000)   // SizeOfHeapCommit
	} else {
		w.u64(0x100000)
		w.u64(0x1000)
		w.u64(0x100000)
		w.u64(0x1000)
	}

	w.u32(0)  // LoaderFlags
	w.u32(16) // NumberOfRvaAndSizes

	for i := 0; i < 16; i++ {
		if i == 4 && certSize > 0 { // Security directory: file offset, not RVA
			w.u32(certOffset)
			w.u32(certSize)
		} else {
			w.u32(0)
			w.u32(0)
		}
	}

	// section table
	for i, section := range opts.Sections {
		var name [8]byte

		copy(name[:], section.Name)
		w.bytes(name[:])

		w.u32(uint32(len(section.Data))) // VirtualSize
		w.u32(virtualAddrs[i])

		if section.RawSize != 0 {
			w.u32(section.RawSize)
		} else {
			w.u32(rawSizes[i])
		}

		if section.RawOffset != 0 {
			w.u32(section.RawOffset)
		} else {
			w.u32(rawOffsets[i])
		}

		w.u32(0)          // PointerToRelocations
		w.u32(0)          // PointerToLinenumbers
		w.u16(0)          // NumberOfRelocations
		w.u16(0)          // NumberOfLinenumbers
		w.u32(0x40000040) // INITIALIZED_DATA | READ
	}

	// raw section data
	for i, section := range opts.Sections {
		copy(image[rawOffsets[i]:], section.Data)
	}

	// attribute certificate table
	w = cursor{buf: image, off: int(certOffset)}

	for _, cert := range opts.Certificates {
		recordLen := certHeaderSize + uint32(len(cert))

		w.u32(recordLen)
		w.u16(0x0200) // WIN_CERT_REVISION_2_0
		w.u16(0x0002) // WIN_CERT_TYPE_PKCS_SIGNED_DATA
		w.bytes(cert)
		w.off = int(align(uint32(w.off), 8))
	}

	return image
}

func align(v, boundary uint32) uint32 {
	return (v + boundary - 1) &^ (boundary - 1)
}

type cursor struct {
	buf []byte
	off int
}

func (c *cursor) u8(v uint8) {
	c.buf[c.off] = v
	c.off++
}

func (c *cursor) u16(v uint16) {
	binary.LittleEndian.PutUint16(c.buf[c.off:], v)
	c.off += 2
}

func (c *cursor) u32(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[c.off:], v)
	c.off += 4
}

func (c *cursor) u64(v uint64) {
	binary.LittleEndian.PutUint64(c.buf[c.off:], v)
	c.off += 8
}

func (c *cursor) bytes(p []byte) {
	copy(c.buf[c.off:], p)
	c.off += len(p)
}
