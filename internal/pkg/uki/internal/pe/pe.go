// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package pe provides read-only access to PE/COFF (UEFI binary) images.
//
// The package owns the raw image bytes and exposes borrowed slices into
// them; no returned slice is valid past the lifetime of the File it came
// from. Parsing is delegated to github.com/saferwall/pe, the attribute
// certificate table is walked by this package directly so that signature
// presence never depends on optional data directory parsing.
package pe

import (
	"bytes"
	"encoding/binary"
	"strings"

	peparser "github.com/saferwall/pe"
	"github.com/siderolabs/gen/xerrors"
)

// Error tags for inspection failure classification.
type (
	// MalformedImageTag tags errors for byte streams failing PE/COFF structural validation.
	MalformedImageTag struct{}
	// SectionNotFoundTag tags errors for sections absent from the section table.
	SectionNotFoundTag struct{}
	// InvalidSectionBoundsTag tags errors for section table entries claiming a range outside the image.
	InvalidSectionBoundsTag struct{}
)

// Machine type values from the PE/COFF specification.
const (
	machineAMD64 = 0x8664
	machineARM64 = 0xaa64
	machineARM   = 0x1c0
	machineI386  = 0x14c
)

// The Security data directory; unique among data directories, its
// "virtual address" is a plain file offset.
const dirEntryCertificate = 4

// winCertHeaderSize is the size of the WIN_CERTIFICATE header preceding
// each attribute certificate blob.
const winCertHeaderSize = 8

// SectionInfo locates a named section in the image file.
//
// It records coordinates only and never copies bytes; the invariant
// offset+size <= image length is established at construction.
type SectionInfo struct {
	Name   string
	Offset uint64
	Size   uint64
}

// Certificate is the header and raw contents of one Authenticode attribute
// certificate. The blob is typically PKCS#7 SignedData (type 0x0002).
type Certificate struct {
	Length   uint32
	Revision uint16
	Type     uint16
	Data     []byte
}

// File is a read-only view over an in-memory PE/COFF image.
type File struct {
	data []byte
	pef  *peparser.File

	certOffset uint32
	certSize   uint32
	pe32Plus   bool
}

// NewFile parses a PE/COFF image from caller-provided bytes.
//
// Fast mode parses the headers and the section table only; that is all the
// inspection needs, and it keeps malformed optional directories from
// failing the whole parse.
func NewFile(data []byte) (*File, error) {
	pef, err := peparser.NewBytes(data, &peparser.Options{Fast: true})
	if err != nil {
		return nil, xerrors.NewTaggedf[MalformedImageTag]("not a valid PE/COFF image: %w", err)
	}

	if err = pef.Parse(); err != nil {
		return nil, xerrors.NewTaggedf[MalformedImageTag]("not a valid PE/COFF image: %w", err)
	}

	f := &File{
		data: data,
		pef:  pef,
	}

	switch hdr := pef.NtHeader.OptionalHeader.(type) {
	case peparser.ImageOptionalHeader64:
		f.pe32Plus = true
		f.certOffset = hdr.DataDirectory[dirEntryCertificate].VirtualAddress
		f.certSize = hdr.DataDirectory[dirEntryCertificate].Size
	case peparser.ImageOptionalHeader32:
		f.certOffset = hdr.DataDirectory[dirEntryCertificate].VirtualAddress
		f.certSize = hdr.DataDirectory[dirEntryCertificate].Size
	default:
		return nil, xerrors.NewTaggedf[MalformedImageTag]("image has no usable optional header")
	}

	return f, nil
}

// Arch returns a human label for the image machine type.
//
// Machine types outside the table map to "unknown"; that is a reportable
// state, not an error.
func (f *File) Arch() string {
	switch uint16(f.pef.NtHeader.FileHeader.Machine) {
	case machineAMD64:
		return "x86_64"
	case machineARM64:
		return "aarch64"
	case machineARM:
		return "arm"
	case machineI386:
		return "i386"
	default:
		return "unknown"
	}
}

// PE32Plus reports whether the image uses the PE32+ (64-bit) optional header.
func (f *File) PE32Plus() bool {
	return f.pe32Plus
}

// Section locates a named section in the section table.
//
// The match is exact; the first match wins when duplicate names exist.
func (f *File) Section(name string) (SectionInfo, error) {
	for i := range f.pef.Sections {
		hdr := &f.pef.Sections[i].Header

		if sectionName(hdr.Name) != name {
			continue
		}

		info := SectionInfo{
			Name:   name,
			Offset: uint64(hdr.PointerToRawData),
			Size:   uint64(hdr.SizeOfRawData),
		}

		if info.Offset+info.Size > uint64(len(f.data)) {
			return SectionInfo{}, xerrors.NewTaggedf[InvalidSectionBoundsTag](
				"section %q claims [%#x, %#x) beyond image size %#x",
				name, info.Offset, info.Offset+info.Size, len(f.data))
		}

		return info, nil
	}

	return SectionInfo{}, xerrors.NewTaggedf[SectionNotFoundTag]("no %q section found in the UKI", name)
}

// Bytes returns the raw [offset, offset+size) file range of the section.
//
// Bounds are re-checked against the image length before slicing: a section
// table that survived header validation can still be corrupt.
func (f *File) Bytes(info SectionInfo) ([]byte, error) {
	end := info.Offset + info.Size

	if end < info.Offset || end > uint64(len(f.data)) {
		return nil, xerrors.NewTaggedf[InvalidSectionBoundsTag](
			"section %q claims [%#x, %#x) beyond image size %#x",
			info.Name, info.Offset, end, len(f.data))
	}

	return f.data[info.Offset:end], nil
}

// SectionBytes locates a named section and returns its coordinates together
// with the borrowed byte range.
func (f *File) SectionBytes(name string) (SectionInfo, []byte, error) {
	info, err := f.Section(name)
	if err != nil {
		return SectionInfo{}, nil, err
	}

	data, err := f.Bytes(info)
	if err != nil {
		return SectionInfo{}, nil, err
	}

	return info, data, nil
}

// Text reads a section as text.
//
// UKI text sections are NUL-padded fixed regions, so the content is
// truncated at the first NUL byte and decoded as UTF-8 with replacement of
// invalid sequences. Invalid UTF-8 never fails an inspection.
func (f *File) Text(name string) (string, error) {
	_, data, err := f.SectionBytes(name)
	if err != nil {
		return "", err
	}

	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	return strings.ToValidUTF8(string(data), "�"), nil
}

// Certificates walks the WIN_CERTIFICATE records of the Security data
// directory and returns one Certificate per record.
//
// Presence of records indicates an Authenticode certificate table exists;
// it says nothing about signature validity, and no verification is ever
// attempted here. A truncated trailing record stops the walk instead of
// failing it.
func (f *File) Certificates() []Certificate {
	offset, end := uint64(f.certOffset), uint64(f.certOffset)+uint64(f.certSize)

	if f.certOffset == 0 || f.certSize == 0 {
		return nil
	}

	if end > uint64(len(f.data)) {
		end = uint64(len(f.data))
	}

	var certs []Certificate

	for offset+winCertHeaderSize <= end {
		length := binary.LittleEndian.Uint32(f.data[offset:])
		revision := binary.LittleEndian.Uint16(f.data[offset+4:])
		certType := binary.LittleEndian.Uint16(f.data[offset+6:])

		if length < winCertHeaderSize || offset+uint64(length) > end {
			break
		}

		certs = append(certs, Certificate{
			Length:   length,
			Revision: revision,
			Type:     certType,
			Data:     f.data[offset+winCertHeaderSize : offset+uint64(length)],
		})

		// records are 8-byte aligned
		offset = (offset + uint64(length) + 7) &^ 7
	}

	return certs
}

func sectionName(raw [8]byte) string {
	return strings.TrimRight(string(raw[:]), "\x00")
}
