// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package uki implements read-only inspection of Unified Kernel Image (UKI) files.
package uki

// Section is a name of a PE file section (UEFI binary).
type Section string

// List of well-known section names.
//
// Derived from https://github.com/systemd/systemd/blob/main/src/fundamental/uki.h
const (
	SectionLinux   Section = ".linux"
	SectionOSRel   Section = ".osrel"
	SectionCmdline Section = ".cmdline"
	SectionInitrd  Section = ".initrd"
	SectionSplash  Section = ".splash"
	SectionDTB     Section = ".dtb"
	SectionUname   Section = ".uname"
	SectionSBAT    Section = ".sbat"
	SectionPCRSig  Section = ".pcrsig"
	SectionPCRPKey Section = ".pcrpkey"
)

// String implements fmt.Stringer.
func (s Section) String() string {
	return string(s)
}
