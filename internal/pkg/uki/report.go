// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package uki

import (
	"github.com/siderolabs/ukinspect/internal/pkg/initramfs"
	"github.com/siderolabs/ukinspect/internal/pkg/osrelease"
)

// SectionInfo is the file location and content digest of one UKI section.
type SectionInfo struct {
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
	SHA256 string `json:"sha256"`
}

// InitrdInfo is SectionInfo plus initramfs classification.
type InitrdInfo struct {
	SectionInfo

	Compression initramfs.Compression `json:"compression"`
	// EntriesEstimate is reserved: archive entry counting is not implemented,
	// so the field is never populated.
	EntriesEstimate *int `json:"entries_estimate,omitempty"`
}

// Report is the immutable result of one UKI inspection.
//
// Every field is copied out of the image buffer during assembly; a Report
// never aliases the file bytes it was derived from.
type Report struct {
	Arch         string          `json:"arch"`
	PE32Plus     bool            `json:"pe32_plus"`
	HasSignature bool            `json:"has_signature"`
	CertCount    int             `json:"cert_count"`
	Cmdline      string          `json:"cmdline"`
	OSRelease    *osrelease.Info `json:"os_release,omitempty"`
	Linux        SectionInfo     `json:"linux"`
	Initrd       InitrdInfo      `json:"initrd"`
}
