// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package uki

import "github.com/siderolabs/ukinspect/internal/pkg/uki/internal/pe"

// Error tags re-exported from the PE adapter, so inspection failures can be
// classified with xerrors.TagIs without reaching into internal packages.
type (
	// MalformedImageTag tags errors for images failing PE/COFF structural validation.
	MalformedImageTag = pe.MalformedImageTag
	// SectionNotFoundTag tags errors for required sections absent from the image.
	SectionNotFoundTag = pe.SectionNotFoundTag
	// InvalidSectionBoundsTag tags errors for section table entries claiming a range outside the image.
	InvalidSectionBoundsTag = pe.InvalidSectionBoundsTag
)
