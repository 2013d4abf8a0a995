// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package uki

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/siderolabs/gen/xerrors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/siderolabs/ukinspect/internal/pkg/initramfs"
	"github.com/siderolabs/ukinspect/internal/pkg/osrelease"
	"github.com/siderolabs/ukinspect/internal/pkg/uki/internal/pe"
)

// Option configures Inspect.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger routes per-stage debug logging to the given logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Inspect reads the UKI at path and assembles its inspection Report.
//
// The pipeline is fixed and sequential: read the file, parse PE headers,
// extract `.cmdline`/`.osrel` metadata (optional, absence is not an error),
// digest the `.linux` and `.initrd` sections (required, absence aborts),
// classify the initramfs compression, and enumerate attribute certificates.
// Any fatal error aborts the whole inspection; no partial Report is ever
// returned.
//
// The whole-file read is the only blocking point, so caller cancellation is
// honored before it; the two section digests run concurrently as they
// cover disjoint byte ranges.
func Inspect(ctx context.Context, path string, opts ...Option) (*Report, error) {
	o := options{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With(zap.String("path", path))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	logger.Debug("read file", zap.Int("len", len(data)), zap.Duration("elapsed", time.Since(start)))

	stage := time.Now()

	pef, err := pe.NewFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	report := &Report{
		Arch:     pef.Arch(),
		PE32Plus: pef.PE32Plus(),
	}

	logger.Debug("parse pe",
		zap.String("arch", report.Arch),
		zap.Bool("pe32_plus", report.PE32Plus),
		zap.Duration("elapsed", time.Since(stage)),
	)

	stage = time.Now()

	cmdline, ok, err := optionalText(pef, SectionCmdline)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}

	if ok {
		report.Cmdline = strings.TrimSpace(cmdline)
	}

	osrel, ok, err := optionalText(pef, SectionOSRel)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}

	if ok {
		report.OSRelease = osrelease.ParseInfo(osrel)
	}

	logger.Debug("metadata", zap.Duration("elapsed", time.Since(stage)))

	linuxInfo, linuxData, err := pef.SectionBytes(SectionLinux.String())
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}

	initrdInfo, initrdData, err := pef.SectionBytes(SectionInitrd.String())
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}

	report.Linux = SectionInfo{Offset: linuxInfo.Offset, Size: linuxInfo.Size}
	report.Initrd.SectionInfo = SectionInfo{Offset: initrdInfo.Offset, Size: initrdInfo.Size}
	report.Initrd.Compression = initramfs.Detect(initrdData)

	stage = time.Now()

	// the digests are pure computations over disjoint byte ranges of the
	// same image, ordering doesn't affect the Report
	eg, _ := errgroup.WithContext(ctx)

	eg.Go(func() error {
		report.Linux.SHA256 = digest.SHA256.FromBytes(linuxData).Encoded()

		return nil
	})

	eg.Go(func() error {
		report.Initrd.SHA256 = digest.SHA256.FromBytes(initrdData).Encoded()

		return nil
	})

	if err = eg.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("digests",
		zap.Uint64("linux_size", report.Linux.Size),
		zap.Uint64("initrd_size", report.Initrd.Size),
		zap.String("initrd_compression", report.Initrd.Compression.String()),
		zap.Duration("elapsed", time.Since(stage)),
	)

	stage = time.Now()

	certs := pef.Certificates()
	report.CertCount = len(certs)
	report.HasSignature = len(certs) > 0

	logger.Debug("certificates", zap.Int("count", report.CertCount), zap.Duration("elapsed", time.Since(stage)))

	return report, nil
}

// optionalText reads a text section, mapping section absence to ok=false.
func optionalText(pef *pe.File, section Section) (string, bool, error) {
	text, err := pef.Text(section.String())

	switch {
	case xerrors.TagIs[pe.SectionNotFoundTag](err):
		return "", false, nil
	case err != nil:
		return "", false, err
	default:
		return text, true, nil
	}
}
