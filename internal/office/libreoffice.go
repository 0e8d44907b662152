// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office drives desktop office suites in batch mode: LibreOffice
// (local binary or container image) and, on Windows, Microsoft PowerPoint.
package office

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/internal/container"
	"github.com/pdiddy/deck-converter/internal/sysexec"
	"github.com/pdiddy/deck-converter/pkg/types"
)

const (
	containerInDir  = "/in"
	containerOutDir = "/out"

	// FilterPDFImport makes LibreOffice open PDFs in Impress instead of Draw,
	// which is required to export them as presentations.
	FilterPDFImport = "impress_pdf_import"
)

var defaultBinaries = []string{"libreoffice", "soffice"}

// lockRetryDelay is how often a blocked invocation re-checks the profile lock.
var lockRetryDelay = 200 * time.Millisecond

// Suite runs LibreOffice conversions. Exactly one of binary or runtime is set.
type Suite struct {
	exec sysexec.Executor
	log  logrus.FieldLogger

	binary     string
	profileDir string

	runtime container.Runtime
	image   string
}

// Locate finds a usable LibreOffice: the first configured binary on PATH,
// else the configured container image under docker or podman.
func Locate(ctx context.Context, cfg types.OfficeConfig, exec sysexec.Executor, log logrus.FieldLogger) (*Suite, error) {
	bins := cfg.Binaries
	if len(bins) == 0 {
		bins = defaultBinaries
	}

	for _, b := range bins {
		path, err := exec.LookPath(b)
		if err != nil {
			continue
		}
		profile := cfg.ProfileDir
		if profile == "" {
			profile = filepath.Join(os.TempDir(), "deck-converter-office-profile")
		}
		log.WithFields(logrus.Fields{"binary": path, "profile": profile}).Info("Using local office suite.")
		return &Suite{exec: exec, log: log, binary: path, profileDir: profile}, nil
	}

	if cfg.ContainerImage == "" {
		return nil, fmt.Errorf("no office suite found on PATH (tried %s) and no container image configured",
			strings.Join(bins, ", "))
	}

	rt, err := container.DetectRuntime(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("no office suite found on PATH (tried %s): %w", strings.Join(bins, ", "), err)
	}
	if err := rt.ImageExists(ctx, cfg.ContainerImage); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"runtime": rt.Name(), "image": cfg.ContainerImage}).Info("Using containerized office suite.")
	return &Suite{exec: exec, log: log, runtime: rt, image: cfg.ContainerImage}, nil
}

// Name describes where the suite runs.
func (s *Suite) Name() string {
	if s.runtime != nil {
		return "libreoffice@" + s.runtime.Name()
	}
	return "libreoffice"
}

// Convert converts inputPath to format (e.g. "pdf", "pptx"), writing into
// outDir, and returns the path of the produced file. filter optionally
// names an input filter.
func (s *Suite) Convert(ctx context.Context, inputPath, outDir, format, filter string) (string, error) {
	base := filepath.Base(inputPath)
	want := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+"."+format)

	var (
		out []byte
		err error
	)
	if s.runtime != nil {
		out, err = s.convertInContainer(ctx, inputPath, outDir, format, filter)
	} else {
		out, err = s.convertLocal(ctx, inputPath, outDir, format, filter)
	}
	if err != nil {
		return "", err
	}

	// soffice exits 0 even when it cannot load the source.
	info, statErr := os.Stat(want)
	if statErr != nil || info.Size() == 0 {
		return "", fmt.Errorf("%s produced no %s output for %s: %s",
			s.Name(), format, base, strings.TrimSpace(string(out)))
	}
	return want, nil
}

func (s *Suite) convertLocal(ctx context.Context, inputPath, outDir, format, filter string) ([]byte, error) {
	if err := os.MkdirAll(s.profileDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating office profile: %w", err)
	}

	lock := flock.New(s.profileDir + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking office profile: %w", err)
	}
	if !locked {
		return nil, errors.New("office profile is locked by another process")
	}
	defer lock.Unlock()

	args := convertArgs(profileURL(s.profileDir), inputPath, outDir, format, filter)
	s.log.WithFields(logrus.Fields{"binary": s.binary, "args": args}).Debug("Running office suite.")
	return s.exec.RunCombined(ctx, s.binary, args...)
}

func (s *Suite) convertInContainer(ctx context.Context, inputPath, outDir, format, filter string) ([]byte, error) {
	inDir, err := filepath.Abs(filepath.Dir(inputPath))
	if err != nil {
		return nil, err
	}
	hostOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}

	mounts := []container.Mount{
		{Source: inDir, Target: containerInDir},
		{Source: hostOut, Target: containerOutDir},
	}
	args := convertArgs("", containerInDir+"/"+filepath.Base(inputPath), containerOutDir, format, filter)
	s.log.WithFields(logrus.Fields{"image": s.image, "args": args}).Debug("Running containerized office suite.")
	return s.runtime.Run(ctx, s.image, mounts, args)
}

func convertArgs(profile, inputPath, outDir, format, filter string) []string {
	args := []string{"--headless", "--norestore", "--nolockcheck"}
	if profile != "" {
		args = append(args, "-env:UserInstallation="+profile)
	}
	if filter != "" {
		args = append(args, "--infilter="+filter)
	}
	return append(args, "--convert-to", format, "--outdir", outDir, inputPath)
}

// profileURL renders dir as the file URL LibreOffice expects.
func profileURL(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// Unavailable stands in for a suite that could not be located, so the
// service can still start and report the reason per request.
type Unavailable struct {
	Err error
}

func (u Unavailable) Name() string { return "libreoffice" }

func (u Unavailable) Convert(context.Context, string, string, string, string) (string, error) {
	return "", fmt.Errorf("office suite unavailable: %w", u.Err)
}
