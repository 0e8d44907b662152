// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/deck-converter/internal/office"
	"github.com/pdiddy/deck-converter/pkg/types"
)

// OfficeSuite converts documents with an office application. It writes
// into outDir and returns the produced path. office.Suite and
// office.Unavailable implement it.
type OfficeSuite interface {
	Name() string
	Convert(ctx context.Context, inputPath, outDir, format, filter string) (string, error)
}

// OfficeConverter adapts an OfficeSuite to Converter for one direction.
type OfficeConverter struct {
	suite  OfficeSuite
	format string
	filter string
}

// NewOfficeConverter returns a converter producing dir's output format.
func NewOfficeConverter(suite OfficeSuite, dir types.Direction) *OfficeConverter {
	c := &OfficeConverter{suite: suite, format: dir.OutputFormat()}
	if dir == types.PDFToPPTX {
		c.filter = office.FilterPDFImport
	}
	return c
}

func (c *OfficeConverter) Name() string { return c.suite.Name() }

// Convert runs the suite in a scratch directory next to outputPath, since
// the suite names its output after the input file.
func (c *OfficeConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(outputPath), "office-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	produced, err := c.suite.Convert(ctx, inputPath, scratch, c.format, c.filter)
	if err != nil {
		return err
	}
	if err := os.Rename(produced, outputPath); err != nil {
		return fmt.Errorf("moving %s output: %w", c.suite.Name(), err)
	}
	return nil
}

// PowerPointExporter is implemented by office.PowerPoint.
type PowerPointExporter interface {
	Available() bool
	ExportPDF(ctx context.Context, inputPath, outputPath string) error
}

// PowerPointConverter converts PPTX to PDF with PowerPoint itself.
type PowerPointConverter struct {
	pp PowerPointExporter
}

// NewPowerPointConverter returns nil when PowerPoint is not usable on this
// host, so it can be passed directly as an optional fallback.
func NewPowerPointConverter(pp PowerPointExporter) Converter {
	if pp == nil || !pp.Available() {
		return nil
	}
	return &PowerPointConverter{pp: pp}
}

func (c *PowerPointConverter) Name() string { return "powerpoint" }

func (c *PowerPointConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	return c.pp.ExportPDF(ctx, inputPath, outputPath)
}
