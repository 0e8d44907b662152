// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/internal/pptx"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 150

// Rasterizer renders every page of a PDF to a PNG file in outDir and
// returns the paths in page order.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)
}

// PageSize is a page's media box in PDF points.
type PageSize struct {
	Width  float64
	Height float64
}

// RasterConverter turns a PDF into a presentation with one picture slide
// per page. The slide size follows the first page.
type RasterConverter struct {
	raster    Rasterizer
	dpi       int
	log       logrus.FieldLogger
	pageSizes func(path string) ([]PageSize, error)
}

// NewRasterConverter returns a converter rendering pages at dpi.
func NewRasterConverter(raster Rasterizer, dpi int, log logrus.FieldLogger) *RasterConverter {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &RasterConverter{
		raster:    raster,
		dpi:       dpi,
		log:       log.WithField("method", "raster"),
		pageSizes: PDFPageSizes,
	}
}

func (c *RasterConverter) Name() string { return "raster" }

func (c *RasterConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	sizes, err := c.pageSizes(inputPath)
	if err != nil {
		return fmt.Errorf("reading PDF: %w", err)
	}
	if len(sizes) == 0 {
		return errors.New("PDF has no pages")
	}

	pagesDir, err := os.MkdirTemp(filepath.Dir(outputPath), "pages-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(pagesDir)

	pages, err := c.raster.Rasterize(ctx, inputPath, pagesDir, c.dpi)
	if err != nil {
		return fmt.Errorf("rendering pages with %s: %w", c.raster.Name(), err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("%s rendered no pages", c.raster.Name())
	}
	if len(pages) != len(sizes) {
		c.log.WithFields(logrus.Fields{
			"pages":    len(sizes),
			"rendered": len(pages),
		}).Warn("Rendered page count differs from PDF page count.")
	}

	deck := pptx.NewDeck(pptx.SizeFromPoints(sizes[0].Width, sizes[0].Height))
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		img, err := pptx.DecodeImage(data)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		if err := deck.AddImage(img); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	c.log.WithFields(logrus.Fields{
		"slides": deck.Len(),
		"dpi":    c.dpi,
	}).Debug("Writing presentation.")
	return deck.WriteFile(outputPath)
}

// PDFPageSizes returns the media box of every page, validating the PDF
// in the process. pdfcpu panics on some damaged files (a missing xref
// table among them); those are reported as errors.
func PDFPageSizes(path string) (_ []PageSize, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(f, conf)
	if err != nil {
		return nil, err
	}
	sizes := make([]PageSize, len(dims))
	for i, d := range dims {
		sizes[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return sizes, nil
}
