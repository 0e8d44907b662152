// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mupdf

package convert

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/deck-converter/internal/sysexec"
)

// fitzRasterizer renders pages in-process with MuPDF.
type fitzRasterizer struct{}

// NewRasterizer returns the rasterizer compiled into this binary.
func NewRasterizer(sysexec.Executor) Rasterizer {
	return fitzRasterizer{}
}

func (fitzRasterizer) Name() string { return "mupdf" }

func (fitzRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		path := filepath.Join(outDir, fmt.Sprintf("page-%04d.png", i+1))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		err = png.Encode(f, img)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, path)
	}
	return pages, nil
}
