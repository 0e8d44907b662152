// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !mupdf

package convert

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/deck-converter/internal/sysexec"
)

const pdftoppmBinary = "pdftoppm"

// popplerRasterizer shells out to poppler's pdftoppm. Builds tagged mupdf
// link MuPDF instead.
type popplerRasterizer struct {
	exec sysexec.Executor
}

// NewRasterizer returns the rasterizer compiled into this binary.
func NewRasterizer(exec sysexec.Executor) Rasterizer {
	return &popplerRasterizer{exec: exec}
}

func (r *popplerRasterizer) Name() string { return pdftoppmBinary }

func (r *popplerRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	if _, err := r.exec.LookPath(pdftoppmBinary); err != nil {
		return nil, err
	}

	prefix := filepath.Join(outDir, "page")
	if _, err := r.exec.RunCombined(ctx, pdftoppmBinary, "-r", strconv.Itoa(dpi), "-png", pdfPath, prefix); err != nil {
		return nil, err
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Slice(pages, func(i, j int) bool {
		return pageNumber(pages[i], prefix) < pageNumber(pages[j], prefix)
	})
	return pages, nil
}

// pageNumber extracts N from <prefix>-N.png. pdftoppm zero-pads N to the
// width of the page count, but sorting numerically does not rely on it.
func pageNumber(path, prefix string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"-"), ".png")
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
