// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pptx writes picture-only PowerPoint (OOXML) presentations: one
// slide per image, each image fitted into the slide and centred.
package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"
)

const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700

	// PowerPoint rejects slide sizes outside 1in..56in.
	MinSlideEMU = 914400
	MaxSlideEMU = 51206400

	// Default 16:9 slide, 13.333in x 7.5in.
	DefaultWidth  = 12192000
	DefaultHeight = 6858000
)

// ErrEmptyDeck is returned when writing a deck without slides.
var ErrEmptyDeck = errors.New("presentation has no slides")

// Image is an encoded picture and its pixel dimensions.
type Image struct {
	Data   []byte
	Format string // "png" or "jpeg"
	Width  int
	Height int
}

// DecodeImage sniffs the format and dimensions of an encoded PNG or JPEG.
func DecodeImage(data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decoding image header: %w", err)
	}
	return Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Ext is the file extension used for the media part.
func (img Image) Ext() string {
	if img.Format == "jpeg" {
		return "jpeg"
	}
	return "png"
}

type slide struct {
	Number int
	Image  Image
	X, Y   int64
	CX, CY int64
}

// Deck accumulates slides and serializes them as a .pptx package.
type Deck struct {
	// Title is stored in the document core properties.
	Title   string
	Created time.Time

	width, height int64
	slides        []slide
}

// NewDeck creates a deck whose slides measure width x height EMU. Each
// dimension is clamped to the range PowerPoint accepts.
func NewDeck(width, height int64) *Deck {
	return &Deck{
		Created: time.Now().UTC(),
		width:   clamp(width),
		height:  clamp(height),
	}
}

// SizeFromPoints converts a page size in PDF points to slide EMU.
func SizeFromPoints(w, h float64) (int64, int64) {
	return int64(w * EMUPerPoint), int64(h * EMUPerPoint)
}

func clamp(v int64) int64 {
	switch {
	case v <= 0:
		return MinSlideEMU
	case v < MinSlideEMU:
		return MinSlideEMU
	case v > MaxSlideEMU:
		return MaxSlideEMU
	}
	return v
}

// Size returns the slide dimensions in EMU.
func (d *Deck) Size() (width, height int64) { return d.width, d.height }

// Len returns the number of slides.
func (d *Deck) Len() int { return len(d.slides) }

// AddImage appends a slide showing img, scaled to fit and centred.
func (d *Deck) AddImage(img Image) error {
	if img.Format != "png" && img.Format != "jpeg" {
		return fmt.Errorf("unsupported image format %q", img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", img.Width, img.Height)
	}

	scale := min(float64(d.width)/float64(img.Width), float64(d.height)/float64(img.Height))
	cx := int64(float64(img.Width) * scale)
	cy := int64(float64(img.Height) * scale)

	d.slides = append(d.slides, slide{
		Number: len(d.slides) + 1,
		Image:  img,
		X:      (d.width - cx) / 2,
		Y:      (d.height - cy) / 2,
		CX:     cx,
		CY:     cy,
	})
	return nil
}

// WriteFile writes the presentation to path.
func (d *Deck) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes the presentation package to w.
func (d *Deck) Write(w io.Writer) error {
	if len(d.slides) == 0 {
		return ErrEmptyDeck
	}

	zw := zip.NewWriter(w)
	data := d.templateData()

	for _, p := range packageParts {
		if err := writeTemplate(zw, p.name, p.tmpl, data); err != nil {
			return err
		}
	}

	for _, s := range d.slides {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", s.Number)
		if err := writeTemplate(zw, name, slideTmpl, s); err != nil {
			return err
		}
		name = fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number)
		if err := writeTemplate(zw, name, slideRelsTmpl, s); err != nil {
			return err
		}

		// Encoded images are already compressed.
		mw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     fmt.Sprintf("ppt/media/image%d.%s", s.Number, s.Image.Ext()),
			Method:   zip.Store,
			Modified: d.Created,
		})
		if err != nil {
			return err
		}
		if _, err := mw.Write(s.Image.Data); err != nil {
			return err
		}
	}

	return zw.Close()
}

type templateData struct {
	Title    string
	Created  string
	Width    int64
	Height   int64
	Slides   []slide
	HasJPEG  bool
	HasPNG   bool
	NumSlide int
}

func (d *Deck) templateData() templateData {
	td := templateData{
		Title:    d.Title,
		Created:  d.Created.UTC().Format(time.RFC3339),
		Width:    d.width,
		Height:   d.height,
		Slides:   d.slides,
		NumSlide: len(d.slides),
	}
	for _, s := range d.slides {
		if s.Image.Format == "jpeg" {
			td.HasJPEG = true
		} else {
			td.HasPNG = true
		}
	}
	return td
}
