// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Direction identifies which way a document is converted.
type Direction string

const (
	// PDFToPPTX converts a PDF document into a PowerPoint presentation.
	PDFToPPTX Direction = "pdf2pptx"
	// PPTXToPDF converts a PowerPoint presentation into a PDF document.
	PPTXToPDF Direction = "pptx2pdf"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Directions lists every supported direction.
var Directions = []Direction{PDFToPPTX, PPTXToPDF}

// ParseDirection converts a user-supplied direction name. An empty string
// selects PDFToPPTX.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PDFToPPTX):
		return PDFToPPTX, nil
	case string(PPTXToPDF):
		return PPTXToPDF, nil
	default:
		return "", fmt.Errorf("unknown conversion type %q (want %s or %s)", s, PDFToPPTX, PPTXToPDF)
	}
}

// InputExt returns the file extension accepted as input, including the dot.
func (d Direction) InputExt() string {
	if d == PPTXToPDF {
		return ".pptx"
	}
	return ".pdf"
}

// OutputExt returns the extension of the produced file, including the dot.
func (d Direction) OutputExt() string {
	if d == PPTXToPDF {
		return ".pdf"
	}
	return ".pptx"
}

// OutputFormat is the bare output extension ("pptx" or "pdf").
func (d Direction) OutputFormat() string {
	return strings.TrimPrefix(d.OutputExt(), ".")
}

// ContentType returns the MIME type of the produced file.
func (d Direction) ContentType() string {
	if d == PPTXToPDF {
		return ContentTypePDF
	}
	return ContentTypePPTX
}

// DefaultFilename is the download name used when the upload has no usable
// base name.
func (d Direction) DefaultFilename() string {
	if d == PPTXToPDF {
		return "converted_document.pdf"
	}
	return "converted_presentation.pptx"
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == PDFToPPTX || d == PPTXToPDF
}

// ConversionStatus is the persisted outcome of a conversion.
type ConversionStatus string

const (
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// ConversionRequest is a single upload to convert.
type ConversionRequest struct {
	// ID identifies the request in logs, history and events.
	ID string

	// Filename is the client-supplied name of the upload.
	Filename string

	Direction Direction

	// Body streams the uploaded bytes.
	Body io.Reader
}

// Attempt records one conversion method invocation.
type Attempt struct {
	Method   string        `json:"method" yaml:"method"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ConversionResult is the outcome of a dispatched conversion. Data is only
// populated on success.
type ConversionResult struct {
	ID          string        `json:"id" yaml:"id"`
	Direction   Direction     `json:"direction" yaml:"direction"`
	Success     bool          `json:"success" yaml:"success"`
	Source      string        `json:"source" yaml:"source"`
	Filename    string        `json:"filename,omitempty" yaml:"filename,omitempty"`
	ContentType string        `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Method      string        `json:"method,omitempty" yaml:"method,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts    []Attempt     `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	InputBytes  int64         `json:"input_bytes" yaml:"input_bytes"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Data        []byte        `json:"-" yaml:"-"`
}

// Status maps the success flag to a ConversionStatus.
func (r ConversionResult) Status() ConversionStatus {
	if r.Success {
		return ConversionDone
	}
	return ConversionFailed
}

// OutputBytes returns the size of the converted document.
func (r ConversionResult) OutputBytes() int64 {
	return int64(len(r.Data))
}

// ConversionRecord is a persisted summary of a ConversionResult.
type ConversionRecord struct {
	ID          string           `json:"id" yaml:"id"`
	Direction   Direction        `json:"direction" yaml:"direction"`
	Status      ConversionStatus `json:"status" yaml:"status"`
	Source      string           `json:"source" yaml:"source"`
	Filename    string           `json:"filename,omitempty" yaml:"filename,omitempty"`
	Method      string           `json:"method,omitempty" yaml:"method,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts    []Attempt        `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	InputBytes  int64            `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int64            `json:"output_bytes" yaml:"output_bytes"`
	StartedAt   time.Time        `json:"started_at" yaml:"started_at"`
	Duration    time.Duration    `json:"duration" yaml:"duration"`
}

// Record summarizes r for persistence.
func (r ConversionResult) Record() ConversionRecord {
	return ConversionRecord{
		ID:          r.ID,
		Direction:   r.Direction,
		Status:      r.Status(),
		Source:      r.Source,
		Filename:    r.Filename,
		Method:      r.Method,
		Error:       r.Error,
		Attempts:    r.Attempts,
		InputBytes:  r.InputBytes,
		OutputBytes: r.OutputBytes(),
		StartedAt:   r.StartedAt,
		Duration:    r.Duration,
	}
}
