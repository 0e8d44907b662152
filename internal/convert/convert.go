// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert dispatches PDF/PPTX conversions to pluggable backends.
// Each direction has a primary method and at most one fallback; every
// request works in its own temporary directory which is removed before the
// call returns.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/pkg/types"
)

var (
	// ErrMissingFile means the request carried no file.
	ErrMissingFile = errors.New("no file uploaded")

	// ErrInvalidInput means the file does not match the requested direction.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConversionFailed means every configured method failed.
	ErrConversionFailed = errors.New("conversion failed")
)

// Converter transforms the document at inputPath and writes the result to
// outputPath. Different backends (raster, LibreOffice, PowerPoint)
// implement this interface.
type Converter interface {
	// Name identifies the method in logs, metrics and history.
	Name() string

	Convert(ctx context.Context, inputPath, outputPath string) error
}

// Observer is notified of every finished conversion, successful or not.
// Observers must not modify result.Data.
type Observer interface {
	Observe(ctx context.Context, result types.ConversionResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, result types.ConversionResult)

func (f ObserverFunc) Observe(ctx context.Context, result types.ConversionResult) { f(ctx, result) }

// Options configures a Dispatcher.
type Options struct {
	// TempDir is the parent of per-request work directories. Empty means
	// the OS temp dir.
	TempDir string

	// Timeout bounds each method attempt. Zero means no timeout.
	Timeout time.Duration
}

// Dispatcher validates requests and runs them through the method chain of
// their direction.
type Dispatcher struct {
	opts      Options
	log       logrus.FieldLogger
	chains    map[types.Direction][]Converter
	observers []Observer
}

// NewDispatcher creates a dispatcher with no methods configured.
func NewDispatcher(opts Options, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		opts:   opts,
		log:    log.WithField("component", "dispatcher"),
		chains: make(map[types.Direction][]Converter),
	}
}

// SetChain configures the methods for dir. fallback may be nil.
func (d *Dispatcher) SetChain(dir types.Direction, primary, fallback Converter) {
	chain := []Converter{primary}
	if fallback != nil {
		chain = append(chain, fallback)
	}
	d.chains[dir] = chain
}

// AddObserver registers o to receive every result.
func (d *Dispatcher) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

// Methods returns the method names configured for dir, in order.
func (d *Dispatcher) Methods(dir types.Direction) []string {
	names := make([]string, 0, len(d.chains[dir]))
	for _, c := range d.chains[dir] {
		names = append(names, c.Name())
	}
	return names
}

// Convert validates req, runs the primary method and, if it fails, the
// fallback. The returned error wraps ErrMissingFile, ErrInvalidInput or
// ErrConversionFailed. The result is populated in every case.
func (d *Dispatcher) Convert(ctx context.Context, req types.ConversionRequest) (types.ConversionResult, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	res := types.ConversionResult{
		ID:        req.ID,
		Direction: req.Direction,
		Source:    req.Filename,
		StartedAt: time.Now().UTC(),
	}
	log := d.log.WithFields(logrus.Fields{
		"id":        req.ID,
		"direction": req.Direction,
		"filename":  req.Filename,
	})

	err := d.run(ctx, req, &res, log)
	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		res.Data = nil
		res.Error = err.Error()
		log.WithError(err).WithField("duration", res.Duration).Warn("Conversion failed.")
	} else {
		res.Success = true
		log.WithFields(logrus.Fields{
			"method":   res.Method,
			"duration": res.Duration,
			"bytes":    len(res.Data),
		}).Info("Conversion succeeded.")
	}

	for _, o := range d.observers {
		o.Observe(ctx, res)
	}
	return res, err
}

func (d *Dispatcher) run(ctx context.Context, req types.ConversionRequest, res *types.ConversionResult, log logrus.FieldLogger) error {
	if err := validate(req); err != nil {
		return err
	}

	chain := d.chains[req.Direction]
	if len(chain) == 0 {
		return fmt.Errorf("%w: no method configured for %s", ErrConversionFailed, req.Direction)
	}

	work, err := os.MkdirTemp(d.opts.TempDir, "convert-")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(work); err != nil {
			log.WithError(err).WithField("dir", work).Error("Failed to remove work directory.")
		}
	}()

	inPath := filepath.Join(work, "input"+req.Direction.InputExt())
	n, err := storeUpload(inPath, req.Body)
	res.InputBytes = n
	if err != nil {
		return fmt.Errorf("storing upload: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
	}

	var lastErr error
	for i, c := range chain {
		outPath := filepath.Join(work, fmt.Sprintf("output-%d%s", i+1, req.Direction.OutputExt()))

		start := time.Now()
		data, err := d.attempt(ctx, c, inPath, outPath)
		a := types.Attempt{Method: c.Name(), Duration: time.Since(start)}

		if err == nil {
			res.Attempts = append(res.Attempts, a)
			res.Method = c.Name()
			res.Data = data
			res.Filename = OutputName(req.Filename, req.Direction)
			res.ContentType = req.Direction.ContentType()
			return nil
		}

		a.Error = err.Error()
		res.Attempts = append(res.Attempts, a)
		lastErr = err
		log.WithError(err).WithFields(logrus.Fields{
			"method":  c.Name(),
			"attempt": i + 1,
		}).Warn("Conversion method failed.")

		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("%w: %w", ErrConversionFailed, lastErr)
}

func (d *Dispatcher) attempt(ctx context.Context, c Converter, inPath, outPath string) ([]byte, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	if err := safeConvert(ctx, c, inPath, outPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%s left no output: %w", c.Name(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s produced an empty file", c.Name())
	}
	return data, nil
}

// safeConvert runs c, turning a panic in the method or the libraries it
// calls into an error so that the fallback still runs.
func safeConvert(ctx context.Context, c Converter, inPath, outPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", c.Name(), r)
		}
	}()
	return c.Convert(ctx, inPath, outPath)
}

func validate(req types.ConversionRequest) error {
	if !req.Direction.Valid() {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, req.Direction)
	}
	name := strings.TrimSpace(req.Filename)
	if name == "" || req.Body == nil {
		return ErrMissingFile
	}
	want := req.Direction.InputExt()
	if ext := strings.ToLower(filepath.Ext(name)); ext != want {
		return fmt.Errorf("%w: %s conversion requires a %s file, got %q", ErrInvalidInput, req.Direction, want, name)
	}
	return nil
}

func storeUpload(path string, body io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// OutputName derives the download name from the uploaded file name,
// falling back to the direction's default when no stem remains.
func OutputName(filename string, dir types.Direction) string {
	base := filepath.Base(strings.TrimSpace(filename))
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return dir.DefaultFilename()
	}
	return stem + dir.OutputExt()
}
