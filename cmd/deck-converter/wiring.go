// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/internal/convert"
	"github.com/pdiddy/deck-converter/internal/events"
	"github.com/pdiddy/deck-converter/internal/history"
	"github.com/pdiddy/deck-converter/internal/metrics"
	"github.com/pdiddy/deck-converter/internal/office"
	"github.com/pdiddy/deck-converter/internal/storage"
	"github.com/pdiddy/deck-converter/internal/sysexec"
	"github.com/pdiddy/deck-converter/pkg/types"
)

// app holds the components shared by serve and local convert.
type app struct {
	dispatcher *convert.Dispatcher
	history    *history.Store
	metrics    *metrics.Reporter
	closers    []io.Closer
}

// newApp builds the dispatcher and attaches every enabled observer.
func newApp(ctx context.Context, conf types.Config, log logrus.FieldLogger) (*app, error) {
	a := &app{dispatcher: buildDispatcher(ctx, conf, sysexec.Default, log)}

	if conf.Metrics.Enabled {
		r, err := metrics.NewReporter()
		if err != nil {
			return nil, fmt.Errorf("creating metrics: %w", err)
		}
		a.metrics = r
		a.dispatcher.AddObserver(r)
	}

	if conf.History.Path != "" {
		st, err := history.Open(conf.History.Path, log)
		if err != nil {
			return nil, err
		}
		a.history = st
		a.closers = append(a.closers, st)
		a.dispatcher.AddObserver(st)
	}

	if conf.Storage.Enabled {
		ar, err := storage.NewArchive(conf.Storage, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating archive: %w", err)
		}
		a.closers = append(a.closers, ar)
		a.dispatcher.AddObserver(ar)
	}

	if len(conf.Events.Brokers) > 0 {
		p, err := events.NewPublisher(conf.Events, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating event publisher: %w", err)
		}
		a.closers = append(a.closers, p)
		a.dispatcher.AddObserver(p)
	}

	return a, nil
}

// Close releases observers in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// buildDispatcher configures both method chains. A missing office suite
// leaves the office methods in place so that they fail and are counted.
func buildDispatcher(ctx context.Context, conf types.Config, exec sysexec.Executor, log logrus.FieldLogger) *convert.Dispatcher {
	d := convert.NewDispatcher(convert.Options{
		TempDir: conf.Conversion.TempDir,
		Timeout: conf.Conversion.Timeout,
	}, log)

	var suite convert.OfficeSuite
	s, err := office.Locate(ctx, conf.Office, exec, log)
	if err != nil {
		log.WithError(err).Warn("No office suite available, office methods will fail.")
		suite = office.Unavailable{Err: err}
	} else {
		suite = s
	}

	raster := convert.NewRasterConverter(convert.NewRasterizer(exec), conf.Conversion.DPI, log)
	d.SetChain(types.PDFToPPTX, raster, convert.NewOfficeConverter(suite, types.PDFToPPTX))
	d.SetChain(types.PPTXToPDF,
		convert.NewOfficeConverter(suite, types.PPTXToPDF),
		convert.NewPowerPointConverter(office.NewPowerPoint(exec, log)))

	for _, dir := range []types.Direction{types.PDFToPPTX, types.PPTXToPDF} {
		log.WithFields(logrus.Fields{"direction": dir, "methods": d.Methods(dir)}).Debug("Configured conversion chain.")
	}
	return d
}
