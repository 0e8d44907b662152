// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deck-converter/pkg/types"
)

const (
	DefaultPort          = 10000
	DefaultMaxUploadSize = "50M"
	defaultShutdown      = 30 * time.Second
)

// Converter runs a single conversion; *convert.Dispatcher implements it.
type Converter interface {
	Convert(ctx context.Context, req types.ConversionRequest) (types.ConversionResult, error)
}

// HistoryLister returns recent conversions; *history.Store implements it.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]types.ConversionRecord, error)
}

// Options wires a Server. History and Metrics are optional.
type Options struct {
	Config    types.ServerConfig
	Converter Converter
	History   HistoryLister

	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string

	Log logrus.FieldLogger
}

// Server is the HTTP front end.
type Server struct {
	echo      *echo.Echo
	conf      types.ServerConfig
	converter Converter
	history   HistoryLister
	log       logrus.FieldLogger
}

// New builds the echo instance with middleware and routes.
func New(opts Options) *Server {
	conf := opts.Config
	if conf.MaxUploadSize == "" {
		conf.MaxUploadSize = DefaultMaxUploadSize
	}
	if conf.ShutdownTimeout <= 0 {
		conf.ShutdownTimeout = defaultShutdown
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		conf:      conf,
		converter: opts.Converter,
		history:   opts.History,
		log:       opts.Log.WithField("component", "server"),
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())
	e.Use(middleware.Recover())
	if conf.RateLimit > 0 {
		e.Use(s.rateLimiter(conf.RateLimit))
	}

	e.GET("/", s.index)
	e.GET("/health", s.health)

	upload := middleware.BodyLimit(conf.MaxUploadSize)
	e.POST("/convert", s.convert(""), upload)
	e.POST("/convert-pdf-to-pptx", s.convert(types.PDFToPPTX), upload)
	e.POST("/convert-pptx-to-pdf", s.convert(types.PPTXToPDF), upload)

	if s.history != nil {
		e.GET("/conversions", s.conversions)
	}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(opts.Metrics))
	}

	return s
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Addr returns the configured listen address. Port 0 picks a free port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.conf.Host, strconv.Itoa(s.conf.Port))
}

// ListenerAddr returns the bound address once Run has started listening.
func (s *Server) ListenerAddr() net.Addr {
	return s.echo.ListenerAddr()
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.echo.Server.ReadTimeout = s.conf.ReadTimeout
	s.echo.Server.WriteTimeout = s.conf.WriteTimeout

	errc := make(chan error, 1)
	go func() { errc <- s.echo.Start(s.Addr()) }()
	s.log.WithField("addr", s.Addr()).Info("Listening.")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("Request failed.")
				return nil
			}
			entry.Info("Request handled.")
			return nil
		},
	})
}

func (s *Server) rateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodGet
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			c.Response().Header().Set("Retry-After", "1")
			s.log.WithField("client", identifier).Warn("Rate limit exceeded.")
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, retry later")
		},
	})
}
