// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	_ "embed"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/internal/convert"
	"github.com/pdiddy/deck-converter/pkg/types"
)

const (
	// Uploads above this size spill to disk while parsing.
	multipartMemory = 8 << 20

	maxHistoryLimit = 500

	msgNoFile           = "No file uploaded"
	msgConversionFailed = "Conversion failed. Please check file format."
	msgInternal         = "Internal server error"
)

//go:embed static/index.html
var indexHTML []byte

func (s *Server) index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// convert handles an upload. An empty fixed direction reads the "type"
// form field.
func (s *Server) convert(fixed types.Direction) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				return he
			}
			return echo.NewHTTPError(http.StatusBadRequest, "Malformed upload").SetInternal(err)
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		dir := fixed
		if dir == "" {
			d, err := types.ParseDirection(c.FormValue("type"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			dir = d
		}

		req := types.ConversionRequest{
			ID:        c.Response().Header().Get(echo.HeaderXRequestID),
			Direction: dir,
		}

		fh, err := c.FormFile("file")
		switch {
		case err == nil:
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("opening upload: %w", err)
			}
			defer f.Close()
			req.Filename = fh.Filename
			req.Body = f
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			// Reported by the dispatcher so that it is counted.
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "Malformed upload").SetInternal(err)
		}

		res, err := s.converter.Convert(r.Context(), req)
		if err != nil {
			return err
		}

		c.Response().Header().Set(echo.HeaderContentDisposition,
			mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
		return c.Blob(http.StatusOK, res.ContentType, res.Data)
	}
}

func (s *Server) conversions(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return fmt.Errorf("listing conversions: %w", err)
	}
	if records == nil {
		records = []types.ConversionRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// handleError renders every error as {"error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{
			"uri":        c.Request().RequestURI,
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).Error("Request error.")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		s.log.WithError(err).Warn("Failed to write error response.")
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, convert.ErrMissingFile):
		return http.StatusBadRequest, msgNoFile
	case errors.Is(err, convert.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, convert.ErrConversionFailed):
		return http.StatusInternalServerError, msgConversionFailed
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
