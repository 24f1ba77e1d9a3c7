package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequestBodyMiddleware undoes gzip content encoding and caps every request
// body at limit bytes. The cap applies after decompression, so a small
// compressed payload cannot expand past it. Other content encodings get 415.
func RequestBodyMiddleware(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			switch enc := strings.ToLower(strings.TrimSpace(req.Header.Get(echo.HeaderContentEncoding))); enc {
			case "", "identity":
			case "gzip", "x-gzip":
				raw := req.Body
				gr, err := gzip.NewReader(raw)
				if err != nil {
					_ = raw.Close()
					metricsFrom(c).SetErrorStage("invalid_gzip")
					return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
				}
				req.Body = bodyReader{Reader: gr, close: func() error {
					return errors.Join(gr.Close(), raw.Close())
				}}
				req.ContentLength = -1
				req.Header.Del(echo.HeaderContentEncoding)
				req.Header.Del(echo.HeaderContentLength)
			default:
				metricsFrom(c).SetErrorStage("unsupported_encoding")
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported content encoding "+enc)
			}

			req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
			return next(c)
		}
	}
}

type bodyReader struct {
	io.Reader
	close func() error
}

func (b bodyReader) Close() error { return b.close() }
