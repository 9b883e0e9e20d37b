// Package httpapi serves the image-to-text conversion over HTTP for browser
// front ends.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/ironsheep/image-text-mcp/internal/config"
	"github.com/ironsheep/image-text-mcp/internal/convert"
	"github.com/ironsheep/image-text-mcp/internal/imaging"
)

// Route is the conversion endpoint path.
const Route = "/api/image-to-text"

// FormField is the multipart field browsers upload the image under.
const FormField = "image"

const shutdownTimeout = 5 * time.Second

// Error messages returned in the {"error": ...} body.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgNoImage          = "No image file provided"
	msgInvalidBody      = "Invalid request body"
	msgTooLarge         = "Image too large"
	msgUnprocessable    = "Unprocessable image"
	msgInternal         = "Error processing image"
)

// Server handles conversion requests
type Server struct {
	cfg    config.HTTPConfig
	conv   *convert.Converter
	logger *slog.Logger
}

// New creates a new HTTP server around conv.
func New(cfg config.HTTPConfig, conv *convert.Converter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, conv: conv, logger: logger}
}

// Handler returns the routes served by s.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Route, s.handleImageToText)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
	h.Set("Access-Control-Allow-Methods", "POST")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) handleImageToText(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := readImage(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, msgNoImage)
		default:
			s.logger.Debug("could not read request body", "error", err)
			writeError(w, http.StatusBadRequest, msgInvalidBody)
		}
		return
	}

	res, err := s.conv.Convert(data)
	switch {
	case err == nil:
	case errors.Is(err, imaging.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, msgNoImage)
		return
	case errors.Is(err, imaging.ErrUnprocessable):
		s.logger.Debug("rejected image", "error", err, "bytes", len(data))
		writeError(w, http.StatusUnprocessableEntity, msgUnprocessable)
		return
	default:
		s.logger.Error("error processing image", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.logger.Debug("converted image", "bytes", len(data), "length", len(res.Text))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// readImage returns the uploaded image bytes: the multipart "image" field
// when the request is a form upload, the raw body otherwise.
func readImage(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, http.ErrMissingFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != FormField {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		return data, err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
