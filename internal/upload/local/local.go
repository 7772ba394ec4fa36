// Package local stores uploads on the server's filesystem.
package local

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aanand-mishra/alumnos-api/internal/upload"
)

// URLPrefix is the route the HTTP server mounts the upload directory on.
const URLPrefix = "/uploads"

// Storage saves files below basePath, one subdirectory per folder.
type Storage struct {
	basePath string // root directory where files are written
	baseURL  string // optional absolute URL prefix for returned links
}

var _ upload.Uploader = (*Storage)(nil)

// New creates the base directory if needed and returns a Storage.
// When baseURL is empty, returned URLs are relative to the server root.
func New(basePath, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrapf(err, "local.New: create storage directory %s", basePath)
	}
	return &Storage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory files are written to.
func (s *Storage) Dir() string { return s.basePath }

// UploadFile copies the payload to <basePath>/<folder>/<uuid><ext>.
func (s *Storage) UploadFile(ctx context.Context, file upload.File, folder string) (upload.Result, error) {
	if err := ctx.Err(); err != nil {
		return upload.Result{}, err
	}

	// Clean against a rooted path so "../" cannot climb out of basePath.
	folder = strings.TrimPrefix(path.Clean("/"+folder), "/")

	dir := filepath.Join(s.basePath, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return upload.Result{}, errors.Wrap(err, "local.UploadFile: create folder")
	}

	// Unique filename to prevent collisions.
	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	dst := filepath.Join(dir, name)

	out, err := os.Create(dst)
	if err != nil {
		return upload.Result{}, errors.Wrap(err, "local.UploadFile: create file")
	}
	if _, err := io.Copy(out, file.Content); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return upload.Result{}, errors.Wrap(err, "local.UploadFile: copy content")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return upload.Result{}, errors.Wrap(err, "local.UploadFile: close file")
	}

	url := s.baseURL + path.Join(URLPrefix, folder, name)
	slog.Info("file saved",
		slog.String("filename", file.Filename),
		slog.String("saved_as", dst),
		slog.String("url", url))

	return upload.Result{URL: url}, nil
}
