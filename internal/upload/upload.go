// Package upload defines the contract for storing binary assets (profile
// images) somewhere that hands back a publicly addressable URL.
package upload

import (
	"context"
	"io"
)

// File is an uploaded payload.
type File struct {
	// Filename is the client-supplied name; only its extension is kept.
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Result describes where the asset was stored.
type Result struct {
	URL string
}

// Uploader stores a file under folder and returns its URL.
// Failures are opaque to callers.
type Uploader interface {
	UploadFile(ctx context.Context, file File, folder string) (Result, error)
}
