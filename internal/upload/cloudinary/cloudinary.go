// Package cloudinary uploads profile images to Cloudinary.
package cloudinary

import (
	"context"

	sdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"

	"github.com/aanand-mishra/alumnos-api/internal/upload"
)

// uploadAPI is the part of the Cloudinary SDK this package calls.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Uploader sends files to a Cloudinary account.
type Uploader struct {
	api uploadAPI
}

var _ upload.Uploader = (*Uploader)(nil)

// New builds an Uploader from a cloudinary://<key>:<secret>@<cloud> URL.
func New(cloudinaryURL string) (*Uploader, error) {
	cld, err := sdk.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary.New")
	}
	return &Uploader{api: &cld.Upload}, nil
}

// UploadFile uploads the payload into folder and returns the delivery URL,
// preferring the https one.
func (u *Uploader) UploadFile(ctx context.Context, file upload.File, folder string) (upload.Result, error) {
	resp, err := u.api.Upload(ctx, file.Content, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return upload.Result{}, errors.Wrap(err, "cloudinary: upload")
	}
	// API-level failures come back in the body with a nil error.
	if resp.Error.Message != "" {
		return upload.Result{}, errors.Errorf("cloudinary: upload rejected: %s", resp.Error.Message)
	}

	url := resp.SecureURL
	if url == "" {
		url = resp.URL
	}
	if url == "" {
		return upload.Result{}, errors.New("cloudinary: upload returned no url")
	}
	return upload.Result{URL: url}, nil
}
