package cloudinary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/alumnos-api/internal/upload"
)

type fakeAPI struct {
	params uploader.UploadParams
	result *uploader.UploadResult
	err    error
}

func (f *fakeAPI) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = params
	return f.result, f.err
}

func file() upload.File {
	return upload.File{Filename: "a.png", Content: strings.NewReader("x")}
}

func TestUploadFilePrefersSecureURL(t *testing.T) {
	api := &fakeAPI{result: &uploader.UploadResult{
		URL:       "http://res.cloudinary.com/demo/a.png",
		SecureURL: "https://res.cloudinary.com/demo/a.png",
	}}
	u := &Uploader{api: api}

	res, err := u.UploadFile(context.Background(), file(), "alumnos")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/a.png", res.URL)
	assert.Equal(t, "alumnos", api.params.Folder)
}

func TestUploadFileFallsBackToURL(t *testing.T) {
	u := &Uploader{api: &fakeAPI{result: &uploader.UploadResult{URL: "http://res.cloudinary.com/demo/a.png"}}}

	res, err := u.UploadFile(context.Background(), file(), "alumnos")
	require.NoError(t, err)
	assert.Equal(t, "http://res.cloudinary.com/demo/a.png", res.URL)
}

func TestUploadFileErrors(t *testing.T) {
	u := &Uploader{api: &fakeAPI{err: errors.New("network down")}}
	_, err := u.UploadFile(context.Background(), file(), "alumnos")
	assert.Error(t, err)

	rejected := &uploader.UploadResult{}
	rejected.Error.Message = "Invalid image file"
	u = &Uploader{api: &fakeAPI{result: rejected}}
	_, err = u.UploadFile(context.Background(), file(), "alumnos")
	assert.ErrorContains(t, err, "Invalid image file")

	u = &Uploader{api: &fakeAPI{result: &uploader.UploadResult{}}}
	_, err = u.UploadFile(context.Background(), file(), "alumnos")
	assert.Error(t, err)
}
