package infrastructure

import (
	"testing"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/stretchr/testify/assert"
)

func TestGetExtensionFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
		err  error
	}{
		{"image/jpeg", "jpg", nil},
		{"IMAGE/PNG; charset=binary", "png", nil},
		{"image/webp", "webp", nil},
		{"image/tiff", "tiff", nil},
		{"text/plain", "bin", e.ErrUnsupportedMediaType},
	}

	for _, tt := range tests {
		got, err := GetExtensionFromMIME(tt.mime)
		assert.Equal(t, tt.want, got, tt.mime)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	assert.Equal(t, "image/jpeg", DetectMIME("image/jpeg", png))
	assert.Equal(t, "image/png", DetectMIME("", png))
	assert.Equal(t, "image/png", DetectMIME("application/octet-stream", png))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "jobs/j1/cat.jpg", ObjectKey("j1", "cat.jpg", "image/png"))
	assert.Equal(t, "jobs/j1/cat.png", ObjectKey("j1", "cat", "image/png"))
	assert.Equal(t, "jobs/j1/blob.bin", ObjectKey("j1", "blob", ""))
}
