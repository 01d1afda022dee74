package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "logo.png", want: true},
		{path: "dir/photo.JPG", want: true},
		{path: "a.jpeg", want: true},
		{path: "favicon.ico", want: true},
		{path: "anim.gif", want: true},
		{path: "old.bmp", want: true},
		{path: "vector.svg", want: false},
		{path: "README", want: false},
		{path: "png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImage(tt.path))
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("logo.png", pngBytes(t)))
	assert.Equal(t, "image/png", ContentType("misnamed.jpg", pngBytes(t)), "sniffing wins")
	assert.Equal(t, "image/jpeg", ContentType("photo.jpg", []byte("not really")))
	assert.Equal(t, "image/gif", ContentType("a.gif", nil))
}

func TestDataURI(t *testing.T) {
	data := pngBytes(t)

	uri := DataURI("logo.png", data)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
