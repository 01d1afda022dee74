// Package media renders binary blobs (raster images) as data URIs.
package media

import (
	"encoding/base64"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// imageExts lists the extensions rendered as images rather than text.
var imageExts = map[string]struct{}{
	"bmp":  {},
	"gif":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"ico":  {},
}

func extOf(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// IsImage reports whether p has a recognized raster-image extension.
func IsImage(p string) bool {
	_, ok := imageExts[extOf(p)]
	return ok
}

// ContentType returns the image MIME type for data stored at p. Content
// sniffing wins when it identifies an image; otherwise the extension decides.
func ContentType(p string, data []byte) string {
	if len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil && strings.HasPrefix(mt.String(), "image/") {
			mime, _, _ := strings.Cut(mt.String(), ";")
			return mime
		}
	}

	ext := extOf(p)
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "image/" + ext
}

// DataURI encodes data as a base64 data URI tagged with its image type.
func DataURI(p string, data []byte) string {
	return "data:" + ContentType(p, data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
