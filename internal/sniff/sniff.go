// Package sniff classifies image bytes by their content signature.
package sniff

import (
	"github.com/gabriel-vasile/mimetype"

	"tagmap/internal/tag"
)

// imageKinds are the picture formats a tag can be labeled with.
var imageKinds = []tag.MimeType{
	tag.MimeJPEG,
	tag.MimePNG,
	tag.MimeGIF,
	tag.MimeTIFF,
	tag.MimeBMP,
}

// Mime is a content sniffer backed by mimetype.
type Mime struct{}

// Default is the sniffer used when none is configured.
var Default = Mime{}

// Classify returns the image kind of data. The second result is false when
// data is empty or not one of the recognized image kinds.
func (Mime) Classify(data []byte) (tag.MimeType, bool) {
	if len(data) == 0 {
		return tag.MimeNone, false
	}
	detected := mimetype.Detect(data)
	for _, kind := range imageKinds {
		if detected.Is(string(kind)) {
			return kind, true
		}
	}
	return tag.MimeNone, false
}

// ContentType returns the detected media type of data for use in HTTP
// responses, falling back to application/octet-stream.
func ContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
