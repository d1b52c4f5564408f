package tag

import "strings"

// PictureType is the native role of an embedded picture. Values are the
// TagLib picture type names; the set is open and may grow with the library.
type PictureType string

const (
	PictureOther              PictureType = "Other"
	PictureFileIcon           PictureType = "File Icon"
	PictureOtherFileIcon      PictureType = "Other File Icon"
	PictureFrontCover         PictureType = "Front Cover"
	PictureBackCover          PictureType = "Back Cover"
	PictureLeafletPage        PictureType = "Leaflet Page"
	PictureMedia              PictureType = "Media"
	PictureLeadArtist         PictureType = "Lead Artist"
	PictureArtist             PictureType = "Artist"
	PictureConductor          PictureType = "Conductor"
	PictureBand               PictureType = "Band"
	PictureComposer           PictureType = "Composer"
	PictureLyricist           PictureType = "Lyricist"
	PictureRecordingLocation  PictureType = "Recording Location"
	PictureDuringRecording    PictureType = "During Recording"
	PictureDuringPerformance  PictureType = "During Performance"
	PictureMovieScreenCapture PictureType = "Movie Screen Capture"
	PictureColouredFish       PictureType = "Coloured Fish"
	PictureIllustration       PictureType = "Illustration"
	PictureBandLogo           PictureType = "Band Logo"
	PicturePublisherLogo      PictureType = "Publisher Logo"
)

// MimeType is the stored media type of a picture. The empty value means the
// container recorded none.
type MimeType string

const (
	MimeNone MimeType = ""
	MimeJPEG MimeType = "image/jpeg"
	MimePNG  MimeType = "image/png"
	MimeGIF  MimeType = "image/gif"
	MimeTIFF MimeType = "image/tiff"
	MimeBMP  MimeType = "image/bmp"
)

// ParseMimeType maps a media type string to a MimeType. Short forms such as
// "jpeg" or "png" are accepted; anything else is kept verbatim.
func ParseMimeType(s string) MimeType {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "jpeg", "jpg", "image/jpg", "image/jpeg":
		return MimeJPEG
	case "png", "image/png":
		return MimePNG
	case "gif", "image/gif":
		return MimeGIF
	case "tiff", "tif", "image/tiff":
		return MimeTIFF
	case "bmp", "image/bmp", "image/x-bmp", "image/x-ms-bmp":
		return MimeBMP
	}
	return MimeType(v)
}

// Known reports whether m is one of the recognized image kinds.
func (m MimeType) Known() bool {
	switch m {
	case MimeJPEG, MimePNG, MimeGIF, MimeTIFF, MimeBMP:
		return true
	}
	return false
}

// Picture is one embedded image.
type Picture struct {
	Type        PictureType
	MimeType    MimeType
	Description *string
	Data        []byte
}

// Clone returns a deep copy of the picture.
func (p Picture) Clone() Picture {
	c := p
	if p.Data != nil {
		c.Data = make([]byte, len(p.Data))
		copy(c.Data, p.Data)
	}
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	return c
}
