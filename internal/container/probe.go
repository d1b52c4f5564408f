// Package container reads and saves the native tag of an audio file through
// TagLib and converts it to and from the tag package's in-memory form.
package container

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	dtag "github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"

	"tagmap/internal/tag"
)

// ErrUnsupportedFormat is returned when neither the content nor the file
// name identify a supported container.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes a recognized container.
type Format struct {
	// Ext is the canonical file extension, with a leading dot.
	Ext string
	// Primary is the tag type written when the file carries none.
	Primary tag.Type
}

var formatsByExt = map[string]Format{
	".mp3":  {".mp3", tag.TypeID3v2},
	".aac":  {".aac", tag.TypeID3v2},
	".wav":  {".wav", tag.TypeID3v2},
	".aif":  {".aiff", tag.TypeID3v2},
	".aiff": {".aiff", tag.TypeID3v2},
	".flac": {".flac", tag.TypeVorbisComments},
	".ogg":  {".ogg", tag.TypeVorbisComments},
	".oga":  {".ogg", tag.TypeVorbisComments},
	".opus": {".opus", tag.TypeVorbisComments},
	".spx":  {".spx", tag.TypeVorbisComments},
	".m4a":  {".m4a", tag.TypeMP4Ilst},
	".m4b":  {".m4b", tag.TypeMP4Ilst},
	".m4p":  {".m4p", tag.TypeMP4Ilst},
	".mp4":  {".m4a", tag.TypeMP4Ilst},
	".ape":  {".ape", tag.TypeAPE},
	".mpc":  {".mpc", tag.TypeAPE},
	".wv":   {".wv", tag.TypeAPE},
}

var formatsByFileType = map[dtag.FileType]Format{
	dtag.MP3:  formatsByExt[".mp3"],
	dtag.FLAC: formatsByExt[".flac"],
	dtag.OGG:  formatsByExt[".ogg"],
	dtag.M4A:  formatsByExt[".m4a"],
	dtag.M4B:  formatsByExt[".m4b"],
	dtag.M4P:  formatsByExt[".m4p"],
	dtag.ALAC: formatsByExt[".m4a"],
}

// FormatForExt returns the format registered for a file extension.
func FormatForExt(ext string) (Format, bool) {
	f, ok := formatsByExt[strings.ToLower(ext)]
	return f, ok
}

// Probe identifies the container of r. Tag signatures are tried first, then
// the container signature, then the extension of nameHint. r is left at an
// unspecified offset.
func Probe(r io.ReadSeeker, nameHint string) (Format, error) {
	if _, err := r.Seek(0, io.SeekStart); err == nil {
		if _, ft, err := dtag.Identify(r); err == nil {
			if f, ok := formatsByFileType[ft]; ok {
				return f, nil
			}
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err == nil {
		if m, err := mimetype.DetectReader(r); err == nil {
			if f, ok := FormatForExt(m.Extension()); ok {
				return f, nil
			}
		}
	}

	if nameHint != "" {
		if f, ok := FormatForExt(filepath.Ext(nameHint)); ok {
			return f, nil
		}
	}
	return Format{}, ErrUnsupportedFormat
}
