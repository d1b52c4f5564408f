package audiotags

import (
	"fmt"

	"tagmap/internal/tag"
)

// AudioImageType is the role of an embedded picture.
//
// The set is closed. Native roles it does not name map to Other, so the
// mapping from native roles is lossy while the mapping to native roles is
// total.
type AudioImageType int

const (
	Other AudioImageType = iota
	Icon
	OtherIcon
	CoverFront
	CoverBack
	Leaflet
	Media
	LeadArtist
	Artist
	Conductor
	Band
	Composer
	Lyricist
	RecordingLocation
	DuringRecording
	DuringPerformance
	ScreenCapture
	BrightFish
	Illustration
	BandLogo
	PublisherLogo
)

var imageTypes = [...]struct {
	name     string
	external tag.PictureType
}{
	Other:             {"other", tag.PictureOther},
	Icon:              {"icon", tag.PictureFileIcon},
	OtherIcon:         {"otherIcon", tag.PictureOtherFileIcon},
	CoverFront:        {"coverFront", tag.PictureFrontCover},
	CoverBack:         {"coverBack", tag.PictureBackCover},
	Leaflet:           {"leaflet", tag.PictureLeafletPage},
	Media:             {"media", tag.PictureMedia},
	LeadArtist:        {"leadArtist", tag.PictureLeadArtist},
	Artist:            {"artist", tag.PictureArtist},
	Conductor:         {"conductor", tag.PictureConductor},
	Band:              {"band", tag.PictureBand},
	Composer:          {"composer", tag.PictureComposer},
	Lyricist:          {"lyricist", tag.PictureLyricist},
	RecordingLocation: {"recordingLocation", tag.PictureRecordingLocation},
	DuringRecording:   {"duringRecording", tag.PictureDuringRecording},
	DuringPerformance: {"duringPerformance", tag.PictureDuringPerformance},
	ScreenCapture:     {"screenCapture", tag.PictureMovieScreenCapture},
	BrightFish:        {"brightFish", tag.PictureColouredFish},
	Illustration:      {"illustration", tag.PictureIllustration},
	BandLogo:          {"bandLogo", tag.PictureBandLogo},
	PublisherLogo:     {"publisherLogo", tag.PicturePublisherLogo},
}

// ImageTypes lists every AudioImageType.
func ImageTypes() []AudioImageType {
	out := make([]AudioImageType, len(imageTypes))
	for i := range imageTypes {
		out[i] = AudioImageType(i)
	}
	return out
}

func (t AudioImageType) valid() bool {
	return t >= 0 && int(t) < len(imageTypes)
}

func (t AudioImageType) String() string {
	if !t.valid() {
		return fmt.Sprintf("AudioImageType(%d)", int(t))
	}
	return imageTypes[t].name
}

// MarshalText encodes the type by name.
func (t AudioImageType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("invalid image type %d", int(t))
	}
	return []byte(imageTypes[t].name), nil
}

// UnmarshalText decodes a type name. Unknown names decode to Other.
func (t *AudioImageType) UnmarshalText(b []byte) error {
	*t = ParseImageType(string(b))
	return nil
}

// ParseImageType returns the type with the given name, or Other.
func ParseImageType(name string) AudioImageType {
	for i, it := range imageTypes {
		if it.name == name {
			return AudioImageType(i)
		}
	}
	return Other
}

// ToExternal maps t to the native picture role. Out-of-range values map to
// the native Other role.
func ToExternal(t AudioImageType) tag.PictureType {
	if !t.valid() {
		return tag.PictureOther
	}
	return imageTypes[t].external
}

// FromExternal maps a native picture role to its AudioImageType, collapsing
// every unrecognized role to Other.
func FromExternal(role tag.PictureType) AudioImageType {
	for i, it := range imageTypes {
		if it.external == role {
			return AudioImageType(i)
		}
	}
	return Other
}
