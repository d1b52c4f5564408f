// Package audiotags maps native audio tags to and from one format-agnostic
// model.
//
// FromTag reads any underlying tag into an AudioTags value and ToTag applies
// an AudioTags value back onto a mutable tag. Embedded pictures are kept
// cover-front first in both directions, and picture MIME types are derived
// from the image bytes on write.
//
// Everything in this package is pure data transformation: no I/O, no shared
// state, no goroutines. Callers may convert different tags concurrently.
package audiotags

import "tagmap/internal/tag"

// Tag is the mutable native tag the mapping operates on. *tag.Tag
// implements it.
type Tag interface {
	Get(key tag.ItemKey) (string, bool)
	GetAll(key tag.ItemKey) []string
	Push(key tag.ItemKey, value string) error
	RemoveKey(key tag.ItemKey)

	Pictures() []tag.Picture
	PushPicture(p tag.Picture) error
	RemovePictureType(role tag.PictureType)
	TakePictures() []tag.Picture
}

var _ Tag = (*tag.Tag)(nil)

// Position is an ordinal pair such as track 3 of 12.
type Position struct {
	No *uint32 `json:"no" yaml:"no,omitempty"`
	Of *uint32 `json:"of" yaml:"of,omitempty"`
}

// Image is an embedded picture. MimeType is advisory: on write the type is
// derived from Data whenever the bytes are recognizable.
type Image struct {
	Data        []byte         `json:"data" yaml:"data"`
	PicType     AudioImageType `json:"pic_type" yaml:"pic_type"`
	MimeType    *string        `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Description *string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// Clone returns a deep copy of the image.
func (i Image) Clone() Image {
	c := Image{PicType: i.PicType}
	if i.Data != nil {
		c.Data = make([]byte, len(i.Data))
		copy(c.Data, i.Data)
	}
	c.MimeType = cloneString(i.MimeType)
	c.Description = cloneString(i.Description)
	return c
}

// AudioTags is the uniform tag model.
//
// Every field is optional. For the list fields a nil slice means absent
// while a non-nil empty slice means present but empty. Artists and
// AlbumArtists are ordered; the first element is the primary value.
// AllImages is ordered with any cover-front image first, and Image is the
// leading cover-front image of AllImages when there is one.
type AudioTags struct {
	Title        *string   `json:"title,omitempty" yaml:"title,omitempty"`
	Artists      []string  `json:"artists" yaml:"artists,omitempty"`
	Album        *string   `json:"album,omitempty" yaml:"album,omitempty"`
	Year         *uint32   `json:"year,omitempty" yaml:"year,omitempty"`
	Genre        *string   `json:"genre,omitempty" yaml:"genre,omitempty"`
	Track        *Position `json:"track,omitempty" yaml:"track,omitempty"`
	AlbumArtists []string  `json:"album_artists" yaml:"album_artists,omitempty"`
	Comment      *string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	Disc         *Position `json:"disc,omitempty" yaml:"disc,omitempty"`
	Image        *Image    `json:"image,omitempty" yaml:"image,omitempty"`
	AllImages    []Image   `json:"all_images,omitempty" yaml:"all_images,omitempty"`
}

// IsEmpty reports whether every field is absent.
func (a AudioTags) IsEmpty() bool {
	return a.Title == nil && a.Artists == nil && a.Album == nil && a.Year == nil &&
		a.Genre == nil && a.Track == nil && a.AlbumArtists == nil && a.Comment == nil &&
		a.Disc == nil && a.Image == nil && a.AllImages == nil
}

// Clone returns a deep copy, image bytes included.
func (a AudioTags) Clone() AudioTags {
	c := AudioTags{
		Title:   cloneString(a.Title),
		Album:   cloneString(a.Album),
		Genre:   cloneString(a.Genre),
		Comment: cloneString(a.Comment),
		Year:    cloneUint(a.Year),
		Track:   a.Track.clone(),
		Disc:    a.Disc.clone(),
	}
	if a.Artists != nil {
		c.Artists = append([]string{}, a.Artists...)
	}
	if a.AlbumArtists != nil {
		c.AlbumArtists = append([]string{}, a.AlbumArtists...)
	}
	if a.Image != nil {
		img := a.Image.Clone()
		c.Image = &img
	}
	if a.AllImages != nil {
		c.AllImages = cloneImages(a.AllImages)
	}
	return c
}

func (p *Position) clone() *Position {
	if p == nil {
		return nil
	}
	return &Position{No: cloneUint(p.No), Of: cloneUint(p.Of)}
}

func cloneImages(images []Image) []Image {
	out := make([]Image, len(images))
	for i, img := range images {
		out[i] = img.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneUint(n *uint32) *uint32 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Uint returns a pointer to n.
func Uint(n uint32) *uint32 { return &n }
