// Package tag models the native tag object of an audio container: a typed
// record of ordered text items and an ordered picture list. It is the
// in-memory form the container package reads into and saves from.
package tag

import (
	"errors"
	"fmt"

	"github.com/gammazero/deque"
)

// ErrUnsupportedKey is returned when a tag type cannot store an item key.
var ErrUnsupportedKey = errors.New("item key not supported by tag type")

// ErrPicturesUnsupported is returned when a tag type cannot store pictures.
var ErrPicturesUnsupported = errors.New("pictures not supported by tag type")

// Type identifies the native container a tag belongs to.
type Type int

const (
	TypeID3v2 Type = iota
	TypeID3v1
	TypeVorbisComments
	TypeAPE
	TypeMP4Ilst
	TypeRIFFInfo
)

func (t Type) String() string {
	switch t {
	case TypeID3v2:
		return "ID3v2"
	case TypeID3v1:
		return "ID3v1"
	case TypeVorbisComments:
		return "VorbisComments"
	case TypeAPE:
		return "APE"
	case TypeMP4Ilst:
		return "MP4Ilst"
	case TypeRIFFInfo:
		return "RIFFInfo"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Supports reports whether items with the given key can be stored.
func (t Type) Supports(key ItemKey) bool {
	switch t {
	case TypeID3v1:
		switch key {
		case TrackTitle, TrackArtist, AlbumTitle, Year, Comment, TrackNumber, Genre:
			return true
		}
		return false
	case TypeRIFFInfo:
		switch key {
		case TrackTitle, TrackArtist, AlbumTitle, RecordingDate, Genre, Comment, TrackNumber:
			return true
		}
		return false
	}
	return true
}

// SupportsPictures reports whether the tag type can embed pictures.
func (t Type) SupportsPictures() bool {
	return t != TypeID3v1 && t != TypeRIFFInfo
}

// ItemKey is the logical key of a text item, independent of the native
// frame/field name.
type ItemKey int

const (
	TrackTitle ItemKey = iota
	TrackArtist
	TrackArtists
	AlbumTitle
	AlbumArtist
	Year
	RecordingDate
	Genre
	Comment
	TrackNumber
	TrackTotal
	DiscNumber
	DiscTotal
)

var itemKeyNames = [...]string{
	TrackTitle:    "TrackTitle",
	TrackArtist:   "TrackArtist",
	TrackArtists:  "TrackArtists",
	AlbumTitle:    "AlbumTitle",
	AlbumArtist:   "AlbumArtist",
	Year:          "Year",
	RecordingDate: "RecordingDate",
	Genre:         "Genre",
	Comment:       "Comment",
	TrackNumber:   "TrackNumber",
	TrackTotal:    "TrackTotal",
	DiscNumber:    "DiscNumber",
	DiscTotal:     "DiscTotal",
}

func (k ItemKey) String() string {
	if k >= 0 && int(k) < len(itemKeyNames) {
		return itemKeyNames[k]
	}
	return fmt.Sprintf("ItemKey(%d)", int(k))
}

// Item is one stored text value.
type Item struct {
	Key   ItemKey
	Value string
}

// Tag is a mutable native tag. The zero value is not usable; call New.
type Tag struct {
	typ      Type
	items    []Item
	pictures deque.Deque[Picture]
}

// New returns an empty tag of the given type.
func New(typ Type) *Tag {
	return &Tag{typ: typ}
}

// Type returns the container type of the tag.
func (t *Tag) Type() Type {
	return t.typ
}

// Get returns the first value stored under key.
func (t *Tag) Get(key ItemKey) (string, bool) {
	for _, it := range t.items {
		if it.Key == key {
			return it.Value, true
		}
	}
	return "", false
}

// GetAll returns every value stored under key in insertion order.
func (t *Tag) GetAll(key ItemKey) []string {
	var vals []string
	for _, it := range t.items {
		if it.Key == key {
			vals = append(vals, it.Value)
		}
	}
	return vals
}

// Items returns a copy of all items in insertion order.
func (t *Tag) Items() []Item {
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Push appends a value under key. Existing values are kept.
func (t *Tag) Push(key ItemKey, value string) error {
	if !t.typ.Supports(key) {
		return fmt.Errorf("%s on %s: %w", key, t.typ, ErrUnsupportedKey)
	}
	t.items = append(t.items, Item{Key: key, Value: value})
	return nil
}

// RemoveKey drops every value stored under key.
func (t *Tag) RemoveKey(key ItemKey) {
	kept := t.items[:0]
	for _, it := range t.items {
		if it.Key != key {
			kept = append(kept, it)
		}
	}
	t.items = kept
}

// Pictures returns copies of the stored pictures in order.
func (t *Tag) Pictures() []Picture {
	out := make([]Picture, 0, t.pictures.Len())
	for i := 0; i < t.pictures.Len(); i++ {
		out = append(out, t.pictures.At(i).Clone())
	}
	return out
}

// PictureCount returns the number of stored pictures.
func (t *Tag) PictureCount() int {
	return t.pictures.Len()
}

// PushPicture appends a picture at the end of the list.
func (t *Tag) PushPicture(p Picture) error {
	if !t.typ.SupportsPictures() {
		return fmt.Errorf("%s: %w", t.typ, ErrPicturesUnsupported)
	}
	t.pictures.PushBack(p.Clone())
	return nil
}

// RemovePictureType drops every picture with the given role, keeping the
// relative order of the others.
func (t *Tag) RemovePictureType(role PictureType) {
	n := t.pictures.Len()
	for i := 0; i < n; i++ {
		p := t.pictures.PopFront()
		if p.Type != role {
			t.pictures.PushBack(p)
		}
	}
}

// TakePictures removes and returns every picture in order.
func (t *Tag) TakePictures() []Picture {
	out := make([]Picture, 0, t.pictures.Len())
	for t.pictures.Len() > 0 {
		out = append(out, t.pictures.PopFront())
	}
	return out
}
