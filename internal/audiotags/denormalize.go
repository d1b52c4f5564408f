package audiotags

import (
	"fmt"
	"strconv"
	"strings"

	"tagmap/internal/sniff"
	"tagmap/internal/tag"
)

// Sniffer classifies raw bytes by content.
type Sniffer interface {
	Classify(data []byte) (tag.MimeType, bool)
}

// Option configures ToTag and the picture replacement functions.
type Option func(*options)

type options struct {
	sniffer     Sniffer
	defaultMime tag.MimeType
}

// WithSniffer sets the content sniffer used to type pictures. A nil sniffer
// disables sniffing.
func WithSniffer(s Sniffer) Option {
	return func(o *options) { o.sniffer = s }
}

// WithDefaultMime sets the MIME type used when neither sniffing nor the
// image itself yields one.
func WithDefaultMime(m tag.MimeType) Option {
	return func(o *options) { o.defaultMime = m }
}

func newOptions(opts []Option) options {
	o := options{sniffer: sniff.Default, defaultMime: tag.MimeJPEG}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ToTag applies a onto t.
//
// Only present fields are written; absent fields leave t untouched. Each
// written field replaces whatever t held for it, so applying the same value
// twice leaves t as applying it once. The first mutation t rejects is
// returned wrapped with the field name; fields already written stay written.
func ToTag(a AudioTags, t Tag, opts ...Option) error {
	o := newOptions(opts)

	if a.Title != nil {
		if err := replace(t, tag.TrackTitle, *a.Title); err != nil {
			return fieldError("title", err)
		}
	}

	if len(a.Artists) > 0 {
		t.RemoveKey(tag.TrackArtist)
		t.RemoveKey(tag.TrackArtists)
		if err := t.Push(tag.TrackArtist, a.Artists[0]); err != nil {
			return fieldError("artists", err)
		}
		if err := t.Push(tag.TrackArtists, strings.Join(a.Artists, Delimiter)); err != nil {
			return fieldError("artists", err)
		}
	}

	if a.Album != nil {
		if err := replace(t, tag.AlbumTitle, *a.Album); err != nil {
			return fieldError("album", err)
		}
	}

	if a.Year != nil {
		y := strconv.FormatUint(uint64(*a.Year), 10)
		t.RemoveKey(tag.Year)
		t.RemoveKey(tag.RecordingDate)
		if err := t.Push(tag.Year, y); err != nil {
			return fieldError("year", err)
		}
		if err := t.Push(tag.RecordingDate, y); err != nil {
			return fieldError("year", err)
		}
	}

	if a.Genre != nil {
		if err := replace(t, tag.Genre, *a.Genre); err != nil {
			return fieldError("genre", err)
		}
	}

	if err := replacePosition(t, a.Track, tag.TrackNumber, tag.TrackTotal); err != nil {
		return fieldError("track", err)
	}

	if len(a.AlbumArtists) > 0 {
		if err := replace(t, tag.AlbumArtist, strings.Join(a.AlbumArtists, Delimiter)); err != nil {
			return fieldError("album_artists", err)
		}
	}

	if a.Comment != nil {
		if err := replace(t, tag.Comment, *a.Comment); err != nil {
			return fieldError("comment", err)
		}
	}

	if err := replacePosition(t, a.Disc, tag.DiscNumber, tag.DiscTotal); err != nil {
		return fieldError("disc", err)
	}

	switch {
	case a.AllImages != nil:
		if err := replaceAllPictures(t, a.AllImages, o); err != nil {
			return fieldError("all_images", err)
		}
	case a.Image != nil:
		fallback := o.defaultMime
		if a.Image.MimeType != nil {
			fallback = tag.ParseMimeType(*a.Image.MimeType)
		}
		if err := replaceCover(t, a.Image.Data, a.Image.Description, fallback, o.sniffer); err != nil {
			return fieldError("image", err)
		}
	}

	return nil
}

func replace(t Tag, key tag.ItemKey, value string) error {
	t.RemoveKey(key)
	return t.Push(key, value)
}

func replacePosition(t Tag, p *Position, numberKey, totalKey tag.ItemKey) error {
	if p == nil {
		return nil
	}
	if p.No != nil {
		if err := replace(t, numberKey, strconv.FormatUint(uint64(*p.No), 10)); err != nil {
			return err
		}
	}
	if p.Of != nil {
		if err := replace(t, totalKey, strconv.FormatUint(uint64(*p.Of), 10)); err != nil {
			return err
		}
	}
	return nil
}

func fieldError(field string, err error) error {
	return fmt.Errorf("write %s: %w", field, err)
}
