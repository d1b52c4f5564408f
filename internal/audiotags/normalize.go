package audiotags

import (
	"slices"
	"strconv"
	"strings"

	"tagmap/internal/tag"
)

// Delimiter joins the values of a multi-value item.
const Delimiter = ", "

// FromTag reads t into an AudioTags value. A nil tag yields the all-absent
// value. FromTag never fails: unparsable numbers read as absent and
// unrecognized picture roles read as Other.
func FromTag(t Tag) AudioTags {
	if t == nil {
		return AudioTags{}
	}

	out := AudioTags{
		Title:        text(t, tag.TrackTitle),
		Artists:      trackArtists(t),
		Album:        text(t, tag.AlbumTitle),
		Year:         year(t),
		Genre:        text(t, tag.Genre),
		Track:        position(t, tag.TrackNumber, tag.TrackTotal),
		AlbumArtists: splitValues(t.GetAll(tag.AlbumArtist)),
		Comment:      text(t, tag.Comment),
		Disc:         position(t, tag.DiscNumber, tag.DiscTotal),
	}

	images := picturesToImages(t.Pictures())
	if len(images) > 0 {
		out.AllImages = images
		if images[0].PicType == CoverFront {
			cover := images[0].Clone()
			out.Image = &cover
		}
	}
	return out
}

func text(t Tag, key tag.ItemKey) *string {
	v, ok := t.Get(key)
	if !ok {
		return nil
	}
	return &v
}

// trackArtists prefers the multi-value item and degrades to the singular
// artist. The result is never nil.
func trackArtists(t Tag) []string {
	if vals := t.GetAll(tag.TrackArtists); len(vals) > 0 {
		return splitValues(vals)
	}
	if v, ok := t.Get(tag.TrackArtist); ok {
		return []string{v}
	}
	return []string{}
}

// splitValues splits every stored value on the delimiter and trims each
// segment.
func splitValues(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, seg := range strings.Split(v, ",") {
			out = append(out, strings.TrimSpace(seg))
		}
	}
	return out
}

func year(t Tag) *uint32 {
	if n := parseUint(t, tag.Year); n != nil {
		return n
	}
	date, ok := t.Get(tag.RecordingDate)
	if !ok || len(date) < 4 {
		return nil
	}
	n, err := strconv.ParseUint(date[:4], 10, 32)
	if err != nil {
		return nil
	}
	y := uint32(n)
	return &y
}

func position(t Tag, numberKey, totalKey tag.ItemKey) *Position {
	no := parseUint(t, numberKey)
	of := parseUint(t, totalKey)
	if no == nil && of == nil {
		return nil
	}
	return &Position{No: no, Of: of}
}

func parseUint(t Tag, key tag.ItemKey) *uint32 {
	v, ok := t.Get(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return nil
	}
	u := uint32(n)
	return &u
}

func picturesToImages(pics []tag.Picture) []Image {
	if len(pics) == 0 {
		return nil
	}
	images := make([]Image, 0, len(pics))
	for _, p := range pics {
		images = append(images, pictureToImage(p))
	}
	return coverFirst(images)
}

func pictureToImage(p tag.Picture) Image {
	p = p.Clone()
	img := Image{
		Data:        p.Data,
		PicType:     FromExternal(p.Type),
		Description: p.Description,
	}
	if p.MimeType.Known() {
		img.MimeType = String(string(p.MimeType))
	}
	return img
}

// coverFirst moves cover-front images ahead of the rest, keeping source
// order within both groups.
func coverFirst(images []Image) []Image {
	slices.SortStableFunc(images, func(a, b Image) int {
		ac, bc := a.PicType == CoverFront, b.PicType == CoverFront
		switch {
		case ac && !bc:
			return -1
		case !ac && bc:
			return 1
		}
		return 0
	})
	return images
}
