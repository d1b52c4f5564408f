package container

import (
	"strings"

	"go.senan.xyz/taglib"

	"tagmap/internal/tag"
)

// TagLib property names without a taglib constant.
const (
	propArtists     = "ARTISTS"
	propComment     = "COMMENT"
	propYear        = "YEAR"
	propTrackTotal  = "TRACKTOTAL"
	propDiscTotal   = "DISCTOTAL"
	propTotalTracks = "TOTALTRACKS"
	propTotalDiscs  = "TOTALDISCS"
)

// textProps maps modeled properties one to one onto item keys.
var textProps = []struct {
	name string
	key  tag.ItemKey
}{
	{taglib.Title, tag.TrackTitle},
	{taglib.Artist, tag.TrackArtist},
	{propArtists, tag.TrackArtists},
	{taglib.Album, tag.AlbumTitle},
	{taglib.AlbumArtist, tag.AlbumArtist},
	{taglib.Genre, tag.Genre},
	{propComment, tag.Comment},
	{taglib.Date, tag.RecordingDate},
	{propYear, tag.Year},
}

// positionProps are the number/total pairs. TagLib stores the pair as "n/m"
// in the number property for ID3v2, MP4 and APE.
var positionProps = []struct {
	number, total, alias string
	numberKey, totalKey  tag.ItemKey
}{
	{taglib.TrackNumber, propTrackTotal, propTotalTracks, tag.TrackNumber, tag.TrackTotal},
	{taglib.DiscNumber, propDiscTotal, propTotalDiscs, tag.DiscNumber, tag.DiscTotal},
}

// TagFromProperties builds a tag of the given type from a TagLib property
// map. Properties the tag does not model, or the tag type cannot hold, are
// returned as extras so a later save can carry them through.
func TagFromProperties(typ tag.Type, props map[string][]string) (*tag.Tag, map[string][]string) {
	t := tag.New(typ)
	extras := make(map[string][]string)
	consumed := make(map[string]bool)

	keep := func(name string, key tag.ItemKey, values []string) {
		for _, v := range values {
			if err := t.Push(key, v); err != nil {
				extras[name] = append(extras[name], v)
			}
		}
	}

	for _, p := range textProps {
		if vals, ok := props[p.name]; ok {
			consumed[p.name] = true
			keep(p.name, p.key, vals)
		}
	}

	for _, p := range positionProps {
		var totals []string
		if vals, ok := props[p.number]; ok {
			consumed[p.number] = true
			for _, v := range vals {
				no, of, _ := strings.Cut(v, "/")
				if no = strings.TrimSpace(no); no != "" {
					keep(p.number, p.numberKey, []string{no})
				}
				if of = strings.TrimSpace(of); of != "" {
					totals = append(totals, of)
				}
			}
		}
		for _, name := range []string{p.total, p.alias} {
			if vals, ok := props[name]; ok {
				consumed[name] = true
				if len(totals) == 0 {
					totals = vals
				}
			}
		}
		keep(p.total, p.totalKey, totals)
	}

	for name, vals := range props {
		if !consumed[name] {
			extras[name] = append([]string(nil), vals...)
		}
	}
	return t, extras
}

// PropertiesFromTag renders t and extras as a TagLib property map. A nil t
// yields only the extras.
func PropertiesFromTag(t *tag.Tag, extras map[string][]string) map[string][]string {
	props := make(map[string][]string, len(extras)+len(textProps))
	for name, vals := range extras {
		props[name] = append([]string(nil), vals...)
	}
	if t == nil {
		return props
	}

	for _, p := range textProps {
		if vals := t.GetAll(p.key); len(vals) > 0 {
			props[p.name] = append(props[p.name], vals...)
		}
	}

	combined := combinesPositions(t.Type())
	for _, p := range positionProps {
		no, hasNo := t.Get(p.numberKey)
		of, hasOf := t.Get(p.totalKey)
		switch {
		case combined && hasNo && hasOf:
			props[p.number] = []string{no + "/" + of}
		default:
			if hasNo {
				props[p.number] = []string{no}
			}
			if hasOf {
				props[p.total] = []string{of}
			}
		}
		delete(props, p.alias)
	}
	return props
}

func combinesPositions(typ tag.Type) bool {
	switch typ {
	case tag.TypeID3v2, tag.TypeMP4Ilst, tag.TypeAPE:
		return true
	}
	return false
}
