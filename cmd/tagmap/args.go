package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tagmap/internal/audiotags"
)

// tagFlags holds the tag fields settable from the command line.
type tagFlags struct {
	title        string
	artists      []string
	albumArtists []string
	album        string
	year         uint32
	genre        string
	comment      string
	track        string
	disc         string
	cover        string
	from         string
}

func (f *tagFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "track title")
	fs.StringArrayVar(&f.artists, "artist", nil, "track artist (repeatable, first is primary)")
	fs.StringArrayVar(&f.albumArtists, "album-artist", nil, "album artist (repeatable)")
	fs.StringVar(&f.album, "album", "", "album title")
	fs.Uint32Var(&f.year, "year", 0, "release year")
	fs.StringVar(&f.genre, "genre", "", "genre")
	fs.StringVar(&f.comment, "comment", "", "comment")
	fs.StringVar(&f.track, "track", "", "track position as n, n/m or /m")
	fs.StringVar(&f.disc, "disc", "", "disc position as n, n/m or /m")
	fs.StringVar(&f.cover, "cover", "", "front cover image file")
	fs.StringVar(&f.from, "from", "", "YAML or JSON file with tags to write")
}

// build assembles the tags to write. Values from --from come first and
// explicit flags override them. Fields not given stay absent.
func (f *tagFlags) build(cmd *cobra.Command) (audiotags.AudioTags, error) {
	var tags audiotags.AudioTags
	if f.from != "" {
		var err error
		if tags, err = loadTagsFile(f.from); err != nil {
			return tags, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("title") {
		tags.Title = audiotags.String(f.title)
	}
	if changed("artist") {
		tags.Artists = append([]string{}, f.artists...)
	}
	if changed("album-artist") {
		tags.AlbumArtists = append([]string{}, f.albumArtists...)
	}
	if changed("album") {
		tags.Album = audiotags.String(f.album)
	}
	if changed("year") {
		tags.Year = audiotags.Uint(f.year)
	}
	if changed("genre") {
		tags.Genre = audiotags.String(f.genre)
	}
	if changed("comment") {
		tags.Comment = audiotags.String(f.comment)
	}
	if changed("track") {
		p, err := parsePosition(f.track)
		if err != nil {
			return tags, fmt.Errorf("invalid --track: %w", err)
		}
		tags.Track = p
	}
	if changed("disc") {
		p, err := parsePosition(f.disc)
		if err != nil {
			return tags, fmt.Errorf("invalid --disc: %w", err)
		}
		tags.Disc = p
	}
	if f.cover != "" {
		data, err := os.ReadFile(f.cover)
		if err != nil {
			return tags, fmt.Errorf("failed to read cover: %w", err)
		}
		tags.Image = &audiotags.Image{Data: data, PicType: audiotags.CoverFront}
	}
	return tags, nil
}

// parsePosition parses "n", "n/m" or "/m".
func parsePosition(s string) (*audiotags.Position, error) {
	no, of, hasTotal := strings.Cut(strings.TrimSpace(s), "/")
	p := &audiotags.Position{}

	var err error
	if p.No, err = parseOptionalUint(no); err != nil {
		return nil, err
	}
	if hasTotal {
		if p.Of, err = parseOptionalUint(of); err != nil {
			return nil, err
		}
	}
	if p.No == nil && p.Of == nil {
		return nil, fmt.Errorf("position %q has no number", s)
	}
	return p, nil
}

func parseOptionalUint(s string) (*uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%q is not a positive number", s)
	}
	return audiotags.Uint(uint32(n)), nil
}

// loadTagsFile reads tags from a .json file or, for any other extension,
// from YAML.
func loadTagsFile(path string) (audiotags.AudioTags, error) {
	var tags audiotags.AudioTags
	data, err := os.ReadFile(path)
	if err != nil {
		return tags, fmt.Errorf("failed to read tags file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &tags)
	} else {
		err = yaml.Unmarshal(data, &tags)
	}
	if err != nil {
		return tags, fmt.Errorf("failed to parse tags file %s: %w", path, err)
	}
	return tags, nil
}

// imageView describes an embedded picture without its bytes.
type imageView struct {
	Type        audiotags.AudioImageType `json:"type" yaml:"type"`
	MimeType    string                   `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Size        int                      `json:"size" yaml:"size"`
}

// tagsView is the printable form of AudioTags.
type tagsView struct {
	Title        *string             `json:"title,omitempty" yaml:"title,omitempty"`
	Artists      []string            `json:"artists,omitempty" yaml:"artists,omitempty"`
	Album        *string             `json:"album,omitempty" yaml:"album,omitempty"`
	Year         *uint32             `json:"year,omitempty" yaml:"year,omitempty"`
	Genre        *string             `json:"genre,omitempty" yaml:"genre,omitempty"`
	Track        *audiotags.Position `json:"track,omitempty" yaml:"track,omitempty"`
	AlbumArtists []string            `json:"album_artists,omitempty" yaml:"album_artists,omitempty"`
	Comment      *string             `json:"comment,omitempty" yaml:"comment,omitempty"`
	Disc         *audiotags.Position `json:"disc,omitempty" yaml:"disc,omitempty"`
	Images       []imageView         `json:"images,omitempty" yaml:"images,omitempty"`
}

func newTagsView(t audiotags.AudioTags) tagsView {
	v := tagsView{
		Title:        t.Title,
		Artists:      t.Artists,
		Album:        t.Album,
		Year:         t.Year,
		Genre:        t.Genre,
		Track:        t.Track,
		AlbumArtists: t.AlbumArtists,
		Comment:      t.Comment,
		Disc:         t.Disc,
	}
	for _, img := range t.AllImages {
		iv := imageView{Type: img.PicType, Size: len(img.Data)}
		if img.MimeType != nil {
			iv.MimeType = *img.MimeType
		}
		if img.Description != nil {
			iv.Description = *img.Description
		}
		v.Images = append(v.Images, iv)
	}
	return v
}

// encode writes v to cmd's output as JSON or YAML.
func encode(cmd *cobra.Command, format string, v any) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q, valid formats: json, yaml", format)
}
