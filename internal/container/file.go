package container

import (
	"fmt"
	"os"

	"go.senan.xyz/taglib"

	"tagmap/internal/tag"
	"tagmap/pkg/utils"
)

// File is an audio file opened for tag editing. Changes stay in memory
// until Save.
type File struct {
	path    string
	format  Format
	primary *tag.Tag
	extras  map[string][]string
}

// Open probes the file at path and reads its tag.
func Open(path string) (*File, error) {
	format, err := probeFile(path)
	if err != nil {
		return nil, err
	}

	props, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}
	info, err := taglib.ReadProperties(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties from %s: %w", path, err)
	}

	t, extras := TagFromProperties(format.Primary, props)
	if t.Type().SupportsPictures() {
		for i, desc := range info.Images {
			data, err := taglib.ReadImageOptions(path, i)
			if err != nil {
				return nil, fmt.Errorf("failed to read image %d from %s: %w", i, path, err)
			}
			p := tag.Picture{
				Type:     tag.PictureType(desc.Type),
				MimeType: tag.ParseMimeType(desc.MIMEType),
				Data:     data,
			}
			if desc.Description != "" {
				d := desc.Description
				p.Description = &d
			}
			if err := t.PushPicture(p); err != nil {
				return nil, fmt.Errorf("failed to load image %d from %s: %w", i, path, err)
			}
		}
	}

	f := &File{path: path, format: format, extras: extras}
	if len(t.Items()) > 0 || t.PictureCount() > 0 {
		f.primary = t
	}
	return f, nil
}

func probeFile(path string) (Format, error) {
	r, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()
	return Probe(r, path)
}

// Path returns the file the tag was read from.
func (f *File) Path() string {
	return f.path
}

// Format returns the probed container format.
func (f *File) Format() Format {
	return f.format
}

// PrimaryTag returns the tag of the container's primary type, or nil when
// the file carries none.
func (f *File) PrimaryTag() *tag.Tag {
	return f.primary
}

// PrimaryTagType returns the tag type native to the container.
func (f *File) PrimaryTagType() tag.Type {
	return f.format.Primary
}

// InsertTag replaces the primary tag. Properties outside the model are kept
// unless DiscardUnmodeled is called.
func (f *File) InsertTag(t *tag.Tag) {
	f.primary = t
}

// DiscardUnmodeled drops the properties the tag package does not model, so
// Save leaves only what the primary tag holds.
func (f *File) DiscardUnmodeled() {
	f.extras = nil
}

// Unmodeled returns a copy of the properties carried through untouched.
func (f *File) Unmodeled() map[string][]string {
	out := make(map[string][]string, len(f.extras))
	for k, v := range f.extras {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Save writes the tag into dest. When dest differs from the opened path the
// audio is copied there first and the opened file is left untouched.
// Pictures in dest are replaced by the tag's pictures in order.
func (f *File) Save(dest string) error {
	if dest != f.path {
		if err := utils.CopyFile(f.path, dest); err != nil {
			return err
		}
	}

	props := PropertiesFromTag(f.primary, f.extras)
	if err := taglib.WriteTags(dest, props, taglib.Clear); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", dest, err)
	}

	if !f.format.Primary.SupportsPictures() {
		return nil
	}
	if err := clearImages(dest); err != nil {
		return fmt.Errorf("failed to clear images in %s: %w", dest, err)
	}
	if f.primary == nil {
		return nil
	}
	for i, p := range f.primary.Pictures() {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		if err := taglib.WriteImageOptions(dest, p.Data, i, string(p.Type), desc, string(p.MimeType)); err != nil {
			return fmt.Errorf("failed to write image %d to %s: %w", i, dest, err)
		}
	}
	return nil
}

// clearImages removes every embedded picture of path. A nil write drops only
// the picture at the given index, so slots are cleared from the last one down.
func clearImages(path string) error {
	info, err := taglib.ReadProperties(path)
	if err != nil {
		return err
	}
	for i := len(info.Images) - 1; i >= 0; i-- {
		if err := taglib.WriteImageOptions(path, nil, i, "", "", ""); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}

	info, err = taglib.ReadProperties(path)
	if err != nil {
		return err
	}
	if n := len(info.Images); n > 0 {
		return fmt.Errorf("%d images left after clearing", n)
	}
	return nil
}
