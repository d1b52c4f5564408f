package audiotags

import (
	"fmt"

	"tagmap/internal/tag"
)

// ReplaceCover swaps the cover-front picture of t for data. Existing
// cover-front pictures are dropped, pictures with other roles are kept in
// their relative order behind the new cover.
//
// The stored MIME type is sniffed from data; defaultMime is used only when
// the bytes are not a recognized image, and image/jpeg when defaultMime is
// empty. Options other than WithSniffer are ignored.
func ReplaceCover(t Tag, data []byte, description *string, defaultMime tag.MimeType, opts ...Option) error {
	o := newOptions(opts)
	return replaceCover(t, data, description, defaultMime, o.sniffer)
}

// ReplaceAllPictures replaces every picture of t with images, cover-front
// images first and the rest in the given order.
func ReplaceAllPictures(t Tag, images []Image, opts ...Option) error {
	return replaceAllPictures(t, images, newOptions(opts))
}

// ResolveMime returns the sniffed type of data when it is a recognized image
// kind, else fallback, else image/jpeg.
func ResolveMime(data []byte, fallback tag.MimeType, s Sniffer) tag.MimeType {
	if s != nil {
		if m, ok := s.Classify(data); ok && m.Known() {
			return m
		}
	}
	if fallback != tag.MimeNone {
		return fallback
	}
	return tag.MimeJPEG
}

func replaceCover(t Tag, data []byte, description *string, defaultMime tag.MimeType, s Sniffer) error {
	cover := tag.Picture{
		Type:        tag.PictureFrontCover,
		MimeType:    ResolveMime(data, defaultMime, s),
		Description: cloneString(description),
		Data:        append([]byte(nil), data...),
	}

	t.RemovePictureType(tag.PictureFrontCover)
	rest := t.TakePictures()

	if err := t.PushPicture(cover); err != nil {
		if rerr := restore(t, rest); rerr != nil {
			return fmt.Errorf("insert cover: %w; restore: %w", err, rerr)
		}
		return fmt.Errorf("insert cover: %w", err)
	}
	for i, p := range rest {
		if err := t.PushPicture(p); err != nil {
			return fmt.Errorf("restore picture %d: %w", i, err)
		}
	}
	return nil
}

func replaceAllPictures(t Tag, images []Image, o options) error {
	sorted := coverFirst(cloneImages(images))

	t.TakePictures()
	for i, img := range sorted {
		fallback := o.defaultMime
		if img.MimeType != nil {
			fallback = tag.ParseMimeType(*img.MimeType)
		}
		p := tag.Picture{
			Type:        ToExternal(img.PicType),
			MimeType:    ResolveMime(img.Data, fallback, o.sniffer),
			Description: img.Description,
			Data:        img.Data,
		}
		if err := t.PushPicture(p); err != nil {
			return fmt.Errorf("insert picture %d: %w", i, err)
		}
	}
	return nil
}

// restore puts back pictures drained before a failed insert. Every picture is
// attempted; the first failure is returned.
func restore(t Tag, pics []tag.Picture) error {
	var first error
	for i, p := range pics {
		if err := t.PushPicture(p); err != nil && first == nil {
			first = fmt.Errorf("picture %d: %w", i, err)
		}
	}
	return first
}
