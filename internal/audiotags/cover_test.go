package audiotags

import (
	"errors"
	"strings"
	"testing"

	"tagmap/internal/tag"
)

var jpegData = []byte{
	0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9,
}

// sniffFunc adapts a function to the Sniffer interface.
type sniffFunc func([]byte) (tag.MimeType, bool)

func (f sniffFunc) Classify(data []byte) (tag.MimeType, bool) { return f(data) }

var neverSniff = sniffFunc(func([]byte) (tag.MimeType, bool) { return tag.MimeNone, false })

func roles(pics []tag.Picture) []tag.PictureType {
	out := make([]tag.PictureType, len(pics))
	for i, p := range pics {
		out[i] = p.Type
	}
	return out
}

func TestReplaceAllPicturesCoverFirst(t *testing.T) {
	tg := tag.New(tag.TypeID3v2)
	pushPictures(t, tg, tag.Picture{Type: tag.PictureBandLogo, Data: []byte{9}})

	images := []Image{
		{Data: []byte("back"), PicType: CoverBack, MimeType: String("image/png")},
		{Data: jpegData, PicType: CoverFront, MimeType: String("image/png")},
		{Data: []byte("artist"), PicType: Artist},
	}

	if err := ReplaceAllPictures(tg, images); err != nil {
		t.Fatalf("ReplaceAllPictures() error: %v", err)
	}

	pics := tg.Pictures()
	want := []tag.PictureType{tag.PictureFrontCover, tag.PictureBackCover, tag.PictureArtist}
	if got := roles(pics); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("roles = %v, want %v", got, want)
	}
	if pics[0].MimeType != tag.MimeJPEG {
		t.Errorf("cover MIME = %q, want image/jpeg from content", pics[0].MimeType)
	}
	if pics[1].MimeType != tag.MimePNG {
		t.Errorf("back MIME = %q, want declared image/png for unsniffable bytes", pics[1].MimeType)
	}
	if pics[2].MimeType != tag.MimeJPEG {
		t.Errorf("artist MIME = %q, want default image/jpeg", pics[2].MimeType)
	}

	got := FromTag(tg)
	if got.Image == nil || got.Image.PicType != CoverFront {
		t.Fatalf("Image = %+v, want the cover", got.Image)
	}
	if string(got.AllImages[1].Data) != "back" || string(got.AllImages[2].Data) != "artist" {
		t.Errorf("non-cover order not kept: %+v", got.AllImages)
	}
}

func TestReplaceAllPicturesEmptyClears(t *testing.T) {
	tg := tag.New(tag.TypeID3v2)
	pushPictures(t, tg, tag.Picture{Type: tag.PictureFrontCover, Data: jpegData})

	if err := ToTag(AudioTags{AllImages: []Image{}}, tg); err != nil {
		t.Fatalf("ToTag() error: %v", err)
	}
	if n := tg.PictureCount(); n != 0 {
		t.Errorf("PictureCount() = %d, want 0", n)
	}
}

func TestReplaceCoverKeepsOthers(t *testing.T) {
	tg := tag.New(tag.TypeID3v2)
	pushPictures(t, tg,
		tag.Picture{Type: tag.PictureBackCover, Data: []byte{1}},
		tag.Picture{Type: tag.PictureFrontCover, Data: []byte{2}},
		tag.Picture{Type: tag.PictureFrontCover, Data: []byte{3}},
		tag.Picture{Type: tag.PictureArtist, Data: []byte{4}},
	)

	desc := "new cover"
	if err := ReplaceCover(tg, jpegData, &desc, tag.MimePNG); err != nil {
		t.Fatalf("ReplaceCover() error: %v", err)
	}

	pics := tg.Pictures()
	if len(pics) != 3 {
		t.Fatalf("got %d pictures, want 3", len(pics))
	}
	if pics[0].Type != tag.PictureFrontCover || pics[0].MimeType != tag.MimeJPEG {
		t.Errorf("pics[0] = %s %s, want Front Cover image/jpeg", pics[0].Type, pics[0].MimeType)
	}
	if pics[0].Description == nil || *pics[0].Description != desc {
		t.Errorf("description = %v, want %q", pics[0].Description, desc)
	}
	if pics[1].Data[0] != 1 || pics[2].Data[0] != 4 {
		t.Errorf("other pictures reordered: %v, %v", pics[1].Data, pics[2].Data)
	}
}

// rejectingTag refuses every new picture while keeping what it already holds.
type rejectingTag struct{ *tag.Tag }

func (rejectingTag) PushPicture(tag.Picture) error { return tag.ErrPicturesUnsupported }

func TestReplaceCoverReportsFailedRestore(t *testing.T) {
	inner := tag.New(tag.TypeID3v2)
	pushPictures(t, inner, tag.Picture{Type: tag.PictureArtist, Data: []byte{1}})

	err := ReplaceCover(rejectingTag{inner}, jpegData, nil, tag.MimeJPEG)
	if !errors.Is(err, tag.ErrPicturesUnsupported) {
		t.Fatalf("ReplaceCover() error = %v, want ErrPicturesUnsupported", err)
	}
	if !strings.Contains(err.Error(), "restore") {
		t.Errorf("error %q does not mention the failed restore", err)
	}
}

func TestResolveMime(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fallback tag.MimeType
		sniffer  Sniffer
		want     tag.MimeType
	}{
		{"sniffed wins over fallback", jpegData, tag.MimePNG, nil, tag.MimeJPEG},
		{"fallback for unknown bytes", []byte("text"), tag.MimeGIF, nil, tag.MimeGIF},
		{"jpeg when nothing else", []byte("text"), tag.MimeNone, nil, tag.MimeJPEG},
		{"no sniffer uses fallback", jpegData, tag.MimeBMP, neverSniff, tag.MimeBMP},
		{"custom sniffer", []byte{0}, tag.MimeNone, sniffFunc(func([]byte) (tag.MimeType, bool) {
			return tag.MimeTIFF, true
		}), tag.MimeTIFF},
		{"sniffer unknown kind ignored", []byte{0}, tag.MimePNG, sniffFunc(func([]byte) (tag.MimeType, bool) {
			return "image/webp", true
		}), tag.MimePNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.sniffer
			if s == nil {
				s = newOptions(nil).sniffer
			}
			if got := ResolveMime(tt.data, tt.fallback, s); got != tt.want {
				t.Errorf("ResolveMime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToTagImageMime(t *testing.T) {
	tests := []struct {
		name  string
		image Image
		opts  []Option
		want  tag.MimeType
	}{
		{"declared type not trusted", Image{Data: jpegData, MimeType: String("image/png")}, nil, tag.MimeJPEG},
		{"declared type for unknown bytes", Image{Data: []byte("raw"), MimeType: String("png")}, nil, tag.MimePNG},
		{"configured default", Image{Data: []byte("raw")}, []Option{WithDefaultMime(tag.MimeGIF)}, tag.MimeGIF},
		{"sniffing disabled", Image{Data: jpegData}, []Option{WithSniffer(nil), WithDefaultMime(tag.MimeBMP)}, tag.MimeBMP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := tag.New(tag.TypeVorbisComments)
			img := tt.image
			if err := ToTag(AudioTags{Image: &img}, tg, tt.opts...); err != nil {
				t.Fatalf("ToTag() error: %v", err)
			}
			pics := tg.Pictures()
			if len(pics) != 1 {
				t.Fatalf("got %d pictures, want 1", len(pics))
			}
			if pics[0].MimeType != tt.want {
				t.Errorf("MimeType = %q, want %q", pics[0].MimeType, tt.want)
			}
			if pics[0].Type != tag.PictureFrontCover {
				t.Errorf("Type = %q, want Front Cover", pics[0].Type)
			}
		})
	}
}

func TestToTagAllImagesOverridesImage(t *testing.T) {
	tg := tag.New(tag.TypeMP4Ilst)
	a := AudioTags{
		Image:     &Image{Data: []byte("ignored"), PicType: CoverFront},
		AllImages: []Image{{Data: jpegData, PicType: CoverBack}},
	}

	if err := ToTag(a, tg); err != nil {
		t.Fatalf("ToTag() error: %v", err)
	}
	pics := tg.Pictures()
	if len(pics) != 1 || pics[0].Type != tag.PictureBackCover {
		t.Errorf("pictures = %v, want only the back cover", roles(pics))
	}
}
