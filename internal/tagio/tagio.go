// Package tagio reads and writes the unified tag record of audio files and
// in-memory audio buffers.
//
// Every write is a read-modify-write of the file's primary tag. The result
// is saved to a temporary copy next to the target and renamed over it, so a
// failed write leaves the target untouched. Sequences on the same path are
// serialized; different paths run in parallel.
package tagio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"tagmap/internal/audiotags"
	"tagmap/internal/container"
	"tagmap/internal/logger"
	"tagmap/internal/tag"
	"tagmap/pkg/utils"
)

var (
	// ErrUnsupportedFormat is returned when the audio format is not recognized.
	ErrUnsupportedFormat = container.ErrUnsupportedFormat
	// ErrReadAudio is returned when a recognized file cannot be read.
	ErrReadAudio = errors.New("failed to read audio file")
	// ErrWriteAudio is returned when the modified file cannot be saved.
	ErrWriteAudio = errors.New("failed to write audio file")
	// ErrShuttingDown is returned for writes started after shutdown began.
	ErrShuttingDown = errors.New("shutting down")
)

// Guard tracks in-flight writes so shutdown can wait for them.
type Guard interface {
	Begin() bool
	End()
}

// Service runs tag operations.
type Service struct {
	log     *logger.Logger
	tagOpts []audiotags.Option
	guard   Guard
	tempDir string
	locks   keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTagOptions sets the options passed to audiotags.ToTag.
func WithTagOptions(opts ...audiotags.Option) Option {
	return func(s *Service) { s.tagOpts = append(s.tagOpts, opts...) }
}

// WithGuard registers every write with g.
func WithGuard(g Guard) Option {
	return func(s *Service) { s.guard = g }
}

// WithTempDir sets the directory used to stage buffers. The default is the
// system temp directory.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewWithWriters(false, io.Discard, io.Discard)
	}
	return s
}

// ReadTags reads the tags of the file at path. A file without a primary tag
// yields the all-absent value.
func (s *Service) ReadTags(path string) (audiotags.AudioTags, error) {
	f, err := s.open(path)
	if err != nil {
		return audiotags.AudioTags{}, err
	}
	t := f.PrimaryTag()
	if t == nil {
		s.log.Debug("no primary tag in %s", path)
		return audiotags.AudioTags{}, nil
	}
	return audiotags.FromTag(t), nil
}

// ReadTagsFromBuffer reads the tags of an in-memory audio file.
func (s *Service) ReadTagsFromBuffer(buf []byte) (audiotags.AudioTags, error) {
	var out audiotags.AudioTags
	err := s.withStaged(buf, func(path string) error {
		var err error
		out, err = s.ReadTags(path)
		return err
	})
	return out, err
}

// WriteTags writes the present fields of tags into the file at path. When
// the file has no primary tag an empty one of the container's native type
// is created first.
func (s *Service) WriteTags(path string, tags audiotags.AudioTags) error {
	return s.modify(path, func(f *container.File) error {
		t := f.PrimaryTag()
		if t == nil {
			t = tag.New(f.PrimaryTagType())
			f.InsertTag(t)
		}
		return audiotags.ToTag(tags, t, s.tagOpts...)
	})
}

// WriteTagsToBuffer returns a copy of buf with tags written. buf is not
// modified.
func (s *Service) WriteTagsToBuffer(buf []byte, tags audiotags.AudioTags) ([]byte, error) {
	return s.modifyBuffer(buf, func(path string) error {
		return s.WriteTags(path, tags)
	})
}

// ClearTags replaces the primary tag of the file at path with an empty tag
// of the same type.
func (s *Service) ClearTags(path string) error {
	return s.modify(path, func(f *container.File) error {
		f.InsertTag(tag.New(f.PrimaryTagType()))
		f.DiscardUnmodeled()
		return nil
	})
}

// ClearTagsToBuffer returns a copy of buf with its tags cleared.
func (s *Service) ClearTagsToBuffer(buf []byte) ([]byte, error) {
	return s.modifyBuffer(buf, s.ClearTags)
}

// ReadCoverImageFromFile returns the cover-front image bytes of the file at
// path, or nil when there is none.
func (s *Service) ReadCoverImageFromFile(path string) ([]byte, error) {
	tags, err := s.ReadTags(path)
	if err != nil {
		return nil, err
	}
	return coverData(tags), nil
}

// ReadCoverImageFromBuffer returns the cover-front image bytes of an
// in-memory audio file, or nil when there is none.
func (s *Service) ReadCoverImageFromBuffer(buf []byte) ([]byte, error) {
	tags, err := s.ReadTagsFromBuffer(buf)
	if err != nil {
		return nil, err
	}
	return coverData(tags), nil
}

// WriteCoverImageToFile replaces the cover-front image of the file at path.
// The stored MIME type is derived from the image bytes.
func (s *Service) WriteCoverImageToFile(path string, image []byte) error {
	return s.WriteTags(path, coverOnly(image))
}

// WriteCoverImageToBuffer returns a copy of buf with its cover-front image
// replaced.
func (s *Service) WriteCoverImageToBuffer(buf, image []byte) ([]byte, error) {
	return s.WriteTagsToBuffer(buf, coverOnly(image))
}

func coverOnly(image []byte) audiotags.AudioTags {
	return audiotags.AudioTags{Image: &audiotags.Image{Data: image, PicType: audiotags.CoverFront}}
}

func coverData(tags audiotags.AudioTags) []byte {
	if tags.Image == nil {
		return nil
	}
	return tags.Image.Data
}

func (s *Service) open(path string) (*container.File, error) {
	f, err := container.Open(path)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrReadAudio, err)
	}
	return f, nil
}

// modify runs a read-modify-write on path under its lock.
func (s *Service) modify(path string, fn func(*container.File) error) error {
	if s.guard != nil {
		if !s.guard.Begin() {
			return ErrShuttingDown
		}
		defer s.guard.End()
	}

	unlock := s.locks.lock(lockKey(path))
	defer unlock()

	f, err := s.open(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := s.save(f, path); err != nil {
		return err
	}
	s.log.Debug("saved tags to %s", path)
	return nil
}

// save writes f to a temporary sibling of path and renames it into place.
func (s *Service) save(f *container.File, path string) error {
	tmp, err := utils.TempSibling(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteAudio, err)
	}
	if err := f.Save(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrWriteAudio, err)
	}
	if err := utils.ReplaceFile(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrWriteAudio, err)
	}
	return nil
}

// withStaged writes a copy of buf to a temp file named after its probed
// format and calls fn with its path.
func (s *Service) withStaged(buf []byte, fn func(path string) error) error {
	format, err := container.Probe(bytes.NewReader(buf), "")
	if err != nil {
		return err
	}
	path, err := utils.WriteTempFile(s.tempDir, format.Ext, buf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadAudio, err)
	}
	defer os.Remove(path)
	return fn(path)
}

func (s *Service) modifyBuffer(buf []byte, fn func(path string) error) ([]byte, error) {
	var out []byte
	err := s.withStaged(buf, func(path string) error {
		if err := fn(path); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWriteAudio, err)
		}
		out = data
		return nil
	})
	return out, err
}
