package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tagmap/internal/audiotags"
	"tagmap/internal/sniff"
	"tagmap/internal/tag"
	"tagmap/internal/tagio"
)

func (s *Server) handleReadTags(w http.ResponseWriter, r *http.Request) {
	audio, ok := s.readBody(w, r)
	if !ok {
		return
	}

	tags, err := s.svc.ReadTagsFromBuffer(audio)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tags)
}

func (s *Server) handleWriteTags(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	audio, err := formFile(r, "audio")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var tags audiotags.AudioTags
	if err := json.Unmarshal([]byte(r.FormValue("tags")), &tags); err != nil {
		http.Error(w, "Invalid tags: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.svc.WriteTagsToBuffer(audio, tags)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, out)
}

func (s *Server) handleClearTags(w http.ResponseWriter, r *http.Request) {
	audio, ok := s.readBody(w, r)
	if !ok {
		return
	}

	out, err := s.svc.ClearTagsToBuffer(audio)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, out)
}

func (s *Server) handleReadCover(w http.ResponseWriter, r *http.Request) {
	audio, ok := s.readBody(w, r)
	if !ok {
		return
	}

	img, err := s.svc.ReadCoverImageFromBuffer(audio)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if img == nil {
		http.Error(w, "No cover image", http.StatusNotFound)
		return
	}
	writeData(w, img)
}

func (s *Server) handleWriteCover(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	audio, err := formFile(r, "audio")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, err := formFile(r, "image")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.svc.WriteCoverImageToBuffer(audio, img)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, out)
}

// readBody reads a POST body holding raw audio. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if len(data) == 0 {
		http.Error(w, "Audio data is required", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return false
	}
	return true
}

func formFile(r *http.Request, name string) ([]byte, error) {
	f, _, err := r.FormFile(name)
	if err != nil {
		return nil, fmt.Errorf("%s file is required", name)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s file is empty", name)
	}
	return data, nil
}

func writeData(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", sniff.ContentType(data))
	w.Write(data)
}

// writeError maps tag operation errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	} else {
		s.logger.Debug("Request rejected: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tagio.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, tagio.ErrReadAudio),
		errors.Is(err, tag.ErrUnsupportedKey),
		errors.Is(err, tag.ErrPicturesUnsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tagio.ErrShuttingDown):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
