package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tagmap/internal/config"
	"tagmap/internal/logger"
	"tagmap/internal/tag"
	"tagmap/internal/tagio"
)

var jpegData = []byte{
	0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9,
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.NewWithWriters(false, io.Discard, io.Discard)
	srv := NewServer(ctx, NewJobManager(), config.DefaultConfig(), log, tagio.New(tagio.WithLogger(log)))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

// multipartBody builds a form from name/value pairs. []byte values become
// file parts, strings become fields.
func multipartBody(t *testing.T, parts ...any) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < len(parts); i += 2 {
		name := parts[i].(string)
		switch v := parts[i+1].(type) {
		case []byte:
			fw, err := mw.CreateFormFile(name, name)
			if err != nil {
				t.Fatal(err)
			}
			fw.Write(v)
		case string:
			mw.WriteField(name, v)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestTagEndpointsRejectGet(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/api/tags/read", "/api/tags/write", "/api/tags/clear", "/api/cover/read", "/api/cover/write"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want 405", path, resp.StatusCode)
		}
	}
}

func TestReadTagsUnsupported(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/tags/read", "application/octet-stream", strings.NewReader("plain text, not audio"))
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestReadTagsEmptyBody(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/tags/read", "application/octet-stream", http.NoBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWriteTagsValidation(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name  string
		parts []any
	}{
		{"missing audio", []any{"tags", `{"title":"x"}`}},
		{"invalid tags", []any{"audio", []byte("data"), "tags", `{"title":`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.parts...)
			resp := post(t, ts.URL+"/api/tags/write", ct, body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestWriteCoverMissingImage(t *testing.T) {
	_, ts := newTestServer(t)

	body, ct := multipartBody(t, "audio", []byte("data"))
	resp := post(t, ts.URL+"/api/cover/write", ct, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x.txt: %w", tagio.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{fmt.Errorf("%w: bad header", tagio.ErrReadAudio), http.StatusUnprocessableEntity},
		{fmt.Errorf("write title: %w", tag.ErrUnsupportedKey), http.StatusUnprocessableEntity},
		{fmt.Errorf("write image: %w", tag.ErrPicturesUnsupported), http.StatusUnprocessableEntity},
		{tagio.ErrShuttingDown, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: disk full", tagio.ErrWriteAudio), http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCreateJobValidation(t *testing.T) {
	_, ts := newTestServer(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing dir", `{"op":"read"}`},
		{"dir does not exist", `{"dir":"/nonexistent/tagmap","op":"read"}`},
		{"unknown op", fmt.Sprintf(`{"dir":%q,"op":"rename"}`, dir)},
		{"write without tags", fmt.Sprintf(`{"dir":%q,"op":"write"}`, dir)},
		{"cover without image", fmt.Sprintf(`{"dir":%q,"op":"cover"}`, dir)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/jobs", "application/json", strings.NewReader(tt.body))
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func waitForJob(t *testing.T, jm *JobManager, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jm.GetJob(id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.Done() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestCreateJobWithoutAudioFails(t *testing.T) {
	srv, ts := newTestServer(t)
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	resp := post(t, ts.URL+"/api/jobs", "application/json", strings.NewReader(fmt.Sprintf(`{"dir":%q,"op":"read"}`, dir)))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var created JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Op != "read" || created.Dir != dir {
		t.Errorf("created = %+v", created)
	}

	job := waitForJob(t, srv.jobMgr, created.ID)
	if job.Status != StatusFailed || !strings.Contains(job.Error, "no audio files") {
		t.Errorf("job = %s %q, want failed with no audio files", job.Status, job.Error)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("timestamps not set")
	}
}

func TestJobActions(t *testing.T) {
	srv, ts := newTestServer(t)
	job := srv.jobMgr.CreateJob("/music", readJob)

	resp, err := http.Get(ts.URL + "/api/jobs/" + job.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got JobResponse
	json.NewDecoder(resp.Body).Decode(&got)
	if got.ID != job.ID || got.Status != StatusPending {
		t.Errorf("GET job = %+v", got)
	}

	cancelResp := post(t, ts.URL+"/api/jobs/"+job.ID+"/cancel", "application/json", http.NoBody)
	if cancelResp.StatusCode != http.StatusOK {
		t.Errorf("cancel status = %d", cancelResp.StatusCode)
	}
	if j, _ := srv.jobMgr.GetJob(job.ID); j.Status != StatusCancelled {
		t.Errorf("status after cancel = %s", j.Status)
	}

	listResp, err := http.Get(ts.URL + "/api/jobs")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var list []JobResponse
	json.NewDecoder(listResp.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != job.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestJobNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/jobs/job_missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET status = %d, want 404", resp.StatusCode)
	}

	cancelResp := post(t, ts.URL+"/api/jobs/job_missing/cancel", "application/json", http.NoBody)
	if cancelResp.StatusCode != http.StatusNotFound {
		t.Errorf("cancel status = %d, want 404", cancelResp.StatusCode)
	}
}

func wsURL(ts *httptest.Server, jobID string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?job_id=" + jobID
}

func TestWebSocketStreamsUntilDone(t *testing.T) {
	srv, ts := newTestServer(t)
	job := srv.jobMgr.CreateJob("/music", readJob)
	srv.jobMgr.UpdateJob(job.ID, func(j *Job) { j.Status = StatusRunning })

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, job.ID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial JobResponse
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if initial.Status != StatusRunning {
		t.Errorf("initial status = %s", initial.Status)
	}

	srv.jobMgr.UpdateJob(job.ID, func(j *Job) { j.Status = StatusCompleted })

	// Skip any intermediate update until the terminal one arrives.
	for {
		var update JobResponse
		if err := conn.ReadJSON(&update); err != nil {
			t.Fatalf("read update: %v", err)
		}
		if update.Status == StatusCompleted {
			break
		}
	}

	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close after terminal update, got %v", err)
	}
}

func listenerCount(jm *JobManager, id string) int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return len(jm.listeners[id])
}

func TestWebSocketClientCloseUnsubscribes(t *testing.T) {
	srv, ts := newTestServer(t)
	job := srv.jobMgr.CreateJob("/music", readJob)
	srv.jobMgr.UpdateJob(job.ID, func(j *Job) { j.Status = StatusRunning })

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, job.ID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var initial JobResponse
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if n := listenerCount(srv.jobMgr, job.ID); n != 1 {
		t.Fatalf("listeners = %d, want 1 while connected", n)
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.Close()

	// The job is still running, so only the client going away can end the handler.
	deadline := time.Now().Add(2 * time.Second)
	for listenerCount(srv.jobMgr, job.ID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler kept its subscription after the client closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketUnknownJob(t *testing.T) {
	_, ts := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "job_missing"), nil)
	if err == nil {
		t.Fatal("dial should fail for unknown job")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

// createTestAudio generates a short silent mp3 using ffmpeg.
// Skips the test if ffmpeg is not available.
func createTestAudio(t *testing.T) []byte {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping web integration test")
	}

	path := filepath.Join(t.TempDir(), "test.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "0.1", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestTagRoundTripOverHTTP(t *testing.T) {
	audio := createTestAudio(t)
	_, ts := newTestServer(t)

	body, ct := multipartBody(t, "audio", audio, "tags", `{"title":"Song","artists":["A","B"],"track":{"no":3,"of":12}}`)
	resp := post(t, ts.URL+"/api/tags/write", ct, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("write status = %d: %s", resp.StatusCode, readAll(t, resp))
	}
	tagged := readAll(t, resp)

	readResp := post(t, ts.URL+"/api/tags/read", "application/octet-stream", bytes.NewReader(tagged))
	var got struct {
		Title   string   `json:"title"`
		Artists []string `json:"artists"`
		Track   struct {
			No, Of int
		} `json:"track"`
	}
	if err := json.NewDecoder(readResp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Song" || len(got.Artists) != 2 || got.Track.No != 3 || got.Track.Of != 12 {
		t.Errorf("read back %+v", got)
	}

	coverResp := post(t, ts.URL+"/api/cover/read", "application/octet-stream", bytes.NewReader(tagged))
	if coverResp.StatusCode != http.StatusNotFound {
		t.Errorf("cover read status = %d, want 404", coverResp.StatusCode)
	}

	body, ct = multipartBody(t, "audio", tagged, "image", jpegData)
	withCover := readAll(t, post(t, ts.URL+"/api/cover/write", ct, body))

	coverResp = post(t, ts.URL+"/api/cover/read", "application/octet-stream", bytes.NewReader(withCover))
	if ct := coverResp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("cover Content-Type = %q", ct)
	}
	if img := readAll(t, coverResp); !bytes.Equal(img, jpegData) {
		t.Error("cover bytes differ")
	}

	cleared := readAll(t, post(t, ts.URL+"/api/tags/clear", "application/octet-stream", bytes.NewReader(withCover)))
	readResp = post(t, ts.URL+"/api/tags/read", "application/octet-stream", bytes.NewReader(cleared))
	var empty map[string]any
	json.NewDecoder(readResp.Body).Decode(&empty)
	if empty["title"] != nil || empty["image"] != nil {
		t.Errorf("cleared tags = %v", empty)
	}
}
