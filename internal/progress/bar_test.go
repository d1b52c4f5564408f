package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBarRendersCompletion(t *testing.T) {
	var out bytes.Buffer
	b := NewWithWriter(2, &out)

	b.Increment()
	b.Fail()
	b.Finish()

	s := out.String()
	if !strings.Contains(s, "2/2 (100.0%)") {
		t.Errorf("output missing completion: %q", s)
	}
	if !strings.Contains(s, "Failed: 1") {
		t.Errorf("output missing failure count: %q", s)
	}
	if !strings.HasSuffix(s, "\n") {
		t.Error("Finish should end the line")
	}
}

func TestBarZeroTotal(t *testing.T) {
	var out bytes.Buffer
	b := NewWithWriter(0, &out)
	b.Finish()
	if !strings.Contains(out.String(), "0/0 (100.0%)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	var out bytes.Buffer
	b := NewWithWriter(1, &out)
	b.Finish()
	n := out.Len()
	b.Finish()
	if out.Len() != n {
		t.Error("second Finish wrote output")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
