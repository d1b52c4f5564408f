package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Bar represents a simple progress bar
type Bar struct {
	total     int
	current   int
	failed    int
	mu        sync.Mutex
	out       io.Writer
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a new progress bar printing to stdout
func New(total int) *Bar {
	return NewWithWriter(total, os.Stdout)
}

// NewWithWriter creates a progress bar printing to out
func NewWithWriter(total int, out io.Writer) *Bar {
	return &Bar{
		total:     total,
		out:       out,
		startTime: time.Now(),
		lastPrint: time.Now(),
	}
}

// Increment records one processed file
func (b *Bar) Increment() {
	b.advance(false)
}

// Fail records one file that could not be processed
func (b *Bar) Fail() {
	b.advance(true)
}

func (b *Bar) advance(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if failed {
		b.failed++
	}

	// Update display every 500ms or when complete
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish marks the progress as complete
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.current = b.total
		b.render()
		fmt.Fprintln(b.out) // New line after completion
		b.done = true
	}
}

// render displays the progress bar
func (b *Bar) render() {
	if b.done {
		return
	}

	ratio := 1.0
	if b.total > 0 {
		ratio = float64(b.current) / float64(b.total)
	}
	elapsed := time.Since(b.startTime)

	// Calculate ETA
	var eta time.Duration
	if b.current > 0 && b.current < b.total {
		avgTime := elapsed / time.Duration(b.current)
		eta = avgTime * time.Duration(b.total-b.current)
	}

	// Progress bar width
	barWidth := 40
	filled := int(float64(barWidth) * ratio)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	failed := ""
	if b.failed > 0 {
		failed = fmt.Sprintf(" - Failed: %d", b.failed)
	}

	fmt.Fprintf(b.out, "\r[%s] %d/%d (%.1f%%)%s - Elapsed: %s - ETA: %s   ",
		bar,
		b.current,
		b.total,
		ratio*100,
		failed,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
