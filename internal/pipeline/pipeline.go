package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"tagmap/internal/audiotags"
	"tagmap/internal/config"
	"tagmap/internal/logger"
	"tagmap/pkg/utils"
)

// Op is the per-file operation of a batch run.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
	OpClear Op = "clear"
	OpCover Op = "cover"
)

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	switch op := Op(s); op {
	case OpRead, OpWrite, OpClear, OpCover:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation %q, valid operations: read, write, clear, cover", s)
}

// Job describes what to do with every file of a batch.
type Job struct {
	Op    Op
	Tags  *audiotags.AudioTags
	Cover []byte
}

// Validate checks that the job carries the input its operation needs.
func (j Job) Validate() error {
	switch j.Op {
	case OpRead, OpClear:
		return nil
	case OpWrite:
		if j.Tags == nil {
			return fmt.Errorf("write job requires tags")
		}
		return nil
	case OpCover:
		if len(j.Cover) == 0 {
			return fmt.Errorf("cover job requires image data")
		}
		return nil
	}
	_, err := ParseOp(string(j.Op))
	return err
}

// Service is the subset of tagio.Service a batch needs.
type Service interface {
	ReadTags(path string) (audiotags.AudioTags, error)
	WriteTags(path string, tags audiotags.AudioTags) error
	ClearTags(path string) error
	WriteCoverImageToFile(path string, image []byte) error
}

type Hooks struct {
	OnFilesFound func(total int)
	OnProgress   func()
	OnFailure    func(path string, err error)
	OnResult     func(path string, tags audiotags.AudioTags)
}

// Stats contains statistics about a batch run
type Stats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Run applies job to every audio file under dir, running up to
// cfg.ParallelJobs files at once. Single file failures are logged and
// counted; Run fails when every file failed or ctx was cancelled.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger, svc Service, dir string, job Job, hooks Hooks) (Stats, error) {
	if err := job.Validate(); err != nil {
		return Stats{}, err
	}

	files, err := utils.FindAudioFiles(dir, cfg.Extensions)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to find audio files: %w", err)
	}
	stats := Stats{Total: len(files)}
	if len(files) == 0 {
		return stats, fmt.Errorf("no audio files found in %s", dir)
	}
	if hooks.OnFilesFound != nil {
		hooks.OnFilesFound(len(files))
	}
	log.Info("=== Running %s on %d files ===", job.Op, len(files))

	parallel := cfg.ParallelJobs
	if parallel < 1 {
		parallel = 1
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Files not yet started are skipped after cancellation.
			if ctx.Err() != nil {
				return nil
			}
			tags, err := runOne(svc, job, path)

			mu.Lock()
			if err != nil {
				stats.Failed++
			} else {
				stats.Successful++
			}
			mu.Unlock()

			if err != nil {
				log.WithFields(logger.Fields{"path": path, "op": job.Op}).Warn("failed: %v", err)
				if hooks.OnFailure != nil {
					hooks.OnFailure(path, err)
				}
			} else {
				log.Debug("%s %s", job.Op, path)
				if job.Op == OpRead && hooks.OnResult != nil {
					hooks.OnResult(path, tags)
				}
			}
			if hooks.OnProgress != nil {
				hooks.OnProgress()
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("batch cancelled after %d of %d files: %w", stats.Successful+stats.Failed, stats.Total, err)
	}
	if stats.Failed == stats.Total {
		return stats, fmt.Errorf("all %d files failed", stats.Total)
	}

	log.Info("Batch completed: %d successful, %d failed", stats.Successful, stats.Failed)
	return stats, nil
}

func runOne(svc Service, job Job, path string) (audiotags.AudioTags, error) {
	switch job.Op {
	case OpRead:
		return svc.ReadTags(path)
	case OpWrite:
		return audiotags.AudioTags{}, svc.WriteTags(path, *job.Tags)
	case OpClear:
		return audiotags.AudioTags{}, svc.ClearTags(path)
	case OpCover:
		return audiotags.AudioTags{}, svc.WriteCoverImageToFile(path, job.Cover)
	}
	return audiotags.AudioTags{}, fmt.Errorf("unknown operation %q", job.Op)
}
