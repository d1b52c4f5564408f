package main

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"tagmap/internal/audiotags"
	"tagmap/internal/pipeline"
	"tagmap/internal/progress"
)

var (
	batchOp     string
	batchFormat string
	parallel    int
	batchFlags  tagFlags
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "apply one operation to every audio file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := batchJob(cmd)
		if err != nil {
			return err
		}
		return runBatch(cmd, args[0], job)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOp, "op", "read", "operation: read, write, clear or cover")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "yaml", "output format of read results: json or yaml")
	batchCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "number of files processed at once")
	batchFlags.bind(batchCmd)
}

func batchJob(cmd *cobra.Command) (pipeline.Job, error) {
	op, err := pipeline.ParseOp(batchOp)
	if err != nil {
		return pipeline.Job{}, err
	}
	job := pipeline.Job{Op: op}

	switch op {
	case pipeline.OpWrite:
		tags, err := batchFlags.build(cmd)
		if err != nil {
			return job, err
		}
		if tags.IsEmpty() {
			return job, fmt.Errorf("--op write requires at least one tag flag or --from")
		}
		job.Tags = &tags
	case pipeline.OpCover:
		if batchFlags.cover == "" {
			return job, fmt.Errorf("--op cover requires --cover")
		}
		if job.Cover, err = os.ReadFile(batchFlags.cover); err != nil {
			return job, fmt.Errorf("failed to read cover: %w", err)
		}
	}
	return job, job.Validate()
}

func runBatch(cmd *cobra.Command, dir string, job pipeline.Job) error {
	var (
		bar     *progress.Bar
		mu      sync.Mutex
		results = map[string]audiotags.AudioTags{}
	)
	hooks := pipeline.Hooks{
		OnFilesFound: func(total int) {
			if !cfg.Verbose {
				bar = progress.NewWithWriter(total, cmd.ErrOrStderr())
				log.SetProgressBar(true)
			}
		},
		OnProgress: func() {
			if bar != nil {
				bar.Increment()
			}
		},
		OnResult: func(path string, tags audiotags.AudioTags) {
			mu.Lock()
			results[path] = tags
			mu.Unlock()
		},
	}

	stats, err := pipeline.Run(sh.Context(), cfg, log, svc, dir, job, hooks)

	if bar != nil {
		bar.Finish()
		log.SetProgressBar(false)
	}
	if err != nil {
		return err
	}

	if job.Op == pipeline.OpRead {
		paths := make([]string, 0, len(results))
		for p := range results {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		out := make([]fileTags, len(paths))
		for i, p := range paths {
			out[i] = fileTags{Path: p, Tags: newTagsView(results[p])}
		}
		if err := encode(cmd, batchFormat, out); err != nil {
			return err
		}
	}

	log.Info("=== %s completed: %d successful, %d failed ===", job.Op, stats.Successful, stats.Failed)
	return nil
}

type fileTags struct {
	Path string   `json:"path" yaml:"path"`
	Tags tagsView `json:"tags" yaml:"tags"`
}
