package web

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"tagmap/internal/audiotags"
	"tagmap/internal/logger"
	"tagmap/internal/pipeline"
)

type JobRequest struct {
	Dir   string               `json:"dir"`
	Op    string               `json:"op"`
	Tags  *audiotags.AudioTags `json:"tags,omitempty"`
	Cover []byte               `json:"cover,omitempty"`
}

type JobResponse struct {
	ID          string       `json:"id"`
	Dir         string       `json:"dir"`
	Op          pipeline.Op  `json:"op"`
	Status      JobStatus    `json:"status"`
	Progress    int          `json:"progress"`
	Total       int          `json:"total"`
	Failed      int          `json:"failed"`
	Error       string       `json:"error,omitempty"`
	Results     []FileResult `json:"results,omitempty"`
	CreatedAt   string       `json:"created_at"`
	StartedAt   *string      `json:"started_at,omitempty"`
	CompletedAt *string      `json:"completed_at,omitempty"`
}

const timeLayout = "2006-01-02 15:04:05"

// handleJobs serves GET (list) and POST (create) on /api/jobs.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListJobs(w, r)
	case http.MethodPost:
		s.handleCreateJob(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Dir == "" {
		http.Error(w, "dir is required", http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(req.Dir); err != nil || !info.IsDir() {
		http.Error(w, "dir is not a directory: "+req.Dir, http.StatusBadRequest)
		return
	}

	op, err := pipeline.ParseOp(req.Op)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	task := pipeline.Job{Op: op, Tags: req.Tags, Cover: req.Cover}
	if err := task.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.jobMgr.CreateJob(req.Dir, task)
	s.logger.Info("Created job %s: %s %s", job.ID, op, req.Dir)

	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		resp := s.jobToResponse(job)
		resp.Results = nil
		responses[i] = resp
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Handle GET /api/jobs/{id}
	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.jobToResponse(job))
		return
	}

	// Handle POST /api/jobs/{id}/cancel
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

func (s *Server) processJob(job *Job) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Store cancel function in job
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
		j.Status = StatusRunning
	})
	if current, err := s.jobMgr.GetJob(job.ID); err != nil || current.Status.Done() {
		return
	}

	s.logger.Info("Starting job %s", job.ID)
	log := s.logger.WithFields(logger.Fields{"job": job.ID})

	hooks := pipeline.Hooks{
		OnFilesFound: func(total int) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) { j.Total = total })
		},
		OnProgress: func() {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) { j.Progress++ })
		},
		OnFailure: func(string, error) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) { j.Failed++ })
		},
		OnResult: func(path string, tags audiotags.AudioTags) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Results = append(j.Results, FileResult{Path: path, Tags: tags})
			})
		},
	}

	stats, err := pipeline.Run(ctx, s.config, log, s.svc, job.Dir, job.Task, hooks)
	if err != nil {
		status := StatusFailed
		if ctx.Err() != nil {
			status = StatusCancelled
		}
		s.logger.Error("Job %s %s: %v", job.ID, status, err)
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Status = status
			j.Error = err.Error()
		})
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
	})

	s.logger.Info("Job %s completed: %d successful, %d failed", job.ID, stats.Successful, stats.Failed)
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Dir:       job.Dir,
		Op:        job.Task.Op,
		Status:    job.Status,
		Progress:  job.Progress,
		Total:     job.Total,
		Failed:    job.Failed,
		Error:     job.Error,
		Results:   job.Results,
		CreatedAt: job.CreatedAt.Format(timeLayout),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format(timeLayout)
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format(timeLayout)
		resp.CompletedAt = &completed
	}

	return resp
}
