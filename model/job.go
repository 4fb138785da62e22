package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Job is one execution of the analysis pipeline against one uploaded document.
type Job struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Tenant      string     `json:"tenant"`
	SourcePath  string     `json:"-"`
	Status      string     `json:"status"` // pending, processing, completed, failed, canceled
	Phase       string     `json:"phase,omitempty"`
	Progress    int        `json:"progress"`
	FailedStage string     `json:"failed_stage,omitempty"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	MirrorError string     `json:"mirror_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Job status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// BaseName is the stem every artifact of the job is named after.
func (j *Job) BaseName() string {
	name := j.Filename
	if name == "" {
		name = filepath.Base(j.SourcePath)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Terminal reports whether the job has stopped running.
func (j *Job) Terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}
