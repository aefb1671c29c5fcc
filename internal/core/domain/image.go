package domain

import (
	"io"
	"time"
)

type AnalysisStatus string

const (
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s AnalysisStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ImageUpload is the tracking record of one uploaded image and its analysis.
// AnalysisResult is set only when Status is completed, ErrorMessage only when failed.
// AnalysisResult holds whatever JSON value the backend returned, usually an object.
type ImageUpload struct {
	ID               string         `json:"image_id" bson:"_id"`
	UserID           string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	OriginalFilename string         `json:"original_filename" bson:"original_filename"`
	StoragePath      string         `json:"storage_path" bson:"storage_path"`
	ContentType      string         `json:"content_type" bson:"content_type"`
	Size             int64          `json:"size" bson:"size"`
	Status           AnalysisStatus `json:"status" bson:"status"`
	UploadedAt       time.Time      `json:"uploaded_at" bson:"uploaded_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	AnalysisResult   any            `json:"analysis_result,omitempty" bson:"analysis_result,omitempty"`
	RawText          string         `json:"raw_text,omitempty" bson:"raw_text,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

// ImageSubmission carries an incoming image before validation.
type ImageSubmission struct {
	Filename    string
	ContentType string
	Body        io.Reader
	UserID      string
}

// AnalysisOutcome is the single terminal write applied to a processing record.
type AnalysisOutcome struct {
	Status       AnalysisStatus
	Result       any
	RawText      string
	ErrorMessage string
	CompletedAt  time.Time
}

// AnalysisResponse is the audit copy of one extraction run, keyed by user and image.
type AnalysisResponse struct {
	ID            string    `json:"id" bson:"_id"`
	ImageID       string    `json:"image_id" bson:"image_id"`
	UserID        string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Success       bool      `json:"success" bson:"success"`
	Data          any       `json:"data" bson:"data"`
	RawText       string    `json:"raw_text" bson:"raw_text"`
	Error         string    `json:"error,omitempty" bson:"error,omitempty"`
	Model         string    `json:"model" bson:"model"`
	PromptVersion string    `json:"prompt_version" bson:"prompt_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Page bounds a newest-first listing.
type Page struct {
	Limit int
	Skip  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)
