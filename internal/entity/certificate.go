package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cert-organizer/constants"
)

// CertificateFields is what the field extractor produces from document text.
// An empty string means the field was not found.
type CertificateFields struct {
	Name     string                 `json:"name,omitempty"`
	Course   string                 `json:"course,omitempty"`
	Duration string                 `json:"duration,omitempty"`
	Date     string                 `json:"date,omitempty"`
	Status   constants.RecordStatus `json:"status"`
}

// Complete reports whether both name and course were found.
func (f CertificateFields) Complete() bool {
	return f.Name != "" && f.Course != ""
}

// CertificateRecord is one processed source file.
type CertificateRecord struct {
	ID uuid.UUID `json:"id"`
	CertificateFields

	SourceFilename string    `json:"source_filename"`
	NewFilename    string    `json:"new_filename,omitempty"`
	SourcePath     string    `json:"-"`
	ContentHash    string    `json:"content_hash,omitempty"`
	Pages          int       `json:"pages"`
	Method         string    `json:"method,omitempty"`
	Confidence     float32   `json:"confidence"`
	ExtractedAt    time.Time `json:"extracted_at"`
}

// DisplayName returns the name or the incomplete-record placeholder.
func (r CertificateRecord) DisplayName() string {
	if r.Name == "" {
		return constants.UnknownStudent
	}
	return r.Name
}

// DisplayCourse returns the course or the incomplete-record placeholder.
func (r CertificateRecord) DisplayCourse() string {
	if r.Course == "" {
		return constants.UnidentifiedCourse
	}
	return r.Course
}

// Failure is a file the batch could not turn into a record.
type Failure struct {
	SourceFilename string    `json:"source_filename"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}
