package models

import (
	"time"

	"github.com/google/uuid"
)

// ResumeSubmission is an uploaded resume held in memory until its batch has
// been screened.
type ResumeSubmission struct {
	Filename string
	Data     []byte
}

type ResultStatus string

const (
	ResultEvaluated ResultStatus = "evaluated"
	ResultFailed    ResultStatus = "failed"
)

// ResumeResult is the persisted outcome of one resume inside a batch.
type ResumeResult struct {
	ID              uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BatchID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"batch_id"`
	Position        int          `gorm:"not null" json:"position"`
	Filename        string       `gorm:"type:text" json:"filename"`
	Status          ResultStatus `gorm:"type:text;not null" json:"status"`
	Stage           string       `gorm:"type:text" json:"stage,omitempty"`
	MatchPercent    string       `gorm:"type:text" json:"match_percent,omitempty"`
	MissingKeywords []string     `gorm:"serializer:json" json:"missing_keywords,omitempty"`
	ProfileSummary  string       `gorm:"type:text" json:"profile_summary,omitempty"`
	Suggestions     string       `gorm:"type:text" json:"suggestions,omitempty"`
	ErrorMessage    string       `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt       time.Time    `gorm:"type:timestamp;default:now()" json:"created_at"`
}

func (r *ResumeResult) TableName() string {
	return "resume_results"
}
