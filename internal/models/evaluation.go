package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchStatus string

const (
	StatusQueued     BatchStatus = "queued"
	StatusProcessing BatchStatus = "processing"
	StatusCompleted  BatchStatus = "completed"
	StatusFailed     BatchStatus = "failed"
)

// SentinelMatchPercent is the match value of the best match before any comparison.
const SentinelMatchPercent = "0"

// EvaluationRecord is the model's verdict for one resume. It is built by the
// response parser and never modified afterwards.
type EvaluationRecord struct {
	MatchPercent    string   `json:"JD Match"`
	MissingKeywords []string `json:"MissingKeywords"`
	ProfileSummary  string   `json:"Profile Summary"`
	Suggestions     string   `json:"Suggestions"`
}

// Candidate pairs a successfully parsed record with the resume it came from.
type Candidate struct {
	Filename string
	Record   EvaluationRecord
}

// BestMatch is the highest scoring candidate of a batch. Found is false for the
// zero-valued sentinel returned when there were no candidates.
type BestMatch struct {
	Filename string           `json:"filename"`
	Record   EvaluationRecord `json:"record"`
	Found    bool             `json:"found"`
}

// NoMatch returns the sentinel best match used before any comparison.
func NoMatch() BestMatch {
	return BestMatch{
		Record: EvaluationRecord{
			MatchPercent:    SentinelMatchPercent,
			MissingKeywords: []string{},
		},
	}
}

type ScreeningBatch struct {
	ID               uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobDescription   string      `gorm:"type:text" json:"job_description"`
	Model            string      `gorm:"type:text" json:"model"`
	Status           BatchStatus `gorm:"not null;default:'queued'" json:"status"`
	ResumeCount      int         `gorm:"not null;default:0" json:"resume_count"`
	SuccessCount     int         `gorm:"not null;default:0" json:"success_count"`
	BestFilename     *string     `gorm:"type:text" json:"best_filename,omitempty"`
	BestMatchPercent *string     `gorm:"type:text" json:"best_match_percent,omitempty"`
	ReportKey        *string     `gorm:"type:text" json:"-"`
	ErrorCode        *string     `gorm:"type:text" json:"error_code,omitempty"`
	ErrorMessage     *string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Results []ResumeResult `gorm:"foreignKey:BatchID" json:"results,omitempty"`
}

func (ScreeningBatch) TableName() string {
	return "screening_batches"
}
