package models

import "mime/multipart"

// EvaluateRequest is the parsed multipart form of POST /evaluate.
type EvaluateRequest struct {
	APIKey         string                  `validate:"omitempty,max=512"`
	JobDescription string                  `validate:"required,max=50000"`
	Resumes        []*multipart.FileHeader `validate:"required,min=1,dive,required"`
}

type EvaluateResponse struct {
	BatchID   string `json:"batch_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

// BatchResponse is a stored batch as served by GET /batches/:id. ReportURL is
// set once the report can be downloaded.
type BatchResponse struct {
	*ScreeningBatch
	ReportURL string `json:"report_url,omitempty"`
}
