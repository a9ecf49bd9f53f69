package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"alfredoptarigan/smart-ats/internal/models"
)

// uploadLimits bounds the resumes accepted by one request.
type uploadLimits struct {
	maxFileSize int64
	maxResumes  int
}

// uploadError is a client error found while reading the multipart upload.
type uploadError struct {
	code    string
	message string
}

func (e *uploadError) Error() string {
	return e.message
}

func (l uploadLimits) check(files []*multipart.FileHeader) error {
	if l.maxResumes > 0 && len(files) > l.maxResumes {
		return &uploadError{
			code:    "too_many_resumes",
			message: fmt.Sprintf("Too many resumes. Max: %d", l.maxResumes),
		}
	}

	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".pdf" {
			return &uploadError{
				code:    "invalid_file_type",
				message: fmt.Sprintf("%s: only PDF files are accepted", file.Filename),
			}
		}

		if l.maxFileSize > 0 && file.Size > l.maxFileSize {
			return &uploadError{
				code:    "file_too_large",
				message: fmt.Sprintf("%s: file too large. Max size: %d bytes", file.Filename, l.maxFileSize),
			}
		}
	}

	return nil
}

// readResumes loads every uploaded file into memory in upload order.
func readResumes(files []*multipart.FileHeader) ([]models.ResumeSubmission, error) {
	resumes := make([]models.ResumeSubmission, 0, len(files))

	for _, file := range files {
		data, err := readFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Filename, err)
		}

		resumes = append(resumes, models.ResumeSubmission{
			Filename: filepath.Base(file.Filename),
			Data:     data,
		})
	}

	return resumes, nil
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return io.ReadAll(src)
}
