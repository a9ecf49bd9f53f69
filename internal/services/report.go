package services

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"alfredoptarigan/smart-ats/internal/models"
)

const (
	ReportFilename    = "resume_evaluation_report.pdf"
	ReportContentType = "application/pdf"
	ReportTitle       = "Resume Evaluation Report"
)

// EncodingPolicy decides what happens to text the report font cannot show.
// The core PDF fonts only cover Windows-1252.
type EncodingPolicy string

const (
	// EncodingSanitize replaces unrepresentable characters with '?'.
	EncodingSanitize EncodingPolicy = "sanitize"
	// EncodingStrict fails the render on the first unrepresentable character.
	EncodingStrict EncodingPolicy = "strict"
)

type ReportOptions struct {
	Encoding EncodingPolicy
	Compress bool
}

type ReportGenerator interface {
	Render(best models.BestMatch) ([]byte, error)
}

type reportGenerator struct {
	opts ReportOptions
}

func NewReportGenerator(opts ReportOptions) ReportGenerator {
	if opts.Encoding == "" {
		opts.Encoding = EncodingSanitize
	}
	return &reportGenerator{opts: opts}
}

// Render lays out the best match on a single A4 page: the title, the resume
// filename and one line per record field.
func (r *reportGenerator) Render(best models.BestMatch) ([]byte, error) {
	record := best.Record

	lines := []struct {
		label string
		value string
	}{
		{"JD Match", formatPercent(record.MatchPercent)},
		{"MissingKeywords", strings.Join(record.MissingKeywords, ", ")},
		{"Profile Summary", record.ProfileSummary},
		{"Suggestions", record.Suggestions},
	}

	title, err := r.encode(ReportTitle)
	if err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.opts.Compress)
	doc.SetTitle(ReportTitle, false)
	doc.SetCreator("smart-ats", false)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Arial", "", 12)
	if best.Filename != "" {
		resume, err := r.encode("Resume: " + best.Filename)
		if err != nil {
			return nil, err
		}
		doc.MultiCell(0, 7, resume, "", "L", false)
		doc.Ln(2)
	}

	for _, line := range lines {
		text, err := r.encode(fmt.Sprintf("%s: %s", line.label, line.value))
		if err != nil {
			return nil, err
		}
		doc.MultiCell(0, 7, text, "", "L", false)
	}

	if err := doc.Error(); err != nil {
		return nil, &RenderError{Message: "failed to lay out report", Cause: err}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, &RenderError{Message: "failed to write report", Cause: err}
	}

	return buf.Bytes(), nil
}

// encode converts UTF-8 text into the Windows-1252 bytes the core fonts expect.
func (r *reportGenerator) encode(text string) (string, error) {
	text = norm.NFC.String(text)

	out := make([]byte, 0, len(text))
	for i, rn := range text {
		switch rn {
		case '\r':
			continue
		case '\t':
			out = append(out, ' ')
			continue
		case '\n':
			out = append(out, '\n')
			continue
		}

		if rn == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size <= 1 {
				if r.opts.Encoding == EncodingStrict {
					return "", &RenderError{Message: fmt.Sprintf("invalid UTF-8 at byte %d", i)}
				}
				out = append(out, '?')
				continue
			}
		}

		b, ok := charmap.Windows1252.EncodeRune(rn)
		if !ok || unicode.IsControl(rn) {
			if r.opts.Encoding == EncodingStrict {
				return "", &RenderError{Message: fmt.Sprintf("character %U cannot be encoded in Windows-1252", rn)}
			}
			out = append(out, '?')
			continue
		}
		out = append(out, b)
	}

	return string(out), nil
}

func formatPercent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasSuffix(value, "%") {
		return value
	}
	return value + "%"
}
