package services

import (
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildATSPrompt creates the resume screening prompt. Both texts are embedded
// verbatim.
func (pb *PromptBuilder) BuildATSPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`Act like a skilled and very experienced ATS (Application Tracking System)
with a deep understanding of the tech field, software engineering, data science, data analysis,
and big data engineering. Your task is to evaluate the resume against the given job description.
Consider that the job market is very competitive and provide the best possible assistance for
improving the resume. Assign the percentage match based on the job description and list the
missing keywords with high accuracy.

resume:
%s

description:
%s

Respond with exactly one JSON object and nothing else, using this structure:
{"JD Match":"<integer 0-100>%%","MissingKeywords":["<keyword>"],"Profile Summary":"<summary>","Suggestions":"<suggestions>"}`,
		resumeText, jobDescription)
}
