package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildATSPrompt(t *testing.T) {
	pb := NewPromptBuilder()

	resume := "Jane Doe\nGo, gRPC, 100% uptime {braces}"
	jd := "Senior backend engineer, Kubernetes required"
	prompt := pb.BuildATSPrompt(resume, jd)

	assert.Contains(t, prompt, "ATS")
	assert.Contains(t, prompt, "resume:\n"+resume)
	assert.Contains(t, prompt, "description:\n"+jd)

	for _, field := range []string{`"JD Match"`, `"MissingKeywords"`, `"Profile Summary"`, `"Suggestions"`} {
		assert.Contains(t, prompt, field)
	}

	assert.Less(t, strings.Index(prompt, resume), strings.Index(prompt, jd))
	assert.NotContains(t, prompt, "%!")
}

func TestBuildATSPrompt_Deterministic(t *testing.T) {
	pb := NewPromptBuilder()

	assert.Equal(t, pb.BuildATSPrompt("a", "b"), pb.BuildATSPrompt("a", "b"))
	assert.NotEqual(t, pb.BuildATSPrompt("a", "b"), pb.BuildATSPrompt("b", "a"))
}
