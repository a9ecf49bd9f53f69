package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "smart-ats",
	Short:        "Match PDF resumes against a job description",
	Long:         "smart-ats scores each resume against a job description with Gemini and exports the best match as resume_evaluation_report.pdf.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
