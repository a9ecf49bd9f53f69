package main

import (
	"errors"
	"os"
	"strings"

	"github.com/manifoldco/promptui"

	"alfredoptarigan/smart-ats/internal/services"
)

// promptFunc asks the user for a secret once.
type promptFunc func() (string, error)

func promptAPIKey() (string, error) {
	prompt := promptui.Prompt{
		Label: "Gemini API key",
		Mask:  '*',
	}
	return prompt.Run()
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// resolveAPIKey picks the credential from the flag, then the environment, then
// a single interactive prompt. It never prompts twice.
func resolveAPIKey(flagValue, envValue string, interactive bool, ask promptFunc) (string, error) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(envValue); key != "" {
		return key, nil
	}

	if interactive && ask != nil {
		key, err := ask()
		if err != nil && !errors.Is(err, promptui.ErrInterrupt) && !errors.Is(err, promptui.ErrEOF) {
			return "", err
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, nil
		}
	}

	return "", services.ErrCredentialMissing
}
