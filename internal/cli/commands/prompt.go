package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var errNonInteractive = errors.New("not a terminal")

// isInteractive reports whether stdin is a terminal (not piped)
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readPassword prompts for a password without echoing it
var readPassword = func(label string) (string, error) {
	if !isInteractive() {
		return "", errNonInteractive
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// promptLine asks for a single non-empty line of input
var promptLine = func(label string) (string, error) {
	if !isInteractive() {
		return "", errNonInteractive
	}
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("%s is required", strings.ToLower(label))
			}
			return nil
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(value), nil
}
