package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
)

// InputPromptWithContext reads one line of user input, returning early when
// the context is canceled (Ctrl+C).
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		fmt.Print(lipgloss.BlueSky.Render("> "))

		userInput, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				errChan <- io.EOF
			} else {
				errChan <- fmt.Errorf("reading input: %w", err)
			}
			return
		}
		inputChan <- strings.TrimSpace(userInput)
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case err := <-errChan:
		return "", err
	case input := <-inputChan:
		return input, nil
	}
}

// ConfirmPrompt asks the user to accept or reject one proposed change.
func ConfirmPrompt(subject string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.Yellow.Render(fmt.Sprintf("Apply change to %s? [y/N]: ", subject)))

	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
}
