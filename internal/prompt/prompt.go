// Package prompt asks the user to confirm destructive actions.
package prompt

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/bashhack/gitcheckpoint/internal/logger"
)

// UserInteractor defines an interface for interacting with the user
type UserInteractor interface {
	// PromptYesNo asks the user a yes/no question and returns their response
	PromptYesNo(question string) bool
}

// DefaultInteractor is the standard implementation of UserInteractor
// that reads from stdin and writes the question through the logger
type DefaultInteractor struct {
	Reader io.Reader
	Logger logger.Logger
}

// NewDefaultInteractor creates a new DefaultInteractor
func NewDefaultInteractor(logger logger.Logger) *DefaultInteractor {
	return &DefaultInteractor{
		Reader: os.Stdin,
		Logger: logger,
	}
}

// PromptYesNo asks the user a yes/no question. Anything but an answer
// starting with "y" (including a read error) is a no.
func (i *DefaultInteractor) PromptYesNo(question string) bool {
	i.Logger.StatusMessage("%s (y/n): ", question)

	reader := bufio.NewReader(i.Reader)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	answer = strings.TrimSpace(answer)
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// NonInteractiveInteractor answers every question with a fixed value
type NonInteractiveInteractor struct {
	Answer bool
}

// NewNonInteractiveInteractor creates an interactor that always declines
func NewNonInteractiveInteractor() *NonInteractiveInteractor {
	return &NonInteractiveInteractor{}
}

// NewAssumeYesInteractor creates an interactor that always accepts
func NewAssumeYesInteractor() *NonInteractiveInteractor {
	return &NonInteractiveInteractor{Answer: true}
}

// PromptYesNo returns the fixed answer without prompting
func (i *NonInteractiveInteractor) PromptYesNo(string) bool {
	return i.Answer
}
