// Package console holds the analyst-facing prompts and status output.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// ErrInvalidChoice is returned for an answer that is not one of the offered choices
var ErrInvalidChoice = errors.New("invalid choice")

// Prompter asks the analyst questions. Answers are returned raw and validated by the caller,
// so a scripted implementation can exercise the re-prompt paths.
type Prompter interface {
	// Choose offers numbered options and returns the answer, "1".."n" for a valid pick
	Choose(message string, options []string) (string, error)
	// Input asks for free text
	Input(message string) (string, error)
}

// SurveyPrompter implements Prompter on the terminal
type SurveyPrompter struct {
	opts []survey.AskOpt
}

// NewSurveyPrompter creates a terminal prompter
func NewSurveyPrompter(opts ...survey.AskOpt) *SurveyPrompter {
	return &SurveyPrompter{opts: opts}
}

// Choose shows a select list and returns the 1-based number of the chosen option
func (s *SurveyPrompter) Choose(message string, options []string) (string, error) {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = fmt.Sprintf("%d %s", i+1, o)
	}

	var idx int
	prompt := &survey.Select{
		Message:  message,
		Options:  labels,
		PageSize: len(labels),
	}
	if err := survey.AskOne(prompt, &idx, s.opts...); err != nil {
		return "", err
	}
	return strconv.Itoa(idx + 1), nil
}

// Input asks for a single line of text
func (s *SurveyPrompter) Input(message string) (string, error) {
	var answer string
	prompt := &survey.Input{Message: message}
	if err := survey.AskOne(prompt, &answer, append(s.opts, survey.WithValidator(survey.Required))...); err != nil {
		return "", err
	}
	return answer, nil
}

// Confirm asks a yes/no question
func (s *SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	answer := def
	prompt := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(prompt, &answer, s.opts...); err != nil {
		return false, err
	}
	return answer, nil
}

// ParseChoice validates a menu answer against n options and returns the 1-based choice
func ParseChoice(answer string, n int) (int, error) {
	choice, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || choice < 1 || choice > n {
		return 0, fmt.Errorf("%w: %q, expected a number between 1 and %d", ErrInvalidChoice, answer, n)
	}
	return choice, nil
}

// ParseIntInRange validates a number in [lo, hi)
func ParseIntInRange(answer string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || v < lo || v >= hi {
		return 0, fmt.Errorf("%w: input should be a number between %d and %d", ErrInvalidChoice, lo, hi-1)
	}
	return v, nil
}

// ParseYesNo accepts y or n
func ParseYesNo(answer string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y":
		return true, nil
	case "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: input should be y or n", ErrInvalidChoice)
	}
}

// Ask re-prompts until parse accepts the answer. Invalid answers are reported through
// onInvalid; prompter errors end the loop.
func Ask[T any](ask func() (string, error), parse func(string) (T, error), onInvalid func(error)) (T, error) {
	for {
		answer, err := ask()
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(answer)
		if err == nil {
			return v, nil
		}
		if onInvalid != nil {
			onInvalid(err)
		}
	}
}

// Menu asks until a valid numbered option is chosen
func Menu(p Prompter, out *Printer, message string, options []string) (int, error) {
	return Ask(
		func() (string, error) { return p.Choose(message, options) },
		func(s string) (int, error) { return ParseChoice(s, len(options)) },
		func(err error) { out.Warning("%v", err) },
	)
}

// YesNo asks until the answer is y or n
func YesNo(p Prompter, out *Printer, message string) (bool, error) {
	return Ask(
		func() (string, error) { return p.Input(message + " y/n") },
		ParseYesNo,
		func(err error) { out.Warning("%v", err) },
	)
}

// IntInRange asks until the answer is a number in [lo, hi)
func IntInRange(p Prompter, out *Printer, message string, lo, hi int) (int, error) {
	return Ask(
		func() (string, error) { return p.Input(message) },
		func(s string) (int, error) { return ParseIntInRange(s, lo, hi) },
		func(err error) { out.Warning("%v", err) },
	)
}
