package console

import (
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by a ScriptedPrompter with no answers left
var ErrScriptExhausted = errors.New("no scripted answers left")

// ScriptedPrompter replays canned answers. It backs unattended runs and tests.
type ScriptedPrompter struct {
	mu       sync.Mutex
	answers  []string
	Messages []string
}

// NewScriptedPrompter creates a prompter that answers in order
func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

func (s *ScriptedPrompter) next(message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Messages = append(s.Messages, message)
	if len(s.answers) == 0 {
		return "", ErrScriptExhausted
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

// Choose returns the next answer
func (s *ScriptedPrompter) Choose(message string, _ []string) (string, error) {
	return s.next(message)
}

// Input returns the next answer
func (s *ScriptedPrompter) Input(message string) (string, error) {
	return s.next(message)
}

// Remaining reports how many answers are left
func (s *ScriptedPrompter) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
