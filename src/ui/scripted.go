package ui

import (
	"context"
	"errors"
	"sync"

	"github.com/username/dolarhistorico/src/security/validation"
)

// ErrNoScriptedAnswer is returned when a Scripted interactor runs out of queued answers.
var ErrNoScriptedAnswer = errors.New("no scripted answer left")

// AlertRecord is one alert shown through a Scripted interactor.
type AlertRecord struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Buttons ButtonSet `json:"-"`
	Answer  string    `json:"answer"`
}

// PanelRecord is one panel shown through a Scripted interactor. HTML is already sanitized.
type PanelRecord struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Input is one queued prompt answer. Cancel simulates the user dismissing the prompt.
type Input struct {
	Text   string
	Cancel bool
}

// Scripted answers from queues and records everything it is asked to show.
// The HTTP handlers and the tests drive the menu actions through it.
type Scripted struct {
	mu      sync.Mutex
	answers []Button
	inputs  []Input
	alerts  []AlertRecord
	panels  []PanelRecord
}

func NewScripted() *Scripted {
	return &Scripted{}
}

// Answer queues buttons for upcoming yes/no alerts.
func (s *Scripted) Answer(buttons ...Button) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, buttons...)
	return s
}

// Type queues text for upcoming prompts.
func (s *Scripted) Type(texts ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range texts {
		s.inputs = append(s.inputs, Input{Text: t})
	}
	return s
}

// CancelPrompt queues a cancelled prompt.
func (s *Scripted) CancelPrompt() *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, Input{Cancel: true})
	return s
}

func (s *Scripted) Alert(ctx context.Context, title, message string, buttons ButtonSet) (Button, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer := ButtonOK
	if buttons == YesNo {
		if len(s.answers) == 0 {
			s.alerts = append(s.alerts, AlertRecord{Title: title, Message: message, Buttons: buttons, Answer: ButtonNo.String()})
			return ButtonNo, ErrNoScriptedAnswer
		}
		answer, s.answers = s.answers[0], s.answers[1:]
	}
	s.alerts = append(s.alerts, AlertRecord{Title: title, Message: message, Buttons: buttons, Answer: answer.String()})
	return answer, nil
}

func (s *Scripted) Prompt(ctx context.Context, title, message string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return "", false, ErrNoScriptedAnswer
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	if in.Cancel {
		return "", false, nil
	}
	return in.Text, true, nil
}

func (s *Scripted) ShowPanel(ctx context.Context, title, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = append(s.panels, PanelRecord{Title: title, HTML: validation.SanitizeHTML(html)})
	return nil
}

// Alerts returns the alerts shown so far.
func (s *Scripted) Alerts() []AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AlertRecord(nil), s.alerts...)
}

// Panels returns the panels shown so far.
func (s *Scripted) Panels() []PanelRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PanelRecord(nil), s.panels...)
}
