// Package ui abstracts the blocking alerts, prompts and result panels the menu actions use.
package ui

import "context"

// Button is the answer to an alert.
type Button int

const (
	ButtonOK Button = iota
	ButtonYes
	ButtonNo
)

func (b Button) String() string {
	switch b {
	case ButtonYes:
		return "yes"
	case ButtonNo:
		return "no"
	default:
		return "ok"
	}
}

// ButtonSet selects the buttons an alert offers.
type ButtonSet int

const (
	OK ButtonSet = iota
	YesNo
)

type Interactor interface {
	// Alert blocks until the user picks one of the buttons.
	Alert(ctx context.Context, title, message string, buttons ButtonSet) (Button, error)
	// Prompt asks for one line of text. ok is false when the user cancels.
	Prompt(ctx context.Context, title, message string) (text string, ok bool, err error)
	// ShowPanel displays rendered HTML without waiting for the user.
	ShowPanel(ctx context.Context, title, html string) error
}

// Confirm shows a yes/no alert and reports whether the user chose yes.
func Confirm(ctx context.Context, in Interactor, title, message string) (bool, error) {
	b, err := in.Alert(ctx, title, message, YesNo)
	if err != nil {
		return false, err
	}
	return b == ButtonYes, nil
}
