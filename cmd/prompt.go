package cmd

import (
	"github.com/charmbracelet/huh"
)

// filterThreshold: enable type-to-filter only when there are more than this many options.
const filterThreshold = 5

// SelectOption represents a single option in a select prompt.
type SelectOption[T any] struct {
	Label string
	Value T
}

// runForm runs one page per group with help hints visible at the bottom.
func runForm(groups ...*huh.Group) error {
	return huh.NewForm(groups...).WithShowHelp(true).Run()
}

// textField binds a text input to value; the current value is shown
// prefilled and editable.
func textField(title, description string, value *string, validate func(string) error) *huh.Input {
	inp := huh.NewInput().
		Title(title).
		Value(value)
	if description != "" {
		inp = inp.Description(description)
	}
	if validate != nil {
		inp = inp.Validate(validate)
	}
	return inp
}

// secretField is a text input with hidden characters.
func secretField(title, description string, value *string) *huh.Input {
	inp := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(value)
	if description != "" {
		inp = inp.Description(description)
	}
	return inp
}

func selectField[T comparable](title string, options []SelectOption[T], value *T) *huh.Select[T] {
	huhOpts := make([]huh.Option[T], len(options))
	for i, opt := range options {
		huhOpts[i] = huh.NewOption(opt.Label, opt.Value)
	}
	sel := huh.NewSelect[T]().
		Title(title).
		Options(huhOpts...).
		Value(value)
	if len(options) > filterThreshold {
		sel = sel.Filtering(true)
	}
	return sel
}

func confirmField(title string, value *bool) *huh.Confirm {
	return huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(value)
}

// promptPassword asks for one secret outside a larger form.
func promptPassword(title, description string) (string, error) {
	var value string
	if err := runForm(huh.NewGroup(secretField(title, description, &value))); err != nil {
		return "", err
	}
	return value, nil
}

// promptConfirm asks a yes/no question. Returns true for yes.
func promptConfirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	if err := runForm(huh.NewGroup(confirmField(title, &value))); err != nil {
		return false, err
	}
	return value, nil
}
