package cli

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrInterrupted is returned when the user aborts an interactive prompt.
var ErrInterrupted = errors.New("interrupted")

type prompter interface {
	Text(label, def string, validate func(string) error) (string, error)
	Select(label string, items []string) (string, error)
}

type promptUI struct{}

func (promptUI) Text(label, def string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	v, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", ErrInterrupted
	}
	return strings.TrimSpace(v), err
}

func (promptUI) Select(label string, items []string) (string, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	_, v, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", ErrInterrupted
	}
	return v, err
}

// field is one value a calculator needs, bound to its flag variable.
type field struct {
	label    string
	value    *string
	validate func(string) error
}

// fill asks for every field that is still blank. Outside interactive mode
// it does nothing and leaves validation to the form layer.
func (a *app) fill(fields ...field) error {
	if !a.interactive {
		return nil
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) != "" {
			continue
		}
		v, err := a.prompt.Text(f.label, "", f.validate)
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

// choose asks for a value from items when current is blank and the
// command is interactive.
func (a *app) choose(current *string, label string, items []string) error {
	if !a.interactive || strings.TrimSpace(*current) != "" {
		return nil
	}
	v, err := a.prompt.Select(label, items)
	if err != nil {
		return err
	}
	*current = v
	return nil
}
