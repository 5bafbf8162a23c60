package confirm

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
)

// HuhPrompter asks through interactive huh forms. Escape or ctrl+c cancels.
type HuhPrompter struct {
	// Accessible switches huh to its line-based accessible mode.
	Accessible bool
}

// PromptText implements Prompter.
func (p HuhPrompter) PromptText(ctx context.Context, message, expected string) (string, bool, error) {
	var value string
	err := p.run(ctx, huh.NewInput().
		Title(message).
		Placeholder(expected).
		Value(&value))
	if err != nil {
		return cancelled(err)
	}
	return value, true, nil
}

// PromptChoice implements Prompter.
func (p HuhPrompter) PromptChoice(ctx context.Context, message string, options []string) (string, bool, error) {
	var value string
	err := p.run(ctx, huh.NewSelect[string]().
		Title(message).
		Options(huh.NewOptions(options...)...).
		Value(&value))
	if err != nil {
		return cancelled(err)
	}
	return value, true, nil
}

func (p HuhPrompter) run(ctx context.Context, field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.Accessible).
		RunWithContext(ctx)
}

func cancelled(err error) (string, bool, error) {
	if errors.Is(err, huh.ErrUserAborted) {
		return "", false, nil
	}
	return "", false, err
}
