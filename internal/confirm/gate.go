// Package confirm guards destructive actions behind an explicit user
// confirmation.
//
// Subscriptions, accounts and databases require the user to type the exact
// display name. Containers only require choosing Yes. Every other answer,
// including cancelling the prompt, aborts without running the action.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imamik/cosmoclear/internal/resource"
)

// Choices offered for containers.
const (
	Yes = "Yes"
	No  = "No"
)

// ErrNotClearable is returned for placeholder nodes.
var ErrNotClearable = errors.New("node cannot be cleared")

// Prompter asks the user for input. ok is false when the user cancelled.
type Prompter interface {
	// PromptText asks for free text. expected is offered as a placeholder
	// hint and never filled in.
	PromptText(ctx context.Context, message, expected string) (input string, ok bool, err error)
	// PromptChoice asks the user to pick one of options.
	PromptChoice(ctx context.Context, message string, options []string) (choice string, ok bool, err error)
}

// Action is the guarded operation.
type Action func(ctx context.Context) error

// Gate runs actions only after a matching confirmation.
type Gate struct {
	prompter Prompter
	log      *slog.Logger
}

// NewGate creates a gate asking through p. A nil logger discards output.
func NewGate(p Prompter, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Gate{prompter: p, log: log}
}

// Question is the prompt shown for a node.
type Question struct {
	Message string
	// TypeToConfirm is set for subscriptions, accounts and databases, which
	// require Expected to be typed. Containers get a Yes/No choice.
	TypeToConfirm bool
	// Expected is the text that must be typed. It may be empty when the
	// resource has no display name.
	Expected string
}

// QuestionFor returns the prompt for clearing node.
func QuestionFor(node resource.Node) (Question, error) {
	if err := node.Validate(); err != nil {
		return Question{}, err
	}
	name := node.DisplayName()
	switch node.Kind {
	case resource.KindAccountGroup:
		return Question{
			Message:       fmt.Sprintf("Please type the subscription label to confirm clearing the subscription %s", name),
			TypeToConfirm: true,
			Expected:      name,
		}, nil
	case resource.KindDataAccount:
		return Question{
			Message:       fmt.Sprintf("Please type the account name to confirm clearing the account %s", name),
			TypeToConfirm: true,
			Expected:      name,
		}, nil
	case resource.KindDatabase:
		return Question{
			Message:       fmt.Sprintf("Please type the database name to confirm clearing the database %s", name),
			TypeToConfirm: true,
			Expected:      name,
		}, nil
	case resource.KindContainer:
		return Question{Message: fmt.Sprintf("Are you sure you want to clear the container %s?", name)}, nil
	case resource.KindNoResourcesFound, resource.KindInsufficientPermission:
		return Question{}, fmt.Errorf("%w: %s", ErrNotClearable, node.Kind)
	default:
		return Question{}, fmt.Errorf("unknown node kind %d", int(node.Kind))
	}
}

// Run asks for confirmation and runs action when it matches. It reports
// whether the action ran. Declining or cancelling returns (false, nil).
//
// Typed text must equal the display name exactly: no trimming, no case folding.
// Empty input never confirms, so a resource without a display name cannot be
// cleared through the gate.
func (g *Gate) Run(ctx context.Context, node resource.Node, action Action) (bool, error) {
	q, err := QuestionFor(node)
	if err != nil {
		return false, err
	}

	confirmed, err := g.ask(ctx, q)
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !confirmed {
		g.log.Info("clear aborted", "node", node.String())
		return false, nil
	}

	g.log.Debug("clear confirmed", "node", node.String())
	if err := action(ctx); err != nil {
		return true, err
	}
	return true, nil
}

func (g *Gate) ask(ctx context.Context, q Question) (bool, error) {
	if q.TypeToConfirm {
		input, ok, err := g.prompter.PromptText(ctx, q.Message, q.Expected)
		if err != nil || !ok {
			return false, err
		}
		return input != "" && input == q.Expected, nil
	}

	choice, ok, err := g.prompter.PromptChoice(ctx, q.Message, []string{Yes, No})
	if err != nil || !ok {
		return false, err
	}
	return choice == Yes, nil
}
