package confirm

import (
	"context"
	"slices"
)

// ScriptedPrompter answers every question with a fixed value, for
// unattended use. Text prompts receive Answer verbatim; choice prompts
// select Answer if it is one of the options and are declined otherwise.
type ScriptedPrompter struct {
	Answer string
}

// PromptText implements Prompter.
func (p ScriptedPrompter) PromptText(_ context.Context, _, _ string) (string, bool, error) {
	return p.Answer, true, nil
}

// PromptChoice implements Prompter.
func (p ScriptedPrompter) PromptChoice(_ context.Context, _ string, options []string) (string, bool, error) {
	if slices.Contains(options, p.Answer) {
		return p.Answer, true, nil
	}
	return "", false, nil
}
