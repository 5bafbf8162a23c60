package confirm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cosmoclear/internal/resource"
)

type stubPrompter struct {
	text      string
	choice    string
	cancelled bool
	err       error

	asked    []string
	expected string
	options  []string
}

func (s *stubPrompter) PromptText(_ context.Context, message, expected string) (string, bool, error) {
	s.asked = append(s.asked, message)
	s.expected = expected
	return s.text, !s.cancelled, s.err
}

func (s *stubPrompter) PromptChoice(_ context.Context, message string, options []string) (string, bool, error) {
	s.asked = append(s.asked, message)
	s.options = options
	return s.choice, !s.cancelled, s.err
}

func database(name string) resource.Node {
	return resource.DatabaseNode(resource.Database{ID: "acc/dbs/" + name, DisplayName: name, AccountID: "acc"})
}

func container(name string) resource.Node {
	return resource.ContainerNode(resource.Container{ID: "acc/dbs/db/colls/" + name, DisplayName: name})
}

func TestGate_TypeToConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		typed string
		runs  bool
	}{
		{"exact match", "Prod DB", true},
		{"case differs", "prod db", false},
		{"trailing space", "Prod DB ", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &stubPrompter{text: tt.typed}
			ran := false

			ok, err := NewGate(p, nil).Run(context.Background(), database("Prod DB"), func(context.Context) error {
				ran = true
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.runs, ok)
			assert.Equal(t, tt.runs, ran)
			assert.Equal(t, "Prod DB", p.expected)
			assert.Equal(t, []string{"Please type the database name to confirm clearing the database Prod DB"}, p.asked)
		})
	}
}

func TestGate_Container(t *testing.T) {
	t.Parallel()

	for choice, runs := range map[string]bool{Yes: true, No: false, "": false} {
		p := &stubPrompter{choice: choice}
		ran := false
		ok, err := NewGate(p, nil).Run(context.Background(), container("events"), func(context.Context) error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, runs, ok, "choice %q", choice)
		assert.Equal(t, runs, ran, "choice %q", choice)
		assert.Equal(t, []string{Yes, No}, p.options)
		assert.Equal(t, []string{"Are you sure you want to clear the container events?"}, p.asked)
	}
}

func TestGate_CancelledPromptAborts(t *testing.T) {
	t.Parallel()

	for _, node := range []resource.Node{database("main"), container("events")} {
		p := &stubPrompter{text: "main", choice: Yes, cancelled: true}
		ok, err := NewGate(p, nil).Run(context.Background(), node, func(context.Context) error {
			t.Fatal("action must not run")
			return nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestGate_PromptErrorIsReturned(t *testing.T) {
	t.Parallel()
	boom := errors.New("tty closed")
	p := &stubPrompter{err: boom}

	ok, err := NewGate(p, nil).Run(context.Background(), database("main"), func(context.Context) error {
		t.Fatal("action must not run")
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestGate_ActionErrorIsReturned(t *testing.T) {
	t.Parallel()
	boom := errors.New("delete failed")
	p := &stubPrompter{choice: Yes}

	ok, err := NewGate(p, nil).Run(context.Background(), container("events"), func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, ok)
}

func TestGate_PlaceholderRejectedWithoutPrompt(t *testing.T) {
	t.Parallel()
	p := &stubPrompter{}

	_, err := NewGate(p, nil).Run(context.Background(), resource.InsufficientPermission(), func(context.Context) error {
		return nil
	})
	require.ErrorIs(t, err, ErrNotClearable)
	assert.Empty(t, p.asked)
}

func TestQuestionFor(t *testing.T) {
	t.Parallel()

	group := resource.GroupNode(resource.AccountGroup{ID: "s", DisplayName: "Prod"})
	account := resource.AccountNode(resource.DataAccount{ID: "a", DisplayName: "shop"})

	tests := []struct {
		node    resource.Node
		message string
		typed   bool
	}{
		{group, "Please type the subscription label to confirm clearing the subscription Prod", true},
		{account, "Please type the account name to confirm clearing the account shop", true},
		{database("main"), "Please type the database name to confirm clearing the database main", true},
		{container("events"), "Are you sure you want to clear the container events?", false},
	}

	for _, tt := range tests {
		q, err := QuestionFor(tt.node)
		require.NoError(t, err)
		assert.Equal(t, tt.message, q.Message)
		assert.Equal(t, tt.typed, q.TypeToConfirm)
	}
}

func TestGate_UnnamedDatabaseStillNeedsTypedName(t *testing.T) {
	t.Parallel()

	for _, typed := range []string{Yes, ""} {
		p := &stubPrompter{text: typed, choice: Yes}
		ran := false

		ok, err := NewGate(p, nil).Run(context.Background(), database(""), func(context.Context) error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.False(t, ok, "typed %q", typed)
		assert.False(t, ran)
		assert.Nil(t, p.options, "a database must never be offered a Yes/No choice")
		assert.Len(t, p.asked, 1)
	}
}

func TestGate_NodeWithoutPayloadIsRejected(t *testing.T) {
	t.Parallel()
	p := &stubPrompter{}

	require.NotPanics(t, func() {
		_, err := NewGate(p, nil).Run(context.Background(), resource.Node{Kind: resource.KindDatabase}, func(context.Context) error {
			t.Error("action must not run")
			return nil
		})
		require.Error(t, err)
	})
	assert.Empty(t, p.asked)

	_, err := QuestionFor(resource.Node{Kind: resource.KindAccountGroup})
	assert.Error(t, err)
}
