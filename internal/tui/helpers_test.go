package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/smileynet/signup/internal/registration"
	"github.com/smileynet/signup/internal/submit"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// instantSender acknowledges every record immediately and remembers it.
type instantSender struct {
	got []registration.Record
}

func (s *instantSender) Send(_ context.Context, r registration.Record) (submit.Receipt, error) {
	s.got = append(s.got, r)
	return submit.Receipt{ID: uuid.New(), Name: r.Name, Email: r.Email}, nil
}

type failingSender struct{ err error }

func (f failingSender) Send(context.Context, registration.Record) (submit.Receipt, error) {
	return submit.Receipt{}, f.err
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// typeText sends s to the model one key at a time.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = update(t, m, keyRune(r))
	}
	return m
}

// fillValid types a valid registration, ending with focus on the last field.
func fillValid(t *testing.T, m Model) Model {
	t.Helper()
	values := []string{"Ana Souza", "ana@example.com", "11987654321", "s3cret!", "s3cret!"}
	for i, v := range values {
		m = typeText(t, m, v)
		if i < len(values)-1 {
			m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
		}
	}
	return m
}
