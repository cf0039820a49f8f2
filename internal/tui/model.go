package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/smileynet/signup/internal/phone"
	"github.com/smileynet/signup/internal/registration"
	"github.com/smileynet/signup/internal/submit"
)

const (
	title         = "User Registration"
	buttonLabel   = "Register"
	busyLabel     = "Registering..."
	successText   = "Registration completed successfully!"
	phoneHintText = "format: (XX) XXXXX-XXXX"
)

var placeholders = map[registration.Field]string{
	registration.FieldName:                 "Enter your name",
	registration.FieldEmail:                "Enter your e-mail",
	registration.FieldPhone:                "(11) 98765-4321",
	registration.FieldPassword:             "Enter your password",
	registration.FieldPasswordConfirmation: "Confirm your password",
}

// SubmittedMsg reports a completed submission.
type SubmittedMsg struct {
	Receipt submit.Receipt
}

// SubmitFailedMsg reports a submission the sender could not complete.
type SubmitFailedMsg struct {
	Err error
}

// Model is the Bubble Tea model for the registration form.
// Focus index len(fields) is the submit button.
type Model struct {
	form    registration.Form
	fields  []registration.Field
	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	help    help.Model
	keys    formKeys

	sender submit.Sender
	ctx    context.Context
	logger *zap.Logger

	receipt  *submit.Receipt
	sendErr  error
	width    int
	quitting bool
}

// ModelOption configures optional Model settings.
type ModelOption func(*Model)

// WithSender sets the sender used on submit.
func WithSender(s submit.Sender) ModelOption {
	return func(m *Model) { m.sender = s }
}

// WithContext sets the context passed to the sender.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

// WithLogger sets the logger for form events.
func WithLogger(l *zap.Logger) ModelOption {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModel creates a Model with an empty form and focus on the first field.
// Without WithSender, submissions use a Simulated sender with its defaults.
func NewModel(opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	fields := registration.Fields()
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		inputs[i] = newInput(f)
	}

	m := Model{
		form:    registration.NewForm(),
		fields:  fields,
		inputs:  inputs,
		spinner: s,
		help:    help.New(),
		keys:    FormKeyMap(),
		ctx:     context.Background(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.sender == nil {
		m.sender = submit.NewSimulated(submit.WithLogger(m.logger))
	}
	m.inputs[0].Focus()
	return m
}

func newInput(f registration.Field) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholders[f]
	ti.Width = inputWidth
	if f.Secret() {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// Form returns the current form state.
func (m Model) Form() registration.Form { return m.form }

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SubmittedMsg:
		m.form = m.form.CompleteSubmit()
		m.receipt = &msg.Receipt
		m.sendErr = nil
		for i := range m.inputs {
			m.inputs[i].Reset()
		}
		m.logger.Info("registration acknowledged", zap.Stringer("id", msg.Receipt.ID))
		return m, m.setFocus(0)

	case SubmitFailedMsg:
		m.form = m.form.FailSubmit()
		m.sendErr = msg.Err
		m.logger.Warn("registration failed", zap.Error(msg.Err))
		return m, nil

	case spinner.TickMsg:
		// Let the tick chain end once nothing is in flight.
		if !m.form.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// handleKey routes navigation and submit keys; everything else goes to the
// focused input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus(m.focus - 1)
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Enter):
		if m.focus >= len(m.fields)-1 {
			return m.submit()
		}
		return m, m.setFocus(m.focus + 1)
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused input and stores its value.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	f := m.fields[m.focus]
	value := m.inputs[m.focus].Value()
	if value == m.form.Record.Get(f) {
		return m, cmd
	}
	m.form = m.form.Change(f, value)
	if stored := m.form.Record.Get(f); stored != value {
		m.inputs[m.focus].SetValue(stored)
		m.inputs[m.focus].CursorEnd()
	}
	return m, cmd
}

// setFocus moves focus to i, wrapping around the inputs and the button.
func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs) + 1
	m.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range m.inputs {
		if j == m.focus {
			cmd = m.inputs[j].Focus()
			continue
		}
		m.inputs[j].Blur()
	}
	return cmd
}

// submit validates the form and starts the sender. Ignored while in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	next, err := m.form.BeginSubmit()
	m.form = next
	if errors.Is(err, registration.ErrSubmitInFlight) {
		return m, nil
	}
	m.receipt = nil
	m.sendErr = nil
	if err != nil {
		failed := next.Errors.Fields()
		m.logger.Debug("registration invalid", zap.Strings("fields", fieldKeys(failed)))
		return m, m.setFocus(indexOf(m.fields, failed[0]))
	}

	m.logger.Debug("registration submitting")
	return m, tea.Batch(m.spinner.Tick, send(m.ctx, m.sender, next.Record))
}

// send wraps a single Sender call as a command resolved exactly once.
func send(ctx context.Context, s submit.Sender, r registration.Record) tea.Cmd {
	return func() tea.Msg {
		rc, err := s.Send(ctx, r)
		if err != nil {
			return SubmitFailedMsg{Err: err}
		}
		return SubmittedMsg{Receipt: rc}
	}
}

// View renders the form.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.form.Succeeded {
		b.WriteString(successBanner.Render(successText))
		b.WriteString("\n")
		if m.receipt != nil {
			b.WriteString(hintStyle.Render("reference " + m.receipt.ID.String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.sendErr != nil {
		b.WriteString(failureBanner.Render("Registration failed: " + m.sendErr.Error()))
		b.WriteString("\n\n")
	}

	for i, f := range m.fields {
		label := labelStyle
		if i == m.focus {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(f.Label()))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if msg := m.form.Errors.Message(f); msg != "" {
			b.WriteString(fieldErrorStyle.Render("  " + msg))
			b.WriteString("\n")
		} else if f == registration.FieldPhone && i == m.focus && !phone.Complete(m.form.Record.Phone) {
			b.WriteString(hintStyle.Render("  " + phoneHintText))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.buttonView())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) buttonView() string {
	label := buttonLabel
	if m.form.Submitting {
		label = m.spinner.View() + " " + busyLabel
	}
	return ButtonStyle(m.focus == len(m.inputs), m.form.Submitting).Render(label)
}

func indexOf(fields []registration.Field, f registration.Field) int {
	for i, x := range fields {
		if x == f {
			return i
		}
	}
	return 0
}

func fieldKeys(fields []registration.Field) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key()
	}
	return keys
}
