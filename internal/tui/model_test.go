package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/smileynet/signup/internal/registration"
)

func TestNewModel_Initial(t *testing.T) {
	m := NewModel(WithSender(&instantSender{}))

	if len(m.inputs) != 5 {
		t.Fatalf("inputs = %d, want 5", len(m.inputs))
	}
	if m.focus != 0 {
		t.Errorf("focus = %d, want 0", m.focus)
	}
	if !m.inputs[0].Focused() {
		t.Error("first input should be focused")
	}
	if !m.Form().Record.Empty() {
		t.Errorf("record = %+v, want empty", m.Form().Record)
	}
}

func TestNewModel_PasswordInputsAreMasked(t *testing.T) {
	m := NewModel()
	for i, f := range m.fields {
		if f.Secret() && m.inputs[i].EchoMode == 0 {
			t.Errorf("%s input echoes plain text", f)
		}
	}
}

func TestModel_Init_ReturnsBlinkCmd(t *testing.T) {
	if NewModel().Init() == nil {
		t.Fatal("Init() should return a non-nil Cmd for the cursor blink")
	}
}

func TestModel_TypingStoresValue(t *testing.T) {
	m := typeText(t, NewModel(), "Ana")

	if got := m.Form().Record.Name; got != "Ana" {
		t.Errorf("name = %q, want %q", got, "Ana")
	}
}

func TestModel_PhoneIsMaskedWhileTyping(t *testing.T) {
	// Given: focus on the phone field
	m := NewModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	// When: raw digits and a stray letter are typed
	m = typeText(t, m, "11a987654321")

	// Then: both the record and the input hold the masked value
	want := "(11) 98765-4321"
	if got := m.Form().Record.Phone; got != want {
		t.Errorf("record phone = %q, want %q", got, want)
	}
	if got := m.inputs[2].Value(); got != want {
		t.Errorf("input phone = %q, want %q", got, want)
	}
}

func TestModel_PhoneExtraDigitsIgnored(t *testing.T) {
	m := NewModel()
	m.setFocus(2)

	m = typeText(t, m, "119876543210000")

	if got := m.Form().Record.Phone; got != "(11) 98765-4321" {
		t.Errorf("phone = %q, want truncated mask", got)
	}
}

func TestModel_FocusWraps(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want int
	}{
		{"tab moves forward", []tea.KeyMsg{{Type: tea.KeyTab}}, 1},
		{"down moves forward", []tea.KeyMsg{{Type: tea.KeyDown}}, 1},
		{"shift+tab from first reaches button", []tea.KeyMsg{{Type: tea.KeyShiftTab}}, 5},
		{"up from first reaches button", []tea.KeyMsg{{Type: tea.KeyUp}}, 5},
		{"six tabs wrap to first", []tea.KeyMsg{
			{Type: tea.KeyTab}, {Type: tea.KeyTab}, {Type: tea.KeyTab},
			{Type: tea.KeyTab}, {Type: tea.KeyTab}, {Type: tea.KeyTab},
		}, 0},
		{"enter moves to next field", []tea.KeyMsg{{Type: tea.KeyEnter}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel()
			for _, k := range tt.keys {
				m, _ = update(t, m, k)
			}
			if m.focus != tt.want {
				t.Errorf("focus = %d, want %d", m.focus, tt.want)
			}
			for i := range m.inputs {
				if m.inputs[i].Focused() != (i == tt.want) {
					t.Errorf("inputs[%d].Focused() = %v", i, m.inputs[i].Focused())
				}
			}
		})
	}
}

func TestModel_SubmitEmptyShowsAllErrors(t *testing.T) {
	// Given: an empty form with focus on the button
	sender := &instantSender{}
	m := NewModel(WithSender(sender))
	m.setFocus(5)

	// When: enter is pressed on the button
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// Then: every field shows its required message and focus jumps to the first
	if len(m.Form().Errors) != 5 {
		t.Fatalf("errors = %d, want 5", len(m.Form().Errors))
	}
	if m.Form().Submitting {
		t.Error("invalid form should not be submitting")
	}
	if m.focus != 0 {
		t.Errorf("focus = %d, want 0", m.focus)
	}
	view := m.View()
	for _, want := range []string{"Name is required", "E-mail is required", "Phone is required", "Password is required", "Password confirmation is required"} {
		if !containsPlainText(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if len(sender.got) != 0 {
		t.Error("invalid form should not reach the sender")
	}
}

func TestModel_SubmitFocusesFirstInvalidField(t *testing.T) {
	m := NewModel(WithSender(&instantSender{}))
	m = fillValid(t, m)
	m.inputs[1].SetValue("")
	m.form = m.form.Change(registration.FieldEmail, "not-an-email")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if m.focus != 1 {
		t.Errorf("focus = %d, want 1 (email)", m.focus)
	}
	if !containsPlainText(m.View(), "Enter a valid e-mail") {
		t.Error("view should show the email format message")
	}
}

func TestModel_SubmitValidRunsSenderAndResets(t *testing.T) {
	// Given: a fully valid form
	sender := &instantSender{}
	m := fillValid(t, NewModel(WithSender(sender)))

	// When: enter is pressed on the last field
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// Then: the form is in flight and the button shows progress
	if !m.Form().Submitting {
		t.Fatal("form should be submitting")
	}
	if !containsPlainText(m.View(), busyLabel) {
		t.Error("button should show the busy label")
	}

	// When: the send command resolves
	var done tea.Msg
	for _, msg := range execBatch(t, cmd) {
		if _, ok := msg.(SubmittedMsg); ok {
			done = msg
		}
	}
	if done == nil {
		t.Fatal("submit command did not produce SubmittedMsg")
	}
	m, _ = update(t, m, done)

	// Then: success is shown, every input is empty, and the sender saw the masked phone
	if !m.Form().Succeeded || !m.Form().Record.Empty() {
		t.Errorf("form = %+v, want succeeded and empty", m.Form())
	}
	for i := range m.inputs {
		if m.inputs[i].Value() != "" {
			t.Errorf("inputs[%d] = %q, want empty", i, m.inputs[i].Value())
		}
	}
	if !containsPlainText(m.View(), successText) {
		t.Error("view should show the success banner")
	}
	if len(sender.got) != 1 || sender.got[0].Phone != "(11) 98765-4321" {
		t.Errorf("sender got %+v", sender.got)
	}
	if m.focus != 0 {
		t.Errorf("focus = %d, want 0 after reset", m.focus)
	}
}

func TestModel_SubmitIgnoredWhileInFlight(t *testing.T) {
	m := fillValid(t, NewModel(WithSender(&instantSender{})))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("first submit should start the sender")
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Error("second submit while in flight should be ignored")
	}
	if !m.Form().Submitting {
		t.Error("form should still be submitting")
	}
}

func TestModel_SubmitFailedKeepsRecord(t *testing.T) {
	m := fillValid(t, NewModel(WithSender(failingSender{err: errors.New("offline")})))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	var failed tea.Msg
	for _, msg := range execBatch(t, cmd) {
		if _, ok := msg.(SubmitFailedMsg); ok {
			failed = msg
		}
	}
	if failed == nil {
		t.Fatal("submit command did not produce SubmitFailedMsg")
	}
	m, _ = update(t, m, failed)

	if m.Form().Submitting {
		t.Error("failed submission should not stay in flight")
	}
	if m.Form().Record.Name != "Ana Souza" {
		t.Errorf("record = %+v, want kept", m.Form().Record)
	}
	if !containsPlainText(m.View(), "Registration failed: offline") {
		t.Error("view should show the failure")
	}
}

func TestModel_SpinnerTickDroppedWhenIdle(t *testing.T) {
	m := NewModel()
	_, cmd := update(t, m, spinner.TickMsg{})
	if cmd != nil {
		t.Error("idle model should not keep the spinner ticking")
	}
}

func TestModel_PhoneHintWhileIncomplete(t *testing.T) {
	m := NewModel()
	m.setFocus(2)
	m = typeText(t, m, "119")

	if !containsPlainText(m.View(), phoneHintText) {
		t.Error("focused incomplete phone should show the format hint")
	}

	m = typeText(t, m, "87654321")
	if containsPlainText(m.View(), phoneHintText) {
		t.Error("complete phone should hide the format hint")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		t.Run(k.String(), func(t *testing.T) {
			m, cmd := update(t, NewModel(), k)
			if cmd == nil {
				t.Fatal("quit key should return a command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("command produced %T, want tea.QuitMsg", cmd())
			}
			if m.View() != "" {
				t.Error("view should be empty after quitting")
			}
		})
	}
}

func TestModel_QIsTyped(t *testing.T) {
	m, cmd := update(t, NewModel(), keyRune('q'))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q should be text, not quit")
		}
	}
	if m.Form().Record.Name != "q" {
		t.Errorf("name = %q, want %q", m.Form().Record.Name, "q")
	}
}

func TestModel_HelpBarShowsBindings(t *testing.T) {
	m, _ := update(t, NewModel(), tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	for _, want := range []string{"next field", "register", "quit"} {
		if !containsPlainText(view, want) {
			t.Errorf("help bar missing %q", want)
		}
	}
}

// TestModel_Teatest_FullRegistration drives a whole registration through teatest.
func TestModel_Teatest_FullRegistration(t *testing.T) {
	sender := &instantSender{}
	tm := teatest.NewTestModel(t, NewModel(WithSender(sender)), teatest.WithInitialTermSize(80, 40))

	values := []string{"Ana Souza", "ana@example.com", "11987654321", "s3cret!", "s3cret!"}
	for i, v := range values {
		tm.Type(v)
		if i < len(values)-1 {
			tm.Send(tea.KeyMsg{Type: tea.KeyTab})
		}
	}
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte(successText))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if !final.Form().Succeeded {
		t.Error("final form should be marked succeeded")
	}
	if !final.Form().Record.Empty() {
		t.Errorf("final record = %+v, want empty", final.Form().Record)
	}
	if len(sender.got) != 1 {
		t.Fatalf("sender calls = %d, want 1", len(sender.got))
	}
	if got := sender.got[0]; got.Phone != "(11) 98765-4321" || got.Email != "ana@example.com" {
		t.Errorf("sent record = %+v", got)
	}
}

func TestModel_ViewTitle(t *testing.T) {
	if !strings.Contains(stripANSI(NewModel().View()), title) {
		t.Error("view should show the title")
	}
}
