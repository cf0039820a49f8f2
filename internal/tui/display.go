package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/smileynet/signup/internal/registration"
	"github.com/smileynet/signup/internal/submit"
)

// Display runs the registration form until the user is done with it.
type Display interface {
	Run(ctx context.Context) error
}

// DisplayOptions configures display creation.
type DisplayOptions struct {
	Writer     io.Writer     // Output destination (default: os.Stdout).
	Reader     io.Reader     // Input source (default: os.Stdin).
	ForcePlain bool          // Force line prompts even if TTY.
	Sender     submit.Sender // Delivers valid records (default: simulated).
	Logger     *zap.Logger   // Form event logger (default: no-op).
}

// NewDisplay returns a TUI display when the writer is a TTY, or a plain
// line-prompt display otherwise. ForcePlain overrides TTY detection.
func NewDisplay(opts DisplayOptions) Display {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Reader == nil {
		opts.Reader = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sender == nil {
		opts.Sender = submit.NewSimulated(submit.WithLogger(opts.Logger))
	}

	plain := &PlainDisplay{r: opts.Reader, w: opts.Writer, sender: opts.Sender}
	if opts.ForcePlain || !isTTY(opts.Writer) {
		return plain
	}
	return &TUIDisplay{r: opts.Reader, w: opts.Writer, sender: opts.Sender, logger: opts.Logger, fallback: plain}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PlainDisplay prompts for one field per line. After a failed validation it
// prints the errors and asks again for the failing fields only, plus the
// confirmation whenever the password is asked again.
type PlainDisplay struct {
	r      io.Reader
	w      io.Writer
	sender submit.Sender
}

// Run prompts until one registration succeeds, input ends, or ctx is done.
// Cancelling ctx ends a prompt that is still waiting for input.
func (d *PlainDisplay) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines, readErr := readLines(ctx, d.r)
	ctrl := submit.NewController(d.sender)
	fm := registration.NewForm()
	pending := registration.Fields()

	_, _ = fmt.Fprintf(d.w, "%s\n\n", title)
	for {
		for _, f := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(d.w, "%s: ", f.Label())

			var typed string
			select {
			case <-ctx.Done():
				_, _ = fmt.Fprintln(d.w)
				return ctx.Err()
			case text, ok := <-lines:
				if !ok {
					_, _ = fmt.Fprintln(d.w)
					if err := ctx.Err(); err != nil {
						return err
					}
					if err := readErr(); err != nil {
						return fmt.Errorf("tui: reading input: %w", err)
					}
					return fmt.Errorf("tui: input ended before registration completed: %w", io.ErrUnexpectedEOF)
				}
				typed = text
			}

			fm = fm.Change(f, typed)
			if stored := fm.Record.Get(f); stored != typed {
				_, _ = fmt.Fprintf(d.w, "  %s\n", stored)
			}
		}

		if registration.Validate(fm.Record).Valid() {
			_, _ = fmt.Fprintln(d.w, busyLabel)
		}
		next, rc, err := ctrl.Submit(ctx, fm)
		fm = next

		var ve *registration.ValidationError
		if errors.As(err, &ve) {
			_, _ = fmt.Fprintln(d.w, "\nPlease fix the following:")
			for _, f := range ve.Errors.Fields() {
				_, _ = fmt.Fprintf(d.w, "  %s: %s\n", f.Label(), ve.Errors.Message(f))
			}
			_, _ = fmt.Fprintln(d.w)
			pending = reask(ve.Errors)
			continue
		}
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(d.w, "%s (reference %s)\n", successText, rc.ID)
		return nil
	}
}

// readLines scans r on its own goroutine. The channel closes at end of input
// or once ctx is done. The returned func reports the read error and is only
// valid after the close. A read already blocked when ctx ends is abandoned.
func readLines(ctx context.Context, r io.Reader) (<-chan string, func() error) {
	lines := make(chan string)
	var err error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err = scanner.Err()
	}()
	return lines, func() error { return err }
}

// reask returns the fields to prompt for again. A new password always needs
// a new confirmation.
func reask(errs registration.ErrorMap) []registration.Field {
	fields := errs.Fields()
	_, pw := errs[registration.FieldPassword]
	_, confirm := errs[registration.FieldPasswordConfirmation]
	if pw && !confirm {
		fields = append(fields, registration.FieldPasswordConfirmation)
	}
	return fields
}

// TUIDisplay runs the form as a Bubble Tea program.
// Falls back to PlainDisplay if the program fails to start.
type TUIDisplay struct {
	r        io.Reader
	w        io.Writer
	sender   submit.Sender
	logger   *zap.Logger
	fallback Display
}

// Run starts the program and blocks until the user quits or ctx is done.
func (d *TUIDisplay) Run(ctx context.Context) error {
	model := NewModel(
		WithSender(d.sender),
		WithContext(ctx),
		WithLogger(d.logger),
	)
	p := tea.NewProgram(model,
		tea.WithInput(d.r),
		tea.WithOutput(d.w),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	d.logger.Warn("terminal form failed, falling back to prompts", zap.Error(err))
	return d.fallback.Run(ctx)
}
