package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/smileynet/signup/internal/config"
	"github.com/smileynet/signup/internal/logging"
	"github.com/smileynet/signup/internal/phone"
	"github.com/smileynet/signup/internal/registration"
	"github.com/smileynet/signup/internal/submit"
	"github.com/smileynet/signup/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for signup.
type CLI struct {
	Version     kong.VersionFlag `help:"Show version." short:"V"`
	Form        FormCmd          `cmd:"" default:"withargs" help:"Open the registration form."`
	Validate    ValidateCmd      `cmd:"" help:"Validate a registration given as flags."`
	FormatPhone FormatPhoneCmd   `cmd:"" name:"format-phone" help:"Print the phone mask for each input."`
}

// FormCmd opens the interactive registration form.
type FormCmd struct {
	NoTUI bool `help:"Force line prompts even if stdout is a TTY." default:"false"`
}

// ValidateCmd runs the validator over a record built from flags.
type ValidateCmd struct {
	Name     string `help:"Full name."`
	Email    string `help:"E-mail address."`
	Phone    string `help:"Phone number, digits or masked."`
	Password string `help:"Password."`
	Confirm  string `help:"Password confirmation."`
	RawPhone bool   `help:"Validate the phone exactly as given instead of masking it first." default:"false"`
	JSON     bool   `name:"json" help:"Print field errors as a JSON object." default:"false"`
}

// FormatPhoneCmd prints the masked form of each argument.
type FormatPhoneCmd struct {
	Inputs []string `arg:"" name:"input" help:"Raw phone input."`
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/signup/config.yaml"),
		".signup/config.yaml",
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the form command.
func (f *FormCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return f.run(ctx, cfg, os.Stdin, os.Stdout)
}

func (f *FormCmd) run(ctx context.Context, cfg *config.Config, r io.Reader, w io.Writer) error {
	if f.NoTUI {
		cfg.Display.Plain = true
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sender := submit.NewSimulated(
		submit.WithDelay(cfg.Submit.Delay),
		submit.WithLogger(logger),
	)
	display := tui.NewDisplay(tui.DisplayOptions{
		Writer:     w,
		Reader:     r,
		ForcePlain: cfg.Display.Plain,
		Sender:     sender,
		Logger:     logger,
	})

	logger.Info("form opened",
		zap.Bool("plain", cfg.Display.Plain),
		zap.Duration("delay", cfg.Submit.Delay),
	)
	if err := display.Run(ctx); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	return nil
}

// Run executes the validate command.
func (v *ValidateCmd) Run() error {
	return v.run(os.Stdout)
}

// record builds the record to validate, masking the phone unless RawPhone.
func (v *ValidateCmd) record() registration.Record {
	p := v.Phone
	if !v.RawPhone {
		p = phone.Format(p)
	}
	return registration.Record{
		Name:                 v.Name,
		Email:                v.Email,
		Phone:                p,
		Password:             v.Password,
		PasswordConfirmation: v.Confirm,
	}
}

func (v *ValidateCmd) run(w io.Writer) error {
	err := registration.ValidateErr(v.record())

	var ve *registration.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return fmt.Errorf("validate: %w", err)
	}

	if v.JSON {
		msgs := map[string]string{}
		if ve != nil {
			msgs = ve.Errors.Messages()
		}
		data, jerr := json.MarshalIndent(msgs, "", "  ")
		if jerr != nil {
			return fmt.Errorf("validate: encoding result: %w", jerr)
		}
		_, _ = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	if ve == nil {
		_, _ = fmt.Fprintln(w, "valid")
		return nil
	}
	for _, f := range ve.Errors.Fields() {
		_, _ = fmt.Fprintf(w, "%s: %s\n", f.Key(), ve.Errors.Message(f))
	}
	return err
}

// Run executes the format-phone command.
func (p *FormatPhoneCmd) Run() error {
	return p.run(os.Stdout)
}

func (p *FormatPhoneCmd) run(w io.Writer) error {
	for _, in := range p.Inputs {
		_, _ = fmt.Fprintln(w, phone.Format(in))
	}
	return nil
}

// Exit codes.
const (
	exitSuccess = 0
	exitInvalid = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, registration.ErrInvalid) {
		return exitInvalid
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("signup"),
		kong.Description("Terminal user registration form."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		// Field errors were already printed by the validate command.
		if exitCode(err) != exitInvalid {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}
