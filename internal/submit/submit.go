// Package submit delivers a validated registration. There is no backend: the
// Simulated sender waits a fixed delay standing in for network latency, logs
// what would have been sent, and acknowledges with a receipt.
package submit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smileynet/signup/internal/registration"
)

// DefaultDelay is the simulated latency used when no delay is configured.
const DefaultDelay = time.Second

// Receipt acknowledges a completed submission.
type Receipt struct {
	ID          uuid.UUID
	Name        string
	Email       string
	SubmittedAt time.Time
}

// Sender delivers a record. Implementations resolve each call exactly once.
type Sender interface {
	Send(ctx context.Context, r registration.Record) (Receipt, error)
}

// Simulated is a Sender that only waits and logs.
type Simulated struct {
	delay  time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Simulated sender.
type Option func(*Simulated)

// WithDelay sets the simulated latency. Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(s *Simulated) {
		if d < 0 {
			d = 0
		}
		s.delay = d
	}
}

// WithLogger sets the logger that records submitted data.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulated) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the receipt timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulated) { s.now = now }
}

// NewSimulated returns a Simulated sender with DefaultDelay and a no-op logger.
func NewSimulated(opts ...Option) *Simulated {
	s := &Simulated{
		delay:  DefaultDelay,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the configured latency.
func (s *Simulated) Delay() time.Duration { return s.delay }

// Send waits for the delay, then logs the record with passwords redacted.
// The wait ends early only when ctx is done.
func (s *Simulated) Send(ctx context.Context, r registration.Record) (Receipt, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.logger.Warn("submission interrupted", zap.Error(ctx.Err()))
		return Receipt{}, fmt.Errorf("submit: %w", ctx.Err())
	case <-timer.C:
	}

	rc := Receipt{
		ID:          uuid.New(),
		Name:        r.Name,
		Email:       r.Email,
		SubmittedAt: s.now(),
	}
	s.logger.Info("registration submitted",
		zap.Stringer("id", rc.ID),
		zap.Object("record", redacted(r)),
		zap.Duration("delay", s.delay),
	)
	return rc, nil
}

// redacted marshals a record for logs without password values.
type redacted registration.Record

func (r redacted) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	rec := registration.Record(r)
	for _, f := range registration.Fields() {
		v := rec.Get(f)
		if f.Secret() && v != "" {
			v = "[redacted]"
		}
		enc.AddString(f.Key(), v)
	}
	return nil
}

// Controller runs validation and delivery for callers without their own
// event loop. Overlapping Submit calls are refused.
type Controller struct {
	sender   Sender
	inFlight atomic.Bool
}

// NewController returns a Controller delivering through sender.
func NewController(sender Sender) *Controller {
	return &Controller{sender: sender}
}

// Submit validates fm, sends the record and returns the resulting form.
// A validation failure returns the form carrying its errors and a
// *registration.ValidationError. A sender failure keeps the record.
func (c *Controller) Submit(ctx context.Context, fm registration.Form) (registration.Form, Receipt, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return fm, Receipt{}, registration.ErrSubmitInFlight
	}
	defer c.inFlight.Store(false)

	next, err := fm.BeginSubmit()
	if err != nil {
		return next, Receipt{}, err
	}

	rc, err := c.sender.Send(ctx, next.Record)
	if err != nil {
		return next.FailSubmit(), Receipt{}, err
	}
	return next.CompleteSubmit(), rc, nil
}
