// Package session runs the per-device lifecycle: connect, authenticate,
// enter the requested mode, execute the command set in order, and
// disconnect. One session per inventory record per run; a session is
// owned by exactly one worker and never shared.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetcmd/fleetcmd/pkg/commandset"
	"github.com/fleetcmd/fleetcmd/pkg/inventory"
	"github.com/fleetcmd/fleetcmd/pkg/transcript"
	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// Default per-operation timeouts. The command timeout matches the read
// timeout the tool has always shipped with; slow control planes can
// stretch it per run.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultCommandTimeout = 90 * time.Second
)

// Timeouts bound each network operation. A zero field takes the default.
type Timeouts struct {
	Connect time.Duration
	Command time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Connect == 0 {
		t.Connect = DefaultConnectTimeout
	}
	if t.Command == 0 {
		t.Command = DefaultCommandTimeout
	}
	return t
}

// Config assembles everything one session needs. The record and command
// slice are read-only; the command slice is shared across all sessions
// in a run.
type Config struct {
	Record   inventory.Record
	Commands []string
	Mode     commandset.Mode
	Dialer   Dialer
	Timeouts Timeouts

	// CommandDelay pauses between commands for slow control planes.
	CommandDelay time.Duration

	// Save persists the running configuration after config mode, when
	// the device family defines a save sequence.
	Save bool
}

// Session is the state machine for one device.
type Session struct {
	cfg      Config
	dialect  *Dialect
	state    State
	conn     Transport
	timeouts Timeouts
}

// New creates a session in Pending state.
func New(cfg Config) *Session {
	return &Session{
		cfg:      cfg,
		dialect:  Lookup(cfg.Record.DeviceFamily),
		state:    StatePending,
		timeouts: cfg.Timeouts.withDefaults(),
	}
}

// State reports the session's current state.
func (s *Session) State() State {
	return s.state
}

// Run drives the session to a terminal state and returns its transcript.
// Failures of any kind are converted into the transcript's terminal
// status here; Run never panics the worker and never returns an error.
// Once a transport handle exists the disconnect runs on every exit path.
func (s *Session) Run(ctx context.Context) *transcript.Transcript {
	rec := s.cfg.Record
	tr := &transcript.Transcript{
		Hostname:     rec.Label(),
		Host:         rec.Host,
		DeviceFamily: rec.DeviceFamily,
		Mode:         string(s.cfg.Mode),
		Start:        time.Now(),
	}
	log := util.WithDevice(rec.Label(), rec.Host)

	err := s.execute(ctx, tr)

	if s.conn != nil {
		s.transition(StateDisconnecting)
		if cerr := s.conn.Close(); cerr != nil {
			log.Debugf("close: %v", cerr)
		}
	}

	tr.End = time.Now()
	if err != nil {
		s.state = StateFailed
		tr.Status = transcript.StatusFailed
		tr.Reason = util.Reason(err)
		tr.Detail = err.Error()
		log.WithField("reason", tr.Reason).Warnf("session failed: %v", err)
	} else {
		s.state = StateSucceeded
		tr.Status = transcript.StatusSucceeded
		log.Infof("session succeeded (%d commands, %s)", len(tr.Entries), tr.Elapsed().Round(time.Millisecond))
	}
	return tr
}

func (s *Session) execute(ctx context.Context, tr *transcript.Transcript) error {
	rec := s.cfg.Record

	s.transition(StateConnecting)
	conn, err := s.cfg.Dialer.Dial(ctx, rec)
	if err != nil {
		return util.NewDeviceError(rec.Label(), rec.Host, s.state.String(), err)
	}
	s.conn = conn

	// Sync to the first prompt; a nudge newline flushes login banners.
	s.transition(StateAuthenticating)
	if err := conn.Send(""); err != nil {
		return s.fail(err)
	}
	if _, err := conn.ReadUntil(s.dialect.Prompt, s.timeouts.Command); err != nil {
		return s.fail(err)
	}
	if s.dialect.DisablePaging != "" {
		if err := conn.Send(s.dialect.DisablePaging); err != nil {
			return s.fail(err)
		}
		if _, err := conn.ReadUntil(s.dialect.Prompt, s.timeouts.Command); err != nil {
			return s.fail(err)
		}
	}

	if err := s.checkCanceled(ctx); err != nil {
		return err
	}

	s.transition(StateEnteringMode)
	if s.cfg.Mode == commandset.ModeConfig {
		if err := s.dialect.EnterMode(s.conn, rec.Secret, s.timeouts.Command); err != nil {
			return s.fail(err)
		}
	}

	s.transition(StateExecuting)
	if err := s.runCommands(ctx, tr); err != nil {
		return err
	}

	s.transition(StateExitingMode)
	if s.cfg.Mode == commandset.ModeConfig {
		if err := s.dialect.ExitMode(s.conn, s.cfg.Save, s.timeouts.Command); err != nil {
			return s.fail(err)
		}
	}
	return nil
}

// runCommands sends each command in authored order, waiting for the
// prompt between sends. Device-side errors and missed prompts are
// captured as output text and execution continues; only a transport
// failure is fatal to the session.
func (s *Session) runCommands(ctx context.Context, tr *transcript.Transcript) error {
	for i, cmd := range s.cfg.Commands {
		if err := s.checkCanceled(ctx); err != nil {
			return err
		}
		if i > 0 && s.cfg.CommandDelay > 0 {
			time.Sleep(s.cfg.CommandDelay)
		}

		if err := s.conn.Send(cmd); err != nil {
			return s.fail(err)
		}
		out, err := s.conn.ReadUntil(s.dialect.Prompt, s.timeouts.Command)
		switch {
		case err == nil:
		case errors.Is(err, util.ErrTimeout):
			out += fmt.Sprintf("\n(no prompt within %s; continuing)\n", s.timeouts.Command)
		default:
			tr.Entries = append(tr.Entries, transcript.Entry{Command: cmd, Output: out})
			return s.fail(err)
		}
		tr.Entries = append(tr.Entries, transcript.Entry{Command: cmd, Output: out})
	}
	return nil
}

// checkCanceled is the cooperative cancellation point between
// state-machine transitions and between commands.
func (s *Session) checkCanceled(ctx context.Context) error {
	if ctx.Err() != nil {
		rec := s.cfg.Record
		return util.NewDeviceError(rec.Label(), rec.Host, s.state.String(), util.ErrCanceled)
	}
	return nil
}

func (s *Session) fail(err error) error {
	rec := s.cfg.Record
	return util.NewDeviceError(rec.Label(), rec.Host, s.state.String(), err)
}

func (s *Session) transition(next State) {
	util.WithDevice(s.cfg.Record.Label(), s.cfg.Record.Host).
		Debugf("%s -> %s", s.state, next)
	s.state = next
}
