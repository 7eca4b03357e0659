// Loadout
// Copyright (c) 2026 The Loadout Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Loadout.
//
// Loadout is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Loadout is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Loadout.  If not, see <http://www.gnu.org/licenses/>.

// Package operation runs a single install or remove as an asynchronous
// session whose output and outcome are delivered on a UI scheduler.
package operation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/LoadoutProject/loadout/pkg/helpers/syncutil"
	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State of a session. Succeeded, Failed and Aborted are terminal.
type State int32

const (
	Pending State = iota
	Running
	Succeeded
	Failed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Aborted
}

const (
	// drainTimeout bounds how long output is read after the child exits. A
	// grandchild holding the terminal open would otherwise stall completion.
	drainTimeout = 2 * time.Second
	// killGrace is how long the child may outlive its deadline. pkexec runs
	// setuid root, so the kill sent on timeout fails with EPERM.
	killGrace = 5 * time.Second
)

var ErrAlreadyStarted = errors.New("session already started")

// Observer receives the outcome of a session on the scheduler. Exactly one
// of its methods is called, exactly once.
type Observer interface {
	OperationFinished(success bool, output string)
	OperationAborted()
}

// Commander builds the command line for a request.
type Commander interface {
	Args(req pkgmgr.Request) []string
	FormatCommand(req pkgmgr.Request) string
	Timeout() time.Duration
}

type Refresher interface {
	Refresh(ctx context.Context)
}

type Options struct {
	Commander Commander
	Scheduler Scheduler
	// Optional.
	Spawner   Spawner
	Observer  Observer
	Sink      io.Writer
	Refresher Refresher
	Clock     clockwork.Clock
}

// Session is one install or remove of one package. Start, Cancel and the
// accessors other than State and Pid must be called on the scheduler.
type Session struct {
	proc       Process
	commander  Commander
	sched      Scheduler
	spawner    Spawner
	observer   Observer
	sink       io.Writer
	refresher  Refresher
	clock      clockwork.Clock
	started    time.Time
	finished   time.Time
	output     strings.Builder
	diagnostic string
	req        pkgmgr.Request
	wg         sync.WaitGroup
	killGrace  time.Duration
	// headerLen is the length of the command line echoed before any child
	// output.
	headerLen int
	id        uuid.UUID
	procMu    syncutil.Mutex
	state     atomic.Int32
	claimed   atomic.Bool
	// sealed drops output that arrives after the reader was abandoned.
	sealed atomic.Bool
}

func New(req pkgmgr.Request, opts Options) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if opts.Commander == nil || opts.Scheduler == nil {
		return nil, errors.New("session needs a commander and a scheduler")
	}
	if opts.Spawner == nil {
		opts.Spawner = DefaultSpawner()
	}
	if opts.Sink == nil {
		opts.Sink = io.Discard
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Session{
		id:        uuid.New(),
		req:       req,
		commander: opts.Commander,
		sched:     opts.Scheduler,
		spawner:   opts.Spawner,
		observer:  opts.Observer,
		sink:      opts.Sink,
		refresher: opts.Refresher,
		clock:     opts.Clock,
		killGrace: killGrace,
	}, nil
}

func (s *Session) ID() string {
	return s.id.String()
}

func (s *Session) Request() pkgmgr.Request {
	return s.req
}

// State is safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Result reports the outcome. success is only meaningful when done.
func (s *Session) Result() (success, done bool) {
	st := s.State()
	return st == Succeeded, st.Terminal()
}

// Output is everything written to the sink so far.
func (s *Session) Output() string {
	return s.output.String()
}

// Diagnostic explains a failed session in one line. It is empty unless
// the session failed.
func (s *Session) Diagnostic() string {
	return s.diagnostic
}

// Pid of the child, or 0 when no process is tracked. Safe to call from any
// goroutine.
func (s *Session) Pid() int {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.Pid()
}

// Duration is the elapsed time since Start, frozen once the session ends.
func (s *Session) Duration() time.Duration {
	if s.started.IsZero() {
		return 0
	}
	if s.finished.IsZero() {
		return s.clock.Since(s.started)
	}
	return s.finished.Sub(s.started)
}

// Start launches the command and returns immediately. The command line is
// written to the sink before any child output.
func (s *Session) Start() error {
	if !s.state.CompareAndSwap(int32(Pending), int32(Running)) {
		return ErrAlreadyStarted
	}
	s.started = s.clock.Now()
	s.write("$ " + s.commander.FormatCommand(s.req) + "\n\n")
	s.headerLen = s.output.Len()

	log.Info().
		Str("session", s.ID()).
		Str("pkg", s.req.ID).
		Stringer("kind", s.req.Kind).
		Msg("starting operation")

	timeout := s.commander.Timeout()
	args := s.commander.Args(s.req)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// one for the goroutine, one released by whichever terminal
	// transition wins
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, args, timeout)
	}()
	return nil
}

func (s *Session) run(ctx context.Context, args []string, timeout time.Duration) {
	proc, err := s.spawner.Spawn(ctx, args)
	if err != nil {
		cerr := pkgmgr.Classify(ctx, args[0], timeout, nil, nil, err)
		log.Error().Err(err).Str("session", s.ID()).Str("pkg", s.req.ID).Msg("failed to spawn")
		s.sched.Queue(func() {
			s.diagnostic = cerr.Message
			s.write(cerr.Message + "\n")
			s.finish(false)
		})
		return
	}

	s.setProc(proc)
	log.Debug().Str("session", s.ID()).Int("pid", proc.Pid()).Msg("operation spawned")

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		s.pump(proc.Output())
	}()

	waitErr := s.wait(ctx, proc)
	// the child is reaped, there is nothing left to cancel
	s.setProc(nil)
	s.drain(proc, pumped)

	if waitErr == nil {
		s.sched.Queue(func() { s.finish(true) })
		return
	}

	cerr := pkgmgr.Classify(ctx, args[0], timeout, nil, nil, waitErr)
	s.sched.Queue(func() {
		if !s.State().Terminal() {
			s.diagnostic = s.diagnose(cerr)
		}
		s.write("\n" + cerr.Message + "\n")
		s.finish(false)
	})
}

// diagnose picks the text that explains a failure. For a non-zero exit
// that is the last line the child printed, since pacman reports its
// errors on the terminal rather than through the exit status.
func (s *Session) diagnose(cerr *pkgmgr.CommandError) string {
	if errors.Is(cerr, pkgmgr.ErrNonZeroExit) {
		if line := lastLine(s.output.String()[s.headerLen:]); line != "" {
			return line
		}
	}
	return cerr.Message
}

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;?]*[ -/]*[@-~]")

// lastLine is the last non-blank line of terminal output, without colour
// codes or progress bar redraws.
func lastLine(text string) string {
	text = strings.TrimRight(ansiEscape.ReplaceAllString(text, ""), "\r\n\t ")
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	if i := strings.LastIndexByte(text, '\r'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}

// wait returns the exit status of proc, or the context error once the
// child has outlived its deadline by killGrace. The process is left to
// exit on its own in that case.
func (s *Session) wait(ctx context.Context, proc Process) error {
	exited := make(chan error, 1)
	go func() {
		exited <- proc.Wait()
	}()

	select {
	case err := <-exited:
		return err
	case <-ctx.Done():
	}

	select {
	case err := <-exited:
		return err
	case <-s.clock.After(s.killGrace):
		log.Warn().
			Str("session", s.ID()).
			Int("pid", proc.Pid()).
			Msg("process survived its deadline, no longer waiting for it")
		return ctx.Err()
	}
}

// drain gives the output reader drainTimeout to reach EOF, then closes the
// stream. If the reader is still stuck after another drainTimeout, its
// remaining output is dropped.
func (s *Session) drain(proc Process, pumped <-chan struct{}) {
	select {
	case <-pumped:
		_ = proc.Close()
		return
	case <-s.clock.After(drainTimeout):
		log.Warn().Str("session", s.ID()).Msg("output still open after exit, closing")
	}

	_ = proc.Close()
	select {
	case <-pumped:
	case <-s.clock.After(drainTimeout):
		log.Warn().Str("session", s.ID()).Msg("output reader did not stop, dropping late output")
		s.sealed.Store(true)
	}
}

// pump forwards output chunks to the scheduler in the order they are read.
func (s *Session) pump(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 && !s.sealed.Load() {
			chunk := string(buf[:n])
			s.sched.Queue(func() {
				if !s.sealed.Load() {
					s.write(chunk)
				}
			})
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Str("session", s.ID()).Msg("output stream closed")
			}
			return
		}
	}
}

func (s *Session) write(text string) {
	s.output.WriteString(text)
	_, _ = io.WriteString(s.sink, text)
}

func (s *Session) setProc(p Process) {
	s.procMu.Lock()
	s.proc = p
	s.procMu.Unlock()
}

func (s *Session) process() Process {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	return s.proc
}

// claim wins the single transition to a terminal state.
func (s *Session) claim(reason string) bool {
	if !s.claimed.CompareAndSwap(false, true) {
		log.Debug().
			Str("session", s.ID()).
			Str("signal", reason).
			Stringer("state", s.State()).
			Msg("ignoring completion signal, session already finished")
		return false
	}
	s.finished = s.clock.Now()
	return true
}

// finish records a success or failure. Later calls are ignored.
func (s *Session) finish(success bool) {
	reason := "failure"
	if success {
		reason = "success"
	}
	if !s.claim(reason) {
		return
	}

	state := Failed
	if success {
		state = Succeeded
	}
	s.state.Store(int32(state))

	log.Info().
		Str("session", s.ID()).
		Str("pkg", s.req.ID).
		Stringer("kind", s.req.Kind).
		Stringer("state", state).
		Dur("duration", s.Duration()).
		Msg("operation finished")

	if success && s.req.Kind == pkgmgr.Install && s.refresher != nil {
		go func() {
			defer s.wg.Done()
			s.refresher.Refresh(context.Background())
		}()
	} else {
		s.wg.Done()
	}

	if s.observer != nil {
		s.observer.OperationFinished(success, s.Output())
	}
}

// Cancel sends SIGTERM to a running child and ends the session as aborted
// without a success or failure outcome. It does nothing unless the
// session is running with a live process.
func (s *Session) Cancel() {
	if s.State() != Running {
		return
	}
	proc := s.process()
	if proc == nil {
		return
	}
	if !s.claim("cancel") {
		return
	}
	s.state.Store(int32(Aborted))
	defer s.wg.Done()

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		log.Debug().Err(err).Str("session", s.ID()).Msg("failed to signal process")
	}

	log.Info().
		Str("session", s.ID()).
		Str("pkg", s.req.ID).
		Int("pid", proc.Pid()).
		Dur("duration", s.Duration()).
		Msg("operation cancelled")

	if s.observer != nil {
		s.observer.OperationAborted()
	}
}

// Wait blocks until the outcome has been delivered and the background
// goroutines of the session, including any cache refresh, have returned.
// It must not be called on the scheduler.
func (s *Session) Wait() {
	s.wg.Wait()
}
