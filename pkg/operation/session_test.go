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

package operation

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/LoadoutProject/loadout/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	out     io.Reader
	ctx     context.Context
	exit    chan error
	signals chan os.Signal
	// exitOnSignal makes Signal end the process with this error.
	exitOnSignal error
	// exitOnCtx makes Wait return once the spawn context is done.
	exitOnCtx bool
}

func newFakeProcess(output string) *fakeProcess {
	return &fakeProcess{
		out:     strings.NewReader(output),
		exit:    make(chan error, 1),
		signals: make(chan os.Signal, 4),
	}
}

func (*fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Output() io.Reader { return p.out }

func (p *fakeProcess) Wait() error {
	if p.exitOnCtx {
		<-p.ctx.Done()
		return errors.New("signal: killed")
	}
	return <-p.exit
}

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.signals <- sig
	if p.exitOnSignal != nil {
		p.exit <- p.exitOnSignal
	}
	return nil
}

func (*fakeProcess) Close() error { return nil }

type fakeSpawner struct {
	proc *fakeProcess
	err  error
	args [][]string
	mu   sync.Mutex
}

func (s *fakeSpawner) Spawn(ctx context.Context, args []string) (Process, error) {
	s.mu.Lock()
	s.args = append(s.args, args)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.proc.ctx = ctx
	return s.proc, nil
}

type outcome struct {
	output  string
	success bool
}

type recordingObserver struct {
	done     chan struct{}
	finished []outcome
	aborted  int
	mu       sync.Mutex
}

func newObserver() *recordingObserver {
	return &recordingObserver{done: make(chan struct{}, 4)}
}

func (o *recordingObserver) OperationFinished(success bool, output string) {
	o.mu.Lock()
	o.finished = append(o.finished, outcome{success: success, output: output})
	o.mu.Unlock()
	o.done <- struct{}{}
}

func (o *recordingObserver) OperationAborted() {
	o.mu.Lock()
	o.aborted++
	o.mu.Unlock()
	o.done <- struct{}{}
}

func (o *recordingObserver) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(waitFor):
		require.FailNow(t, "observer was not called")
	}
}

func (o *recordingObserver) snapshot() ([]outcome, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]outcome(nil), o.finished...), o.aborted
}

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(context.Context) {
	r.calls.Add(1)
}

type fixedCommander struct {
	args    []string
	timeout time.Duration
}

func (c fixedCommander) Args(pkgmgr.Request) []string { return c.args }
func (c fixedCommander) FormatCommand(pkgmgr.Request) string { return strings.Join(c.args, " ") }
func (c fixedCommander) Timeout() time.Duration { return c.timeout }

func newRunner(opts pkgmgr.Options) *pkgmgr.Runner {
	return pkgmgr.NewRunner(&mocks.MockCommandExecutor{}, opts)
}

func newSession(t *testing.T, req pkgmgr.Request, opts Options) *Session {
	t.Helper()
	if opts.Commander == nil {
		opts.Commander = newRunner(pkgmgr.DefaultOptions())
	}
	s, err := New(req, opts)
	require.NoError(t, err)
	return s
}

func exitStatus(t *testing.T, code string) error {
	t.Helper()
	err := exec.Command("sh", "-c", "exit "+code).Run()
	require.Error(t, err)
	return err
}

func TestSession_InstallSuccess(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	refresher := &countingRefresher{}
	proc := newFakeProcess("downloading steam\ninstalling steam\n")
	proc.exit <- nil
	spawner := &fakeSpawner{proc: proc}

	var sink strings.Builder
	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   spawner,
		Observer:  obs,
		Sink:      &sink,
		Refresher: refresher,
	})

	onLoop(t, loop, func() {
		require.NoError(t, s.Start())
		assert.Equal(t, Running, s.State())
	})
	obs.wait(t)
	s.Wait()

	want := "$ pkexec pacman -S --noconfirm steam\n\ndownloading steam\ninstalling steam\n"
	finished, aborted := obs.snapshot()
	require.Len(t, finished, 1)
	assert.True(t, finished[0].success)
	assert.Equal(t, want, finished[0].output)
	assert.Zero(t, aborted)

	onLoop(t, loop, func() {
		assert.Equal(t, want, s.Output())
		assert.Equal(t, want, sink.String())
		success, done := s.Result()
		assert.True(t, success)
		assert.True(t, done)
	})
	assert.Equal(t, Succeeded, s.State())
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Zero(t, s.Pid())
	assert.Equal(t, [][]string{{"pkexec", "pacman", "-S", "--noconfirm", "steam"}}, spawner.args)
}

func TestSession_RemoveSuccessSkipsRefresh(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	refresher := &countingRefresher{}
	proc := newFakeProcess("removing\n")
	proc.exit <- nil

	s := newSession(t, pkgmgr.Request{ID: "lutris", Kind: pkgmgr.Remove}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
		Refresher: refresher,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	assert.Equal(t, Succeeded, s.State())
	assert.Zero(t, refresher.calls.Load())
}

func TestSession_NonZeroExit(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	refresher := &countingRefresher{}
	proc := newFakeProcess("error: target not found: stem\n")
	proc.exit <- exitStatus(t, "1")

	s := newSession(t, pkgmgr.Request{ID: "stem", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
		Refresher: refresher,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	finished, _ := obs.snapshot()
	require.Len(t, finished, 1)
	assert.False(t, finished[0].success)
	assert.Contains(t, finished[0].output, "error: target not found: stem")
	assert.Contains(t, finished[0].output, "exited with status 1")
	assert.Equal(t, Failed, s.State())
	assert.Zero(t, refresher.calls.Load())
	onLoop(t, loop, func() {
		assert.Equal(t, "error: target not found: stem", s.Diagnostic())
	})
}

func TestSession_NonZeroExitWithoutOutput(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	proc := newFakeProcess("")
	proc.exit <- exitStatus(t, "2")

	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Remove}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	onLoop(t, loop, func() {
		assert.Equal(t, "pkexec exited with status 2", s.Diagnostic())
	})
}

func TestSession_SpawnFailure(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	spawnErr := &exec.Error{Name: "pkexec", Err: exec.ErrNotFound}

	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{err: spawnErr},
		Observer:  obs,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	finished, _ := obs.snapshot()
	require.Len(t, finished, 1)
	assert.False(t, finished[0].success)
	assert.Contains(t, finished[0].output, pkgmgr.NotFoundMessage("pkexec"))
	assert.True(t, strings.HasPrefix(finished[0].output, "$ pkexec pacman"))
	onLoop(t, loop, func() {
		assert.Equal(t, pkgmgr.NotFoundMessage("pkexec"), s.Diagnostic())
	})
}

func TestSession_FirstCompletionSignalWins(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	refresher := &countingRefresher{}
	proc := newFakeProcess("")

	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
		Refresher: refresher,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	require.Eventually(t, func() bool { return s.Pid() != 0 }, waitFor, time.Millisecond)

	// a failure signal arrives, then the process reports success
	onLoop(t, loop, func() { s.finish(false) })
	obs.wait(t)
	proc.exit <- nil
	s.Wait()
	onLoop(t, loop, func() {})

	finished, aborted := obs.snapshot()
	require.Len(t, finished, 1)
	assert.False(t, finished[0].success)
	assert.Zero(t, aborted)
	assert.Equal(t, Failed, s.State())
	assert.Zero(t, refresher.calls.Load())
}

func TestSession_CancelWithoutProcessIsNoop(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: newFakeProcess("")},
		Observer:  obs,
	})

	// not started
	onLoop(t, loop, s.Cancel)
	assert.Equal(t, Pending, s.State())

	// running but the process handle isn't tracked yet
	s.state.Store(int32(Running))
	onLoop(t, loop, s.Cancel)
	assert.Equal(t, Running, s.State())

	finished, aborted := obs.snapshot()
	assert.Empty(t, finished)
	assert.Zero(t, aborted)
}

func TestSession_CancelRunning(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	proc := newFakeProcess("resolving dependencies...\n")
	proc.exitOnSignal = errors.New("signal: terminated")

	s := newSession(t, pkgmgr.Request{ID: "heroic-games-launcher", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	require.Eventually(t, func() bool { return s.Pid() == 4242 }, waitFor, time.Millisecond)

	onLoop(t, loop, func() {
		s.Cancel()
		// second cancel is a no-op
		s.Cancel()
	})
	obs.wait(t)
	s.Wait()
	onLoop(t, loop, func() {})

	assert.Equal(t, Aborted, s.State())
	finished, aborted := obs.snapshot()
	assert.Empty(t, finished, "exit after cancel must not report an outcome")
	assert.Equal(t, 1, aborted)
	assert.Equal(t, syscall.SIGTERM, <-proc.signals)
	assert.Empty(t, proc.signals)

	success, done := s.Result()
	assert.False(t, success)
	assert.True(t, done)
}

func TestSession_Timeout(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	proc := newFakeProcess("")
	proc.exitOnCtx = true

	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Commander: newRunner(pkgmgr.Options{OperationTimeout: 20 * time.Millisecond}),
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	finished, _ := obs.snapshot()
	require.Len(t, finished, 1)
	assert.False(t, finished[0].success)
	assert.Contains(t, finished[0].output, "timed out")
}

func TestSession_TimeoutWhenKillIsIgnored(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	// Wait ignores the context, like a setuid wrapper the kill cannot reach
	proc := newFakeProcess("")

	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Commander: newRunner(pkgmgr.Options{OperationTimeout: 20 * time.Millisecond}),
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
	})
	s.killGrace = 20 * time.Millisecond

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	finished, _ := obs.snapshot()
	require.Len(t, finished, 1)
	assert.False(t, finished[0].success)
	assert.Contains(t, finished[0].output, "timed out")
	assert.Zero(t, s.Pid())

	// the late exit is ignored
	proc.exit <- nil
	time.Sleep(20 * time.Millisecond)
	finished, _ = obs.snapshot()
	assert.Len(t, finished, 1)
	assert.Equal(t, Failed, s.State())
}

// blockingProcess exits as soon as it is waited on while its output stays
// open until Close.
type blockingProcess struct {
	*fakeProcess
	r *io.PipeReader
	w *io.PipeWriter
}

func newBlockingProcess() *blockingProcess {
	r, w := io.Pipe()
	p := &blockingProcess{fakeProcess: newFakeProcess(""), r: r, w: w}
	p.out = r
	return p
}

func (p *blockingProcess) Close() error {
	_ = p.w.Close()
	return p.r.Close()
}

type blockingSpawner struct {
	proc *blockingProcess
}

func (s blockingSpawner) Spawn(ctx context.Context, _ []string) (Process, error) {
	s.proc.ctx = ctx
	return s.proc, nil
}

func TestSession_CancelAfterExitKeepsSuccess(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	refresher := &countingRefresher{}
	clock := clockwork.NewFakeClock()
	proc := newBlockingProcess()
	proc.exit <- nil

	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   blockingSpawner{proc: proc},
		Observer:  obs,
		Refresher: refresher,
		Clock:     clock,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })

	// the child has exited and the session is draining its output
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Zero(t, s.Pid())
	assert.Equal(t, Running, s.State())

	onLoop(t, loop, s.Cancel)
	assert.Equal(t, Running, s.State())
	assert.Empty(t, proc.signals)

	clock.Advance(drainTimeout)
	obs.wait(t)
	s.Wait()

	finished, aborted := obs.snapshot()
	require.Len(t, finished, 1)
	assert.True(t, finished[0].success)
	assert.Zero(t, aborted)
	assert.Equal(t, Succeeded, s.State())
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	assert.Empty(t, lastLine(""))
	assert.Equal(t, "one", lastLine("one"))
	assert.Equal(t, "two", lastLine("one\r\ntwo\r\n\r\n"))
	assert.Equal(t, "error: target not found: stem",
		lastLine("\x1b[1;31merror:\x1b[0m target not found: stem\r\n"))
	assert.Equal(t, "done", lastLine("downloading 10%\rdownloading 100%\rdone\n"))
}

func TestSession_StartTwice(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	proc := newFakeProcess("")
	proc.exit <- nil

	s := newSession(t, pkgmgr.Request{ID: "gamemode", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
	})

	onLoop(t, loop, func() {
		require.NoError(t, s.Start())
		assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
	})
	obs.wait(t)
	s.Wait()
}

func TestSession_Duration(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	clock := clockwork.NewFakeClock()
	proc := newFakeProcess("")

	s := newSession(t, pkgmgr.Request{ID: "mangohud", Kind: pkgmgr.Install}, Options{
		Scheduler: loop,
		Spawner:   &fakeSpawner{proc: proc},
		Observer:  obs,
		Clock:     clock,
	})
	assert.Zero(t, s.Duration())

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	require.Eventually(t, func() bool { return s.Pid() != 0 }, waitFor, time.Millisecond)
	clock.Advance(3 * time.Second)
	onLoop(t, loop, func() { assert.Equal(t, 3*time.Second, s.Duration()) })

	proc.exit <- nil
	obs.wait(t)
	s.Wait()

	clock.Advance(time.Minute)
	onLoop(t, loop, func() { assert.Equal(t, 3*time.Second, s.Duration()) })
}

func TestSession_RealProcess(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	obs := newObserver()
	s := newSession(t, pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{
		Commander: fixedCommander{
			args:    []string{"sh", "-c", "echo first; echo second >&2; exit 1"},
			timeout: 10 * time.Second,
		},
		Scheduler: loop,
		Spawner:   PipeSpawner{},
		Observer:  obs,
	})

	onLoop(t, loop, func() { require.NoError(t, s.Start()) })
	obs.wait(t)
	s.Wait()

	finished, _ := obs.snapshot()
	require.Len(t, finished, 1)
	out := finished[0].output
	assert.False(t, finished[0].success)
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "exited with status 1"))
	assert.Contains(t, out, "second")
}

func TestNew_RejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	_, err := New(pkgmgr.Request{Kind: pkgmgr.Install}, Options{
		Commander: newRunner(pkgmgr.DefaultOptions()),
		Scheduler: NewLoop(),
	})
	require.ErrorIs(t, err, pkgmgr.ErrEmptyID)

	_, err = New(pkgmgr.Request{ID: "steam", Kind: pkgmgr.Install}, Options{})
	assert.Error(t, err)
}
