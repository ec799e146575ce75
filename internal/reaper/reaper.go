// Package reaper runs the goroutine equivalent of the shell's SIGCHLD
// handler: it drains every ready child with a non-blocking wait, updates
// the job table, and wakes anything blocked in jobtable.Table.WaitUntil.
//
// spec.md §9 notes that an implementation "may express [the handler] as a
// dedicated reaper task that receives signal notifications through a queue
// and exclusive ownership, with the main flow blocking on that queue" as
// long as it preserves race-free wait/wake semantics. That is exactly this
// package: a single goroutine is the only writer of process/job state
// (mirroring jobs.c:sigchld_handler's exclusive access under the blocked
// mask), and jobtable.Table's condition variable reproduces sigsuspend's
// atomic unblock-and-wait.
package reaper

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/edirooss/gosh/internal/jobtable"
)

// Reaper owns the SIGCHLD notification channel and drains child status
// changes into a jobtable.Table.
type Reaper struct {
	log   *zap.Logger
	table *jobtable.Table
	sig   chan os.Signal
}

// New constructs a Reaper. Call Run in its own goroutine once, before
// launching any children, so no SIGCHLD is ever missed.
func New(log *zap.Logger, table *jobtable.Table) *Reaper {
	r := &Reaper{
		log:   log.Named("reaper"),
		table: table,
		sig:   make(chan os.Signal, 64),
	}
	signal.Notify(r.sig, syscall.SIGCHLD)
	return r
}

// Run drains SIGCHLD notifications until ctx is canceled. It is meant to be
// run for the lifetime of the shell process in its own goroutine.
func (r *Reaper) Run(ctx context.Context) {
	// Catch up on anything that arrived before Notify was wired, and handle
	// the steady-state notifications as they come in.
	r.drain()
	for {
		select {
		case <-ctx.Done():
			signal.Stop(r.sig)
			return
		case <-r.sig:
			r.drain()
		}
	}
}

// drain performs the non-blocking reap loop: waitpid(-1, WNOHANG|WUNTRACED|
// WCONTINUED) until no child has a pending status report, exactly as
// jobs.c:sigchld_handler's `while ((pid = waitpid(...)) > 0)` loop.
func (r *Reaper) drain() {
	for {
		var status syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG|syscall.WUNTRACED|syscall.WCONTINUED, nil)
		if err != nil || pid <= 0 {
			return
		}

		transition := transitionFor(status)
		if !r.table.ReapUpdate(pid, transition, status) {
			// Not one of ours (e.g. already consumed, or a grandchild that
			// reparented); jobs.c silently ignores this too since it only
			// scans its own table.
			r.log.Debug("reaped untracked pid", zap.Int("pid", pid))
		}
	}
}

// transitionFor maps a wait status to the three-way process state, per
// jobs.c:proc_state.
func transitionFor(status syscall.WaitStatus) jobtable.State {
	switch {
	case status.Exited() || status.Signaled():
		return jobtable.Finished
	case status.Stopped():
		return jobtable.Stopped
	case status.Continued():
		return jobtable.Running
	default:
		return jobtable.Running
	}
}
