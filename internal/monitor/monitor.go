// Package monitor implements foreground job supervision and job resumption:
// handing the controlling terminal to a job's process group, blocking until
// it stops or finishes, and reclaiming the terminal afterward. Grounded on
// original_source/jobs.c:monitorjob, resumejob, killjob, watchjobs.
package monitor

import (
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"

	"github.com/edirooss/gosh/internal/builtins"
	"github.com/edirooss/gosh/internal/jobtable"
	"github.com/edirooss/gosh/internal/ttyctl"
)

// Monitor coordinates terminal ownership and job resumption. It implements
// builtins.JobController.
type Monitor struct {
	log   *zap.Logger
	table *jobtable.Table
	tty   *ttyctl.Terminal
	shell int // the shell's own pgid, restored whenever it reclaims the terminal
}

// New constructs a Monitor. shellPGID is the shell's own process group,
// recorded once at startup so the terminal can always be handed back.
func New(log *zap.Logger, table *jobtable.Table, tty *ttyctl.Terminal, shellPGID int) *Monitor {
	return &Monitor{log: log.Named("monitor"), table: table, tty: tty, shell: shellPGID}
}

// Foreground blocks the caller (the shell's main loop) until jobID either
// stops or finishes, having first handed the terminal to its process group.
// Mirrors jobs.c:monitorjob. On stop, jobID is migrated to a background slot
// and its new slot number is reported; on finish, the job is left in place
// for the caller to report and consume.
func (m *Monitor) Foreground(jobID int) {
	pgid, ok := m.table.PGID(jobID)
	if !ok {
		return
	}

	m.tty.SetForeground(pgid)
	job := m.table.WaitUntil(jobID, func(j jobtable.Job) bool {
		return j.State == jobtable.Stopped || j.State == jobtable.Finished
	})
	m.tty.SetForeground(m.shell)

	if job.State == jobtable.Stopped {
		newID := m.table.MigrateToBackground()
		fmt.Fprintf(os.Stderr, "[%d] suspended '%s'\n", newID, job.Command)
	}
}

// Resume implements builtins.JobController's fg/bg verb: SIGCONT the job's
// process group and, for fg, migrate it into the foreground slot and block
// on it exactly like a freshly launched foreground job; if it finishes
// there, its foreground slot is consumed. Reports whether jobID existed.
// Mirrors jobs.c:resumejob, which prints the continue line
// unconditionally, using the pre-migration job id, before any fg/bg branch.
func (m *Monitor) Resume(jobID int, background bool) bool {
	job, ok := m.table.Get(jobID)
	if !ok {
		return false
	}

	_ = syscall.Kill(-job.PGID, syscall.SIGCONT)
	fmt.Fprintf(os.Stderr, "[%d] continue '%s'\n", jobID, job.Command)

	if !background && jobID != jobtable.Foreground {
		m.table.MigrateToForeground(jobID)
		jobID = jobtable.Foreground
	}
	if !background {
		m.Foreground(jobID)
		if final, ok := m.table.Get(jobID); ok && final.State == jobtable.Finished {
			m.table.Consume(jobID)
		}
	}
	return true
}

// Kill implements builtins.JobController's kill verb: terminate the job's
// process group, per jobs.c:killjob (SIGCONT first so a stopped group can
// actually observe the SIGTERM, then SIGTERM itself).
func (m *Monitor) Kill(jobID int) bool {
	pgid, ok := m.table.PGID(jobID)
	if !ok {
		return false
	}
	m.log.Debug("killing job", zap.Int("job", jobID), zap.Int("pgid", pgid))
	_ = syscall.Kill(-pgid, syscall.SIGCONT)
	_ = syscall.Kill(-pgid, syscall.SIGTERM)
	return true
}

// HighestResumable implements builtins.JobController.
func (m *Monitor) HighestResumable() (int, bool) {
	return m.table.HighestResumable()
}

// Jobs implements builtins.JobController, translating table snapshots into
// the builtin package's display-oriented view.
func (m *Monitor) Jobs() []builtins.JobView {
	snaps := m.table.Snapshot()
	out := make([]builtins.JobView, len(snaps))
	for i, s := range snaps {
		out[i] = viewOf(s)
	}
	return out
}

// Consume implements builtins.JobController.
func (m *Monitor) Consume(jobID int) (builtins.JobView, bool) {
	s, ok := m.table.Consume(jobID)
	if !ok {
		return builtins.JobView{}, false
	}
	return viewOf(s), true
}

// Shutdown implements builtins.JobController: terminate every tracked job,
// wait for all of them to finish, then report them. Used for both the
// `quit` builtin and EOF-on-prompt, per jobs.c:shutdownjobs, which reports
// via watchjobs(FINISHED) — the same exited/killed wording as a job
// finishing on its own.
func (m *Monitor) Shutdown() {
	snaps := m.table.Snapshot()
	for _, s := range snaps {
		_ = syscall.Kill(-s.PGID, syscall.SIGCONT)
		_ = syscall.Kill(-s.PGID, syscall.SIGTERM)
	}
	for _, s := range snaps {
		m.table.WaitUntil(s.ID, func(j jobtable.Job) bool { return j.State == jobtable.Finished })
	}
	for _, s := range snaps {
		if final, ok := m.table.Consume(s.ID); ok {
			v := viewOf(final)
			fmt.Fprintf(os.Stderr, "[%d] %s '%s'%s\n", v.ID, v.State, v.Command, v.Exit)
		}
	}
	m.tty.SetForeground(m.shell)
}

// viewOf translates a table snapshot into the builtin package's
// display-oriented view, deriving the exited/killed state word and its
// trailing status text from the job's last process per jobs.c:strstate and
// watchjobs.
func viewOf(s jobtable.Snapshot) builtins.JobView {
	v := builtins.JobView{ID: s.ID, PGID: s.PGID, Command: s.Command}
	switch s.State {
	case jobtable.Running:
		v.State = "running"
	case jobtable.Stopped:
		v.State = "stopped"
	default:
		v.Terminal = true
		v.State = "exited"
		if len(s.Procs) > 0 {
			last := s.Procs[len(s.Procs)-1]
			v.State = last.ExitWord()
			v.Exit = last.ExitTail()
		}
	}
	return v
}
