// Package launcher starts single commands and pipelines as process groups
// and wires them into a jobtable.Table. Grounded on
// original_source/shell.c:do_job/do_stage/do_pipeline, with the fork+setpgid
// pattern adapted from the teacher's
// internal/infrastructure/processmgr/process.go (Setpgid via SysProcAttr).
// Children are reaped by the reaper package, not by cmd.Wait.
package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/edirooss/gosh/internal/jobtable"
	"github.com/edirooss/gosh/internal/redirect"
	"github.com/edirooss/gosh/internal/token"
)

// reexecArg is the hidden argv[1] this binary recognizes on startup to run a
// builtin as its own OS process instead of as a library call — the only way
// a pipeline stage can "try a builtin first" in Go, which has no fork() that
// returns into arbitrary child-side code. Mirrors the self-reexec pattern
// used for job workers that must run as real, signal-addressable processes.
const reexecArg = "__gosh_builtin_stage__"

// IsReexecStage reports whether the process was started as a pipeline-stage
// builtin reexec, and returns the builtin argv if so. cmd/gosh checks this
// first thing in main.
func IsReexecStage(args []string) ([]string, bool) {
	if len(args) >= 1 && args[0] == reexecArg {
		return args[1:], true
	}
	return nil, false
}

// Launcher starts jobs and appends their processes to a jobtable.Table.
type Launcher struct {
	log   *zap.Logger
	table *jobtable.Table

	// isBuiltin reports whether argv[0] names a builtin, without running it
	// — used only to decide whether a stage must reexec itself. Launch
	// consults it for every stage; for a single command its caller has
	// already tried builtins.Dispatch in-process before ever reaching here.
	isBuiltin func(name string) bool
}

// New constructs a Launcher. isBuiltin should be builtins' name-recognition
// predicate (not Dispatch itself, since Dispatch also executes).
func New(log *zap.Logger, table *jobtable.Table, isBuiltin func(name string) bool) *Launcher {
	return &Launcher{log: log.Named("launcher"), table: table, isBuiltin: isBuiltin}
}

// Launch starts every stage of a pipeline (a single command is a
// one-element pipeline) in one process group and registers it as a job.
// background selects whether the job lands in the reserved foreground slot
// or an allocated background slot, per jobs.c:do_pipeline.
func (l *Launcher) Launch(stages [][]token.Token, background bool) (jobID int, err error) {
	n := len(stages)
	cmds := make([]*exec.Cmd, 0, n)
	files := make([]*os.File, 0, n*2) // opened redirection fds, closed after Start

	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	var stdin io.Reader = os.Stdin
	var pipeReaders []*os.File

	var pgid int
	var commands [][]string

	for i, stage := range stages {
		res, rerr := redirect.Extract(stage)
		if rerr != nil {
			fmt.Fprintf(os.Stderr, "shell: %s\n", rerr)
			return 0, rerr
		}
		argv := token.Words(res.Argv)
		if len(argv) == 0 {
			return 0, fmt.Errorf("launcher: empty command in stage %d", i)
		}
		commands = append(commands, argv)

		path, perr := resolveExternal(argv[0])
		var cmd *exec.Cmd
		if l.isBuiltin != nil && l.isBuiltin(argv[0]) {
			reexecArgv := append([]string{reexecArg}, argv...)
			self, serr := os.Executable()
			if serr != nil {
				return 0, fmt.Errorf("launcher: resolve self for builtin reexec: %w", serr)
			}
			cmd = exec.Command(self, reexecArgv...)
		} else {
			if perr != nil {
				fmt.Fprintf(os.Stderr, "shell: command not found: %s\n", argv[0])
				return 0, perr
			}
			cmd = exec.Command(path, argv[1:]...)
		}

		// Wire stdin: the previous stage's pipe, or an explicit < redirect,
		// or (first stage) the shell's own stdin.
		switch {
		case res.Input != nil:
			cmd.Stdin = res.Input
			files = append(files, res.Input)
		case i > 0:
			cmd.Stdin = stdin
		default:
			cmd.Stdin = os.Stdin
		}

		// Wire stdout: an explicit > / >> redirect, or a pipe to the next
		// stage, or (last stage) the shell's own stdout.
		if res.Output != nil {
			cmd.Stdout = res.Output
			files = append(files, res.Output)
		} else if i < n-1 {
			pr, pw, perr := os.Pipe()
			if perr != nil {
				return 0, fmt.Errorf("launcher: create pipe: %w", perr)
			}
			cmd.Stdout = pw
			pipeReaders = append(pipeReaders, pr)
			files = append(files, pw)
			stdin = pr
		} else {
			cmd.Stdout = os.Stdout
		}
		cmd.Stderr = os.Stderr

		// setpgid(0, pgid): the first stage becomes the group leader (Go's
		// exec semantics treat Pgid==0 under Setpgid as "use my own new
		// pid"); every later stage joins that pgid explicitly. Go's
		// ForkExec performs this in the child before the exec handshake
		// completes, so — unlike the C original's fork/setpgid-in-both-
		// places dance to close the race against an early SIGCONT — by the
		// time Start() returns here the child is already in the right
		// group.
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		}

		if err := cmd.Start(); err != nil {
			return 0, fmt.Errorf("launcher: start stage %d: %w", i, err)
		}
		if i == 0 {
			pgid = cmd.Process.Pid
		}
		cmds = append(cmds, cmd)
	}

	for _, pr := range pipeReaders {
		defer pr.Close()
	}

	jobID = l.table.AddJob(pgid, background)
	for i, cmd := range cmds {
		l.table.AddProc(jobID, cmd.Process.Pid, commands[i])
	}
	l.log.Debug("launched job", zap.Int("job", jobID), zap.Int("pgid", pgid), zap.Int("stages", n))

	if background {
		fmt.Fprintf(os.Stderr, "[%d] running '%s' %d\n", jobID, strings.Join(flatten(commands), " | "), pgid)
	}

	// No cmd.Wait here: the reaper package's SIGCHLD-driven wait4(-1,
	// WNOHANG) is the sole reaper for every child this shell starts.
	// cmd.Wait performs its own wait4 on a specific pid and would race
	// it — whichever wins starves the other, and jobtable.Table.ReapUpdate
	// (only reachable from the reaper) would never fire for that pid.
	// None of these cmds need Wait for bookkeeping: every std stream is a
	// raw *os.File wired directly above, not one of exec.Cmd's internal
	// pipe-copying goroutines.

	return jobID, nil
}

func flatten(commands [][]string) []string {
	parts := make([]string, len(commands))
	for i, c := range commands {
		parts[i] = strings.Join(c, " ")
	}
	return parts
}

// resolveExternal searches PATH for name, mirroring
// command.c:external_command's per-candidate execve attempts rather than
// relying solely on a single stdlib lookup, so a PATH containing
// nonexistent or unreadable entries doesn't abort the search early.
func resolveExternal(name string) (string, error) {
	if strings.Contains(name, "/") {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name, nil
		}
		return "", fmt.Errorf("launcher: %s: not found", name)
	}

	path := os.Getenv("PATH")
	for _, dir := range strings.Split(path, ":") {
		if dir == "" {
			dir = "."
		}
		candidate := dir + "/" + name
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("launcher: %s: not found", name)
}
