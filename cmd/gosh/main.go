// Command gosh is a POSIX-flavored job-control shell. Its main loop is
// grounded on original_source/shell.c:main/eval, translated from
// sigsetjmp/siglongjmp prompt recovery and fork-based process spawning into
// their Go equivalents: a background line reader selected against a SIGINT
// channel, and os/exec-based process-group launching.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/edirooss/gosh/internal/builtins"
	"github.com/edirooss/gosh/internal/diag"
	"github.com/edirooss/gosh/internal/env"
	"github.com/edirooss/gosh/internal/introspect"
	"github.com/edirooss/gosh/internal/jobtable"
	"github.com/edirooss/gosh/internal/launcher"
	"github.com/edirooss/gosh/internal/lineedit"
	"github.com/edirooss/gosh/internal/logging"
	"github.com/edirooss/gosh/internal/monitor"
	"github.com/edirooss/gosh/internal/redirect"
	"github.com/edirooss/gosh/internal/reaper"
	"github.com/edirooss/gosh/internal/token"
	"github.com/edirooss/gosh/internal/ttyctl"
)

func main() {
	if argv, ok := launcher.IsReexecStage(os.Args[1:]); ok {
		os.Exit(runReexecBuiltin(argv))
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "gosh: not attached to a terminal")
		os.Exit(1)
	}

	log, err := logging.New(env.LogMode())
	if err != nil {
		fmt.Fprintln(os.Stderr, "gosh: logger init failed:", err)
		os.Exit(1)
	}
	log = log.Named("main")

	tty, err := ttyctl.Open(os.Stdin)
	if err != nil {
		log.Fatal("terminal control unavailable", zap.Error(err))
	}

	table := jobtable.New(log)
	shellPGID := unix.Getpgrp()
	mon := monitor.New(log, table, tty, shellPGID)
	lnch := launcher.New(log, table, isBuiltinName)

	ctx, cancel := context.WithCancel(context.Background())
	rp := reaper.New(log, table)
	go rp.Run(ctx)

	installJobControlSignals()
	sigint := installSigint()
	installDiagDump(table)

	var introspectDone chan error
	if addr := env.IntrospectAddr(); addr != "" {
		srv := introspect.New(log, table, addr)
		introspectDone = make(chan error, 1)
		go func() { introspectDone <- srv.Run(ctx) }()
		log.Info("introspection API listening", zap.String("addr", addr))
	}

	fmt.Fprintf(os.Stdout, "[%d] gosh\n\n", os.Getpid())

	reader := lineedit.New(os.Stdin)
	lines := make(chan lineResult)
	go func() {
		for {
			line, ok := reader.ReadLine()
			lines <- lineResult{line, ok}
			if !ok {
				return
			}
		}
	}()

	for {
		fmt.Fprint(os.Stdout, prompt())

		var res lineResult
		select {
		case res = <-lines:
		case <-sigint:
			// The Go analogue of shell.c's sigsetjmp/siglongjmp recovery:
			// abandon this prompt line and start a fresh one. The reader
			// goroutine is still blocked on the in-flight read and will
			// deliver it (or EOF) to the next iteration's select.
			fmt.Fprintln(os.Stderr)
			continue
		}

		if !res.ok {
			break
		}
		if res.line != "" {
			eval(res.line, log, table, mon, lnch)
		}
		reapFinished(table)
	}

	fmt.Fprintln(os.Stderr)
	mon.Shutdown()

	cancel()
	var shutdownErr error
	if introspectDone != nil {
		shutdownErr = multierr.Append(shutdownErr, <-introspectDone)
	}
	shutdownErr = multierr.Append(shutdownErr, tty.Close())
	shutdownErr = multierr.Append(shutdownErr, log.Sync())
	if shutdownErr != nil {
		fmt.Fprintln(os.Stderr, "gosh: shutdown:", shutdownErr)
	}
}

type lineResult struct {
	line string
	ok   bool
}

// prompt mirrors shell.c:main's cwd-based prompt with a "# " fallback when
// getcwd fails (e.g. the working directory was removed out from under us).
func prompt() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "# "
	}
	return cwd + ": "
}

var builtinNames = map[string]bool{
	"quit": true, "cd": true, "jobs": true, "fg": true, "bg": true, "kill": true,
}

func isBuiltinName(name string) bool { return builtinNames[name] }

// eval tokenizes one input line and dispatches it, per shell.c:eval: a
// trailing `&` marks the job background, and a single non-piped command
// tries builtins in-process before the launcher is involved at all,
// exactly mirroring do_job's ordering.
func eval(line string, log *zap.Logger, table *jobtable.Table, mon *monitor.Monitor, lnch *launcher.Launcher) {
	tokens := token.Tokenize(line)
	if len(tokens) == 0 {
		return
	}

	background := false
	if tokens[len(tokens)-1].Kind == token.Background {
		tokens = tokens[:len(tokens)-1]
		background = true
	}
	if len(tokens) == 0 {
		return
	}

	stages := splitPipeline(tokens)

	if len(stages) == 1 {
		res, err := redirect.Extract(stages[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "shell: %s\n", err)
			return
		}
		if res.Input != nil {
			res.Input.Close()
		}
		if res.Output != nil {
			res.Output.Close()
		}
		argv := token.Words(res.Argv)
		if len(argv) == 0 {
			return
		}

		if code := builtins.Dispatch(argv, mon, builtins.OSEnv, os.Stderr); code != builtins.NoMatch {
			return
		}
	}

	jobID, err := lnch.Launch(stages, background)
	if err != nil {
		log.Debug("launch failed", zap.Error(err))
		return
	}

	if !background {
		mon.Foreground(jobID)
		reportIfFinished(table, jobID)
	}
}

// splitPipeline divides a token run into stages at each Pipe token, per
// shell.c:do_pipeline's `for (... T_PIPE != token[n+p] ...)` scan.
func splitPipeline(tokens []token.Token) [][]token.Token {
	var stages [][]token.Token
	start := 0
	for i, t := range tokens {
		if t.Kind == token.Pipe {
			stages = append(stages, tokens[start:i])
			start = i + 1
		}
	}
	stages = append(stages, tokens[start:])
	return stages
}

// reapFinished reports and consumes every background job that finished,
// per shell.c:main's `watchjobs(FINISHED)` call after every input line.
func reapFinished(table *jobtable.Table) {
	for _, s := range table.Snapshot() {
		if s.State != jobtable.Finished {
			continue
		}
		reportFinishedSnapshot(s)
		table.Consume(s.ID)
	}
}

// reportIfFinished handles the foreground slot specially: table.Snapshot
// never includes slot 0, so a foreground job that ran to completion (rather
// than stopping) is reported and consumed here instead.
func reportIfFinished(table *jobtable.Table, jobID int) {
	job, ok := table.Get(jobID)
	if !ok || job.State != jobtable.Finished {
		return
	}
	reportExit(jobID, job.Command, job.Procs)
	table.Consume(jobID)
}

func reportFinishedSnapshot(s jobtable.Snapshot) {
	reportExit(s.ID, s.Command, s.Procs)
}

// reportExit renders the line jobs.c:watchjobs prints for a Finished job:
// the state word ("exited"/"killed") from strstate, then the trailing
// status text (", status=N" or " by signal N").
func reportExit(jobID int, command string, procs []jobtable.Process) {
	word, tail := "exited", ""
	if len(procs) > 0 {
		last := procs[len(procs)-1]
		word, tail = last.ExitWord(), last.ExitTail()
	}
	fmt.Fprintf(os.Stderr, "[%d] %s '%s'%s\n", jobID, word, command, tail)
}

// installJobControlSignals routes SIGTSTP/SIGTTIN/SIGTTOU through a
// discarding channel instead of leaving them at their default disposition,
// so the shell itself is never stopped by them (it is not a tty-foreground
// job group member the way its children are). Because signal.Notify
// installs a real handler rather than SIG_IGN, POSIX exec(2) resets this
// disposition back to default for every child the launcher starts — the Go
// equivalent of shell.c:do_job/do_stage explicitly re-arming SIG_DFL for
// these three signals after fork, with no child-side hook required.
func installJobControlSignals() {
	discard := make(chan os.Signal, 8)
	signal.Notify(discard, syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU)
	go func() {
		for range discard {
		}
	}()
}

func installSigint() <-chan os.Signal {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT)
	return sigint
}

// installDiagDump wires SIGUSR1 to a full job-table dump, per
// SPEC_FULL.md's diagnostics component — a troubleshooting hook with no
// original_source analogue, added because the shell otherwise has no way to
// inspect job internals short of killing it under a debugger.
func installDiagDump(table *jobtable.Table) {
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	go func() {
		for range usr1 {
			diag.Dump(os.Stderr, table.Snapshot())
		}
	}()
}

// runReexecBuiltin executes a builtin as its own OS process, the path a
// pipeline stage takes to "try a builtin first" (shell.c:do_stage) since Go
// has no fork() that resumes into arbitrary child-side code. It has no view
// of the parent shell's live job table — a pipeline-positioned `jobs`
// therefore reports no jobs, and state-mutating builtins (cd, fg, bg, kill)
// have no effect on the parent, same as any other shell where builtins in
// a non-leading/trailing pipeline position run in a disposable subprocess.
func runReexecBuiltin(argv []string) int {
	code := builtins.Dispatch(argv, noopController{}, builtins.OSEnv, os.Stderr)
	if code == builtins.NoMatch {
		fmt.Fprintf(os.Stderr, "shell: command not found: %s\n", strings.Join(argv, " "))
		return 127
	}
	return code
}

type noopController struct{}

func (noopController) Jobs() []builtins.JobView                   { return nil }
func (noopController) Consume(int) (builtins.JobView, bool)       { return builtins.JobView{}, false }
func (noopController) Resume(int, bool) bool                      { return false }
func (noopController) Kill(int) bool                              { return false }
func (noopController) HighestResumable() (int, bool)              { return 0, false }
func (noopController) Shutdown()                                  {}
