// Package builtins implements the shell's in-process commands. Per
// spec.md §4.2 they are resolved by exact match on argv[0] before any fork
// decision; the shell's eval consults Dispatch first and only hands the
// command to the launcher on no-match. Grounded on original_source/command.c.
package builtins

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// NoMatch is the sentinel exit code Dispatch returns when argv[0] does not
// name a builtin — the launcher's cue to "try external" (spec.md §4.2).
const NoMatch = -1

// JobController is the subset of job-control operations builtins need.
// Defined here (rather than importing jobtable/monitor directly) so
// builtins has no dependency on the monitor package that implements it,
// keeping the dependency graph a DAG: main wires a *monitor.Monitor in.
type JobController interface {
	// Jobs returns every tracked job, most information sufficient for the
	// `jobs` listing.
	Jobs() []JobView
	// Consume removes a Finished job after it has been reported.
	Consume(jobID int) (JobView, bool)
	// Resume continues jobID (SIGCONT its group); background selects `bg`
	// vs `fg` semantics. Reports whether jobID existed and was resumable.
	Resume(jobID int, background bool) bool
	// Kill delivers termination (and, if stopped, continue) to jobID's
	// group. Reports whether jobID existed.
	Kill(jobID int) bool
	// HighestResumable returns the default target job for bare fg/bg.
	HighestResumable() (int, bool)
	// Shutdown terminates every tracked job, waits for them to finish, and
	// reports them — the `quit` and EOF teardown sequence.
	Shutdown()
}

// JobView is the read-only job shape builtins format for the user.
type JobView struct {
	ID       int
	PGID     int
	State    string // "running" | "stopped" | "exited" | "killed"
	Command  string
	Exit     string // trailing status text (", status=N" or " by signal N"), set only when Terminal
	Terminal bool // true once the job has reached exited/killed and should be consumed after reporting
}

// Env abstracts the environment lookups `cd` needs, so builtins stays
// testable without mutating the real process environment.
type Env interface {
	Getenv(key string) string
	Chdir(path string) error
}

type osEnv struct{}

func (osEnv) Getenv(key string) string  { return os.Getenv(key) }
func (osEnv) Chdir(path string) error   { return os.Chdir(path) }

// OSEnv is the production Env backed by the real process.
var OSEnv Env = osEnv{}

// Dispatch resolves argv[0] against the builtin table and, on a match, runs
// it to completion, writing diagnostics to stderr per spec.md §6 ("status
// and diagnostic messages are written to standard error"). It returns
// NoMatch if argv[0] is not a builtin name.
//
// quit never returns: it calls ctl.Shutdown() and exits the process, the Go
// analogue of do_quit's `exit(EXIT_SUCCESS)`.
func Dispatch(argv []string, ctl JobController, env Env, stderr io.Writer) int {
	if len(argv) == 0 {
		return NoMatch
	}

	switch argv[0] {
	case "quit":
		ctl.Shutdown()
		os.Exit(0)
		panic("unreachable")
	case "cd":
		return doChdir(argv[1:], env, stderr)
	case "jobs":
		return doJobs(ctl, stderr)
	case "fg":
		return doResume(argv[1:], ctl, stderr, false)
	case "bg":
		return doResume(argv[1:], ctl, stderr, true)
	case "kill":
		return doKill(argv[1:], ctl, stderr)
	default:
		return NoMatch
	}
}

func doChdir(args []string, env Env, stderr io.Writer) int {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		path = env.Getenv("HOME")
	}
	if path == "" {
		fmt.Fprintf(stderr, "cd: HOME not set\n")
		return 1
	}

	if strings.HasPrefix(path, "~/") {
		path = env.Getenv("HOME") + "/" + path[2:]
	}

	if err := env.Chdir(path); err != nil {
		fmt.Fprintf(stderr, "cd: %s: %s\n", strerror(err), path)
		return 1
	}
	return 0
}

// strerror renders an error the way C's strerror(errno) would, unwrapping
// the syscall.Errno Go's os package wraps path errors around.
func strerror(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return err.Error()
}

func doJobs(ctl JobController, stderr io.Writer) int {
	for _, j := range ctl.Jobs() {
		fmt.Fprintf(stderr, "[%d] %s '%s'", j.ID, j.State, j.Command)
		if j.Terminal {
			fmt.Fprintf(stderr, "%s\n", j.Exit)
			ctl.Consume(j.ID)
		} else {
			fmt.Fprintln(stderr)
		}
	}
	return 0
}

func doResume(args []string, ctl JobController, stderr io.Writer, background bool) int {
	name := "fg"
	if background {
		name = "bg"
	}

	jobID, ok := resolveJobArg(args, ctl)
	if !ok {
		fmt.Fprintf(stderr, "%s: no current job\n", name)
		return 1
	}

	if !ctl.Resume(jobID, background) {
		fmt.Fprintf(stderr, "%s: job not found: %d\n", name, jobID)
		return 1
	}
	return 0
}

func resolveJobArg(args []string, ctl JobController) (int, bool) {
	if len(args) == 0 {
		return ctl.HighestResumable()
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

func doKill(args []string, ctl JobController, stderr io.Writer) int {
	if len(args) == 0 || !strings.HasPrefix(args[0], "%") {
		fmt.Fprintf(stderr, "kill: usage: kill %%N\n")
		return 1
	}

	n, err := strconv.Atoi(args[0][1:])
	if err != nil {
		fmt.Fprintf(stderr, "kill: usage: kill %%N\n")
		return 1
	}

	if !ctl.Kill(n) {
		fmt.Fprintf(stderr, "kill: job not found: %s\n", args[0])
		return 1
	}
	return 0
}
