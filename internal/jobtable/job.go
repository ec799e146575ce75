package jobtable

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job is a pipeline launched by one input line: a process group and its
// member processes, tracked as a unit.
type Job struct {
	// PGID is the process-group ID, equal to the PID of the first stage.
	// A zero PGID marks the slot empty.
	PGID int
	// Procs holds one record per pipeline stage, in launch order.
	Procs []Process
	// State is the aggregate state, a pure function of Procs (see Fold).
	State State
	// Command is the reconstructed " | "-joined human-readable command.
	Command string

	// CreatedAt and ID are ambient bookkeeping for logs and the
	// introspection API; they are never used to address a job — the
	// user-facing address is always the slot's integer job ID.
	CreatedAt time.Time
	ID        uuid.UUID
}

// empty reports whether the slot holds no job.
func (j *Job) empty() bool { return j.PGID == 0 }

// recomputeState folds the member process states into the job's aggregate
// state. Called only by the reaper, while holding the table lock.
func (j *Job) recomputeState() {
	states := make([]State, len(j.Procs))
	for i, p := range j.Procs {
		states[i] = p.State
	}
	j.State = Fold(states)
}

// exitStatus returns the last stage's captured status, matching jobs.c's
// exitcode(), which reports the final stage of a pipeline as the job's
// outcome.
func (j *Job) exitStatus() Process {
	return j.Procs[len(j.Procs)-1]
}

// appendCommand joins argv into the job's " | "-separated command string,
// mirroring jobs.c:mkcommand.
func (j *Job) appendCommand(argv []string) {
	if j.Command != "" {
		j.Command += " | "
	}
	j.Command += strings.Join(argv, " ")
}
