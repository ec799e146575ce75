package jobtable

import (
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Foreground is the reserved, transient slot index holding whichever job
// currently owns the controlling terminal. It is never a user-visible job
// ID.
const Foreground = 0

// Snapshot is a read-only copy of a job's state, returned to callers that
// must not observe concurrent mutation (the `jobs` builtin, the
// introspection API).
type Snapshot struct {
	ID      int
	PGID    int
	State   State
	Command string
	Procs   []Process
}

// Table is the shell's job table: a dense, slot-0-reserved slice of jobs
// addressed by small integer job IDs. Process/job state is mutated only by
// the reaper; the launcher allocates slots and appends processes, and the
// monitor and the finished-job watchers migrate and consume slots. All
// access happens through Table's methods, which take the lock internally.
//
// The condition variable reproduces the race-free "no lost wakeup between
// check and sleep" guarantee that spec.md attributes to sigsuspend: any
// goroutine that changes job state holds mu while doing so and then calls
// Broadcast before releasing it (via the methods below), and any goroutine
// that waits for a state change does so via WaitUntil, which checks the
// predicate and calls cond.Wait under the same mutex. A transition can
// never happen strictly between the check and the wait.
type Table struct {
	log *zap.Logger

	mu   sync.Mutex
	cond *sync.Cond
	jobs []Job
}

// New creates an empty job table with only the reserved foreground slot.
func New(log *zap.Logger) *Table {
	t := &Table{
		log:  log,
		jobs: make([]Job, 1), // slot 0, reserved
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// allocSlot returns the smallest free index, extending the table if none is
// free, per spec.md's "smallest free index, then grow" requirement for
// stable, predictable job IDs. Must be called with mu held.
func (t *Table) allocSlot() int {
	for i := Foreground + 1; i < len(t.jobs); i++ {
		if t.jobs[i].empty() {
			return i
		}
	}
	t.jobs = append(t.jobs, Job{})
	return len(t.jobs) - 1
}

// AddJob creates a new job slot for a just-forked pipeline's first stage.
// background selects slot 0 (foreground) vs an allocated background slot.
func (t *Table) AddJob(pgid int, background bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := Foreground
	if background {
		id = t.allocSlot()
	}

	t.jobs[id] = Job{
		PGID:      pgid,
		State:     Running,
		CreatedAt: time.Now(),
		ID:        uuid.New(),
	}
	return id
}

// AddProc appends a process record to a job as a pipeline stage is forked,
// and extends the job's reconstructed command string.
func (t *Table) AddProc(jobID, pid int, argv []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	j := &t.jobs[jobID]
	j.Procs = append(j.Procs, Process{PID: pid, State: Running})
	j.appendCommand(argv)
}

// ReapUpdate applies a wait(2) transition observed for pid: updates the
// owning process record and recomputes every job's aggregate state (the
// C original recomputes all jobs per reap batch; we do the same to keep
// the fold total and side-effect-free). It then wakes all waiters.
// Reports whether pid belonged to a tracked process.
func (t *Table) ReapUpdate(pid int, transition State, status syscall.WaitStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	found := false
	for i := range t.jobs {
		j := &t.jobs[i]
		for k := range j.Procs {
			if j.Procs[k].PID == pid {
				j.Procs[k].State = transition
				j.Procs[k].Status = status
				found = true
			}
		}
	}

	for i := range t.jobs {
		if !t.jobs[i].empty() {
			t.jobs[i].recomputeState()
		}
	}

	t.cond.Broadcast()
	return found
}

// WaitUntil blocks until pred(job) holds for the job at jobID, then returns
// a snapshot satisfying it. This is the atomic check-then-sleep primitive
// (spec.md's "unblock-and-wait"): the predicate is evaluated under the same
// lock the reaper mutates under, so no transition can be missed between a
// check and the sleep that follows it.
func (t *Table) WaitUntil(jobID int, pred func(Job) bool) Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		j := t.jobs[jobID]
		if pred(j) {
			return j
		}
		t.cond.Wait()
	}
}

// Get returns a copy of the job at jobID and whether the slot is occupied.
func (t *Table) Get(jobID int) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if jobID < 0 || jobID >= len(t.jobs) || t.jobs[jobID].empty() {
		return Job{}, false
	}
	return t.jobs[jobID], true
}

// Consume removes a Finished job's slot and returns its final snapshot. It
// panics if the job is not Finished, matching jobs.c's deljob assertion —
// callers must check state first.
func (t *Table) Consume(jobID int) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if jobID < 0 || jobID >= len(t.jobs) || t.jobs[jobID].empty() {
		return Snapshot{}, false
	}
	j := t.jobs[jobID]
	if j.State != Finished {
		panic(fmt.Sprintf("jobtable: Consume called on non-Finished job %d", jobID))
	}

	snap := snapshotOf(jobID, j)
	t.jobs[jobID] = Job{}
	return snap, true
}

// MigrateToBackground moves the job currently in the foreground slot into a
// freshly allocated background slot, per monitorjob's handling of a
// foreground job that stops. Returns the new job ID.
func (t *Table) MigrateToBackground() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	to := t.allocSlot()
	t.jobs[to] = t.jobs[Foreground]
	t.jobs[Foreground] = Job{}
	return to
}

// MigrateToForeground moves a background job into the foreground slot, per
// resumejob's `fg` path. The foreground slot must be empty.
func (t *Table) MigrateToForeground(jobID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.jobs[Foreground].empty() {
		panic("jobtable: foreground slot already occupied")
	}
	t.jobs[Foreground] = t.jobs[jobID]
	t.jobs[jobID] = Job{}
}

// PGID returns the process-group ID owning jobID.
func (t *Table) PGID(jobID int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if jobID < 0 || jobID >= len(t.jobs) || t.jobs[jobID].empty() {
		return 0, false
	}
	return t.jobs[jobID].PGID, true
}

// HighestResumable returns the highest-numbered non-Finished background job,
// the default target for `fg`/`bg` with no argument.
func (t *Table) HighestResumable() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.jobs) - 1; i > Foreground; i-- {
		if !t.jobs[i].empty() && t.jobs[i].State != Finished {
			return i, true
		}
	}
	return 0, false
}

// Snapshot returns every occupied slot, in job-ID order.
func (t *Table) Snapshot() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Snapshot, 0, len(t.jobs))
	for i := Foreground + 1; i < len(t.jobs); i++ {
		if t.jobs[i].empty() {
			continue
		}
		out = append(out, snapshotOf(i, t.jobs[i]))
	}
	return out
}

func snapshotOf(id int, j Job) Snapshot {
	procs := make([]Process, len(j.Procs))
	copy(procs, j.Procs)
	return Snapshot{ID: id, PGID: j.PGID, State: j.State, Command: j.Command, Procs: procs}
}
