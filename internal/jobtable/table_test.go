package jobtable

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestTable() *Table {
	return New(zap.NewNop())
}

func TestAddJobAssignsForegroundSlot(t *testing.T) {
	tbl := newTestTable()
	id := tbl.AddJob(1234, false)
	if id != Foreground {
		t.Errorf("foreground AddJob returned slot %d, want %d", id, Foreground)
	}
}

func TestAddJobAllocatesSmallestFreeBackgroundSlot(t *testing.T) {
	tbl := newTestTable()
	a := tbl.AddJob(100, true)
	b := tbl.AddJob(200, true)
	if a == Foreground || b == Foreground {
		t.Fatalf("background jobs must not land in the foreground slot: a=%d b=%d", a, b)
	}
	if a == b {
		t.Fatalf("two background jobs got the same slot %d", a)
	}
	if a != 1 || b != 2 {
		t.Errorf("background slots = (%d, %d), want (1, 2)", a, b)
	}
}

func TestConsumePanicsUnlessFinished(t *testing.T) {
	tbl := newTestTable()
	id := tbl.AddJob(100, true)
	tbl.AddProc(id, 100, []string{"sleep", "1"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected Consume to panic on a Running job")
		}
	}()
	tbl.Consume(id)
}

func TestReapUpdateRecomputesAggregateAndConsume(t *testing.T) {
	tbl := newTestTable()
	id := tbl.AddJob(100, true)
	tbl.AddProc(id, 100, []string{"true"})

	var status syscall.WaitStatus
	if !tbl.ReapUpdate(100, Finished, status) {
		t.Fatal("ReapUpdate should report pid 100 as tracked")
	}

	job, ok := tbl.Get(id)
	if !ok || job.State != Finished {
		t.Fatalf("job state = %+v, want Finished", job)
	}

	if _, ok := tbl.Consume(id); !ok {
		t.Fatal("Consume should succeed once Finished")
	}
	if _, ok := tbl.Get(id); ok {
		t.Fatal("slot should be empty after Consume")
	}
}

func TestReapUpdateUnknownPID(t *testing.T) {
	tbl := newTestTable()
	var status syscall.WaitStatus
	if tbl.ReapUpdate(99999, Finished, status) {
		t.Fatal("ReapUpdate should report false for an untracked pid")
	}
}

func TestWaitUntilWakesOnBroadcast(t *testing.T) {
	tbl := newTestTable()
	id := tbl.AddJob(100, true)
	tbl.AddProc(id, 100, []string{"sleep", "1"})

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan Job, 1)
	go func() {
		defer wg.Done()
		done <- tbl.WaitUntil(id, func(j Job) bool { return j.State == Finished })
	}()

	// Give the waiter a chance to block before the transition arrives.
	time.Sleep(10 * time.Millisecond)

	var status syscall.WaitStatus
	tbl.ReapUpdate(100, Finished, status)

	select {
	case j := <-done:
		if j.State != Finished {
			t.Errorf("WaitUntil returned state %v, want Finished", j.State)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitUntil did not wake within 1s of ReapUpdate")
	}
	wg.Wait()
}

func TestMigrateToForegroundPanicsIfOccupied(t *testing.T) {
	tbl := newTestTable()
	tbl.AddJob(100, false) // occupies the foreground slot
	bg := tbl.AddJob(200, true)

	defer func() {
		if recover() == nil {
			t.Fatal("expected MigrateToForeground to panic with foreground slot occupied")
		}
	}()
	tbl.MigrateToForeground(bg)
}

func TestHighestResumableSkipsFinished(t *testing.T) {
	tbl := newTestTable()
	low := tbl.AddJob(100, true)
	high := tbl.AddJob(200, true)
	tbl.AddProc(high, 200, []string{"sleep", "1"})
	tbl.AddProc(low, 100, []string{"sleep", "1"})

	var status syscall.WaitStatus
	tbl.ReapUpdate(200, Finished, status)

	got, ok := tbl.HighestResumable()
	if !ok || got != low {
		t.Errorf("HighestResumable = (%d, %v), want (%d, true)", got, ok, low)
	}
}
