package jobtable

import "testing"

func TestFold(t *testing.T) {
	cases := []struct {
		name   string
		states []State
		want   State
	}{
		{"all finished", []State{Finished, Finished}, Finished},
		{"any running wins", []State{Finished, Running, Stopped}, Running},
		{"stopped beats finished", []State{Finished, Stopped}, Stopped},
		{"single running", []State{Running}, Running},
		{"empty", nil, Finished},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Fold(c.states); got != c.want {
				t.Errorf("Fold(%v) = %v, want %v", c.states, got, c.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if Running.String() != "running" {
		t.Errorf("Running.String() = %q", Running.String())
	}
	if Stopped.String() != "stopped" {
		t.Errorf("Stopped.String() = %q", Stopped.String())
	}
	if Finished.String() != "finished" {
		t.Errorf("Finished.String() = %q", Finished.String())
	}
}
