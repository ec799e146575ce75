package lineedit

import (
	"strings"
	"testing"
)

func TestReadLineReturnsLinesThenEOF(t *testing.T) {
	r := New(strings.NewReader("ls -la\npwd\n"))

	line, ok := r.ReadLine()
	if !ok || line != "ls -la" {
		t.Fatalf("first ReadLine = (%q, %v), want (ls -la, true)", line, ok)
	}

	line, ok = r.ReadLine()
	if !ok || line != "pwd" {
		t.Fatalf("second ReadLine = (%q, %v), want (pwd, true)", line, ok)
	}

	if _, ok = r.ReadLine(); ok {
		t.Fatal("ReadLine should report EOF after the last line")
	}
}

func TestHistorySkipsBlankLines(t *testing.T) {
	r := New(strings.NewReader("ls\n\npwd\n"))
	for {
		if _, ok := r.ReadLine(); !ok {
			break
		}
	}

	hist := r.History()
	want := []string{"ls", "pwd"}
	if len(hist) != len(want) || hist[0] != want[0] || hist[1] != want[1] {
		t.Errorf("History() = %v, want %v", hist, want)
	}
}
