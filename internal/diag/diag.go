// Package diag prints a full dump of job-table state for troubleshooting,
// wired to SIGUSR1 (the `jobs` builtin takes no flags). Adapted from
// pkg/fmtt/printe.go's spew-based error-chain dumper — same tool, now
// aimed at job/process snapshots instead of error chains.
package diag

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/edirooss/gosh/internal/jobtable"
)

// Dump writes a verbose, field-by-field rendering of every tracked job to w.
func Dump(w io.Writer, snaps []jobtable.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "no jobs")
		return
	}
	for _, s := range snaps {
		fmt.Fprintf(w, "job %d:\n", s.ID)
		spew.Fdump(w, s)
	}
}
