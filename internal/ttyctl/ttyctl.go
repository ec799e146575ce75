// Package ttyctl wraps the controlling-terminal ioctls the shell needs to
// arbitrate terminal ownership between itself and foreground job groups.
// The standard library has no tcsetpgrp/tcgetpgrp wrapper; golang.org/x/sys
// is already pulled in transitively by the rest of the dependency graph, so
// this package promotes it to a direct, concretely exercised dependency
// rather than shelling out or hand-rolling raw ioctl numbers.
package ttyctl

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Terminal represents a duplicated handle on the controlling terminal,
// mirroring jobs.c:initjobs dup'ing STDIN_FILENO into a CLOEXEC fd so the
// shell retains terminal control independent of stdin redirection.
type Terminal struct {
	fd int
}

// Open duplicates the given file's descriptor for exclusive terminal
// control use and marks it close-on-exec, per jobs.c:initjobs.
func Open(f *os.File) (*Terminal, error) {
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, fmt.Errorf("ttyctl: dup terminal fd: %w", err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ttyctl: set close-on-exec: %w", err)
	}
	return &Terminal{fd: fd}, nil
}

// SetForeground hands the controlling terminal to pgid, the Go equivalent
// of jobs.c's tcsetpgrp(tty_fd, pgid) calls in monitorjob/shutdownjobs.
// Failures are tolerated silently per spec.md §7 ("job-control syscall
// failure... tolerated silently; the signal handler will reconcile
// state") — a race with a group that has already exited is expected, not
// exceptional.
func (t *Terminal) SetForeground(pgid int) {
	_ = unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid)
}

// Foreground returns the process group currently owning the terminal.
func (t *Terminal) Foreground() (int, error) {
	pgid, err := unix.IoctlGetInt(t.fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, fmt.Errorf("ttyctl: get foreground pgrp: %w", err)
	}
	return pgid, nil
}

// Close releases the duplicated descriptor.
func (t *Terminal) Close() error {
	return unix.Close(t.fd)
}
