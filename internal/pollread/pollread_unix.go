//go:build !windows

// Package pollread implements an advisory readability probe: a
// non-blocking check for whether a file descriptor currently has data
// available, used to interleave ACK reads with have-writes during fetch
// negotiation without ever blocking the caller. Generalized to both
// sockets and subprocess pipes via golang.org/x/sys/unix.Poll with a zero
// timeout.
package pollread

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Ready reports whether fd has data available to read right now, without
// blocking. It conservatively returns false on any error: the probe is
// advisory only, so a false negative merely skips an optimization, it
// never breaks correctness.
func Ready(fd uintptr) bool {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n <= 0 {
		return false
	}
	return fds[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0
}

// ReadyConn reports whether a syscall.Conn (most net.Conn implementations,
// and *os.File for pipes) currently has data available.
func ReadyConn(c syscall.Conn) bool {
	raw, err := c.SyscallConn()
	if err != nil {
		return false
	}

	var ready bool
	err = raw.Control(func(fd uintptr) {
		ready = Ready(fd)
	})
	if err != nil {
		return false
	}
	return ready
}
