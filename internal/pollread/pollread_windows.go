//go:build windows

package pollread

import "syscall"

// Ready always conservatively reports false on Windows: there is no
// portable non-blocking peek for pipes via this package. The have/ack
// interleaving this probe enables is an optimization, never a
// correctness requirement, so always-false is a safe answer.
func Ready(fd uintptr) bool { return false }

// ReadyConn mirrors Ready's conservative behavior for syscall.Conn values.
func ReadyConn(c syscall.Conn) bool { return false }
