package coordinator

import "syscall"

// Signaler delivers a signal to a worker process. Abstracted behind an
// interface so tests can run worker doubles that react to command
// frames directly, without needing real OS processes to signal.
type Signaler interface {
	Signal(pid int, sig syscall.Signal) error
}

// osSignaler is the production Signaler: a plain kill(2).
type osSignaler struct{}

func (osSignaler) Signal(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}
