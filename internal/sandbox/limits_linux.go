//go:build linux

package sandbox

import (
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sys/unix"
)

func newEnforcer() Enforcer { return prlimitEnforcer{} }

// prlimitEnforcer applies address-space and CPU-time ceilings to an already
// started child via prlimit(2), which needs no cooperation from the child
// and no wrapper binary.
type prlimitEnforcer struct{}

func (prlimitEnforcer) Name() string { return "prlimit" }

func (prlimitEnforcer) Apply(pid int, spec Spec) error {
	if spec.MemoryBytes > 0 {
		lim := unix.Rlimit{Cur: uint64(spec.MemoryBytes), Max: uint64(spec.MemoryBytes)}
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &lim, nil); err != nil {
			return goerr.Wrap(err, "set address space limit", goerr.V("pid", pid), goerr.V("bytes", spec.MemoryBytes))
		}
	}
	if spec.CPUSeconds > 0 {
		lim := unix.Rlimit{Cur: uint64(spec.CPUSeconds), Max: uint64(spec.CPUSeconds)}
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &lim, nil); err != nil {
			return goerr.Wrap(err, "set cpu time limit", goerr.V("pid", pid), goerr.V("seconds", spec.CPUSeconds))
		}
	}
	return nil
}
