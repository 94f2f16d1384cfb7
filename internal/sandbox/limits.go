package sandbox

// Enforcer applies optional OS-level resource ceilings to a started process.
// Implementations are best-effort: an Apply failure never fails the run, the
// soft limits still bound it. The implementation is chosen at build time per
// platform, keeping the execution path free of capability branches.
type Enforcer interface {
	Name() string
	Apply(pid int, spec Spec) error
}

// noopEnforcer is the fallback for platforms without a usable facility.
type noopEnforcer struct{}

func (noopEnforcer) Name() string { return "none" }

func (noopEnforcer) Apply(int, Spec) error { return nil }
