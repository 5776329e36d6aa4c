package taskgraph

import "go.uber.org/atomic"

// Switches are the process-wide runtime knobs. They are deliberately
// global rather than per-TaskGraph: force_sequential and friends are
// debugging aids that degrade every graph in the process at once.
type Switches struct {
	forceSequential atomic.Bool
	forceLinearDAG  atomic.Bool
	logEnabled      atomic.Bool
	debugMode       atomic.Bool
}

var defaultSwitches Switches

// ForceSequential reports whether Spawn currently degenerates to synchronous
// closure execution with no task created.
func ForceSequential() bool { return defaultSwitches.forceSequential.Load() }

// SetForceSequential sets the force_sequential switch.
func SetForceSequential(v bool) { defaultSwitches.forceSequential.Store(v) }

// ForceLinearDAG reports whether dependency inference currently degenerates
// to a single chain edge per insertion.
func ForceLinearDAG() bool { return defaultSwitches.forceLinearDAG.Load() }

// SetForceLinearDAG sets the force_linear_dag switch.
func SetForceLinearDAG(v bool) { defaultSwitches.forceLinearDAG.Store(v) }

// LogEnabled reports whether task and insertion timings are currently being
// recorded.
func LogEnabled() bool { return defaultSwitches.logEnabled.Load() }

// SetLogEnabled sets the log_enabled switch.
func SetLogEnabled(v bool) { defaultSwitches.logEnabled.Store(v) }

// DebugMode reports whether a recovered closure panic is currently logged
// and marks the graph wedged. Closure panics are recovered in either mode.
func DebugMode() bool { return defaultSwitches.debugMode.Load() }

// SetDebugMode sets the debug_mode switch.
func SetDebugMode(v bool) { defaultSwitches.debugMode.Store(v) }

// ResetSwitches restores every switch to its default (false) value. Intended
// for use between test cases so one test's switches cannot leak into the
// next.
func ResetSwitches() {
	defaultSwitches.forceSequential.Store(false)
	defaultSwitches.forceLinearDAG.Store(false)
	defaultSwitches.logEnabled.Store(false)
	defaultSwitches.debugMode.Store(false)
}
