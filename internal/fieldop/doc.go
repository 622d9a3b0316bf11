// Package fieldop defines the contracts between the time-integration core
// and the field-evolution operator it drives.
//
// The central interface is [System]: the discretized coupled (E, B) field
// pair together with its curl operator, per-field apply operations, energy
// readout and stability bound. The integrator in package integrate depends
// only on this contract, so a system may be a serial test grid or a
// distributed, mesh-adaptive solver without the integrator knowing which.
//
//   - [System]: curl operator, field views, field rates, energy, rebuild
//   - [Metric]: per-step probes accumulated over a run
//   - [Observer]: push-only sinks fed after each step, no feedback
//
// # Thread Safety
//
// Systems are single-threaded per process. The field buffers returned by
// EField and BField are exclusively the integrator's during a Step call
// and must not be read or written concurrently.
package fieldop
