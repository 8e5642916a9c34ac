// Package ramp drives the stepped concurrency ramp: it owns the step
// sequence, launches the per-user request loops for each step, and emits
// finalized step summaries to the log sink.
package ramp

// Sequence returns the concurrency level of every step in the run:
// start, start+increment, ... stopping at the first value that reaches or
// exceeds max. The sequence is deterministic and finite.
func Sequence(start, increment, max int) []int {
	size := 1
	if max > start {
		size = (max-start+increment-1)/increment + 1
	}
	steps := make([]int, 0, size)
	for s := start; ; s += increment {
		steps = append(steps, s)
		if s >= max {
			return steps
		}
	}
}
