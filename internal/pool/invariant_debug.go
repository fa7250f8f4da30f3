//go:build debug

package pool

// panicOnViolation is true in builds tagged "debug" so that conservation
// failures stop the process at the point of detection.
const panicOnViolation = true
