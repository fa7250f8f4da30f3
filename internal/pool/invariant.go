//go:build !debug

package pool

// panicOnViolation is false in release builds: conservation failures are
// logged and returned as ErrConservationViolation.
const panicOnViolation = false
