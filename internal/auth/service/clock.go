package service

import "time"

// Clock supplies the current time to services. Injecting it keeps
// TOTP verification and token expiry deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the Clock used in production wiring.
var SystemClock Clock = systemClock{}
