package twofa

import "time"

// Clock abstracts time so tests can replace real time. Production code uses
// the system clock by default.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
