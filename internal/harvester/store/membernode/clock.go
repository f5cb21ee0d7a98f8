package membernode

import "time"

// Clock supplies the current time for version-id minting and sysmeta
// dates. Injected so tests can produce deterministic, collision-free
// version identifiers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock Clock used in production.
func SystemClock() Clock { return systemClock{} }
