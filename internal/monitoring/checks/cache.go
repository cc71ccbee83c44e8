package checks

import (
	"context"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/monitoring"
)

// Pinger is implemented by cache backends that hold a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache returns a non-critical probe for the lookup cache. Lookups fall back to the
// database when the cache is down, so a failure only degrades the service.
func Cache(store any) (monitoring.Check, bool) {
	pinger, ok := store.(Pinger)
	if !ok || pinger == nil {
		return monitoring.Check{}, false
	}
	return monitoring.Check{
		Name: "cache",
		Run:  pinger.Ping,
	}, true
}
