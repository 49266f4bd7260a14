package rdapbootstrap

import (
	"context"
	"fmt"
	"time"
)

// Policy is a token bucket of Limit tokens that refills continuously over
// Window. A Limit of zero or less disables limiting.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	DefaultAnonymousPolicy     = Policy{Name: "anonymous", Limit: 600, Window: 300 * time.Second}
	DefaultAuthenticatedPolicy = Policy{Name: "authenticated", Limit: 2400, Window: 300 * time.Second}
)

func (p Policy) enabled() bool { return p.Limit > 0 && p.Window > 0 }

// perSecond is the refill rate.
func (p Policy) perSecond() float64 { return float64(p.Limit) / p.Window.Seconds() }

// bucketKey separates buckets of different policies for the same client.
func (p Policy) bucketKey(identity string) string {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("%d/%s", p.Limit, p.Window)
	}
	if identity == "" {
		identity = "unknown"
	}
	return name + ":" + identity
}

// Decision is the outcome of one Allow call. RetryAfter estimates when the
// next token becomes available and is zero when Allowed.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter consumes one token for identity under p without blocking.
type Limiter interface {
	Allow(ctx context.Context, identity string, p Policy) (Decision, error)
}
