// Package auditctx carries request provenance from the HTTP layer down to the
// audit trail without threading it through every service signature.
package auditctx

import "context"

// Actor is who made a request and from where. UserID stays empty on public
// routes such as registration and login.
type Actor struct {
	UserID     string
	AuthMethod string
	ClientIP   string
	UserAgent  string
}

// Anonymous reports whether no authenticated user is attached.
func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

type ctxKey struct{}

// WithActor stores actor on ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, actor)
}

// FromContext returns the actor stored on ctx, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(ctxKey{}).(Actor)
	return actor, ok
}

// Authenticate attaches userID and method while keeping the client details
// already recorded for the request.
func Authenticate(ctx context.Context, userID, method string) context.Context {
	actor, _ := FromContext(ctx)
	actor.UserID = userID
	actor.AuthMethod = method
	return WithActor(ctx, actor)
}
