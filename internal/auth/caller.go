package auth

import "context"

// Caller is the verified identity behind a request. The zero value is an
// unauthenticated caller.
type Caller struct {
	id string
}

func NewCaller(id string) Caller {
	return Caller{id: id}
}

func (c Caller) ID() string {
	return c.id
}

func (c Caller) Authenticated() bool {
	return c.id != ""
}

type contextKey string

const callerContextKey contextKey = "caller"

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, c)
}

// CallerFromContext returns the caller stored in ctx, or an unauthenticated
// caller when none is present.
func CallerFromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerContextKey).(Caller)
	return c
}
