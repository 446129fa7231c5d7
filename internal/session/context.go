package session

import "context"

type stateContextKey struct{}

// ContextWithState stores the derived auth snapshot in context.
func ContextWithState(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, st)
}

// StateFromContext extracts the auth snapshot placed by the bootstrapper.
// Requests that never passed through it read as anonymous.
func StateFromContext(ctx context.Context) State {
	st, ok := ctx.Value(stateContextKey{}).(State)
	if !ok {
		return State{Status: StatusAnonymous}
	}
	return st
}
