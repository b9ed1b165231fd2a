package middleware

import "context"

type contextKey string

const ContextKeyActor contextKey = "actor"

// Actor identifies the human behind a request, taken from the externally
// issued token. It is what the audit chain records for reviewer actions.
type Actor struct {
	Subject string
	Email   string
}

// String renders the actor the way audit entries store it.
func (a Actor) String() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Subject
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	v, ok := ctx.Value(ContextKeyActor).(Actor)
	return v, ok
}
