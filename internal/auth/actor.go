package auth

import "context"

// Actor is the caller an operation runs on behalf of.
type Actor struct {
	UserId string
	Role   string
	// System marks trusted internal callers: payment callbacks, scheduled jobs.
	System bool
}

// System is used by the payment callback and the reconciliation job.
var System = Actor{Role: "system", System: true}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || (!actor.System && actor.UserId == "") {
		return Actor{}, false
	}

	return actor, true
}

// Is reports whether the actor is the given user. The system actor is every user.
func (a Actor) Is(userId string) bool {
	return a.System || (userId != "" && a.UserId == userId)
}
