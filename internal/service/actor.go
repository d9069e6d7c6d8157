package service

import (
	"context"
	"errors"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/repo/repo_errors"
)

func actorFrom(ctx context.Context) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return auth.Actor{}, ErrNoActor
	}

	return actor, nil
}

// orNotFound translates the repository's not-found into the given service error.
func orNotFound(err error, notFound error) error {
	if errors.Is(err, repo_errors.ErrNotFound) {
		return notFound
	}

	return err
}
