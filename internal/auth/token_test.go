package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, err := tokens.Issue("user-1", "order_giver")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, header := range []string{token, "Bearer " + token, "bearer  " + token} {
		actor, err := tokens.Parse(header)
		if err != nil {
			t.Fatalf("parse %q: %v", header, err)
		}
		if actor.UserId != "user-1" || actor.Role != "order_giver" || actor.System {
			t.Fatalf("unexpected actor %+v", actor)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	other, _ := NewTokens("other", time.Hour).Issue("user-1", "provider")

	expired := NewTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Issue("user-1", "provider")

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "Bearer nope", ErrInvalidToken},
		{"wrong secret", other, ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tokens.Parse(tc.header); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestActorFromContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("empty context yielded an actor")
	}
	if _, ok := ActorFromContext(WithActor(context.Background(), Actor{})); ok {
		t.Fatal("anonymous actor accepted")
	}

	actor, ok := ActorFromContext(WithActor(context.Background(), System))
	if !ok || !actor.System || !actor.Is("anyone") {
		t.Fatalf("system actor not recognised: %+v", actor)
	}

	user := Actor{UserId: "u1"}
	if !user.Is("u1") || user.Is("u2") || user.Is("") {
		t.Fatal("Is does not compare user ids")
	}
}
