package memdb

import (
	"context"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type userRepo struct {
	*session
}

func userChange(u entity.User) realtime.Change {
	return realtime.Change{Collection: realtime.Users, DocumentId: u.Id.String(), UserIds: []string{u.Id.String()}}
}

func (r *userRepo) CreateUser(ctx context.Context, user *entity.User) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := user.Id.String()
		if _, ok := t.users[id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		t.users[id] = cloneUser(*user)

		return []realtime.Change{userChange(*user)}, nil
	})
}

func (r *userRepo) GetUserById(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.read(func(t *tables) error {
		stored, ok := t.users[id]
		if !ok {
			return repo_errors.ErrNotFound
		}
		user = cloneUser(stored)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}

	return false
}

func (r *userRepo) providers(keep func(entity.User) bool) []entity.User {
	users := make([]entity.User, 0)
	_ = r.read(func(t *tables) error {
		for _, u := range t.users {
			if keep(u) {
				users = append(users, cloneUser(u))
			}
		}

		return nil
	})
	sortNewestFirst(users, func(u entity.User) (int64, string) {
		return u.CreatedAt.UnixNano(), u.Id.String()
	})

	return users
}

func (r *userRepo) GetProvidersByServiceType(ctx context.Context, roles []string, serviceType string) ([]entity.User, error) {
	return r.providers(func(u entity.User) bool {
		return hasRole(roles, u.Role) && u.ServiceType == serviceType
	}), nil
}

func (r *userRepo) GetProvidersByService(ctx context.Context, roles []string, service string) ([]entity.User, error) {
	return r.providers(func(u entity.User) bool {
		if !hasRole(roles, u.Role) {
			return false
		}
		for _, s := range u.Services {
			if s == service {
				return true
			}
		}
		return false
	}), nil
}

func (r *userRepo) AddProviderRating(ctx context.Context, rating *entity.ProviderRating) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		for _, existing := range t.ratings {
			if existing.RequestId == rating.RequestId {
				return nil, repo_errors.ErrAlreadyExists
			}
		}
		t.ratings[rating.Id.String()] = *rating

		return nil, nil
	})
}

func (r *userRepo) UpdateUserRating(ctx context.Context, userId string, average float64, count int) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		u, ok := t.users[userId]
		if !ok {
			return nil, repo_errors.ErrNotFound
		}
		u.RatingAverage = average
		u.RatingCount = count
		t.users[userId] = u

		return []realtime.Change{userChange(u)}, nil
	})
}
