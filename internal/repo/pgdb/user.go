package pgdb

import (
	"context"

	"service-marketplace-api/internal/entity"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type UserRepo struct {
	*conn
	match providerMatchAdapter
}

var userColumns = []string{
	"id", "display_name", "email", "phone", "role", "service_type", "services", "service_area", "city",
	"push_tokens", "rating_average", "rating_count", "created_at",
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.Id, &u.DisplayName, &u.Email, &u.Phone, &u.Role, &u.ServiceType, pq.Array(&u.Services),
		&u.ServiceArea, &u.City, pq.Array(&u.PushTokens), &u.RatingAverage, &u.RatingCount, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *UserRepo) CreateUser(ctx context.Context, user *entity.User) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("users").
		Columns(userColumns...).
		Values(user.Id, user.DisplayName, user.Email, user.Phone, user.Role, user.ServiceType, pq.Array(user.Services),
			user.ServiceArea, user.City, pq.Array(user.PushTokens), user.RatingAverage, user.RatingCount, user.CreatedAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *UserRepo) GetUserById(ctx context.Context, id string) (*entity.User, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Select(userColumns...).
		From("users").
		Where("id = ?", uuidForm).
		ToSql()

	user, err := scanUser(r.db().QueryRowContext(ctx, sqlReq, args...))
	if err != nil {
		return nil, notFound(err)
	}

	return user, nil
}

func (r *UserRepo) GetProvidersByServiceType(ctx context.Context, roles []string, serviceType string) ([]entity.User, error) {
	return r.match.byServiceType(ctx, roles, serviceType)
}

func (r *UserRepo) GetProvidersByService(ctx context.Context, roles []string, service string) ([]entity.User, error) {
	return r.match.byServicesArray(ctx, roles, service)
}

func (r *UserRepo) AddProviderRating(ctx context.Context, rating *entity.ProviderRating) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("provider_ratings").
		Columns("id", "provider_id", "request_id", "author_id", "rating", "review", "created_at").
		Values(rating.Id, rating.ProviderId, rating.RequestId, rating.AuthorId, rating.Rating, rating.Review,
			rating.CreatedAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *UserRepo) UpdateUserRating(ctx context.Context, userId string, average float64, count int) error {
	uuidForm, err := parseId(userId)
	if err != nil {
		return err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Update("users").
		Set("rating_average", average).
		Set("rating_count", count).
		Where(squirrel.Eq{"id": uuidForm}).
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}

	return affectedOrNotFound(res)
}
