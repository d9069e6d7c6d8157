package pgdb

import (
	"context"

	"service-marketplace-api/internal/entity"

	"github.com/Masterminds/squirrel"
)

// providerMatchAdapter holds the two provider lookups the user schema
// still needs: profiles written before the services array existed carry a
// single service_type, newer ones fill services. Drop the scalar query
// once every row has been migrated to the array.
type providerMatchAdapter struct {
	*conn
}

func (a providerMatchAdapter) byServiceType(ctx context.Context, roles []string, serviceType string) ([]entity.User, error) {
	return a.query(ctx, roles, squirrel.Eq{"service_type": serviceType})
}

func (a providerMatchAdapter) byServicesArray(ctx context.Context, roles []string, service string) ([]entity.User, error) {
	return a.query(ctx, roles, squirrel.Expr("? = ANY(services)", service))
}

func (a providerMatchAdapter) query(ctx context.Context, roles []string, where squirrel.Sqlizer) ([]entity.User, error) {
	sqlReq, args, _ := a.SqlBuilder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"role": roles}).
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		ToSql()

	rows, err := a.db().QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}
