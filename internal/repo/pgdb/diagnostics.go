package pgdb

import "context"

type DiagnosticsRepo struct {
	*conn
}

func (r *DiagnosticsRepo) Ping(ctx context.Context) error {
	if err := r.Database.PingContext(ctx); err != nil {
		return err
	}

	return nil
}
