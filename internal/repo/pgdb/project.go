package pgdb

import (
	"context"

	"service-marketplace-api/internal/entity"

	"github.com/Masterminds/squirrel"
)

type ProjectRepo struct {
	*conn
}

var projectColumns = []string{
	"id", "request_id", "quote_id", "provider_id", "client_id", "title", "description", "status", "progress",
	"photos", "comments", "budget", "currency", "created_at", "updated_at", "completed_at",
}

func scanProject(row rowScanner) (*entity.Project, error) {
	var p entity.Project
	err := row.Scan(&p.Id, &p.RequestId, &p.QuoteId, &p.ProviderId, &p.ClientId, &p.Title, &p.Description,
		&p.Status, &p.Progress, &p.Photos, &p.Comments, &p.Budget, &p.Currency, &p.CreatedAt, &p.UpdatedAt,
		&p.CompletedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *ProjectRepo) CreateProject(ctx context.Context, project *entity.Project) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("projects").
		Columns(projectColumns...).
		Values(project.Id, project.RequestId, project.QuoteId, project.ProviderId, project.ClientId, project.Title,
			project.Description, project.Status, project.Progress, project.Photos, project.Comments, project.Budget,
			project.Currency, project.CreatedAt, project.UpdatedAt, project.CompletedAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *ProjectRepo) getOne(ctx context.Context, where squirrel.Sqlizer, forUpdate bool) (*entity.Project, error) {
	builder := r.SqlBuilder.
		Select(projectColumns...).
		From("projects").
		Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	sqlReq, args, _ := builder.ToSql()

	project, err := scanProject(r.db().QueryRowContext(ctx, sqlReq, args...))
	if err != nil {
		return nil, notFound(err)
	}

	return project, nil
}

func (r *ProjectRepo) GetProjectById(ctx context.Context, id string) (*entity.Project, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	return r.getOne(ctx, squirrel.Eq{"id": uuidForm}, false)
}

func (r *ProjectRepo) GetProjectByIdForUpdate(ctx context.Context, id string) (*entity.Project, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	return r.getOne(ctx, squirrel.Eq{"id": uuidForm}, true)
}

func (r *ProjectRepo) GetProjectByQuoteId(ctx context.Context, quoteId string) (*entity.Project, error) {
	uuidForm, err := parseId(quoteId)
	if err != nil {
		return nil, err
	}

	return r.getOne(ctx, squirrel.Eq{"quote_id": uuidForm}, false)
}

func (r *ProjectRepo) SaveProject(ctx context.Context, project *entity.Project) error {
	sqlReq, args, _ := r.SqlBuilder.
		Update("projects").
		SetMap(map[string]any{
			"title":        project.Title,
			"description":  project.Description,
			"status":       project.Status,
			"progress":     project.Progress,
			"photos":       project.Photos,
			"comments":     project.Comments,
			"budget":       project.Budget,
			"currency":     project.Currency,
			"updated_at":   project.UpdatedAt,
			"completed_at": project.CompletedAt,
		}).
		Where("id = ?", project.Id).
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}

	return affectedOrNotFound(res)
}

func (r *ProjectRepo) GetUserProjects(ctx context.Context, userId string, pg *entity.PaginationInput) ([]entity.Project, error) {
	uuidForm, err := parseId(userId)
	if err != nil {
		return make([]entity.Project, 0), nil
	}

	builder := r.SqlBuilder.
		Select(projectColumns...).
		From("projects").
		Where(squirrel.Or{squirrel.Eq{"provider_id": uuidForm}, squirrel.Eq{"client_id": uuidForm}}).
		OrderBy("created_at DESC", "id DESC")
	sqlReq, args, _ := paginate(builder, pg).ToSql()

	rows, err := r.db().QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]entity.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}

	return projects, rows.Err()
}
