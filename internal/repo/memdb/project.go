package memdb

import (
	"context"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type projectRepo struct {
	*session
}

func projectChange(p entity.Project) realtime.Change {
	return realtime.Change{
		Collection: realtime.Projects,
		DocumentId: p.Id.String(),
		UserIds:    []string{p.ProviderId.String(), p.ClientId.String()},
	}
}

func (r *projectRepo) CreateProject(ctx context.Context, project *entity.Project) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := project.Id.String()
		if _, ok := t.projects[id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		for _, existing := range t.projects {
			if existing.QuoteId == project.QuoteId {
				return nil, repo_errors.ErrAlreadyExists
			}
		}
		t.projects[id] = cloneProject(*project)

		return []realtime.Change{projectChange(*project)}, nil
	})
}

func (r *projectRepo) find(match func(entity.Project) bool) (*entity.Project, error) {
	var project entity.Project
	err := r.read(func(t *tables) error {
		for _, stored := range t.projects {
			if match(stored) {
				project = cloneProject(stored)
				return nil
			}
		}

		return repo_errors.ErrNotFound
	})
	if err != nil {
		return nil, err
	}

	return &project, nil
}

func (r *projectRepo) GetProjectById(ctx context.Context, id string) (*entity.Project, error) {
	return r.find(func(p entity.Project) bool { return p.Id.String() == id })
}

func (r *projectRepo) GetProjectByIdForUpdate(ctx context.Context, id string) (*entity.Project, error) {
	return r.GetProjectById(ctx, id)
}

func (r *projectRepo) GetProjectByQuoteId(ctx context.Context, quoteId string) (*entity.Project, error) {
	return r.find(func(p entity.Project) bool { return p.QuoteId.String() == quoteId })
}

func (r *projectRepo) SaveProject(ctx context.Context, project *entity.Project) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := project.Id.String()
		if _, ok := t.projects[id]; !ok {
			return nil, repo_errors.ErrNotFound
		}
		t.projects[id] = cloneProject(*project)

		return []realtime.Change{projectChange(*project)}, nil
	})
}

func (r *projectRepo) GetUserProjects(ctx context.Context, userId string, pg *entity.PaginationInput) ([]entity.Project, error) {
	projects := make([]entity.Project, 0)
	_ = r.read(func(t *tables) error {
		for _, p := range t.projects {
			if p.ProviderId.String() == userId || p.ClientId.String() == userId {
				projects = append(projects, cloneProject(p))
			}
		}

		return nil
	})
	sortNewestFirst(projects, func(p entity.Project) (int64, string) {
		return p.CreatedAt.UnixNano(), p.Id.String()
	})

	return paginate(projects, pg), nil
}
