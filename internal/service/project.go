package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
)

type ProjectService struct {
	repos   *repo.Repositories
	changes realtime.Subscriber
	notify  *notifier
	logger  *slog.Logger
	now     func() time.Time
}

func NewProjectService(deps Dependencies, notify *notifier) *ProjectService {
	return &ProjectService{
		repos:   deps.Repos,
		changes: deps.Changes,
		notify:  notify,
		logger:  deps.Logger,
		now:     deps.Now,
	}
}

func (s *ProjectService) GetProjectById(ctx context.Context, projectId string) (*entity.ProjectOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	project, err := s.repos.GetProjectById(ctx, projectId)
	if err != nil {
		return nil, orNotFound(err, ErrProjectNotFound)
	}
	if !actor.Is(project.ProviderId.String()) && !actor.Is(project.ClientId.String()) {
		return nil, ErrNoAccessToProject
	}

	return mapProject(project), nil
}

func (s *ProjectService) ListUserProjects(ctx context.Context, pg *entity.PaginationInput) ([]entity.ProjectOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := s.repos.GetUserProjects(ctx, actor.UserId, pg)
	if err != nil {
		return nil, err
	}

	return mapProjects(projects), nil
}

// update applies change to the locked project of the calling provider.
func (s *ProjectService) update(ctx context.Context, projectId string, change func(p *entity.Project, now time.Time) error) (*entity.Project, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entity.Project
	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		project, err := tx.GetProjectByIdForUpdate(ctx, projectId)
		if err != nil {
			return orNotFound(err, ErrProjectNotFound)
		}
		if !actor.Is(project.ProviderId.String()) {
			return ErrNotProjectProvider
		}
		if project.Status == common.ProjectCompleted {
			return ErrProjectCompleted
		}

		now := s.now()
		if err := change(project, now); err != nil {
			return err
		}
		project.UpdatedAt = now
		if err := tx.SaveProject(ctx, project); err != nil {
			return err
		}
		updated = project

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func clampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}

	return progress
}

// UpdateProjectProgress stores the provider's progress. Progress 100 and
// status completed imply each other on the project; the request and its
// invoice are left alone, only payment completes those.
func (s *ProjectService) UpdateProjectProgress(ctx context.Context, projectId string, progress int, updates *entity.ProjectUpdatesInput) (*entity.ProjectOutputModel, error) {
	if updates == nil {
		updates = &entity.ProjectUpdatesInput{}
	}
	if updates.Status != nil && *updates.Status != common.ProjectActive && *updates.Status != common.ProjectCompleted {
		return nil, ErrUnknownProjectStatus
	}
	if updates.Comment != nil && strings.TrimSpace(*updates.Comment) == "" {
		return nil, ErrEmptyComment
	}
	if updates.Photo != nil && updates.Photo.Url == "" {
		return nil, ErrEmptyPhotoUrl
	}
	actor, _ := actorFrom(ctx)

	project, err := s.update(ctx, projectId, func(p *entity.Project, now time.Time) error {
		p.Progress = clampProgress(progress)
		if updates.Status != nil && *updates.Status == common.ProjectCompleted {
			p.Progress = 100
		}
		if p.Progress == 100 {
			p.Status = common.ProjectCompleted
			p.CompletedAt = &now
		}
		if updates.Comment != nil {
			p.Comments = append(p.Comments, entity.Comment{Text: *updates.Comment, AuthorId: actor.UserId, CreatedAt: now})
		}
		if updates.Photo != nil {
			photo := *updates.Photo
			if photo.UploadedAt.IsZero() {
				photo.UploadedAt = now
			}
			p.Photos = append(p.Photos, photo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if project.Status == common.ProjectCompleted {
		s.notify.notify(ctx, project.ClientId.String(), KindRequestUpdated, map[string]string{
			"requestId":    project.RequestId.String(),
			"requestTitle": project.Title,
			"status":       "ready for payment",
			"projectId":    project.Id.String(),
		})
	}

	return mapProject(project), nil
}

func (s *ProjectService) AddProjectComment(ctx context.Context, projectId string, text string) (*entity.ProjectOutputModel, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}
	actor, _ := actorFrom(ctx)

	project, err := s.update(ctx, projectId, func(p *entity.Project, now time.Time) error {
		p.Comments = append(p.Comments, entity.Comment{Text: text, AuthorId: actor.UserId, CreatedAt: now})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapProject(project), nil
}

func (s *ProjectService) AddProjectPhoto(ctx context.Context, projectId string, photo entity.Photo) (*entity.ProjectOutputModel, error) {
	if photo.Url == "" {
		return nil, ErrEmptyPhotoUrl
	}

	project, err := s.update(ctx, projectId, func(p *entity.Project, now time.Time) error {
		if photo.UploadedAt.IsZero() {
			photo.UploadedAt = now
		}
		p.Photos = append(p.Photos, photo)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapProject(project), nil
}

func (s *ProjectService) SubscribeToUserProjects(ctx context.Context, fn func([]entity.ProjectOutputModel)) (func(), error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return subscribe(ctx, s.changes, s.logger, realtime.Projects, actor.UserId,
		func(ctx context.Context) ([]entity.ProjectOutputModel, error) {
			projects, err := s.repos.GetUserProjects(ctx, actor.UserId, nil)
			if err != nil {
				return nil, err
			}
			return mapProjects(projects), nil
		}, fn)
}
