package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestService struct {
	repos   *repo.Repositories
	changes realtime.Subscriber
	notify  *notifier
	logger  *slog.Logger
	now     func() time.Time
}

func NewRequestService(deps Dependencies, notify *notifier) *RequestService {
	return &RequestService{
		repos:   deps.Repos,
		changes: deps.Changes,
		notify:  notify,
		logger:  deps.Logger,
		now:     deps.Now,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, input *entity.CreateRequestInput) (*entity.RequestOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if input.OwnerId == "" {
		input.OwnerId = actor.UserId
	}
	if !actor.Is(input.OwnerId) {
		return nil, ErrNotRequestOwner
	}
	ownerId, err := uuid.Parse(input.OwnerId)
	if err != nil {
		return nil, ErrUserNotFound
	}

	currency := input.BudgetCurrency
	if currency == "" {
		currency = common.DefaultCurrency
	}
	var budget decimal.NullDecimal
	if input.BudgetAmount != nil {
		if input.BudgetAmount.IsNegative() {
			return nil, ErrNegativeAmount
		}
		budget = decimal.NewNullDecimal(*input.BudgetAmount)
	}

	now := s.now()
	request := &entity.Request{
		Id:             uuid.New(),
		Title:          input.Title,
		Description:    input.Description,
		ServiceType:    input.ServiceType,
		Priority:       input.Priority,
		Status:         common.RequestPending,
		Location:       input.Location,
		BudgetAmount:   budget,
		BudgetCurrency: currency,
		Contact:        input.Contact,
		Files:          input.Files,
		CreatedBy:      ownerId,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repos.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	return mapRequest(request), nil
}

// canView: the owner, the assigned provider, and while the request is open any provider.
func canView(actor auth.Actor, request *entity.Request) bool {
	if actor.Is(request.CreatedBy.String()) {
		return true
	}
	if request.ProviderId.Valid && actor.Is(request.ProviderId.UUID.String()) {
		return true
	}

	return request.Status == common.RequestPending && common.IsProviderRole(actor.Role)
}

func (s *RequestService) GetRequestById(ctx context.Context, requestId string) (*entity.RequestOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	request, err := s.repos.GetRequestById(ctx, requestId)
	if err != nil {
		return nil, orNotFound(err, ErrRequestNotFound)
	}
	if !canView(actor, request) {
		return nil, ErrNoAccessToRequest
	}

	return mapRequest(request), nil
}

func (s *RequestService) UpdateRequest(ctx context.Context, requestId string, input *entity.UpdateRequestInput) (*entity.RequestOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if input.Empty() {
		return nil, ErrNoNewChanges
	}
	if input.BudgetAmount != nil && input.BudgetAmount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	var updated *entity.Request
	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		request, err := tx.GetRequestByIdForUpdate(ctx, requestId)
		if err != nil {
			return orNotFound(err, ErrRequestNotFound)
		}
		if !actor.Is(request.CreatedBy.String()) {
			return ErrNotRequestOwner
		}
		if common.IsTerminalRequestStatus(request.Status) {
			return ErrRequestClosed
		}

		mergeRequest(request, input)
		request.UpdatedAt = s.now()
		if err := tx.SaveRequest(ctx, request); err != nil {
			return err
		}
		updated = request

		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapRequest(updated), nil
}

func mergeRequest(r *entity.Request, in *entity.UpdateRequestInput) {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.ServiceType != nil {
		r.ServiceType = *in.ServiceType
	}
	if in.Priority != nil {
		r.Priority = *in.Priority
	}
	if in.Location != nil {
		r.Location = *in.Location
	}
	if in.BudgetAmount != nil {
		r.BudgetAmount = decimal.NewNullDecimal(*in.BudgetAmount)
	}
	if in.BudgetCurrency != nil {
		r.BudgetCurrency = *in.BudgetCurrency
	}
	if in.Contact != nil {
		r.Contact = *in.Contact
	}
	if in.Files != nil {
		r.Files = append([]string(nil), (*in.Files)...)
	}
}

// transition moves a request to status inside its own transaction. The
// owner check is skipped for the system actor.
func (s *RequestService) transition(ctx context.Context, requestId string, status string) (*entity.Request, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entity.Request
	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		request, err := tx.GetRequestByIdForUpdate(ctx, requestId)
		if err != nil {
			return orNotFound(err, ErrRequestNotFound)
		}
		if !actor.Is(request.CreatedBy.String()) {
			return ErrNotRequestOwner
		}
		if err := applyRequestStatus(request, status, s.now()); err != nil {
			return err
		}
		if err := tx.SaveRequest(ctx, request); err != nil {
			return err
		}
		updated = request

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// applyRequestStatus enforces the request state machine and stamps the matching timestamp.
func applyRequestStatus(request *entity.Request, status string, at time.Time) error {
	if !common.CanTransitionRequest(request.Status, status) {
		return ErrRequestTransition
	}

	request.Status = status
	request.UpdatedAt = at
	switch status {
	case common.RequestCompleted:
		request.CompletedAt = &at
	case common.RequestCancelled:
		request.CancelledAt = &at
	}

	return nil
}

func (s *RequestService) CancelRequest(ctx context.Context, requestId string) (*entity.RequestOutputModel, error) {
	request, err := s.transition(ctx, requestId, common.RequestCancelled)
	if err != nil {
		return nil, err
	}

	if request.ProviderId.Valid {
		s.notify.notify(ctx, request.ProviderId.UUID.String(), KindRequestUpdated, map[string]string{
			"requestId":    request.Id.String(),
			"requestTitle": request.Title,
			"status":       request.Status,
		})
	}

	return mapRequest(request), nil
}

func (s *RequestService) CompleteRequest(ctx context.Context, requestId string) (*entity.RequestOutputModel, error) {
	request, err := s.transition(ctx, requestId, common.RequestCompleted)
	if err != nil {
		return nil, err
	}

	return mapRequest(request), nil
}

func (s *RequestService) RateRequest(ctx context.Context, requestId string, rating int, review string) (*entity.RequestOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var updated *entity.Request
	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		request, err := tx.GetRequestByIdForUpdate(ctx, requestId)
		if err != nil {
			return orNotFound(err, ErrRequestNotFound)
		}
		if !actor.Is(request.CreatedBy.String()) {
			return ErrNotRequestOwner
		}
		if request.Status != common.RequestCompleted || request.AcceptedQuote == nil || !request.ProviderId.Valid {
			return ErrRequestNotRateable
		}
		if request.Rating != nil {
			return ErrRequestAlreadyRated
		}

		now := s.now()
		request.Rating = &rating
		request.Review = review
		request.RatedAt = &now
		request.UpdatedAt = now
		if err := tx.SaveRequest(ctx, request); err != nil {
			return err
		}

		providerId := request.ProviderId.UUID
		err = tx.AddProviderRating(ctx, &entity.ProviderRating{
			Id:         uuid.New(),
			ProviderId: providerId,
			RequestId:  request.Id,
			AuthorId:   request.CreatedBy,
			Rating:     rating,
			Review:     review,
			CreatedAt:  now,
		})
		if err != nil {
			if errors.Is(err, repo_errors.ErrAlreadyExists) {
				return ErrRequestAlreadyRated
			}
			return err
		}

		provider, err := tx.GetUserById(ctx, providerId.String())
		if err != nil {
			// ratings of providers without a profile are kept, there is no aggregate to update
			if errors.Is(err, repo_errors.ErrNotFound) {
				updated = request
				return nil
			}
			return err
		}
		count := provider.RatingCount + 1
		average := (provider.RatingAverage*float64(provider.RatingCount) + float64(rating)) / float64(count)
		if err := tx.UpdateUserRating(ctx, providerId.String(), average, count); err != nil {
			return err
		}
		updated = request

		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapRequest(updated), nil
}

func (s *RequestService) ListUserRequests(ctx context.Context, pg *entity.PaginationInput) ([]entity.RequestOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	requests, err := s.repos.GetUserRequests(ctx, actor.UserId, pg)
	if err != nil {
		return nil, err
	}

	return mapRequests(requests), nil
}

func (s *RequestService) ListOpenRequests(ctx context.Context, serviceType string, pg *entity.PaginationInput) ([]entity.RequestOutputModel, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}

	requests, err := s.repos.GetOpenRequests(ctx, serviceType, pg)
	if err != nil {
		return nil, err
	}

	return mapRequests(requests), nil
}

func (s *RequestService) SubscribeToUserRequests(ctx context.Context, fn func([]entity.RequestOutputModel)) (func(), error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return subscribe(ctx, s.changes, s.logger, realtime.Requests, actor.UserId,
		func(ctx context.Context) ([]entity.RequestOutputModel, error) {
			requests, err := s.repos.GetUserRequests(ctx, actor.UserId, nil)
			if err != nil {
				return nil, err
			}
			return mapRequests(requests), nil
		}, fn)
}
