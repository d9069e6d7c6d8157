package memdb

import (
	"context"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type requestRepo struct {
	*session
}

func requestChange(r entity.Request) realtime.Change {
	users := []string{r.CreatedBy.String()}
	if r.ProviderId.Valid {
		users = append(users, r.ProviderId.UUID.String())
	}

	return realtime.Change{Collection: realtime.Requests, DocumentId: r.Id.String(), UserIds: users}
}

func (r *requestRepo) CreateRequest(ctx context.Context, request *entity.Request) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := request.Id.String()
		if _, ok := t.requests[id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		t.requests[id] = cloneRequest(*request)

		return []realtime.Change{requestChange(*request)}, nil
	})
}

func (r *requestRepo) GetRequestById(ctx context.Context, id string) (*entity.Request, error) {
	var request entity.Request
	err := r.read(func(t *tables) error {
		stored, ok := t.requests[id]
		if !ok {
			return repo_errors.ErrNotFound
		}
		request = cloneRequest(stored)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// GetRequestByIdForUpdate needs no row lock: writers are already serialized.
func (r *requestRepo) GetRequestByIdForUpdate(ctx context.Context, id string) (*entity.Request, error) {
	return r.GetRequestById(ctx, id)
}

func (r *requestRepo) SaveRequest(ctx context.Context, request *entity.Request) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := request.Id.String()
		if _, ok := t.requests[id]; !ok {
			return nil, repo_errors.ErrNotFound
		}
		t.requests[id] = cloneRequest(*request)

		return []realtime.Change{requestChange(*request)}, nil
	})
}

func (r *requestRepo) list(pg *entity.PaginationInput, keep func(entity.Request) bool) []entity.Request {
	requests := make([]entity.Request, 0)
	_ = r.read(func(t *tables) error {
		for _, request := range t.requests {
			if keep(request) {
				requests = append(requests, cloneRequest(request))
			}
		}

		return nil
	})
	sortNewestFirst(requests, func(r entity.Request) (int64, string) {
		return r.CreatedAt.UnixNano(), r.Id.String()
	})

	return paginate(requests, pg)
}

func (r *requestRepo) GetUserRequests(ctx context.Context, ownerId string, pg *entity.PaginationInput) ([]entity.Request, error) {
	return r.list(pg, func(request entity.Request) bool {
		return request.CreatedBy.String() == ownerId
	}), nil
}

func (r *requestRepo) GetOpenRequests(ctx context.Context, serviceType string, pg *entity.PaginationInput) ([]entity.Request, error) {
	return r.list(pg, func(request entity.Request) bool {
		return request.Status == common.RequestPending && (serviceType == "" || request.ServiceType == serviceType)
	}), nil
}

func (r *requestRepo) GetPendingRequestsWithAcceptedQuote(ctx context.Context) ([]entity.Request, error) {
	return r.list(nil, func(request entity.Request) bool {
		return request.Status == common.RequestPending && request.AcceptedQuoteId.Valid
	}), nil
}
