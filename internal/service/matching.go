package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/repo"
)

type MatchingService struct {
	repos  *repo.Repositories
	notify *notifier
	logger *slog.Logger
}

func NewMatchingService(deps Dependencies, notify *notifier) *MatchingService {
	return &MatchingService{
		repos:  deps.Repos,
		notify: notify,
		logger: deps.Logger,
	}
}

// GetMatchingProviders unions providers matched on the legacy service_type
// field with those listing serviceType in services. A non-empty area keeps
// providers whose service area (or city) contains it, ignoring case;
// providers with neither field are kept. Lookup failures yield fewer
// candidates, never an error.
func (s *MatchingService) GetMatchingProviders(ctx context.Context, serviceType string, area string) []entity.ProviderOutputModel {
	byType, typeErr := s.repos.GetProvidersByServiceType(ctx, common.ProviderRoles, serviceType)
	if typeErr != nil {
		s.logger.Warn("provider lookup by service type failed", "serviceType", serviceType, "error", typeErr)
	}
	byServices, servicesErr := s.repos.GetProvidersByService(ctx, common.ProviderRoles, serviceType)
	if servicesErr != nil {
		s.logger.Warn("provider lookup by services failed", "serviceType", serviceType, "error", servicesErr)
	}

	area = strings.ToLower(strings.TrimSpace(area))
	seen := make(map[string]struct{})
	providers := make([]entity.ProviderOutputModel, 0)
	for _, group := range [][]entity.User{byType, byServices} {
		for _, u := range group {
			id := u.Id.String()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if !servesArea(u, area) {
				continue
			}
			providers = append(providers, *mapProvider(&u))
		}
	}

	return providers
}

func servesArea(u entity.User, area string) bool {
	if area == "" {
		return true
	}
	field := u.ServiceArea
	if field == "" {
		field = u.City
	}
	if field == "" {
		return true
	}

	return strings.Contains(strings.ToLower(field), area)
}

// BroadcastRequest tells every matching provider about an open request and
// confirms the broadcast to its owner. Each recipient is notified on its
// own, one failure doesn't stop the others. It returns how many providers
// were notified.
func (s *MatchingService) BroadcastRequest(ctx context.Context, requestId string, area string) (int, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return 0, err
	}

	request, err := s.repos.GetRequestById(ctx, requestId)
	if err != nil {
		return 0, orNotFound(err, ErrRequestNotFound)
	}
	if !actor.Is(request.CreatedBy.String()) {
		return 0, ErrNotRequestOwner
	}
	if request.Status != common.RequestPending {
		return 0, ErrRequestNotOpen
	}

	where := area
	if where == "" {
		where = request.Location.Address
	}

	notified := 0
	owner := request.CreatedBy.String()
	for _, p := range s.GetMatchingProviders(ctx, request.ServiceType, area) {
		if p.Id == owner {
			continue
		}
		ok := s.notify.notify(ctx, p.Id, KindNewRequestAvailable, map[string]string{
			"requestId":    request.Id.String(),
			"requestTitle": request.Title,
			"serviceType":  request.ServiceType,
			"area":         where,
		})
		if ok {
			notified++
		}
	}

	s.notify.notify(ctx, owner, KindRequestCreated, map[string]string{
		"requestId":     request.Id.String(),
		"requestTitle":  request.Title,
		"providerCount": strconv.Itoa(notified),
	})

	return notified, nil
}
