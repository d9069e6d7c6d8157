package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	fallbackProviderName = "Service Provider"
	fallbackClientName   = "Client"
)

type QuoteService struct {
	repos   *repo.Repositories
	changes realtime.Subscriber
	notify  *notifier
	logger  *slog.Logger
	now     func() time.Time
}

func NewQuoteService(deps Dependencies, notify *notifier) *QuoteService {
	return &QuoteService{
		repos:   deps.Repos,
		changes: deps.Changes,
		notify:  notify,
		logger:  deps.Logger,
		now:     deps.Now,
	}
}

func validPackage(p string) bool {
	switch p {
	case "", common.PackageBasic, common.PackageStandard, common.PackagePremium:
		return true
	}

	return false
}

func validDeliverySpeed(d string) bool {
	switch d {
	case "", common.DeliveryStandard, common.DeliveryExpress, common.DeliveryUrgent:
		return true
	}

	return false
}

func (s *QuoteService) SendQuote(ctx context.Context, input *entity.CreateQuoteInput) (*entity.QuoteOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if input.ProviderId == "" {
		input.ProviderId = actor.UserId
	}
	if !actor.Is(input.ProviderId) || (!actor.System && !common.IsProviderRole(actor.Role)) {
		return nil, ErrProviderRequired
	}
	providerId, err := uuid.Parse(input.ProviderId)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if input.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if !validPackage(input.Package) {
		return nil, ErrUnknownPackage
	}
	if !validDeliverySpeed(input.DeliverySpeed) {
		return nil, ErrUnknownDeliverySpeed
	}

	request, err := s.repos.GetRequestById(ctx, input.RequestId)
	if err != nil {
		return nil, orNotFound(err, ErrRequestNotFound)
	}
	if request.Status != common.RequestPending {
		return nil, ErrRequestNotOpen
	}
	if request.CreatedBy == providerId {
		return nil, ErrQuoteOwnRequest
	}

	currency := input.Currency
	if currency == "" {
		currency = common.DefaultCurrency
	}

	now := s.now()
	quote := &entity.Quote{
		Id:               uuid.New(),
		RequestId:        request.Id,
		ProviderId:       providerId,
		ClientId:         request.CreatedBy,
		Amount:           input.Amount,
		Currency:         currency,
		Duration:         input.Duration,
		Note:             input.Note,
		Package:          input.Package,
		DeliverySpeed:    input.DeliverySpeed,
		Revisions:        input.Revisions,
		IncludeMaterials: input.IncludeMaterials,
		Attachments:      input.Attachments,
		Status:           common.QuotePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repos.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}

	s.notify.notify(ctx, request.CreatedBy.String(), KindNewQuote, map[string]string{
		"providerName": lookupDisplayName(ctx, s.repos, providerId.String(), fallbackProviderName),
		"amount":       quote.Amount.StringFixed(2),
		"currency":     quote.Currency,
		"requestTitle": request.Title,
		"requestId":    request.Id.String(),
		"quoteId":      quote.Id.String(),
	})

	return mapQuote(quote), nil
}

// lookupDisplayName falls back when the profile can't be read.
func lookupDisplayName(ctx context.Context, users repo.User, userId string, fallback string) string {
	user, err := users.GetUserById(ctx, userId)
	if err != nil || user.DisplayName == "" {
		return fallback
	}

	return user.DisplayName
}

func (s *QuoteService) GetQuoteById(ctx context.Context, quoteId string) (*entity.QuoteOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := s.repos.GetQuoteById(ctx, quoteId)
	if err != nil {
		return nil, orNotFound(err, ErrQuoteNotFound)
	}
	if !actor.Is(quote.ProviderId.String()) && !actor.Is(quote.ClientId.String()) {
		return nil, ErrNoAccessToQuote
	}

	return mapQuote(quote), nil
}

type acceptance struct {
	quote   *entity.Quote
	request *entity.Request
	project *entity.Project
	// fresh is false when the quote had already been accepted
	fresh bool
}

func (s *QuoteService) AcceptQuote(ctx context.Context, quoteId string) (*entity.AcceptQuoteOutputModel, error) {
	a, err := s.accept(ctx, quoteId)
	if err != nil {
		return nil, err
	}

	return &entity.AcceptQuoteOutputModel{
		Quote:   *mapQuote(a.quote),
		Request: *mapRequest(a.request),
		Project: *mapProject(a.project),
	}, nil
}

// accept runs the whole acceptance as one transaction: quote status,
// request assignment and project creation. The request row is locked first,
// so two quotes of one request can never both be accepted. Accepting the
// already accepted quote again returns the stored state.
func (s *QuoteService) accept(ctx context.Context, quoteId string) (*acceptance, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var a *acceptance
	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		quote, err := tx.GetQuoteById(ctx, quoteId)
		if err != nil {
			return orNotFound(err, ErrQuoteNotFound)
		}
		if !actor.Is(quote.ClientId.String()) {
			return ErrNotRequestOwner
		}

		request, err := tx.GetRequestByIdForUpdate(ctx, quote.RequestId.String())
		if err != nil {
			return orNotFound(err, ErrRequestNotFound)
		}

		if quote.Status == common.QuoteAccepted && request.AcceptedQuoteId.Valid && request.AcceptedQuoteId.UUID == quote.Id {
			project, err := s.ensureProject(ctx, tx, request, quote)
			if err != nil {
				return err
			}
			a = &acceptance{quote: quote, request: request, project: project}
			return nil
		}

		if request.Status != common.RequestPending {
			return ErrRequestNotOpen
		}

		now := s.now()
		ok, err := tx.UpdateQuoteStatusIf(ctx, quote.Id.String(), common.QuotePending, common.QuoteAccepted, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrQuoteNotPending
		}
		quote.Status = common.QuoteAccepted
		quote.UpdatedAt = now

		project, err := s.assign(ctx, tx, request, quote, now)
		if err != nil {
			return err
		}
		a = &acceptance{quote: quote, request: request, project: project, fresh: true}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.fresh {
		s.notify.notify(ctx, a.quote.ProviderId.String(), KindQuoteAccepted, map[string]string{
			"amount":       a.quote.Amount.StringFixed(2),
			"currency":     a.quote.Currency,
			"requestTitle": a.request.Title,
			"requestId":    a.request.Id.String(),
			"quoteId":      a.quote.Id.String(),
			"projectId":    a.project.Id.String(),
		})
	}

	return a, nil
}

// assign records the accepted quote on its locked request, moves the
// request to in_progress and opens the project.
func (s *QuoteService) assign(ctx context.Context, tx *repo.Repositories, request *entity.Request, quote *entity.Quote, now time.Time) (*entity.Project, error) {
	if err := applyRequestStatus(request, common.RequestInProgress, now); err != nil {
		return nil, err
	}
	request.ProviderAssigned = true
	request.ProviderId = uuid.NullUUID{UUID: quote.ProviderId, Valid: true}
	request.AcceptedQuoteId = uuid.NullUUID{UUID: quote.Id, Valid: true}
	request.AcceptedQuote = &entity.AcceptedQuote{
		QuoteId:      quote.Id.String(),
		ProviderId:   quote.ProviderId.String(),
		ProviderName: lookupDisplayName(ctx, tx, quote.ProviderId.String(), fallbackProviderName),
		Price:        quote.Amount,
		AcceptedAt:   now,
	}
	if err := tx.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	return s.ensureProject(ctx, tx, request, quote)
}

// ensureProject returns the project of an accepted quote, opening it when missing.
func (s *QuoteService) ensureProject(ctx context.Context, tx *repo.Repositories, request *entity.Request, quote *entity.Quote) (*entity.Project, error) {
	project, err := tx.GetProjectByQuoteId(ctx, quote.Id.String())
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, repo_errors.ErrNotFound) {
		return nil, err
	}

	currency := request.BudgetCurrency
	if currency == "" {
		currency = quote.Currency
	}
	now := s.now()
	project = &entity.Project{
		Id:          uuid.New(),
		RequestId:   request.Id,
		QuoteId:     quote.Id,
		ProviderId:  quote.ProviderId,
		ClientId:    request.CreatedBy,
		Title:       request.Title,
		Description: request.Description,
		Status:      common.ProjectActive,
		Progress:    0,
		Photos:      entity.Photos{},
		Comments:    entity.Comments{},
		Budget:      request.BudgetAmount,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// repairAcceptance finishes an acceptance whose request still reads
// pending although it names an accepted quote.
func (s *QuoteService) repairAcceptance(ctx context.Context, requestId string) (bool, error) {
	repaired := false
	err := s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		request, err := tx.GetRequestByIdForUpdate(ctx, requestId)
		if err != nil {
			return orNotFound(err, ErrRequestNotFound)
		}
		if request.Status != common.RequestPending || !request.AcceptedQuoteId.Valid {
			return nil
		}

		quote, err := tx.GetQuoteById(ctx, request.AcceptedQuoteId.UUID.String())
		if err != nil {
			return orNotFound(err, ErrQuoteNotFound)
		}
		now := s.now()
		if quote.Status == common.QuotePending {
			if _, err := tx.UpdateQuoteStatusIf(ctx, quote.Id.String(), common.QuotePending, common.QuoteAccepted, now); err != nil {
				return err
			}
			quote.Status = common.QuoteAccepted
		}
		if quote.Status != common.QuoteAccepted {
			return ErrQuoteNotPending
		}

		if _, err := s.assign(ctx, tx, request, quote, now); err != nil {
			return err
		}
		repaired = true

		return nil
	})

	return repaired, err
}

// setStatus moves a pending quote to status once allowed(quote) passes.
func (s *QuoteService) setStatus(ctx context.Context, quoteId string, status string, allowed func(*entity.Quote) error) (*entity.QuoteOutputModel, error) {
	quote, err := s.repos.GetQuoteById(ctx, quoteId)
	if err != nil {
		return nil, orNotFound(err, ErrQuoteNotFound)
	}
	if err := allowed(quote); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repos.UpdateQuoteStatusIf(ctx, quoteId, common.QuotePending, status, now)
	if err != nil {
		return nil, orNotFound(err, ErrQuoteNotFound)
	}
	if !ok {
		return nil, ErrQuoteNotPending
	}
	quote.Status = status
	quote.UpdatedAt = now

	return mapQuote(quote), nil
}

func (s *QuoteService) RejectQuote(ctx context.Context, quoteId string) (*entity.QuoteOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return s.setStatus(ctx, quoteId, common.QuoteRejected, func(q *entity.Quote) error {
		if !actor.Is(q.ClientId.String()) {
			return ErrNotRequestOwner
		}
		return nil
	})
}

func (s *QuoteService) WithdrawQuote(ctx context.Context, quoteId string) (*entity.QuoteOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return s.setStatus(ctx, quoteId, common.QuoteWithdrawn, func(q *entity.Quote) error {
		if !actor.Is(q.ProviderId.String()) {
			return ErrNotQuoteProvider
		}
		return nil
	})
}

// GetQuotesForUser lists the quotes a provider sent, or the quotes an order giver received.
func (s *QuoteService) GetQuotesForUser(ctx context.Context, pg *entity.PaginationInput) ([]entity.QuoteOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var quotes []entity.Quote
	if common.IsProviderRole(actor.Role) {
		quotes, err = s.repos.GetProviderQuotes(ctx, actor.UserId, pg)
	} else {
		quotes, err = s.repos.GetClientQuotes(ctx, actor.UserId, pg)
	}
	if err != nil {
		return nil, err
	}

	return mapQuotes(quotes), nil
}

// ListRequestQuotes shows the owner every quote of the request and a provider only its own.
func (s *QuoteService) ListRequestQuotes(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.QuoteOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	request, err := s.repos.GetRequestById(ctx, requestId)
	if err != nil {
		return nil, orNotFound(err, ErrRequestNotFound)
	}
	if actor.Is(request.CreatedBy.String()) {
		quotes, err := s.repos.GetRequestQuotes(ctx, requestId, pg)
		if err != nil {
			return nil, err
		}
		return mapQuotes(quotes), nil
	}

	quotes, err := s.repos.GetRequestQuotes(ctx, requestId, nil)
	if err != nil {
		return nil, err
	}
	own := make([]entity.Quote, 0)
	for _, q := range quotes {
		if q.ProviderId.String() == actor.UserId {
			own = append(own, q)
		}
	}

	return mapQuotes(own), nil
}

func (s *QuoteService) SubscribeToProviderQuotes(ctx context.Context, fn func([]entity.QuoteOutputModel)) (func(), error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return subscribe(ctx, s.changes, s.logger, realtime.Quotes, actor.UserId,
		func(ctx context.Context) ([]entity.QuoteOutputModel, error) {
			quotes, err := s.repos.GetProviderQuotes(ctx, actor.UserId, nil)
			if err != nil {
				return nil, err
			}
			return mapQuotes(quotes), nil
		}, fn)
}

func (s *QuoteService) SubscribeToClientQuotes(ctx context.Context, fn func([]entity.QuoteOutputModel)) (func(), error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return subscribe(ctx, s.changes, s.logger, realtime.Quotes, actor.UserId,
		func(ctx context.Context) ([]entity.QuoteOutputModel, error) {
			quotes, err := s.repos.GetClientQuotes(ctx, actor.UserId, nil)
			if err != nil {
				return nil, err
			}
			return mapQuotes(quotes), nil
		}, fn)
}

// minorUnits converts an amount to the smallest currency unit.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
