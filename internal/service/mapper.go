package service

import (
	"time"

	"service-marketplace-api/internal/entity"

	"github.com/google/uuid"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)

	return &s
}

func nullUUIDPtr(id uuid.NullUUID) *string {
	if !id.Valid {
		return nil
	}
	s := id.UUID.String()

	return &s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}

	return s
}

func mapRequest(r *entity.Request) *entity.RequestOutputModel {
	return &entity.RequestOutputModel{
		Id:               r.Id.String(),
		Title:            r.Title,
		Description:      r.Description,
		ServiceType:      r.ServiceType,
		Priority:         r.Priority,
		Status:           r.Status,
		Location:         r.Location,
		Budget:           entity.BudgetOutputModel{Amount: r.BudgetAmount, Currency: r.BudgetCurrency},
		Contact:          r.Contact,
		Files:            nonNilStrings(r.Files),
		CreatedBy:        r.CreatedBy.String(),
		ProviderAssigned: r.ProviderAssigned,
		ProviderId:       nullUUIDPtr(r.ProviderId),
		AcceptedQuoteId:  nullUUIDPtr(r.AcceptedQuoteId),
		AcceptedQuote:    r.AcceptedQuote,
		Rating:           r.Rating,
		Review:           r.Review,
		CreatedAt:        formatTime(r.CreatedAt),
		UpdatedAt:        formatTime(r.UpdatedAt),
		CompletedAt:      formatTimePtr(r.CompletedAt),
		CancelledAt:      formatTimePtr(r.CancelledAt),
	}
}

func mapRequests(r []entity.Request) []entity.RequestOutputModel {
	s := make([]entity.RequestOutputModel, 0)
	for _, request := range r {
		s = append(s, *mapRequest(&request))
	}

	return s
}

func mapQuote(q *entity.Quote) *entity.QuoteOutputModel {
	return &entity.QuoteOutputModel{
		Id:               q.Id.String(),
		RequestId:        q.RequestId.String(),
		ProviderId:       q.ProviderId.String(),
		ClientId:         q.ClientId.String(),
		Amount:           q.Amount,
		Currency:         q.Currency,
		Duration:         q.Duration,
		Note:             q.Note,
		Package:          q.Package,
		DeliverySpeed:    q.DeliverySpeed,
		Revisions:        q.Revisions,
		IncludeMaterials: q.IncludeMaterials,
		Attachments:      nonNilStrings(q.Attachments),
		Status:           q.Status,
		CreatedAt:        formatTime(q.CreatedAt),
		UpdatedAt:        formatTime(q.UpdatedAt),
	}
}

func mapQuotes(q []entity.Quote) []entity.QuoteOutputModel {
	s := make([]entity.QuoteOutputModel, 0)
	for _, quote := range q {
		s = append(s, *mapQuote(&quote))
	}

	return s
}

func mapProject(p *entity.Project) *entity.ProjectOutputModel {
	photos := []entity.Photo(p.Photos)
	if photos == nil {
		photos = make([]entity.Photo, 0)
	}
	comments := []entity.Comment(p.Comments)
	if comments == nil {
		comments = make([]entity.Comment, 0)
	}

	return &entity.ProjectOutputModel{
		Id:          p.Id.String(),
		RequestId:   p.RequestId.String(),
		QuoteId:     p.QuoteId.String(),
		ProviderId:  p.ProviderId.String(),
		ClientId:    p.ClientId.String(),
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Progress:    p.Progress,
		Photos:      photos,
		Comments:    comments,
		Budget:      p.Budget,
		Currency:    p.Currency,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
		CompletedAt: formatTimePtr(p.CompletedAt),
	}
}

func mapProjects(p []entity.Project) []entity.ProjectOutputModel {
	s := make([]entity.ProjectOutputModel, 0)
	for _, project := range p {
		s = append(s, *mapProject(&project))
	}

	return s
}

func mapInvoice(i *entity.Invoice) *entity.InvoiceOutputModel {
	var url *string
	if i.InvoiceUrl != "" {
		u := i.InvoiceUrl
		url = &u
	}

	return &entity.InvoiceOutputModel{
		Id:           i.Id.String(),
		ProjectId:    i.ProjectId.String(),
		ProviderId:   i.ProviderId.String(),
		OrderGiverId: i.OrderGiverId.String(),
		Amount:       i.Amount,
		Currency:     i.Currency,
		Note:         i.Note,
		Status:       i.Status,
		Date:         formatTime(i.Date),
		InvoiceUrl:   url,
		PaidAt:       formatTimePtr(i.PaidAt),
		CreatedAt:    formatTime(i.CreatedAt),
		UpdatedAt:    formatTime(i.UpdatedAt),
	}
}

func mapInvoices(i []entity.Invoice) []entity.InvoiceOutputModel {
	s := make([]entity.InvoiceOutputModel, 0)
	for _, invoice := range i {
		s = append(s, *mapInvoice(&invoice))
	}

	return s
}

func mapNotification(n *entity.Notification) *entity.NotificationOutputModel {
	data := map[string]string(n.Data)
	if data == nil {
		data = make(map[string]string)
	}

	return &entity.NotificationOutputModel{
		Id:          n.Id.String(),
		UserId:      n.UserId.String(),
		Type:        n.Type,
		Title:       n.Title,
		Body:        n.Body,
		Data:        data,
		ClickAction: n.ClickAction,
		Read:        n.Read,
		CreatedAt:   formatTime(n.CreatedAt),
	}
}

func mapNotifications(n []entity.Notification) []entity.NotificationOutputModel {
	s := make([]entity.NotificationOutputModel, 0)
	for _, notification := range n {
		s = append(s, *mapNotification(&notification))
	}

	return s
}

func mapProvider(u *entity.User) *entity.ProviderOutputModel {
	return &entity.ProviderOutputModel{
		Id:            u.Id.String(),
		DisplayName:   u.DisplayName,
		Role:          u.Role,
		ServiceType:   u.ServiceType,
		Services:      u.Services,
		ServiceArea:   u.ServiceArea,
		City:          u.City,
		RatingAverage: u.RatingAverage,
		RatingCount:   u.RatingCount,
	}
}
